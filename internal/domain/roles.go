package domain

import (
	"encoding/json"
	"fmt"
)

type RoleKind string

const (
	RoleDiner      RoleKind = "diner"
	RoleAdmin      RoleKind = "admin"
	RoleFranchisee RoleKind = "franchisee"
)

// Role is one assignment held by a user. FranchiseID is only meaningful for
// RoleFranchisee.
type Role struct {
	Kind        RoleKind
	FranchiseID int64
}

func AdminRole() Role { return Role{Kind: RoleAdmin} }

func DinerRole() Role { return Role{Kind: RoleDiner} }

func FranchiseeRole(franchiseID int64) Role {
	return Role{Kind: RoleFranchisee, FranchiseID: franchiseID}
}

func (r Role) String() string {
	if r.Kind == RoleFranchisee {
		return fmt.Sprintf("%s:%d", r.Kind, r.FranchiseID)
	}
	return string(r.Kind)
}

type roleJSON struct {
	Role     RoleKind `json:"role"`
	ObjectID int64    `json:"objectId,omitempty"`
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(roleJSON{Role: r.Kind, ObjectID: r.FranchiseID})
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw roleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Role {
	case RoleAdmin, RoleDiner:
		*r = Role{Kind: raw.Role}
	case RoleFranchisee:
		if raw.ObjectID <= 0 {
			return fmt.Errorf("%w: franchisee role without franchise id", ErrInvalidInput)
		}
		*r = FranchiseeRole(raw.ObjectID)
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw.Role)
	}
	return nil
}

// Identity is the authenticated caller of a single request.
type Identity struct {
	UserID int64
	Roles  []Role
}

func (i Identity) HasGlobalAdmin() bool {
	for _, r := range i.Roles {
		if r.Kind == RoleAdmin {
			return true
		}
	}
	return false
}

// FranchiseScopes returns the ids of every franchise the identity administers.
func (i Identity) FranchiseScopes() map[int64]struct{} {
	scopes := map[int64]struct{}{}
	for _, r := range i.Roles {
		if r.Kind == RoleFranchisee {
			scopes[r.FranchiseID] = struct{}{}
		}
	}
	return scopes
}

func (i Identity) AdministersFranchise(franchiseID int64) bool {
	_, ok := i.FranchiseScopes()[franchiseID]
	return ok
}

// IsDefaultDiner is true when no elevated assignment is present, including
// the case of no assignments at all.
func (i Identity) IsDefaultDiner() bool {
	for _, r := range i.Roles {
		if r.Kind == RoleAdmin || r.Kind == RoleFranchisee {
			return false
		}
	}
	return true
}

// HasRole reports whether roles already contains role.
func HasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// WithoutFranchise drops every franchisee assignment for franchiseID.
func WithoutFranchise(roles []Role, franchiseID int64) []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if r.Kind == RoleFranchisee && r.FranchiseID == franchiseID {
			continue
		}
		out = append(out, r)
	}
	return out
}
