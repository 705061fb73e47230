package domain

import "slices"

type DenyReason string

const (
	DenyNone            DenyReason = ""
	DenyUnauthenticated DenyReason = "unauthenticated"
	DenyForbidden       DenyReason = "forbidden"
)

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// Err maps a deny to ErrUnauthenticated or ErrForbidden, nil when allowed.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == DenyUnauthenticated:
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

// Action is a capability request evaluated by Authorize. The set is closed.
type Action interface {
	Name() string
	action()
}

type (
	ReadUser           struct{ User *UserRef }
	UpdateUser         struct{ User *UserRef }
	DeleteUser         struct{ User *UserRef }
	ListUsers          struct{}
	ManageMenu         struct{}
	CreateFranchise    struct{}
	DeleteFranchise    struct{ FranchiseID int64 }
	ReadFranchise      struct{ Franchise *FranchiseRef }
	ListUserFranchises struct{ UserID int64 }
	CreateStore        struct{ FranchiseID int64 }
	DeleteStore        struct{ Store *StoreRef }
	CreateOrder        struct{ OwnerUserID int64 }
	ReadOrder          struct{ Order *OrderRef }
	ListOrders         struct{ UserID int64 }
)

func (ReadUser) Name() string           { return "read_user" }
func (UpdateUser) Name() string         { return "update_user" }
func (DeleteUser) Name() string         { return "delete_user" }
func (ListUsers) Name() string          { return "list_users" }
func (ManageMenu) Name() string         { return "manage_menu" }
func (CreateFranchise) Name() string    { return "create_franchise" }
func (DeleteFranchise) Name() string    { return "delete_franchise" }
func (ReadFranchise) Name() string      { return "read_franchise" }
func (ListUserFranchises) Name() string { return "list_user_franchises" }
func (CreateStore) Name() string        { return "create_store" }
func (DeleteStore) Name() string        { return "delete_store" }
func (CreateOrder) Name() string        { return "create_order" }
func (ReadOrder) Name() string          { return "read_order" }
func (ListOrders) Name() string         { return "list_orders" }

func (ReadUser) action()           {}
func (UpdateUser) action()         {}
func (DeleteUser) action()         {}
func (ListUsers) action()          {}
func (ManageMenu) action()         {}
func (CreateFranchise) action()    {}
func (DeleteFranchise) action()    {}
func (ReadFranchise) action()      {}
func (ListUserFranchises) action() {}
func (CreateStore) action()        {}
func (DeleteStore) action()        {}
func (CreateOrder) action()        {}
func (ReadOrder) action()          {}
func (ListOrders) action()         {}

// Authorize decides whether id may perform act. It performs no I/O: every
// ownership fact arrives inside the action. A nil id is unauthenticated and a
// nil descriptor (absent resource) is always forbidden.
func Authorize(id *Identity, act Action) Decision {
	if id == nil {
		return Deny(DenyUnauthenticated)
	}
	if act == nil || missingResource(act) {
		return Deny(DenyForbidden)
	}
	if id.HasGlobalAdmin() {
		if _, ok := act.(CreateOrder); !ok {
			return Allow()
		}
	}

	switch a := act.(type) {
	case ReadUser:
		return allowIf(a.User.ID == id.UserID)
	case UpdateUser:
		return allowIf(a.User.ID == id.UserID)
	case DeleteUser:
		return allowIf(a.User.ID == id.UserID)
	case ListUsers:
		return Allow()
	case ManageMenu, CreateFranchise, DeleteFranchise:
		return Deny(DenyForbidden)
	case ReadFranchise:
		return allowIf(slices.Contains(a.Franchise.AdminUserIDs, id.UserID))
	case ListUserFranchises:
		return allowIf(a.UserID == id.UserID)
	case CreateStore:
		return allowIf(id.AdministersFranchise(a.FranchiseID))
	case DeleteStore:
		return allowIf(id.AdministersFranchise(a.Store.FranchiseID))
	case CreateOrder:
		return allowIf(a.OwnerUserID == id.UserID)
	case ReadOrder:
		return allowIf(a.Order.OwnerUserID == id.UserID)
	case ListOrders:
		return allowIf(a.UserID == id.UserID)
	default:
		return Deny(DenyForbidden)
	}
}

func allowIf(ok bool) Decision {
	if ok {
		return Allow()
	}
	return Deny(DenyForbidden)
}

func missingResource(act Action) bool {
	switch a := act.(type) {
	case ReadUser:
		return a.User == nil
	case UpdateUser:
		return a.User == nil
	case DeleteUser:
		return a.User == nil
	case ReadFranchise:
		return a.Franchise == nil
	case DeleteStore:
		return a.Store == nil
	case ReadOrder:
		return a.Order == nil
	}
	return false
}
