package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"pizza-authz/internal/domain"
	"pizza-authz/internal/ports"
)

type FranchiseService struct {
	franchises ports.FranchiseRepository
	users      ports.UserRepository
	authz      *Authorizer
	logger     ports.Logger
}

func NewFranchiseService(franchises ports.FranchiseRepository, users ports.UserRepository, authz *Authorizer, logger ports.Logger) *FranchiseService {
	return &FranchiseService{franchises: franchises, users: users, authz: authz, logger: logger}
}

// List is public. Admin ids are only shown to global admins.
func (s *FranchiseService) List(ctx context.Context, name string) ([]domain.Franchise, error) {
	all, err := s.franchises.List(ctx)
	if err != nil {
		return nil, err
	}
	id := domain.IdentityFrom(ctx)
	showAdmins := id != nil && id.HasGlobalAdmin()
	out := make([]domain.Franchise, 0, len(all))
	for _, f := range all {
		if !domain.MatchName(name, f.Name) {
			continue
		}
		if !showAdmins {
			f.AdminIDs = nil
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *FranchiseService) ListForUser(ctx context.Context, userID int64) ([]domain.Franchise, error) {
	if err := s.authz.Authorize(ctx, domain.ListUserFranchises{UserID: userID}); err != nil {
		return nil, err
	}
	return s.franchises.ListByAdmin(ctx, userID)
}

func (s *FranchiseService) Get(ctx context.Context, franchiseID int64) (domain.Franchise, error) {
	f, err := s.franchises.GetByID(ctx, franchiseID)
	var ref *domain.FranchiseRef
	switch {
	case err == nil:
		ref = f.Ref()
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Franchise{}, err
	}
	if err := s.authz.Authorize(ctx, domain.ReadFranchise{Franchise: ref}); err != nil {
		return domain.Franchise{}, err
	}
	return f, nil
}

// Create makes a franchise and grants every named admin the franchisee role
// for it. All admin emails must belong to existing users.
func (s *FranchiseService) Create(ctx context.Context, name string, adminEmails []string) (domain.Franchise, error) {
	if err := s.authz.Authorize(ctx, domain.CreateFranchise{}); err != nil {
		return domain.Franchise{}, err
	}
	if strings.TrimSpace(name) == "" {
		return domain.Franchise{}, fmt.Errorf("%w: franchise name is required", domain.ErrInvalidInput)
	}
	admins := make([]domain.User, 0, len(adminEmails))
	for _, email := range adminEmails {
		u, err := s.users.GetByEmail(ctx, email)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Franchise{}, fmt.Errorf("%w: unknown admin email %s", domain.ErrInvalidInput, email)
		}
		if err != nil {
			return domain.Franchise{}, err
		}
		if slices.ContainsFunc(admins, func(a domain.User) bool { return a.ID == u.ID }) {
			continue
		}
		admins = append(admins, u)
	}
	ids := make([]int64, 0, len(admins))
	for _, u := range admins {
		ids = append(ids, u.ID)
	}
	f, err := s.franchises.Create(ctx, domain.Franchise{Name: name, AdminIDs: ids, CreatedAt: time.Now().UTC()})
	if err != nil {
		return domain.Franchise{}, err
	}
	for _, u := range admins {
		role := domain.FranchiseeRole(f.ID)
		if domain.HasRole(u.Roles, role) {
			continue
		}
		u.Roles = append(u.Roles, role)
		u.UpdatedAt = time.Now().UTC()
		if err := s.users.Update(ctx, u); err != nil {
			return domain.Franchise{}, fmt.Errorf("grant franchisee role to user %d: %w", u.ID, err)
		}
	}
	s.logger.Info(ctx, "franchise created", "franchise_id", f.ID, "admins", len(ids))
	return f, nil
}

// Delete removes the franchise with its stores and strips the matching
// franchisee role from its admins.
func (s *FranchiseService) Delete(ctx context.Context, franchiseID int64) error {
	if err := s.authz.Authorize(ctx, domain.DeleteFranchise{FranchiseID: franchiseID}); err != nil {
		return err
	}
	f, err := s.franchises.GetByID(ctx, franchiseID)
	if err != nil {
		return err
	}
	for _, uid := range f.AdminIDs {
		u, err := s.users.GetByID(ctx, uid)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		u.Roles = domain.WithoutFranchise(u.Roles, franchiseID)
		u.UpdatedAt = time.Now().UTC()
		if err := s.users.Update(ctx, u); err != nil {
			return fmt.Errorf("revoke franchisee role from user %d: %w", uid, err)
		}
	}
	if err := s.franchises.Delete(ctx, franchiseID); err != nil {
		return err
	}
	s.logger.Info(ctx, "franchise deleted", "franchise_id", franchiseID)
	return nil
}

func (s *FranchiseService) CreateStore(ctx context.Context, franchiseID int64, name string) (domain.Store, error) {
	if err := s.authz.Authorize(ctx, domain.CreateStore{FranchiseID: franchiseID}); err != nil {
		return domain.Store{}, err
	}
	if strings.TrimSpace(name) == "" {
		return domain.Store{}, fmt.Errorf("%w: store name is required", domain.ErrInvalidInput)
	}
	return s.franchises.CreateStore(ctx, domain.Store{FranchiseID: franchiseID, Name: name, CreatedAt: time.Now().UTC()})
}

// DeleteStore treats a store outside franchiseID as absent.
func (s *FranchiseService) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	store, err := s.franchises.GetStore(ctx, storeID)
	var ref *domain.StoreRef
	switch {
	case err == nil && store.FranchiseID == franchiseID:
		ref = store.Ref()
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return err
	}
	if err := s.authz.Authorize(ctx, domain.DeleteStore{Store: ref}); err != nil {
		return err
	}
	return s.franchises.DeleteStore(ctx, storeID)
}
