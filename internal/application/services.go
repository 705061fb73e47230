package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pizza-authz/internal/domain"
	"pizza-authz/internal/ports"
)

func callerID(ctx context.Context) (int64, error) {
	id := domain.IdentityFrom(ctx)
	if id == nil {
		return 0, domain.ErrUnauthenticated
	}
	return id.UserID, nil
}

type UserService struct {
	users    ports.UserRepository
	sessions *SessionManager
	hasher   ports.PasswordHasher
	authz    *Authorizer
	logger   ports.Logger
}

func NewUserService(users ports.UserRepository, sessions *SessionManager, hasher ports.PasswordHasher, authz *Authorizer, logger ports.Logger) *UserService {
	return &UserService{users: users, sessions: sessions, hasher: hasher, authz: authz, logger: logger}
}

// UserUpdate carries the profile fields a caller may change. Empty fields are
// left untouched.
type UserUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *UserService) Me(ctx context.Context) (domain.User, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return domain.User{}, err
	}
	return s.users.GetByID(ctx, uid)
}

// Update applies upd to userID. When callers change their own record the
// presented token is swapped for a new one, returned as the session.
func (s *UserService) Update(ctx context.Context, token string, userID int64, upd UserUpdate) (domain.User, *Session, error) {
	user, ref, err := s.lookup(ctx, userID)
	if err != nil {
		return domain.User{}, nil, err
	}
	if err := s.authz.Authorize(ctx, domain.UpdateUser{User: ref}); err != nil {
		return domain.User{}, nil, err
	}
	if name := strings.TrimSpace(upd.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(upd.Email); email != "" {
		user.Email = email
	}
	if upd.Password != "" {
		hash, err := s.hasher.Hash(upd.Password)
		if err != nil {
			return domain.User{}, nil, err
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, nil, err
	}

	uid, _ := callerID(ctx)
	if uid != userID {
		s.logger.Info(ctx, "user updated", "target_user_id", userID)
		return user, nil, nil
	}
	session, err := s.sessions.ReissueOnIdentityChange(ctx, token, userID)
	if err != nil {
		return domain.User{}, nil, err
	}
	s.logger.Info(ctx, "user updated, session reissued")
	return session.User, &session, nil
}

// Delete removes userID. Deleting one's own account also revokes the
// presented token.
func (s *UserService) Delete(ctx context.Context, token string, userID int64) error {
	_, ref, err := s.lookup(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, domain.DeleteUser{User: ref}); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if uid, _ := callerID(ctx); uid == userID {
		if err := s.sessions.Revoke(ctx, token); err != nil {
			return err
		}
	}
	s.logger.Info(ctx, "user deleted", "target_user_id", userID)
	return nil
}

func (s *UserService) List(ctx context.Context, cursor domain.ListCursor) (domain.ListPage, error) {
	if err := s.authz.Authorize(ctx, domain.ListUsers{}); err != nil {
		return domain.ListPage{}, err
	}
	all, err := s.users.List(ctx)
	if err != nil {
		return domain.ListPage{}, err
	}
	return domain.PageUsers(cursor, all)
}

// lookup returns a nil ref when the user does not exist so the decision
// engine fails closed.
func (s *UserService) lookup(ctx context.Context, userID int64) (domain.User, *domain.UserRef, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, nil, nil
	}
	if err != nil {
		return domain.User{}, nil, err
	}
	return user, &domain.UserRef{ID: user.ID}, nil
}

type MenuService struct {
	menu  ports.MenuRepository
	authz *Authorizer
}

func NewMenuService(menu ports.MenuRepository, authz *Authorizer) *MenuService {
	return &MenuService{menu: menu, authz: authz}
}

func (s *MenuService) List(ctx context.Context) ([]domain.MenuItem, error) {
	return s.menu.List(ctx)
}

// Add stores item and returns the whole menu.
func (s *MenuService) Add(ctx context.Context, item domain.MenuItem) ([]domain.MenuItem, error) {
	if err := s.authz.Authorize(ctx, domain.ManageMenu{}); err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.Title) == "" || item.Price < 0 {
		return nil, fmt.Errorf("%w: menu item needs a title and a non-negative price", domain.ErrInvalidInput)
	}
	if _, err := s.menu.Add(ctx, item); err != nil {
		return nil, err
	}
	return s.menu.List(ctx)
}
