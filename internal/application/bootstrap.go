package application

import (
	"context"
	"errors"
	"time"

	"pizza-authz/internal/domain"
	"pizza-authz/internal/ports"
)

// EnsureAdmin makes sure an account with email exists and holds the admin
// role. It is a no-op when email is empty.
func EnsureAdmin(ctx context.Context, users ports.UserRepository, hasher ports.PasswordHasher, logger ports.Logger, email, password string) error {
	if email == "" {
		return nil
	}
	user, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if domain.HasRole(user.Roles, domain.AdminRole()) {
			return nil
		}
		user.Roles = append(user.Roles, domain.AdminRole())
		user.UpdatedAt = time.Now().UTC()
		if err := users.Update(ctx, user); err != nil {
			return err
		}
		logger.Info(ctx, "admin role granted to existing user", "user_id", user.ID)
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}
	if password == "" {
		return domain.ErrInvalidInput
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	created, err := users.Create(ctx, domain.User{
		Name:         "admin",
		Email:        email,
		PasswordHash: hash,
		Roles:        []domain.Role{domain.AdminRole()},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "bootstrap admin created", "user_id", created.ID)
	return nil
}
