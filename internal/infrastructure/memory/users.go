package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"pizza-authz/internal/domain"
)

type UserRepository struct{ s *Store }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (r *UserRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = normalizeEmail(user.Email)
	if _, taken := r.s.emails[user.Email]; taken {
		return domain.User{}, fmt.Errorf("%w: email %s", domain.ErrConflict, user.Email)
	}
	user.ID = r.s.next("user")
	r.s.users[user.ID] = copyUser(user)
	r.s.emails[user.Email] = user.ID
	return copyUser(user), nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[normalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return copyUser(r.s.users[id]), nil
}

func (r *UserRepository) Update(_ context.Context, user domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[user.ID]
	if !ok {
		return domain.ErrNotFound
	}
	user.Email = normalizeEmail(user.Email)
	if user.Email != current.Email {
		if _, taken := r.s.emails[user.Email]; taken {
			return fmt.Errorf("%w: email %s", domain.ErrConflict, user.Email)
		}
		delete(r.s.emails, current.Email)
		r.s.emails[user.Email] = user.ID
	}
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.s.emails, u.Email)
	delete(r.s.users, id)
	return nil
}

func (r *UserRepository) List(_ context.Context) ([]domain.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.UserSummary, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, copyUser(u).Summary())
	}
	slices.SortFunc(out, func(a, b domain.UserSummary) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}
