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

// Session is a freshly minted, registered token and the user it belongs to.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

// SessionManager owns the NoSession -> Active -> Revoked lifecycle. A token
// is Active only while the revocation store holds it.
type SessionManager struct {
	users   ports.UserRepository
	codec   ports.TokenCodec
	store   ports.RevocationStore
	hasher  ports.PasswordHasher
	logger  ports.Logger
	metrics ports.Metrics
	now     func() time.Time
}

func NewSessionManager(
	users ports.UserRepository,
	codec ports.TokenCodec,
	store ports.RevocationStore,
	hasher ports.PasswordHasher,
	logger ports.Logger,
	metrics ports.Metrics,
) *SessionManager {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &SessionManager{
		users:   users,
		codec:   codec,
		store:   store,
		hasher:  hasher,
		logger:  logger,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a diner account and logs it in.
func (m *SessionManager) Register(ctx context.Context, name, email, password string) (Session, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return Session{}, fmt.Errorf("%w: name, email and password are required", domain.ErrInvalidInput)
	}
	hash, err := m.hasher.Hash(password)
	if err != nil {
		return Session{}, err
	}
	now := m.now()
	user, err := m.users.Create(ctx, domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Roles:        []domain.Role{domain.DinerRole()},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Session{}, err
	}
	m.logger.Info(ctx, "user registered", "user_id", user.ID)
	return m.issue(ctx, user)
}

func (m *SessionManager) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := m.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		m.metrics.ObserveLogin("invalid_credentials")
		m.logger.Warn(ctx, "login rejected", "reason", "unknown email")
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		m.metrics.ObserveLogin("error")
		return Session{}, err
	}
	if !m.hasher.Compare(user.PasswordHash, password) {
		m.metrics.ObserveLogin("invalid_credentials")
		m.logger.Warn(ctx, "login rejected", "reason", "password mismatch", "user_id", user.ID)
		return Session{}, domain.ErrInvalidCredentials
	}
	session, err := m.issue(ctx, user)
	if err != nil {
		m.metrics.ObserveLogin("error")
		return Session{}, err
	}
	m.metrics.ObserveLogin("success")
	m.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return session, nil
}

// Logout revokes token. Only structurally malformed tokens are rejected;
// expired, foreign or already revoked tokens still succeed.
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrTokenMalformed
	}
	if _, err := m.codec.Verify(token); errors.Is(err, domain.ErrTokenMalformed) {
		return err
	}
	return m.store.Revoke(ctx, token)
}

// Authenticate resolves token to the caller's identity. Roles come from the
// user record so role changes and deletions take effect on the next request.
func (m *SessionManager) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrTokenMalformed
	}
	id, err := m.codec.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}
	active, err := m.store.IsActive(ctx, token)
	if err != nil {
		return domain.Identity{}, err
	}
	if !active {
		return domain.Identity{}, domain.ErrTokenRevoked
	}
	user, err := m.users.GetByID(ctx, id.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, domain.ErrTokenRevoked
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: user.ID, Roles: user.Roles}, nil
}

// ReissueOnIdentityChange retires oldToken and hands back a new session for
// userID. The old token is revoked before the new one exists, so a failure
// part way leaves the caller logged out rather than holding two sessions.
func (m *SessionManager) ReissueOnIdentityChange(ctx context.Context, oldToken string, userID int64) (Session, error) {
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	if err := m.store.Revoke(ctx, oldToken); err != nil {
		return Session{}, fmt.Errorf("revoke previous session: %w", err)
	}
	return m.issue(ctx, user)
}

// Revoke drops token without validating it.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	return m.store.Revoke(ctx, token)
}

func (m *SessionManager) issue(ctx context.Context, user domain.User) (Session, error) {
	token, expiresAt, err := m.codec.Mint(user.ID, user.Roles)
	if err != nil {
		return Session{}, err
	}
	if err := m.store.Register(ctx, token, expiresAt); err != nil {
		return Session{}, fmt.Errorf("register session: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

type nopMetrics struct{}

func (nopMetrics) ObserveDecision(string, domain.Decision) {}
func (nopMetrics) ObserveLogin(string)                     {}
