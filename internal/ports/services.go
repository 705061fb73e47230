package ports

import (
	"context"
	"time"

	"pizza-authz/internal/domain"
)

type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
}

type TokenCodec interface {
	Mint(userID int64, roles []domain.Role) (string, time.Time, error)
	Verify(token string) (domain.Identity, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type Metrics interface {
	ObserveDecision(action string, decision domain.Decision)
	ObserveLogin(outcome string)
}
