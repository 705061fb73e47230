package ports

import (
	"context"
	"time"

	"pizza-authz/internal/domain"
)

type UserRepository interface {
	// Create assigns the user id and returns the stored user.
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Update(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.UserSummary, error)
}

type FranchiseRepository interface {
	Create(ctx context.Context, franchise domain.Franchise) (domain.Franchise, error)
	GetByID(ctx context.Context, id int64) (domain.Franchise, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Franchise, error)
	ListByAdmin(ctx context.Context, userID int64) ([]domain.Franchise, error)
	CreateStore(ctx context.Context, store domain.Store) (domain.Store, error)
	GetStore(ctx context.Context, storeID int64) (domain.Store, error)
	DeleteStore(ctx context.Context, storeID int64) error
}

type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	GetByID(ctx context.Context, id int64) (domain.Order, error)
	ListByDiner(ctx context.Context, dinerID int64) ([]domain.Order, error)
}

type MenuRepository interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	Add(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)
}

// RevocationStore records which minted tokens are still honored. Every call
// touches exactly one key.
type RevocationStore interface {
	Register(ctx context.Context, token string, expiresAt time.Time) error
	Revoke(ctx context.Context, token string) error
	IsActive(ctx context.Context, token string) (bool, error)
}
