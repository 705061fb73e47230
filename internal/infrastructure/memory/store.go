// Package memory keeps every repository in process memory. It backs local
// runs and tests; all data is lost on restart.
package memory

import (
	"slices"
	"sync"

	"pizza-authz/internal/domain"
)

// Store holds the tables shared by the repositories it hands out.
// All methods on the repositories are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	seq        map[string]int64
	users      map[int64]domain.User
	emails     map[string]int64
	franchises map[int64]domain.Franchise
	stores     map[int64]domain.Store
	orders     map[int64]domain.Order
	menu       map[int64]domain.MenuItem
}

func NewStore() *Store {
	return &Store{
		seq:        make(map[string]int64),
		users:      make(map[int64]domain.User),
		emails:     make(map[string]int64),
		franchises: make(map[int64]domain.Franchise),
		stores:     make(map[int64]domain.Store),
		orders:     make(map[int64]domain.Order),
		menu:       make(map[int64]domain.MenuItem),
	}
}

func (s *Store) Users() *UserRepository           { return &UserRepository{s: s} }
func (s *Store) Franchises() *FranchiseRepository { return &FranchiseRepository{s: s} }
func (s *Store) Orders() *OrderRepository         { return &OrderRepository{s: s} }
func (s *Store) Menu() *MenuRepository            { return &MenuRepository{s: s} }

// next must be called with mu held for writing.
func (s *Store) next(entity string) int64 {
	s.seq[entity]++
	return s.seq[entity]
}

func copyUser(u domain.User) domain.User {
	u.Roles = slices.Clone(u.Roles)
	return u
}

func copyFranchise(f domain.Franchise) domain.Franchise {
	f.AdminIDs = slices.Clone(f.AdminIDs)
	return f
}

func copyOrder(o domain.Order) domain.Order {
	o.Items = slices.Clone(o.Items)
	return o
}
