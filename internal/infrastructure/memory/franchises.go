package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"pizza-authz/internal/domain"
)

type FranchiseRepository struct{ s *Store }

func (r *FranchiseRepository) Create(_ context.Context, franchise domain.Franchise) (domain.Franchise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	franchise.ID = r.s.next("franchise")
	franchise.Stores = nil
	r.s.franchises[franchise.ID] = copyFranchise(franchise)
	return r.withStores(franchise), nil
}

func (r *FranchiseRepository) GetByID(_ context.Context, id int64) (domain.Franchise, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.franchises[id]
	if !ok {
		return domain.Franchise{}, domain.ErrNotFound
	}
	return r.withStores(f), nil
}

func (r *FranchiseRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.franchises[id]; !ok {
		return domain.ErrNotFound
	}
	for sid, st := range r.s.stores {
		if st.FranchiseID == id {
			delete(r.s.stores, sid)
		}
	}
	delete(r.s.franchises, id)
	return nil
}

func (r *FranchiseRepository) List(_ context.Context) ([]domain.Franchise, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.collect(func(domain.Franchise) bool { return true }), nil
}

func (r *FranchiseRepository) ListByAdmin(_ context.Context, userID int64) ([]domain.Franchise, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.collect(func(f domain.Franchise) bool { return slices.Contains(f.AdminIDs, userID) }), nil
}

func (r *FranchiseRepository) CreateStore(_ context.Context, store domain.Store) (domain.Store, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.franchises[store.FranchiseID]; !ok {
		return domain.Store{}, fmt.Errorf("franchise %d: %w", store.FranchiseID, domain.ErrNotFound)
	}
	store.ID = r.s.next("store")
	r.s.stores[store.ID] = store
	return store, nil
}

func (r *FranchiseRepository) GetStore(_ context.Context, storeID int64) (domain.Store, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.stores[storeID]
	if !ok {
		return domain.Store{}, domain.ErrNotFound
	}
	return st, nil
}

func (r *FranchiseRepository) DeleteStore(_ context.Context, storeID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.stores[storeID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.stores, storeID)
	return nil
}

// collect and withStores must be called with mu held.
func (r *FranchiseRepository) collect(keep func(domain.Franchise) bool) []domain.Franchise {
	out := make([]domain.Franchise, 0, len(r.s.franchises))
	for _, f := range r.s.franchises {
		if keep(f) {
			out = append(out, r.withStores(f))
		}
	}
	slices.SortFunc(out, func(a, b domain.Franchise) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *FranchiseRepository) withStores(f domain.Franchise) domain.Franchise {
	f = copyFranchise(f)
	f.Stores = []domain.Store{}
	for _, st := range r.s.stores {
		if st.FranchiseID == f.ID {
			f.Stores = append(f.Stores, st)
		}
	}
	slices.SortFunc(f.Stores, func(a, b domain.Store) int { return cmp.Compare(a.ID, b.ID) })
	return f
}
