package memory

import (
	"cmp"
	"context"
	"slices"

	"pizza-authz/internal/domain"
)

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order.ID = r.s.next("order")
	r.s.orders[order.ID] = copyOrder(order)
	return copyOrder(order), nil
}

func (r *OrderRepository) GetByID(_ context.Context, id int64) (domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r *OrderRepository) ListByDiner(_ context.Context, dinerID int64) ([]domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Order{}
	for _, o := range r.s.orders {
		if o.DinerID == dinerID {
			out = append(out, copyOrder(o))
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

type MenuRepository struct{ s *Store }

func (r *MenuRepository) Add(_ context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item.ID = r.s.next("menu")
	r.s.menu[item.ID] = item
	return item, nil
}

func (r *MenuRepository) List(_ context.Context) ([]domain.MenuItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.MenuItem, 0, len(r.s.menu))
	for _, it := range r.s.menu {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b domain.MenuItem) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}
