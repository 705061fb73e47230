package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizza-authz/internal/domain"
	"pizza-authz/internal/ports"
)

type OrderService struct {
	orders     ports.OrderRepository
	franchises ports.FranchiseRepository
	menu       ports.MenuRepository
	authz      *Authorizer
	logger     ports.Logger
}

func NewOrderService(orders ports.OrderRepository, franchises ports.FranchiseRepository, menu ports.MenuRepository, authz *Authorizer, logger ports.Logger) *OrderService {
	return &OrderService{orders: orders, franchises: franchises, menu: menu, authz: authz, logger: logger}
}

// Create places an order for the caller. Item descriptions and prices are
// taken from the menu, not from the request.
func (s *OrderService) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.DinerID == 0 {
		if id := domain.IdentityFrom(ctx); id != nil {
			order.DinerID = id.UserID
		}
	}
	if err := s.authz.Authorize(ctx, domain.CreateOrder{OwnerUserID: order.DinerID}); err != nil {
		return domain.Order{}, err
	}
	if len(order.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: order has no items", domain.ErrInvalidInput)
	}
	store, err := s.franchises.GetStore(ctx, order.StoreID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && store.FranchiseID != order.FranchiseID) {
		return domain.Order{}, fmt.Errorf("%w: store %d is not part of franchise %d", domain.ErrInvalidInput, order.StoreID, order.FranchiseID)
	}
	if err != nil {
		return domain.Order{}, err
	}
	menu, err := s.menu.List(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	byID := make(map[int64]domain.MenuItem, len(menu))
	for _, m := range menu {
		byID[m.ID] = m
	}
	for i, it := range order.Items {
		m, ok := byID[it.MenuID]
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: unknown menu item %d", domain.ErrInvalidInput, it.MenuID)
		}
		order.Items[i] = domain.OrderItem{MenuID: m.ID, Description: m.Title, Price: m.Price}
	}
	order.CreatedAt = time.Now().UTC()
	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	s.logger.Info(ctx, "order created", "order_id", created.ID, "items", len(created.Items))
	return created, nil
}

func (s *OrderService) Get(ctx context.Context, orderID int64) (domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	var ref *domain.OrderRef
	switch {
	case err == nil:
		ref = order.Ref()
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Order{}, err
	}
	if err := s.authz.Authorize(ctx, domain.ReadOrder{Order: ref}); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, userID int64) ([]domain.Order, error) {
	if err := s.authz.Authorize(ctx, domain.ListOrders{UserID: userID}); err != nil {
		return nil, err
	}
	return s.orders.ListByDiner(ctx, userID)
}
