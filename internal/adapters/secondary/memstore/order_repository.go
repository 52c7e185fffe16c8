// Package memstore provides in-memory repository implementations. The
// ordering platform's durable storage lives in a separate service; this
// process only tracks the working set that drives realtime notifications.
package memstore

import (
	"context"
	"sync"

	"github.com/tapdine/ordersync-backend/internal/core/domain"
	apperrors "github.com/tapdine/ordersync-backend/internal/core/errors"
)

// OrderRepository is a mutex-guarded in-memory order store.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

// NewOrderRepository creates an empty order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// Create stores a new order.
func (r *OrderRepository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneOrder(order)
	r.orders[order.ID] = stored
	return cloneOrder(stored), nil
}

// GetByID returns the order with the given ID.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// Update replaces the stored order.
func (r *OrderRepository) Update(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; !ok {
		return nil, apperrors.ErrOrderNotFound
	}

	stored := cloneOrder(order)
	r.orders[order.ID] = stored
	return cloneOrder(stored), nil
}

// CountActive returns the number of orders that are neither completed nor
// cancelled.
func (r *OrderRepository) CountActive(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, order := range r.orders {
		switch order.Status {
		case domain.OrderCompleted, domain.OrderCancelled:
		default:
			count++
		}
	}
	return count, nil
}

// cloneOrder copies an order so callers cannot mutate stored state.
func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Items = make([]domain.OrderItem, len(order.Items))
	copy(clone.Items, order.Items)
	if order.UpdatedAt != nil {
		updatedAt := *order.UpdatedAt
		clone.UpdatedAt = &updatedAt
	}
	return &clone
}
