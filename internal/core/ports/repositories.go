package ports

import (
	"context"

	"github.com/tapdine/ordersync-backend/internal/core/domain"
)

// OrderRepository stores orders. The platform's source of truth for order
// rows lives behind the REST collaborators; this repository only needs to
// hold the working set the realtime producers mutate.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) (*domain.Order, error)
	CountActive(ctx context.Context) (int, error)
}

// RestaurantRepository stores restaurants.
type RestaurantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)
	Upsert(ctx context.Context, restaurant *domain.Restaurant) (*domain.Restaurant, error)
	CountOpen(ctx context.Context) (int, error)
}
