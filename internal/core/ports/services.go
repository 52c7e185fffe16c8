package ports

import (
	"context"

	"github.com/tapdine/ordersync-backend/internal/core/domain"
)

// CreateOrderParams defines the required input for placing a new order.
type CreateOrderParams struct {
	RestaurantID string
	CustomerName string
	TableNumber  string
	Items        []domain.OrderItem
}

// UpdateOrderStatusParams defines the input for changing an order's status.
type UpdateOrderStatusParams struct {
	OrderID string
	Status  domain.OrderStatus
}

// UpdatePaymentStatusParams defines the input for changing payment status.
type UpdatePaymentStatusParams struct {
	OrderID       string
	PaymentStatus domain.PaymentStatus
}

// CancelOrderParams defines the input for cancelling an order.
type CancelOrderParams struct {
	OrderID string
	Reason  string
}

// OrderService is the producer side of the order domain: every successful
// mutation emits exactly one realtime notification per affected scope.
type OrderService interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, params UpdateOrderStatusParams) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, params UpdatePaymentStatusParams) (*domain.Order, error)
	CancelOrder(ctx context.Context, params CancelOrderParams) (*domain.Order, error)
}

// RestaurantService is the producer side of the restaurant domain.
type RestaurantService interface {
	SetStatus(ctx context.Context, restaurantID string, status domain.RestaurantStatus) (*domain.Restaurant, error)
}

// PlatformService is the producer side of admin/superadmin notifications.
type PlatformService interface {
	NotifyAdmin(ctx context.Context, adminID string, notice domain.NoticePayload) error
	NotifySuperadmins(ctx context.Context, notice domain.NoticePayload) error
	PublishStats(ctx context.Context) (*domain.PlatformStatsPayload, error)
}
