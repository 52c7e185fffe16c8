package services

import (
	"context"
	"errors"
	"time"

	"github.com/tapdine/ordersync-backend/internal/core/domain"
	apperrors "github.com/tapdine/ordersync-backend/internal/core/errors"
	"github.com/tapdine/ordersync-backend/internal/core/ports"
	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

// OrderService owns the order producer flow. Each successful mutation emits
// the corresponding realtime event; notification failures do not roll back
// the mutation (delivery is fire-and-forget).
type OrderService struct {
	orders   ports.OrderRepository
	notifier ports.RoomNotifier
}

var _ ports.OrderService = (*OrderService)(nil)

// NewOrderService creates a new order service.
func NewOrderService(orders ports.OrderRepository, notifier ports.RoomNotifier) *OrderService {
	return &OrderService{orders: orders, notifier: notifier}
}

// CreateOrder places a new order and notifies both the order room (for the
// customer's tracking view) and the restaurant room (for the kitchen
// dashboard).
func (s *OrderService) CreateOrder(ctx context.Context, params ports.CreateOrderParams) (*domain.Order, error) {
	order, err := domain.NewOrder(params.RestaurantID, params.CustomerName, params.TableNumber, params.Items)
	if err != nil {
		return nil, mapOrderError(err)
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	snapshot := domain.NewOrderSnapshot(created)
	_ = s.notifier.NotifyOrder(created.ID, realtime.EventOrderCreated, snapshot)
	_ = s.notifier.NotifyRestaurant(created.RestaurantID, realtime.EventNewOrderNotification, snapshot)

	return created, nil
}

// GetOrder fetches one order.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus transitions the order's kitchen status and notifies the order
// room.
func (s *OrderService) UpdateStatus(ctx context.Context, params ports.UpdateOrderStatusParams) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}

	if err := order.UpdateStatus(params.Status); err != nil {
		return nil, mapOrderError(err)
	}

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		return nil, err
	}

	_ = s.notifier.NotifyOrder(updated.ID, realtime.EventOrderStatusUpdated, domain.OrderStatusPayload{
		OrderID:   updated.ID,
		Status:    string(updated.Status),
		UpdatedAt: timestamp(updated.UpdatedAt),
	})

	return updated, nil
}

// UpdatePaymentStatus transitions the order's payment status and notifies
// the order room.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, params ports.UpdatePaymentStatusParams) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}

	if err := order.UpdatePaymentStatus(params.PaymentStatus); err != nil {
		return nil, mapOrderError(err)
	}

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		return nil, err
	}

	_ = s.notifier.NotifyOrder(updated.ID, realtime.EventPaymentStatusUpdated, domain.PaymentStatusPayload{
		OrderID:       updated.ID,
		PaymentStatus: string(updated.PaymentStatus),
		UpdatedAt:     timestamp(updated.UpdatedAt),
	})

	return updated, nil
}

// CancelOrder cancels the order and notifies both the order room and the
// restaurant room.
func (s *OrderService) CancelOrder(ctx context.Context, params ports.CancelOrderParams) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}

	if err := order.Cancel(); err != nil {
		return nil, mapOrderError(err)
	}

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		return nil, err
	}

	payload := domain.OrderCancelledPayload{
		OrderID:     updated.ID,
		CancelledAt: timestamp(updated.UpdatedAt),
		Reason:      params.Reason,
	}
	_ = s.notifier.NotifyOrder(updated.ID, realtime.EventOrderCancelled, payload)
	_ = s.notifier.NotifyRestaurant(updated.RestaurantID, realtime.EventOrderCancelled, payload)

	return updated, nil
}

// mapOrderError translates domain validation errors to app errors.
func mapOrderError(err error) error {
	switch {
	case errors.Is(err, domain.ErrRestaurantIDRequired):
		return apperrors.ErrRestaurantIDRequired
	case errors.Is(err, domain.ErrNoItems):
		return apperrors.ErrItemsRequired
	case errors.Is(err, domain.ErrInvalidStatusTransition), errors.Is(err, domain.ErrOrderAlreadyCancelled):
		return apperrors.ErrInvalidTransition
	case errors.Is(err, domain.ErrInvalidPaymentStatus):
		return apperrors.ErrInvalidPaymentStatus
	default:
		return err
	}
}

func timestamp(t *time.Time) string {
	if t == nil {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return t.UTC().Format(time.RFC3339)
}
