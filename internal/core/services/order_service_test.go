package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tapdine/ordersync-backend/internal/core/domain"
	apperrors "github.com/tapdine/ordersync-backend/internal/core/errors"
	"github.com/tapdine/ordersync-backend/internal/core/mocks"
	"github.com/tapdine/ordersync-backend/internal/core/ports"
	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

func testItems() []domain.OrderItem {
	return []domain.OrderItem{
		{Name: "Margherita", Quantity: 1, Price: 12.50},
		{Name: "Cola", Quantity: 2, Price: 3.00},
	}
}

func testOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder("rest-1", "Ada", "12", testItems())
	require.NoError(t, err)
	return order
}

func TestOrderService_CreateOrder(t *testing.T) {
	t.Run("creates the order and notifies both scopes", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		notifier := mocks.NewMockRoomNotifier()
		service := NewOrderService(orderRepo, notifier)

		var created *domain.Order
		orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*domain.Order)
			}).
			Return(testOrder(t), nil)
		notifier.On("NotifyOrder", mock.AnythingOfType("string"), realtime.EventOrderCreated, mock.Anything).Return(nil)
		notifier.On("NotifyRestaurant", "rest-1", realtime.EventNewOrderNotification, mock.Anything).Return(nil)

		order, err := service.CreateOrder(context.Background(), ports.CreateOrderParams{
			RestaurantID: "rest-1",
			CustomerName: "Ada",
			TableNumber:  "12",
			Items:        testItems(),
		})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, domain.OrderPending, created.Status)
		assert.InDelta(t, 18.50, created.Total, 0.001)
		assert.NotNil(t, order)

		notifier.AssertExpectations(t)
		orderRepo.AssertExpectations(t)
	})

	t.Run("rejects an order without items", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		notifier := mocks.NewMockRoomNotifier()
		service := NewOrderService(orderRepo, notifier)

		_, err := service.CreateOrder(context.Background(), ports.CreateOrderParams{
			RestaurantID: "rest-1",
		})

		assert.ErrorIs(t, err, apperrors.ErrItemsRequired)
		notifier.AssertNotCalled(t, "NotifyOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects an order without a restaurant", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		notifier := mocks.NewMockRoomNotifier()
		service := NewOrderService(orderRepo, notifier)

		_, err := service.CreateOrder(context.Background(), ports.CreateOrderParams{
			Items: testItems(),
		})

		assert.ErrorIs(t, err, apperrors.ErrRestaurantIDRequired)
	})

	t.Run("notification failure does not fail the mutation", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		notifier := mocks.NewMockRoomNotifier()
		service := NewOrderService(orderRepo, notifier)

		orderRepo.On("Create", mock.Anything, mock.Anything).Return(testOrder(t), nil)
		notifier.On("NotifyOrder", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
		notifier.On("NotifyRestaurant", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

		_, err := service.CreateOrder(context.Background(), ports.CreateOrderParams{
			RestaurantID: "rest-1",
			Items:        testItems(),
		})

		assert.NoError(t, err)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	t.Run("valid transition notifies the order room", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		notifier := mocks.NewMockRoomNotifier()
		service := NewOrderService(orderRepo, notifier)

		order := testOrder(t)
		orderRepo.On("GetByID", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("Update", mock.Anything, order).Return(order, nil)
		notifier.On("NotifyOrder", order.ID, realtime.EventOrderStatusUpdated, mock.Anything).Return(nil)

		updated, err := service.UpdateStatus(context.Background(), ports.UpdateOrderStatusParams{
			OrderID: order.ID,
			Status:  domain.OrderConfirmed,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.OrderConfirmed, updated.Status)
		notifier.AssertExpectations(t)
	})

	t.Run("invalid transition is rejected without notifying", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		notifier := mocks.NewMockRoomNotifier()
		service := NewOrderService(orderRepo, notifier)

		order := testOrder(t) // PENDING
		orderRepo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

		_, err := service.UpdateStatus(context.Background(), ports.UpdateOrderStatusParams{
			OrderID: order.ID,
			Status:  domain.OrderCompleted,
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		notifier.AssertNotCalled(t, "NotifyOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown order surfaces not found", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		notifier := mocks.NewMockRoomNotifier()
		service := NewOrderService(orderRepo, notifier)

		orderRepo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.ErrOrderNotFound)

		_, err := service.UpdateStatus(context.Background(), ports.UpdateOrderStatusParams{
			OrderID: "missing",
			Status:  domain.OrderConfirmed,
		})

		assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
	})
}

func TestOrderService_UpdatePaymentStatus(t *testing.T) {
	orderRepo := mocks.NewMockOrderRepository()
	notifier := mocks.NewMockRoomNotifier()
	service := NewOrderService(orderRepo, notifier)

	order := testOrder(t)
	orderRepo.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("Update", mock.Anything, order).Return(order, nil)
	notifier.On("NotifyOrder", order.ID, realtime.EventPaymentStatusUpdated, mock.Anything).Return(nil)

	updated, err := service.UpdatePaymentStatus(context.Background(), ports.UpdatePaymentStatusParams{
		OrderID:       order.ID,
		PaymentStatus: domain.PaymentPaid,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
	notifier.AssertExpectations(t)
}

func TestOrderService_CancelOrder(t *testing.T) {
	t.Run("cancellation fans out to order and restaurant rooms", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		notifier := mocks.NewMockRoomNotifier()
		service := NewOrderService(orderRepo, notifier)

		order := testOrder(t)
		orderRepo.On("GetByID", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("Update", mock.Anything, order).Return(order, nil)
		notifier.On("NotifyOrder", order.ID, realtime.EventOrderCancelled, mock.Anything).Return(nil)
		notifier.On("NotifyRestaurant", "rest-1", realtime.EventOrderCancelled, mock.Anything).Return(nil)

		updated, err := service.CancelOrder(context.Background(), ports.CancelOrderParams{
			OrderID: order.ID,
			Reason:  "customer left",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.OrderCancelled, updated.Status)
		notifier.AssertExpectations(t)
	})

	t.Run("cancelling twice is rejected", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		notifier := mocks.NewMockRoomNotifier()
		service := NewOrderService(orderRepo, notifier)

		order := testOrder(t)
		require.NoError(t, order.Cancel())

		orderRepo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

		_, err := service.CancelOrder(context.Background(), ports.CancelOrderParams{OrderID: order.ID})
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})
}
