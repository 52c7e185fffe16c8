package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tapdine/ordersync-backend/internal/core/domain"
	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

// MockOrderRepository is a mock implementation of ports.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockRestaurantRepository is a mock implementation of ports.RestaurantRepository
type MockRestaurantRepository struct {
	mock.Mock
}

func NewMockRestaurantRepository() *MockRestaurantRepository {
	return &MockRestaurantRepository{}
}

func (m *MockRestaurantRepository) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) Upsert(ctx context.Context, restaurant *domain.Restaurant) (*domain.Restaurant, error) {
	args := m.Called(ctx, restaurant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) CountOpen(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(env realtime.Envelope) error {
	args := m.Called(env)
	return args.Error(0)
}

// MockRoomNotifier is a mock implementation of ports.RoomNotifier
type MockRoomNotifier struct {
	mock.Mock
}

func NewMockRoomNotifier() *MockRoomNotifier {
	return &MockRoomNotifier{}
}

func (m *MockRoomNotifier) NotifyRestaurant(restaurantID string, event realtime.Event, payload any) error {
	args := m.Called(restaurantID, event, payload)
	return args.Error(0)
}

func (m *MockRoomNotifier) NotifyOrder(orderID string, event realtime.Event, payload any) error {
	args := m.Called(orderID, event, payload)
	return args.Error(0)
}

func (m *MockRoomNotifier) NotifyAdmin(adminID string, event realtime.Event, payload any) error {
	args := m.Called(adminID, event, payload)
	return args.Error(0)
}

func (m *MockRoomNotifier) NotifySuperadmins(event realtime.Event, payload any) error {
	args := m.Called(event, payload)
	return args.Error(0)
}

// MockHubStats is a mock implementation of ports.HubStats
type MockHubStats struct {
	mock.Mock
}

func NewMockHubStats() *MockHubStats {
	return &MockHubStats{}
}

func (m *MockHubStats) ClientCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockHubStats) RoomCount() int {
	args := m.Called()
	return args.Int(0)
}
