package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Pre-defined errors for domain-specific validation.
var (
	ErrRestaurantIDRequired    = errors.New("restaurant id is required")
	ErrNoItems                 = errors.New("order must contain at least one item")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrInvalidPaymentStatus    = errors.New("invalid payment status")
	ErrOrderAlreadyCancelled   = errors.New("order is already cancelled")
)

// OrderStatus represents the kitchen-side lifecycle of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus represents the payment-side lifecycle of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// OrderItem is one line in an order.
type OrderItem struct {
	Name     string
	Quantity int
	Price    float64
}

// Order is the core domain entity produced by the customer-facing dashboard
// and consumed by the restaurant dashboard.
type Order struct {
	ID            string
	RestaurantID  string
	CustomerName  string
	TableNumber   string
	Items         []OrderItem
	Total         float64
	Status        OrderStatus
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// NewOrder is a factory function to create a valid new order.
func NewOrder(restaurantID, customerName, tableNumber string, items []OrderItem) (*Order, error) {
	if restaurantID == "" {
		return nil, ErrRestaurantIDRequired
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}

	return &Order{
		ID:            uuid.NewString(),
		RestaurantID:  restaurantID,
		CustomerName:  customerName,
		TableNumber:   tableNumber,
		Items:         items,
		Total:         total,
		Status:        OrderPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// validOrderTransitions defines the allowed kitchen status transitions.
var validOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderCompleted},
	OrderCompleted: {},
	OrderCancelled: {},
}

// UpdateStatus changes the order's status, enforcing the transition rules.
func (o *Order) UpdateStatus(newStatus OrderStatus) error {
	allowed, ok := validOrderTransitions[o.Status]
	if !ok {
		return ErrInvalidStatusTransition
	}

	for _, s := range allowed {
		if s == newStatus {
			o.Status = newStatus
			now := time.Now().UTC()
			o.UpdatedAt = &now
			return nil
		}
	}

	return ErrInvalidStatusTransition
}

// UpdatePaymentStatus changes the order's payment status.
func (o *Order) UpdatePaymentStatus(newStatus PaymentStatus) error {
	switch newStatus {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		o.PaymentStatus = newStatus
		now := time.Now().UTC()
		o.UpdatedAt = &now
		return nil
	default:
		return ErrInvalidPaymentStatus
	}
}

// Cancel marks the order cancelled if its current status allows it.
func (o *Order) Cancel() error {
	if o.Status == OrderCancelled {
		return ErrOrderAlreadyCancelled
	}
	return o.UpdateStatus(OrderCancelled)
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderCompleted, OrderCancelled:
		return OrderStatus(s), nil
	default:
		return "", ErrInvalidStatusTransition
	}
}

// ParsePaymentStatus validates a raw payment status string.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return PaymentStatus(s), nil
	default:
		return "", ErrInvalidPaymentStatus
	}
}
