package domain

import "time"

// Payload shapes attached to realtime events. The realtime core treats them
// as opaque; these types are owned by the REST handlers that emit them and
// match the shapes the dashboards render.

// OrderSnapshot matches the API response shape for orders.
type OrderSnapshot struct {
	ID            string              `json:"id"`
	RestaurantID  string              `json:"restaurantId"`
	CustomerName  string              `json:"customerName,omitempty"`
	TableNumber   string              `json:"tableNumber,omitempty"`
	Items         []OrderItemSnapshot `json:"items"`
	Total         float64             `json:"total"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"paymentStatus"`
	CreatedAt     string              `json:"createdAt"`
	UpdatedAt     *string             `json:"updatedAt,omitempty"`
}

// OrderItemSnapshot is one order line in API shape.
type OrderItemSnapshot struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// NewOrderSnapshot builds an order snapshot from a domain order.
func NewOrderSnapshot(order *Order) OrderSnapshot {
	items := make([]OrderItemSnapshot, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemSnapshot{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	var updatedAt *string
	if order.UpdatedAt != nil {
		value := order.UpdatedAt.UTC().Format(time.RFC3339)
		updatedAt = &value
	}

	return OrderSnapshot{
		ID:            order.ID,
		RestaurantID:  order.RestaurantID,
		CustomerName:  order.CustomerName,
		TableNumber:   order.TableNumber,
		Items:         items,
		Total:         order.Total,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		CreatedAt:     order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     updatedAt,
	}
}

// OrderStatusPayload is attached to order-status-updated events.
type OrderStatusPayload struct {
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updatedAt"`
}

// PaymentStatusPayload is attached to payment-status-updated events.
type PaymentStatusPayload struct {
	OrderID       string `json:"orderId"`
	PaymentStatus string `json:"paymentStatus"`
	UpdatedAt     string `json:"updatedAt"`
}

// OrderCancelledPayload is attached to order-cancelled events.
type OrderCancelledPayload struct {
	OrderID     string `json:"orderId"`
	CancelledAt string `json:"cancelledAt"`
	Reason      string `json:"reason,omitempty"`
}

// RestaurantStatusPayload is attached to restaurant-status-updated events.
type RestaurantStatusPayload struct {
	RestaurantID string `json:"restaurantId"`
	Status       string `json:"status"`
	UpdatedAt    string `json:"updatedAt"`
}

// NoticePayload is attached to admin-notification and superadmin-notification
// events.
type NoticePayload struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
	Level   string `json:"level,omitempty"`
	SentAt  string `json:"sentAt"`
}

// PlatformStatsPayload is attached to platform-stats-updated events.
type PlatformStatsPayload struct {
	ActiveOrders      int `json:"activeOrders"`
	ActiveRestaurants int `json:"activeRestaurants"`
	ConnectedClients  int `json:"connectedClients"`
}
