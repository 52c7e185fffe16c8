package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tapdine/ordersync-backend/internal/adapters/primary/validation"
	"github.com/tapdine/ordersync-backend/internal/core/domain"
	"github.com/tapdine/ordersync-backend/internal/core/ports"
)

const (
	maxCustomerNameLength = 120
	maxTableNumberLength  = 16
	maxItemNameLength     = 200
	maxCancelReasonLength = 500
)

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	orderService ports.OrderService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService ports.OrderService, errorHandler *ErrorHandler, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "order"),
	}
}

// Router sets up a new chi Router for all order-related routes.
func (h *OrderHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all order endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCreateOrder)

	r.Route("/{orderID}", func(r chi.Router) {
		r.Get("/", h.HandleGetOrder)
		r.Patch("/status", h.HandleUpdateStatus)
		r.Patch("/payment", h.HandleUpdatePaymentStatus)
		r.Post("/cancel", h.HandleCancelOrder)
	})
}

// --- Request/Response DTOs ---

// OrderItemRequest is a single line item in a create order request
type OrderItemRequest struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// CreateOrderRequest defines the expected JSON body for creating an order
type CreateOrderRequest struct {
	RestaurantID string             `json:"restaurantId"`
	CustomerName string             `json:"customerName"`
	TableNumber  string             `json:"tableNumber"`
	Items        []OrderItemRequest `json:"items"`
}

// Validate validates the create order request
func (r *CreateOrderRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("restaurantId", r.RestaurantID)

	v.MaxLength("customerName", r.CustomerName, maxCustomerNameLength)
	v.MaxLength("tableNumber", r.TableNumber, maxTableNumberLength)

	v.Custom("items", len(r.Items) > 0, "At least one item is required")
	for i, item := range r.Items {
		field := "items[" + strconv.Itoa(i) + "]"
		v.Custom(field+".name", item.Name != "", "Item name is required")
		v.Custom(field+".name", len(item.Name) <= maxItemNameLength, "Item name too long")
		v.Custom(field+".quantity", item.Quantity > 0, "Quantity must be positive")
		v.Custom(field+".price", item.Price >= 0, "Price must not be negative")
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateOrderStatusRequest defines the expected JSON body for status updates
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// Validate validates the update status request
func (r *UpdateOrderStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("status", r.Status).
		OneOf("status", r.Status, []string{"PENDING", "CONFIRMED", "PREPARING", "READY", "COMPLETED", "CANCELLED"})

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdatePaymentStatusRequest defines the expected JSON body for payment updates
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

// Validate validates the update payment status request
func (r *UpdatePaymentStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("paymentStatus", r.PaymentStatus).
		OneOf("paymentStatus", r.PaymentStatus, []string{"PENDING", "PAID", "FAILED", "REFUNDED"})

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// CancelOrderRequest defines the expected JSON body for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the cancel order request
func (r *CancelOrderRequest) Validate() error {
	v := validation.NewValidator()

	v.MaxLength("reason", r.Reason, maxCancelReasonLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// OrderItemDTO is a single line item in an order response
type OrderItemDTO struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderDTO defines the JSON response for orders.
type OrderDTO struct {
	ID            string         `json:"id"`
	RestaurantID  string         `json:"restaurantId"`
	CustomerName  string         `json:"customerName,omitempty"`
	TableNumber   string         `json:"tableNumber,omitempty"`
	Items         []OrderItemDTO `json:"items"`
	Total         float64        `json:"total"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"paymentStatus"`
	CreatedAt     string         `json:"createdAt"`
	UpdatedAt     *string        `json:"updatedAt,omitempty"`
}

func toOrderDTO(order *domain.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	var updatedAt *string
	if order.UpdatedAt != nil {
		value := order.UpdatedAt.Format(time.RFC3339)
		updatedAt = &value
	}

	return OrderDTO{
		ID:            order.ID,
		RestaurantID:  order.RestaurantID,
		CustomerName:  order.CustomerName,
		TableNumber:   order.TableNumber,
		Items:         items,
		Total:         order.Total,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     updatedAt,
	}
}

// --- Handlers ---

// HandleCreateOrder handles POST /orders
func (h *OrderHandler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateOrderRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	params := ports.CreateOrderParams{
		RestaurantID: req.RestaurantID,
		CustomerName: req.CustomerName,
		TableNumber:  req.TableNumber,
		Items:        items,
	}

	order, err := h.orderService.CreateOrder(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("order created",
		"order_id", order.ID,
		"restaurant_id", order.RestaurantID,
		"total", order.Total,
	)

	WriteCreated(w, toOrderDTO(order))
}

// HandleGetOrder handles GET /orders/{orderID}
func (h *OrderHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toOrderDTO(order))
}

// HandleUpdateStatus handles PATCH /orders/{orderID}/status
func (h *OrderHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	req, err := validation.DecodeAndValidate[UpdateOrderStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateOrderStatusParams{
		OrderID: orderID,
		Status:  domain.OrderStatus(req.Status),
	}

	order, err := h.orderService.UpdateStatus(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("order status updated",
		"order_id", orderID,
		"new_status", req.Status,
	)

	WriteJSON(w, http.StatusOK, toOrderDTO(order))
}

// HandleUpdatePaymentStatus handles PATCH /orders/{orderID}/payment
func (h *OrderHandler) HandleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	req, err := validation.DecodeAndValidate[UpdatePaymentStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdatePaymentStatusParams{
		OrderID:       orderID,
		PaymentStatus: domain.PaymentStatus(req.PaymentStatus),
	}

	order, err := h.orderService.UpdatePaymentStatus(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("payment status updated",
		"order_id", orderID,
		"payment_status", req.PaymentStatus,
	)

	WriteJSON(w, http.StatusOK, toOrderDTO(order))
}

// HandleCancelOrder handles POST /orders/{orderID}/cancel
func (h *OrderHandler) HandleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	req, err := validation.DecodeAndValidate[CancelOrderRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CancelOrderParams{
		OrderID: orderID,
		Reason:  req.Reason,
	}

	order, err := h.orderService.CancelOrder(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("order cancelled",
		"order_id", orderID,
		"reason", req.Reason,
	)

	WriteJSON(w, http.StatusOK, toOrderDTO(order))
}
