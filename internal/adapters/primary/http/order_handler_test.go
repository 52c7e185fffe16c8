package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tapdine/ordersync-backend/internal/adapters/secondary/memstore"
	"github.com/tapdine/ordersync-backend/internal/core/mocks"
	"github.com/tapdine/ordersync-backend/internal/core/services"
)

type orderTestStack struct {
	server   *httptest.Server
	notifier *mocks.MockRoomNotifier
}

func newOrderTestStack(t *testing.T) *orderTestStack {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := mocks.NewMockRoomNotifier()
	notifier.On("NotifyOrder", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	notifier.On("NotifyRestaurant", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	orderService := services.NewOrderService(memstore.NewOrderRepository(), notifier)
	errorHandler := NewErrorHandler(logger)
	handler := NewOrderHandler(orderService, errorHandler, logger)

	r := chi.NewRouter()
	r.Route("/orders", handler.RegisterRoutes)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &orderTestStack{server: server, notifier: notifier}
}

func (s *orderTestStack) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func validCreateBody() map[string]any {
	return map[string]any{
		"restaurantId": "rest-1",
		"customerName": "Ada",
		"tableNumber":  "12",
		"items": []map[string]any{
			{"name": "Margherita", "quantity": 1, "price": 12.5},
			{"name": "Cola", "quantity": 2, "price": 3.0},
		},
	}
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	t.Run("valid request creates the order", func(t *testing.T) {
		stack := newOrderTestStack(t)

		resp := stack.do(t, http.MethodPost, "/orders", validCreateBody())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		order := decodeBody[OrderDTO](t, resp)
		assert.NotEmpty(t, order.ID)
		assert.Equal(t, "rest-1", order.RestaurantID)
		assert.Equal(t, "PENDING", order.Status)
		assert.Equal(t, "PENDING", order.PaymentStatus)
		assert.InDelta(t, 18.5, order.Total, 0.001)
		assert.Len(t, order.Items, 2)
	})

	t.Run("missing items is a validation error", func(t *testing.T) {
		stack := newOrderTestStack(t)

		body := validCreateBody()
		body["items"] = []map[string]any{}

		resp := stack.do(t, http.MethodPost, "/orders", body)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("missing restaurant is a validation error", func(t *testing.T) {
		stack := newOrderTestStack(t)

		body := validCreateBody()
		delete(body, "restaurantId")

		resp := stack.do(t, http.MethodPost, "/orders", body)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("malformed JSON is rejected", func(t *testing.T) {
		stack := newOrderTestStack(t)

		req, err := http.NewRequest(http.MethodPost, stack.server.URL+"/orders", bytes.NewBufferString("{nope"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestOrderHandler_GetOrder(t *testing.T) {
	stack := newOrderTestStack(t)

	created := decodeBody[OrderDTO](t, stack.do(t, http.MethodPost, "/orders", validCreateBody()))

	t.Run("existing order", func(t *testing.T) {
		resp := stack.do(t, http.MethodGet, "/orders/"+created.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		order := decodeBody[OrderDTO](t, resp)
		assert.Equal(t, created.ID, order.ID)
	})

	t.Run("unknown order", func(t *testing.T) {
		resp := stack.do(t, http.MethodGet, "/orders/does-not-exist", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	stack := newOrderTestStack(t)

	created := decodeBody[OrderDTO](t, stack.do(t, http.MethodPost, "/orders", validCreateBody()))

	t.Run("valid transition", func(t *testing.T) {
		resp := stack.do(t, http.MethodPatch, "/orders/"+created.ID+"/status", map[string]string{"status": "CONFIRMED"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		order := decodeBody[OrderDTO](t, resp)
		assert.Equal(t, "CONFIRMED", order.Status)
	})

	t.Run("skipping states is rejected", func(t *testing.T) {
		resp := stack.do(t, http.MethodPatch, "/orders/"+created.ID+"/status", map[string]string{"status": "COMPLETED"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody[ErrorResponse](t, resp)
		assert.Equal(t, "INVALID_STATUS_TRANSITION", body.Code)
	})

	t.Run("unknown status value fails validation", func(t *testing.T) {
		resp := stack.do(t, http.MethodPatch, "/orders/"+created.ID+"/status", map[string]string{"status": "BURNED"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestOrderHandler_PaymentAndCancel(t *testing.T) {
	stack := newOrderTestStack(t)

	created := decodeBody[OrderDTO](t, stack.do(t, http.MethodPost, "/orders", validCreateBody()))

	resp := stack.do(t, http.MethodPatch, "/orders/"+created.ID+"/payment", map[string]string{"paymentStatus": "PAID"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	order := decodeBody[OrderDTO](t, resp)
	assert.Equal(t, "PAID", order.PaymentStatus)

	resp = stack.do(t, http.MethodPost, "/orders/"+created.ID+"/cancel", map[string]string{"reason": "customer left"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	order = decodeBody[OrderDTO](t, resp)
	assert.Equal(t, "CANCELLED", order.Status)

	// A second cancel is rejected.
	resp = stack.do(t, http.MethodPost, "/orders/"+created.ID+"/cancel", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", body.Code)
}
