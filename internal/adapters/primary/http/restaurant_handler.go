package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/tapdine/ordersync-backend/internal/adapters/primary/http/middleware"
	"github.com/tapdine/ordersync-backend/internal/adapters/primary/validation"
	"github.com/tapdine/ordersync-backend/internal/core/domain"
	apperrors "github.com/tapdine/ordersync-backend/internal/core/errors"
	"github.com/tapdine/ordersync-backend/internal/core/ports"
)

// RestaurantHandler handles HTTP requests for restaurants
type RestaurantHandler struct {
	restaurantService ports.RestaurantService
	errorHandler      *ErrorHandler
	logger            *slog.Logger
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(restaurantService ports.RestaurantService, errorHandler *ErrorHandler, logger *slog.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		restaurantService: restaurantService,
		errorHandler:      errorHandler,
		logger:            logger.With("handler", "restaurant"),
	}
}

// Router sets up a new chi Router for all restaurant-related routes.
func (h *RestaurantHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all restaurant endpoints.
func (h *RestaurantHandler) RegisterRoutes(r chi.Router) {
	r.Patch("/{restaurantID}/status", h.HandleSetStatus)
}

// SetRestaurantStatusRequest defines the expected JSON body for status changes
type SetRestaurantStatusRequest struct {
	Status string `json:"status"`
}

// Validate validates the set status request
func (r *SetRestaurantStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("status", r.Status).
		OneOf("status", r.Status, []string{"OPEN", "CLOSED"})

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// RestaurantDTO defines the JSON response for restaurants.
type RestaurantDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}

func toRestaurantDTO(restaurant *domain.Restaurant) RestaurantDTO {
	return RestaurantDTO{
		ID:     restaurant.ID,
		Name:   restaurant.Name,
		Status: string(restaurant.Status),
	}
}

// HandleSetStatus handles PATCH /restaurants/{restaurantID}/status.
// Only the restaurant's own admin or a superadmin may change its status.
func (h *RestaurantHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")

	claims := mw.GetClaims(r.Context())
	if claims == nil {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}
	if !claims.CanManageRestaurant(restaurantID) {
		h.errorHandler.Handle(w, r, apperrors.ErrForbidden)
		return
	}

	req, err := validation.DecodeAndValidate[SetRestaurantStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	restaurant, err := h.restaurantService.SetStatus(r.Context(), restaurantID, domain.RestaurantStatus(req.Status))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("restaurant status updated",
		"restaurant_id", restaurantID,
		"new_status", req.Status,
		"user_id", claims.UserID,
	)

	WriteJSON(w, http.StatusOK, toRestaurantDTO(restaurant))
}
