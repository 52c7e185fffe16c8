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

// RestaurantService owns the restaurant producer flow.
type RestaurantService struct {
	restaurants ports.RestaurantRepository
	notifier    ports.RoomNotifier
}

var _ ports.RestaurantService = (*RestaurantService)(nil)

// NewRestaurantService creates a new restaurant service.
func NewRestaurantService(restaurants ports.RestaurantRepository, notifier ports.RoomNotifier) *RestaurantService {
	return &RestaurantService{restaurants: restaurants, notifier: notifier}
}

// SetStatus toggles the restaurant open or closed and notifies the
// restaurant room so every open dashboard reflects the change. The
// restaurant registry lives in a separate service, so an unknown ID is
// tracked from its first status change rather than rejected.
func (s *RestaurantService) SetStatus(ctx context.Context, restaurantID string, status domain.RestaurantStatus) (*domain.Restaurant, error) {
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if errors.Is(err, apperrors.ErrRestaurantNotFound) {
		restaurant = &domain.Restaurant{
			ID:        restaurantID,
			Status:    domain.RestaurantClosed,
			CreatedAt: time.Now().UTC(),
		}
	} else if err != nil {
		return nil, err
	}

	if err := restaurant.SetStatus(status); err != nil {
		if errors.Is(err, domain.ErrInvalidRestaurantStatus) {
			return nil, apperrors.ErrInvalidRestaurantStatus
		}
		return nil, err
	}

	updated, err := s.restaurants.Upsert(ctx, restaurant)
	if err != nil {
		return nil, err
	}

	_ = s.notifier.NotifyRestaurant(updated.ID, realtime.EventRestaurantStatusUpdated, domain.RestaurantStatusPayload{
		RestaurantID: updated.ID,
		Status:       string(updated.Status),
		UpdatedAt:    timestamp(updated.UpdatedAt),
	})

	return updated, nil
}
