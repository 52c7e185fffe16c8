package memstore

import (
	"context"
	"sync"

	"github.com/tapdine/ordersync-backend/internal/core/domain"
	apperrors "github.com/tapdine/ordersync-backend/internal/core/errors"
)

// RestaurantRepository is a mutex-guarded in-memory restaurant store.
type RestaurantRepository struct {
	mu          sync.RWMutex
	restaurants map[string]*domain.Restaurant
}

// NewRestaurantRepository creates an empty restaurant repository.
func NewRestaurantRepository() *RestaurantRepository {
	return &RestaurantRepository{
		restaurants: make(map[string]*domain.Restaurant),
	}
}

// GetByID returns the restaurant with the given ID.
func (r *RestaurantRepository) GetByID(_ context.Context, id string) (*domain.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	restaurant, ok := r.restaurants[id]
	if !ok {
		return nil, apperrors.ErrRestaurantNotFound
	}
	return cloneRestaurant(restaurant), nil
}

// Upsert stores the restaurant, creating it if it does not exist.
func (r *RestaurantRepository) Upsert(_ context.Context, restaurant *domain.Restaurant) (*domain.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneRestaurant(restaurant)
	r.restaurants[restaurant.ID] = stored
	return cloneRestaurant(stored), nil
}

// CountOpen returns the number of restaurants currently marked OPEN.
func (r *RestaurantRepository) CountOpen(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, restaurant := range r.restaurants {
		if restaurant.Status == domain.RestaurantOpen {
			count++
		}
	}
	return count, nil
}

func cloneRestaurant(restaurant *domain.Restaurant) *domain.Restaurant {
	clone := *restaurant
	if restaurant.UpdatedAt != nil {
		updatedAt := *restaurant.UpdatedAt
		clone.UpdatedAt = &updatedAt
	}
	return &clone
}
