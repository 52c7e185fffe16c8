package domain

import (
	"errors"
	"time"
)

var (
	ErrRestaurantNameRequired  = errors.New("restaurant name is required")
	ErrInvalidRestaurantStatus = errors.New("invalid restaurant status")
)

// RestaurantStatus indicates whether the restaurant is accepting orders.
type RestaurantStatus string

const (
	RestaurantOpen   RestaurantStatus = "OPEN"
	RestaurantClosed RestaurantStatus = "CLOSED"
)

// Restaurant is the tenant entity of the platform.
type Restaurant struct {
	ID        string
	Name      string
	Status    RestaurantStatus
	AdminID   string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// SetStatus toggles the restaurant open or closed.
func (r *Restaurant) SetStatus(status RestaurantStatus) error {
	switch status {
	case RestaurantOpen, RestaurantClosed:
		r.Status = status
		now := time.Now().UTC()
		r.UpdatedAt = &now
		return nil
	default:
		return ErrInvalidRestaurantStatus
	}
}

// ParseRestaurantStatus validates a raw status string.
func ParseRestaurantStatus(s string) (RestaurantStatus, error) {
	switch RestaurantStatus(s) {
	case RestaurantOpen, RestaurantClosed:
		return RestaurantStatus(s), nil
	default:
		return "", ErrInvalidRestaurantStatus
	}
}
