package models

import (
	"time"

	"github.com/google/uuid"
)

// Car is a rentable vehicle. IsAvailable is false while a pending or
// active rental references the car.
type Car struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Brand       string    `json:"brand" db:"brand"`
	Model       string    `json:"model" db:"model"`
	Year        int       `json:"year" db:"year"`
	PricePerDay float64   `json:"pricePerDay" db:"price_per_day"`
	IsAvailable bool      `json:"isAvailable" db:"is_available"`
	Description *string   `json:"description" db:"description"`
	ImageURL    *string   `json:"imageUrl" db:"image_url"`
	Latitude    *float64  `json:"latitude" db:"latitude"`
	Longitude   *float64  `json:"longitude" db:"longitude"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// HasPosition reports whether both coordinates are set.
func (c *Car) HasPosition() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// CarWithDistance is a nearby search result.
type CarWithDistance struct {
	Car
	DistanceMeters float64 `json:"distance_meters"`
}

// NearbyQuery describes a proximity search around a point.
type NearbyQuery struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  int     `json:"radius"`
}

// RadiusMeters is the search radius in meters.
func (q NearbyQuery) RadiusMeters() float64 {
	return float64(q.RadiusKm) * 1000
}

// AllowedRadiiKm are the only accepted nearby search radii.
var AllowedRadiiKm = []int{5, 10, 15}

type CreateCarInput struct {
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	PricePerDay float64  `json:"pricePerDay"`
	IsAvailable *bool    `json:"isAvailable,omitempty"`
	Description *string  `json:"description,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// UpdateCarInput is a partial update; nil fields are left unchanged.
type UpdateCarInput struct {
	Brand       *string  `json:"brand,omitempty"`
	Model       *string  `json:"model,omitempty"`
	Year        *int     `json:"year,omitempty"`
	PricePerDay *float64 `json:"pricePerDay,omitempty"`
	IsAvailable *bool    `json:"isAvailable,omitempty"`
	Description *string  `json:"description,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// ImageURLResponse is returned by the presigned image endpoint.
type ImageURLResponse struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
