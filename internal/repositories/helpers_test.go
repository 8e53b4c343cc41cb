package repositories

import (
	"time"

	"carrental/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func stringPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

var carColumnNames = []string{
	"id", "brand", "model", "year", "price_per_day", "is_available", "description", "image_url",
	"latitude", "longitude", "created_at", "updated_at",
}

func carRowValues(car *models.Car) []any {
	return []any{
		car.ID, car.Brand, car.Model, car.Year, car.PricePerDay, car.IsAvailable, car.Description, car.ImageURL,
		car.Latitude, car.Longitude, car.CreatedAt, car.UpdatedAt,
	}
}

func sampleCar() *models.Car {
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	return &models.Car{
		ID:          uuid.New(),
		Brand:       "Toyota",
		Model:       "Corolla",
		Year:        2022,
		PricePerDay: 50.00,
		IsAvailable: true,
		Description: stringPtr("Compact sedan"),
		Latitude:    floatPtr(40.7128),
		Longitude:   floatPtr(-74.0060),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func sampleUser() *models.User {
	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	return &models.User{
		ID:           uuid.New(),
		Email:        "renter@example.com",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func carRows(cars ...*models.Car) *pgxmock.Rows {
	rows := pgxmock.NewRows(carColumnNames)
	for _, car := range cars {
		rows.AddRow(carRowValues(car)...)
	}
	return rows
}
