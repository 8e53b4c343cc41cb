package models

import (
	"math"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// ToCents converts a decimal amount to integer cents.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents converts integer cents back to a decimal amount.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// RentalCost is dailyRate multiplied by days, computed in cents so the
// result has exactly two fractional digits.
func RentalCost(dailyRate float64, days int) float64 {
	return FromCents(ToCents(dailyRate) * int64(days))
}

// Money renders an amount as a JSON number with two fractional digits.
type Money float64

func (m Money) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, FromCents(ToCents(float64(m))), 'f', 2, 64), nil
}

var moneyJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func (c Car) MarshalJSON() ([]byte, error) {
	type Alias Car
	return moneyJSON.Marshal(struct {
		Alias
		PricePerDay Money `json:"pricePerDay"`
	}{Alias(c), Money(c.PricePerDay)})
}

// MarshalJSON keeps distance_meters alongside the promoted car fields.
func (c CarWithDistance) MarshalJSON() ([]byte, error) {
	type Alias Car
	return moneyJSON.Marshal(struct {
		Alias
		PricePerDay    Money   `json:"pricePerDay"`
		DistanceMeters float64 `json:"distance_meters"`
	}{Alias(c.Car), Money(c.PricePerDay), c.DistanceMeters})
}

func (r Rental) MarshalJSON() ([]byte, error) {
	type Alias Rental
	return moneyJSON.Marshal(struct {
		Alias
		DailyRate Money `json:"dailyRate"`
		TotalCost Money `json:"totalCost"`
	}{Alias(r), Money(r.DailyRate), Money(r.TotalCost)})
}
