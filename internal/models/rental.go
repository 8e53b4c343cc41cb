package models

import (
	"time"

	"github.com/google/uuid"
)

type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusCancelled RentalStatus = "cancelled"
)

// BlockingStatuses are the statuses under which a rental holds its car.
var BlockingStatuses = []RentalStatus{RentalStatusPending, RentalStatusActive}

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusPending, RentalStatusActive, RentalStatusCompleted, RentalStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s RentalStatus) Terminal() bool {
	return s == RentalStatusCompleted || s == RentalStatusCancelled
}

// Blocking reports whether a rental in this status keeps the car unavailable.
func (s RentalStatus) Blocking() bool {
	return s == RentalStatusPending || s == RentalStatusActive
}

func ParseRentalStatus(s string) (RentalStatus, bool) {
	st := RentalStatus(s)
	return st, st.Valid()
}

type Rental struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	UserID    uuid.UUID    `json:"userId" db:"user_id"`
	CarID     uuid.UUID    `json:"carId" db:"car_id"`
	StartDate Date         `json:"startDate" db:"start_date"`
	EndDate   Date         `json:"endDate" db:"end_date"`
	DailyRate float64      `json:"dailyRate" db:"daily_rate"`
	TotalCost float64      `json:"totalCost" db:"total_cost"`
	Status    RentalStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time    `json:"updatedAt" db:"updated_at"`

	Car  *Car  `json:"car,omitempty" db:"-"`
	User *User `json:"user,omitempty" db:"-"`
}

type CreateRentalInput struct {
	CarID     uuid.UUID
	StartDate Date
	EndDate   Date
}

// RentalFilter narrows the administrative rental listing. Zero values
// mean no restriction.
type RentalFilter struct {
	Statuses []RentalStatus
	UserID   *uuid.UUID
	CarID    *uuid.UUID
}
