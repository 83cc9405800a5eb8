package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SalesQuery selects bookings picked up in [From, To).
type SalesQuery struct {
	From       time.Time
	To         time.Time
	LocationID *uuid.UUID
	CarID      *uuid.UUID
}

// SalesRow aggregates the non-cancelled bookings of one car at one pickup location.
type SalesRow struct {
	LocationID   uuid.UUID `db:"location_id" json:"locationId"`
	LocationName string    `db:"location_name" json:"locationName"`
	CarID        uuid.UUID `db:"car_id" json:"carId"`
	CarModel     string    `db:"car_model" json:"carModel"`
	Bookings     int64     `db:"bookings" json:"bookings"`
	RentalDays   int64     `db:"rental_days" json:"rentalDays"`
	RevenueCents int64     `db:"revenue_cents" json:"-"`
}

// StaffRow counts one agent's booking changes in a period.
type StaffRow struct {
	AgentID       uuid.UUID `db:"agent_id" json:"agentId"`
	AgentName     string    `db:"agent_name" json:"agentName"`
	StatusChanges int64     `db:"status_changes" json:"statusChanges"`
	CancelReviews int64     `db:"cancel_reviews" json:"cancelReviews"`
}

// Repository runs the read-only reporting queries.
type Repository interface {
	Sales(ctx context.Context, q SalesQuery) ([]SalesRow, error)
	StaffPerformance(ctx context.Context, from, to time.Time) ([]StaffRow, error)
}
