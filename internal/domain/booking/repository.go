package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/RentalBee/service-rental/internal/domain/review"
)

// ListFilter narrows back-office listings.
type ListFilter struct {
	Status *BookingStatus
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByClientID retrieves a client's bookings, newest first, with pagination.
	FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByCarID retrieves every booking of a car.
	FindByCarID(ctx context.Context, carID uuid.UUID) ([]*Booking, error)

	// FindBlockingInRange retrieves the bookings of the given cars that block
	// availability and overlap w.
	FindBlockingInRange(ctx context.Context, carIDs []uuid.UUID, w Window) ([]*Booking, error)

	// ListAll retrieves bookings newest first, optionally filtered by status.
	ListAll(ctx context.Context, filter ListFilter, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status.
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Reserve atomically re-checks the car for overlaps, assigns the next
	// booking number and inserts the booking. It fails with ErrOverlap when
	// the window is taken.
	Reserve(ctx context.Context, booking *Booking) error

	// Reschedule atomically re-checks the booking's new window against the
	// car's other bookings and persists it with optimistic locking.
	Reschedule(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// FinishWithReview persists a booking closed by its first feedback and
	// inserts that review in the same transaction.
	FinishWithReview(ctx context.Context, booking *Booking, rv *review.Review) error
}
