package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/RentalBee/service-rental/internal/common/domain"
	bookingDomain "github.com/RentalBee/service-rental/internal/domain/booking"
	reviewDomain "github.com/RentalBee/service-rental/internal/domain/review"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"

	bookingNumberIndex = "idx_bookings_booking_number"
	maxReserveAttempts = 5
)

var errBookingNumberTaken = errors.New("booking number already allocated")

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber      string     `gorm:"uniqueIndex:idx_bookings_booking_number;not null;size:20"`
	CarID              uuid.UUID  `gorm:"type:uuid;index;not null"`
	ClientID           uuid.UUID  `gorm:"type:uuid;index;not null"`
	PickupLocationID   uuid.UUID  `gorm:"type:uuid;not null"`
	DropoffLocationID  uuid.UUID  `gorm:"type:uuid;not null"`
	PickupAt           time.Time  `gorm:"not null"`
	DropoffAt          time.Time  `gorm:"not null"`
	Status             string     `gorm:"not null;size:30;index"`
	CancelRequestedAt  *time.Time `gorm:""`
	CancelReviewStatus string     `gorm:"not null;size:20;default:'NONE'"`
	CancelReviewedAt   *time.Time `gorm:""`
	CancelReviewedBy   *uuid.UUID `gorm:"type:uuid"`
	Version            int64      `gorm:"not null;default:1"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// BookingStatusEventModel is one row of the booking status audit trail.
type BookingStatusEventModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	BookingID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Status       string    `gorm:"not null;size:30"`
	CancelReview string    `gorm:"not null;size:20"`
	ChangedBy    uuid.UUID `gorm:"type:uuid;index:idx_booking_status_events_changed;not null"`
	ChangedAt    time.Time `gorm:"index:idx_booking_status_events_changed;not null"`
}

// TableName returns the table name for the GORM model.
func (BookingStatusEventModel) TableName() string {
	return "booking_status_events"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingDomain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByClientID retrieves bookings for a specific client with pagination.
func (r *GormBookingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("client_id = ?", clientID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count client bookings: %w", err)
	}

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find client bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindByCarID retrieves every booking of a car ordered by pickup.
func (r *GormBookingRepository) FindByCarID(ctx context.Context, carID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("car_id = ?", carID).
		Order("pickup_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find car bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindBlockingInRange retrieves the availability-blocking bookings of the
// given cars that overlap w.
func (r *GormBookingRepository) FindBlockingInRange(ctx context.Context, carIDs []uuid.UUID, w bookingDomain.Window) ([]*bookingDomain.Booking, error) {
	if len(carIDs) == 0 {
		return nil, nil
	}
	return findBlocking(r.db.WithContext(ctx), carIDs, w)
}

func findBlocking(tx *gorm.DB, carIDs []uuid.UUID, w bookingDomain.Window) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := tx.
		Where("car_id IN ?", carIDs).
		Where("status NOT IN ?", statusStrings(bookingDomain.NonBlockingStatuses())).
		Where("pickup_at < ? AND dropoff_at > ?", w.Dropoff, w.Pickup).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return toDomainBookings(models)
}

// ListAll retrieves bookings newest first with pagination (support).
func (r *GormBookingRepository) ListAll(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	if err := query.
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (support).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Reserve inserts a new booking if its car is still free for the window.
// Reservations of one car are serialized with a transaction-scoped advisory
// lock; the exclusion constraint on bookings backs the same rule. Booking
// numbers are global, so a collision with a concurrent reservation of
// another car is retried with the next number.
func (r *GormBookingRepository) Reserve(ctx context.Context, bk *bookingDomain.Booking) error {
	for attempt := 1; ; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := lockCar(tx, bk.CarID()); err != nil {
				return err
			}
			if err := checkFree(tx, bk); err != nil {
				return err
			}

			var last string
			if err := tx.Model(&BookingModel{}).
				Select("booking_number").
				Order("CAST(booking_number AS BIGINT) DESC").
				Limit(1).
				Scan(&last).Error; err != nil {
				return fmt.Errorf("failed to read last booking number: %w", err)
			}
			number, err := bookingDomain.NextBookingNumber(last)
			if err != nil {
				return err
			}
			bk.AssignNumber(number)

			if err := tx.Create(toBookingModel(bk)).Error; err != nil {
				return translateBookingError(err)
			}
			return saveStatusEvents(tx, bk)
		})
		if errors.Is(err, errBookingNumberTaken) && attempt < maxReserveAttempts {
			continue
		}
		if errors.Is(err, errBookingNumberTaken) {
			return domain.NewConflictError("could not allocate a booking number, please retry")
		}
		if err != nil {
			return err
		}
		bk.ClearPendingChanges()
		return nil
	}
}

// Reschedule persists a moved window after re-checking the car under its lock.
func (r *GormBookingRepository) Reschedule(ctx context.Context, bk *bookingDomain.Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCar(tx, bk.CarID()); err != nil {
			return err
		}
		if err := checkFree(tx, bk); err != nil {
			return err
		}
		return updateBooking(tx, bk)
	})
	if err != nil {
		return err
	}
	bk.ClearPendingChanges()
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateBooking(tx, bk)
	})
	if err != nil {
		return err
	}
	bk.ClearPendingChanges()
	return nil
}

// FinishWithReview stores the finished booking and its first review
// together. Neither is visible unless both writes succeed.
func (r *GormBookingRepository) FinishWithReview(ctx context.Context, bk *bookingDomain.Booking, rv *reviewDomain.Review) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateBooking(tx, bk); err != nil {
			return err
		}
		if err := tx.Create(toReviewModel(rv)).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.NewConflictError("feedback for this booking already exists")
			}
			return fmt.Errorf("failed to save review: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	bk.ClearPendingChanges()
	return nil
}

func updateBooking(tx *gorm.DB, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Optimistic locking: only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := bk.Version() - 1
	result := tx.Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"pickup_location_id":   model.PickupLocationID,
			"dropoff_location_id":  model.DropoffLocationID,
			"pickup_at":            model.PickupAt,
			"dropoff_at":           model.DropoffAt,
			"status":               model.Status,
			"cancel_requested_at":  model.CancelRequestedAt,
			"cancel_review_status": model.CancelReviewStatus,
			"cancel_reviewed_at":   model.CancelReviewedAt,
			"cancel_reviewed_by":   model.CancelReviewedBy,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})

	if result.Error != nil {
		return translateBookingError(result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return saveStatusEvents(tx, bk)
}

func lockCar(tx *gorm.DB, carID uuid.UUID) error {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", carID.String()).Error; err != nil {
		return fmt.Errorf("failed to lock car: %w", err)
	}
	return nil
}

func checkFree(tx *gorm.DB, bk *bookingDomain.Booking) error {
	existing, err := findBlocking(tx, []uuid.UUID{bk.CarID()}, bk.Window())
	if err != nil {
		return err
	}
	if bookingDomain.FindConflict(existing, bk.CarID(), bk.Window(), bk.ID()) != nil {
		return bookingDomain.ErrOverlap
	}
	return nil
}

func saveStatusEvents(tx *gorm.DB, bk *bookingDomain.Booking) error {
	changes := bk.PendingChanges()
	if len(changes) == 0 {
		return nil
	}
	events := make([]BookingStatusEventModel, len(changes))
	for i, c := range changes {
		events[i] = BookingStatusEventModel{
			BookingID:    bk.ID(),
			Status:       string(c.Status),
			CancelReview: string(c.CancelReview),
			ChangedBy:    c.ChangedBy,
			ChangedAt:    c.ChangedAt,
		}
	}
	if err := tx.Create(&events).Error; err != nil {
		return fmt.Errorf("failed to record booking status events: %w", err)
	}
	return nil
}

func translateBookingError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgExclusionViolation:
			return bookingDomain.ErrOverlap
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == bookingNumberIndex:
			return errBookingNumberTaken
		}
	}
	return fmt.Errorf("failed to write booking: %w", err)
}

// --- Conversion Helpers ---

func statusStrings(statuses []bookingDomain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	req := bk.CancelRequest()
	return &BookingModel{
		ID:                 bk.ID(),
		BookingNumber:      bk.BookingNumber(),
		CarID:              bk.CarID(),
		ClientID:           bk.ClientID(),
		PickupLocationID:   bk.PickupLocationID(),
		DropoffLocationID:  bk.DropoffLocationID(),
		PickupAt:           bk.Window().Pickup,
		DropoffAt:          bk.Window().Dropoff,
		Status:             string(bk.Status()),
		CancelRequestedAt:  req.RequestedAt,
		CancelReviewStatus: string(req.Status),
		CancelReviewedAt:   req.ReviewedAt,
		CancelReviewedBy:   req.ReviewedBy,
		Version:            bk.Version(),
		CreatedAt:          bk.CreatedAt(),
		UpdatedAt:          bk.UpdatedAt(),
	}
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	review := bookingDomain.CancelReviewStatus(m.CancelReviewStatus)
	if !review.IsValid() {
		review = bookingDomain.CancelReviewNone
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.CarID,
		m.ClientID,
		m.PickupLocationID,
		m.DropoffLocationID,
		bookingDomain.Window{Pickup: m.PickupAt.UTC(), Dropoff: m.DropoffAt.UTC()},
		status,
		bookingDomain.CancelRequest{
			RequestedAt: m.CancelRequestedAt,
			Status:      review,
			ReviewedAt:  m.CancelReviewedAt,
			ReviewedBy:  m.CancelReviewedBy,
		},
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
