package review

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RentalBee/service-rental/internal/common/domain"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ErrInvalidRating is returned when a rating is outside [MinRating, MaxRating].
var ErrInvalidRating = domain.NewCodedValidationError("INVALID_RATING", "Rating must be between 1 and 5")

// Review is a client's feedback on a finished rental.
type Review struct {
	id        uuid.UUID
	bookingID uuid.UUID
	carID     uuid.UUID
	clientID  uuid.UUID
	text      string
	rating    int
	createdAt time.Time
	updatedAt time.Time
}

// NewReview validates and creates a review.
func NewReview(bookingID, carID, clientID uuid.UUID, text string, rating int, now time.Time) (*Review, error) {
	if bookingID == uuid.Nil || carID == uuid.Nil || clientID == uuid.Nil || strings.TrimSpace(text) == "" {
		return nil, domain.NewCodedValidationError("MISSING_FIELDS", "Missing required fields")
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Review{
		id:        uuid.New(),
		bookingID: bookingID,
		carID:     carID,
		clientID:  clientID,
		text:      strings.TrimSpace(text),
		rating:    rating,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Review from persistence.
func Reconstruct(id, bookingID, carID, clientID uuid.UUID, text string, rating int, createdAt, updatedAt time.Time) *Review {
	return &Review{
		id:        id,
		bookingID: bookingID,
		carID:     carID,
		clientID:  clientID,
		text:      text,
		rating:    rating,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

func (r *Review) ID() uuid.UUID        { return r.id }
func (r *Review) BookingID() uuid.UUID { return r.bookingID }
func (r *Review) CarID() uuid.UUID     { return r.carID }
func (r *Review) ClientID() uuid.UUID  { return r.clientID }
func (r *Review) Text() string         { return r.text }
func (r *Review) Rating() int          { return r.rating }
func (r *Review) CreatedAt() time.Time { return r.createdAt }
func (r *Review) UpdatedAt() time.Time { return r.updatedAt }

// Revise replaces the text and rating of an existing review.
func (r *Review) Revise(text string, rating int, now time.Time) error {
	if strings.TrimSpace(text) == "" {
		return domain.NewCodedValidationError("MISSING_FIELDS", "Missing required fields")
	}
	if err := validateRating(rating); err != nil {
		return err
	}
	r.text = strings.TrimSpace(text)
	r.rating = rating
	r.updatedAt = now.UTC()
	return nil
}
