package review

import (
	"context"

	"github.com/google/uuid"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	// FindOne returns nil, nil when the client has not reviewed the booking yet.
	FindOne(ctx context.Context, bookingID, carID, clientID uuid.UUID) (*Review, error)
	FindByCarID(ctx context.Context, carID uuid.UUID, page, limit int) ([]*Review, int64, error)
	RatingsByCarID(ctx context.Context, carID uuid.UUID) ([]int, error)
	Recent(ctx context.Context, limit int) ([]*Review, error)
	Save(ctx context.Context, r *Review) error
	Update(ctx context.Context, r *Review) error
}
