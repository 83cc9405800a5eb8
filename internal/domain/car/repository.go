package car

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows car listings. Zero values mean "any".
type Filter struct {
	LocationIDs   []uuid.UUID
	Category      Category
	GearBoxType   GearBoxType
	FuelType      FuelType
	MinPriceCents int64
	MaxPriceCents int64
}

// CarRepository defines the persistence contract for cars.
type CarRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Car, error)
	// List returns one page of cars matching filter.
	List(ctx context.Context, filter Filter, page, limit int) ([]*Car, int64, error)
	// ListByRating returns the highest rated cars.
	ListByRating(ctx context.Context, limit int) ([]*Car, error)
	Save(ctx context.Context, c *Car) error
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error
}

// LocationRepository defines the persistence contract for locations.
type LocationRepository interface {
	FindAll(ctx context.Context) ([]Location, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Location, error)
	Save(ctx context.Context, l *Location) error
}
