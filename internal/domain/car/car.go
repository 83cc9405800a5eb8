package car

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RentalBee/service-rental/internal/common/domain"
)

// Car is the aggregate root for a rentable car.
type Car struct {
	id               uuid.UUID
	model            string
	category         Category
	locationIDs      []uuid.UUID
	images           []string
	pricePerDayCents int64
	spec             Specification
	serviceRating    int
	carRating        float64
	version          int64
	createdAt        time.Time
	updatedAt        time.Time
}

// NewCar creates a car with validated fields and no rating yet.
func NewCar(
	model string,
	category Category,
	locationIDs []uuid.UUID,
	images []string,
	pricePerDayCents int64,
	spec Specification,
	serviceRating int,
) (*Car, error) {
	if model == "" {
		return nil, domain.NewValidationError("car model is required")
	}
	if !category.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid category: %s", category))
	}
	if len(locationIDs) == 0 {
		return nil, domain.NewValidationError("at least one location is required")
	}
	if pricePerDayCents <= 0 {
		return nil, domain.NewValidationError("price per day must be positive")
	}
	if !spec.GearBoxType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid gearbox type: %s", spec.GearBoxType))
	}
	if !spec.FuelType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid fuel type: %s", spec.FuelType))
	}
	if serviceRating < 1 || serviceRating > 5 {
		return nil, domain.NewValidationError("service rating must be between 1 and 5")
	}

	now := time.Now().UTC()
	return &Car{
		id:               uuid.New(),
		model:            model,
		category:         category,
		locationIDs:      locationIDs,
		images:           images,
		pricePerDayCents: pricePerDayCents,
		spec:             spec,
		serviceRating:    serviceRating,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds a Car from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	model string,
	category Category,
	locationIDs []uuid.UUID,
	images []string,
	pricePerDayCents int64,
	spec Specification,
	serviceRating int,
	carRating float64,
	version int64,
	createdAt, updatedAt time.Time,
) *Car {
	return &Car{
		id:               id,
		model:            model,
		category:         category,
		locationIDs:      locationIDs,
		images:           images,
		pricePerDayCents: pricePerDayCents,
		spec:             spec,
		serviceRating:    serviceRating,
		carRating:        carRating,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

func (c *Car) ID() uuid.UUID            { return c.id }
func (c *Car) Model() string            { return c.model }
func (c *Car) Category() Category       { return c.category }
func (c *Car) LocationIDs() []uuid.UUID { return c.locationIDs }
func (c *Car) Images() []string         { return c.images }
func (c *Car) PricePerDayCents() int64  { return c.pricePerDayCents }
func (c *Car) Spec() Specification      { return c.spec }
func (c *Car) ServiceRating() int       { return c.serviceRating }
func (c *Car) CarRating() float64       { return c.carRating }
func (c *Car) Version() int64           { return c.version }
func (c *Car) CreatedAt() time.Time     { return c.createdAt }
func (c *Car) UpdatedAt() time.Time     { return c.updatedAt }

// PrimaryImage returns the first image or "".
func (c *Car) PrimaryImage() string {
	if len(c.images) == 0 {
		return ""
	}
	return c.images[0]
}

// AllowsLocations reports whether both locations are in the car's allowed set.
func (c *Car) AllowsLocations(pickup, dropoff uuid.UUID) bool {
	return c.hasLocation(pickup) && c.hasLocation(dropoff)
}

func (c *Car) hasLocation(id uuid.UUID) bool {
	for _, l := range c.locationIDs {
		if l == id {
			return true
		}
	}
	return false
}

// AverageRating returns the mean of ratings rounded to one decimal, or 0.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return float64(int(avg*10+0.5)) / 10
}
