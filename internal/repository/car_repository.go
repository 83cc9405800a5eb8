package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/RentalBee/service-rental/internal/common/domain"
	bookingDomain "github.com/RentalBee/service-rental/internal/domain/booking"
	carDomain "github.com/RentalBee/service-rental/internal/domain/car"
)

// CarModel is the GORM model for the cars table.
type CarModel struct {
	ID               uuid.UUID                                   `gorm:"type:uuid;primaryKey"`
	Model            string                                      `gorm:"type:varchar(100);not null"`
	Category         string                                      `gorm:"type:varchar(20);not null;index"`
	LocationIDs      datatypes.JSONSlice[uuid.UUID]              `gorm:"not null"`
	Images           datatypes.JSONSlice[string]                 `gorm:"not null"`
	PricePerDayCents int64                                       `gorm:"not null"`
	Specification    datatypes.JSONType[carDomain.Specification] `gorm:"not null"`
	GearBoxType      string                                      `gorm:"type:varchar(20);not null"`
	FuelType         string                                      `gorm:"type:varchar(20);not null"`
	ServiceRating    int                                         `gorm:"not null;default:0"`
	CarRating        float64                                     `gorm:"not null;default:0"`
	Version          int64                                       `gorm:"not null;default:1"`
	CreatedAt        time.Time                                   `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time                                   `gorm:"type:timestamptz;not null;default:now()"`
}

func (CarModel) TableName() string { return "cars" }

// LocationModel is the GORM model for the locations table.
type LocationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Address   string    `gorm:"type:varchar(255);not null"`
	MapURL    string    `gorm:"type:varchar(500);not null;default:''"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (LocationModel) TableName() string { return "locations" }

// GormCarRepository implements CarRepository using GORM.
type GormCarRepository struct {
	db *gorm.DB
}

func NewGormCarRepository(db *gorm.DB) *GormCarRepository {
	return &GormCarRepository{db: db}
}

func (r *GormCarRepository) FindByID(ctx context.Context, id uuid.UUID) (*carDomain.Car, error) {
	var model CarModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingDomain.ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to find car: %w", err)
	}
	return toCarDomain(&model), nil
}

// List returns one page of cars matching filter, best rated first. A car
// matches the location filter when any of its locations is requested.
func (r *GormCarRepository) List(ctx context.Context, filter carDomain.Filter, page, limit int) ([]*carDomain.Car, int64, error) {
	query := r.db.WithContext(ctx).Model(&CarModel{})
	if len(filter.LocationIDs) > 0 {
		ids := make([]string, len(filter.LocationIDs))
		for i, id := range filter.LocationIDs {
			ids[i] = id.String()
		}
		query = query.Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(cars.location_ids) AS l(id) WHERE l.id IN ?)", ids)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", string(filter.Category))
	}
	if filter.GearBoxType != "" {
		query = query.Where("gear_box_type = ?", string(filter.GearBoxType))
	}
	if filter.FuelType != "" {
		query = query.Where("fuel_type = ?", string(filter.FuelType))
	}
	if filter.MinPriceCents > 0 {
		query = query.Where("price_per_day_cents >= ?", filter.MinPriceCents)
	}
	if filter.MaxPriceCents > 0 {
		query = query.Where("price_per_day_cents <= ?", filter.MaxPriceCents)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cars: %w", err)
	}

	var models []CarModel
	if err := query.
		Order("car_rating DESC, created_at ASC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list cars: %w", err)
	}
	return toCarDomains(models), total, nil
}

func (r *GormCarRepository) ListByRating(ctx context.Context, limit int) ([]*carDomain.Car, error) {
	var models []CarModel
	if err := r.db.WithContext(ctx).
		Order("car_rating DESC, service_rating DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list popular cars: %w", err)
	}
	return toCarDomains(models), nil
}

func (r *GormCarRepository) Save(ctx context.Context, c *carDomain.Car) error {
	if err := r.db.WithContext(ctx).Create(toCarModel(c)).Error; err != nil {
		return fmt.Errorf("failed to save car: %w", err)
	}
	return nil
}

// UpdateRating stores a recomputed average rating and bumps the version.
func (r *GormCarRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error {
	result := r.db.WithContext(ctx).
		Model(&CarModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"car_rating": rating,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update car rating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return bookingDomain.ErrCarNotFound
	}
	return nil
}

// GormLocationRepository implements LocationRepository using GORM.
type GormLocationRepository struct {
	db *gorm.DB
}

func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

func (r *GormLocationRepository) FindAll(ctx context.Context) ([]carDomain.Location, error) {
	var models []LocationModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return toLocationDomains(models), nil
}

func (r *GormLocationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]carDomain.Location, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []LocationModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find locations: %w", err)
	}
	return toLocationDomains(models), nil
}

func (r *GormLocationRepository) Save(ctx context.Context, l *carDomain.Location) error {
	model := LocationModel{ID: l.ID, Name: l.Name, Address: l.Address, MapURL: l.MapURL, CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}

// --- Conversions ---

func toCarModel(c *carDomain.Car) *CarModel {
	spec := c.Spec()
	return &CarModel{
		ID:               c.ID(),
		Model:            c.Model(),
		Category:         string(c.Category()),
		LocationIDs:      datatypes.NewJSONSlice(c.LocationIDs()),
		Images:           datatypes.NewJSONSlice(c.Images()),
		PricePerDayCents: c.PricePerDayCents(),
		Specification:    datatypes.NewJSONType(spec),
		GearBoxType:      string(spec.GearBoxType),
		FuelType:         string(spec.FuelType),
		ServiceRating:    c.ServiceRating(),
		CarRating:        c.CarRating(),
		Version:          c.Version(),
		CreatedAt:        c.CreatedAt(),
		UpdatedAt:        c.UpdatedAt(),
	}
}

func toCarDomains(models []CarModel) []*carDomain.Car {
	cars := make([]*carDomain.Car, len(models))
	for i := range models {
		cars[i] = toCarDomain(&models[i])
	}
	return cars
}

func toCarDomain(m *CarModel) *carDomain.Car {
	return carDomain.Reconstruct(
		m.ID, m.Model,
		carDomain.Category(m.Category),
		[]uuid.UUID(m.LocationIDs),
		[]string(m.Images),
		m.PricePerDayCents,
		m.Specification.Data(),
		m.ServiceRating, m.CarRating,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}

func toLocationDomains(models []LocationModel) []carDomain.Location {
	locations := make([]carDomain.Location, len(models))
	for i, m := range models {
		locations[i] = carDomain.Location{ID: m.ID, Name: m.Name, Address: m.Address, MapURL: m.MapURL}
	}
	return locations
}
