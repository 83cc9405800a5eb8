package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RentalBee/service-rental/internal/common/domain"
	reviewDomain "github.com/RentalBee/service-rental/internal/domain/review"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_booking_car_client"`
	CarID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_booking_car_client;index"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_booking_car_client"`
	Text      string    `gorm:"type:text;not null"`
	Rating    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (ReviewModel) TableName() string { return "reviews" }

// GormReviewRepository implements ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Review", id.String())
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return toReviewDomain(&model), nil
}

func (r *GormReviewRepository) FindOne(ctx context.Context, bookingID, carID, clientID uuid.UUID) (*reviewDomain.Review, error) {
	var models []ReviewModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ? AND car_id = ? AND client_id = ?", bookingID, carID, clientID).
		Limit(1).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	return toReviewDomain(&models[0]), nil
}

func (r *GormReviewRepository) FindByCarID(ctx context.Context, carID uuid.UUID, page, limit int) ([]*reviewDomain.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("car_id = ?", carID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count car reviews: %w", err)
	}

	var models []ReviewModel
	if err := r.db.WithContext(ctx).
		Where("car_id = ?", carID).
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find car reviews: %w", err)
	}
	return toReviewDomains(models), total, nil
}

func (r *GormReviewRepository) RatingsByCarID(ctx context.Context, carID uuid.UUID) ([]int, error) {
	var ratings []int
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Where("car_id = ?", carID).
		Pluck("rating", &ratings).Error; err != nil {
		return nil, fmt.Errorf("failed to load car ratings: %w", err)
	}
	return ratings, nil
}

func (r *GormReviewRepository) Recent(ctx context.Context, limit int) ([]*reviewDomain.Review, error) {
	var models []ReviewModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent reviews: %w", err)
	}
	return toReviewDomains(models), nil
}

func (r *GormReviewRepository) Save(ctx context.Context, rv *reviewDomain.Review) error {
	if err := r.db.WithContext(ctx).Create(toReviewModel(rv)).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("feedback for this booking already exists")
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

func (r *GormReviewRepository) Update(ctx context.Context, rv *reviewDomain.Review) error {
	result := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Where("id = ?", rv.ID()).
		Updates(map[string]interface{}{
			"text":       rv.Text(),
			"rating":     rv.Rating(),
			"updated_at": rv.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Review", rv.ID().String())
	}
	return nil
}

func toReviewModel(rv *reviewDomain.Review) *ReviewModel {
	return &ReviewModel{
		ID:        rv.ID(),
		BookingID: rv.BookingID(),
		CarID:     rv.CarID(),
		ClientID:  rv.ClientID(),
		Text:      rv.Text(),
		Rating:    rv.Rating(),
		CreatedAt: rv.CreatedAt(),
		UpdatedAt: rv.UpdatedAt(),
	}
}

func toReviewDomains(models []ReviewModel) []*reviewDomain.Review {
	out := make([]*reviewDomain.Review, len(models))
	for i := range models {
		out[i] = toReviewDomain(&models[i])
	}
	return out
}

func toReviewDomain(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.Reconstruct(m.ID, m.BookingID, m.CarID, m.ClientID, m.Text, m.Rating, m.CreatedAt, m.UpdatedAt)
}
