package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RentalBee/service-rental/internal/common/domain"
	userDomain "github.com/RentalBee/service-rental/internal/domain/user"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email                  string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName              string     `gorm:"type:varchar(100);not null"`
	LastName               string     `gorm:"type:varchar(100);not null"`
	PasswordHash           string     `gorm:"type:varchar(255);not null"`
	Role                   string     `gorm:"type:varchar(20);not null;default:'CLIENT'"`
	ImageURL               string     `gorm:"type:varchar(500);not null;default:''"`
	Phone                  string     `gorm:"type:varchar(30);not null;default:''"`
	Street                 string     `gorm:"type:varchar(255);not null;default:''"`
	City                   string     `gorm:"type:varchar(100);not null;default:''"`
	Country                string     `gorm:"type:varchar(100);not null;default:''"`
	PostalCode             string     `gorm:"type:varchar(20);not null;default:''"`
	IdentityDocumentURL    string     `gorm:"type:varchar(500);not null;default:''"`
	IdentityDocumentStatus string     `gorm:"type:varchar(20);not null;default:'UNVERIFIED'"`
	IdentityUploadedAt     *time.Time `gorm:"type:timestamptz"`
	LicenseDocumentURL     string     `gorm:"type:varchar(500);not null;default:''"`
	LicenseDocumentStatus  string     `gorm:"type:varchar(20);not null;default:'UNVERIFIED'"`
	LicenseUploadedAt      *time.Time `gorm:"type:timestamptz"`
	CreatedAt              time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt              time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (UserModel) TableName() string { return "users" }

// OTPModel is the GORM model for the otps table.
type OTPModel struct {
	Email     string    `gorm:"type:varchar(255);primaryKey"`
	CodeHash  string    `gorm:"type:varchar(255);not null"`
	ExpiresAt time.Time `gorm:"type:timestamptz;not null"`
	Attempts  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (OTPModel) TableName() string { return "otps" }

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID returns a user or a not-found error.
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return toUserDomain(&model), nil
}

// FindByEmail returns a user by normalized email or a not-found error.
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", userDomain.NormalizeEmail(email)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", email)
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return toUserDomain(&model), nil
}

// FindByIDs returns the users that exist among ids.
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*userDomain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	users := make([]*userDomain.User, len(models))
	for i := range models {
		users[i] = toUserDomain(&models[i])
	}
	return users, nil
}

// Save persists a new user. A taken email is a conflict.
func (r *GormUserRepository) Save(ctx context.Context, u *userDomain.User) error {
	if err := r.db.WithContext(ctx).Create(toUserModel(u)).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.NewCodedConflictError("EMAIL_TAKEN", "An account with this email already exists")
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of the user.
func (r *GormUserRepository) Update(ctx context.Context, u *userDomain.User) error {
	model := toUserModel(u)
	result := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", model.ID).
		Select("*").
		Omit("id", "email", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("User", u.ID.String())
	}
	return nil
}

// GormOTPRepository implements OTPRepository using GORM.
type GormOTPRepository struct {
	db *gorm.DB
}

// NewGormOTPRepository creates a new GormOTPRepository.
func NewGormOTPRepository(db *gorm.DB) *GormOTPRepository {
	return &GormOTPRepository{db: db}
}

// Upsert replaces any pending code for the email.
func (r *GormOTPRepository) Upsert(ctx context.Context, otp *userDomain.OTP) error {
	model := OTPModel{
		Email:     otp.Email,
		CodeHash:  otp.CodeHash,
		ExpiresAt: otp.ExpiresAt,
		Attempts:  otp.Attempts,
		CreatedAt: otp.CreatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at", "attempts", "created_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// FindByEmail returns the pending code or a not-found error.
func (r *GormOTPRepository) FindByEmail(ctx context.Context, email string) (*userDomain.OTP, error) {
	var model OTPModel
	if err := r.db.WithContext(ctx).Where("email = ?", userDomain.NormalizeEmail(email)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("OTP", email)
		}
		return nil, fmt.Errorf("failed to find otp: %w", err)
	}
	return &userDomain.OTP{
		Email:     model.Email,
		CodeHash:  model.CodeHash,
		ExpiresAt: model.ExpiresAt,
		Attempts:  model.Attempts,
		CreatedAt: model.CreatedAt,
	}, nil
}

// UpdateAttempts stores the attempt counter.
func (r *GormOTPRepository) UpdateAttempts(ctx context.Context, email string, attempts int) error {
	if err := r.db.WithContext(ctx).Model(&OTPModel{}).
		Where("email = ?", userDomain.NormalizeEmail(email)).
		Update("attempts", attempts).Error; err != nil {
		return fmt.Errorf("failed to update otp attempts: %w", err)
	}
	return nil
}

// Delete removes a used code.
func (r *GormOTPRepository) Delete(ctx context.Context, email string) error {
	if err := r.db.WithContext(ctx).Where("email = ?", userDomain.NormalizeEmail(email)).Delete(&OTPModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

func toUserModel(u *userDomain.User) *UserModel {
	return &UserModel{
		ID:                     u.ID,
		Email:                  u.Email,
		FirstName:              u.FirstName,
		LastName:               u.LastName,
		PasswordHash:           u.PasswordHash,
		Role:                   string(u.Role),
		ImageURL:               u.ImageURL,
		Phone:                  u.Phone,
		Street:                 u.Address.Street,
		City:                   u.Address.City,
		Country:                u.Address.Country,
		PostalCode:             u.Address.PostalCode,
		IdentityDocumentURL:    u.IdentityDocument.URL,
		IdentityDocumentStatus: string(u.IdentityDocument.Status),
		IdentityUploadedAt:     u.IdentityDocument.UploadedAt,
		LicenseDocumentURL:     u.LicenseDocument.URL,
		LicenseDocumentStatus:  string(u.LicenseDocument.Status),
		LicenseUploadedAt:      u.LicenseDocument.UploadedAt,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}

func toUserDomain(m *UserModel) *userDomain.User {
	return &userDomain.User{
		ID:           m.ID,
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PasswordHash: m.PasswordHash,
		Role:         userDomain.Role(m.Role),
		ImageURL:     m.ImageURL,
		Phone:        m.Phone,
		Address: userDomain.Address{
			Street:     m.Street,
			City:       m.City,
			Country:    m.Country,
			PostalCode: m.PostalCode,
		},
		IdentityDocument: userDomain.Document{
			URL:        m.IdentityDocumentURL,
			Status:     userDomain.VerificationStatus(m.IdentityDocumentStatus),
			UploadedAt: m.IdentityUploadedAt,
		},
		LicenseDocument: userDomain.Document{
			URL:        m.LicenseDocumentURL,
			Status:     userDomain.VerificationStatus(m.LicenseDocumentStatus),
			UploadedAt: m.LicenseUploadedAt,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
