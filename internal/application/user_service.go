package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RentalBee/service-rental/internal/common/domain"
	notificationDomain "github.com/RentalBee/service-rental/internal/domain/notification"
	userDomain "github.com/RentalBee/service-rental/internal/domain/user"
)

// UpdatePersonalInfoRequest holds the optional profile changes.
type UpdatePersonalInfoRequest struct {
	FirstName *string             `json:"firstName"`
	LastName  *string             `json:"lastName"`
	Phone     *string             `json:"phone"`
	ImageURL  *string             `json:"imageUrl" binding:"omitempty,url"`
	Address   *userDomain.Address `json:"address"`
}

// UploadDocumentRequest records a document stored by the upload service.
type UploadDocumentRequest struct {
	DocumentURL string `json:"documentUrl" binding:"required,url"`
}

// SetDocumentStatusRequest is a support agent's review of a document.
type SetDocumentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=VERIFIED UNVERIFIED"`
}

// UserDTO is the response representation of a user.
type UserDTO struct {
	ID                 uuid.UUID           `json:"id"`
	Email              string              `json:"email"`
	FirstName          string              `json:"firstName"`
	LastName           string              `json:"lastName"`
	Role               string              `json:"role"`
	ImageURL           string              `json:"imageUrl,omitempty"`
	Phone              string              `json:"phone,omitempty"`
	Address            userDomain.Address  `json:"address"`
	VerificationStatus string              `json:"verificationStatus"`
	IdentityDocument   userDomain.Document `json:"identityDocument"`
	LicenseDocument    userDomain.Document `json:"licenseDocument"`
	CreatedAt          time.Time           `json:"createdAt"`
}

// DocumentsDTO lists both documents of a user.
type DocumentsDTO struct {
	IdentityDocument   userDomain.Document `json:"identityDocument"`
	LicenseDocument    userDomain.Document `json:"licenseDocument"`
	VerificationStatus string              `json:"verificationStatus"`
}

// UserService handles profile and document use cases.
type UserService struct {
	users    userDomain.UserRepository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users userDomain.UserRepository, notifier Notifier, logger *zap.Logger) *UserService {
	return &UserService{users: users, notifier: notifier, logger: logger, now: time.Now}
}

// GetPersonalInfo returns the user's profile.
func (s *UserService) GetPersonalInfo(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := toUserDTO(u)
	return &dto, nil
}

// UpdatePersonalInfo applies the fields present in req.
func (s *UserService) UpdatePersonalInfo(ctx context.Context, userID uuid.UUID, req UpdatePersonalInfoRequest) (*UserDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		if strings.TrimSpace(*req.FirstName) == "" {
			return nil, domain.NewValidationError("first name cannot be empty")
		}
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		if strings.TrimSpace(*req.LastName) == "" {
			return nil, domain.NewValidationError("last name cannot be empty")
		}
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.ImageURL != nil {
		u.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Address != nil {
		u.Address = *req.Address
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	dto := toUserDTO(u)
	return &dto, nil
}

// UploadDocument attaches a document file, which resets it to UNVERIFIED.
func (s *UserService) UploadDocument(ctx context.Context, userID uuid.UUID, docType string, req UploadDocumentRequest) (*DocumentsDTO, error) {
	t, err := userDomain.ParseDocumentType(docType)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.AttachDocument(t, strings.TrimSpace(req.DocumentURL), s.now()); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("document uploaded",
		zap.String("user_id", userID.String()),
		zap.String("type", string(t)),
	)
	return toDocumentsDTO(u), nil
}

// GetDocuments returns both documents of a user. A stale verification is
// corrected and persisted on the way.
func (s *UserService) GetDocuments(ctx context.Context, userID uuid.UUID) (*DocumentsDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.ReconcileVerification() {
		if err := s.users.Update(ctx, u); err != nil {
			return nil, err
		}
	}
	return toDocumentsDTO(u), nil
}

// SetDocumentStatus records a support agent's review of a document.
func (s *UserService) SetDocumentStatus(ctx context.Context, userID uuid.UUID, docType string, req SetDocumentStatusRequest, agentID uuid.UUID) (*DocumentsDTO, error) {
	t, err := userDomain.ParseDocumentType(docType)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := userDomain.VerificationStatus(strings.ToUpper(req.Status))
	if err := u.SetDocumentStatus(t, status, s.now()); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("document reviewed",
		zap.String("user_id", userID.String()),
		zap.String("type", string(t)),
		zap.String("status", string(status)),
		zap.String("agent_id", agentID.String()),
	)

	if s.notifier != nil {
		title, message, typ := "Document Verified", fmt.Sprintf("Your %s document has been verified.", t), notificationDomain.TypeSuccess
		if status == userDomain.Unverified {
			title, message, typ = "Document Needs Attention", fmt.Sprintf("Your %s document could not be verified. Please upload it again.", t), notificationDomain.TypeWarning
		}
		s.notifier.Dispatch(notificationDomain.New(userID, title, message, typ))
	}
	return toDocumentsDTO(u), nil
}

func toUserDTO(u *userDomain.User) UserDTO {
	return UserDTO{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Role:               string(u.Role),
		ImageURL:           u.ImageURL,
		Phone:              u.Phone,
		Address:            u.Address,
		VerificationStatus: string(u.VerificationStatus()),
		IdentityDocument:   u.IdentityDocument,
		LicenseDocument:    u.LicenseDocument,
		CreatedAt:          u.CreatedAt,
	}
}

func toDocumentsDTO(u *userDomain.User) *DocumentsDTO {
	return &DocumentsDTO{
		IdentityDocument:   u.IdentityDocument,
		LicenseDocument:    u.LicenseDocument,
		VerificationStatus: string(u.VerificationStatus()),
	}
}
