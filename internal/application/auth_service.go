package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/RentalBee/service-rental/internal/common/auth"
	"github.com/RentalBee/service-rental/internal/common/domain"
	"github.com/RentalBee/service-rental/internal/common/events"
	"github.com/RentalBee/service-rental/internal/common/kafka"
	userDomain "github.com/RentalBee/service-rental/internal/domain/user"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	errInvalidCredentials = domain.NewUnauthorizedError("Invalid email or password.")
	errEmailTaken         = domain.NewCodedConflictError("EMAIL_TAKEN", "An account with this email already exists.")
	errInvalidOTP         = domain.NewCodedValidationError("INVALID_OTP", "The verification code is incorrect.")
	errOTPNotFound        = domain.NewCodedValidationError("OTP_NOT_FOUND", "Request a verification code first.")
)

// SendOTPRequest asks for a sign-up code.
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SignUpRequest registers a client.
type SignUpRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	OTP       string `json:"otp" binding:"required,len=6,numeric"`
}

// SignInRequest authenticates a user.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest replaces a user's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// AuthResult is returned after a successful sign-up or sign-in.
type AuthResult struct {
	AccessToken string  `json:"accessToken"`
	ExpiresIn   int64   `json:"expiresIn"`
	User        UserDTO `json:"user"`
}

// AuthService implements sign-up with e-mail OTP, sign-in and password changes.
type AuthService struct {
	users      userDomain.UserRepository
	otps       userDomain.OTPRepository
	jwtManager *auth.JWTManager
	producer   kafka.Publisher
	logger     *zap.Logger
	hashCost   int
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users userDomain.UserRepository,
	otps userDomain.OTPRepository,
	jwtManager *auth.JWTManager,
	producer kafka.Publisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		otps:       otps,
		jwtManager: jwtManager,
		producer:   producer,
		logger:     logger,
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// SendOTP issues a fresh sign-up code for an unregistered email, replacing
// any pending one. The code leaves the service only through auth.events.
func (s *AuthService) SendOTP(ctx context.Context, req SendOTPRequest) error {
	email := userDomain.NormalizeEmail(req.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return err
	}

	code, err := userDomain.GenerateOTPCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash otp: %w", err)
	}

	otp := userDomain.NewOTP(email, string(hash), s.now())
	if err := s.otps.Upsert(ctx, otp); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	s.logger.Info("otp issued", zap.String("email", email))
	publishEvent(ctx, s.producer, s.logger, events.TopicAuthEvents, events.AuthOTPIssued, email, events.OTPIssuedEvent{
		Email:      email,
		Code:       code,
		ExpiresAt:  otp.ExpiresAt,
		OccurredAt: otp.CreatedAt,
	})
	return nil
}

// SignUp verifies the OTP and creates a CLIENT account.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error) {
	email := userDomain.NormalizeEmail(req.Email)
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	if err := s.verifyOTP(ctx, email, req.OTP); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u, err := userDomain.NewClient(email, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), string(hash))
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	if err := s.otps.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to delete used otp", zap.String("email", email), zap.Error(err))
	}

	s.logger.Info("client signed up", zap.String("user_id", u.ID.String()))
	return s.issue(u)
}

// SignIn checks the credentials and issues an access token.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, userDomain.NormalizeEmail(req.Email))
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, errInvalidCredentials
	}
	return s.issue(u)
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return domain.NewCodedValidationError("WRONG_PASSWORD", "Current password is incorrect.")
	}
	if req.CurrentPassword == req.NewPassword {
		return domain.NewCodedValidationError("SAME_PASSWORD", "New password must differ from the current one.")
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = s.now().UTC()
	return s.users.Update(ctx, u)
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return errEmailTaken
	case domain.IsKind(err, domain.KindNotFound):
		return nil
	default:
		return err
	}
}

// verifyOTP counts the attempt before comparing, so a wrong code still uses
// one of the allowed attempts.
func (s *AuthService) verifyOTP(ctx context.Context, email, code string) error {
	otp, err := s.otps.FindByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return errOTPNotFound
		}
		return err
	}
	if err := otp.Check(s.now()); err != nil {
		return err
	}
	if err := s.otps.UpdateAttempts(ctx, email, otp.Attempts); err != nil {
		return fmt.Errorf("failed to record otp attempt: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return errInvalidOTP
	}
	return err
}

func (s *AuthService) issue(u *userDomain.User) (*AuthResult, error) {
	token, err := s.jwtManager.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtManager.AccessTTL().Seconds()),
		User:        toUserDTO(u),
	}, nil
}

func validatePassword(p string) error {
	if len(p) < MinPasswordLength {
		return domain.NewCodedValidationError("WEAK_PASSWORD", fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}
	return nil
}
