package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/RentalBee/service-rental/internal/common/domain"
)

const (
	OTPLength      = 6
	OTPTTL         = 5 * time.Minute
	OTPMaxAttempts = 3
)

// OTP is a pending one-time sign-up code for an email address. Only the
// hash of the code is stored.
type OTP struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	CreatedAt time.Time
}

// GenerateOTPCode returns a random six digit code.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// NewOTP creates a pending OTP for email.
func NewOTP(email, codeHash string, now time.Time) *OTP {
	now = now.UTC()
	return &OTP{
		Email:     NormalizeEmail(email),
		CodeHash:  codeHash,
		ExpiresAt: now.Add(OTPTTL),
		CreatedAt: now,
	}
}

// Check validates the OTP state before the code is compared. It counts the
// attempt.
func (o *OTP) Check(now time.Time) error {
	if now.After(o.ExpiresAt) {
		return domain.NewCodedValidationError("OTP_EXPIRED", "The verification code has expired. Request a new one.")
	}
	if o.Attempts >= OTPMaxAttempts {
		return domain.NewCodedValidationError("OTP_ATTEMPTS_EXCEEDED", "Too many attempts. Request a new code.")
	}
	o.Attempts++
	return nil
}
