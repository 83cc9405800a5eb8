package user

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	Save(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
}

// OTPRepository stores at most one pending code per email.
type OTPRepository interface {
	Upsert(ctx context.Context, otp *OTP) error
	FindByEmail(ctx context.Context, email string) (*OTP, error)
	UpdateAttempts(ctx context.Context, email string, attempts int) error
	Delete(ctx context.Context, email string) error
}
