package review

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RentalBee/service-rental/internal/common/domain"
)

func TestNewReview(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	b, c, u := uuid.New(), uuid.New(), uuid.New()

	r, err := NewReview(b, c, u, "  great car ", 5, now)
	require.NoError(t, err)
	assert.Equal(t, "great car", r.Text())
	assert.Equal(t, 5, r.Rating())

	tests := []struct {
		name   string
		text   string
		rating int
		code   string
	}{
		{"empty text", " ", 3, "MISSING_FIELDS"},
		{"zero rating", "ok", 0, "INVALID_RATING"},
		{"six rating", "ok", 6, "INVALID_RATING"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReview(b, c, u, tt.text, tt.rating, now)
			assert.Equal(t, tt.code, domain.CodeOf(err))
		})
	}

	_, err = NewReview(uuid.Nil, c, u, "ok", 3, now)
	assert.Equal(t, "MISSING_FIELDS", domain.CodeOf(err))
}

func TestReview_Revise(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	r, err := NewReview(uuid.New(), uuid.New(), uuid.New(), "ok", 3, now)
	require.NoError(t, err)

	require.NoError(t, r.Revise("better", 4, now.Add(time.Hour)))
	assert.Equal(t, 4, r.Rating())
	assert.True(t, r.UpdatedAt().After(r.CreatedAt()))
	assert.ErrorIs(t, r.Revise("x", 9, now), ErrInvalidRating)
}
