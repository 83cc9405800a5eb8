package notification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	uid := uuid.New()
	n := New(uid, "Booking Canceled", "done", TypeSuccess)
	assert.Equal(t, uid, n.UserID)
	assert.Equal(t, TypeSuccess, n.Type)
	assert.False(t, n.IsRead)
	assert.NotEqual(t, uuid.Nil, n.ID)

	assert.Equal(t, TypeInfo, New(uid, "t", "m", "loud").Type)
}
