package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RentalBee/service-rental/internal/common/domain"
)

var baseTime = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func mustWindow(t *testing.T, pickup, dropoff time.Time) Window {
	t.Helper()
	w, err := NewWindow(pickup, dropoff)
	require.NoError(t, err)
	return w
}

func newTestBooking(t *testing.T, clientID uuid.UUID, createdAt time.Time) *Booking {
	t.Helper()
	w := mustWindow(t, createdAt.Add(72*time.Hour), createdAt.Add(96*time.Hour))
	b, err := NewBooking(uuid.New(), clientID, uuid.New(), uuid.New(), w, createdAt)
	require.NoError(t, err)
	b.ClearPendingChanges()
	return b
}

func withStatus(b *Booking, status BookingStatus) *Booking {
	b.status = status
	return b
}

func TestNewBooking(t *testing.T) {
	clientID := uuid.New()
	b := func() *Booking {
		w := mustWindow(t, baseTime.Add(48*time.Hour), baseTime.Add(72*time.Hour))
		b, err := NewBooking(uuid.New(), clientID, uuid.New(), uuid.New(), w, baseTime)
		require.NoError(t, err)
		return b
	}()

	assert.Equal(t, StatusBooked, b.Status())
	assert.Equal(t, CancelReviewNone, b.CancelRequest().Status)
	assert.Equal(t, int64(1), b.Version())
	assert.Empty(t, b.BookingNumber())
	require.Len(t, b.PendingChanges(), 1)
	assert.Equal(t, clientID, b.PendingChanges()[0].ChangedBy)
}

func TestNewBooking_RequiresFields(t *testing.T) {
	w := mustWindow(t, baseTime, baseTime.Add(time.Hour))
	_, err := NewBooking(uuid.Nil, uuid.New(), uuid.New(), uuid.New(), w, baseTime)
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), Window{}, baseTime)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestRequestCancel_Reserved_NeverChangesStatus(t *testing.T) {
	clientID := uuid.New()
	b := withStatus(newTestBooking(t, clientID, baseTime), StatusReserved)

	for _, actor := range []uuid.UUID{clientID, uuid.New()} {
		outcome, err := b.RequestCancel(actor, baseTime.Add(time.Hour), DefaultPolicy())
		require.NoError(t, err)
		assert.Equal(t, CancelSubmitted, outcome)
		assert.Equal(t, StatusReserved, b.Status())
		assert.Equal(t, CancelReviewPending, b.CancelRequest().Status)
		assert.NotNil(t, b.CancelRequest().RequestedAt)
	}
}

func TestRequestCancel_Booked(t *testing.T) {
	clientID := uuid.New()

	t.Run("created 13 hours ago defers", func(t *testing.T) {
		b := newTestBooking(t, clientID, baseTime)
		outcome, err := b.RequestCancel(clientID, baseTime.Add(13*time.Hour), DefaultPolicy())
		require.NoError(t, err)
		assert.Equal(t, CancelPendingReview, outcome)
		assert.Equal(t, StatusBooked, b.Status())
		assert.Equal(t, CancelReviewPending, b.CancelRequest().Status)
	})

	t.Run("created 2 hours ago by owner cancels", func(t *testing.T) {
		b := newTestBooking(t, clientID, baseTime)
		outcome, err := b.RequestCancel(clientID, baseTime.Add(2*time.Hour), DefaultPolicy())
		require.NoError(t, err)
		assert.Equal(t, CancelCompleted, outcome)
		assert.Equal(t, StatusCanceled, b.Status())
		assert.Len(t, b.PendingChanges(), 1)
	})

	t.Run("created 2 hours ago by non-owner is rejected", func(t *testing.T) {
		b := newTestBooking(t, clientID, baseTime)
		_, err := b.RequestCancel(uuid.New(), baseTime.Add(2*time.Hour), DefaultPolicy())
		assert.ErrorIs(t, err, ErrNotOwner)
		assert.True(t, domain.IsKind(err, domain.KindForbidden))
		assert.Equal(t, StatusBooked, b.Status())
		assert.Equal(t, CancelReviewNone, b.CancelRequest().Status)
		assert.Empty(t, b.PendingChanges())
	})

	t.Run("exactly at the window boundary cancels", func(t *testing.T) {
		b := newTestBooking(t, clientID, baseTime)
		outcome, err := b.RequestCancel(clientID, baseTime.Add(12*time.Hour), DefaultPolicy())
		require.NoError(t, err)
		assert.Equal(t, CancelCompleted, outcome)
	})

	t.Run("configured window is honoured", func(t *testing.T) {
		b := newTestBooking(t, clientID, baseTime)
		policy := Policy{MinAdvance: 24 * time.Hour, FreeCancelWindow: time.Hour}
		outcome, err := b.RequestCancel(clientID, baseTime.Add(2*time.Hour), policy)
		require.NoError(t, err)
		assert.Equal(t, CancelPendingReview, outcome)
	})
}

func TestRequestCancel_OtherStatusesRejected(t *testing.T) {
	for _, status := range []BookingStatus{StatusServiceStarted, StatusServiceProvided, StatusServiceFinished, StatusCanceled} {
		t.Run(string(status), func(t *testing.T) {
			clientID := uuid.New()
			b := withStatus(newTestBooking(t, clientID, baseTime), status)
			_, err := b.RequestCancel(clientID, baseTime.Add(time.Hour), DefaultPolicy())
			assert.ErrorIs(t, err, ErrNotCancelable)
			assert.Equal(t, status, b.Status())
		})
	}
}

func TestChangeStatusBySupport_CancelBackfillsRequest(t *testing.T) {
	agent := uuid.New()
	b := newTestBooking(t, uuid.New(), baseTime)
	now := baseTime.Add(5 * time.Hour)

	require.NoError(t, b.ChangeStatusBySupport(StatusCanceled, agent, now))

	req := b.CancelRequest()
	assert.Equal(t, StatusCanceled, b.Status())
	assert.Equal(t, CancelReviewApproved, req.Status)
	require.NotNil(t, req.RequestedAt)
	require.NotNil(t, req.ReviewedAt)
	require.NotNil(t, req.ReviewedBy)
	assert.Equal(t, now, *req.RequestedAt)
	assert.Equal(t, now, *req.ReviewedAt)
	assert.Equal(t, agent, *req.ReviewedBy)
}

func TestChangeStatusBySupport_CancelKeepsClientRequestTime(t *testing.T) {
	clientID := uuid.New()
	b := withStatus(newTestBooking(t, clientID, baseTime), StatusReserved)
	_, err := b.RequestCancel(clientID, baseTime.Add(time.Hour), DefaultPolicy())
	require.NoError(t, err)

	require.NoError(t, b.ChangeStatusBySupport(StatusCanceled, uuid.New(), baseTime.Add(3*time.Hour)))

	assert.Equal(t, baseTime.Add(time.Hour), *b.CancelRequest().RequestedAt)
	assert.Equal(t, CancelReviewApproved, b.CancelRequest().Status)
}

func TestChangeStatusBySupport_Table(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		wantErr string
	}{
		{StatusBooked, StatusReserved, ""},
		{StatusReserved, StatusServiceStarted, ""},
		{StatusServiceStarted, StatusServiceProvided, ""},
		{StatusReserved, StatusCanceled, ""},
		{StatusBooked, StatusServiceStarted, "INVALID_STATE"},
		{StatusServiceStarted, StatusCanceled, "INVALID_STATE"},
		{StatusCanceled, StatusReserved, "INVALID_STATE"},
		{StatusServiceProvided, StatusServiceFinished, CodeInvalidStatus},
		{StatusReserved, StatusBooked, CodeInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			b := withStatus(newTestBooking(t, uuid.New(), baseTime), tt.from)
			err := b.ChangeStatusBySupport(tt.to, uuid.New(), baseTime)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.to, b.Status())
				assert.Len(t, b.PendingChanges(), 1)
				return
			}
			assert.Equal(t, tt.wantErr, domain.CodeOf(err))
			assert.Equal(t, tt.from, b.Status())
		})
	}
}

func TestRejectCancelRequest(t *testing.T) {
	clientID := uuid.New()
	agent := uuid.New()
	b := withStatus(newTestBooking(t, clientID, baseTime), StatusReserved)

	assert.ErrorIs(t, b.RejectCancelRequest(agent, baseTime), ErrNoPendingCancel)

	_, err := b.RequestCancel(clientID, baseTime.Add(time.Hour), DefaultPolicy())
	require.NoError(t, err)
	require.NoError(t, b.RejectCancelRequest(agent, baseTime.Add(2*time.Hour)))

	assert.Equal(t, StatusReserved, b.Status())
	assert.Equal(t, CancelReviewRejected, b.CancelRequest().Status)
	assert.Equal(t, agent, *b.CancelRequest().ReviewedBy)

	// A rejected request may be submitted again.
	outcome, err := b.RequestCancel(clientID, baseTime.Add(3*time.Hour), DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, CancelSubmitted, outcome)
	assert.Equal(t, CancelReviewPending, b.CancelRequest().Status)
	assert.Nil(t, b.CancelRequest().ReviewedBy)
}

func TestReschedule(t *testing.T) {
	clientID := uuid.New()
	now := baseTime.Add(time.Hour)
	newWindow := mustWindow(t, baseTime.Add(5*24*time.Hour), baseTime.Add(6*24*time.Hour))

	t.Run("owner moves reserved booking", func(t *testing.T) {
		b := withStatus(newTestBooking(t, clientID, baseTime), StatusReserved)
		loc := uuid.New()
		require.NoError(t, b.Reschedule(clientID, newWindow, loc, loc, now, DefaultPolicy()))
		assert.Equal(t, newWindow, b.Window())
		assert.Equal(t, loc, b.PickupLocationID())
	})

	t.Run("non-owner rejected before status check", func(t *testing.T) {
		b := newTestBooking(t, clientID, baseTime)
		err := b.Reschedule(uuid.New(), newWindow, uuid.New(), uuid.New(), now, DefaultPolicy())
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("only reserved bookings", func(t *testing.T) {
		b := newTestBooking(t, clientID, baseTime)
		err := b.Reschedule(clientID, newWindow, uuid.New(), uuid.New(), now, DefaultPolicy())
		assert.ErrorIs(t, err, ErrNotEditable)
	})

	t.Run("new pickup too soon", func(t *testing.T) {
		b := withStatus(newTestBooking(t, clientID, baseTime), StatusReserved)
		soon := mustWindow(t, now.Add(23*time.Hour), now.Add(48*time.Hour))
		err := b.Reschedule(clientID, soon, uuid.New(), uuid.New(), now, DefaultPolicy())
		assert.ErrorIs(t, err, ErrInvalidPickupTime)
	})

	t.Run("unchanged pickup skips lead rule", func(t *testing.T) {
		b := withStatus(newTestBooking(t, clientID, baseTime), StatusReserved)
		late := b.Window().Pickup.Add(-time.Hour)
		extended := mustWindow(t, b.Window().Pickup, b.Window().Dropoff.Add(24*time.Hour))
		require.NoError(t, b.Reschedule(clientID, extended, b.PickupLocationID(), b.DropoffLocationID(), late, DefaultPolicy()))
	})
}

func TestFinish(t *testing.T) {
	b := withStatus(newTestBooking(t, uuid.New(), baseTime), StatusServiceProvided)
	assert.False(t, b.CanReceiveFeedbackUpdate())

	require.NoError(t, b.Finish(baseTime))
	assert.Equal(t, StatusServiceFinished, b.Status())
	assert.True(t, b.CanReceiveFeedbackUpdate())

	err := b.Finish(baseTime)
	assert.True(t, domain.IsKind(err, domain.KindInvalidState))
}

func TestIncrementVersion(t *testing.T) {
	b := newTestBooking(t, uuid.New(), baseTime)
	b.IncrementVersion()
	assert.Equal(t, int64(2), b.Version())
}

func TestIncrementVersion_KeepsTransitionTime(t *testing.T) {
	b := withStatus(newTestBooking(t, uuid.New(), baseTime), StatusServiceProvided)
	finishedAt := baseTime.Add(5 * 24 * time.Hour)

	require.NoError(t, b.Finish(finishedAt))
	b.IncrementVersion()

	assert.Equal(t, finishedAt, b.UpdatedAt())
	require.Len(t, b.PendingChanges(), 1)
	assert.Equal(t, b.UpdatedAt(), b.PendingChanges()[0].ChangedAt)
}
