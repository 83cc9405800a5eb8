package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/RentalBee/service-rental/internal/common/domain"
)

// StatusChange is one audit record of a lifecycle or cancel-review change.
type StatusChange struct {
	Status       BookingStatus
	CancelReview CancelReviewStatus
	ChangedBy    uuid.UUID
	ChangedAt    time.Time
}

// CancelOutcome says what a client cancel request did.
type CancelOutcome int

const (
	// CancelSubmitted: a RESERVED booking now has a pending cancel request.
	CancelSubmitted CancelOutcome = iota + 1
	// CancelPendingReview: a BOOKED booking was too old to cancel outright.
	CancelPendingReview
	// CancelCompleted: the booking is CANCELED.
	CancelCompleted
)

// Booking is the aggregate root for a car reservation.
type Booking struct {
	id                uuid.UUID
	bookingNumber     string
	carID             uuid.UUID
	clientID          uuid.UUID
	pickupLocationID  uuid.UUID
	dropoffLocationID uuid.UUID
	window            Window
	status            BookingStatus
	cancelRequest     CancelRequest

	version   int64
	createdAt time.Time
	updatedAt time.Time

	changes []StatusChange
}

// NewBooking creates a BOOKED booking. The booking number is assigned by the
// repository when the booking is reserved.
func NewBooking(carID, clientID, pickupLocationID, dropoffLocationID uuid.UUID, window Window, now time.Time) (*Booking, error) {
	if carID == uuid.Nil || clientID == uuid.Nil || pickupLocationID == uuid.Nil || dropoffLocationID == uuid.Nil {
		return nil, ErrMissingFields
	}
	if !window.Pickup.Before(window.Dropoff) {
		return nil, ErrInvalidDateRange
	}

	now = now.UTC()
	b := &Booking{
		id:                uuid.New(),
		carID:             carID,
		clientID:          clientID,
		pickupLocationID:  pickupLocationID,
		dropoffLocationID: dropoffLocationID,
		window:            window,
		status:            StatusBooked,
		cancelRequest:     NoCancelRequest(),
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}
	b.record(clientID, now)
	return b, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	carID uuid.UUID,
	clientID uuid.UUID,
	pickupLocationID uuid.UUID,
	dropoffLocationID uuid.UUID,
	window Window,
	status BookingStatus,
	cancelRequest CancelRequest,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                id,
		bookingNumber:     bookingNumber,
		carID:             carID,
		clientID:          clientID,
		pickupLocationID:  pickupLocationID,
		dropoffLocationID: dropoffLocationID,
		window:            window,
		status:            status,
		cancelRequest:     cancelRequest,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) BookingNumber() string        { return b.bookingNumber }
func (b *Booking) CarID() uuid.UUID             { return b.carID }
func (b *Booking) ClientID() uuid.UUID          { return b.clientID }
func (b *Booking) PickupLocationID() uuid.UUID  { return b.pickupLocationID }
func (b *Booking) DropoffLocationID() uuid.UUID { return b.dropoffLocationID }
func (b *Booking) Window() Window               { return b.window }
func (b *Booking) Status() BookingStatus        { return b.status }
func (b *Booking) CancelRequest() CancelRequest { return b.cancelRequest }
func (b *Booking) Version() int64               { return b.version }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

// PendingChanges returns the audit records not yet persisted.
func (b *Booking) PendingChanges() []StatusChange { return b.changes }

// ClearPendingChanges is called by the repository once the records are stored.
func (b *Booking) ClearPendingChanges()  { b.changes = nil }

// --- Behavior ---

// AssignNumber sets the sequential booking number.
func (b *Booking) AssignNumber(number string) {
	b.bookingNumber = number
}

// RequestCancel applies a client cancel. RESERVED bookings and BOOKED
// bookings older than the free-cancel window get a pending review request
// without changing status; a newer BOOKED booking is cancelled outright, but
// only by its owner.
func (b *Booking) RequestCancel(actor uuid.UUID, now time.Time, policy Policy) (CancelOutcome, error) {
	now = now.UTC()
	switch b.status {
	case StatusReserved:
		if err := b.requestReview(actor, now); err != nil {
			return 0, err
		}
		return CancelSubmitted, nil

	case StatusBooked:
		if !policy.WithinFreeCancel(b.createdAt, now) {
			if err := b.requestReview(actor, now); err != nil {
				return 0, err
			}
			return CancelPendingReview, nil
		}
		if actor != b.clientID {
			return 0, ErrNotOwner
		}
		b.status = StatusCanceled
		b.updatedAt = now
		b.record(actor, now)
		return CancelCompleted, nil

	default:
		return 0, ErrNotCancelable
	}
}

func (b *Booking) requestReview(actor uuid.UUID, now time.Time) error {
	if !b.cancelRequest.Status.CanTransitionTo(CancelReviewPending) {
		return domain.NewInvalidStateError(string(b.cancelRequest.Status), string(CancelReviewPending))
	}
	b.cancelRequest = CancelRequest{
		RequestedAt: &now,
		Status:      CancelReviewPending,
	}
	b.updatedAt = now
	b.record(actor, now)
	return nil
}

// ChangeStatusBySupport sets an agent-settable status. Cancelling this way
// approves the cancel review, backfilling the request time when the client
// never asked.
func (b *Booking) ChangeStatusBySupport(target BookingStatus, agent uuid.UUID, now time.Time) error {
	if !target.IsSupportSettable() {
		return ErrInvalidStatus
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}

	now = now.UTC()
	b.status = target
	if target == StatusCanceled {
		req := b.cancelRequest
		if req.RequestedAt == nil {
			req.RequestedAt = &now
		}
		req.Status = CancelReviewApproved
		req.ReviewedAt = &now
		req.ReviewedBy = &agent
		b.cancelRequest = req
	}
	b.updatedAt = now
	b.record(agent, now)
	return nil
}

// RejectCancelRequest declines a pending cancel request. The booking keeps
// its status.
func (b *Booking) RejectCancelRequest(agent uuid.UUID, now time.Time) error {
	if !b.cancelRequest.IsPending() {
		return ErrNoPendingCancel
	}
	now = now.UTC()
	b.cancelRequest.Status = CancelReviewRejected
	b.cancelRequest.ReviewedAt = &now
	b.cancelRequest.ReviewedBy = &agent
	b.updatedAt = now
	b.record(agent, now)
	return nil
}

// Reschedule moves a RESERVED booking to a new window and locations. The
// minimum advance rule applies when the pickup time changes. The caller
// checks the locations against the car and the window against other bookings.
func (b *Booking) Reschedule(actor uuid.UUID, window Window, pickupLocationID, dropoffLocationID uuid.UUID, now time.Time, policy Policy) error {
	if err := b.CheckEditable(actor); err != nil {
		return err
	}
	if !window.Pickup.Before(window.Dropoff) {
		return ErrInvalidDateRange
	}
	if !window.Pickup.Equal(b.window.Pickup) {
		if err := policy.CheckPickupLead(window.Pickup, now); err != nil {
			return err
		}
	}
	if pickupLocationID == uuid.Nil || dropoffLocationID == uuid.Nil {
		return ErrMissingFields
	}

	b.window = window
	b.pickupLocationID = pickupLocationID
	b.dropoffLocationID = dropoffLocationID
	b.updatedAt = now.UTC()
	return nil
}

// CheckEditable fails unless actor owns the booking and it is RESERVED.
func (b *Booking) CheckEditable(actor uuid.UUID) error {
	if actor != b.clientID {
		return ErrNotOwner
	}
	if b.status != StatusReserved {
		return ErrNotEditable
	}
	return nil
}

// Finish closes a SERVICEPROVIDED booking after its first feedback.
func (b *Booking) Finish(now time.Time) error {
	if !b.status.CanTransitionTo(StatusServiceFinished) {
		return domain.NewInvalidStateError(string(b.status), string(StatusServiceFinished))
	}
	now = now.UTC()
	b.status = StatusServiceFinished
	b.updatedAt = now
	b.record(b.clientID, now)
	return nil
}

// CanReceiveFeedbackUpdate reports whether an existing review may be edited.
func (b *Booking) CanReceiveFeedbackUpdate() bool {
	return b.status == StatusServiceFinished
}

// IsOwnedBy reports whether userID is the booking's client.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.clientID == userID
}

// IncrementVersion bumps the version for optimistic locking. The transition
// that precedes it has already stamped updatedAt.
func (b *Booking) IncrementVersion() {
	b.version++
}

func (b *Booking) record(actor uuid.UUID, at time.Time) {
	b.changes = append(b.changes, StatusChange{
		Status:       b.status,
		CancelReview: b.cancelRequest.Status,
		ChangedBy:    actor,
		ChangedAt:    at,
	})
}
