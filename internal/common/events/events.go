// Package events holds the Kafka topics, CloudEvent types and payloads the
// rental service produces and consumes.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents  = "booking.events"
	TopicHandoverEvents = "handover.events"
	TopicAuthEvents     = "auth.events"
)

// Booking event types.
const (
	BookingCreated         = "booking.created"
	BookingCancelRequested = "booking.cancel_requested"
	BookingCanceled        = "booking.canceled"
	BookingStatusChanged   = "booking.status_changed"
	BookingCancelRejected  = "booking.cancel_rejected"
	BookingRescheduled     = "booking.rescheduled"
	BookingFinished        = "booking.finished"
)

// Handover event types, emitted by the branch staff app.
const (
	HandoverCarCollected = "handover.car_collected"
	HandoverCarReturned  = "handover.car_returned"
)

// Auth event types.
const (
	AuthOTPIssued = "auth.otp_issued"
)

// BookingCreatedEvent is published after a booking is reserved.
type BookingCreatedEvent struct {
	BookingID         uuid.UUID `json:"booking_id"`
	BookingNumber     string    `json:"booking_number"`
	CarID             uuid.UUID `json:"car_id"`
	ClientID          uuid.UUID `json:"client_id"`
	PickupLocationID  uuid.UUID `json:"pickup_location_id"`
	DropoffLocationID uuid.UUID `json:"dropoff_location_id"`
	PickupAt          time.Time `json:"pickup_at"`
	DropoffAt         time.Time `json:"dropoff_at"`
	PriceCents        int64     `json:"price_cents"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// BookingStatusEvent is published on every status or cancel review change.
type BookingStatusEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ClientID      uuid.UUID `json:"client_id"`
	Status        string    `json:"status"`
	CancelReview  string    `json:"cancel_review"`
	ChangedBy     uuid.UUID `json:"changed_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingRescheduledEvent is published after an edit.
type BookingRescheduledEvent struct {
	BookingID         uuid.UUID `json:"booking_id"`
	BookingNumber     string    `json:"booking_number"`
	PickupLocationID  uuid.UUID `json:"pickup_location_id"`
	DropoffLocationID uuid.UUID `json:"dropoff_location_id"`
	PickupAt          time.Time `json:"pickup_at"`
	DropoffAt         time.Time `json:"dropoff_at"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// HandoverEvent reports a car leaving or returning to a branch.
type HandoverEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OTPIssuedEvent asks the mail service to send a sign-up code.
type OTPIssuedEvent struct {
	Email      string    `json:"email"`
	Code       string    `json:"code"`
	ExpiresAt  time.Time `json:"expires_at"`
	OccurredAt time.Time `json:"occurred_at"`
}
