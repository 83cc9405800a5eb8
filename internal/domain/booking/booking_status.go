package booking

import "fmt"

// BookingStatus is the primary lifecycle state of a booking.
type BookingStatus string

const (
	StatusBooked          BookingStatus = "BOOKED"
	StatusReserved        BookingStatus = "RESERVED"
	StatusServiceStarted  BookingStatus = "SERVICESTARTED"
	StatusServiceProvided BookingStatus = "SERVICEPROVIDED"
	StatusServiceFinished BookingStatus = "SERVICEFINISHED"
	StatusCanceled        BookingStatus = "CANCELED"
)

// validTransitions defines the booking state machine.
//
//	BOOKED          -> RESERVED, CANCELED      (support confirms, client or support cancels)
//	RESERVED        -> SERVICESTARTED, CANCELED (car collected, support approves a cancel)
//	SERVICESTARTED  -> SERVICEPROVIDED          (car returned)
//	SERVICEPROVIDED -> SERVICEFINISHED          (first feedback only)
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusBooked:          {StatusReserved, StatusCanceled},
	StatusReserved:        {StatusServiceStarted, StatusCanceled},
	StatusServiceStarted:  {StatusServiceProvided},
	StatusServiceProvided: {StatusServiceFinished},
	StatusServiceFinished: {},
	StatusCanceled:        {},
}

// supportSettable lists the statuses an agent may set directly.
var supportSettable = map[BookingStatus]bool{
	StatusReserved:        true,
	StatusServiceStarted:  true,
	StatusServiceProvided: true,
	StatusCanceled:        true,
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// BlocksAvailability reports whether a booking in this status occupies its car.
func (s BookingStatus) BlocksAvailability() bool {
	switch s {
	case StatusCanceled, StatusServiceProvided, StatusServiceFinished:
		return false
	}
	return s.IsValid()
}

// IsSupportSettable reports whether an agent may set this status.
func (s BookingStatus) IsSupportSettable() bool {
	return supportSettable[s]
}

// CanBeCancelled reports whether a client may ask to cancel.
func (s BookingStatus) CanBeCancelled() bool {
	return s == StatusBooked || s == StatusReserved
}

func (s BookingStatus) String() string {
	return string(s)
}

// NonBlockingStatuses returns the statuses ignored by overlap checks.
func NonBlockingStatuses() []BookingStatus {
	return []BookingStatus{StatusCanceled, StatusServiceProvided, StatusServiceFinished}
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []BookingStatus {
	return []BookingStatus{
		StatusBooked, StatusReserved, StatusServiceStarted,
		StatusServiceProvided, StatusServiceFinished, StatusCanceled,
	}
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
