package booking

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Availability is the derived state of a car for a window.
type Availability string

const (
	AvailabilityAvailable Availability = "AVAILABLE"
	AvailabilityReserved  Availability = "RESERVED"
)

// FindConflict returns the first booking of carID that blocks availability
// and overlaps w, skipping excludeID. It returns nil when the car is free.
func FindConflict(existing []*Booking, carID uuid.UUID, w Window, excludeID uuid.UUID) *Booking {
	for _, b := range existing {
		if b.carID != carID || b.id == excludeID {
			continue
		}
		if !b.status.BlocksAvailability() {
			continue
		}
		if b.window.Overlaps(w) {
			return b
		}
	}
	return nil
}

// CheckAvailability classifies a car for the requested window. Pass uuid.Nil
// as excludeID when no booking is being edited.
func CheckAvailability(existing []*Booking, carID uuid.UUID, w Window, excludeID uuid.UUID) Availability {
	if FindConflict(existing, carID, w, excludeID) != nil {
		return AvailabilityReserved
	}
	return AvailabilityAvailable
}

// NextBookingNumber returns the number after last, zero-padded to four digits.
// An empty last starts the sequence at 0001.
func NextBookingNumber(last string) (string, error) {
	if last == "" {
		return "0001", nil
	}
	n, err := strconv.Atoi(last)
	if err != nil || n < 0 {
		return "", fmt.Errorf("invalid booking number %q", last)
	}
	return fmt.Sprintf("%04d", n+1), nil
}
