package booking

import "time"

// Policy holds the time-based business rules. Deployments configure it.
type Policy struct {
	// MinAdvance is how far ahead of now a pickup must be.
	MinAdvance time.Duration
	// FreeCancelWindow is how long after creation a BOOKED booking may be
	// cancelled by its owner without review.
	FreeCancelWindow time.Duration
}

// DefaultPolicy returns the 24h advance / 12h free-cancel policy.
func DefaultPolicy() Policy {
	return Policy{
		MinAdvance:       24 * time.Hour,
		FreeCancelWindow: 12 * time.Hour,
	}
}

// CheckPickupLead fails with INVALID_PICKUP_TIME when pickup is too soon.
func (p Policy) CheckPickupLead(pickup, now time.Time) error {
	if pickup.Before(now.Add(p.MinAdvance)) {
		return ErrInvalidPickupTime
	}
	return nil
}

// WithinFreeCancel reports whether a booking created at createdAt may still
// be cancelled without review.
func (p Policy) WithinFreeCancel(createdAt, now time.Time) bool {
	return now.Sub(createdAt) <= p.FreeCancelWindow
}
