package booking

import (
	"time"

	"github.com/jinzhu/now"
)

// DateTimeLayout is the minute-precision format used by the web client.
const DateTimeLayout = "2006-01-02 15:04"

// Window is a half-open rental period [Pickup, Dropoff).
type Window struct {
	Pickup  time.Time `json:"pickupDateTime"`
	Dropoff time.Time `json:"dropoffDateTime"`
}

// NewWindow validates that pickup is strictly before dropoff.
func NewWindow(pickup, dropoff time.Time) (Window, error) {
	if !pickup.Before(dropoff) {
		return Window{}, ErrInvalidDateRange
	}
	return Window{Pickup: pickup.UTC(), Dropoff: dropoff.UTC()}, nil
}

// Overlaps reports whether the two windows share an instant. Windows that
// only touch at a boundary do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Pickup.Before(other.Dropoff) && w.Dropoff.After(other.Pickup)
}

// Duration returns the rental length.
func (w Window) Duration() time.Duration {
	return w.Dropoff.Sub(w.Pickup)
}

// Days returns every calendar day (UTC) the window touches, as midnight times.
// A window ending exactly at midnight does not touch that day.
func (w Window) Days() []time.Time {
	var days []time.Time
	last := w.Dropoff.Add(-time.Nanosecond)
	for day := now.With(w.Pickup).BeginningOfDay(); !day.After(last); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

// BillableDays returns the number of started 24h periods, at least one.
func (w Window) BillableDays() int64 {
	d := w.Duration()
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// DayWindow returns the calendar day containing t as a window.
func DayWindow(t time.Time) Window {
	n := now.With(t.UTC())
	return Window{Pickup: n.BeginningOfDay(), Dropoff: n.EndOfDay()}
}

var dateTimeLayouts = []string{DateTimeLayout, time.RFC3339, "2006-01-02T15:04"}

// ParseDateTime parses a client date-time as UTC. It fails with
// INVALID_DATETIME for any other format.
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDateTime
}
