package booking

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWindow_Overlaps(t *testing.T) {
	existing := Window{Pickup: at("2024-06-10T10:00:00Z"), Dropoff: at("2024-06-12T10:00:00Z")}

	tests := []struct {
		name  string
		other Window
		want  bool
	}{
		{"inside tail", Window{at("2024-06-11T00:00:00Z"), at("2024-06-13T00:00:00Z")}, true},
		{"touching end", Window{at("2024-06-12T10:00:00Z"), at("2024-06-14T00:00:00Z")}, false},
		{"touching start", Window{at("2024-06-09T00:00:00Z"), at("2024-06-10T10:00:00Z")}, false},
		{"covering", Window{at("2024-06-01T00:00:00Z"), at("2024-06-30T00:00:00Z")}, true},
		{"contained", Window{at("2024-06-10T12:00:00Z"), at("2024-06-10T13:00:00Z")}, true},
		{"before", Window{at("2024-06-01T00:00:00Z"), at("2024-06-02T00:00:00Z")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, existing.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(existing))
		})
	}
}

func TestNewWindow_InvalidRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		pickup := baseTime.Add(time.Duration(rng.Int63n(int64(90 * 24 * time.Hour))))
		dropoff := pickup.Add(-time.Duration(rng.Int63n(int64(48 * time.Hour))))
		_, err := NewWindow(pickup, dropoff)
		require.ErrorIs(t, err, ErrInvalidDateRange, "pickup=%s dropoff=%s", pickup, dropoff)
	}
}

func TestWindow_Days(t *testing.T) {
	w := Window{Pickup: at("2024-06-10T22:00:00Z"), Dropoff: at("2024-06-12T00:00:00Z")}
	days := w.Days()
	require.Len(t, days, 2)
	assert.Equal(t, "2024-06-10", days[0].Format("2006-01-02"))
	assert.Equal(t, "2024-06-11", days[1].Format("2006-01-02"))

	w = Window{Pickup: at("2024-06-10T09:00:00Z"), Dropoff: at("2024-06-10T18:00:00Z")}
	assert.Len(t, w.Days(), 1)
}

func TestWindow_BillableDays(t *testing.T) {
	assert.Equal(t, int64(1), Window{baseTime, baseTime.Add(3 * time.Hour)}.BillableDays())
	assert.Equal(t, int64(2), Window{baseTime, baseTime.Add(48 * time.Hour)}.BillableDays())
	assert.Equal(t, int64(3), Window{baseTime, baseTime.Add(49 * time.Hour)}.BillableDays())
}

func TestCheckAvailability(t *testing.T) {
	carX := uuid.New()
	existing := ReconstructBooking(uuid.New(), "0001", carX, uuid.New(), uuid.New(), uuid.New(),
		Window{at("2024-06-10T10:00:00Z"), at("2024-06-12T10:00:00Z")},
		StatusBooked, NoCancelRequest(), 1, baseTime, baseTime)
	all := []*Booking{existing}

	overlapping := Window{at("2024-06-11T00:00:00Z"), at("2024-06-13T00:00:00Z")}
	touching := Window{at("2024-06-12T10:00:00Z"), at("2024-06-14T00:00:00Z")}

	assert.Equal(t, AvailabilityReserved, CheckAvailability(all, carX, overlapping, uuid.Nil))
	assert.Equal(t, AvailabilityAvailable, CheckAvailability(all, carX, touching, uuid.Nil))
	assert.Equal(t, AvailabilityAvailable, CheckAvailability(all, uuid.New(), overlapping, uuid.Nil))
	assert.Equal(t, AvailabilityAvailable, CheckAvailability(all, carX, overlapping, existing.ID()))

	for _, status := range NonBlockingStatuses() {
		existing.status = status
		assert.Equal(t, AvailabilityAvailable, CheckAvailability(all, carX, overlapping, uuid.Nil), status)
	}
}

func TestNextBookingNumber(t *testing.T) {
	n, err := NextBookingNumber("")
	require.NoError(t, err)
	assert.Equal(t, "0001", n)

	seq := []string{}
	last := ""
	for i := 0; i < 3; i++ {
		last, err = NextBookingNumber(last)
		require.NoError(t, err)
		seq = append(seq, last)
	}
	assert.Equal(t, []string{"0001", "0002", "0003"}, seq)

	n, err = NextBookingNumber("9999")
	require.NoError(t, err)
	assert.Equal(t, "10000", n)

	_, err = NextBookingNumber("BK-12")
	assert.Error(t, err)
}

// Any sequence of creates, edits, cancels and support changes that goes
// through the availability check leaves blocking bookings pairwise disjoint.
func TestNonOverlapInvariant_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cars := []uuid.UUID{uuid.New(), uuid.New()}
	policy := DefaultPolicy()
	now := baseTime

	randomWindow := func() Window {
		start := now.Add(policy.MinAdvance).Add(time.Duration(rng.Intn(20*24)) * time.Hour)
		return Window{Pickup: start, Dropoff: start.Add(time.Duration(1+rng.Intn(96)) * time.Hour)}
	}

	var bookings []*Booking
	for step := 0; step < 2000; step++ {
		switch rng.Intn(4) {
		case 0, 1:
			car := cars[rng.Intn(len(cars))]
			w := randomWindow()
			if CheckAvailability(bookings, car, w, uuid.Nil) == AvailabilityReserved {
				continue
			}
			b, err := NewBooking(car, uuid.New(), uuid.New(), uuid.New(), w, now)
			require.NoError(t, err)
			bookings = append(bookings, b)
		case 2:
			if len(bookings) == 0 {
				continue
			}
			b := bookings[rng.Intn(len(bookings))]
			w := randomWindow()
			if CheckAvailability(bookings, b.CarID(), w, b.ID()) == AvailabilityReserved {
				continue
			}
			_ = b.Reschedule(b.ClientID(), w, b.PickupLocationID(), b.DropoffLocationID(), now, policy)
		case 3:
			if len(bookings) == 0 {
				continue
			}
			b := bookings[rng.Intn(len(bookings))]
			targets := []BookingStatus{StatusReserved, StatusServiceStarted, StatusServiceProvided, StatusCanceled}
			_ = b.ChangeStatusBySupport(targets[rng.Intn(len(targets))], uuid.New(), now)
			_, _ = b.RequestCancel(b.ClientID(), now, policy)
		}
	}

	for i, a := range bookings {
		for _, b := range bookings[i+1:] {
			if a.CarID() != b.CarID() || !a.Status().BlocksAvailability() || !b.Status().BlocksAvailability() {
				continue
			}
			require.False(t, a.Window().Overlaps(b.Window()), "bookings %s and %s overlap", a.ID(), b.ID())
		}
	}
}

func TestParseDateTime(t *testing.T) {
	want := time.Date(2024, 6, 10, 10, 30, 0, 0, time.UTC)
	for _, in := range []string{"2024-06-10 10:30", "2024-06-10T10:30:00Z", "2024-06-10T12:30:00+02:00", "2024-06-10T10:30"} {
		got, err := ParseDateTime(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := ParseDateTime("10/06/2024")
	assert.ErrorIs(t, err, ErrInvalidDateTime)
}
