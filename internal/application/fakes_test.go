package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/RentalBee/service-rental/internal/common/auth"
	"github.com/RentalBee/service-rental/internal/common/domain"
	"github.com/RentalBee/service-rental/internal/common/kafka"
	bookingDomain "github.com/RentalBee/service-rental/internal/domain/booking"
	carDomain "github.com/RentalBee/service-rental/internal/domain/car"
	notificationDomain "github.com/RentalBee/service-rental/internal/domain/notification"
	reviewDomain "github.com/RentalBee/service-rental/internal/domain/review"
	userDomain "github.com/RentalBee/service-rental/internal/domain/user"
)

// --- bookings ---

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	order    []uuid.UUID
	lastNum  string
	updates  int
	// detached makes FindByID hand out copies, so that changes only land
	// through a successful write.
	detached bool
	reviews  *fakeReviewRepo
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, bookingDomain.ErrBookingNotFound
	}
	if r.detached {
		cp := *bk
		return &cp, nil
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByClientID(_ context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var out []*bookingDomain.Booking
	for _, bk := range r.all() {
		if bk.ClientID() == clientID {
			out = append(out, bk)
		}
	}
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeBookingRepo) FindByCarID(_ context.Context, carID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var out []*bookingDomain.Booking
	for _, bk := range r.all() {
		if bk.CarID() == carID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindBlockingInRange(_ context.Context, carIDs []uuid.UUID, w bookingDomain.Window) ([]*bookingDomain.Booking, error) {
	wanted := make(map[uuid.UUID]bool)
	for _, id := range carIDs {
		wanted[id] = true
	}
	var out []*bookingDomain.Booking
	for _, bk := range r.all() {
		if wanted[bk.CarID()] && bk.Status().BlocksAvailability() && bk.Window().Overlaps(w) {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var out []*bookingDomain.Booking
	for _, bk := range r.all() {
		if filter.Status == nil || bk.Status() == *filter.Status {
			out = append(out, bk)
		}
	}
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, bk := range r.all() {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) Reserve(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := make([]*bookingDomain.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		existing = append(existing, b)
	}
	if bookingDomain.FindConflict(existing, bk.CarID(), bk.Window(), bk.ID()) != nil {
		return bookingDomain.ErrOverlap
	}
	next, err := bookingDomain.NextBookingNumber(r.lastNum)
	if err != nil {
		return err
	}
	r.lastNum = next
	bk.AssignNumber(next)
	bk.ClearPendingChanges()
	r.bookings[bk.ID()] = bk
	r.order = append(r.order, bk.ID())
	return nil
}

func (r *fakeBookingRepo) Reschedule(ctx context.Context, bk *bookingDomain.Booking) error {
	return r.Update(ctx, bk)
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[bk.ID()]; !ok {
		return bookingDomain.ErrBookingNotFound
	}
	bk.ClearPendingChanges()
	r.bookings[bk.ID()] = bk
	r.updates++
	return nil
}

func (r *fakeBookingRepo) FinishWithReview(ctx context.Context, bk *bookingDomain.Booking, rv *reviewDomain.Review) error {
	if err := r.reviews.Save(ctx, rv); err != nil {
		return err
	}
	return r.Update(ctx, bk)
}

// all returns bookings newest first.
func (r *fakeBookingRepo) all() []*bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*bookingDomain.Booking, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.bookings[r.order[i]])
	}
	return out
}

// put stores a booking as-is, bypassing Reserve checks.
func (r *fakeBookingRepo) put(bk *bookingDomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = bk
	r.order = append(r.order, bk.ID())
}

func paginate[T any](items []T, page, limit int) []T {
	start := domain.Offset(page, limit)
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- cars and locations ---

type fakeCarRepo struct {
	cars    map[uuid.UUID]*carDomain.Car
	ratings map[uuid.UUID]float64
	lists   int
}

func newFakeCarRepo(cars ...*carDomain.Car) *fakeCarRepo {
	r := &fakeCarRepo{cars: make(map[uuid.UUID]*carDomain.Car), ratings: make(map[uuid.UUID]float64)}
	for _, c := range cars {
		r.cars[c.ID()] = c
	}
	return r
}

func (r *fakeCarRepo) FindByID(_ context.Context, id uuid.UUID) (*carDomain.Car, error) {
	c, ok := r.cars[id]
	if !ok {
		return nil, bookingDomain.ErrCarNotFound
	}
	return c, nil
}

func (r *fakeCarRepo) List(_ context.Context, filter carDomain.Filter, page, limit int) ([]*carDomain.Car, int64, error) {
	var out []*carDomain.Car
	for _, c := range r.sorted() {
		if filter.Category != "" && c.Category() != filter.Category {
			continue
		}
		out = append(out, c)
	}
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeCarRepo) ListByRating(_ context.Context, limit int) ([]*carDomain.Car, error) {
	r.lists++
	cars := r.sorted()
	sort.SliceStable(cars, func(i, j int) bool { return cars[i].CarRating() > cars[j].CarRating() })
	if len(cars) > limit {
		cars = cars[:limit]
	}
	return cars, nil
}

func (r *fakeCarRepo) Save(_ context.Context, c *carDomain.Car) error {
	r.cars[c.ID()] = c
	return nil
}

func (r *fakeCarRepo) UpdateRating(_ context.Context, id uuid.UUID, rating float64) error {
	if _, ok := r.cars[id]; !ok {
		return bookingDomain.ErrCarNotFound
	}
	r.ratings[id] = rating
	return nil
}

func (r *fakeCarRepo) sorted() []*carDomain.Car {
	cars := make([]*carDomain.Car, 0, len(r.cars))
	for _, c := range r.cars {
		cars = append(cars, c)
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].Model() < cars[j].Model() })
	return cars
}

type fakeLocationRepo struct {
	locations []carDomain.Location
	finds     int
}

func (r *fakeLocationRepo) FindAll(_ context.Context) ([]carDomain.Location, error) {
	r.finds++
	return append([]carDomain.Location(nil), r.locations...), nil
}

func (r *fakeLocationRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]carDomain.Location, error) {
	var out []carDomain.Location
	for _, l := range r.locations {
		for _, id := range ids {
			if l.ID == id {
				out = append(out, l)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeLocationRepo) Save(_ context.Context, l *carDomain.Location) error {
	r.locations = append(r.locations, *l)
	return nil
}

// --- users ---

type fakeUserRepo struct {
	users   map[uuid.UUID]*userDomain.User
	updates int
}

func newFakeUserRepo(users ...*userDomain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*userDomain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*userDomain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.NewNotFoundError("User", email)
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*userDomain.User, error) {
	var out []*userDomain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Save(_ context.Context, u *userDomain.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *userDomain.User) error {
	r.users[u.ID] = u
	r.updates++
	return nil
}

type fakeOTPRepo struct {
	otps map[string]*userDomain.OTP
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{otps: make(map[string]*userDomain.OTP)}
}

func (r *fakeOTPRepo) Upsert(_ context.Context, otp *userDomain.OTP) error {
	r.otps[otp.Email] = otp
	return nil
}

func (r *fakeOTPRepo) FindByEmail(_ context.Context, email string) (*userDomain.OTP, error) {
	otp, ok := r.otps[email]
	if !ok {
		return nil, domain.NewNotFoundError("OTP", email)
	}
	copied := *otp
	return &copied, nil
}

func (r *fakeOTPRepo) UpdateAttempts(_ context.Context, email string, attempts int) error {
	if otp, ok := r.otps[email]; ok {
		otp.Attempts = attempts
	}
	return nil
}

func (r *fakeOTPRepo) Delete(_ context.Context, email string) error {
	delete(r.otps, email)
	return nil
}

// --- reviews ---

type fakeReviewRepo struct {
	reviews []*reviewDomain.Review
	saveErr error
}

func (r *fakeReviewRepo) FindByID(_ context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	for _, rv := range r.reviews {
		if rv.ID() == id {
			return rv, nil
		}
	}
	return nil, domain.NewNotFoundError("Review", id.String())
}

func (r *fakeReviewRepo) FindOne(_ context.Context, bookingID, carID, clientID uuid.UUID) (*reviewDomain.Review, error) {
	for _, rv := range r.reviews {
		if rv.BookingID() == bookingID && rv.CarID() == carID && rv.ClientID() == clientID {
			return rv, nil
		}
	}
	return nil, nil
}

func (r *fakeReviewRepo) FindByCarID(_ context.Context, carID uuid.UUID, page, limit int) ([]*reviewDomain.Review, int64, error) {
	var out []*reviewDomain.Review
	for _, rv := range r.reviews {
		if rv.CarID() == carID {
			out = append(out, rv)
		}
	}
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeReviewRepo) RatingsByCarID(_ context.Context, carID uuid.UUID) ([]int, error) {
	var out []int
	for _, rv := range r.reviews {
		if rv.CarID() == carID {
			out = append(out, rv.Rating())
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) Recent(_ context.Context, limit int) ([]*reviewDomain.Review, error) {
	var out []*reviewDomain.Review
	for i := len(r.reviews) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.reviews[i])
	}
	return out, nil
}

func (r *fakeReviewRepo) Save(_ context.Context, rv *reviewDomain.Review) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.reviews = append(r.reviews, rv)
	return nil
}

func (r *fakeReviewRepo) Update(_ context.Context, _ *reviewDomain.Review) error {
	return nil
}

// --- side effects ---

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*notificationDomain.Notification
}

func (n *recordingNotifier) Dispatch(msg *notificationDomain.Notification) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return true
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, msg := range n.sent {
		out[i] = msg.Title
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	topics []string
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// --- fixtures ---

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testLocation(name string) carDomain.Location {
	return carDomain.Location{ID: uuid.New(), Name: name, Address: name + " Street 1"}
}

func testCar(model string, locations ...carDomain.Location) *carDomain.Car {
	ids := make([]uuid.UUID, len(locations))
	for i, l := range locations {
		ids[i] = l.ID
	}
	spec := carDomain.Specification{
		GearBoxType:       carDomain.GearBoxAutomatic,
		FuelType:          carDomain.FuelPetrol,
		PassengerCapacity: 5,
	}
	return carDomain.Reconstruct(uuid.New(), model, carDomain.CategoryEconomy, ids, []string{"https://img/" + model + ".png"},
		5000, spec, 4, 0, 1, testNow, testNow)
}

func verifiedClient() *userDomain.User {
	u, _ := userDomain.NewClient(uuid.NewString()+"@example.com", "Jane", "Doe", "hash")
	u.IdentityDocument = userDomain.Document{URL: "https://files/id.png", Status: userDomain.Verified}
	u.LicenseDocument = userDomain.Document{URL: "https://files/dl.png", Status: userDomain.Verified}
	return u
}

func testJWT() *auth.JWTManager {
	return auth.NewJWTManager("test-secret", time.Hour)
}

func hashOf(s string) string {
	h, _ := bcrypt.GenerateFromPassword([]byte(s), bcrypt.MinCost)
	return string(h)
}

func nopLogger() *zap.Logger { return zap.NewNop() }
