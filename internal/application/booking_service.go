package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RentalBee/service-rental/internal/common/domain"
	"github.com/RentalBee/service-rental/internal/common/events"
	"github.com/RentalBee/service-rental/internal/common/kafka"
	bookingDomain "github.com/RentalBee/service-rental/internal/domain/booking"
	carDomain "github.com/RentalBee/service-rental/internal/domain/car"
	notificationDomain "github.com/RentalBee/service-rental/internal/domain/notification"
	userDomain "github.com/RentalBee/service-rental/internal/domain/user"
)

// ServiceName is the CloudEvent source of everything this service emits.
const ServiceName = "service-rental"

// Notifier hands a notification to background delivery. It never blocks.
type Notifier interface {
	Dispatch(n *notificationDomain.Notification) bool
}

// CreateBookingRequest holds the data needed to create a new booking.
// Fields are strings so that missing values are reported as MISSING_FIELDS.
type CreateBookingRequest struct {
	CarID             string `json:"carId"`
	ClientID          string `json:"clientId"`
	PickupDateTime    string `json:"pickupDateTime"`
	DropoffDateTime   string `json:"dropOffDateTime"`
	PickupLocationID  string `json:"pickupLocationId"`
	DropoffLocationID string `json:"dropOffLocationId"`
}

// EditBookingRequest holds the optional changes of an edit.
type EditBookingRequest struct {
	UserID            string  `json:"userId"`
	PickupDateTime    *string `json:"pickupDateTime" binding:"omitempty,rentaltime"`
	DropoffDateTime   *string `json:"dropoffDateTime" binding:"omitempty,rentaltime"`
	PickupLocationID  *string `json:"pickupLocationId"`
	DropoffLocationID *string `json:"dropoffLocationId"`
}

// ChangeStatusRequest is a support agent's decision on a booking.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                uuid.UUID                   `json:"bookingId"`
	BookingNumber     string                      `json:"bookingNumber"`
	CarID             uuid.UUID                   `json:"carId"`
	ClientID          uuid.UUID                   `json:"clientId"`
	PickupLocationID  uuid.UUID                   `json:"pickupLocationId"`
	DropoffLocationID uuid.UUID                   `json:"dropoffLocationId"`
	PickupDateTime    string                      `json:"pickupDateTime"`
	DropoffDateTime   string                      `json:"dropoffDateTime"`
	Status            string                      `json:"status"`
	CancelRequest     bookingDomain.CancelRequest `json:"cancelRequest"`
	TotalPrice        float64                     `json:"totalPrice,omitempty"`
	CarModel          string                      `json:"carModel,omitempty"`
	CarImage          string                      `json:"carImage,omitempty"`
	PickupLocation    string                      `json:"pickupLocation,omitempty"`
	DropoffLocation   string                      `json:"dropoffLocation,omitempty"`
	CreatedAt         time.Time                   `json:"createdAt"`
	UpdatedAt         time.Time                   `json:"updatedAt"`
}

// BookingStatsDTO holds booking statistics for the support dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"totalBookings"`
	ByStatus      map[string]int64 `json:"byStatus"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	cars      carDomain.CarRepository
	locations carDomain.LocationRepository
	users     userDomain.UserRepository
	pricing   bookingDomain.PricingStrategy
	policy    bookingDomain.Policy
	notifier  Notifier
	producer  kafka.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	cars carDomain.CarRepository,
	locations carDomain.LocationRepository,
	users userDomain.UserRepository,
	pricing bookingDomain.PricingStrategy,
	policy bookingDomain.Policy,
	notifier Notifier,
	producer kafka.Publisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		cars:      cars,
		locations: locations,
		users:     users,
		pricing:   pricing,
		policy:    policy,
		notifier:  notifier,
		producer:  producer,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateBooking validates a reservation request in a fixed order (the first
// failure wins) and reserves the car.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, error) {
	if blank(req.CarID, req.ClientID, req.PickupDateTime, req.DropoffDateTime, req.PickupLocationID, req.DropoffLocationID) {
		return nil, bookingDomain.ErrMissingFields
	}
	ids, err := parseIDs(req.CarID, req.ClientID, req.PickupLocationID, req.DropoffLocationID)
	if err != nil {
		return nil, err
	}
	carID, clientID, pickupLocID, dropoffLocID := ids[0], ids[1], ids[2], ids[3]
	pickup, err := bookingDomain.ParseDateTime(req.PickupDateTime)
	if err != nil {
		return nil, err
	}
	dropoff, err := bookingDomain.ParseDateTime(req.DropoffDateTime)
	if err != nil {
		return nil, err
	}

	if err := s.requireVerified(ctx, clientID); err != nil {
		return nil, err
	}

	window, err := bookingDomain.NewWindow(pickup, dropoff)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.policy.CheckPickupLead(window.Pickup, now); err != nil {
		return nil, err
	}

	car, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	if !car.AllowsLocations(pickupLocID, dropoffLocID) {
		return nil, bookingDomain.ErrInvalidLocation
	}

	existing, err := s.repo.FindBlockingInRange(ctx, []uuid.UUID{carID}, window)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if bookingDomain.FindConflict(existing, carID, window, uuid.Nil) != nil {
		return nil, bookingDomain.ErrOverlap
	}

	bk, err := bookingDomain.NewBooking(carID, clientID, pickupLocID, dropoffLocID, window, now)
	if err != nil {
		return nil, err
	}

	// Reserve re-checks the overlap atomically; a concurrent request can win
	// between the check above and this call.
	if err := s.repo.Reserve(ctx, bk); err != nil {
		return nil, err
	}

	priceCents := s.quote(bk, car)
	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("car_id", carID.String()),
	)

	s.notify(clientID, "Reservation request received",
		fmt.Sprintf("Your booking #%s for %s is received and waiting for confirmation.", bk.BookingNumber(), car.Model()),
		notificationDomain.TypeSuccess)

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), events.BookingCreatedEvent{
		BookingID:         bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		CarID:             carID,
		ClientID:          clientID,
		PickupLocationID:  pickupLocID,
		DropoffLocationID: dropoffLocID,
		PickupAt:          window.Pickup,
		DropoffAt:         window.Dropoff,
		PriceCents:        priceCents,
		OccurredAt:        now,
	})

	result := toBookingDTO(bk)
	result.TotalPrice = centsToAmount(priceCents)
	result.CarModel = car.Model()
	result.CarImage = car.PrimaryImage()
	return &result, nil
}

// requireVerified re-derives the client's verification from the stored
// documents, persisting a correction when the stored flags were stale.
func (s *BookingService) requireVerified(ctx context.Context, clientID uuid.UUID) error {
	u, err := s.users.FindByID(ctx, clientID)
	if err != nil {
		return err
	}
	if u.ReconcileVerification() {
		if err := s.users.Update(ctx, u); err != nil {
			return fmt.Errorf("failed to persist verification status: %w", err)
		}
		s.logger.Info("user verification corrected", zap.String("user_id", clientID.String()))
	}
	if !u.IsVerified() {
		return bookingDomain.ErrUnverifiedDocument
	}
	return nil
}

// CancelBooking applies a cancel request and returns the user-facing
// message. Only the immediate cancel of a fresh BOOKED booking is limited to
// its owner; every other request is recorded for support review.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID) (string, *BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return "", nil, err
	}

	now := s.now().UTC()
	outcome, err := bk.RequestCancel(actorID, now, s.policy)
	if err != nil {
		return "", nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return "", nil, err
	}

	var message, eventType string
	switch outcome {
	case bookingDomain.CancelSubmitted:
		message = "Cancel request submitted successfully for RESERVED booking"
		eventType = events.BookingCancelRequested
		s.notify(bk.ClientID(), "Cancel Request Submitted",
			fmt.Sprintf("Your cancel request for booking #%s was submitted and will be reviewed by our support team.", bk.BookingNumber()),
			notificationDomain.TypeInfo)
	case bookingDomain.CancelPendingReview:
		message = "Cancel request recorded (cannot auto-cancel as it's over 12 hours old)"
		eventType = events.BookingCancelRequested
		s.notify(bk.ClientID(), "Cancel Request Pending Review",
			fmt.Sprintf("Booking #%s is older than 12 hours, so your cancel request needs support approval.", bk.BookingNumber()),
			notificationDomain.TypeWarning)
	default:
		message = "Booking canceled successfully"
		eventType = events.BookingCanceled
		s.notify(bk.ClientID(), "Booking Canceled",
			fmt.Sprintf("Your booking #%s has been canceled.", bk.BookingNumber()),
			notificationDomain.TypeSuccess)
	}

	s.publishStatus(ctx, eventType, bk, actorID, now)

	result := toBookingDTO(bk)
	return message, &result, nil
}

// ChangeStatusBySupport sets an agent-settable status on a booking.
func (s *BookingService) ChangeStatusBySupport(ctx context.Context, bookingID uuid.UUID, status string, agentID uuid.UUID) (*BookingDTO, error) {
	target, err := bookingDomain.ParseBookingStatus(strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return nil, bookingDomain.ErrInvalidStatus
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := bk.ChangeStatusBySupport(target, agentID, now); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("status", string(target)),
		zap.String("agent_id", agentID.String()),
	)

	title, message, typ := statusNotification(bk)
	s.notify(bk.ClientID(), title, message, typ)

	eventType := events.BookingStatusChanged
	if target == bookingDomain.StatusCanceled {
		eventType = events.BookingCanceled
	}
	s.publishStatus(ctx, eventType, bk, agentID, now)

	result := toBookingDTO(bk)
	return &result, nil
}

// RejectCancelRequest declines a pending client cancel request.
func (s *BookingService) RejectCancelRequest(ctx context.Context, bookingID, agentID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := bk.RejectCancelRequest(agentID, now); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.notify(bk.ClientID(), "Cancel Request Rejected",
		fmt.Sprintf("Your cancel request for booking #%s was rejected. The booking remains active.", bk.BookingNumber()),
		notificationDomain.TypeError)
	s.publishStatus(ctx, events.BookingCancelRejected, bk, agentID, now)

	result := toBookingDTO(bk)
	return &result, nil
}

// ApplyHandover moves a booking along when the branch reports the car
// collected or returned. It is the support status change made by the system.
func (s *BookingService) ApplyHandover(ctx context.Context, bookingID uuid.UUID, target bookingDomain.BookingStatus) error {
	_, err := s.ChangeStatusBySupport(ctx, bookingID, string(target), uuid.Nil)
	return err
}

// EditBooking moves a RESERVED booking to a new window and/or locations.
// Missing fields keep their current values.
func (s *BookingService) EditBooking(ctx context.Context, bookingID, actorID uuid.UUID, req EditBookingRequest) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := bk.CheckEditable(actorID); err != nil {
		return nil, err
	}

	window := bk.Window()
	pickup, dropoff := window.Pickup, window.Dropoff
	if req.PickupDateTime != nil {
		if pickup, err = bookingDomain.ParseDateTime(*req.PickupDateTime); err != nil {
			return nil, err
		}
	}
	if req.DropoffDateTime != nil {
		if dropoff, err = bookingDomain.ParseDateTime(*req.DropoffDateTime); err != nil {
			return nil, err
		}
	}
	pickupLocID, err := optionalID(req.PickupLocationID, bk.PickupLocationID())
	if err != nil {
		return nil, err
	}
	dropoffLocID, err := optionalID(req.DropoffLocationID, bk.DropoffLocationID())
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	newWindow := bookingDomain.Window{Pickup: pickup.UTC(), Dropoff: dropoff.UTC()}
	if err := bk.Reschedule(actorID, newWindow, pickupLocID, dropoffLocID, now, s.policy); err != nil {
		return nil, err
	}

	car, err := s.cars.FindByID(ctx, bk.CarID())
	if err != nil {
		return nil, err
	}
	if !car.AllowsLocations(pickupLocID, dropoffLocID) {
		return nil, bookingDomain.ErrInvalidLocation
	}

	existing, err := s.repo.FindBlockingInRange(ctx, []uuid.UUID{bk.CarID()}, newWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if bookingDomain.FindConflict(existing, bk.CarID(), newWindow, bk.ID()) != nil {
		return nil, bookingDomain.ErrOverlap
	}

	bk.IncrementVersion()
	if err := s.repo.Reschedule(ctx, bk); err != nil {
		return nil, err
	}

	s.notify(bk.ClientID(), "Booking Updated",
		fmt.Sprintf("Your booking #%s has been successfully updated.", bk.BookingNumber()),
		notificationDomain.TypeSuccess)
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRescheduled, bk.ID().String(), events.BookingRescheduledEvent{
		BookingID:         bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		PickupLocationID:  pickupLocID,
		DropoffLocationID: dropoffLocID,
		PickupAt:          newWindow.Pickup,
		DropoffAt:         newWindow.Dropoff,
		OccurredAt:        now,
	})

	result := toBookingDTO(bk)
	result.TotalPrice = centsToAmount(s.quote(bk, car))
	result.CarModel = car.Model()
	result.CarImage = car.PrimaryImage()
	return &result, nil
}

// GetBooking returns booking details to its client or to staff.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID, isStaff bool) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isStaff && !bk.IsOwnedBy(requesterID) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	dtos := s.enrich(ctx, []*bookingDomain.Booking{bk})
	return &dtos[0], nil
}

// GetClientBookings retrieves paginated bookings for a specific client.
func (s *BookingService) GetClientBookings(ctx context.Context, clientID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByClientID(ctx, clientID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(s.enrich(ctx, bookings), total, page, limit)
	return &result, nil
}

// --- Support methods ---

// ListAllBookings returns a paginated list of all bookings (support).
func (s *BookingService) ListAllBookings(ctx context.Context, status string, page, limit int) ([]BookingDTO, int64, error) {
	var filter bookingDomain.ListFilter
	if status != "" {
		st, err := bookingDomain.ParseBookingStatus(strings.ToUpper(status))
		if err != nil {
			return nil, 0, domain.NewCodedValidationError(bookingDomain.CodeInvalidStatus, err.Error())
		}
		filter.Status = &st
	}

	bookings, total, err := s.repo.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return s.enrich(ctx, bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (support).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// enrich adds car and location labels. Lookups that fail leave the labels
// empty rather than failing the listing.
func (s *BookingService) enrich(ctx context.Context, bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	if len(bookings) == 0 {
		return dtos
	}

	cars := make(map[uuid.UUID]*carDomain.Car)
	locationSet := make(map[uuid.UUID]struct{})
	for _, bk := range bookings {
		locationSet[bk.PickupLocationID()] = struct{}{}
		locationSet[bk.DropoffLocationID()] = struct{}{}
		if _, seen := cars[bk.CarID()]; seen {
			continue
		}
		car, err := s.cars.FindByID(ctx, bk.CarID())
		if err != nil {
			s.logger.Warn("failed to load booking car", zap.String("car_id", bk.CarID().String()), zap.Error(err))
		}
		cars[bk.CarID()] = car
	}

	locationIDs := make([]uuid.UUID, 0, len(locationSet))
	for id := range locationSet {
		locationIDs = append(locationIDs, id)
	}
	labels := make(map[uuid.UUID]string)
	locations, err := s.locations.FindByIDs(ctx, locationIDs)
	if err != nil {
		s.logger.Warn("failed to load booking locations", zap.Error(err))
	}
	for _, l := range locations {
		labels[l.ID] = l.Label()
	}

	for i, bk := range bookings {
		dto := toBookingDTO(bk)
		if car := cars[bk.CarID()]; car != nil {
			dto.CarModel = car.Model()
			dto.CarImage = car.PrimaryImage()
			dto.TotalPrice = centsToAmount(s.quote(bk, car))
		}
		dto.PickupLocation = labels[bk.PickupLocationID()]
		dto.DropoffLocation = labels[bk.DropoffLocationID()]
		dtos[i] = dto
	}
	return dtos
}

func (s *BookingService) quote(bk *bookingDomain.Booking, car *carDomain.Car) int64 {
	price, err := s.pricing.Calculate(bookingDomain.PricingParams{
		Window:           bk.Window(),
		PricePerDayCents: car.PricePerDayCents(),
		OneWay:           bk.PickupLocationID() != bk.DropoffLocationID(),
	})
	if err != nil {
		s.logger.Warn("failed to price booking", zap.String("booking_id", bk.ID().String()), zap.Error(err))
		return 0
	}
	return price
}

func statusNotification(bk *bookingDomain.Booking) (string, string, notificationDomain.Type) {
	number := bk.BookingNumber()
	switch bk.Status() {
	case bookingDomain.StatusReserved:
		return "Booking Confirmed", fmt.Sprintf("Your booking #%s has been confirmed.", number), notificationDomain.TypeSuccess
	case bookingDomain.StatusServiceStarted:
		return "Rental Started", fmt.Sprintf("Enjoy your trip! Rental #%s has started.", number), notificationDomain.TypeInfo
	case bookingDomain.StatusServiceProvided:
		return "Rental Completed", fmt.Sprintf("Rental #%s is complete. Please share your feedback.", number), notificationDomain.TypeInfo
	case bookingDomain.StatusCanceled:
		return "Booking Canceled", fmt.Sprintf("Your booking #%s has been canceled.", number), notificationDomain.TypeWarning
	}
	return "Booking Updated", fmt.Sprintf("Booking #%s is now %s.", number, bk.Status()), notificationDomain.TypeInfo
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	w := bk.Window()
	return BookingDTO{
		ID:                bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		CarID:             bk.CarID(),
		ClientID:          bk.ClientID(),
		PickupLocationID:  bk.PickupLocationID(),
		DropoffLocationID: bk.DropoffLocationID(),
		PickupDateTime:    w.Pickup.Format(bookingDomain.DateTimeLayout),
		DropoffDateTime:   w.Dropoff.Format(bookingDomain.DateTimeLayout),
		Status:            string(bk.Status()),
		CancelRequest:     bk.CancelRequest(),
		CreatedAt:         bk.CreatedAt(),
		UpdatedAt:         bk.UpdatedAt(),
	}
}

func (s *BookingService) notify(userID uuid.UUID, title, message string, typ notificationDomain.Type) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(notificationDomain.New(userID, title, message, typ))
}

func (s *BookingService) publishStatus(ctx context.Context, eventType string, bk *bookingDomain.Booking, actor uuid.UUID, now time.Time) {
	s.publishEvent(ctx, events.TopicBookingEvents, eventType, bk.ID().String(), events.BookingStatusEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ClientID:      bk.ClientID(),
		Status:        string(bk.Status()),
		CancelReview:  string(bk.CancelRequest().Status),
		ChangedBy:     actor,
		OccurredAt:    now,
	})
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	publishEvent(ctx, s.producer, s.logger, topic, eventType, key, data)
}
