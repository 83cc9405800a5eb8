package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RentalBee/service-rental/internal/cache"
	"github.com/RentalBee/service-rental/internal/common/domain"
	bookingDomain "github.com/RentalBee/service-rental/internal/domain/booking"
	carDomain "github.com/RentalBee/service-rental/internal/domain/car"
	reviewDomain "github.com/RentalBee/service-rental/internal/domain/review"
	userDomain "github.com/RentalBee/service-rental/internal/domain/user"
)

// PopularCarsLimit is the number of cars on the popular list.
const PopularCarsLimit = 4

// Cache is the optional read-through cache. Every failure behaves as a miss.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{})
	Delete(ctx context.Context, keys ...string)
}

// ListCarsQuery holds the car list filters as received from the query string.
type ListCarsQuery struct {
	PickupLocationID  string  `form:"pickupLocationId"`
	DropoffLocationID string  `form:"dropOffLocationId"`
	PickupDateTime    string  `form:"pickupDateTime"`
	DropoffDateTime   string  `form:"dropOffDateTime"`
	Category          string  `form:"category"`
	GearBoxType       string  `form:"gearBoxType"`
	FuelType          string  `form:"fuelType"`
	MinPrice          float64 `form:"minPrice"`
	MaxPrice          float64 `form:"maxPrice"`
	Page              int     `form:"page"`
	Size              int     `form:"size"`
}

// CreateCarRequest is the admin request to add a car.
type CreateCarRequest struct {
	Model                string   `json:"model" binding:"required"`
	Category             string   `json:"category" binding:"required"`
	LocationIDs          []string `json:"locationIds" binding:"required,min=1"`
	Images               []string `json:"images"`
	PricePerDay          float64  `json:"pricePerDay" binding:"required,gt=0"`
	GearBoxType          string   `json:"gearBoxType" binding:"required"`
	FuelType             string   `json:"fuelType" binding:"required"`
	EngineCapacity       string   `json:"engineCapacity"`
	FuelConsumption      string   `json:"fuelConsumption"`
	PassengerCapacity    int      `json:"passengerCapacity"`
	ClimateControlOption string   `json:"climateControlOption"`
	ServiceRating        int      `json:"serviceRating" binding:"required,min=1,max=5"`
}

// CreateLocationRequest is the admin request to add a location.
type CreateLocationRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	URL     string `json:"url"`
}

// CarDTO is the response representation of a car.
type CarDTO struct {
	ID            uuid.UUID               `json:"carId"`
	Model         string                  `json:"model"`
	Category      string                  `json:"category"`
	Images        []string                `json:"images"`
	Location      []string                `json:"location,omitempty"`
	LocationIDs   []uuid.UUID             `json:"locationIds"`
	PricePerDay   float64                 `json:"pricePerDay"`
	Specification carDomain.Specification `json:"specification"`
	ServiceRating int                     `json:"serviceRating"`
	CarRating     float64                 `json:"carRating"`
	Status        string                  `json:"status,omitempty"`
}

// CarService implements the car catalogue use cases.
type CarService struct {
	cars      carDomain.CarRepository
	locations carDomain.LocationRepository
	bookings  bookingDomain.BookingRepository
	reviews   reviewDomain.ReviewRepository
	users     userDomain.UserRepository
	cache     Cache
	logger    *zap.Logger
	now       func() time.Time
}

// NewCarService creates a new CarService. cache may be nil.
func NewCarService(
	cars carDomain.CarRepository,
	locations carDomain.LocationRepository,
	bookings bookingDomain.BookingRepository,
	reviews reviewDomain.ReviewRepository,
	users userDomain.UserRepository,
	cache Cache,
	logger *zap.Logger,
) *CarService {
	return &CarService{
		cars:      cars,
		locations: locations,
		bookings:  bookings,
		reviews:   reviews,
		users:     users,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// ListCars returns a page of cars matching the filters, each with its
// availability for the requested window (today when no window is given).
func (s *CarService) ListCars(ctx context.Context, q ListCarsQuery) (*domain.PaginatedResult[CarDTO], error) {
	window, err := s.queryWindow(q)
	if err != nil {
		return nil, err
	}

	filter := carDomain.Filter{
		Category:      carDomain.Category(carDomain.Normalize(q.Category)),
		GearBoxType:   carDomain.GearBoxType(carDomain.Normalize(q.GearBoxType)),
		FuelType:      carDomain.FuelType(carDomain.Normalize(q.FuelType)),
		MinPriceCents: amountToCents(q.MinPrice),
		MaxPriceCents: amountToCents(q.MaxPrice),
	}
	for _, raw := range []string{q.PickupLocationID, q.DropoffLocationID} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, domain.NewValidationError("invalid location id: " + raw)
		}
		filter.LocationIDs = append(filter.LocationIDs, id)
	}

	page, size := normalizePage(q.Page, q.Size)
	cars, total, err := s.cars.List(ctx, filter, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}

	carIDs := make([]uuid.UUID, len(cars))
	for i, c := range cars {
		carIDs[i] = c.ID()
	}
	var blocking []*bookingDomain.Booking
	if len(carIDs) > 0 {
		blocking, err = s.bookings.FindBlockingInRange(ctx, carIDs, window)
		if err != nil {
			return nil, fmt.Errorf("failed to check availability: %w", err)
		}
	}

	labels := s.locationLabels(ctx)
	dtos := make([]CarDTO, len(cars))
	for i, c := range cars {
		dto := toCarDTO(c, labels)
		dto.Status = string(bookingDomain.CheckAvailability(blocking, c.ID(), window, uuid.Nil))
		dtos[i] = dto
	}

	result := domain.NewPaginatedResult(dtos, total, page, size)
	return &result, nil
}

func (s *CarService) queryWindow(q ListCarsQuery) (bookingDomain.Window, error) {
	if strings.TrimSpace(q.PickupDateTime) == "" || strings.TrimSpace(q.DropoffDateTime) == "" {
		return bookingDomain.DayWindow(s.now()), nil
	}
	pickup, err := bookingDomain.ParseDateTime(q.PickupDateTime)
	if err != nil {
		return bookingDomain.Window{}, err
	}
	dropoff, err := bookingDomain.ParseDateTime(q.DropoffDateTime)
	if err != nil {
		return bookingDomain.Window{}, err
	}
	return bookingDomain.NewWindow(pickup, dropoff)
}

// GetCar returns one car.
func (s *CarService) GetCar(ctx context.Context, carID uuid.UUID) (*CarDTO, error) {
	c, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	dto := toCarDTO(c, s.locationLabels(ctx))
	return &dto, nil
}

// BookedDays returns the sorted, distinct YYYY-MM-DD days on which the car
// has a booking that is not cancelled.
func (s *CarService) BookedDays(ctx context.Context, carID uuid.UUID) ([]string, error) {
	if _, err := s.cars.FindByID(ctx, carID); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.FindByCarID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to load car bookings: %w", err)
	}

	seen := make(map[string]bool)
	days := []string{}
	for _, bk := range bookings {
		if bk.Status() == bookingDomain.StatusCanceled {
			continue
		}
		for _, day := range bk.Window().Days() {
			d := day.Format("2006-01-02")
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
	}
	sort.Strings(days)
	return days, nil
}

// PopularCars returns the best rated cars, served from the cache when warm.
func (s *CarService) PopularCars(ctx context.Context) ([]CarDTO, error) {
	var cached []CarDTO
	if s.cache != nil && s.cache.GetJSON(ctx, cache.KeyPopularCars, &cached) {
		return cached, nil
	}

	cars, err := s.cars.ListByRating(ctx, PopularCarsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list popular cars: %w", err)
	}
	labels := s.locationLabels(ctx)
	dtos := make([]CarDTO, len(cars))
	for i, c := range cars {
		dtos[i] = toCarDTO(c, labels)
	}

	if s.cache != nil {
		s.cache.SetJSON(ctx, cache.KeyPopularCars, dtos)
	}
	return dtos, nil
}

// ClientReviews returns a page of the car's reviews.
func (s *CarService) ClientReviews(ctx context.Context, carID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReviewDTO], error) {
	if _, err := s.cars.FindByID(ctx, carID); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)
	reviews, total, err := s.reviews.FindByCarID(ctx, carID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	result := domain.NewPaginatedResult(withAuthors(ctx, s.users, s.logger, reviews), total, page, limit)
	return &result, nil
}

// Locations returns every location, served from the cache when warm.
func (s *CarService) Locations(ctx context.Context) ([]carDomain.Location, error) {
	var cached []carDomain.Location
	if s.cache != nil && s.cache.GetJSON(ctx, cache.KeyLocations, &cached) {
		return cached, nil
	}

	locations, err := s.locations.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	if locations == nil {
		locations = []carDomain.Location{}
	}

	if s.cache != nil {
		s.cache.SetJSON(ctx, cache.KeyLocations, locations)
	}
	return locations, nil
}

// --- Admin methods ---

// CreateCar adds a car to the catalogue.
func (s *CarService) CreateCar(ctx context.Context, req CreateCarRequest) (*CarDTO, error) {
	locationIDs, err := parseIDs(req.LocationIDs...)
	if err != nil {
		return nil, err
	}
	known, err := s.locations.FindByIDs(ctx, locationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}
	if len(known) != len(uniqueIDs(locationIDs)) {
		return nil, domain.NewValidationError("unknown location id")
	}

	spec := carDomain.Specification{
		GearBoxType:          carDomain.GearBoxType(carDomain.Normalize(req.GearBoxType)),
		FuelType:             carDomain.FuelType(carDomain.Normalize(req.FuelType)),
		EngineCapacity:       req.EngineCapacity,
		FuelConsumption:      req.FuelConsumption,
		PassengerCapacity:    req.PassengerCapacity,
		ClimateControlOption: req.ClimateControlOption,
	}
	c, err := carDomain.NewCar(
		strings.TrimSpace(req.Model),
		carDomain.Category(carDomain.Normalize(req.Category)),
		uniqueIDs(locationIDs),
		req.Images,
		amountToCents(req.PricePerDay),
		spec,
		req.ServiceRating,
	)
	if err != nil {
		return nil, err
	}

	if err := s.cars.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save car: %w", err)
	}
	if s.cache != nil {
		s.cache.Delete(ctx, cache.KeyPopularCars)
	}

	s.logger.Info("car created", zap.String("car_id", c.ID().String()), zap.String("model", c.Model()))
	dto := toCarDTO(c, labelsOf(known))
	return &dto, nil
}

// CreateLocation adds a pickup/dropoff location.
func (s *CarService) CreateLocation(ctx context.Context, req CreateLocationRequest) (*carDomain.Location, error) {
	l, err := carDomain.NewLocation(strings.TrimSpace(req.Name), strings.TrimSpace(req.Address), strings.TrimSpace(req.URL))
	if err != nil {
		return nil, err
	}
	if err := s.locations.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to save location: %w", err)
	}
	if s.cache != nil {
		s.cache.Delete(ctx, cache.KeyLocations)
	}

	s.logger.Info("location created", zap.String("location_id", l.ID.String()))
	return l, nil
}

// --- Helpers ---

func (s *CarService) locationLabels(ctx context.Context) map[uuid.UUID]string {
	locations, err := s.Locations(ctx)
	if err != nil {
		s.logger.Warn("failed to load location labels", zap.Error(err))
		return nil
	}
	return labelsOf(locations)
}

func labelsOf(locations []carDomain.Location) map[uuid.UUID]string {
	labels := make(map[uuid.UUID]string, len(locations))
	for _, l := range locations {
		labels[l.ID] = l.Label()
	}
	return labels
}

func toCarDTO(c *carDomain.Car, labels map[uuid.UUID]string) CarDTO {
	var location []string
	for _, id := range c.LocationIDs() {
		if label, ok := labels[id]; ok {
			location = append(location, label)
		}
	}
	images := c.Images()
	if images == nil {
		images = []string{}
	}
	return CarDTO{
		ID:            c.ID(),
		Model:         c.Model(),
		Category:      string(c.Category()),
		Images:        images,
		Location:      location,
		LocationIDs:   c.LocationIDs(),
		PricePerDay:   centsToAmount(c.PricePerDayCents()),
		Specification: c.Spec(),
		ServiceRating: c.ServiceRating(),
		CarRating:     c.CarRating(),
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// normalizePage applies the default page size and caps it.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
