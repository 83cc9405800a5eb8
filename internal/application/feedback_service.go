package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RentalBee/service-rental/internal/cache"
	"github.com/RentalBee/service-rental/internal/common/domain"
	"github.com/RentalBee/service-rental/internal/common/events"
	"github.com/RentalBee/service-rental/internal/common/kafka"
	bookingDomain "github.com/RentalBee/service-rental/internal/domain/booking"
	carDomain "github.com/RentalBee/service-rental/internal/domain/car"
	reviewDomain "github.com/RentalBee/service-rental/internal/domain/review"
	userDomain "github.com/RentalBee/service-rental/internal/domain/user"
)

// RecentFeedbackLimit is the number of reviews shown on the home page.
const RecentFeedbackLimit = 5

// SubmitFeedbackRequest is the body of a feedback submission.
type SubmitFeedbackRequest struct {
	BookingID    string `json:"bookingId"`
	CarID        string `json:"carId"`
	ClientID     string `json:"clientId"`
	FeedbackText string `json:"feedbackText"`
	Rating       *int   `json:"rating"`
}

// ReviewDTO is the response representation of a review.
type ReviewDTO struct {
	ID           uuid.UUID `json:"id"`
	BookingID    uuid.UUID `json:"bookingId"`
	CarID        uuid.UUID `json:"carId"`
	ClientID     uuid.UUID `json:"clientId"`
	Author       string    `json:"author,omitempty"`
	FeedbackText string    `json:"feedbackText"`
	Rating       int       `json:"rating"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FeedbackResult tells the caller whether a review was created or revised.
type FeedbackResult struct {
	Review  ReviewDTO `json:"review"`
	Created bool      `json:"created"`
}

// FeedbackService closes the booking lifecycle through client feedback.
type FeedbackService struct {
	reviews  reviewDomain.ReviewRepository
	bookings bookingDomain.BookingRepository
	cars     carDomain.CarRepository
	users    userDomain.UserRepository
	cache    Cache
	producer kafka.Publisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewFeedbackService creates a new FeedbackService. cache may be nil.
func NewFeedbackService(
	reviews reviewDomain.ReviewRepository,
	bookings bookingDomain.BookingRepository,
	cars carDomain.CarRepository,
	users userDomain.UserRepository,
	cache Cache,
	producer kafka.Publisher,
	logger *zap.Logger,
) *FeedbackService {
	return &FeedbackService{
		reviews:  reviews,
		bookings: bookings,
		cars:     cars,
		users:    users,
		cache:    cache,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit creates the first review of a SERVICEPROVIDED booking, finishing
// it, or revises the existing review of a SERVICEFINISHED booking.
func (s *FeedbackService) Submit(ctx context.Context, req SubmitFeedbackRequest) (*FeedbackResult, error) {
	if blank(req.BookingID, req.CarID, req.ClientID, req.FeedbackText) || req.Rating == nil {
		return nil, bookingDomain.ErrMissingFields
	}
	rating := *req.Rating
	if rating < reviewDomain.MinRating || rating > reviewDomain.MaxRating {
		return nil, reviewDomain.ErrInvalidRating
	}
	ids, err := parseIDs(req.BookingID, req.CarID, req.ClientID)
	if err != nil {
		return nil, err
	}
	bookingID, carID, clientID := ids[0], ids[1], ids[2]

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.CarID() != carID || !bk.IsOwnedBy(clientID) {
		return nil, domain.NewValidationError("car or client does not match the booking")
	}

	existing, err := s.reviews.FindOne(ctx, bookingID, carID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up review: %w", err)
	}

	now := s.now().UTC()
	if existing != nil {
		if !bk.CanReceiveFeedbackUpdate() {
			return nil, domain.NewInvalidStateError(string(bk.Status()), string(bookingDomain.StatusServiceFinished))
		}
		if err := existing.Revise(req.FeedbackText, rating, now); err != nil {
			return nil, err
		}
		if err := s.reviews.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.refreshCarRating(ctx, carID)
		return &FeedbackResult{Review: toReviewDTO(existing, "")}, nil
	}

	if err := bk.Finish(now); err != nil {
		return nil, err
	}
	rv, err := reviewDomain.NewReview(bookingID, carID, clientID, req.FeedbackText, rating, now)
	if err != nil {
		return nil, err
	}

	// The booking's optimistic lock lets only one of two racing first
	// submissions through.
	bk.IncrementVersion()
	if err := s.bookings.FinishWithReview(ctx, bk, rv); err != nil {
		return nil, err
	}
	s.refreshCarRating(ctx, carID)

	s.logger.Info("booking finished by feedback",
		zap.String("booking_id", bookingID.String()),
		zap.Int("rating", rating),
	)
	publishEvent(ctx, s.producer, s.logger, events.TopicBookingEvents, events.BookingFinished, bookingID.String(), events.BookingStatusEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ClientID:      clientID,
		Status:        string(bk.Status()),
		CancelReview:  string(bk.CancelRequest().Status),
		ChangedBy:     clientID,
		OccurredAt:    now,
	})

	return &FeedbackResult{Review: toReviewDTO(rv, ""), Created: true}, nil
}

// Recent returns the latest reviews with short author names.
func (s *FeedbackService) Recent(ctx context.Context) ([]ReviewDTO, error) {
	reviews, err := s.reviews.Recent(ctx, RecentFeedbackLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent feedback: %w", err)
	}
	return withAuthors(ctx, s.users, s.logger, reviews), nil
}

// refreshCarRating recomputes the car's average and drops the cached
// popular list ordered by it. A failure leaves the old rating in place and
// is only logged.
func (s *FeedbackService) refreshCarRating(ctx context.Context, carID uuid.UUID) {
	ratings, err := s.reviews.RatingsByCarID(ctx, carID)
	if err != nil {
		s.logger.Error("failed to load car ratings", zap.String("car_id", carID.String()), zap.Error(err))
		return
	}
	avg := carDomain.AverageRating(ratings)
	if err := s.cars.UpdateRating(ctx, carID, avg); err != nil {
		s.logger.Error("failed to update car rating", zap.String("car_id", carID.String()), zap.Error(err))
		return
	}
	if s.cache != nil {
		s.cache.Delete(ctx, cache.KeyPopularCars)
	}
}

// withAuthors converts reviews to DTOs labelled with "First L." names.
func withAuthors(ctx context.Context, users userDomain.UserRepository, logger *zap.Logger, reviews []*reviewDomain.Review) []ReviewDTO {
	ids := make([]uuid.UUID, 0, len(reviews))
	seen := make(map[uuid.UUID]bool)
	for _, r := range reviews {
		if !seen[r.ClientID()] {
			seen[r.ClientID()] = true
			ids = append(ids, r.ClientID())
		}
	}

	names := make(map[uuid.UUID]string)
	if len(ids) > 0 {
		found, err := users.FindByIDs(ctx, ids)
		if err != nil {
			logger.Warn("failed to load review authors", zap.Error(err))
		}
		for _, u := range found {
			names[u.ID] = u.ShortName()
		}
	}

	dtos := make([]ReviewDTO, len(reviews))
	for i, r := range reviews {
		dtos[i] = toReviewDTO(r, names[r.ClientID()])
	}
	return dtos
}

func toReviewDTO(r *reviewDomain.Review, author string) ReviewDTO {
	return ReviewDTO{
		ID:           r.ID(),
		BookingID:    r.BookingID(),
		CarID:        r.CarID(),
		ClientID:     r.ClientID(),
		Author:       author,
		FeedbackText: r.Text(),
		Rating:       r.Rating(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}
