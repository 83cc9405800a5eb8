package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RentalBee/service-rental/internal/common/domain"
	"github.com/RentalBee/service-rental/internal/common/kafka"
)

// publishEvent wraps data in a CloudEvent and publishes it. Failures are
// logged and never fail the calling use case.
func publishEvent(ctx context.Context, producer kafka.Publisher, logger *zap.Logger, topic, eventType, key string, data interface{}) {
	if producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(ServiceName, eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := producer.PublishEvent(ctx, topic, cloudEvent.WithSubject(key)); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// blank reports whether any of values is empty after trimming.
func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

func parseIDs(values ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			return nil, domain.NewValidationError("invalid id: " + v)
		}
		ids[i] = id
	}
	return ids, nil
}

// optionalID parses v when set, otherwise returns current.
func optionalID(v *string, current uuid.UUID) (uuid.UUID, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return current, nil
	}
	ids, err := parseIDs(*v)
	if err != nil {
		return uuid.Nil, err
	}
	return ids[0], nil
}

func centsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

func amountToCents(amount float64) int64 {
	if amount < 0 {
		return -int64(-amount*100 + 0.5)
	}
	return int64(amount*100 + 0.5)
}
