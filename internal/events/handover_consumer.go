package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/RentalBee/service-rental/internal/common/domain"
	"github.com/RentalBee/service-rental/internal/common/events"
	"github.com/RentalBee/service-rental/internal/common/kafka"
	bookingDomain "github.com/RentalBee/service-rental/internal/domain/booking"
)

// HandoverApplier moves a booking to the status a handover implies.
type HandoverApplier interface {
	ApplyHandover(ctx context.Context, bookingID uuid.UUID, target bookingDomain.BookingStatus) error
}

var handoverTargets = map[string]bookingDomain.BookingStatus{
	events.HandoverCarCollected: bookingDomain.StatusServiceStarted,
	events.HandoverCarReturned:  bookingDomain.StatusServiceProvided,
}

// HandoverEventConsumer listens to branch handover events and advances bookings.
type HandoverEventConsumer struct {
	consumer *kafka.Consumer
	service  HandoverApplier
	logger   *zap.Logger
}

// NewHandoverEventConsumer creates a new HandoverEventConsumer.
func NewHandoverEventConsumer(
	brokers []string,
	groupID string,
	service HandoverApplier,
	logger *zap.Logger,
) *HandoverEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicHandoverEvents, logger)
	return &HandoverEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming handover events. This blocks until the context is cancelled.
func (c *HandoverEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *HandoverEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *HandoverEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from handover topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	target, ok := handoverTargets[cloudEvent.Type]
	if !ok {
		c.logger.Debug("ignoring unhandled handover event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	var evt events.HandoverEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.BookingID == uuid.Nil {
		c.logger.Error("failed to parse HandoverEvent data",
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("processing handover event",
		zap.String("type", cloudEvent.Type),
		zap.String("booking_id", evt.BookingID.String()),
	)

	if err := c.service.ApplyHandover(ctx, evt.BookingID, target); err != nil {
		if _, business := domain.AsAppError(err); business {
			// Business errors are final.
			c.logger.Warn("handover rejected",
				zap.String("booking_id", evt.BookingID.String()),
				zap.String("target", string(target)),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to apply handover",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("booking advanced after handover",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("status", string(target)),
	)
	return nil
}
