package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/RentalBee/service-rental/internal/common/kafka"
	notificationDomain "github.com/RentalBee/service-rental/internal/domain/notification"
)

const (
	TopicNotificationEvents  = "notification.events"
	EventNotificationCreated = "notification.created"
)

// StoreSender writes the notification to the user's inbox.
type StoreSender struct {
	repo notificationDomain.Repository
}

// NewStoreSender creates a StoreSender.
func NewStoreSender(repo notificationDomain.Repository) *StoreSender {
	return &StoreSender{repo: repo}
}

func (s *StoreSender) Send(ctx context.Context, n *notificationDomain.Notification) error {
	return s.repo.Save(ctx, n)
}

// KafkaSender publishes the notification for the e-mail service.
type KafkaSender struct {
	publisher kafka.Publisher
	source    string
}

// NewKafkaSender creates a KafkaSender emitting events from source.
func NewKafkaSender(publisher kafka.Publisher, source string) *KafkaSender {
	return &KafkaSender{publisher: publisher, source: source}
}

func (s *KafkaSender) Send(ctx context.Context, n *notificationDomain.Notification) error {
	event, err := kafka.NewCloudEvent(s.source, EventNotificationCreated, n)
	if err != nil {
		return fmt.Errorf("failed to build notification event: %w", err)
	}
	return s.publisher.PublishEvent(ctx, TopicNotificationEvents, event.WithSubject(n.UserID.String()))
}

// MultiSender fans a notification out to every sender. The dispatcher
// retries its members one by one.
type MultiSender []Sender

func (m MultiSender) Send(ctx context.Context, n *notificationDomain.Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
