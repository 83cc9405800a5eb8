package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	notificationDomain "github.com/RentalBee/service-rental/internal/domain/notification"
)

// UnreadNotificationsLimit caps the inbox listing.
const UnreadNotificationsLimit = 50

// NotificationService serves the current user's inbox.
type NotificationService struct {
	repo   notificationDomain.Repository
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo notificationDomain.Repository, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

// ListUnread returns the newest unread notifications of userID.
func (s *NotificationService) ListUnread(ctx context.Context, userID uuid.UUID) ([]*notificationDomain.Notification, error) {
	items, err := s.repo.ListUnread(ctx, userID, UnreadNotificationsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if items == nil {
		items = []*notificationDomain.Notification{}
	}
	return items, nil
}

// MarkRead marks one of userID's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// Delete removes one of userID's notifications.
func (s *NotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Debug("notification deleted", zap.String("id", id.String()))
	return nil
}
