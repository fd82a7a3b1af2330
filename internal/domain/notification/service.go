package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
)

// Service handles notification logic
type Service struct {
	repo      Repository
	publisher RealtimePublisher
}

// NewService creates notification service
func NewService(repo Repository, publisher RealtimePublisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// Notify stores a notification and pushes it to the user's open sockets
func (s *Service) Notify(ctx context.Context, n *Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.Publish(ctx, n)
	return nil
}

// Publish pushes already stored notifications. Delivery is best effort:
// clients that miss the push still see the row when they poll.
func (s *Service) Publish(ctx context.Context, notifications ...*Notification) {
	if s.publisher == nil {
		return
	}
	for _, n := range notifications {
		count, err := s.repo.CountUnreadByUser(ctx, n.UserID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("Failed to count unread notifications")
			continue
		}
		if err := s.publisher.NotifyNew(ctx, n.UserID, NotificationResponseFromEntity(n), count); err != nil {
			log.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("Failed to publish notification")
		}
	}
}

// List returns notifications for user
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page pagination.Params) ([]*Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, page)
}

// GetUnreadCount returns unread count
func (s *Service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnreadByUser(ctx, userID)
}

// MarkAsRead marks a single notification of the user as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

// MarkAllAsRead marks all notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// Delete removes a notification of the user
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}
