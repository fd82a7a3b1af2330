package message

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/handover"
	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/pkg/logger"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
	"github.com/campuslf/lostfound-api/internal/pkg/sanitize"
)

// HandoverLookup resolves the handover a thread belongs to
type HandoverLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*handover.Handover, error)
}

// Limiter throttles senders
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Notifier stores and pushes NEW_MESSAGE notifications
type Notifier interface {
	Notify(ctx context.Context, n *notification.Notification) error
}

// Broadcaster pushes room events to subscribed websockets
type Broadcaster interface {
	BroadcastToRoom(roomID uuid.UUID, event *WSEvent)
}

// Service handles per-handover messaging
type Service struct {
	repo      Repository
	handovers HandoverLookup
	limiter   Limiter
	notifier  Notifier
	hub       Broadcaster
	now       func() time.Time
}

// NewService creates message service. limiter, notifier and hub may be nil.
func NewService(repo Repository, handovers HandoverLookup, limiter Limiter, notifier Notifier, hub Broadcaster) *Service {
	return &Service{
		repo:      repo,
		handovers: handovers,
		limiter:   limiter,
		notifier:  notifier,
		hub:       hub,
		now:       time.Now,
	}
}

// participantHandover loads the handover and checks userID takes part in it
func (s *Service) participantHandover(ctx context.Context, handoverID, userID uuid.UUID) (*handover.Handover, error) {
	h, err := s.handovers.GetByID(ctx, handoverID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrHandoverNotFound
	}
	if !h.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return h, nil
}

// Send appends a message to the handover thread
func (s *Service) Send(ctx context.Context, senderID, handoverID uuid.UUID, content string) (*Message, error) {
	h, err := s.participantHandover(ctx, handoverID, senderID)
	if err != nil {
		return nil, err
	}
	if h.Status == handover.StatusCanceled {
		return nil, ErrHandoverCanceled
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, senderID.String()) {
		return nil, ErrRateLimited
	}

	content = sanitize.Multiline(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}

	msg := &Message{
		ID:         uuid.New(),
		HandoverID: handoverID,
		SenderID:   senderID,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(handoverID, &WSEvent{
			Type:       EventNewMessage,
			HandoverID: handoverID,
			Message:    MessageResponseFromEntity(msg, uuid.Nil),
		})
	}
	if s.notifier != nil {
		n := notification.New(h.Counterparty(senderID), notification.TypeNewMessage,
			notification.RelatedHandover, handoverID, "New message", preview(content))
		if err := s.notifier.Notify(ctx, n); err != nil {
			logger.FromContext(ctx).Warn().Err(err).
				Str("handover_id", handoverID.String()).
				Msg("Failed to send new message notification")
		}
	}

	return msg, nil
}

func preview(content string) string {
	const limit = 80
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

// List returns the thread oldest first. Blinded messages carry the placeholder.
func (s *Service) List(ctx context.Context, viewerID, handoverID uuid.UUID, page pagination.Params) ([]*Message, int, error) {
	if _, err := s.participantHandover(ctx, handoverID, viewerID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByHandover(ctx, handoverID, page)
}

// MarkRead flips one message. Only the participant who did not write it may do this.
// Outsiders get ErrMessageNotFound whether or not the id exists.
func (s *Service) MarkRead(ctx context.Context, readerID, messageID uuid.UUID) (*Message, error) {
	msg, err := s.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.participantHandover(ctx, msg.HandoverID, readerID); err != nil {
		if errors.Is(err, ErrNotParticipant) || errors.Is(err, ErrHandoverNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if msg.SenderID == readerID {
		return nil, ErrReadOwnMessage
	}
	if msg.IsRead {
		return msg, nil
	}

	if err := s.repo.MarkAsRead(ctx, messageID); err != nil {
		return nil, err
	}
	msg.IsRead = true
	s.broadcastRead(msg.HandoverID, readerID, []uuid.UUID{msg.ID})
	return msg, nil
}

// MarkAllRead flips every message in the thread not authored by readerID
func (s *Service) MarkAllRead(ctx context.Context, readerID, handoverID uuid.UUID) (int64, error) {
	if _, err := s.participantHandover(ctx, handoverID, readerID); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllAsRead(ctx, handoverID, readerID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.broadcastRead(handoverID, readerID, nil)
	}
	return n, nil
}

// UnreadCount counts messages in the thread waiting for readerID
func (s *Service) UnreadCount(ctx context.Context, readerID, handoverID uuid.UUID) (int, error) {
	if _, err := s.participantHandover(ctx, handoverID, readerID); err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, handoverID, readerID)
}

// CanSubscribe checks userID may join the realtime room of handoverID
func (s *Service) CanSubscribe(ctx context.Context, userID, handoverID uuid.UUID) error {
	_, err := s.participantHandover(ctx, handoverID, userID)
	return err
}

// Get loads a message regardless of blinding. Moderation uses it to show the original.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Message, error) {
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

// SetBlinded toggles moderator blinding
func (s *Service) SetBlinded(ctx context.Context, id uuid.UUID, blinded bool) error {
	return s.repo.SetBlinded(ctx, id, blinded)
}

func (s *Service) broadcastRead(handoverID, readerID uuid.UUID, ids []uuid.UUID) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(handoverID, &WSEvent{
		Type:       EventMessageRead,
		HandoverID: handoverID,
		ReaderID:   readerID,
		MessageIDs: ids,
	})
}
