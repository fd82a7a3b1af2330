package notification

import (
	"context"

	"github.com/google/uuid"
)

// EventNew is the websocket event type for a freshly stored notification
const EventNew = "notification:new"

// RealtimePublisher pushes stored notifications to connected clients
type RealtimePublisher interface {
	NotifyNew(ctx context.Context, userID uuid.UUID, notification *NotificationResponse, unreadCount int) error
}

// UserSender delivers a JSON payload to every socket of a user, on any instance
type UserSender interface {
	SendToUserJSON(userID uuid.UUID, payload any) error
}

// RealtimeEvent is the frame clients receive
type RealtimeEvent struct {
	Type string        `json:"type"`
	Data RealtimeEntry `json:"data"`
}

type RealtimeEntry struct {
	Notification *NotificationResponse `json:"notification"`
	UnreadCount  int                   `json:"unread_count"`
}

// WSPublisher sends notification:new over the message hub sockets
type WSPublisher struct {
	sender UserSender
}

func NewWSPublisher(sender UserSender) *WSPublisher {
	return &WSPublisher{sender: sender}
}

func (p *WSPublisher) NotifyNew(ctx context.Context, userID uuid.UUID, n *NotificationResponse, unreadCount int) error {
	if p == nil || p.sender == nil {
		return nil
	}
	return p.sender.SendToUserJSON(userID, RealtimeEvent{
		Type: EventNew,
		Data: RealtimeEntry{Notification: n, UnreadCount: unreadCount},
	})
}
