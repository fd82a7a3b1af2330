package message

import (
	"time"

	"github.com/google/uuid"
)

// SendRequest for POST /messages. Length is checked after sanitizing.
type SendRequest struct {
	HandoverID string `json:"handover_id" validate:"required,uuid"`
	Content    string `json:"content" validate:"required"`
}

// MessageResponse for API
type MessageResponse struct {
	ID         uuid.UUID `json:"id"`
	HandoverID uuid.UUID `json:"handover_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	Content    string    `json:"content"`
	IsMine     bool      `json:"is_mine"`
	IsRead     bool      `json:"is_read"`
	IsBlinded  bool      `json:"is_blinded"`
	CreatedAt  string    `json:"created_at"`
}

// MessageResponseFromEntity converts entity to response for a viewer
func MessageResponseFromEntity(m *Message, viewerID uuid.UUID) *MessageResponse {
	return &MessageResponse{
		ID:         m.ID,
		HandoverID: m.HandoverID,
		SenderID:   m.SenderID,
		Content:    m.VisibleContent(),
		IsMine:     m.SenderID == viewerID,
		IsRead:     m.IsRead,
		IsBlinded:  m.IsBlinded,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}

// UnreadCountResponse for unread count endpoint
type UnreadCountResponse struct {
	HandoverID  uuid.UUID `json:"handover_id"`
	UnreadCount int       `json:"unread_count"`
}
