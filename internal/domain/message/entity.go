package message

import (
	"time"

	"github.com/google/uuid"
)

// BlindedPlaceholder replaces the content of moderated messages for every reader
const BlindedPlaceholder = "[This message has been hidden by a moderator]"

// MaxContentLength is the longest accepted message in characters
const MaxContentLength = 2000

// Message is one chat line of a handover thread
type Message struct {
	ID         uuid.UUID `db:"id"`
	HandoverID uuid.UUID `db:"handover_id"`
	SenderID   uuid.UUID `db:"sender_id"`
	Content    string    `db:"content"`
	IsRead     bool      `db:"is_read"`
	IsBlinded  bool      `db:"is_blinded"`
	CreatedAt  time.Time `db:"created_at"`
}

// VisibleContent is what participants get to read. The stored content is kept for audit.
func (m *Message) VisibleContent() string {
	if m.IsBlinded {
		return BlindedPlaceholder
	}
	return m.Content
}
