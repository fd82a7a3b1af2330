package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Type represents notification type. Every type is tied to a system event.
type Type string

const (
	TypeHandoverRequested Type = "HANDOVER_REQUESTED" // Responder: a loser asked for the item
	TypeHandoverAccepted  Type = "HANDOVER_ACCEPTED"  // Requester: finder accepted
	TypeHandoverRejected  Type = "HANDOVER_REJECTED"  // Requester: finder rejected
	TypeSecurityVerified  Type = "SECURITY_VERIFIED"  // Both: security checked the claim
	TypeOfficeApproved    Type = "OFFICE_APPROVED"    // Both: office approved
	TypeHandoverScheduled Type = "HANDOVER_SCHEDULED" // Both: meeting time fixed
	TypeHandoverCompleted Type = "HANDOVER_COMPLETED" // Both: item handed over
	TypeHandoverCanceled  Type = "HANDOVER_CANCELED"  // Both: handover canceled
	TypeNewMessage        Type = "NEW_MESSAGE"        // Other participant: new chat message
	TypeMatchFound        Type = "MATCH_FOUND"        // Lost owner: a likely match was registered
	TypeReportResolved    Type = "REPORT_RESOLVED"    // Reporter: admin resolved the report
)

// AllTypes lists the eleven notification types
var AllTypes = []Type{
	TypeHandoverRequested, TypeHandoverAccepted, TypeHandoverRejected, TypeSecurityVerified,
	TypeOfficeApproved, TypeHandoverScheduled, TypeHandoverCompleted, TypeHandoverCanceled,
	TypeNewMessage, TypeMatchFound, TypeReportResolved,
}

// RelatedType names the entity a notification points to
type RelatedType string

const (
	RelatedHandover RelatedType = "HANDOVER"
	RelatedLost     RelatedType = "LOST"
	RelatedFound    RelatedType = "FOUND"
	RelatedMessage  RelatedType = "MESSAGE"
	RelatedReport   RelatedType = "REPORT"
)

// Notification represents a user notification
type Notification struct {
	ID          uuid.UUID      `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	Type        Type           `db:"type"`
	Title       string         `db:"title"`
	Message     string         `db:"message"`
	RelatedType sql.NullString `db:"related_type"`
	RelatedID   uuid.NullUUID  `db:"related_id"`
	IsRead      bool           `db:"is_read"`
	ReadAt      sql.NullTime   `db:"read_at"`
	CreatedAt   time.Time      `db:"created_at"`
}

// New builds an unread notification pointing at a related entity
func New(userID uuid.UUID, t Type, relatedType RelatedType, relatedID uuid.UUID, title, message string) *Notification {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      t,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if relatedType != "" {
		n.RelatedType = sql.NullString{String: string(relatedType), Valid: true}
		n.RelatedID = uuid.NullUUID{UUID: relatedID, Valid: true}
	}
	return n
}
