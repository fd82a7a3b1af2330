package moderation

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TargetType is the kind of entity a report points at
type TargetType string

const (
	TargetLost    TargetType = "LOST"
	TargetFound   TargetType = "FOUND"
	TargetMessage TargetType = "MESSAGE"
)

// ParseTargetType accepts the upper or lower case form used in URLs
func ParseTargetType(s string) (TargetType, bool) {
	t := TargetType(strings.ToUpper(s))
	switch t {
	case TargetLost, TargetFound, TargetMessage:
		return t, true
	}
	return "", false
}

// ReportStatus represents the status of a report
type ReportStatus string

const (
	ReportOpen     ReportStatus = "OPEN"
	ReportResolved ReportStatus = "RESOLVED"
)

// Action is the admin decision on a report
type Action string

const (
	ActionBlind  Action = "BLIND"
	ActionIgnore Action = "IGNORE"
)

// Report is a user complaint about a lost item, found item or message
type Report struct {
	ID         uuid.UUID      `db:"id"`
	TargetType TargetType     `db:"target_type"`
	TargetID   uuid.UUID      `db:"target_id"`
	ReporterID uuid.UUID      `db:"reporter_id"`
	Reason     string         `db:"reason"`
	Status     ReportStatus   `db:"status"`
	Action     sql.NullString `db:"action"`
	AdminNote  sql.NullString `db:"admin_note"`
	ResolvedBy uuid.NullUUID  `db:"resolved_by"`
	ResolvedAt sql.NullTime   `db:"resolved_at"`
	CreatedAt  time.Time      `db:"created_at"`
}

// IsResolved reports whether an admin already decided on the report
func (r *Report) IsResolved() bool {
	return r.Status == ReportResolved
}
