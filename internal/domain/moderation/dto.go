package moderation

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/user"
)

// CreateReportRequest represents a complaint about a lost item, found item or message
type CreateReportRequest struct {
	TargetType string `json:"target_type" validate:"required,report_target"`
	TargetID   string `json:"target_id" validate:"required,uuid"`
	Reason     string `json:"reason" validate:"max=1000"`
}

// ResolveReportRequest represents the admin decision on a report
type ResolveReportRequest struct {
	Action    string `json:"action" validate:"required,report_action"`
	AdminNote string `json:"admin_note,omitempty" validate:"max=1000"`
}

// ReportResponse represents a report
type ReportResponse struct {
	ID         uuid.UUID    `json:"id"`
	TargetType TargetType   `json:"target_type"`
	TargetID   uuid.UUID    `json:"target_id"`
	ReporterID uuid.UUID    `json:"reporter_id"`
	Reason     string       `json:"reason"`
	Status     ReportStatus `json:"status"`
	Action     string       `json:"action,omitempty"`
	AdminNote  string       `json:"admin_note,omitempty"`
	ResolvedBy *uuid.UUID   `json:"resolved_by,omitempty"`
	ResolvedAt *string      `json:"resolved_at,omitempty"`
	CreatedAt  string       `json:"created_at"`
}

// ReportResponseFromEntity converts entity to response
func ReportResponseFromEntity(r *Report) *ReportResponse {
	resp := &ReportResponse{
		ID:         r.ID,
		TargetType: r.TargetType,
		TargetID:   r.TargetID,
		ReporterID: r.ReporterID,
		Reason:     r.Reason,
		Status:     r.Status,
		Action:     r.Action.String,
		AdminNote:  r.AdminNote.String,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
	if r.ResolvedBy.Valid {
		id := r.ResolvedBy.UUID
		resp.ResolvedBy = &id
	}
	if r.ResolvedAt.Valid {
		at := r.ResolvedAt.Time.Format(time.RFC3339)
		resp.ResolvedAt = &at
	}
	return resp
}

// MessageSnapshot is the unblinded message shown to admins
type MessageSnapshot struct {
	ID         uuid.UUID `json:"id"`
	HandoverID uuid.UUID `json:"handover_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	Content    string    `json:"content"`
	IsBlinded  bool      `json:"is_blinded"`
	CreatedAt  string    `json:"created_at"`
}

// ReportDetailResponse carries the report plus the original target content
type ReportDetailResponse struct {
	*ReportResponse
	Lost    *item.LostItemResponse  `json:"lost,omitempty"`
	Found   *item.FoundItemResponse `json:"found,omitempty"`
	Message *MessageSnapshot        `json:"message,omitempty"`
}

// UserStatusResponse is returned by block and unblock
type UserStatusResponse struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	Role     user.Role   `json:"role"`
	Status   user.Status `json:"status"`
}
