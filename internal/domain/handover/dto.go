package handover

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest for POST /handovers
type CreateRequest struct {
	LostID  string `json:"lost_id" validate:"required,uuid"`
	FoundID string `json:"found_id" validate:"required,uuid"`
	Method  string `json:"method" validate:"required,handover_method"`
}

// ReasonRequest for reject and cancel. Emptiness is checked after the state
// so a late retry still gets the state error.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ScheduleRequest for POST /handovers/{id}/schedule
type ScheduleRequest struct {
	ScheduleAt time.Time `json:"schedule_at"`
	MeetPlace  string    `json:"meet_place" validate:"max=200"`
}

// ContactResponse is the counterparty contact, present once disclosed
type ContactResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Nickname string    `json:"nickname"`
	Phone    string    `json:"phone,omitempty"`
	Email    string    `json:"email,omitempty"`
}

// HandoverResponse for API
type HandoverResponse struct {
	ID               uuid.UUID        `json:"id"`
	LostID           uuid.UUID        `json:"lost_id"`
	FoundID          uuid.UUID        `json:"found_id"`
	RequesterID      uuid.UUID        `json:"requester_id"`
	ResponderID      uuid.UUID        `json:"responder_id"`
	Method           string           `json:"method"`
	Status           string           `json:"status"`
	ScheduleAt       *string          `json:"schedule_at,omitempty"`
	MeetPlace        string           `json:"meet_place,omitempty"`
	ContactDisclosed bool             `json:"contact_disclosed"`
	AcceptedAt       *string          `json:"accepted_at,omitempty"`
	VerifiedAt       *string          `json:"verified_at,omitempty"`
	ApprovedAt       *string          `json:"approved_at,omitempty"`
	ScheduledAt      *string          `json:"scheduled_at,omitempty"`
	CompletedAt      *string          `json:"completed_at,omitempty"`
	CanceledAt       *string          `json:"canceled_at,omitempty"`
	CancelReason     string           `json:"cancel_reason,omitempty"`
	Counterparty     *ContactResponse `json:"counterparty,omitempty"`
	CreatedAt        string           `json:"created_at"`
	UpdatedAt        string           `json:"updated_at"`
}

func formatNullTime(valid bool, t time.Time) *string {
	if !valid {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// HandoverResponseFromEntity converts entity to response
func HandoverResponseFromEntity(h *Handover) *HandoverResponse {
	return &HandoverResponse{
		ID:               h.ID,
		LostID:           h.LostID,
		FoundID:          h.FoundID,
		RequesterID:      h.RequesterID,
		ResponderID:      h.ResponderID,
		Method:           string(h.Method),
		Status:           string(h.Status),
		ScheduleAt:       formatNullTime(h.ScheduleAt.Valid, h.ScheduleAt.Time),
		MeetPlace:        h.MeetPlace.String,
		ContactDisclosed: h.ContactDisclosed,
		AcceptedAt:       formatNullTime(h.AcceptedAt.Valid, h.AcceptedAt.Time),
		VerifiedAt:       formatNullTime(h.VerifiedAt.Valid, h.VerifiedAt.Time),
		ApprovedAt:       formatNullTime(h.ApprovedAt.Valid, h.ApprovedAt.Time),
		ScheduledAt:      formatNullTime(h.ScheduledAt.Valid, h.ScheduledAt.Time),
		CompletedAt:      formatNullTime(h.CompletedAt.Valid, h.CompletedAt.Time),
		CanceledAt:       formatNullTime(h.CanceledAt.Valid, h.CanceledAt.Time),
		CancelReason:     h.CancelReason.String,
		CreatedAt:        h.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        h.UpdatedAt.Format(time.RFC3339),
	}
}
