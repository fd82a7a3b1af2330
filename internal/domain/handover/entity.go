package handover

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/user"
)

// Status is a state of the handover workflow
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusAccepted  Status = "ACCEPTED_BY_FINDER"
	StatusVerified  Status = "VERIFIED_BY_SECURITY"
	StatusApproved  Status = "APPROVED_BY_OFFICE"
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
)

// IsTerminal reports whether no transition can leave the status
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// HoldsFound reports whether a handover in this status keeps the found item IN_HANDOVER
func (s Status) HoldsFound() bool {
	switch s {
	case StatusAccepted, StatusVerified, StatusApproved, StatusScheduled:
		return true
	}
	return false
}

// Method is how the item changes hands
type Method string

const (
	MethodMeet    Method = "MEET"
	MethodOffice  Method = "OFFICE"
	MethodCourier Method = "COURIER"
)

// NeedsOfficeApproval reports whether the office must approve before scheduling.
// Direct meetings between the two parties skip the office.
func (m Method) NeedsOfficeApproval() bool {
	return m != MethodMeet
}

// Action is a transition a caller asks for
type Action string

const (
	ActionCreate   Action = "create"
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionVerify   Action = "verify"
	ActionApprove  Action = "approve"
	ActionSchedule Action = "schedule"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// Handover is the negotiated return of a found item to the person who lost it
type Handover struct {
	ID               uuid.UUID      `db:"id"`
	LostID           uuid.UUID      `db:"lost_id"`
	FoundID          uuid.UUID      `db:"found_id"`
	RequesterID      uuid.UUID      `db:"requester_id"`
	ResponderID      uuid.UUID      `db:"responder_id"`
	Method           Method         `db:"method"`
	Status           Status         `db:"status"`
	ScheduleAt       sql.NullTime   `db:"schedule_at"`
	MeetPlace        sql.NullString `db:"meet_place"`
	ContactDisclosed bool           `db:"contact_disclosed"`
	AcceptedAt       sql.NullTime   `db:"accepted_at"`
	VerifiedAt       sql.NullTime   `db:"verified_at"`
	ApprovedAt       sql.NullTime   `db:"approved_at"`
	ScheduledAt      sql.NullTime   `db:"scheduled_at"`
	CompletedAt      sql.NullTime   `db:"completed_at"`
	CanceledAt       sql.NullTime   `db:"canceled_at"`
	CanceledBy       uuid.NullUUID  `db:"canceled_by"`
	CancelReason     sql.NullString `db:"cancel_reason"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

// IsActive reports whether the handover can still change
func (h *Handover) IsActive() bool {
	return !h.Status.IsTerminal()
}

// IsParticipant reports whether userID is the requester or the responder
func (h *Handover) IsParticipant(userID uuid.UUID) bool {
	return h.RequesterID == userID || h.ResponderID == userID
}

// Counterparty returns the other participant
func (h *Handover) Counterparty(userID uuid.UUID) uuid.UUID {
	if h.RequesterID == userID {
		return h.ResponderID
	}
	return h.RequesterID
}

// CanView reports whether the user may read the handover
func (h *Handover) CanView(userID uuid.UUID, role user.Role) bool {
	return h.IsParticipant(userID) || user.Allowed(role, user.OpHandoverQueue)
}

// ListFilter narrows handover lists
type ListFilter struct {
	Status      Status
	Method      Method
	RequesterID uuid.UUID
	ResponderID uuid.UUID
}
