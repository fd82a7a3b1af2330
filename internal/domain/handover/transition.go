package handover

import (
	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/user"
)

type transition struct {
	op     user.Operation
	target Status
}

var transitions = map[Action]transition{
	ActionAccept:   {op: user.OpHandoverAccept, target: StatusAccepted},
	ActionReject:   {op: user.OpHandoverReject, target: StatusCanceled},
	ActionVerify:   {op: user.OpHandoverVerify, target: StatusVerified},
	ActionApprove:  {op: user.OpHandoverApprove, target: StatusApproved},
	ActionSchedule: {op: user.OpHandoverSchedule, target: StatusScheduled},
	ActionComplete: {op: user.OpHandoverComplete, target: StatusCompleted},
	ActionCancel:   {op: user.OpHandoverCancel, target: StatusCanceled},
}

// Sources returns the states an action may start from. The security step only
// exists for categories that need it, and the office step only for methods
// that go through the office.
func Sources(action Action, method Method, securityCheck bool) []Status {
	// state reached once the optional security check is behind us
	checked := StatusAccepted
	if securityCheck {
		checked = StatusVerified
	}

	switch action {
	case ActionAccept, ActionReject:
		return []Status{StatusRequested}
	case ActionVerify:
		if !securityCheck {
			return nil
		}
		return []Status{StatusAccepted}
	case ActionApprove:
		if !method.NeedsOfficeApproval() {
			return nil
		}
		return []Status{checked}
	case ActionSchedule:
		if method.NeedsOfficeApproval() {
			return []Status{StatusApproved}
		}
		return []Status{checked}
	case ActionComplete:
		return []Status{StatusScheduled}
	case ActionCancel:
		return []Status{StatusRequested, StatusAccepted, StatusVerified, StatusApproved, StatusScheduled}
	}
	return nil
}

// CanApply reports whether action is legal from the current status
func CanApply(action Action, current Status, method Method, securityCheck bool) bool {
	for _, s := range Sources(action, method, securityCheck) {
		if s == current {
			return true
		}
	}
	return false
}

// authorized checks the role matrix and the participant rules of an action
func authorized(action Action, h *Handover, actorID uuid.UUID, role user.Role) bool {
	t, ok := transitions[action]
	if !ok {
		return false
	}

	switch action {
	case ActionAccept, ActionReject:
		return user.Allowed(role, t.op) && h.ResponderID == actorID
	case ActionVerify, ActionApprove:
		return user.Allowed(role, t.op)
	case ActionSchedule, ActionComplete:
		return h.IsParticipant(actorID)
	case ActionCancel:
		return h.IsParticipant(actorID) || role == user.RoleAdmin
	}
	return false
}
