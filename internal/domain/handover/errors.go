package handover

import (
	"fmt"

	"github.com/campuslf/lostfound-api/internal/pkg/apperror"
)

var (
	ErrHandoverNotFound     = apperror.NotFound("handover not found")
	ErrNotAllowed           = apperror.Forbidden("not allowed to perform this action on the handover")
	ErrNotLostOwner         = apperror.Forbidden("only the owner of the lost item can request a handover")
	ErrOwnFoundItem         = apperror.Validation("cannot request your own found item")
	ErrActiveHandoverExists = apperror.Conflict("an active handover already exists for this lost item or pairing")
	ErrLostNotOpen          = apperror.Conflict("lost item is not open")
	ErrFoundUnavailable     = apperror.Conflict("found item is not available")
	ErrFoundHeld            = apperror.Conflict("found item is already held by another handover")
	ErrReasonRequired       = apperror.Validation("reason is required")
	ErrMeetPlaceRequired    = apperror.Validation("meet place is required")
	ErrScheduleInPast       = apperror.Validation("schedule time must be in the future")
)

// TransitionError is returned when an action is not legal from the current state
type TransitionError struct {
	Current Status
	Action  Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s handover in state %s", e.Action, e.Current)
}

func (e *TransitionError) Unwrap() error {
	return apperror.ErrInvalidTransition
}

// ErrorDetails implements apperror.Detailed
func (e *TransitionError) ErrorDetails() map[string]string {
	return map[string]string{"current_state": string(e.Current), "action": string(e.Action)}
}
