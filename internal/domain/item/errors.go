package item

import "github.com/campuslf/lostfound-api/internal/pkg/apperror"

var (
	ErrLostNotFound  = apperror.NotFound("lost item not found")
	ErrFoundNotFound = apperror.NotFound("found item not found")

	ErrNotOwner           = apperror.Forbidden("only the owner can modify this item")
	ErrLostNotEditable    = apperror.Conflict("lost item can only be changed while it is OPEN")
	ErrFoundInHandover    = apperror.Conflict("found item is referenced by an active handover")
	ErrFoundTerminal      = apperror.Conflict("found item was already handed over or discarded")
	ErrHasHandoverHistory = apperror.Conflict("item is referenced by a handover and cannot be deleted")
	ErrInvalidStatus      = apperror.Validation("status can only be set to REGISTERED, STORED or DISCARDED")
	ErrLostInFuture       = apperror.Validation("lost_at cannot be in the future")
	ErrFoundInFuture      = apperror.Validation("found_at cannot be in the future")
	ErrEmptyTitle         = apperror.Validation("title must contain text")
)

// StatusTransitionError is returned when staff try an illegal manual status change
type StatusTransitionError struct {
	Current FoundStatus
	Target  FoundStatus
}

func (e *StatusTransitionError) Error() string {
	return "found item cannot move from " + string(e.Current) + " to " + string(e.Target)
}

func (e *StatusTransitionError) Unwrap() error {
	return apperror.ErrInvalidTransition
}

// ErrorDetails implements apperror.Detailed
func (e *StatusTransitionError) ErrorDetails() map[string]string {
	return map[string]string{"current_state": string(e.Current), "action": "set_status:" + string(e.Target)}
}
