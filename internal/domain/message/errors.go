package message

import "github.com/campuslf/lostfound-api/internal/pkg/apperror"

var (
	ErrMessageNotFound  = apperror.NotFound("message not found")
	ErrHandoverNotFound = apperror.NotFound("handover not found")
	ErrNotParticipant   = apperror.Forbidden("only handover participants can access its messages")
	ErrHandoverCanceled = apperror.Conflict("handover is canceled")
	ErrEmptyContent     = apperror.Validation("message content is required")
	ErrContentTooLong   = apperror.Validation("message must be at most 2000 characters")
	ErrReadOwnMessage   = apperror.Forbidden("cannot mark your own message as read")
	ErrRateLimited      = apperror.New(apperror.KindRateLimited, "too many messages, please slow down")
)
