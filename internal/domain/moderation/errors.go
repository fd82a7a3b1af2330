package moderation

import "github.com/campuslf/lostfound-api/internal/pkg/apperror"

var (
	ErrReportNotFound  = apperror.NotFound("report not found")
	ErrTargetNotFound  = apperror.NotFound("reported target not found")
	ErrInvalidTarget   = apperror.Validation("target type must be LOST, FOUND or MESSAGE")
	ErrReasonRequired  = apperror.Validation("reason is required")
	ErrCannotReportOwn = apperror.Validation("cannot report your own content")
	ErrNotParticipant  = apperror.Forbidden("only handover participants can report its messages")
	ErrAlreadyResolved = apperror.Conflict("report already resolved with a different action")
	ErrDuplicateReport = apperror.Conflict("report already exists")
)
