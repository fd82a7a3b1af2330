package errorhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/campuslf/lostfound-api/internal/pkg/apperror"
	"github.com/campuslf/lostfound-api/internal/pkg/logger"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
)

// HandleServiceError converts an error returned by a service into a response.
// Business-rule errors keep their kind and message; anything else is logged and hidden behind a 500.
func HandleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		HandleError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
		return
	}

	details := appErr.Details
	var detailed apperror.Detailed
	if errors.As(err, &detailed) {
		details = detailed.ErrorDetails()
	}

	status := appErr.Kind.HTTPStatus()
	logger.FromContext(ctx).Debug().
		Str("error_code", string(appErr.Kind)).
		Int("status_code", status).
		Msg(err.Error())

	response.ErrorWithDetails(w, status, string(appErr.Kind), err.Error(), details)
}

// HandleError logs an error with request context and sends a formatted error response
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("error_code", code).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(message)

	response.Error(w, status, code, message)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	logger.FromContext(ctx).Debug().
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")
}
