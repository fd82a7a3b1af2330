package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/pkg/logger"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
)

// UserLookup is the part of the user repository the gate needs
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// RequireActiveUser rejects requests from blocked accounts.
// Access tokens stay valid until expiry, so the status is checked on every request.
func RequireActiveUser(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == uuid.Nil {
				response.Unauthorized(w, "Authentication required")
				return
			}

			u, err := users.GetByID(r.Context(), userID)
			if err != nil {
				logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to load user status")
				response.InternalError(w)
				return
			}
			if u == nil {
				response.Unauthorized(w, "Authentication required")
				return
			}
			if !u.IsActive() {
				response.Error(w, http.StatusForbidden, "USER_BLOCKED", "Your account has been blocked")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
