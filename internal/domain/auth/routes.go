package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts /auth. register, login and refresh are public;
// logout and me need a valid access token.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)

	r.With(authMiddleware).Post("/logout", h.Logout)
	r.With(authMiddleware).Get("/me", h.Me)

	return r
}
