package item

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/middleware"
)

// LostRoutes returns the /lost router
func (h *Handler) LostRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.With(middleware.RequireOperation(user.OpLostCreate)).Post("/", h.CreateLost)
	r.With(middleware.RequireOperation(user.OpLostReadOwn)).Get("/my", h.ListMyLost)
	r.Get("/{id}", h.GetLost)
	r.With(middleware.RequireOperation(user.OpLostUpdate)).Put("/{id}", h.UpdateLost)
	r.With(middleware.RequireOperation(user.OpLostUpdate)).Post("/{id}/photo", h.UploadLostPhoto)
	r.With(middleware.RequireOperation(user.OpLostDelete)).Delete("/{id}", h.DeleteLost)

	return r
}

// FoundRoutes returns the /found router
func (h *Handler) FoundRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.ListFound)
	r.With(middleware.RequireOperation(user.OpFoundCreate)).Post("/", h.CreateFound)
	r.Get("/my", h.ListMyFound)
	r.Get("/{id}", h.GetFound)
	r.With(middleware.RequireOperation(user.OpFoundUpdate)).Put("/{id}", h.UpdateFound)
	r.With(middleware.RequireOperation(user.OpFoundUpdate)).Post("/{id}/photo", h.UploadFoundPhoto)
	r.With(middleware.RequireOperation(user.OpFoundStorage)).Post("/{id}/storage", h.UpdateStorage)
	r.With(middleware.RequireOperation(user.OpFoundStatus)).Put("/{id}/status", h.UpdateFoundStatus)
	r.With(middleware.RequireOperation(user.OpFoundDelete)).Delete("/{id}", h.DeleteFound)

	return r
}
