package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/errorhandler"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
)

// Handler handles admin HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates admin handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Statistics handles GET /admin/statistics?startDate=&endDate=
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	period, err := h.service.ParsePeriod(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}

	stats, err := h.service.GetStatistics(ctx, period)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, stats)
}

// Routes returns the statistics router, mounted at /admin/statistics
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireAdmin())

	r.Get("/", h.Statistics)

	return r
}
