package matching

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/errorhandler"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
)

// Handler handles matching HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates matching handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func parseTopN(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("topN")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxTopN {
		response.ValidationError(w, map[string]string{"topN": "must be between 1 and 50"})
		return 0, false
	}
	return n, true
}

// MatchLost handles GET /matching/lost/{lostId}
func (h *Handler) MatchLost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "lostId"))
	if err != nil {
		response.BadRequest(w, "Invalid lost item ID")
		return
	}
	topN, ok := parseTopN(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	candidates, err := h.service.MatchLost(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx), topN)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, foundCandidatesResponse(candidates))
}

// MatchFound handles GET /matching/found/{foundId}
func (h *Handler) MatchFound(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "foundId"))
	if err != nil {
		response.BadRequest(w, "Invalid found item ID")
		return
	}
	topN, ok := parseTopN(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	candidates, err := h.service.MatchFound(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx), topN)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, lostCandidatesResponse(candidates))
}

// Routes returns matching router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireOperation(user.OpMatchingRun))

	r.Get("/lost/{lostId}", h.MatchLost)
	r.Get("/found/{foundId}", h.MatchFound)

	return r
}
