package handover

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/errorhandler"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
	"github.com/campuslf/lostfound-api/internal/pkg/validator"
)

// Handler handles handover HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates handover handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid handover ID")
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return false
	}
	if errs := validator.Validate(v); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, ho *Handover, err error) {
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}
	response.OK(w, HandoverResponseFromEntity(ho))
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, items []*Handover, total int, page pagination.Params, err error) {
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}
	out := make([]*HandoverResponse, len(items))
	for i, ho := range items {
		out[i] = HandoverResponseFromEntity(ho)
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Size))
}

// Create handles POST /handovers
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	ho, err := h.service.Create(ctx, middleware.GetUserID(ctx), middleware.GetRole(ctx), &req)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.Created(w, HandoverResponseFromEntity(ho))
}

// Get handles GET /handovers/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	detail, err := h.service.Get(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx))
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}

	resp := HandoverResponseFromEntity(detail.Handover)
	if u := detail.Counterparty; u != nil {
		resp.Counterparty = &ContactResponse{
			UserID:   u.ID,
			Nickname: u.Nickname,
			Phone:    u.Phone.String,
			Email:    u.Email.String,
		}
	}
	response.OK(w, resp)
}

// List handles GET /handovers (staff queue)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Status: Status(q.Get("status")), Method: Method(q.Get("method"))}
	errs := map[string]string{}
	if filter.Status != "" && !validStatus(filter.Status) {
		errs["status"] = "Invalid handover status"
	}
	if filter.Method != "" && validator.ValidateVar(string(filter.Method), "handover_method") != nil {
		errs["method"] = "Invalid handover method"
	}
	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	page := pagination.FromRequest(r)
	items, total, err := h.service.ListQueue(r.Context(), filter, page)
	h.writeList(w, r, items, total, page, err)
}

func validStatus(s Status) bool {
	switch s {
	case StatusRequested, StatusAccepted, StatusVerified, StatusApproved, StatusScheduled, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// ListMyRequests handles GET /handovers/my-requests
func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	items, total, err := h.service.ListMyRequests(r.Context(), middleware.GetUserID(r.Context()), page)
	h.writeList(w, r, items, total, page, err)
}

// ListMyResponses handles GET /handovers/my-responses
func (h *Handler) ListMyResponses(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	items, total, err := h.service.ListMyResponses(r.Context(), middleware.GetUserID(r.Context()), page)
	h.writeList(w, r, items, total, page, err)
}

type simpleAction func(ctx context.Context, id, actorID uuid.UUID, role user.Role) (*Handover, error)

func (h *Handler) simple(action simpleAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		ctx := r.Context()
		ho, err := action(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx))
		h.respond(w, r, ho, err)
	}
}

type reasonAction func(ctx context.Context, id, actorID uuid.UUID, role user.Role, reason string) (*Handover, error)

func (h *Handler) withReason(action reasonAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		var req ReasonRequest
		if !decode(w, r, &req) {
			return
		}
		ctx := r.Context()
		ho, err := action(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx), req.Reason)
		h.respond(w, r, ho, err)
	}
}

// Schedule handles POST /handovers/{id}/schedule
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req ScheduleRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	ho, err := h.service.Schedule(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx), &req)
	h.respond(w, r, ho, err)
}

// Routes returns handover router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.With(middleware.RequireOperation(user.OpHandoverCreate)).Post("/", h.Create)
	r.With(middleware.RequireOperation(user.OpHandoverQueue)).Get("/", h.List)
	r.Get("/my-requests", h.ListMyRequests)
	r.Get("/my-responses", h.ListMyResponses)
	r.Get("/{id}", h.Get)

	r.With(middleware.RequireOperation(user.OpHandoverAccept)).Post("/{id}/accept", h.simple(h.service.Accept))
	r.With(middleware.RequireOperation(user.OpHandoverReject)).Post("/{id}/reject", h.withReason(h.service.Reject))
	r.With(middleware.RequireOperation(user.OpHandoverVerify)).Post("/{id}/verify", h.simple(h.service.Verify))
	r.With(middleware.RequireOperation(user.OpHandoverApprove)).Post("/{id}/approve", h.simple(h.service.Approve))
	r.With(middleware.RequireOperation(user.OpHandoverSchedule)).Post("/{id}/schedule", h.Schedule)
	r.With(middleware.RequireOperation(user.OpHandoverComplete)).Post("/{id}/complete", h.simple(h.service.Complete))
	r.With(middleware.RequireOperation(user.OpHandoverCancel)).Post("/{id}/cancel", h.withReason(h.service.Cancel))

	return r
}
