package moderation

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/errorhandler"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
	"github.com/campuslf/lostfound-api/internal/pkg/validator"
)

// Handler handles moderation HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates moderation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func parseID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := response.DecodeJSON(r.Body, v); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	if errs := validator.Validate(v); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return false
	}
	return true
}

// CreateReport handles POST /admin/reports.
// 201 for a new report, 200 with the earlier one when the reporter already reported the target.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	report, created, err := h.service.CreateReport(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	if created {
		response.Created(w, ReportResponseFromEntity(report))
		return
	}
	response.OK(w, ReportResponseFromEntity(report))
}

// ListReports handles GET /admin/reports?status=
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	status := ReportStatus(r.URL.Query().Get("status"))
	if status != "" && status != ReportOpen && status != ReportResolved {
		response.ValidationError(w, map[string]string{"status": "must be one of: OPEN RESOLVED"})
		return
	}

	ctx := r.Context()
	page := pagination.FromRequest(r)
	reports, total, err := h.service.ListReports(ctx, status, page)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}

	out := make([]*ReportResponse, len(reports))
	for i, rep := range reports {
		out[i] = ReportResponseFromEntity(rep)
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Size))
}

// GetReport handles GET /admin/reports/{id}
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "report")
	if !ok {
		return
	}

	ctx := r.Context()
	report, target, err := h.service.GetReport(ctx, id)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}

	resp := &ReportDetailResponse{ReportResponse: ReportResponseFromEntity(report)}
	if target != nil {
		switch {
		case target.Lost != nil:
			resp.Lost = item.LostItemResponseFromEntity(target.Lost)
		case target.Found != nil:
			resp.Found = item.FoundItemResponseFromEntity(target.Found)
		case target.Message != nil:
			m := target.Message
			resp.Message = &MessageSnapshot{
				ID:         m.ID,
				HandoverID: m.HandoverID,
				SenderID:   m.SenderID,
				Content:    m.Content,
				IsBlinded:  m.IsBlinded,
				CreatedAt:  m.CreatedAt.Format(time.RFC3339),
			}
		}
	}
	response.OK(w, resp)
}

// ResolveReport handles PUT /admin/reports/{id}/resolve
func (h *Handler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "report")
	if !ok {
		return
	}
	var req ResolveReportRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	report, err := h.service.ResolveReport(ctx, middleware.GetUserID(ctx), id, &req)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, ReportResponseFromEntity(report))
}

func (h *Handler) visibility(blinded bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetType, ok := ParseTargetType(chi.URLParam(r, "type"))
		if !ok {
			response.ValidationError(w, map[string]string{"type": "must be one of: lost found message"})
			return
		}
		id, ok := parseID(w, r, "target")
		if !ok {
			return
		}

		ctx := r.Context()
		if err := h.service.SetBlinded(ctx, middleware.GetUserID(ctx), targetType, id, blinded); err != nil {
			errorhandler.HandleServiceError(ctx, w, err)
			return
		}
		response.OK(w, map[string]interface{}{
			"target_type": targetType,
			"target_id":   id,
			"is_blinded":  blinded,
		})
	}
}

func (h *Handler) userStatus(fn func(ctx context.Context, adminID, userID uuid.UUID) (*user.User, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "user")
		if !ok {
			return
		}

		ctx := r.Context()
		u, err := fn(ctx, middleware.GetUserID(ctx), id)
		if err != nil {
			errorhandler.HandleServiceError(ctx, w, err)
			return
		}
		response.OK(w, &UserStatusResponse{ID: u.ID, Username: u.Username, Role: u.Role, Status: u.Status})
	}
}

// Routes returns the moderation router, mounted under /admin
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.With(middleware.RequireOperation(user.OpReportCreate)).Post("/reports", h.CreateReport)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin())

		r.Get("/reports", h.ListReports)
		r.Get("/reports/{id}", h.GetReport)
		r.Put("/reports/{id}/resolve", h.ResolveReport)

		r.Post("/items/{type}/{id}/blind", h.visibility(true))
		r.Post("/items/{type}/{id}/unblind", h.visibility(false))

		r.Post("/users/{id}/block", h.userStatus(h.service.BlockUser))
		r.Post("/users/{id}/unblock", h.userStatus(h.service.UnblockUser))
	})

	return r
}
