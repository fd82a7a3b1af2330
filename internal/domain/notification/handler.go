package notification

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/errorhandler"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
)

// Handler handles notification HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, unreadOnly bool) {
	userID := middleware.GetUserID(r.Context())
	page := pagination.FromRequest(r)

	notifications, total, err := h.service.List(r.Context(), userID, unreadOnly, page)
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}

	items := make([]*NotificationResponse, len(notifications))
	for i, n := range notifications {
		items[i] = NotificationResponseFromEntity(n)
	}

	response.WithMeta(w, items, response.NewMeta(total, page.Page, page.Size))
}

// ListMy handles GET /notifications/my
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListMyUnread handles GET /notifications/my/unread
func (h *Handler) ListMyUnread(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// GetUnreadCount handles GET /notifications/my/unread/count
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	count, err := h.service.GetUnreadCount(r.Context(), userID)
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}
	response.OK(w, UnreadCountResponse{UnreadCount: count})
}

// MarkAsRead handles PUT /notifications/{id}/read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	if err := h.service.MarkAsRead(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// MarkAllAsRead handles PUT /notifications/read-all
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.MarkAllAsRead(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}

	response.OK(w, map[string]int64{"updated": updated})
}

// Delete handles DELETE /notifications/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}

	response.NoContent(w)
}

// Routes returns notification router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/my", h.ListMy)
	r.Get("/my/unread", h.ListMyUnread)
	r.Get("/my/unread/count", h.GetUnreadCount)
	r.Put("/read-all", h.MarkAllAsRead)
	r.Put("/{id}/read", h.MarkAsRead)
	r.Delete("/{id}", h.Delete)

	return r
}
