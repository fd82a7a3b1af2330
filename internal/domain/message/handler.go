package message

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/errorhandler"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
	"github.com/campuslf/lostfound-api/internal/pkg/validator"
)

// Handler handles message HTTP requests and the websocket endpoint
type Handler struct {
	service  *Service
	hub      *Hub
	limiter  Limiter
	upgrader websocket.Upgrader
}

// NewHandler creates message handler. An empty allowedOrigins accepts any origin.
func NewHandler(service *Service, hub *Hub, wsLimiter Limiter, allowedOrigins []string) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		limiter: wsLimiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowedOrigins) == 0 || origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
				return false
			},
		},
	}
}

func parseID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// Send handles POST /messages
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	msg, err := h.service.Send(ctx, userID, uuid.MustParse(req.HandoverID), req.Content)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.Created(w, MessageResponseFromEntity(msg, userID))
}

// ListByHandover handles GET /messages/handover/{id}
func (h *Handler) ListByHandover(w http.ResponseWriter, r *http.Request) {
	handoverID, ok := parseID(w, r, "handover")
	if !ok {
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	page := pagination.FromRequest(r)
	messages, total, err := h.service.List(ctx, userID, handoverID, page)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}

	out := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = MessageResponseFromEntity(m, userID)
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Size))
}

// MarkAsRead handles PUT /messages/{id}/read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	messageID, ok := parseID(w, r, "message")
	if !ok {
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	msg, err := h.service.MarkRead(ctx, userID, messageID)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, MessageResponseFromEntity(msg, userID))
}

// MarkAllAsRead handles PUT /messages/handover/{id}/read-all
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	handoverID, ok := parseID(w, r, "handover")
	if !ok {
		return
	}

	ctx := r.Context()
	n, err := h.service.MarkAllRead(ctx, middleware.GetUserID(ctx), handoverID)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, map[string]int64{"updated": n})
}

// UnreadCount handles GET /messages/handover/{id}/unread/count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	handoverID, ok := parseID(w, r, "handover")
	if !ok {
		return
	}

	ctx := r.Context()
	count, err := h.service.UnreadCount(ctx, middleware.GetUserID(ctx), handoverID)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, UnreadCountResponse{HandoverID: handoverID, UnreadCount: count})
}

// Routes returns message router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Send)
	r.Put("/{id}/read", h.MarkAsRead)
	r.Get("/handover/{id}", h.ListByHandover)
	r.Put("/handover/{id}/read-all", h.MarkAllAsRead)
	r.Get("/handover/{id}/unread/count", h.UnreadCount)

	return r
}

// WSRoute serves /ws. Browsers cannot set headers on the upgrade request,
// so the access token travels as ?token= and is moved into Authorization.
func (h *Handler) WSRoute(authMiddleware func(http.Handler) http.Handler) http.Handler {
	protected := authMiddleware(http.HandlerFunc(h.WebSocket))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := r.URL.Query().Get("token"); token != "" && r.Header.Get("Authorization") == "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		protected.ServeHTTP(w, r)
	})
}
