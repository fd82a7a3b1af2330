package item

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/errorhandler"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
	"github.com/campuslf/lostfound-api/internal/pkg/storage"
	"github.com/campuslf/lostfound-api/internal/pkg/validator"
)

// Handler handles lost and found HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates item handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
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

// CreateLost handles POST /lost
func (h *Handler) CreateLost(w http.ResponseWriter, r *http.Request) {
	var req CreateLostRequest
	if !decode(w, r, &req) {
		return
	}

	l, err := h.service.CreateLost(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}
	response.Created(w, LostItemResponseFromEntity(l))
}

// ListMyLost handles GET /lost/my
func (h *Handler) ListMyLost(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	items, total, err := h.service.ListMyLost(r.Context(), middleware.GetUserID(r.Context()), page)
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}

	out := make([]*LostItemResponse, len(items))
	for i, l := range items {
		out[i] = LostItemResponseFromEntity(l)
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Size))
}

// GetLost handles GET /lost/{id}
func (h *Handler) GetLost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	l, err := h.service.GetLost(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx))
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, LostItemResponseFromEntity(l))
}

// UpdateLost handles PUT /lost/{id}
func (h *Handler) UpdateLost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdateLostRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	l, err := h.service.UpdateLost(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx), &req)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, LostItemResponseFromEntity(l))
}

// DeleteLost handles DELETE /lost/{id}
func (h *Handler) DeleteLost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.service.DeleteLost(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx)); err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.NoContent(w)
}

// CreateFound handles POST /found
func (h *Handler) CreateFound(w http.ResponseWriter, r *http.Request) {
	var req CreateFoundRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	f, err := h.service.CreateFound(ctx, middleware.GetUserID(ctx), middleware.GetRole(ctx), &req)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.Created(w, FoundItemResponseFromEntity(f))
}

// ListFound handles GET /found?q&category&status&page&size&sort
func (h *Handler) ListFound(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := FoundFilter{
		Query:    query.Get("q"),
		Category: Category(query.Get("category")),
		Status:   FoundStatus(query.Get("status")),
	}
	if filter.Category != "" && validator.ValidateVar(string(filter.Category), "category") != nil {
		response.BadRequest(w, "Unknown category")
		return
	}
	if filter.Status != "" && validator.ValidateVar(string(filter.Status), "oneof=REGISTERED STORED IN_HANDOVER HANDED_OVER DISCARDED") != nil {
		response.BadRequest(w, "Unknown status")
		return
	}

	page := pagination.FromRequest(r)
	items, total, err := h.service.ListFound(r.Context(), filter, ParseFoundSort(query.Get("sort")), page, middleware.GetRole(r.Context()))
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}

	out := make([]*FoundItemResponse, len(items))
	for i, f := range items {
		out[i] = FoundItemResponseFromEntity(f)
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Size))
}

// ListMyFound handles GET /found/my
func (h *Handler) ListMyFound(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	items, total, err := h.service.ListMyFound(r.Context(), middleware.GetUserID(r.Context()), page)
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}

	out := make([]*FoundItemResponse, len(items))
	for i, f := range items {
		out[i] = FoundItemResponseFromEntity(f)
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Size))
}

// GetFound handles GET /found/{id}
func (h *Handler) GetFound(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	f, err := h.service.GetFound(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx))
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, FoundItemResponseFromEntity(f))
}

// UpdateFound handles PUT /found/{id}
func (h *Handler) UpdateFound(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdateFoundRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	f, err := h.service.UpdateFound(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx), &req)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, FoundItemResponseFromEntity(f))
}

// UpdateStorage handles POST /found/{id}/storage
func (h *Handler) UpdateStorage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdateStorageRequest
	if !decode(w, r, &req) {
		return
	}

	f, err := h.service.UpdateStorage(r.Context(), id, &req)
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}
	response.OK(w, FoundItemResponseFromEntity(f))
}

// UpdateFoundStatus handles PUT /found/{id}/status
func (h *Handler) UpdateFoundStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdateFoundStatusRequest
	if !decode(w, r, &req) {
		return
	}

	f, err := h.service.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		errorhandler.HandleServiceError(r.Context(), w, err)
		return
	}
	response.OK(w, FoundItemResponseFromEntity(f))
}

// DeleteFound handles DELETE /found/{id}
func (h *Handler) DeleteFound(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.service.DeleteFound(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx)); err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.NoContent(w)
}

// UploadLostPhoto handles POST /lost/{id}/photo
func (h *Handler) UploadLostPhoto(w http.ResponseWriter, r *http.Request) {
	h.uploadPhoto(w, r, KindLost)
}

// UploadFoundPhoto handles POST /found/{id}/photo
func (h *Handler) UploadFoundPhoto(w http.ResponseWriter, r *http.Request) {
	h.uploadPhoto(w, r, KindFound)
}

func (h *Handler) uploadPhoto(w http.ResponseWriter, r *http.Request, kind Kind) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(storage.MaxPhotoSize); err != nil {
		response.BadRequest(w, "Expected multipart form with a file up to 10MB")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Missing file field")
		return
	}
	defer file.Close()

	ctx := r.Context()
	photo, err := h.service.UploadPhoto(ctx, kind, id, middleware.GetUserID(ctx), middleware.GetRole(ctx), file)
	if err != nil {
		errorhandler.HandleServiceError(ctx, w, err)
		return
	}
	response.OK(w, photo)
}
