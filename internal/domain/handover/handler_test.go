package handover

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
)

func routerAs(h *Handler, id uuid.UUID, role user.Role) http.Handler {
	r := chi.NewRouter()
	r.Mount("/handovers", h.Routes(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), id, role)))
		})
	}))
	return r
}

func TestHandlerTransitionErrorCarriesDetails(t *testing.T) {
	f := newFixture(t, item.CategoryBag)
	ho := f.create(t, MethodMeet)
	h := NewHandler(f.svc)

	w := httptest.NewRecorder()
	routerAs(h, f.loser, user.RoleLoser).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/handovers/"+ho.ID.String()+"/complete", nil))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Details["current_state"] != string(StatusRequested) || resp.Error.Details["action"] != "complete" {
		t.Fatalf("unexpected error body %s", w.Body.String())
	}
}

func TestHandlerRoleGate(t *testing.T) {
	f := newFixture(t, item.CategoryBag)
	ho := f.create(t, MethodOffice)
	h := NewHandler(f.svc)

	tests := []struct {
		name string
		role user.Role
		path string
		want int
	}{
		{"loser cannot approve", user.RoleLoser, "/approve", http.StatusForbidden},
		{"office cannot verify", user.RoleOffice, "/verify", http.StatusForbidden},
		{"office approves from requested", user.RoleOffice, "/approve", http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			routerAs(h, uuid.New(), tt.role).ServeHTTP(w,
				httptest.NewRequest(http.MethodPost, "/handovers/"+ho.ID.String()+tt.path, nil))
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestHandlerCreateValidation(t *testing.T) {
	f := newFixture(t, item.CategoryBag)
	h := NewHandler(f.svc)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"bad method", `{"lost_id":"` + f.lost.ID.String() + `","found_id":"` + f.found.ID.String() + `","method":"DRONE"}`, http.StatusUnprocessableEntity},
		{"ok", `{"lost_id":"` + f.lost.ID.String() + `","found_id":"` + f.found.ID.String() + `","method":"MEET"}`, http.StatusCreated},
		{"duplicate", `{"lost_id":"` + f.lost.ID.String() + `","found_id":"` + f.found.ID.String() + `","method":"MEET"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			routerAs(h, f.loser, user.RoleLoser).ServeHTTP(w,
				httptest.NewRequest(http.MethodPost, "/handovers", strings.NewReader(tt.body)))
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandlerReasonRequiredIs422(t *testing.T) {
	f := newFixture(t, item.CategoryBag)
	ho := f.create(t, MethodMeet)
	h := NewHandler(f.svc)

	w := httptest.NewRecorder()
	routerAs(h, f.finder, user.RoleFinder).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/handovers/"+ho.ID.String()+"/reject", strings.NewReader(`{"reason":""}`)))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}
