package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/apperror"
	"github.com/campuslf/lostfound-api/internal/pkg/jwt"
	"github.com/campuslf/lostfound-api/internal/pkg/password"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*user.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return user.ErrUsernameAlreadyExists
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: map[string]uuid.UUID{}}
}

func (m *memTokenStore) Save(ctx context.Context, hash string, userID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[hash] = userID
	return nil
}

func (m *memTokenStore) Take(ctx context.Context, hash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[hash]
	if !ok {
		return uuid.Nil, ErrTokenNotFound
	}
	delete(m.tokens, hash)
	return id, nil
}

func (m *memTokenStore) Delete(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, hash)
	return nil
}

func (m *memTokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, id := range m.tokens {
		if id == userID {
			delete(m.tokens, h)
		}
	}
	return nil
}

func newTestService() (*Service, *fakeUserRepo, *memTokenStore) {
	users := newFakeUserRepo()
	tokens := newMemTokenStore()
	jwtSvc := jwt.NewService("test-secret", 15*time.Minute, 24*time.Hour)
	return NewService(users, jwtSvc, tokens), users, tokens
}

func seedUser(t *testing.T, repo *fakeUserRepo, username, pass string, role user.Role, status user.Status) *user.User {
	t.Helper()
	hash, err := password.Hash(pass)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &user.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Nickname:     username,
		Role:         role,
		Status:       status,
		Affiliation:  user.AffiliationStaff,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return u
}

func registerReq(username string, role user.Role) *RegisterRequest {
	return &RegisterRequest{
		Username:    username,
		Password:    "correct-horse",
		Nickname:    "<b>Kim</b>",
		Role:        string(role),
		Affiliation: string(user.AffiliationStudent),
	}
}

func TestRegisterIssuesTokens(t *testing.T) {
	svc, repo, tokens := newTestService()

	resp, err := svc.Register(context.Background(), registerReq("  Kim.Lee ", user.RoleLoser))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Username != "kim.lee" {
		t.Fatalf("expected normalized username, got %q", resp.User.Username)
	}
	if resp.User.Nickname != "Kim" {
		t.Fatalf("expected sanitized nickname, got %q", resp.User.Nickname)
	}
	if resp.User.Status != string(user.StatusActive) {
		t.Fatalf("expected ACTIVE, got %s", resp.User.Status)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" || resp.Tokens.TokenType != "Bearer" {
		t.Fatalf("unexpected tokens: %+v", resp.Tokens)
	}
	if resp.Tokens.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expires_in %d", resp.Tokens.ExpiresIn)
	}

	stored := repo.users[resp.User.ID]
	if stored == nil || stored.PasswordHash == "correct-horse" {
		t.Fatalf("password must be stored hashed")
	}
	if _, ok := tokens.tokens[jwt.HashRefreshToken(resp.Tokens.RefreshToken)]; !ok {
		t.Fatalf("refresh token hash not stored")
	}
}

func TestRegisterRejectsStaffRoles(t *testing.T) {
	svc, _, _ := newTestService()

	for _, role := range []user.Role{user.RoleOffice, user.RoleSecurity, user.RoleAdmin, "GUEST"} {
		_, err := svc.Register(context.Background(), registerReq("someone", role))
		if !errors.Is(err, ErrInvalidRole) {
			t.Fatalf("role %s: expected ErrInvalidRole, got %v", role, err)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerReq("finder1", user.RoleFinder)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, registerReq("FINDER1", user.RoleFinder))
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, repo, _ := newTestService()
	seedUser(t, repo, "office", "s3cret-pass", user.RoleOffice, user.StatusActive)
	seedUser(t, repo, "blocked", "s3cret-pass", user.RoleFinder, user.StatusBlocked)

	tests := []struct {
		name     string
		username string
		password string
		kind     apperror.Kind
	}{
		{"ok", "office", "s3cret-pass", ""},
		{"case insensitive username", " OFFICE ", "s3cret-pass", ""},
		{"wrong password", "office", "nope-nope", apperror.KindAuthentication},
		{"unknown user", "ghost", "s3cret-pass", apperror.KindAuthentication},
		{"blocked", "blocked", "s3cret-pass", apperror.KindAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(context.Background(), &LoginRequest{Username: tt.username, Password: tt.password})
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("login: %v", err)
				}
				if resp.User.Role != string(user.RoleOffice) {
					t.Fatalf("unexpected role %s", resp.User.Role)
				}
				return
			}
			if apperror.KindOf(err) != tt.kind {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo, _ := newTestService()
	seedUser(t, repo, "courier", "s3cret-pass", user.RoleCourier, user.StatusActive)
	ctx := context.Background()

	first, err := svc.Login(ctx, &LoginRequest{Username: "courier", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := svc.Refresh(ctx, first.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.Tokens.RefreshToken == first.Tokens.RefreshToken {
		t.Fatalf("refresh token must rotate")
	}

	if _, err := svc.Refresh(ctx, first.Tokens.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("reused token: expected ErrInvalidRefreshToken, got %v", err)
	}
	if _, err := svc.Refresh(ctx, ""); !errors.Is(err, ErrRefreshTokenRequired) {
		t.Fatalf("empty token: expected ErrRefreshTokenRequired, got %v", err)
	}
}

func TestRefreshBlockedUser(t *testing.T) {
	svc, repo, _ := newTestService()
	u := seedUser(t, repo, "loser", "s3cret-pass", user.RoleLoser, user.StatusActive)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &LoginRequest{Username: "loser", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	u.Status = user.StatusBlocked

	if _, err := svc.Refresh(ctx, resp.Tokens.RefreshToken); !errors.Is(err, ErrUserBlocked) {
		t.Fatalf("expected ErrUserBlocked, got %v", err)
	}
}

func TestLogoutAndRevokeAll(t *testing.T) {
	svc, repo, tokens := newTestService()
	u := seedUser(t, repo, "finder", "s3cret-pass", user.RoleFinder, user.StatusActive)
	ctx := context.Background()

	a, _ := svc.Login(ctx, &LoginRequest{Username: "finder", Password: "s3cret-pass"})
	b, _ := svc.Login(ctx, &LoginRequest{Username: "finder", Password: "s3cret-pass"})
	c, _ := svc.Login(ctx, &LoginRequest{Username: "finder", Password: "s3cret-pass"})

	if err := svc.Logout(ctx, a.Tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, a.Tokens.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("logged out token still valid: %v", err)
	}

	if err := svc.RevokeAll(ctx, u.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(tokens.tokens) != 0 {
		t.Fatalf("expected no tokens left, got %d", len(tokens.tokens))
	}
	for _, resp := range []*AuthResponse{b, c} {
		if _, err := svc.Refresh(ctx, resp.Tokens.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
			t.Fatalf("revoked token still valid: %v", err)
		}
	}
}

func newTestRouter(svc *Service, identity uuid.UUID, role user.Role) http.Handler {
	fakeAuth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithIdentity(r.Context(), identity, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	r := chi.NewRouter()
	r.Mount("/auth", NewHandler(svc).Routes(fakeAuth))
	return r
}

func TestHandlerStatusCodes(t *testing.T) {
	svc, repo, _ := newTestService()
	me := seedUser(t, repo, "security", "s3cret-pass", user.RoleSecurity, user.StatusActive)
	router := newTestRouter(svc, me.ID, me.Role)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"register ok", http.MethodPost, "/auth/register",
			`{"username":"new_user","password":"long-enough","nickname":"N","role":"FINDER","affiliation":"STUDENT"}`, http.StatusCreated},
		{"register staff role", http.MethodPost, "/auth/register",
			`{"username":"sneaky","password":"long-enough","nickname":"N","role":"ADMIN","affiliation":"STAFF"}`, http.StatusUnprocessableEntity},
		{"register short password", http.MethodPost, "/auth/register",
			`{"username":"short","password":"x","nickname":"N","role":"LOSER","affiliation":"STUDENT"}`, http.StatusUnprocessableEntity},
		{"register bad json", http.MethodPost, "/auth/register", `{`, http.StatusBadRequest},
		{"register taken", http.MethodPost, "/auth/register",
			`{"username":"security","password":"long-enough","nickname":"N","role":"LOSER","affiliation":"STUDENT"}`, http.StatusConflict},
		{"login ok", http.MethodPost, "/auth/login", `{"username":"security","password":"s3cret-pass"}`, http.StatusOK},
		{"login wrong", http.MethodPost, "/auth/login", `{"username":"security","password":"wrong-pass"}`, http.StatusUnauthorized},
		{"refresh unknown", http.MethodPost, "/auth/refresh", `{"refresh_token":"abc"}`, http.StatusUnauthorized},
		{"logout", http.MethodPost, "/auth/logout", `{"refresh_token":"abc"}`, http.StatusNoContent},
		{"me", http.MethodGet, "/auth/me", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}
