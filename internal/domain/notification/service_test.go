package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/apperror"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
)

type fakeRepo struct {
	items map[uuid.UUID]*Notification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[uuid.UUID]*Notification{}}
}

func (f *fakeRepo) Create(ctx context.Context, n *Notification) error {
	cp := *n
	f.items[n.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return f.items[id], nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page pagination.Params) ([]*Notification, int, error) {
	var out []*Notification
	for _, n := range f.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (f *fakeRepo) CountUnreadByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range f.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	n, ok := f.items[id]
	if !ok || n.UserID != userID {
		return ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (f *fakeRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	var updated int64
	for _, n := range f.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	n, ok := f.items[id]
	if !ok || n.UserID != userID {
		return ErrNotificationNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, n := range f.items {
		if n.IsRead && n.CreatedAt.Before(cutoff) {
			delete(f.items, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, n := range f.items {
		if n.CreatedAt.Before(cutoff) {
			delete(f.items, id)
			deleted++
		}
	}
	return deleted, nil
}

type capturedPush struct {
	userID      uuid.UUID
	unreadCount int
	typ         string
}

type fakePublisher struct {
	pushes []capturedPush
	err    error
}

func (p *fakePublisher) NotifyNew(ctx context.Context, userID uuid.UUID, n *NotificationResponse, unreadCount int) error {
	p.pushes = append(p.pushes, capturedPush{userID: userID, unreadCount: unreadCount, typ: n.Type})
	return p.err
}

func TestNotifyStoresAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, pub)
	ctx := context.Background()

	userID := uuid.New()
	handoverID := uuid.New()
	for i := 0; i < 2; i++ {
		n := New(userID, TypeHandoverRequested, RelatedHandover, handoverID, "Handover requested", "Someone claims your item")
		if err := svc.Notify(ctx, n); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	if len(pub.pushes) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(pub.pushes))
	}
	if pub.pushes[1].unreadCount != 2 || pub.pushes[1].typ != string(TypeHandoverRequested) {
		t.Fatalf("unexpected push %+v", pub.pushes[1])
	}

	count, _ := svc.GetUnreadCount(ctx, userID)
	if count != 2 {
		t.Fatalf("expected 2 unread, got %d", count)
	}
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakePublisher{err: errors.New("socket closed")})

	n := New(uuid.New(), TypeMatchFound, RelatedFound, uuid.New(), "Possible match", "")
	if err := svc.Notify(context.Background(), n); err != nil {
		t.Fatalf("push failure must not fail notify: %v", err)
	}
	if len(repo.items) != 1 {
		t.Fatalf("notification must be stored")
	}
}

func TestMarkAsReadOnlyOwn(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	owner := uuid.New()
	n := New(owner, TypeNewMessage, RelatedMessage, uuid.New(), "New message", "hi")
	_ = svc.Notify(ctx, n)

	if err := svc.MarkAsRead(ctx, n.ID, uuid.New()); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
	if err := svc.MarkAsRead(ctx, n.ID, owner); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if count, _ := svc.GetUnreadCount(ctx, owner); count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
}

func TestCleanupJobRetention(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	add := func(age time.Duration, read bool) uuid.UUID {
		n := New(userID, TypeHandoverCompleted, RelatedHandover, uuid.New(), "Done", "")
		n.CreatedAt = now.Add(-age)
		n.IsRead = read
		_ = repo.Create(context.Background(), n)
		return n.ID
	}
	day := 24 * time.Hour
	oldRead := add(100*day, true)
	oldUnread := add(100*day, false)
	ancientUnread := add(200*day, false)
	recentRead := add(10*day, true)

	job := NewCleanupJob(repo, 90)
	job.now = func() time.Time { return now }

	read, unread, err := job.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if read != 1 || unread != 1 {
		t.Fatalf("expected 1 read and 1 unread deleted, got %d %d", read, unread)
	}
	if _, ok := repo.items[oldRead]; ok {
		t.Fatalf("old read notification must be removed")
	}
	if _, ok := repo.items[ancientUnread]; ok {
		t.Fatalf("ancient unread notification must be removed")
	}
	if _, ok := repo.items[oldUnread]; !ok {
		t.Fatalf("old unread notification must be kept")
	}
	if _, ok := repo.items[recentRead]; !ok {
		t.Fatalf("recent read notification must be kept")
	}
}

func TestWSPublisherPayload(t *testing.T) {
	sender := &captureSender{}
	pub := NewWSPublisher(sender)
	userID := uuid.New()

	resp := NotificationResponseFromEntity(New(userID, TypeReportResolved, RelatedReport, uuid.New(), "Report resolved", ""))
	if err := pub.NotifyNew(context.Background(), userID, resp, 3); err != nil {
		t.Fatalf("notify: %v", err)
	}

	raw, _ := json.Marshal(sender.payload)
	var decoded struct {
		Type string `json:"type"`
		Data struct {
			UnreadCount  int                  `json:"unread_count"`
			Notification NotificationResponse `json:"notification"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sender.userID != userID || decoded.Type != "notification:new" || decoded.Data.UnreadCount != 3 {
		t.Fatalf("unexpected payload %s", raw)
	}
	if decoded.Data.Notification.RelatedType != string(RelatedReport) {
		t.Fatalf("unexpected related type %q", decoded.Data.Notification.RelatedType)
	}
}

type captureSender struct {
	userID  uuid.UUID
	payload any
}

func (c *captureSender) SendToUserJSON(userID uuid.UUID, payload any) error {
	c.userID = userID
	c.payload = payload
	return nil
}

func TestHandlerListAndCount(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	h := NewHandler(svc)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		n := New(userID, TypeNewMessage, RelatedMessage, uuid.New(), "New message", "")
		n.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		n.IsRead = i == 0
		_ = repo.Create(context.Background(), n)
	}

	router := chi.NewRouter()
	router.Mount("/notifications", h.Routes(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), userID, user.RoleLoser)))
		})
	}))

	tests := []struct {
		path      string
		wantTotal int
	}{
		{"/notifications/my?size=2", 3},
		{"/notifications/my/unread", 2},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.path, w.Code)
		}
		var body struct {
			Meta struct {
				Total int `json:"total"`
			} `json:"meta"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body.Meta.Total != tt.wantTotal {
			t.Fatalf("%s: expected total %d, got %d", tt.path, tt.wantTotal, body.Meta.Total)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications/my/unread/count", nil))
	var count struct {
		Data UnreadCountResponse `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &count)
	if count.Data.UnreadCount != 2 {
		t.Fatalf("expected unread 2, got %d", count.Data.UnreadCount)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/notifications/read-all", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("read-all: expected 200, got %d", w.Code)
	}
	if n, _ := svc.GetUnreadCount(context.Background(), userID); n != 0 {
		t.Fatalf("expected 0 unread after read-all, got %d", n)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/notifications/"+uuid.NewString(), nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("delete unknown: expected 404, got %d", w.Code)
	}
}
