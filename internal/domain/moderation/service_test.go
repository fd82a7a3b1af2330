package moderation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/handover"
	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/message"
	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/apperror"
)

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	users     fakeUsers
	publisher *recordingPublisher
	indexer   *recordingIndexer
	revoker   *recordingRevoker

	admin, otherAdmin, loser, finder, stranger uuid.UUID

	lost    *item.LostItem
	found   *item.FoundItem
	message *message.Message
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:       newFakeRepo(),
		publisher:  &recordingPublisher{},
		indexer:    &recordingIndexer{},
		revoker:    &recordingRevoker{},
		admin:      uuid.New(),
		otherAdmin: uuid.New(),
		loser:      uuid.New(),
		finder:     uuid.New(),
		stranger:   uuid.New(),
	}
	f.users = fakeUsers{
		f.admin:      {ID: f.admin, Role: user.RoleAdmin, Status: user.StatusActive},
		f.otherAdmin: {ID: f.otherAdmin, Role: user.RoleAdmin, Status: user.StatusActive},
		f.loser:      {ID: f.loser, Role: user.RoleLoser, Status: user.StatusActive},
		f.finder:     {ID: f.finder, Role: user.RoleFinder, Status: user.StatusActive},
		f.stranger:   {ID: f.stranger, Role: user.RoleLoser, Status: user.StatusActive},
	}

	f.lost = &item.LostItem{ID: uuid.New(), UserID: f.loser, Title: "Black wallet", Status: item.LostOpen}
	f.found = &item.FoundItem{ID: uuid.New(), UserID: f.finder, Title: "Wallet", Status: item.FoundRegistered}
	ho := &handover.Handover{ID: uuid.New(), RequesterID: f.loser, ResponderID: f.finder, Status: handover.StatusAccepted}
	f.message = &message.Message{ID: uuid.New(), HandoverID: ho.ID, SenderID: f.finder, Content: "send money first"}

	for _, id := range []uuid.UUID{f.lost.ID, f.found.ID, f.message.ID} {
		f.repo.state.blinded[id] = false
	}

	items := &fakeItems{
		lost:  map[uuid.UUID]*item.LostItem{f.lost.ID: f.lost},
		found: map[uuid.UUID]*item.FoundItem{f.found.ID: f.found},
	}
	f.svc = NewService(f.repo, items, fakeMessages{f.message.ID: f.message}, fakeHandovers{ho.ID: ho}, f.users, f.publisher)
	f.svc.SetIndexer(f.indexer)
	f.svc.SetSessionRevoker(f.revoker)
	return f
}

func (f *fixture) report(t *testing.T, reporter uuid.UUID, target TargetType, id uuid.UUID) *Report {
	t.Helper()
	rep, created, err := f.svc.CreateReport(context.Background(), reporter, &CreateReportRequest{
		TargetType: string(target),
		TargetID:   id.String(),
		Reason:     "looks like a scam",
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	if !created {
		t.Fatal("expected a new report")
	}
	return rep
}

func TestCreateReportCollapsesDuplicates(t *testing.T) {
	f := newFixture(t)
	first := f.report(t, f.stranger, TargetFound, f.found.ID)

	again, created, err := f.svc.CreateReport(context.Background(), f.stranger, &CreateReportRequest{
		TargetType: "FOUND",
		TargetID:   f.found.ID.String(),
		Reason:     "second try",
	})
	if err != nil {
		t.Fatalf("duplicate report: %v", err)
	}
	if created || again.ID != first.ID {
		t.Fatalf("duplicate should return the first report, got %s created=%v", again.ID, created)
	}
	if len(f.repo.state.reports) != 1 {
		t.Fatalf("expected one stored report, got %d", len(f.repo.state.reports))
	}

	// another reporter gets their own report
	f.report(t, f.loser, TargetFound, f.found.ID)
}

func TestCreateReportRules(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name     string
		reporter uuid.UUID
		target   string
		id       uuid.UUID
		reason   string
		want     error
	}{
		{"missing lost item", f.stranger, "LOST", uuid.New(), "x", ErrTargetNotFound},
		{"missing message", f.loser, "MESSAGE", uuid.New(), "x", ErrTargetNotFound},
		{"message from outside the handover", f.stranger, "MESSAGE", f.message.ID, "x", ErrNotParticipant},
		{"own lost item", f.loser, "LOST", f.lost.ID, "x", ErrCannotReportOwn},
		{"own message", f.finder, "MESSAGE", f.message.ID, "x", ErrCannotReportOwn},
		{"markup only reason", f.stranger, "LOST", f.lost.ID, "<b></b>", ErrReasonRequired},
		{"unknown target type", f.stranger, "USER", f.lost.ID, "x", ErrInvalidTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.CreateReport(context.Background(), tt.reporter, &CreateReportRequest{
				TargetType: tt.target,
				TargetID:   tt.id.String(),
				Reason:     tt.reason,
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	rep := f.report(t, f.loser, TargetMessage, f.message.ID)
	if rep.Status != ReportOpen {
		t.Fatalf("new report status %s", rep.Status)
	}
}

func TestResolveBlindHidesTargetAndNotifiesReporter(t *testing.T) {
	f := newFixture(t)
	rep := f.report(t, f.stranger, TargetFound, f.found.ID)

	got, err := f.svc.ResolveReport(context.Background(), f.admin, rep.ID, &ResolveReportRequest{Action: "BLIND", AdminNote: "fake listing"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Status != ReportResolved || got.Action.String != "BLIND" || got.ResolvedBy.UUID != f.admin {
		t.Fatalf("unexpected report %+v", got)
	}
	if !f.repo.state.blinded[f.found.ID] {
		t.Fatal("found item should be blinded")
	}
	if len(f.publisher.published) != 1 {
		t.Fatalf("expected one published notification, got %d", len(f.publisher.published))
	}
	n := f.publisher.published[0]
	if n.UserID != f.stranger || n.Type != notification.TypeReportResolved {
		t.Fatalf("notification to %s of %s", n.UserID, n.Type)
	}
	if len(f.indexer.ids) != 1 || f.indexer.ids[0] != f.found.ID {
		t.Fatalf("found item not reindexed: %v", f.indexer.ids)
	}
}

func TestResolveIgnoreLeavesTargetVisible(t *testing.T) {
	f := newFixture(t)
	rep := f.report(t, f.loser, TargetMessage, f.message.ID)

	if _, err := f.svc.ResolveReport(context.Background(), f.admin, rep.ID, &ResolveReportRequest{Action: "IGNORE"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if f.repo.state.blinded[f.message.ID] {
		t.Fatal("IGNORE must not blind")
	}
	if len(f.indexer.ids) != 0 {
		t.Fatal("IGNORE must not touch the index")
	}
}

func TestResolveTwice(t *testing.T) {
	f := newFixture(t)
	rep := f.report(t, f.stranger, TargetLost, f.lost.ID)
	ctx := context.Background()

	if _, err := f.svc.ResolveReport(ctx, f.admin, rep.ID, &ResolveReportRequest{Action: "BLIND"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := f.svc.ResolveReport(ctx, f.otherAdmin, rep.ID, &ResolveReportRequest{Action: "BLIND"}); err != nil {
		t.Fatalf("same action again should be a no-op, got %v", err)
	}
	if len(f.repo.state.notifications) != 1 || len(f.publisher.published) != 1 {
		t.Fatal("replayed resolve must not notify again")
	}
	if f.repo.state.reports[rep.ID].ResolvedBy.UUID != f.admin {
		t.Fatal("replayed resolve must not overwrite the resolver")
	}

	_, err := f.svc.ResolveReport(ctx, f.admin, rep.ID, &ResolveReportRequest{Action: "IGNORE"})
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Fatalf("different action should conflict, got %v", err)
	}
}

func TestResolveBlindAfterTargetDeleted(t *testing.T) {
	f := newFixture(t)
	rep := f.report(t, f.stranger, TargetLost, f.lost.ID)
	delete(f.repo.state.blinded, f.lost.ID)

	got, err := f.svc.ResolveReport(context.Background(), f.admin, rep.ID, &ResolveReportRequest{Action: "BLIND"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Status != ReportResolved || got.Action.String != string(ActionBlind) {
		t.Fatalf("unexpected report %+v", got)
	}
	if f.repo.state.reports[rep.ID].Status != ReportResolved {
		t.Fatal("report must be stored as resolved")
	}
	if len(f.repo.state.notifications) != 1 || len(f.publisher.published) != 1 {
		t.Fatal("reporter must be notified once")
	}
}

func TestResolveUnknownReport(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ResolveReport(context.Background(), f.admin, uuid.New(), &ResolveReportRequest{Action: "IGNORE"})
	if !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDirectBlindAndUnblind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.SetBlinded(ctx, f.admin, TargetLost, f.lost.ID, true); err != nil {
		t.Fatalf("blind: %v", err)
	}
	if !f.repo.state.blinded[f.lost.ID] {
		t.Fatal("lost item should be blinded")
	}
	if err := f.svc.SetBlinded(ctx, f.admin, TargetLost, f.lost.ID, false); err != nil {
		t.Fatalf("unblind: %v", err)
	}
	if f.repo.state.blinded[f.lost.ID] {
		t.Fatal("lost item should be visible again")
	}
	if err := f.svc.SetBlinded(ctx, f.admin, TargetMessage, uuid.New(), true); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("unknown message: %v", err)
	}
}

func TestBlockUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		target uuid.UUID
		want   error
	}{
		{"self", f.admin, user.ErrCannotBlockSelf},
		{"another admin", f.otherAdmin, user.ErrCannotBlockAdmin},
		{"unknown user", uuid.New(), user.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.BlockUser(ctx, f.admin, tt.target); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	u, err := f.svc.BlockUser(ctx, f.admin, f.finder)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if u.Status != user.StatusBlocked || f.users[f.finder].Status != user.StatusBlocked {
		t.Fatal("finder should be blocked")
	}
	if len(f.revoker.revoked) != 1 || f.revoker.revoked[0] != f.finder {
		t.Fatalf("sessions not revoked: %v", f.revoker.revoked)
	}

	u, err = f.svc.UnblockUser(ctx, f.admin, f.finder)
	if err != nil || u.Status != user.StatusActive {
		t.Fatalf("unblock: %+v, %v", u, err)
	}
}

func routerAs(h *Handler, id uuid.UUID, role user.Role) http.Handler {
	r := chi.NewRouter()
	r.Mount("/admin", h.Routes(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), id, role)))
		})
	}))
	return r
}

func TestHandlerReportStatusCodes(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	body := `{"target_type":"LOST","target_id":"` + f.lost.ID.String() + `","reason":"spam"}`

	for _, want := range []int{http.StatusCreated, http.StatusOK} {
		w := httptest.NewRecorder()
		routerAs(h, f.stranger, user.RoleFinder).ServeHTTP(w,
			httptest.NewRequest(http.MethodPost, "/admin/reports", strings.NewReader(body)))
		if w.Code != want {
			t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
		}
	}

	w := httptest.NewRecorder()
	routerAs(h, f.stranger, user.RoleFinder).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/reports", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin listing reports: %d", w.Code)
	}

	w = httptest.NewRecorder()
	routerAs(h, f.admin, user.RoleAdmin).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/reports?status=OPEN", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("admin listing reports: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	routerAs(h, f.admin, user.RoleAdmin).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/admin/items/user/"+f.lost.ID.String()+"/blind", nil))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad target type: %d", w.Code)
	}

	w = httptest.NewRecorder()
	routerAs(h, f.admin, user.RoleAdmin).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/admin/users/"+f.otherAdmin.String()+"/block", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("blocking an admin: %d", w.Code)
	}
}
