package moderation

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/handover"
	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/message"
	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
)

type fakeState struct {
	reports       map[uuid.UUID]Report
	blinded       map[uuid.UUID]bool
	notifications []*notification.Notification
}

func (s fakeState) clone() fakeState {
	c := fakeState{
		reports:       make(map[uuid.UUID]Report, len(s.reports)),
		blinded:       make(map[uuid.UUID]bool, len(s.blinded)),
		notifications: append([]*notification.Notification(nil), s.notifications...),
	}
	for k, v := range s.reports {
		c.reports[k] = v
	}
	for k, v := range s.blinded {
		c.blinded[k] = v
	}
	return c
}

// fakeRepo keeps reports in memory. blinded holds every known target id.
type fakeRepo struct {
	mu    sync.Mutex
	state fakeState
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{state: fakeState{reports: map[uuid.UUID]Report{}, blinded: map[uuid.UUID]bool{}}}
}

func (r *fakeRepo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := r.state.clone()
	if err := fn(&fakeTx{repo: r}); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

func (r *fakeRepo) Create(_ context.Context, rep *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.state.reports {
		if existing.ReporterID == rep.ReporterID && existing.TargetType == rep.TargetType && existing.TargetID == rep.TargetID {
			return ErrDuplicateReport
		}
	}
	r.state.reports[rep.ID] = *rep
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.state.reports[id]
	if !ok {
		return nil, nil
	}
	return &rep, nil
}

func (r *fakeRepo) GetByReporterTarget(_ context.Context, reporterID uuid.UUID, target TargetType, targetID uuid.UUID) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.state.reports {
		if rep.ReporterID == reporterID && rep.TargetType == target && rep.TargetID == targetID {
			cp := rep
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) List(_ context.Context, status ReportStatus, _ pagination.Params) ([]*Report, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Report
	for _, rep := range r.state.reports {
		if status == "" || rep.Status == status {
			cp := rep
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) LockReport(_ context.Context, id uuid.UUID) (*Report, error) {
	rep, ok := t.repo.state.reports[id]
	if !ok {
		return nil, nil
	}
	return &rep, nil
}

func (t *fakeTx) Resolve(_ context.Context, rep *Report) error {
	t.repo.state.reports[rep.ID] = *rep
	return nil
}

func (t *fakeTx) SetBlinded(_ context.Context, _ TargetType, id uuid.UUID, blinded bool) error {
	if _, ok := t.repo.state.blinded[id]; !ok {
		return ErrTargetNotFound
	}
	t.repo.state.blinded[id] = blinded
	return nil
}

func (t *fakeTx) AddNotification(_ context.Context, n *notification.Notification) error {
	t.repo.state.notifications = append(t.repo.state.notifications, n)
	return nil
}

type fakeItems struct {
	lost  map[uuid.UUID]*item.LostItem
	found map[uuid.UUID]*item.FoundItem
}

func (f *fakeItems) GetLost(_ context.Context, id uuid.UUID) (*item.LostItem, error) {
	return f.lost[id], nil
}

func (f *fakeItems) GetFound(_ context.Context, id uuid.UUID) (*item.FoundItem, error) {
	return f.found[id], nil
}

type fakeMessages map[uuid.UUID]*message.Message

func (f fakeMessages) GetByID(_ context.Context, id uuid.UUID) (*message.Message, error) {
	return f[id], nil
}

type fakeHandovers map[uuid.UUID]*handover.Handover

func (f fakeHandovers) GetByID(_ context.Context, id uuid.UUID) (*handover.Handover, error) {
	return f[id], nil
}

type fakeUsers map[uuid.UUID]*user.User

func (f fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) UpdateStatus(_ context.Context, id uuid.UUID, status user.Status) error {
	f[id].Status = status
	return nil
}

type recordingPublisher struct {
	published []*notification.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, notifications ...*notification.Notification) {
	p.published = append(p.published, notifications...)
}

type recordingIndexer struct {
	ids []uuid.UUID
}

func (i *recordingIndexer) Reindex(_ context.Context, id uuid.UUID) error {
	i.ids = append(i.ids, id)
	return nil
}

type recordingRevoker struct {
	revoked []uuid.UUID
}

func (r *recordingRevoker) RevokeAll(_ context.Context, userID uuid.UUID) error {
	r.revoked = append(r.revoked, userID)
	return nil
}
