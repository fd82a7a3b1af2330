package handover

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
)

// fakeRepo serializes transactions with a mutex, which is what the row
// locks amount to for a single handover, and restores a snapshot on error.
type fakeRepo struct {
	mu            sync.Mutex
	handovers     map[uuid.UUID]*Handover
	lost          map[uuid.UUID]*item.LostItem
	found         map[uuid.UUID]*item.FoundItem
	notifications []*notification.Notification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		handovers: map[uuid.UUID]*Handover{},
		lost:      map[uuid.UUID]*item.LostItem{},
		found:     map[uuid.UUID]*item.FoundItem{},
	}
}

type snapshot struct {
	handovers     map[uuid.UUID]Handover
	lost          map[uuid.UUID]item.LostItem
	found         map[uuid.UUID]item.FoundItem
	notifications int
}

func (f *fakeRepo) snapshot() snapshot {
	s := snapshot{
		handovers:     map[uuid.UUID]Handover{},
		lost:          map[uuid.UUID]item.LostItem{},
		found:         map[uuid.UUID]item.FoundItem{},
		notifications: len(f.notifications),
	}
	for k, v := range f.handovers {
		s.handovers[k] = *v
	}
	for k, v := range f.lost {
		s.lost[k] = *v
	}
	for k, v := range f.found {
		s.found[k] = *v
	}
	return s
}

func (f *fakeRepo) restore(s snapshot) {
	f.handovers = map[uuid.UUID]*Handover{}
	for k, v := range s.handovers {
		v := v
		f.handovers[k] = &v
	}
	f.lost = map[uuid.UUID]*item.LostItem{}
	for k, v := range s.lost {
		v := v
		f.lost[k] = &v
	}
	f.found = map[uuid.UUID]*item.FoundItem{}
	for k, v := range s.found {
		v := v
		f.found[k] = &v
	}
	f.notifications = f.notifications[:s.notifications]
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.snapshot()
	if err := fn(&fakeTx{repo: f}); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Handover, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.handovers[id]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]*Handover, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Handover
	for _, h := range f.handovers {
		if filter.Status != "" && h.Status != filter.Status {
			continue
		}
		if filter.Method != "" && h.Method != filter.Method {
			continue
		}
		if filter.RequesterID != uuid.Nil && h.RequesterID != filter.RequesterID {
			continue
		}
		if filter.ResponderID != uuid.Nil && h.ResponderID != filter.ResponderID {
			continue
		}
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (f *fakeRepo) notificationsFor(userID uuid.UUID, t notification.Type) int {
	count := 0
	for _, n := range f.notifications {
		if n.UserID == userID && n.Type == t {
			count++
		}
	}
	return count
}

type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) LockHandover(ctx context.Context, id uuid.UUID) (*Handover, error) {
	h, ok := t.repo.handovers[id]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

func (t *fakeTx) LockLost(ctx context.Context, id uuid.UUID) (*item.LostItem, error) {
	l, ok := t.repo.lost[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (t *fakeTx) LockFound(ctx context.Context, id uuid.UUID) (*item.FoundItem, error) {
	f, ok := t.repo.found[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (t *fakeTx) active(match func(h *Handover) bool) []*Handover {
	var out []*Handover
	for _, h := range t.repo.handovers {
		if h.IsActive() && match(h) {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (t *fakeTx) ActiveByLost(ctx context.Context, lostID uuid.UUID) ([]*Handover, error) {
	return t.active(func(h *Handover) bool { return h.LostID == lostID }), nil
}

func (t *fakeTx) ActiveByFound(ctx context.Context, foundID uuid.UUID) ([]*Handover, error) {
	return t.active(func(h *Handover) bool { return h.FoundID == foundID }), nil
}

// Create enforces the same partial unique indexes as the schema
func (t *fakeTx) Create(ctx context.Context, h *Handover) error {
	for _, o := range t.repo.handovers {
		if o.IsActive() && o.LostID == h.LostID {
			return ErrActiveHandoverExists
		}
	}
	cp := *h
	t.repo.handovers[h.ID] = &cp
	return nil
}

func (t *fakeTx) Update(ctx context.Context, h *Handover) error {
	cp := *h
	t.repo.handovers[h.ID] = &cp
	return nil
}

func (t *fakeTx) SetLostStatus(ctx context.Context, id uuid.UUID, status item.LostStatus) error {
	t.repo.lost[id].Status = status
	return nil
}

func (t *fakeTx) SetFoundStatus(ctx context.Context, id uuid.UUID, status item.FoundStatus) error {
	t.repo.found[id].Status = status
	return nil
}

func (t *fakeTx) AddNotification(ctx context.Context, n *notification.Notification) error {
	t.repo.notifications = append(t.repo.notifications, n)
	return nil
}

type recordingPublisher struct {
	published []*notification.Notification
}

func (p *recordingPublisher) Publish(ctx context.Context, ns ...*notification.Notification) {
	p.published = append(p.published, ns...)
}

type fakeUsers map[uuid.UUID]*user.User

func (f fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return f[id], nil
}
