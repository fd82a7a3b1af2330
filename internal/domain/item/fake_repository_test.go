package item

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
	"github.com/campuslf/lostfound-api/internal/pkg/search"
)

type fakeRepo struct {
	lost      map[uuid.UUID]*LostItem
	found     map[uuid.UUID]*FoundItem
	handovers map[uuid.UUID]int // item id -> handovers referencing it
	active    map[uuid.UUID]int // item id -> active handovers
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		lost:      map[uuid.UUID]*LostItem{},
		found:     map[uuid.UUID]*FoundItem{},
		handovers: map[uuid.UUID]int{},
		active:    map[uuid.UUID]int{},
	}
}

func (f *fakeRepo) CreateLost(ctx context.Context, l *LostItem) error {
	cp := *l
	f.lost[l.ID] = &cp
	return nil
}

func (f *fakeRepo) GetLost(ctx context.Context, id uuid.UUID) (*LostItem, error) {
	l, ok := f.lost[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeRepo) ListLostByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]*LostItem, int, error) {
	var out []*LostItem
	for _, l := range f.lost {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListOpenLost(ctx context.Context) ([]*LostItem, error) {
	var out []*LostItem
	for _, l := range f.lost {
		if l.Status == LostOpen && !l.IsBlinded {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateLost(ctx context.Context, l *LostItem) error {
	cp := *l
	f.lost[l.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteLost(ctx context.Context, id uuid.UUID) error {
	delete(f.lost, id)
	return nil
}

func (f *fakeRepo) CreateFound(ctx context.Context, it *FoundItem) error {
	cp := *it
	f.found[it.ID] = &cp
	return nil
}

func (f *fakeRepo) GetFound(ctx context.Context, id uuid.UUID) (*FoundItem, error) {
	it, ok := f.found[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (f *fakeRepo) ListFound(ctx context.Context, filter FoundFilter, s FoundSort, page pagination.Params) ([]*FoundItem, int, error) {
	var out []*FoundItem
	for _, it := range f.found {
		if it.IsBlinded && !filter.IncludeBlinded {
			continue
		}
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		if filter.IDs != nil {
			match := false
			for _, id := range filter.IDs {
				match = match || id == it.ID
			}
			if !match {
				continue
			}
		} else if filter.Query != "" && !strings.Contains(strings.ToLower(it.Title+" "+it.Description), strings.ToLower(filter.Query)) {
			continue
		}
		out = append(out, it)
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

func (f *fakeRepo) ListFoundByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]*FoundItem, int, error) {
	var out []*FoundItem
	for _, it := range f.found {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListAvailableFound(ctx context.Context) ([]*FoundItem, error) {
	var out []*FoundItem
	for _, it := range f.found {
		if it.IsAvailable() {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateFound(ctx context.Context, it *FoundItem) error {
	cp := *it
	f.found[it.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateFoundStorage(ctx context.Context, it *FoundItem) error {
	stored := f.found[it.ID]
	stored.StorageType = it.StorageType
	stored.StorageLocation = it.StorageLocation
	if stored.Status == FoundRegistered || stored.Status == FoundStored {
		stored.Status = it.Status
	}
	return nil
}

func (f *fakeRepo) UpdateFoundStatus(ctx context.Context, id uuid.UUID, status FoundStatus) error {
	f.found[id].Status = status
	return nil
}

func (f *fakeRepo) DeleteFound(ctx context.Context, id uuid.UUID) error {
	delete(f.found, id)
	return nil
}

func (f *fakeRepo) SetPhoto(ctx context.Context, kind Kind, id uuid.UUID, photoURL, thumbURL string) error {
	if kind == KindLost {
		f.lost[id].PhotoURL.String, f.lost[id].PhotoURL.Valid = photoURL, true
		return nil
	}
	f.found[id].PhotoURL.String, f.found[id].PhotoURL.Valid = photoURL, true
	return nil
}

func (f *fakeRepo) CountHandovers(ctx context.Context, kind Kind, id uuid.UUID, activeOnly bool) (int, error) {
	if activeOnly {
		return f.active[id], nil
	}
	return f.handovers[id], nil
}

type fakeIndex struct {
	docs    map[string]search.FoundDoc
	results []string
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[string]search.FoundDoc{}}
}

func (f *fakeIndex) IndexFound(doc search.FoundDoc) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) DeleteFound(id string) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) SearchFound(query, filter string, limit, offset int) ([]string, int, error) {
	return f.results, len(f.results), f.err
}

type recordingNotifier struct {
	found []*FoundItem
}

func (r *recordingNotifier) FoundRegistered(ctx context.Context, f *FoundItem) {
	r.found = append(r.found, f)
}
