package item

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/pkg/apperror"
	"github.com/campuslf/lostfound-api/internal/pkg/imaging"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
	"github.com/campuslf/lostfound-api/internal/pkg/sanitize"
	"github.com/campuslf/lostfound-api/internal/pkg/search"
	"github.com/campuslf/lostfound-api/internal/pkg/storage"
)

// clockSkew tolerates clients whose clocks run slightly ahead
const clockSkew = 5 * time.Minute

// MatchNotifier is told about newly registered found items so lost owners can be alerted
type MatchNotifier interface {
	FoundRegistered(ctx context.Context, f *FoundItem)
}

// Service handles lost and found registry logic
type Service struct {
	repo      Repository
	index     search.Index
	photos    storage.Storage
	processor *imaging.Processor
	notifier  MatchNotifier
	now       func() time.Time
}

// NewService creates item service
func NewService(repo Repository, index search.Index, photos storage.Storage, processor *imaging.Processor) *Service {
	if index == nil {
		index = search.NoopIndex{}
	}
	return &Service{
		repo:      repo,
		index:     index,
		photos:    photos,
		processor: processor,
		now:       time.Now,
	}
}

// SetMatchNotifier wires the matching engine in after construction
func (s *Service) SetMatchNotifier(n MatchNotifier) {
	s.notifier = n
}

func canManage(ownerID, userID uuid.UUID, role user.Role) bool {
	return ownerID == userID || role == user.RoleAdmin
}

func cleanTitle(title string) (string, error) {
	t := sanitize.Text(title)
	if t == "" {
		return "", ErrEmptyTitle
	}
	return t, nil
}

// --- Lost ---

// CreateLost files a new lost report
func (s *Service) CreateLost(ctx context.Context, userID uuid.UUID, req *CreateLostRequest) (*LostItem, error) {
	now := s.now()
	if req.LostAt.After(now.Add(clockSkew)) {
		return nil, ErrLostInFuture
	}
	title, err := cleanTitle(req.Title)
	if err != nil {
		return nil, err
	}

	l := &LostItem{
		ID:          uuid.New(),
		UserID:      userID,
		Category:    Category(req.Category),
		Title:       title,
		Description: sanitize.Multiline(req.Description),
		LostAt:      req.LostAt.UTC(),
		LostPlace:   sanitize.Text(req.LostPlace),
		Status:      LostOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Reward != nil {
		l.Reward.Int64, l.Reward.Valid = *req.Reward, true
	}

	if err := s.repo.CreateLost(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetLost returns a lost report visible to the viewer
func (s *Service) GetLost(ctx context.Context, id, viewerID uuid.UUID, role user.Role) (*LostItem, error) {
	l, err := s.repo.GetLost(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil || !visible(l.IsBlinded, l.UserID, viewerID, role == user.RoleAdmin) {
		return nil, ErrLostNotFound
	}
	return l, nil
}

// ListMyLost returns the caller's lost reports
func (s *Service) ListMyLost(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]*LostItem, int, error) {
	return s.repo.ListLostByUser(ctx, userID, page)
}

// UpdateLost replaces the editable fields of an OPEN report
func (s *Service) UpdateLost(ctx context.Context, id, userID uuid.UUID, role user.Role, req *UpdateLostRequest) (*LostItem, error) {
	l, err := s.repo.GetLost(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrLostNotFound
	}
	if !canManage(l.UserID, userID, role) {
		return nil, ErrNotOwner
	}
	if !l.IsEditable() {
		return nil, ErrLostNotEditable
	}
	if req.LostAt.After(s.now().Add(clockSkew)) {
		return nil, ErrLostInFuture
	}
	title, err := cleanTitle(req.Title)
	if err != nil {
		return nil, err
	}

	l.Category = Category(req.Category)
	l.Title = title
	l.Description = sanitize.Multiline(req.Description)
	l.LostAt = req.LostAt.UTC()
	l.LostPlace = sanitize.Text(req.LostPlace)
	l.Reward.Valid = req.Reward != nil
	if req.Reward != nil {
		l.Reward.Int64 = *req.Reward
	}

	if err := s.repo.UpdateLost(ctx, l); err != nil {
		return nil, err
	}
	l.UpdatedAt = s.now()
	return l, nil
}

// DeleteLost removes an OPEN report that never took part in a handover
func (s *Service) DeleteLost(ctx context.Context, id, userID uuid.UUID, role user.Role) error {
	l, err := s.repo.GetLost(ctx, id)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrLostNotFound
	}
	if !canManage(l.UserID, userID, role) {
		return ErrNotOwner
	}
	if !l.IsEditable() {
		return ErrLostNotEditable
	}
	n, err := s.repo.CountHandovers(ctx, KindLost, id, false)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasHandoverHistory
	}
	return s.repo.DeleteLost(ctx, id)
}

// --- Found ---

// CreateFound registers a found item. Staff registering an item already in
// custody put it straight into STORED.
func (s *Service) CreateFound(ctx context.Context, userID uuid.UUID, role user.Role, req *CreateFoundRequest) (*FoundItem, error) {
	now := s.now()
	if req.FoundAt.After(now.Add(clockSkew)) {
		return nil, ErrFoundInFuture
	}
	title, err := cleanTitle(req.Title)
	if err != nil {
		return nil, err
	}

	storageType := StorageType(req.StorageType)
	status := FoundRegistered
	if role != user.RoleFinder && storageType.IsCustodial() {
		status = FoundStored
	}

	f := &FoundItem{
		ID:              uuid.New(),
		UserID:          userID,
		Category:        Category(req.Category),
		Title:           title,
		Description:     sanitize.Multiline(req.Description),
		FoundAt:         req.FoundAt.UTC(),
		FoundPlace:      sanitize.Text(req.FoundPlace),
		StorageType:     storageType,
		StorageLocation: sanitize.Text(req.StorageLocation),
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateFound(ctx, f); err != nil {
		return nil, err
	}

	s.syncIndex(f)
	if s.notifier != nil {
		s.notifier.FoundRegistered(ctx, f)
	}
	return f, nil
}

// GetFound returns a found item visible to the viewer
func (s *Service) GetFound(ctx context.Context, id, viewerID uuid.UUID, role user.Role) (*FoundItem, error) {
	f, err := s.repo.GetFound(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil || !visible(f.IsBlinded, f.UserID, viewerID, role == user.RoleAdmin) {
		return nil, ErrFoundNotFound
	}
	return f, nil
}

// ListFound lists found items. A keyword query goes through the search index
// when one is configured and falls back to SQL matching otherwise.
func (s *Service) ListFound(ctx context.Context, filter FoundFilter, sort FoundSort, page pagination.Params, role user.Role) ([]*FoundItem, int, error) {
	filter.IncludeBlinded = role == user.RoleAdmin
	filter.IDs = nil

	if filter.Query != "" && !filter.IncludeBlinded {
		items, total, err := s.searchFound(ctx, filter, sort, page)
		if err == nil {
			return items, total, nil
		}
		if !errors.Is(err, search.ErrDisabled) {
			log.Warn().Err(err).Msg("Search index unavailable, falling back to SQL")
		}
	}

	return s.repo.ListFound(ctx, filter, sort, page)
}

func (s *Service) searchFound(ctx context.Context, filter FoundFilter, sort FoundSort, page pagination.Params) ([]*FoundItem, int, error) {
	var conds []string
	if filter.Category != "" {
		conds = append(conds, fmt.Sprintf("category = %q", string(filter.Category)))
	}
	if filter.Status != "" {
		conds = append(conds, fmt.Sprintf("status = %q", string(filter.Status)))
	}

	rawIDs, total, err := s.index.SearchFound(filter.Query, strings.Join(conds, " AND "), page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []*FoundItem{}, total, nil
	}

	items, _, err := s.repo.ListFound(ctx, FoundFilter{IDs: ids}, sort, pagination.Params{Page: 1, Size: len(ids)})
	if err != nil {
		return nil, 0, err
	}

	// keep relevance order from the index
	byID := make(map[uuid.UUID]*FoundItem, len(items))
	for _, f := range items {
		byID[f.ID] = f
	}
	ordered := make([]*FoundItem, 0, len(items))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			ordered = append(ordered, f)
		}
	}
	return ordered, total, nil
}

// ListMyFound returns found items registered by the caller
func (s *Service) ListMyFound(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]*FoundItem, int, error) {
	return s.repo.ListFoundByUser(ctx, userID, page)
}

func (s *Service) loadManagedFound(ctx context.Context, id, userID uuid.UUID, role user.Role) (*FoundItem, error) {
	f, err := s.repo.GetFound(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrFoundNotFound
	}
	if !canManage(f.UserID, userID, role) {
		return nil, ErrNotOwner
	}
	if f.IsTerminal() {
		return nil, ErrFoundTerminal
	}
	return f, nil
}

func (s *Service) ensureNoActiveHandover(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.CountHandovers(ctx, KindFound, id, true)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrFoundInHandover
	}
	return nil
}

// UpdateFound changes the description of an item no handover references
func (s *Service) UpdateFound(ctx context.Context, id, userID uuid.UUID, role user.Role, req *UpdateFoundRequest) (*FoundItem, error) {
	f, err := s.loadManagedFound(ctx, id, userID, role)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoActiveHandover(ctx, id); err != nil {
		return nil, err
	}
	if req.FoundAt.After(s.now().Add(clockSkew)) {
		return nil, ErrFoundInFuture
	}
	title, err := cleanTitle(req.Title)
	if err != nil {
		return nil, err
	}

	f.Category = Category(req.Category)
	f.Title = title
	f.Description = sanitize.Multiline(req.Description)
	f.FoundAt = req.FoundAt.UTC()
	f.FoundPlace = sanitize.Text(req.FoundPlace)

	if err := s.repo.UpdateFound(ctx, f); err != nil {
		return nil, err
	}
	f.UpdatedAt = s.now()
	s.syncIndex(f)
	return f, nil
}

// UpdateStorage records where staff keep the item. It is allowed during a handover;
// only items at rest move between REGISTERED and STORED.
func (s *Service) UpdateStorage(ctx context.Context, id uuid.UUID, req *UpdateStorageRequest) (*FoundItem, error) {
	f, err := s.repo.GetFound(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrFoundNotFound
	}
	if f.IsTerminal() {
		return nil, ErrFoundTerminal
	}

	f.StorageType = StorageType(req.StorageType)
	f.StorageLocation = sanitize.Text(req.StorageLocation)
	if f.Status == FoundRegistered || f.Status == FoundStored {
		f.Status = f.StorageType.RestingStatus()
	}

	if err := s.repo.UpdateFoundStorage(ctx, f); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetFound(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrFoundNotFound
	}
	s.syncIndex(updated)
	return updated, nil
}

// UpdateStatus applies a manual staff status change
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *UpdateFoundStatusRequest) (*FoundItem, error) {
	target := FoundStatus(req.Status)
	switch target {
	case FoundRegistered, FoundStored, FoundDiscarded:
	default:
		return nil, ErrInvalidStatus
	}

	f, err := s.repo.GetFound(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrFoundNotFound
	}
	if f.Status == target {
		return f, nil
	}
	if !f.CanBeSetTo(target) {
		return nil, &StatusTransitionError{Current: f.Status, Target: target}
	}
	if target == FoundDiscarded {
		if err := s.ensureNoActiveHandover(ctx, id); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateFoundStatus(ctx, id, target); err != nil {
		return nil, err
	}
	f.Status = target
	f.UpdatedAt = s.now()
	s.syncIndex(f)
	return f, nil
}

// DeleteFound removes an item that never took part in a handover
func (s *Service) DeleteFound(ctx context.Context, id, userID uuid.UUID, role user.Role) error {
	f, err := s.repo.GetFound(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return ErrFoundNotFound
	}
	if !canManage(f.UserID, userID, role) {
		return ErrNotOwner
	}
	n, err := s.repo.CountHandovers(ctx, KindFound, id, false)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasHandoverHistory
	}

	if err := s.repo.DeleteFound(ctx, id); err != nil {
		return err
	}
	if err := s.index.DeleteFound(id.String()); err != nil {
		log.Warn().Err(err).Str("found_id", id.String()).Msg("Failed to remove found item from search index")
	}
	return nil
}

// --- Photos ---

// UploadPhoto stores a resized photo and a thumbnail for an item the caller manages
func (s *Service) UploadPhoto(ctx context.Context, kind Kind, id, userID uuid.UUID, role user.Role, file io.Reader) (*PhotoResponse, error) {
	switch kind {
	case KindLost:
		l, err := s.repo.GetLost(ctx, id)
		if err != nil {
			return nil, err
		}
		if l == nil {
			return nil, ErrLostNotFound
		}
		if !canManage(l.UserID, userID, role) {
			return nil, ErrNotOwner
		}
		if !l.IsEditable() {
			return nil, ErrLostNotEditable
		}
	case KindFound:
		if _, err := s.loadManagedFound(ctx, id, userID, role); err != nil {
			return nil, err
		}
	default:
		return nil, ErrLostNotFound
	}

	data, _, err := storage.ValidatePhoto(file, storage.MaxPhotoSize)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) || errors.Is(err, storage.ErrInvalidMimeType) || errors.Is(err, storage.ErrEmptyFile) {
			return nil, apperror.Validation(err.Error())
		}
		return nil, err
	}

	processed, err := s.processor.Process(data)
	if err != nil {
		return nil, apperror.Validation("image could not be decoded")
	}

	version := uuid.New().String()[:8]
	origKey, thumbKey := imaging.GeneratePaths(string(kind), id.String(), version, processed.Extension)
	if err := s.photos.Put(ctx, origKey, bytes.NewReader(processed.Original), processed.ContentType); err != nil {
		return nil, err
	}
	if err := s.photos.Put(ctx, thumbKey, bytes.NewReader(processed.Thumbnail), processed.ContentType); err != nil {
		return nil, err
	}

	resp := &PhotoResponse{PhotoURL: s.photos.GetURL(origKey), ThumbURL: s.photos.GetURL(thumbKey)}
	if err := s.repo.SetPhoto(ctx, kind, id, resp.PhotoURL, resp.ThumbURL); err != nil {
		return nil, err
	}
	return resp, nil
}

// --- Search index ---

func foundDoc(f *FoundItem) search.FoundDoc {
	return search.FoundDoc{
		ID:          f.ID.String(),
		Title:       f.Title,
		Description: f.Description,
		Category:    string(f.Category),
		FoundPlace:  f.FoundPlace,
		Status:      string(f.Status),
		FoundAt:     f.FoundAt.Unix(),
		CreatedAt:   f.CreatedAt.Unix(),
	}
}

func (s *Service) syncIndex(f *FoundItem) {
	var err error
	if f.IsBlinded {
		err = s.index.DeleteFound(f.ID.String())
	} else {
		err = s.index.IndexFound(foundDoc(f))
	}
	if err != nil {
		log.Warn().Err(err).Str("found_id", f.ID.String()).Msg("Failed to sync found item with search index")
	}
}

// Reindex refreshes a single found item in the search index, e.g. after moderation
func (s *Service) Reindex(ctx context.Context, id uuid.UUID) error {
	f, err := s.repo.GetFound(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return s.index.DeleteFound(id.String())
	}
	s.syncIndex(f)
	return nil
}

// ResyncChannel is the Redis channel that asks the worker for a full index resync
const ResyncChannel = "search:resync"

// ResyncIndex pushes every visible found item to the search index
func (s *Service) ResyncIndex(ctx context.Context) (int, error) {
	count := 0
	for page := 1; ; page++ {
		items, _, err := s.repo.ListFound(ctx, FoundFilter{}, SortCreatedAsc, pagination.Params{Page: page, Size: pagination.MaxSize})
		if err != nil {
			return count, err
		}
		for _, f := range items {
			if err := s.index.IndexFound(foundDoc(f)); err != nil {
				return count, err
			}
			count++
		}
		if len(items) < pagination.MaxSize {
			return count, nil
		}
	}
}
