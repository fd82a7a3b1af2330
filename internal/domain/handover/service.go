package handover

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
	"github.com/campuslf/lostfound-api/internal/pkg/sanitize"
)

const supersededReason = "The item was handed over to another claimant"

// Publisher pushes notifications that were already stored
type Publisher interface {
	Publish(ctx context.Context, notifications ...*notification.Notification)
}

// UserLookup resolves counterparty contacts
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// FoundIndexer refreshes the search document of a found item
type FoundIndexer interface {
	Reindex(ctx context.Context, id uuid.UUID) error
}

// Service runs the handover workflow
type Service struct {
	repo      Repository
	publisher Publisher
	users     UserLookup
	indexer   FoundIndexer
	now       func() time.Time
}

// NewService creates handover service
func NewService(repo Repository, publisher Publisher, users UserLookup) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		users:     users,
		now:       time.Now,
	}
}

// SetIndexer wires search reindexing of found items whose status changed
func (s *Service) SetIndexer(indexer FoundIndexer) {
	s.indexer = indexer
}

// Detail is a handover as seen by one viewer
type Detail struct {
	Handover     *Handover
	Counterparty *user.User
}

// Create opens a handover request for a lost/found pairing
func (s *Service) Create(ctx context.Context, requesterID uuid.UUID, role user.Role, req *CreateRequest) (*Handover, error) {
	lostID, err := uuid.Parse(req.LostID)
	if err != nil {
		return nil, item.ErrLostNotFound
	}
	foundID, err := uuid.Parse(req.FoundID)
	if err != nil {
		return nil, item.ErrFoundNotFound
	}

	var created *Handover
	var emitted []*notification.Notification

	err = s.repo.InTx(ctx, func(tx Tx) error {
		lost, err := tx.LockLost(ctx, lostID)
		if err != nil {
			return err
		}
		if lost == nil || (lost.IsBlinded && lost.UserID != requesterID) {
			return item.ErrLostNotFound
		}
		found, err := tx.LockFound(ctx, foundID)
		if err != nil {
			return err
		}
		if found == nil || found.IsBlinded {
			return item.ErrFoundNotFound
		}

		if !user.Allowed(role, user.OpHandoverCreate) || lost.UserID != requesterID {
			return ErrNotLostOwner
		}
		if found.UserID == requesterID {
			return ErrOwnFoundItem
		}

		active, err := tx.ActiveByLost(ctx, lostID)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return ErrActiveHandoverExists
		}
		if lost.Status != item.LostOpen {
			return ErrLostNotOpen
		}
		if !found.IsAvailable() {
			return ErrFoundUnavailable
		}

		now := s.now()
		h := &Handover{
			ID:          uuid.New(),
			LostID:      lost.ID,
			FoundID:     found.ID,
			RequesterID: requesterID,
			ResponderID: found.UserID,
			Method:      Method(req.Method),
			Status:      StatusRequested,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(ctx, h); err != nil {
			return err
		}
		if err := tx.SetLostStatus(ctx, lost.ID, item.LostMatched); err != nil {
			return err
		}

		n := notification.New(h.ResponderID, notification.TypeHandoverRequested, notification.RelatedHandover, h.ID,
			"New handover request", fmt.Sprintf("Someone is claiming \"%s\" that you found", found.Title))
		if err := tx.AddNotification(ctx, n); err != nil {
			return err
		}

		created = h
		emitted = append(emitted, n)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, emitted)
	return created, nil
}

// Accept is the finder agreeing to return the item
func (s *Service) Accept(ctx context.Context, id, actorID uuid.UUID, role user.Role) (*Handover, error) {
	return s.apply(ctx, id, actorID, role, ActionAccept, params{})
}

// Reject is the finder declining a request
func (s *Service) Reject(ctx context.Context, id, actorID uuid.UUID, role user.Role, reason string) (*Handover, error) {
	return s.apply(ctx, id, actorID, role, ActionReject, params{reason: reason})
}

// Verify records the security check of a high-value item
func (s *Service) Verify(ctx context.Context, id, actorID uuid.UUID, role user.Role) (*Handover, error) {
	return s.apply(ctx, id, actorID, role, ActionVerify, params{})
}

// Approve records the office approval
func (s *Service) Approve(ctx context.Context, id, actorID uuid.UUID, role user.Role) (*Handover, error) {
	return s.apply(ctx, id, actorID, role, ActionApprove, params{})
}

// Schedule fixes the meeting time and place
func (s *Service) Schedule(ctx context.Context, id, actorID uuid.UUID, role user.Role, req *ScheduleRequest) (*Handover, error) {
	return s.apply(ctx, id, actorID, role, ActionSchedule, params{scheduleAt: req.ScheduleAt, meetPlace: req.MeetPlace})
}

// Complete records that the item changed hands
func (s *Service) Complete(ctx context.Context, id, actorID uuid.UUID, role user.Role) (*Handover, error) {
	return s.apply(ctx, id, actorID, role, ActionComplete, params{})
}

// Cancel stops an active handover
func (s *Service) Cancel(ctx context.Context, id, actorID uuid.UUID, role user.Role, reason string) (*Handover, error) {
	return s.apply(ctx, id, actorID, role, ActionCancel, params{reason: reason})
}

type params struct {
	reason     string
	scheduleAt time.Time
	meetPlace  string
}

func (p params) normalized() params {
	p.reason = sanitize.Text(p.reason)
	p.meetPlace = sanitize.Text(p.meetPlace)
	if !p.scheduleAt.IsZero() {
		p.scheduleAt = p.scheduleAt.UTC().Truncate(time.Microsecond)
	}
	return p
}

// isReplay reports whether the action already produced the current state
// with the same actor and payload
func isReplay(action Action, h *Handover, actorID uuid.UUID, p params) bool {
	if h.Status != transitions[action].target {
		return false
	}
	switch action {
	case ActionReject, ActionCancel:
		return h.CanceledBy.Valid && h.CanceledBy.UUID == actorID && h.CancelReason.String == p.reason
	case ActionSchedule:
		return h.ScheduleAt.Valid && h.ScheduleAt.Time.Equal(p.scheduleAt) && h.MeetPlace.String == p.meetPlace
	}
	return true
}

func validatePayload(action Action, p params, now time.Time) error {
	switch action {
	case ActionReject, ActionCancel:
		if p.reason == "" {
			return ErrReasonRequired
		}
	case ActionSchedule:
		if p.meetPlace == "" {
			return ErrMeetPlaceRequired
		}
		if !p.scheduleAt.After(now) {
			return ErrScheduleInPast
		}
	}
	return nil
}

func (s *Service) apply(ctx context.Context, id, actorID uuid.UUID, role user.Role, action Action, p params) (*Handover, error) {
	p = p.normalized()

	var result *Handover
	var emitted []*notification.Notification
	foundChanged := false

	err := s.repo.InTx(ctx, func(tx Tx) error {
		h, err := tx.LockHandover(ctx, id)
		if err != nil {
			return err
		}
		if h == nil {
			return ErrHandoverNotFound
		}
		if !authorized(action, h, actorID, role) {
			return ErrNotAllowed
		}
		if isReplay(action, h, actorID, p) {
			result = h
			return nil
		}

		// competing requests on the same found item, locked before the items
		var competitors []*Handover
		if action == ActionComplete {
			active, err := tx.ActiveByFound(ctx, h.FoundID)
			if err != nil {
				return err
			}
			for _, o := range active {
				if o.ID != h.ID {
					competitors = append(competitors, o)
				}
			}
		}

		lost, err := tx.LockLost(ctx, h.LostID)
		if err != nil {
			return err
		}
		for _, o := range competitors {
			if _, err := tx.LockLost(ctx, o.LostID); err != nil {
				return err
			}
		}
		found, err := tx.LockFound(ctx, h.FoundID)
		if err != nil {
			return err
		}
		if lost == nil || found == nil {
			return fmt.Errorf("handover %s references missing items", h.ID)
		}

		if !CanApply(action, h.Status, h.Method, found.Category.RequiresSecurityCheck()) {
			return &TransitionError{Current: h.Status, Action: action}
		}

		now := s.now()
		if err := validatePayload(action, p, now); err != nil {
			return err
		}

		previous := h.Status
		h.Status = transitions[action].target
		h.UpdatedAt = now
		at := sql.NullTime{Time: now, Valid: true}

		var recipients []uuid.UUID
		var nType notification.Type
		var title, message string
		both := []uuid.UUID{h.RequesterID, h.ResponderID}

		switch action {
		case ActionAccept:
			if !found.IsAvailable() {
				if found.Status == item.FoundInHandover {
					return ErrFoundHeld
				}
				return ErrFoundUnavailable
			}
			h.AcceptedAt = at
			h.ContactDisclosed = true
			if err := tx.SetFoundStatus(ctx, found.ID, item.FoundInHandover); err != nil {
				return err
			}
			foundChanged = true
			recipients = []uuid.UUID{h.RequesterID}
			nType, title = notification.TypeHandoverAccepted, "Handover accepted"
			message = fmt.Sprintf("Your request for \"%s\" was accepted. Contacts are now visible.", found.Title)

		case ActionReject:
			cancel(h, at, actorID, p.reason)
			if err := releaseLost(ctx, tx, h, lost); err != nil {
				return err
			}
			recipients = []uuid.UUID{h.RequesterID}
			nType, title = notification.TypeHandoverRejected, "Handover rejected"
			message = fmt.Sprintf("Your request for \"%s\" was rejected: %s", found.Title, p.reason)

		case ActionVerify:
			h.VerifiedAt = at
			recipients = both
			nType, title = notification.TypeSecurityVerified, "Security check passed"
			message = fmt.Sprintf("Security verified the claim for \"%s\"", found.Title)

		case ActionApprove:
			h.ApprovedAt = at
			recipients = both
			nType, title = notification.TypeOfficeApproved, "Office approved"
			message = fmt.Sprintf("The office approved the handover of \"%s\"", found.Title)

		case ActionSchedule:
			h.ScheduleAt = sql.NullTime{Time: p.scheduleAt, Valid: true}
			h.MeetPlace = sql.NullString{String: p.meetPlace, Valid: true}
			h.ScheduledAt = at
			recipients = both
			nType, title = notification.TypeHandoverScheduled, "Handover scheduled"
			message = fmt.Sprintf("\"%s\" will be handed over at %s, %s",
				found.Title, p.meetPlace, p.scheduleAt.Format(time.RFC3339))

		case ActionComplete:
			h.CompletedAt = at
			if err := tx.SetFoundStatus(ctx, found.ID, item.FoundHandedOver); err != nil {
				return err
			}
			if err := tx.SetLostStatus(ctx, lost.ID, item.LostClosed); err != nil {
				return err
			}
			foundChanged = true
			recipients = both
			nType, title = notification.TypeHandoverCompleted, "Handover completed"
			message = fmt.Sprintf("\"%s\" was handed over", found.Title)

			for _, o := range competitors {
				n, err := s.supersede(ctx, tx, o, found, at)
				if err != nil {
					return err
				}
				emitted = append(emitted, n)
			}

		case ActionCancel:
			cancel(h, at, actorID, p.reason)
			if err := releaseLost(ctx, tx, h, lost); err != nil {
				return err
			}
			// an active handover holding the item is the only one that can
			if previous.HoldsFound() && found.Status == item.FoundInHandover {
				if err := tx.SetFoundStatus(ctx, found.ID, found.StorageType.RestingStatus()); err != nil {
					return err
				}
				foundChanged = true
			}
			recipients = both
			nType, title = notification.TypeHandoverCanceled, "Handover canceled"
			message = fmt.Sprintf("The handover of \"%s\" was canceled: %s", found.Title, p.reason)
		}

		if err := tx.Update(ctx, h); err != nil {
			return err
		}

		for _, uid := range recipients {
			n := notification.New(uid, nType, notification.RelatedHandover, h.ID, title, message)
			if err := tx.AddNotification(ctx, n); err != nil {
				return err
			}
			emitted = append(emitted, n)
		}

		result = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, emitted)
	if foundChanged {
		s.reindex(ctx, result.FoundID)
	}
	return result, nil
}

func cancel(h *Handover, at sql.NullTime, actorID uuid.UUID, reason string) {
	h.CanceledAt = at
	h.CanceledBy = uuid.NullUUID{UUID: actorID, Valid: true}
	h.CancelReason = sql.NullString{String: reason, Valid: true}
}

// releaseLost reopens the lost report unless another active handover still references it
func releaseLost(ctx context.Context, tx Tx, h *Handover, lost *item.LostItem) error {
	if lost.Status != item.LostMatched {
		return nil
	}
	active, err := tx.ActiveByLost(ctx, lost.ID)
	if err != nil {
		return err
	}
	for _, o := range active {
		if o.ID != h.ID {
			return nil
		}
	}
	return tx.SetLostStatus(ctx, lost.ID, item.LostOpen)
}

// supersede cancels a request whose item went to someone else
func (s *Service) supersede(ctx context.Context, tx Tx, o *Handover, found *item.FoundItem, at sql.NullTime) (*notification.Notification, error) {
	o.Status = StatusCanceled
	o.UpdatedAt = at.Time
	o.CanceledAt = at
	o.CancelReason = sql.NullString{String: supersededReason, Valid: true}
	if err := tx.Update(ctx, o); err != nil {
		return nil, err
	}
	if err := tx.SetLostStatus(ctx, o.LostID, item.LostOpen); err != nil {
		return nil, err
	}

	n := notification.New(o.RequesterID, notification.TypeHandoverCanceled, notification.RelatedHandover, o.ID,
		"Handover canceled", fmt.Sprintf("\"%s\" was handed over to another claimant", found.Title))
	if err := tx.AddNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) publish(ctx context.Context, notifications []*notification.Notification) {
	if s.publisher == nil || len(notifications) == 0 {
		return
	}
	s.publisher.Publish(ctx, notifications...)
}

func (s *Service) reindex(ctx context.Context, foundID uuid.UUID) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Reindex(ctx, foundID); err != nil {
		log.Warn().Err(err).Str("found_id", foundID.String()).Msg("Failed to reindex found item")
	}
}

// Get returns a handover with the counterparty contact when the viewer may see it
func (s *Service) Get(ctx context.Context, id, viewerID uuid.UUID, role user.Role) (*Detail, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrHandoverNotFound
	}
	if !h.CanView(viewerID, role) {
		return nil, ErrNotAllowed
	}

	detail := &Detail{Handover: h}
	if h.ContactDisclosed && h.IsParticipant(viewerID) && s.users != nil {
		u, err := s.users.GetByID(ctx, h.Counterparty(viewerID))
		if err != nil {
			return nil, err
		}
		detail.Counterparty = u
	}
	return detail, nil
}

// ListQueue returns handovers for staff work queues
func (s *Service) ListQueue(ctx context.Context, filter ListFilter, page pagination.Params) ([]*Handover, int, error) {
	filter.RequesterID, filter.ResponderID = uuid.Nil, uuid.Nil
	return s.repo.List(ctx, filter, page)
}

// ListMyRequests returns handovers the user asked for
func (s *Service) ListMyRequests(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]*Handover, int, error) {
	return s.repo.List(ctx, ListFilter{RequesterID: userID}, page)
}

// ListMyResponses returns handovers for items the user found
func (s *Service) ListMyResponses(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]*Handover, int, error) {
	return s.repo.List(ctx, ListFilter{ResponderID: userID}, page)
}
