package moderation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/handover"
	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/message"
	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/pkg/logger"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
	"github.com/campuslf/lostfound-api/internal/pkg/sanitize"
)

// Items resolves reported lost and found items
type Items interface {
	GetLost(ctx context.Context, id uuid.UUID) (*item.LostItem, error)
	GetFound(ctx context.Context, id uuid.UUID) (*item.FoundItem, error)
}

// Messages resolves reported messages
type Messages interface {
	GetByID(ctx context.Context, id uuid.UUID) (*message.Message, error)
}

// Handovers resolves the thread a reported message belongs to
type Handovers interface {
	GetByID(ctx context.Context, id uuid.UUID) (*handover.Handover, error)
}

// Users is the part of the user repository blocking needs
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status user.Status) error
}

// Publisher pushes committed notifications
type Publisher interface {
	Publish(ctx context.Context, notifications ...*notification.Notification)
}

// FoundIndexer refreshes a found item in the search index
type FoundIndexer interface {
	Reindex(ctx context.Context, id uuid.UUID) error
}

// SessionRevoker drops refresh tokens of a blocked user
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// Service handles moderation business logic
type Service struct {
	repo      Repository
	items     Items
	messages  Messages
	handovers Handovers
	users     Users
	publisher Publisher
	indexer   FoundIndexer
	sessions  SessionRevoker
	now       func() time.Time
}

// NewService creates moderation service
func NewService(repo Repository, items Items, messages Messages, handovers Handovers, users Users, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		items:     items,
		messages:  messages,
		handovers: handovers,
		users:     users,
		publisher: publisher,
		now:       time.Now,
	}
}

// SetIndexer wires search index refresh after found items are blinded
func (s *Service) SetIndexer(indexer FoundIndexer) {
	s.indexer = indexer
}

// SetSessionRevoker wires refresh token revocation on block
func (s *Service) SetSessionRevoker(r SessionRevoker) {
	s.sessions = r
}

// Target is the reported entity, loaded regardless of blinding
type Target struct {
	Lost    *item.LostItem
	Found   *item.FoundItem
	Message *message.Message
}

func (t *Target) ownerID() uuid.UUID {
	switch {
	case t.Lost != nil:
		return t.Lost.UserID
	case t.Found != nil:
		return t.Found.UserID
	case t.Message != nil:
		return t.Message.SenderID
	}
	return uuid.Nil
}

func (s *Service) loadTarget(ctx context.Context, targetType TargetType, id uuid.UUID) (*Target, error) {
	t := &Target{}
	var err error
	switch targetType {
	case TargetLost:
		t.Lost, err = s.items.GetLost(ctx, id)
		if err == nil && t.Lost == nil {
			err = ErrTargetNotFound
		}
	case TargetFound:
		t.Found, err = s.items.GetFound(ctx, id)
		if err == nil && t.Found == nil {
			err = ErrTargetNotFound
		}
	case TargetMessage:
		t.Message, err = s.messages.GetByID(ctx, id)
		if err == nil && t.Message == nil {
			err = ErrTargetNotFound
		}
	default:
		err = ErrInvalidTarget
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateReport files a report. A repeated report from the same reporter on the
// same target returns the existing one and created=false.
func (s *Service) CreateReport(ctx context.Context, reporterID uuid.UUID, req *CreateReportRequest) (report *Report, created bool, err error) {
	targetType, ok := ParseTargetType(req.TargetType)
	if !ok {
		return nil, false, ErrInvalidTarget
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return nil, false, ErrTargetNotFound
	}

	target, err := s.loadTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, false, err
	}
	if target.Message != nil {
		h, err := s.handovers.GetByID(ctx, target.Message.HandoverID)
		if err != nil {
			return nil, false, err
		}
		if h == nil || !h.IsParticipant(reporterID) {
			return nil, false, ErrNotParticipant
		}
	}
	if target.ownerID() == reporterID {
		return nil, false, ErrCannotReportOwn
	}

	existing, err := s.repo.GetByReporterTarget(ctx, reporterID, targetType, targetID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	reason := sanitize.Multiline(req.Reason)
	if reason == "" {
		return nil, false, ErrReasonRequired
	}

	report = &Report{
		ID:         uuid.New(),
		TargetType: targetType,
		TargetID:   targetID,
		ReporterID: reporterID,
		Reason:     reason,
		Status:     ReportOpen,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, report); err != nil {
		if errors.Is(err, ErrDuplicateReport) {
			// lost a race with a concurrent duplicate
			existing, getErr := s.repo.GetByReporterTarget(ctx, reporterID, targetType, targetID)
			if getErr != nil {
				return nil, false, getErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	logger.FromContext(ctx).Info().
		Str("report_id", report.ID.String()).
		Str("target_type", string(targetType)).
		Str("target_id", targetID.String()).
		Msg("Report created")
	return report, true, nil
}

// ListReports returns reports newest first, optionally filtered by status
func (s *Service) ListReports(ctx context.Context, status ReportStatus, page pagination.Params) ([]*Report, int, error) {
	return s.repo.List(ctx, status, page)
}

// GetReport returns a report with the original content of its target
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, *Target, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if report == nil {
		return nil, nil, ErrReportNotFound
	}

	target, err := s.loadTarget(ctx, report.TargetType, report.TargetID)
	if err != nil && !errors.Is(err, ErrTargetNotFound) {
		return nil, nil, err
	}
	return report, target, nil
}

// ResolveReport closes a report. BLIND hides the target in the same transaction.
// Resolving again with the same action changes nothing.
func (s *Service) ResolveReport(ctx context.Context, adminID, id uuid.UUID, req *ResolveReportRequest) (*Report, error) {
	action := Action(req.Action)
	note := sanitize.Multiline(req.AdminNote)

	var (
		report  *Report
		pending []*notification.Notification
		replay  bool
	)
	err := s.repo.InTx(ctx, func(tx Tx) error {
		var err error
		report, err = tx.LockReport(ctx, id)
		if err != nil {
			return err
		}
		if report == nil {
			return ErrReportNotFound
		}
		if report.IsResolved() {
			if report.Action.String == string(action) {
				replay = true
				return nil
			}
			return ErrAlreadyResolved
		}

		// a target deleted by its owner has nothing left to hide
		if action == ActionBlind {
			if err := tx.SetBlinded(ctx, report.TargetType, report.TargetID, true); err != nil && !errors.Is(err, ErrTargetNotFound) {
				return err
			}
		}

		report.Status = ReportResolved
		report.Action = sql.NullString{String: string(action), Valid: true}
		report.AdminNote = sql.NullString{String: note, Valid: note != ""}
		report.ResolvedBy = uuid.NullUUID{UUID: adminID, Valid: true}
		report.ResolvedAt = sql.NullTime{Time: s.now().UTC(), Valid: true}
		if err := tx.Resolve(ctx, report); err != nil {
			return err
		}

		n := notification.New(report.ReporterID, notification.TypeReportResolved, notification.RelatedReport, report.ID,
			"Report resolved", resolvedMessage(action))
		if err := tx.AddNotification(ctx, n); err != nil {
			return err
		}
		pending = append(pending, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if replay {
		return report, nil
	}

	logger.FromContext(ctx).Info().
		Str("report_id", report.ID.String()).
		Str("action", string(action)).
		Str("admin_id", adminID.String()).
		Msg("Report resolved")

	s.publisher.Publish(ctx, pending...)
	if action == ActionBlind && report.TargetType == TargetFound {
		s.reindex(ctx, report.TargetID)
	}
	return report, nil
}

func resolvedMessage(action Action) string {
	if action == ActionBlind {
		return "Thank you. The reported content has been hidden."
	}
	return "Thank you. An admin reviewed your report and took no action."
}

// SetBlinded hides or shows a target directly, outside of a report
func (s *Service) SetBlinded(ctx context.Context, adminID uuid.UUID, targetType TargetType, id uuid.UUID, blinded bool) error {
	err := s.repo.InTx(ctx, func(tx Tx) error {
		return tx.SetBlinded(ctx, targetType, id, blinded)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info().
		Str("target_type", string(targetType)).
		Str("target_id", id.String()).
		Bool("blinded", blinded).
		Str("admin_id", adminID.String()).
		Msg("Visibility changed")

	if targetType == TargetFound {
		s.reindex(ctx, id)
	}
	return nil
}

func (s *Service) reindex(ctx context.Context, id uuid.UUID) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Reindex(ctx, id); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("found_id", id.String()).Msg("Failed to reindex found item")
	}
}

// BlockUser sets the user's status to BLOCKED. Their handovers are left as they are.
func (s *Service) BlockUser(ctx context.Context, adminID, userID uuid.UUID) (*user.User, error) {
	if adminID == userID {
		return nil, user.ErrCannotBlockSelf
	}
	target, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() {
		return nil, user.ErrCannotBlockAdmin
	}
	if err := s.setStatus(ctx, target, user.StatusBlocked); err != nil {
		return nil, err
	}

	if s.sessions != nil {
		if err := s.sessions.RevokeAll(ctx, userID); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to revoke sessions of blocked user")
		}
	}
	logger.FromContext(ctx).Info().Str("user_id", userID.String()).Str("admin_id", adminID.String()).Msg("User blocked")
	return target, nil
}

// UnblockUser sets the user's status back to ACTIVE
func (s *Service) UnblockUser(ctx context.Context, adminID, userID uuid.UUID) (*user.User, error) {
	target, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, target, user.StatusActive); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Str("user_id", userID.String()).Str("admin_id", adminID.String()).Msg("User unblocked")
	return target, nil
}

func (s *Service) loadUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) setStatus(ctx context.Context, u *user.User, status user.Status) error {
	if u.Status == status {
		return nil
	}
	if err := s.users.UpdateStatus(ctx, u.ID, status); err != nil {
		return err
	}
	u.Status = status
	return nil
}
