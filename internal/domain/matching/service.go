package matching

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/domain/user"
)

const (
	DefaultTopN = 10
	MaxTopN     = 50
)

// Source loads the registry sides the engine ranks
type Source interface {
	GetLost(ctx context.Context, id uuid.UUID) (*item.LostItem, error)
	GetFound(ctx context.Context, id uuid.UUID) (*item.FoundItem, error)
	ListOpenLost(ctx context.Context) ([]*item.LostItem, error)
	ListAvailableFound(ctx context.Context) ([]*item.FoundItem, error)
}

// Notifier stores and pushes a notification
type Notifier interface {
	Notify(ctx context.Context, n *notification.Notification) error
}

// Service ranks lost/found pairings
type Service struct {
	source    Source
	notifier  Notifier
	threshold int
}

// NewService creates matching service. threshold is the minimum score that
// alerts a lost owner about a newly registered found item.
func NewService(source Source, notifier Notifier, threshold int) *Service {
	return &Service{source: source, notifier: notifier, threshold: threshold}
}

func normalizeTopN(topN int) (int, error) {
	if topN == 0 {
		return DefaultTopN, nil
	}
	if topN < 1 || topN > MaxTopN {
		return 0, ErrInvalidTopN
	}
	return topN, nil
}

func hidden(blinded bool, ownerID, viewerID uuid.UUID, role user.Role) bool {
	return blinded && ownerID != viewerID && role != user.RoleAdmin
}

// MatchLost ranks available found items against a lost report
func (s *Service) MatchLost(ctx context.Context, lostID, viewerID uuid.UUID, role user.Role, topN int) ([]*FoundCandidate, error) {
	topN, err := normalizeTopN(topN)
	if err != nil {
		return nil, err
	}

	lost, err := s.source.GetLost(ctx, lostID)
	if err != nil {
		return nil, err
	}
	if lost == nil || hidden(lost.IsBlinded, lost.UserID, viewerID, role) {
		return nil, item.ErrLostNotFound
	}

	found, err := s.source.ListAvailableFound(ctx)
	if err != nil {
		return nil, err
	}
	return RankFound(lost, found, topN), nil
}

// MatchFound ranks open lost reports against a found item
func (s *Service) MatchFound(ctx context.Context, foundID, viewerID uuid.UUID, role user.Role, topN int) ([]*LostCandidate, error) {
	topN, err := normalizeTopN(topN)
	if err != nil {
		return nil, err
	}

	found, err := s.source.GetFound(ctx, foundID)
	if err != nil {
		return nil, err
	}
	if found == nil || hidden(found.IsBlinded, found.UserID, viewerID, role) {
		return nil, item.ErrFoundNotFound
	}

	lost, err := s.source.ListOpenLost(ctx)
	if err != nil {
		return nil, err
	}
	return RankLost(found, lost, topN), nil
}

// RankFound scores every found item, drops zero scores and keeps the best topN.
// Ties go to the more recently found item, then to the smaller id.
func RankFound(lost *item.LostItem, found []*item.FoundItem, topN int) []*FoundCandidate {
	out := make([]*FoundCandidate, 0, len(found))
	for _, f := range found {
		res := Score(lost, f)
		if res.Score == 0 {
			continue
		}
		out = append(out, &FoundCandidate{Found: f, Score: res.Score, Reasons: res.Reasons})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Found.FoundAt.Equal(b.Found.FoundAt) {
			return a.Found.FoundAt.After(b.Found.FoundAt)
		}
		return strings.Compare(a.Found.ID.String(), b.Found.ID.String()) < 0
	})

	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// RankLost is RankFound in the other direction
func RankLost(found *item.FoundItem, lost []*item.LostItem, topN int) []*LostCandidate {
	out := make([]*LostCandidate, 0, len(lost))
	for _, l := range lost {
		res := Score(l, found)
		if res.Score == 0 {
			continue
		}
		out = append(out, &LostCandidate{Lost: l, Score: res.Score, Reasons: res.Reasons})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Lost.LostAt.Equal(b.Lost.LostAt) {
			return a.Lost.LostAt.After(b.Lost.LostAt)
		}
		return strings.Compare(a.Lost.ID.String(), b.Lost.ID.String()) < 0
	})

	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// FoundRegistered alerts owners of open lost reports that score at least the
// threshold against a new found item. One notification per owner.
func (s *Service) FoundRegistered(ctx context.Context, f *item.FoundItem) {
	if s.notifier == nil || f.IsBlinded {
		return
	}

	lost, err := s.source.ListOpenLost(ctx)
	if err != nil {
		log.Warn().Err(err).Str("found_id", f.ID.String()).Msg("Failed to load open lost items for match alerts")
		return
	}

	best := map[uuid.UUID]*LostCandidate{}
	for _, c := range RankLost(f, lost, len(lost)) {
		if c.Score < s.threshold || c.Lost.UserID == f.UserID {
			continue
		}
		if _, seen := best[c.Lost.UserID]; !seen {
			best[c.Lost.UserID] = c
		}
	}

	for ownerID, c := range best {
		n := notification.New(ownerID, notification.TypeMatchFound, notification.RelatedFound, f.ID,
			"Possible match found",
			fmt.Sprintf("A found item \"%s\" may be your \"%s\" (score %d)", f.Title, c.Lost.Title, c.Score))
		if err := s.notifier.Notify(ctx, n); err != nil {
			log.Warn().Err(err).Str("user_id", ownerID.String()).Msg("Failed to send match notification")
		}
	}
}
