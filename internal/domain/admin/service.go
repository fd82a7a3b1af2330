package admin

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/campuslf/lostfound-api/internal/pkg/logger"
)

// StatisticsTTL is how long a computed snapshot is served from cache
const StatisticsTTL = 60 * time.Second

// DefaultPeriodDays is used when no startDate is given
const DefaultPeriodDays = 30

// Service builds admin statistics
type Service struct {
	repo  Repository
	cache Cache
	now   func() time.Time
}

// NewService creates admin service. cache may be nil.
func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// ParsePeriod reads YYYY-MM-DD bounds. Missing end means today, missing
// start means DefaultPeriodDays before the end.
func (s *Service) ParsePeriod(startDate, endDate string) (Period, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)

	end := today
	if endDate != "" {
		t, err := time.Parse(DateLayout, endDate)
		if err != nil {
			return Period{}, ErrInvalidEndDate
		}
		end = t
	}

	start := end.AddDate(0, 0, -(DefaultPeriodDays - 1))
	if startDate != "" {
		t, err := time.Parse(DateLayout, startDate)
		if err != nil {
			return Period{}, ErrInvalidStartDate
		}
		start = t
	}

	if start.After(end) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

func cacheKey(p Period) string {
	return "admin:statistics:" + p.Start.Format(DateLayout) + ":" + p.End.Format(DateLayout)
}

// GetStatistics returns the snapshot for p, from cache when fresh
func (s *Service) GetStatistics(ctx context.Context, p Period) (*Statistics, error) {
	log := logger.FromContext(ctx)
	key := cacheKey(p)

	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("Statistics cache read failed")
		}
		if ok {
			var stats Statistics
			if err := json.Unmarshal(data, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.compute(ctx, p)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, key, data, StatisticsTTL); err != nil {
				log.Warn().Err(err).Msg("Statistics cache write failed")
			}
		}
	}
	return stats, nil
}

func (s *Service) compute(ctx context.Context, p Period) (*Statistics, error) {
	stats := &Statistics{
		StartDate:   p.Start.Format(DateLayout),
		EndDate:     p.End.Format(DateLayout),
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
	}

	var err error
	if stats.UsersByRole, err = s.repo.UsersByRole(ctx); err != nil {
		return nil, err
	}
	if stats.BlockedUsers, err = s.repo.BlockedUsers(ctx); err != nil {
		return nil, err
	}
	if stats.LostByStatus, err = s.repo.LostByStatus(ctx, p); err != nil {
		return nil, err
	}
	if stats.FoundByStatus, err = s.repo.FoundByStatus(ctx, p); err != nil {
		return nil, err
	}
	if stats.HandoversByStatus, err = s.repo.HandoversByStatus(ctx, p); err != nil {
		return nil, err
	}
	if stats.AvgHoursToComplete, err = s.repo.AvgHoursToComplete(ctx, p); err != nil {
		return nil, err
	}
	if stats.OpenReports, err = s.repo.OpenReports(ctx); err != nil {
		return nil, err
	}

	total := 0
	for _, n := range stats.HandoversByStatus {
		total += n
	}
	if total > 0 {
		stats.CompletionRate = round2(float64(stats.HandoversByStatus["COMPLETED"]) / float64(total))
	}
	stats.AvgHoursToComplete = round2(stats.AvgHoursToComplete)
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
