package reports

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/flashledger/flashledger/internal/masterdata/branches"
	"github.com/flashledger/flashledger/internal/platform/cache"
)

// Filters scopes one P&L request. End is inclusive.
type Filters struct {
	Start     time.Time
	End       time.Time
	BranchIDs []int64
}

func (f Filters) cacheKey() string {
	ids := append([]int64(nil), f.BranchIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	branchPart := "all"
	if len(parts) > 0 {
		branchPart = strings.Join(parts, ",")
	}
	return fmt.Sprintf("%s:%s:%s", f.Start.Format("2006-01-02"), f.End.Format("2006-01-02"), branchPart)
}

// Service assembles cached P&L reports. Concurrent identical requests
// collapse into one build via singleflight.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	branches branches.Repository
	cache    *cache.Cache
	group    singleflight.Group
}

func NewService(logger *slog.Logger, repo Repository, branchRepo branches.Repository, c *cache.Cache) *Service {
	return &Service{logger: logger, repo: repo, branches: branchRepo, cache: c}
}

// ProfitAndLoss returns the report for the filter window, from cache when
// possible. Cache failures degrade to a direct build.
func (s *Service) ProfitAndLoss(ctx context.Context, f Filters) (ProfitAndLoss, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "pl", f.cacheKey())
	if err != nil {
		s.logger.Warn("pl cache key unavailable, building directly", slog.Any("error", err))
		return s.build(ctx, f)
	}

	value, err, _ := s.group.Do(key, func() (any, error) {
		var pl ProfitAndLoss
		err := s.cache.FetchJSON(ctx, key, &pl, func(ctx context.Context) (any, error) {
			return s.build(ctx, f)
		})
		return pl, err
	})
	if err != nil {
		return ProfitAndLoss{}, err
	}
	return value.(ProfitAndLoss), nil
}

func (s *Service) build(ctx context.Context, f Filters) (ProfitAndLoss, error) {
	endExclusive := f.End.AddDate(0, 0, 1)

	consolidated, err := s.repo.AccountBalances(ctx, f.Start, endExclusive, f.BranchIDs, nil)
	if err != nil {
		return ProfitAndLoss{}, fmt.Errorf("reports: consolidated balances: %w", err)
	}

	hqIDs, err := s.branches.HQBranchIDs(ctx)
	if err != nil {
		return ProfitAndLoss{}, fmt.Errorf("reports: hq branches: %w", err)
	}
	operating := consolidated
	if len(hqIDs) > 0 {
		operating, err = s.repo.AccountBalances(ctx, f.Start, endExclusive, f.BranchIDs, hqIDs)
		if err != nil {
			return ProfitAndLoss{}, fmt.Errorf("reports: operating balances: %w", err)
		}
	}

	return BuildProfitAndLoss(Period{Start: f.Start, End: f.End}, consolidated, operating), nil
}
