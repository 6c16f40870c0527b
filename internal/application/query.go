package application

import (
	"context"
	"fmt"

	"github.com/tidemarkhq/tidemark/internal/domain"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

// ActivityQuery serves the read-side endpoints over precomputed state.
// it never touches the raw event table.
type ActivityQuery struct {
	bucketRepo domain.BucketRepository
	statsRepo  domain.PeriodStatsRepository
	logger     *logging.Logger
}

// NewActivityQuery creates a new ActivityQuery.
func NewActivityQuery(
	bucketRepo domain.BucketRepository,
	statsRepo domain.PeriodStatsRepository,
	logger *logging.Logger,
) *ActivityQuery {
	return &ActivityQuery{
		bucketRepo: bucketRepo,
		statsRepo:  statsRepo,
		logger:     logger.WithComponent("activity_query"),
	}
}

// Heatmap returns the stored hourly heatmap as date-sorted rows.
func (q *ActivityQuery) Heatmap(ctx context.Context) ([]domain.HeatmapRow, error) {
	buckets, err := q.bucketRepo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading buckets: %w", err)
	}
	return domain.BuildHeatmap(buckets), nil
}

// RangeTotals sums activity over an inclusive local date range.
func (q *ActivityQuery) RangeTotals(ctx context.Context, startDate, endDate string) (domain.RangeTotals, error) {
	buckets, err := q.bucketRepo.LoadAll(ctx)
	if err != nil {
		return domain.RangeTotals{}, fmt.Errorf("loading buckets: %w", err)
	}
	daily := domain.BuildDailyAggregates(buckets)
	return domain.SummarizeRange(daily, startDate, endDate), nil
}

// PeriodHistory lists the most recent closed-period stats for a scheme.
func (q *ActivityQuery) PeriodHistory(ctx context.Context, scheme string, limit int) ([]domain.PeriodStats, error) {
	if limit <= 0 {
		limit = 12
	}
	stats, err := q.statsRepo.ListByScheme(ctx, scheme, limit)
	if err != nil {
		return nil, fmt.Errorf("listing period stats: %w", err)
	}
	return stats, nil
}
