package application

import (
	"context"
	"fmt"
	"time"

	"github.com/tidemarkhq/tidemark/internal/domain"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

// SummarizePeriodsInput controls a summarization run.
type SummarizePeriodsInput struct {
	// Force recomputes every closed period even when stats already exist.
	// stored rows are overwritten, never duplicated.
	Force bool
}

// SummarizePeriodsOutput reports how many periods were written per scheme.
type SummarizePeriodsOutput struct {
	Closed  int `json:"closed"`
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// SummarizePeriodsUseCase computes stats for every fully elapsed period of
// each configured rotation scheme and upserts them. already-recorded
// periods are skipped unless forced, so the scheduled run stays cheap.
type SummarizePeriodsUseCase struct {
	schemes      []domain.RotationScheme
	bucketRepo   domain.BucketRepository
	statsRepo    domain.PeriodStatsRepository
	timeProvider TimeProvider
	metrics      PipelineMetrics
	logger       *logging.Logger
}

// NewSummarizePeriodsUseCase creates a new SummarizePeriodsUseCase.
func NewSummarizePeriodsUseCase(
	schemes []domain.RotationScheme,
	bucketRepo domain.BucketRepository,
	statsRepo domain.PeriodStatsRepository,
	logger *logging.Logger,
) *SummarizePeriodsUseCase {
	return &SummarizePeriodsUseCase{
		schemes:      schemes,
		bucketRepo:   bucketRepo,
		statsRepo:    statsRepo,
		timeProvider: RealTime,
		logger:       logger.WithComponent("summarize_periods"),
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (uc *SummarizePeriodsUseCase) WithTimeProvider(tp TimeProvider) *SummarizePeriodsUseCase {
	uc.timeProvider = tp
	return uc
}

// WithMetrics sets the pipeline metrics recorder.
func (uc *SummarizePeriodsUseCase) WithMetrics(m PipelineMetrics) *SummarizePeriodsUseCase {
	uc.metrics = m
	return uc
}

// Execute summarizes all closed periods across every configured scheme.
func (uc *SummarizePeriodsUseCase) Execute(ctx context.Context, input SummarizePeriodsInput) (*SummarizePeriodsOutput, error) {
	start := time.Now()
	now := uc.timeProvider()

	buckets, err := uc.bucketRepo.LoadAll(ctx)
	if err != nil {
		uc.logger.Error("period summarization failed: loading buckets",
			"error", err.Error(),
		)
		return nil, fmt.Errorf("loading buckets: %w", err)
	}
	daily := domain.BuildDailyAggregates(buckets)

	output := &SummarizePeriodsOutput{}
	for _, scheme := range uc.schemes {
		recorded, err := uc.statsRepo.RecordedStarts(ctx, scheme.Name())
		if err != nil {
			uc.logger.Error("period summarization failed: listing recorded periods",
				"scheme", scheme.Name(),
				"error", err.Error(),
			)
			return nil, fmt.Errorf("listing recorded periods for %s: %w", scheme.Name(), err)
		}

		closed := scheme.ClosedPeriodsBefore(now)
		output.Closed += len(closed)

		for _, p := range closed {
			if !input.Force && recorded[p.Start.Unix()] {
				output.Skipped++
				continue
			}

			stats := domain.SummarizePeriod(daily, p, scheme.Location())
			if err := uc.statsRepo.Upsert(ctx, scheme.Name(), stats); err != nil {
				uc.logger.Error("period stats upsert failed",
					"scheme", scheme.Name(),
					"period", p.Label,
					"error", err.Error(),
				)
				return nil, fmt.Errorf("upserting stats for %s %s: %w", scheme.Name(), p.Label, err)
			}
			output.Written++
		}
	}

	duration := time.Since(start)
	if uc.metrics != nil {
		uc.metrics.ObservePipelineStage("summarize_periods", duration)
	}

	uc.logger.Info("periods summarized",
		"schemes", len(uc.schemes),
		"closed", output.Closed,
		"written", output.Written,
		"skipped", output.Skipped,
		"duration_ms", duration.Milliseconds(),
	)

	return output, nil
}
