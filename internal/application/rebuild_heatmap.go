package application

import (
	"context"
	"fmt"
	"time"

	"github.com/tidemarkhq/tidemark/internal/domain"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

// PipelineMetrics abstracts duration tracking for batch recompute stages.
type PipelineMetrics interface {
	ObservePipelineStage(stage string, duration time.Duration)
}

// RebuildHeatmapOutput reports the outcome of a full heatmap rebuild.
type RebuildHeatmapOutput struct {
	Events   int           `json:"events"`
	Buckets  int           `json:"buckets"`
	Duration time.Duration `json:"-"`
}

// RebuildHeatmapUseCase recomputes the full hourly bucket set from the
// event snapshot and atomically replaces the stored buckets. the rebuild
// is a pure fold over events, so running it twice on the same snapshot
// produces the same buckets.
type RebuildHeatmapUseCase struct {
	source     domain.EventSource
	bucketRepo domain.BucketRepository
	location   *time.Location
	metrics    PipelineMetrics
	logger     *logging.Logger
}

// NewRebuildHeatmapUseCase creates a new RebuildHeatmapUseCase.
func NewRebuildHeatmapUseCase(
	source domain.EventSource,
	bucketRepo domain.BucketRepository,
	location *time.Location,
	logger *logging.Logger,
) *RebuildHeatmapUseCase {
	return &RebuildHeatmapUseCase{
		source:     source,
		bucketRepo: bucketRepo,
		location:   location,
		logger:     logger.WithComponent("rebuild_heatmap"),
	}
}

// WithMetrics sets the pipeline metrics recorder.
func (uc *RebuildHeatmapUseCase) WithMetrics(m PipelineMetrics) *RebuildHeatmapUseCase {
	uc.metrics = m
	return uc
}

// Execute rebuilds the hourly heatmap from the full event snapshot.
func (uc *RebuildHeatmapUseCase) Execute(ctx context.Context) (*RebuildHeatmapOutput, error) {
	start := time.Now()

	events, err := uc.source.Snapshot(ctx)
	if err != nil {
		uc.logger.Error("heatmap rebuild failed: loading snapshot",
			"error", err.Error(),
		)
		return nil, fmt.Errorf("loading event snapshot: %w", err)
	}

	buckets := domain.AggregateHourly(events, uc.location)

	if err := uc.bucketRepo.ReplaceAll(ctx, buckets); err != nil {
		uc.logger.Error("heatmap rebuild failed: storing buckets",
			"events", len(events),
			"buckets", len(buckets),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("replacing buckets: %w", err)
	}

	duration := time.Since(start)
	if uc.metrics != nil {
		uc.metrics.ObservePipelineStage("rebuild_heatmap", duration)
	}

	uc.logger.Info("heatmap rebuilt",
		"events", len(events),
		"buckets", len(buckets),
		"duration_ms", duration.Milliseconds(),
	)

	return &RebuildHeatmapOutput{
		Events:   len(events),
		Buckets:  len(buckets),
		Duration: duration,
	}, nil
}
