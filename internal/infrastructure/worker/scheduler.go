package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tidemarkhq/tidemark/internal/application"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

// RecomputeScheduler runs the batch pipeline on a cron cadence: rebuild
// the heatmap, summarize any newly closed periods, then refresh the cached
// forecast for every scheme. stages run in order because each consumes the
// previous stage's output.
type RecomputeScheduler struct {
	cron      *cron.Cron
	spec      string
	rebuild   *application.RebuildHeatmapUseCase
	summarize *application.SummarizePeriodsUseCase
	forecast  *application.ForecastUseCase
	timeout   time.Duration
	logger    *logging.Logger
}

// NewRecomputeScheduler creates a scheduler from a standard cron spec.
func NewRecomputeScheduler(
	spec string,
	rebuild *application.RebuildHeatmapUseCase,
	summarize *application.SummarizePeriodsUseCase,
	forecast *application.ForecastUseCase,
	logger *logging.Logger,
) *RecomputeScheduler {
	return &RecomputeScheduler{
		cron:      cron.New(),
		spec:      spec,
		rebuild:   rebuild,
		summarize: summarize,
		forecast:  forecast,
		timeout:   5 * time.Minute,
		logger:    logger.WithComponent("recompute_scheduler"),
	}
}

// Start registers the pipeline job and begins the cron loop.
// the pipeline also runs once immediately so a fresh deployment serves
// data without waiting for the first tick.
func (s *RecomputeScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return err
	}

	s.logger.Info("recompute scheduler starting", "cron", s.spec)
	go s.runOnce()
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running pipeline to finish.
func (s *RecomputeScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("recompute scheduler stopped")
}

// RunNow triggers an immediate pipeline run outside the cron cadence.
// used by the admin recompute endpoint.
func (s *RecomputeScheduler) RunNow(ctx context.Context, force bool) error {
	return s.run(ctx, force)
}

func (s *RecomputeScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.run(ctx, false); err != nil {
		s.logger.Error("scheduled recompute failed", "error", err.Error())
	}
}

func (s *RecomputeScheduler) run(ctx context.Context, force bool) error {
	start := time.Now()

	if _, err := s.rebuild.Execute(ctx); err != nil {
		return err
	}
	if _, err := s.summarize.Execute(ctx, application.SummarizePeriodsInput{Force: force}); err != nil {
		return err
	}
	for _, scheme := range s.forecast.Schemes() {
		if _, err := s.forecast.Execute(ctx, scheme); err != nil {
			// a scheme without a live period yet is not a pipeline failure
			s.logger.Warn("forecast refresh skipped",
				"scheme", scheme,
				"error", err.Error(),
			)
		}
	}

	s.logger.PipelineRunCompleted("full", time.Since(start))
	return nil
}
