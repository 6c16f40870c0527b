package application

import (
	"context"
	"fmt"
	"time"

	"github.com/tidemarkhq/tidemark/internal/domain"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

// ForecastCache abstracts the cache layer for forecast results.
// allows the use case to remain decoupled from redis specifics.
type ForecastCache interface {
	StoreForecast(ctx context.Context, scheme string, forecast *ForecastOutput) error
	LoadForecast(ctx context.Context, scheme string) (*ForecastOutput, error)
}

// ForecastOutput is the full analytical picture for one rotation scheme at
// a point in time: the live period, its observed count, the end-of-period
// prediction, short-window momentum, the 7d/30d trend and hourly patterns.
type ForecastOutput struct {
	Scheme       string                  `json:"scheme"`
	GeneratedAt  time.Time               `json:"generated_at"`
	Period       domain.Period           `json:"period"`
	NextPeriod   domain.Period           `json:"next_period"`
	CurrentCount int                     `json:"current_count"`
	Prediction   domain.PredictionResult `json:"prediction"`
	Momentum     []domain.WindowMomentum `json:"momentum"`
	Trend        domain.Trend            `json:"trend"`
	Patterns     domain.ActivityPatterns `json:"patterns"`
}

// ForecastUseCase produces the live forecast for a rotation scheme. all
// analytical work happens in pure domain functions; this use case only
// assembles their inputs from the stores and caches the result.
type ForecastUseCase struct {
	schemes      []domain.RotationScheme
	source       domain.EventSource
	bucketRepo   domain.BucketRepository
	cache        ForecastCache
	timeProvider TimeProvider
	metrics      PipelineMetrics
	logger       *logging.Logger
}

// NewForecastUseCase creates a new ForecastUseCase.
func NewForecastUseCase(
	schemes []domain.RotationScheme,
	source domain.EventSource,
	bucketRepo domain.BucketRepository,
	logger *logging.Logger,
) *ForecastUseCase {
	return &ForecastUseCase{
		schemes:      schemes,
		source:       source,
		bucketRepo:   bucketRepo,
		timeProvider: RealTime,
		logger:       logger.WithComponent("forecast"),
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (uc *ForecastUseCase) WithTimeProvider(tp TimeProvider) *ForecastUseCase {
	uc.timeProvider = tp
	return uc
}

// WithCache sets the forecast cache (redis).
// when set, Execute writes through and ExecuteCached reads through.
func (uc *ForecastUseCase) WithCache(c ForecastCache) *ForecastUseCase {
	uc.cache = c
	return uc
}

// WithMetrics sets the pipeline metrics recorder.
func (uc *ForecastUseCase) WithMetrics(m PipelineMetrics) *ForecastUseCase {
	uc.metrics = m
	return uc
}

func (uc *ForecastUseCase) findScheme(name string) (domain.RotationScheme, error) {
	for _, s := range uc.schemes {
		if s.Name() == name {
			return s, nil
		}
	}
	return domain.RotationScheme{}, fmt.Errorf("scheme %q: %w", name, domain.ErrNotFound)
}

// Schemes returns the names of the configured rotation schemes.
func (uc *ForecastUseCase) Schemes() []string {
	names := make([]string, 0, len(uc.schemes))
	for _, s := range uc.schemes {
		names = append(names, s.Name())
	}
	return names
}

// Execute computes a fresh forecast for the named scheme and writes it to
// the cache when one is configured. cache failures are logged, not
// propagated; postgres remains the source of truth.
func (uc *ForecastUseCase) Execute(ctx context.Context, schemeName string) (*ForecastOutput, error) {
	start := time.Now()

	scheme, err := uc.findScheme(schemeName)
	if err != nil {
		return nil, err
	}

	now := uc.timeProvider()
	current, next := scheme.PeriodsAt(now)
	if current == nil {
		// before the scheme anchor there is no live period to forecast
		return nil, fmt.Errorf("scheme %q has no live period yet: %w", schemeName, domain.ErrNotFound)
	}

	events, err := uc.source.Snapshot(ctx)
	if err != nil {
		uc.logger.Error("forecast failed: loading snapshot",
			"scheme", schemeName,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("loading event snapshot: %w", err)
	}

	buckets, err := uc.bucketRepo.LoadAll(ctx)
	if err != nil {
		uc.logger.Error("forecast failed: loading buckets",
			"scheme", schemeName,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("loading buckets: %w", err)
	}
	daily := domain.BuildDailyAggregates(buckets)

	currentCount := domain.CountInPeriod(events, *current)
	elapsedDays := now.Sub(current.Start).Hours() / 24

	inPeriod := make([]domain.Event, 0, currentCount)
	for _, e := range events {
		if current.Contains(e.OccurredAtTime()) {
			inPeriod = append(inPeriod, e)
		}
	}

	out := &ForecastOutput{
		Scheme:       scheme.Name(),
		GeneratedAt:  now,
		Period:       *current,
		NextPeriod:   next,
		CurrentCount: currentCount,
		Momentum:     domain.ShortWindowMomentum(events, now, currentCount, elapsedDays),
		Trend:        domain.AnalyzeTrend(daily, now, scheme.Location()),
		Patterns:     domain.AnalyzePatterns(daily),
		Prediction: domain.Predict(domain.PredictionInput{
			CurrentCount: currentCount,
			PeriodStart:  current.Start,
			PeriodEnd:    current.End,
			Now:          now,
			RecentEvents: inPeriod,
		}),
	}

	if uc.cache != nil {
		if err := uc.cache.StoreForecast(ctx, scheme.Name(), out); err != nil {
			// log but don't fail, the computed forecast is still valid
			uc.logger.Warn("forecast cache write failed",
				"scheme", scheme.Name(),
				"error", err.Error(),
			)
		}
	}

	duration := time.Since(start)
	if uc.metrics != nil {
		uc.metrics.ObservePipelineStage("forecast", duration)
	}

	uc.logger.Info("forecast computed",
		"scheme", scheme.Name(),
		"current_count", currentCount,
		"predicted_total", out.Prediction.PredictedTotal,
		"confidence", string(out.Prediction.Confidence),
		"duration_ms", duration.Milliseconds(),
	)

	return out, nil
}

// ExecuteCached returns the cached forecast when present, falling back to
// a fresh computation on a miss or a cache error.
func (uc *ForecastUseCase) ExecuteCached(ctx context.Context, schemeName string) (*ForecastOutput, error) {
	if uc.cache != nil {
		cached, err := uc.cache.LoadForecast(ctx, schemeName)
		if err != nil {
			uc.logger.Warn("forecast cache read failed",
				"scheme", schemeName,
				"error", err.Error(),
			)
		} else if cached != nil {
			return cached, nil
		}
	}
	return uc.Execute(ctx, schemeName)
}
