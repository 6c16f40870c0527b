package application

import (
	"context"
	"testing"
	"time"

	"github.com/tidemarkhq/tidemark/internal/domain"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

type fakeEventRepo struct {
	events []domain.Event
}

func (r *fakeEventRepo) Snapshot(ctx context.Context) ([]domain.Event, error) {
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out, nil
}

func (r *fakeEventRepo) SaveBatch(ctx context.Context, events []domain.Event) error {
	r.events = append(r.events, events...)
	return nil
}

type fakeBucketRepo struct {
	buckets  map[domain.BucketKey]domain.HourBucket
	replaces int
}

func (r *fakeBucketRepo) ReplaceAll(ctx context.Context, buckets map[domain.BucketKey]domain.HourBucket) error {
	r.buckets = buckets
	r.replaces++
	return nil
}

func (r *fakeBucketRepo) LoadAll(ctx context.Context) (map[domain.BucketKey]domain.HourBucket, error) {
	if r.buckets == nil {
		return map[domain.BucketKey]domain.HourBucket{}, nil
	}
	return r.buckets, nil
}

type fakeStatsRepo struct {
	rows map[string]map[int64]domain.PeriodStats
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{rows: make(map[string]map[int64]domain.PeriodStats)}
}

func (r *fakeStatsRepo) Upsert(ctx context.Context, scheme string, stats domain.PeriodStats) error {
	if r.rows[scheme] == nil {
		r.rows[scheme] = make(map[int64]domain.PeriodStats)
	}
	r.rows[scheme][stats.Period.Start.Unix()] = stats
	return nil
}

func (r *fakeStatsRepo) RecordedStarts(ctx context.Context, scheme string) (map[int64]bool, error) {
	out := make(map[int64]bool, len(r.rows[scheme]))
	for start := range r.rows[scheme] {
		out[start] = true
	}
	return out, nil
}

func (r *fakeStatsRepo) ListByScheme(ctx context.Context, scheme string, limit int) ([]domain.PeriodStats, error) {
	out := make([]domain.PeriodStats, 0, limit)
	for _, stats := range r.rows[scheme] {
		out = append(out, stats)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func testLogger() *logging.Logger {
	return logging.New()
}

func pipelineScheme(t *testing.T) domain.RotationScheme {
	t.Helper()
	s, err := domain.NewRotationScheme("weekly", "2026-01-09T12:00:00", "America/New_York")
	if err != nil {
		t.Fatalf("NewRotationScheme: %v", err)
	}
	return s
}

func fixedClock(t *testing.T, scheme domain.RotationScheme, value string) TimeProvider {
	t.Helper()
	instant, err := time.ParseInLocation("2006-01-02T15:04:05", value, scheme.Location())
	if err != nil {
		t.Fatalf("parsing %q: %v", value, err)
	}
	return func() time.Time { return instant.UTC() }
}

func TestIngestRecords_CountsSkipsAndFeedsSink(t *testing.T) {
	repo := &fakeEventRepo{}
	uc := NewIngestRecordsUseCase(SinkFunc(func(e domain.Event) {
		repo.events = append(repo.events, e)
	}), testLogger())
	uc.WithTimeProvider(func() time.Time { return time.Unix(2000, 0).UTC() })

	out, err := uc.Execute(context.Background(), IngestRecordsInput{
		Records: []domain.RawRecord{
			{ID: "a", Timestamp: 1000},
			{ID: "b", Timestamp: 0},    // no usable timestamp
			{ID: "c", Timestamp: 5000}, // ahead of the clock
			{ID: "d", Timestamp: 1500},
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if out.Accepted != 2 || out.Malformed != 1 || out.Future != 1 {
		t.Errorf("report = %+v, want accepted=2 malformed=1 future=1", out)
	}
	if len(repo.events) != 2 {
		t.Errorf("sink received %d events, want 2", len(repo.events))
	}
}

func TestIngestRecords_EmptyBatchRejected(t *testing.T) {
	uc := NewIngestRecordsUseCase(SinkFunc(func(domain.Event) {}), testLogger())
	if _, err := uc.Execute(context.Background(), IngestRecordsInput{}); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestRebuildHeatmap_ReplacesBucketsAtomically(t *testing.T) {
	scheme := pipelineScheme(t)
	repo := &fakeEventRepo{}
	buckets := &fakeBucketRepo{}

	base, _ := time.ParseInLocation("2006-01-02T15:04:05", "2026-01-10T09:00:00", scheme.Location())
	for i := 0; i < 6; i++ {
		repo.events = append(repo.events, domain.Event{
			ID:         string(rune('a' + i)),
			OccurredAt: base.Add(time.Duration(i) * time.Hour).Unix(),
		})
	}

	uc := NewRebuildHeatmapUseCase(repo, buckets, scheme.Location(), testLogger())

	out, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Events != 6 {
		t.Errorf("Events = %d, want 6", out.Events)
	}
	if out.Buckets != 6 {
		t.Errorf("Buckets = %d, want 6 distinct hours", out.Buckets)
	}

	// a second run over the same snapshot must land on identical buckets
	first := buckets.buckets
	if _, err := uc.Execute(context.Background()); err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if buckets.replaces != 2 {
		t.Errorf("replaces = %d, want 2 full swaps", buckets.replaces)
	}
	if len(buckets.buckets) != len(first) {
		t.Errorf("rebuild not idempotent: %d buckets vs %d", len(buckets.buckets), len(first))
	}
	for key, want := range first {
		if got := buckets.buckets[key]; got != want {
			t.Errorf("bucket %v changed across rebuilds: %+v vs %+v", key, got, want)
		}
	}
}

func TestSummarizePeriods_SkipsRecordedUnlessForced(t *testing.T) {
	scheme := pipelineScheme(t)
	buckets := &fakeBucketRepo{}
	stats := newFakeStatsRepo()

	// two full periods after the anchor, viewed from inside the third
	uc := NewSummarizePeriodsUseCase([]domain.RotationScheme{scheme}, buckets, stats, testLogger()).
		WithTimeProvider(fixedClock(t, scheme, "2026-01-25T09:00:00"))

	out, err := uc.Execute(context.Background(), SummarizePeriodsInput{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Closed != 2 || out.Written != 2 || out.Skipped != 0 {
		t.Errorf("first run = %+v, want closed=2 written=2 skipped=0", out)
	}

	out, err = uc.Execute(context.Background(), SummarizePeriodsInput{})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if out.Written != 0 || out.Skipped != 2 {
		t.Errorf("second run = %+v, want written=0 skipped=2", out)
	}

	out, err = uc.Execute(context.Background(), SummarizePeriodsInput{Force: true})
	if err != nil {
		t.Fatalf("forced Execute: %v", err)
	}
	if out.Written != 2 {
		t.Errorf("forced run wrote %d, want 2", out.Written)
	}
	if len(stats.rows["weekly"]) != 2 {
		t.Errorf("stored %d period rows, want 2 (upsert, no duplicates)", len(stats.rows["weekly"]))
	}
}

func TestForecast_AssemblesFullPicture(t *testing.T) {
	scheme := pipelineScheme(t)
	repo := &fakeEventRepo{}
	buckets := &fakeBucketRepo{}

	periodStart, _ := time.ParseInLocation("2006-01-02T15:04:05", "2026-01-09T12:00:00", scheme.Location())
	for i := 0; i < 40; i++ {
		repo.events = append(repo.events, domain.Event{
			ID:         string(rune('a'+i%26)) + string(rune('0'+i/26)),
			OccurredAt: periodStart.Add(time.Duration(i) * 2 * time.Hour).Unix(),
		})
	}
	buckets.buckets = domain.AggregateHourly(repo.events, scheme.Location())

	uc := NewForecastUseCase([]domain.RotationScheme{scheme}, repo, buckets, testLogger()).
		WithTimeProvider(fixedClock(t, scheme, "2026-01-13T12:00:00"))

	out, err := uc.Execute(context.Background(), "weekly")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if out.Scheme != "weekly" {
		t.Errorf("Scheme = %q", out.Scheme)
	}
	if !out.Period.Start.Equal(periodStart) {
		t.Errorf("Period.Start = %v, want %v", out.Period.Start, periodStart)
	}
	if out.CurrentCount != 40 {
		t.Errorf("CurrentCount = %d, want 40", out.CurrentCount)
	}
	if out.Prediction.PredictedTotal < out.CurrentCount {
		t.Errorf("PredictedTotal = %d below observed %d", out.Prediction.PredictedTotal, out.CurrentCount)
	}
	if len(out.Momentum) != 4 {
		t.Errorf("Momentum has %d windows, want 4", len(out.Momentum))
	}
	if out.Patterns.DaysAnalyzed == 0 {
		t.Error("Patterns.DaysAnalyzed = 0, want data")
	}
}

func TestForecast_UnknownSchemeIsNotFound(t *testing.T) {
	scheme := pipelineScheme(t)
	uc := NewForecastUseCase([]domain.RotationScheme{scheme}, &fakeEventRepo{}, &fakeBucketRepo{}, testLogger())
	if _, err := uc.Execute(context.Background(), "nope"); err == nil {
		t.Fatal("expected not-found error for unknown scheme")
	}
}

type fakeForecastCache struct {
	stored map[string]*ForecastOutput
}

func (c *fakeForecastCache) StoreForecast(ctx context.Context, scheme string, f *ForecastOutput) error {
	if c.stored == nil {
		c.stored = make(map[string]*ForecastOutput)
	}
	c.stored[scheme] = f
	return nil
}

func (c *fakeForecastCache) LoadForecast(ctx context.Context, scheme string) (*ForecastOutput, error) {
	return c.stored[scheme], nil
}

func TestForecast_CachedReadAvoidsRecompute(t *testing.T) {
	scheme := pipelineScheme(t)
	repo := &fakeEventRepo{}
	cache := &fakeForecastCache{}

	uc := NewForecastUseCase([]domain.RotationScheme{scheme}, repo, &fakeBucketRepo{}, testLogger()).
		WithTimeProvider(fixedClock(t, scheme, "2026-01-13T12:00:00")).
		WithCache(cache)

	first, err := uc.ExecuteCached(context.Background(), "weekly")
	if err != nil {
		t.Fatalf("ExecuteCached: %v", err)
	}
	if cache.stored["weekly"] == nil {
		t.Fatal("forecast not written through to cache")
	}

	// mutate the store; the cached read must not reflect it
	repo.events = append(repo.events, domain.Event{ID: "x", OccurredAt: first.GeneratedAt.Unix() - 60})
	second, err := uc.ExecuteCached(context.Background(), "weekly")
	if err != nil {
		t.Fatalf("second ExecuteCached: %v", err)
	}
	if second.CurrentCount != first.CurrentCount {
		t.Errorf("cached read recomputed: CurrentCount %d vs %d", second.CurrentCount, first.CurrentCount)
	}
}
