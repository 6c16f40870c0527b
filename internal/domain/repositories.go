package domain

import "context"

// EventSource provides the complete event snapshot the batch pipeline runs
// over. the concrete source is chosen at composition time and injected, so
// the pipeline never touches a module-level data source.
type EventSource interface {
	Snapshot(ctx context.Context) ([]Event, error)
}

// EventRepository persists normalized events.
type EventRepository interface {
	EventSource
	SaveBatch(ctx context.Context, events []Event) error
}

// BucketRepository persists the heatmap bucket set. ReplaceAll swaps in the
// full rebuilt set as a unit so readers never observe a partial mix of old
// and new rows.
type BucketRepository interface {
	ReplaceAll(ctx context.Context, buckets map[BucketKey]HourBucket) error
	LoadAll(ctx context.Context) (map[BucketKey]HourBucket, error)
}

// PeriodStatsRepository persists stats for closed periods, keyed by scheme
// name and period start instant. Upsert must overwrite, not duplicate, so
// recomputation stays idempotent.
type PeriodStatsRepository interface {
	Upsert(ctx context.Context, scheme string, stats PeriodStats) error
	RecordedStarts(ctx context.Context, scheme string) (map[int64]bool, error)
	ListByScheme(ctx context.Context, scheme string, limit int) ([]PeriodStats, error)
}
