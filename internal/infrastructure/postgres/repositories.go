package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tidemarkhq/tidemark/internal/domain"
)

// EventRepository implements domain.EventRepository using Postgres.
type EventRepository struct {
	pool   *pgxpool.Pool
	schema string
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(pool *pgxpool.Pool, schema string) *EventRepository {
	return &EventRepository{pool: pool, schema: schema}
}

// SaveBatch persists normalized events in a single transaction.
// re-ingesting the same batch is a no-op per event id, so the ingest
// path stays idempotent.
func (r *EventRepository) SaveBatch(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s.events (id, occurred_at, is_reply, raw_text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, r.schema)

	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(query, event.ID, event.OccurredAt, event.IsReply, event.RawText)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for range events {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("batch inserting events: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Snapshot loads the full normalized event set, oldest first.
func (r *EventRepository) Snapshot(ctx context.Context) ([]domain.Event, error) {
	query := fmt.Sprintf(`
		SELECT id, occurred_at, is_reply, raw_text
		FROM %s.events
		ORDER BY occurred_at
	`, r.schema)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.IsReply, &e.RawText); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count returns the number of stored events.
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s.events`, r.schema),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return count, nil
}

// BucketRepository implements domain.BucketRepository using Postgres.
type BucketRepository struct {
	pool   *pgxpool.Pool
	schema string
}

// NewBucketRepository creates a new BucketRepository.
func NewBucketRepository(pool *pgxpool.Pool, schema string) *BucketRepository {
	return &BucketRepository{pool: pool, schema: schema}
}

// ReplaceAll swaps in the full rebuilt bucket set. delete and copy run in
// one transaction so readers see either the old set or the new set, never
// a mix.
func (r *BucketRepository) ReplaceAll(ctx context.Context, buckets map[domain.BucketKey]domain.HourBucket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s.hour_buckets`, r.schema)); err != nil {
		return fmt.Errorf("clearing buckets: %w", err)
	}

	rows := make([][]any, 0, len(buckets))
	for key, bucket := range buckets {
		rows = append(rows, []any{key.Date, key.Hour, bucket.PostCount, bucket.ReplyCount})
	}

	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{r.schema, "hour_buckets"},
		[]string{"local_date", "local_hour", "post_count", "reply_count"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("bulk inserting buckets: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LoadAll reads the stored bucket set.
func (r *BucketRepository) LoadAll(ctx context.Context) (map[domain.BucketKey]domain.HourBucket, error) {
	query := fmt.Sprintf(`
		SELECT local_date, local_hour, post_count, reply_count
		FROM %s.hour_buckets
	`, r.schema)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying buckets: %w", err)
	}
	defer rows.Close()

	buckets := make(map[domain.BucketKey]domain.HourBucket)
	for rows.Next() {
		var (
			key    domain.BucketKey
			bucket domain.HourBucket
		)
		if err := rows.Scan(&key.Date, &key.Hour, &bucket.PostCount, &bucket.ReplyCount); err != nil {
			return nil, fmt.Errorf("scanning bucket row: %w", err)
		}
		bucket.DateNormalized = key.Date
		bucket.Hour = key.Hour
		buckets[key] = bucket
	}
	return buckets, rows.Err()
}

// PeriodStatsRepository implements domain.PeriodStatsRepository using Postgres.
type PeriodStatsRepository struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPeriodStatsRepository creates a new PeriodStatsRepository.
func NewPeriodStatsRepository(pool *pgxpool.Pool, schema string) *PeriodStatsRepository {
	return &PeriodStatsRepository{pool: pool, schema: schema}
}

// Upsert writes stats for one closed period, overwriting any prior row for
// the same scheme and period start.
func (r *PeriodStatsRepository) Upsert(ctx context.Context, scheme string, stats domain.PeriodStats) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.period_stats
			(scheme, period_start, period_end, label, non_reply_count, reply_count, total_count, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (scheme, period_start) DO UPDATE SET
			period_end = EXCLUDED.period_end,
			label = EXCLUDED.label,
			non_reply_count = EXCLUDED.non_reply_count,
			reply_count = EXCLUDED.reply_count,
			total_count = EXCLUDED.total_count,
			computed_at = EXCLUDED.computed_at
	`, r.schema)

	_, err := r.pool.Exec(ctx, query,
		scheme,
		stats.Period.Start,
		stats.Period.End,
		stats.Period.Label,
		stats.NonReplyCount,
		stats.ReplyCount,
		stats.TotalCount,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting period stats: %w", err)
	}
	return nil
}

// RecordedStarts returns the period start instants already summarized for
// a scheme, keyed by unix second.
func (r *PeriodStatsRepository) RecordedStarts(ctx context.Context, scheme string) (map[int64]bool, error) {
	query := fmt.Sprintf(`
		SELECT period_start FROM %s.period_stats WHERE scheme = $1
	`, r.schema)

	rows, err := r.pool.Query(ctx, query, scheme)
	if err != nil {
		return nil, fmt.Errorf("querying recorded periods: %w", err)
	}
	defer rows.Close()

	recorded := make(map[int64]bool)
	for rows.Next() {
		var start time.Time
		if err := rows.Scan(&start); err != nil {
			return nil, fmt.Errorf("scanning period start: %w", err)
		}
		recorded[start.Unix()] = true
	}
	return recorded, rows.Err()
}

// ListByScheme returns the most recently ended periods for a scheme.
func (r *PeriodStatsRepository) ListByScheme(ctx context.Context, scheme string, limit int) ([]domain.PeriodStats, error) {
	query := fmt.Sprintf(`
		SELECT period_start, period_end, label, non_reply_count, reply_count, total_count
		FROM %s.period_stats
		WHERE scheme = $1
		ORDER BY period_end DESC
		LIMIT $2
	`, r.schema)

	rows, err := r.pool.Query(ctx, query, scheme, limit)
	if err != nil {
		return nil, fmt.Errorf("querying period stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.PeriodStats
	for rows.Next() {
		var s domain.PeriodStats
		if err := rows.Scan(
			&s.Period.Start,
			&s.Period.End,
			&s.Period.Label,
			&s.NonReplyCount,
			&s.ReplyCount,
			&s.TotalCount,
		); err != nil {
			return nil, fmt.Errorf("scanning period stats row: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
