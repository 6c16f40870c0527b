package worker

import (
	"context"
	"sync"
	"time"

	"github.com/tidemarkhq/tidemark/internal/domain"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

// BufferGauge reports the ingest buffer depth to whoever is watching,
// without coupling the worker to the metrics package.
type BufferGauge interface {
	SetBufferSize(size int)
}

// IngestConfig tunes the batching behavior of the ingestion worker.
type IngestConfig struct {
	// BufferSize bounds how many normalized events may queue between the
	// HTTP handler and the writers before Enqueue starts dropping.
	BufferSize int

	// BatchSize is how many events a writer accumulates before a flush.
	BatchSize int

	// FlushInterval caps how long a partial batch may sit unwritten.
	FlushInterval time.Duration

	// Writers is the number of goroutines persisting batches.
	Writers int
}

// DefaultIngestConfig returns tuning suited to bursty ingest traffic.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		BufferSize:    10000,
		BatchSize:     200,
		FlushInterval: 500 * time.Millisecond,
		Writers:       2,
	}
}

// IngestWorker decouples the ingest endpoint from postgres: handlers
// enqueue normalized events, writer goroutines batch them into
// SaveBatch calls. Saves are idempotent, so a retried client batch
// cannot double-count.
type IngestWorker struct {
	events chan domain.Event
	repo   domain.EventRepository
	config IngestConfig
	logger *logging.Logger
	gauge  BufferGauge

	dropped  int64
	dropMu   sync.Mutex
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

func NewIngestWorker(repo domain.EventRepository, config IngestConfig, logger *logging.Logger) *IngestWorker {
	return &IngestWorker{
		events:  make(chan domain.Event, config.BufferSize),
		repo:    repo,
		config:  config,
		logger:  logger.WithComponent("ingest_worker"),
		stopped: make(chan struct{}),
	}
}

// WithBufferGauge wires the buffer depth gauge.
func (w *IngestWorker) WithBufferGauge(g BufferGauge) *IngestWorker {
	w.gauge = g
	return w
}

// Enqueue hands one event to the writers. It never blocks the caller:
// when the buffer is full the event is dropped and counted, since a
// stalled database should surface as dropped writes, not a hung ingest
// endpoint. Implements application.EventSink.
func (w *IngestWorker) Enqueue(event domain.Event) {
	select {
	case w.events <- event:
	default:
		w.dropMu.Lock()
		w.dropped++
		n := w.dropped
		w.dropMu.Unlock()
		w.logger.Warn("ingest buffer full, event dropped",
			"event_id", event.ID,
			"total_dropped", n,
		)
	}
}

// Start launches the writer goroutines.
func (w *IngestWorker) Start(ctx context.Context) {
	w.logger.Info("ingest worker starting",
		"buffer_size", w.config.BufferSize,
		"batch_size", w.config.BatchSize,
		"flush_interval", w.config.FlushInterval.String(),
		"writers", w.config.Writers,
	)

	for i := 0; i < w.config.Writers; i++ {
		w.wg.Add(1)
		go w.runWriter(ctx, i)
	}
}

// Stop closes the intake, waits for the writers to drain what is
// already buffered, then reports. Safe to call more than once.
func (w *IngestWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("ingest worker stopping, draining buffer")
		close(w.events)
		w.wg.Wait()
		close(w.stopped)

		w.dropMu.Lock()
		dropped := w.dropped
		w.dropMu.Unlock()
		w.logger.Info("ingest worker stopped", "dropped_total", dropped)
	})
}

// Stopped closes once the final drain has finished.
func (w *IngestWorker) Stopped() <-chan struct{} {
	return w.stopped
}

// QueueSize is the number of events currently buffered.
func (w *IngestWorker) QueueSize() int {
	return len(w.events)
}

func (w *IngestWorker) runWriter(ctx context.Context, id int) {
	defer w.wg.Done()

	batch := make([]domain.Event, 0, w.config.BatchSize)
	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.persist(ctx, batch, id)
		batch = batch[:0]
	}

	for {
		select {
		case event, ok := <-w.events:
			if !ok {
				flush()
				w.logger.Debug("writer drained", "writer_id", id)
				return
			}
			batch = append(batch, event)
			if len(batch) >= w.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-ctx.Done():
			flush()
			w.logger.Debug("writer exiting on context cancel", "writer_id", id)
			return
		}
	}
}

func (w *IngestWorker) persist(ctx context.Context, batch []domain.Event, id int) {
	start := time.Now()
	err := w.repo.SaveBatch(ctx, batch)
	elapsed := time.Since(start)

	if err != nil {
		w.logger.Error("batch save failed",
			"writer_id", id,
			"batch_size", len(batch),
			"error", err.Error(),
			"duration_ms", elapsed.Milliseconds(),
		)
		return
	}

	if w.gauge != nil {
		w.gauge.SetBufferSize(len(w.events))
	}

	w.logger.Debug("batch flushed",
		"writer_id", id,
		"batch_size", len(batch),
		"duration_ms", elapsed.Milliseconds(),
	)
}
