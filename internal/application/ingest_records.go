package application

import (
	"context"
	"fmt"

	"github.com/tidemarkhq/tidemark/internal/domain"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

// EventSink accepts normalized events for asynchronous persistence.
// the buffered ingestion worker implements this; tests use an in-memory
// implementation.
type EventSink interface {
	Enqueue(event domain.Event)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(event domain.Event)

// Enqueue implements EventSink.
func (f SinkFunc) Enqueue(event domain.Event) { f(event) }

// IngestMetrics abstracts ingestion counters.
// keeps the use case decoupled from prometheus specifics.
type IngestMetrics interface {
	RecordEventsAccepted(n int)
	RecordEventSkipped(reason string)
}

// IngestRecordsInput carries a batch of raw records as received on the wire.
type IngestRecordsInput struct {
	Records []domain.RawRecord
}

// IngestRecordsOutput reports the outcome of a batch ingest.
type IngestRecordsOutput struct {
	Accepted  int `json:"accepted"`
	Malformed int `json:"malformed"`
	Future    int `json:"future"`
}

// IngestRecordsUseCase normalizes raw activity records and hands the
// accepted events to the sink. records that cannot be normalized are
// counted and skipped; a batch never fails as a whole because of bad rows.
type IngestRecordsUseCase struct {
	sink         EventSink
	metrics      IngestMetrics
	timeProvider TimeProvider
	logger       *logging.Logger
}

// NewIngestRecordsUseCase creates a new IngestRecordsUseCase.
func NewIngestRecordsUseCase(sink EventSink, logger *logging.Logger) *IngestRecordsUseCase {
	return &IngestRecordsUseCase{
		sink:         sink,
		timeProvider: RealTime,
		logger:       logger.WithComponent("ingest_records"),
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (uc *IngestRecordsUseCase) WithTimeProvider(tp TimeProvider) *IngestRecordsUseCase {
	uc.timeProvider = tp
	return uc
}

// WithMetrics sets the ingestion metrics recorder.
func (uc *IngestRecordsUseCase) WithMetrics(m IngestMetrics) *IngestRecordsUseCase {
	uc.metrics = m
	return uc
}

// Execute normalizes and enqueues a batch of raw records.
func (uc *IngestRecordsUseCase) Execute(ctx context.Context, input IngestRecordsInput) (*IngestRecordsOutput, error) {
	if len(input.Records) == 0 {
		return nil, fmt.Errorf("empty batch: %w", domain.ErrMalformedEvent)
	}

	now := uc.timeProvider()
	events, report := domain.NormalizeBatch(input.Records, now)

	for _, event := range events {
		uc.sink.Enqueue(event)
	}

	if uc.metrics != nil {
		uc.metrics.RecordEventsAccepted(len(events))
		for i := 0; i < report.Malformed; i++ {
			uc.metrics.RecordEventSkipped("malformed")
		}
		for i := 0; i < report.Future; i++ {
			uc.metrics.RecordEventSkipped("future_timestamp")
		}
	}

	uc.logger.Info("batch ingested",
		"received", len(input.Records),
		"accepted", report.Accepted,
		"malformed", report.Malformed,
		"future", report.Future,
	)

	return &IngestRecordsOutput{
		Accepted:  report.Accepted,
		Malformed: report.Malformed,
		Future:    report.Future,
	}, nil
}
