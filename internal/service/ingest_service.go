package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lfpl47/hiring-data-service/internal/domain"
	"github.com/lfpl47/hiring-data-service/internal/events"
	"github.com/lfpl47/hiring-data-service/internal/ingest"
)

// IngestService orchestrates single-batch ingestion runs arriving over the
// API: one run id, one error report artifact, one run event per batch.
type IngestService struct {
	ingestor   *ingest.Ingestor
	reports    *ingest.ReportWriter
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IngestDependencies bundles collaborators for the service.
type IngestDependencies struct {
	Ingestor   *ingest.Ingestor
	Reports    *ingest.ReportWriter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// RunResult is the caller-visible outcome of one ingestion run.
type RunResult struct {
	RunID      string
	Summary    ingest.Summary
	ReportPath string
}

// NewIngestService constructs the service.
func NewIngestService(deps IngestDependencies) *IngestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		ingestor:   deps.Ingestor,
		reports:    deps.Reports,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// IngestBatch runs one batch through the ingestor and persists the error
// report. A summary is always returned when ingestion itself succeeded, even
// if every record was rejected.
func (s *IngestService) IngestBatch(ctx context.Context, kind domain.EntityKind, batch []domain.RawRecord) (RunResult, error) {
	runID := uuid.NewString()

	summary, err := s.ingestor.Ingest(ctx, kind, batch)
	if err != nil {
		s.publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRunFailed,
			RunID:     runID,
			Table:     kind,
			Timestamp: time.Now(),
			Payload:   events.RunFailedPayload{Process: "ingest", Reason: err.Error()},
		})
		return RunResult{RunID: runID}, err
	}

	reportPath, werr := s.reports.Write("ingest", kind, runID, summary.Entries)
	if werr != nil {
		// The batch is already committed; a report write failure must not
		// undo it. Surface it loudly instead.
		s.logger.Error("failed to persist error report", zap.String("run_id", runID), zap.Error(werr))
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRunCompleted,
		RunID:     runID,
		Table:     kind,
		Timestamp: time.Now(),
		Payload: events.RunCompletedPayload{
			Process:    "ingest",
			Accepted:   summary.Accepted,
			Rejected:   summary.Rejected,
			ReportPath: reportPath,
		},
	})

	return RunResult{RunID: runID, Summary: summary, ReportPath: reportPath}, nil
}

func (s *IngestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
