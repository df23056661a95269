package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lfpl47/hiring-data-service/internal/events"
	"github.com/lfpl47/hiring-data-service/internal/observability"
	"github.com/lfpl47/hiring-data-service/internal/persistence"
)

// AuditWorker records run outcomes: structured log lines, in-memory counters
// and durable Redis counters per table.
type AuditWorker struct {
	redis   *persistence.Redis
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAuditWorker constructs the worker.
func NewAuditWorker(redis *persistence.Redis, metrics *observability.Metrics, logger *zap.Logger) *AuditWorker {
	return &AuditWorker{redis: redis, metrics: metrics, logger: logger}
}

// Register subscribes the worker to run events.
func (w *AuditWorker) Register(dispatcher events.Dispatcher) {
	if w == nil || dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventRunCompleted, w.handleCompleted)
	dispatcher.Subscribe(events.EventRunFailed, w.handleFailed)
}

func (w *AuditWorker) handleCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RunCompletedPayload)
	if !ok {
		return nil
	}

	w.metrics.RecordIngest(string(event.Table), payload.Accepted, payload.Rejected)
	w.logger.Info("ingest run completed",
		zap.String("run_id", event.RunID),
		zap.String("table", string(event.Table)),
		zap.String("process", payload.Process),
		zap.Int("accepted", payload.Accepted),
		zap.Int("rejected", payload.Rejected),
		zap.String("report", payload.ReportPath),
	)

	if w.redis != nil && w.redis.Client != nil {
		pipe := w.redis.Client.Pipeline()
		pipe.IncrBy(ctx, counterKey("accepted", string(event.Table)), int64(payload.Accepted))
		pipe.IncrBy(ctx, counterKey("rejected", string(event.Table)), int64(payload.Rejected))
		if _, err := pipe.Exec(ctx); err != nil {
			// Audit counters are best effort; the run itself already succeeded.
			w.logger.Warn("audit counter update failed", zap.Error(err))
		}
	}
	return nil
}

func (w *AuditWorker) handleFailed(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.RunFailedPayload)
	w.logger.Error("ingest run failed",
		zap.String("run_id", event.RunID),
		zap.String("table", string(event.Table)),
		zap.String("process", payload.Process),
		zap.String("reason", payload.Reason),
	)
	return nil
}

func counterKey(outcome, table string) string {
	return fmt.Sprintf("ingest:%s:%s", outcome, table)
}
