package migration

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lfpl47/hiring-data-service/internal/config"
	"github.com/lfpl47/hiring-data-service/internal/domain"
	"github.com/lfpl47/hiring-data-service/internal/events"
	"github.com/lfpl47/hiring-data-service/internal/ingest"
)

// RunReport aggregates one table's migration: every batch's counts plus the
// merged error report. On an aborted run it reflects the batches that
// committed before the failure.
type RunReport struct {
	RunID         string
	Table         domain.EntityKind
	TotalRead     int
	TotalAccepted int
	TotalRejected int
	Entries       []ingest.RejectionEntry
	ReportPath    string
}

// Dependencies bundles collaborators for the driver.
type Dependencies struct {
	Ingestor   *ingest.Ingestor
	Reports    *ingest.ReportWriter
	Dispatcher events.Dispatcher
	Sources    *config.Sources
	Logger     *zap.Logger
}

// Driver migrates CSV bulk sources into storage by splitting them into
// bounded batches and feeding the ingestor sequentially.
type Driver struct {
	ingestor   *ingest.Ingestor
	reports    *ingest.ReportWriter
	dispatcher events.Dispatcher
	sources    *config.Sources
	logger     *zap.Logger
}

// NewDriver constructs the driver.
func NewDriver(deps Dependencies) *Driver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		ingestor:   deps.Ingestor,
		reports:    deps.Reports,
		dispatcher: deps.Dispatcher,
		sources:    deps.Sources,
		logger:     logger,
	}
}

// MigrateAll migrates every configured table in referential dependency order
// so rows committed by an earlier table are visible when later batches
// validate their references. It stops at the first infrastructure failure,
// returning the reports of the runs that completed.
func (d *Driver) MigrateAll(ctx context.Context) ([]RunReport, error) {
	reports := make([]RunReport, 0, len(domain.Kinds()))
	for _, kind := range domain.Kinds() {
		if _, ok := d.sources.Tables[string(kind)]; !ok {
			continue
		}
		report, err := d.Migrate(ctx, kind)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// Migrate reads one table's CSV source, splits it into consecutive batches
// preserving source order, and drives the ingestor once per batch. Batches
// are strictly sequential: a row committed in batch N is a valid reference
// target for batch N+1. Cancellation is honored at batch boundaries; a fatal
// failure aborts the run but the partial report is still returned.
func (d *Driver) Migrate(ctx context.Context, kind domain.EntityKind) (RunReport, error) {
	src, ok := d.sources.Tables[string(kind)]
	if !ok {
		return RunReport{}, fmt.Errorf("no source configured for table %s", kind)
	}

	records, err := readCSV(src)
	if err != nil {
		return RunReport{}, err
	}

	report := RunReport{
		RunID:     uuid.NewString(),
		Table:     kind,
		TotalRead: len(records),
	}
	batchSize := d.batchSize()

	d.logger.Info("migration started",
		zap.String("run_id", report.RunID),
		zap.String("table", string(kind)),
		zap.Int("records", len(records)),
		zap.Int("batch_size", batchSize),
	)

	for start := 0; start < len(records); start += batchSize {
		select {
		case <-ctx.Done():
			d.finish(ctx, &report, "migration")
			return report, ctx.Err()
		default:
		}

		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		summary, err := d.ingestor.Ingest(ctx, kind, records[start:end])
		if err != nil {
			// Partial progress stays observable: batches before this one are
			// committed and counted.
			d.finish(ctx, &report, "migration")
			d.publishFailed(ctx, report, err)
			return report, err
		}

		report.TotalAccepted += summary.Accepted
		report.TotalRejected += summary.Rejected
		for _, entry := range summary.Entries {
			entry.Row += start
			report.Entries = append(report.Entries, entry)
		}
	}

	d.finish(ctx, &report, "migration")
	d.publishCompleted(ctx, report)
	d.logger.Info("migration finished",
		zap.String("run_id", report.RunID),
		zap.String("table", string(kind)),
		zap.Int("accepted", report.TotalAccepted),
		zap.Int("rejected", report.TotalRejected),
	)
	return report, nil
}

func (d *Driver) batchSize() int {
	size := d.sources.BatchSize
	if size <= 0 || size > ingest.MaxBatchSize {
		size = ingest.MaxBatchSize
	}
	return size
}

func (d *Driver) finish(_ context.Context, report *RunReport, process string) {
	path, err := d.reports.Write(process, report.Table, report.RunID, report.Entries)
	if err != nil {
		d.logger.Error("failed to persist error report",
			zap.String("run_id", report.RunID), zap.Error(err))
		return
	}
	report.ReportPath = path
}

func (d *Driver) publishCompleted(ctx context.Context, report RunReport) {
	if d.dispatcher == nil {
		return
	}
	_ = d.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRunCompleted,
		RunID:     report.RunID,
		Table:     report.Table,
		Timestamp: time.Now(),
		Payload: events.RunCompletedPayload{
			Process:    "migration",
			Accepted:   report.TotalAccepted,
			Rejected:   report.TotalRejected,
			ReportPath: report.ReportPath,
		},
	})
}

func (d *Driver) publishFailed(ctx context.Context, report RunReport, cause error) {
	if d.dispatcher == nil {
		return
	}
	_ = d.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRunFailed,
		RunID:     report.RunID,
		Table:     report.Table,
		Timestamp: time.Now(),
		Payload:   events.RunFailedPayload{Process: "migration", Reason: cause.Error()},
	})
}

// readCSV loads the whole source into raw records keyed by the configured
// column names. Short rows simply leave fields absent; the validator rejects
// them as missing_field so one bad line never aborts the run.
func readCSV(src config.CSVSource) ([]domain.RawRecord, error) {
	file, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv source: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if src.Header {
		if _, err := reader.Read(); err != nil && err != io.EOF {
			return nil, fmt.Errorf("read csv header: %w", err)
		}
	}

	var records []domain.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		rec := make(domain.RawRecord, len(src.Columns))
		for i, col := range src.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
