package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/lfpl47/hiring-data-service/internal/domain"
)

// RejectionEntry is one rejected record with its reason, as persisted in the
// run's error report artifact.
type RejectionEntry struct {
	Row    int               `json:"row_index"`
	Table  domain.EntityKind `json:"table"`
	Reason Rejection         `json:"reason"`
	Record domain.RawRecord  `json:"data"`
}

// Collector accumulates rejections for one run, preserving input order.
type Collector struct {
	entries []RejectionEntry
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record adds one rejection.
func (c *Collector) Record(row int, table domain.EntityKind, reason Rejection, rec domain.RawRecord) {
	c.entries = append(c.entries, RejectionEntry{Row: row, Table: table, Reason: reason, Record: rec})
}

// Append merges already-built entries, e.g. per-batch reports into a
// run-level one.
func (c *Collector) Append(entries []RejectionEntry) {
	c.entries = append(c.entries, entries...)
}

// Entries returns the ordered rejections.
func (c *Collector) Entries() []RejectionEntry {
	return c.entries
}

// Len returns the rejection count.
func (c *Collector) Len() int {
	return len(c.entries)
}

// ReportWriter persists one error report artifact per run. Filenames carry
// the process type, table, timestamp and run id so concurrent runs never
// overwrite each other.
type ReportWriter struct {
	dir    string
	logger *zap.Logger
}

// NewReportWriter builds a writer targeting dir.
func NewReportWriter(dir string, logger *zap.Logger) *ReportWriter {
	return &ReportWriter{dir: dir, logger: logger}
}

// Write serializes entries to a JSON artifact and returns its path. Runs with
// no rejections produce no artifact.
func (w *ReportWriter) Write(process string, table domain.EntityKind, runID string, entries []RejectionEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	name := fmt.Sprintf("%s_errors_%s_%s_%s.json",
		process, table, time.Now().Format("20060102150405"), shortID(runID))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	w.logger.Warn("validation errors recorded",
		zap.String("table", string(table)),
		zap.Int("rejections", len(entries)),
		zap.String("report", path),
	)
	return path, nil
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
