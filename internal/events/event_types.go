package events

import (
	"time"

	"github.com/lfpl47/hiring-data-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRunCompleted EventType = "ingest_run_completed"
	EventRunFailed    EventType = "ingest_run_failed"
)

// Event represents a run outcome emitted by the ingestion services.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	RunID     string            `json:"run_id"`
	Table     domain.EntityKind `json:"table"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   interface{}       `json:"payload"`
}

// RunCompletedPayload payload.
type RunCompletedPayload struct {
	Process    string `json:"process"`
	Accepted   int    `json:"accepted"`
	Rejected   int    `json:"rejected"`
	ReportPath string `json:"report_path,omitempty"`
}

// RunFailedPayload payload.
type RunFailedPayload struct {
	Process string `json:"process"`
	Reason  string `json:"reason"`
}
