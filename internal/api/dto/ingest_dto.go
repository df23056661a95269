package dto

import (
	"github.com/lfpl47/hiring-data-service/internal/domain"
	"github.com/lfpl47/hiring-data-service/internal/ingest"
)

// IngestRequest groups records for all tables in a single request. Each
// provided list must contain between 1 and 1000 records; absent lists are
// skipped.
type IngestRequest struct {
	Departments    []domain.RawRecord `json:"departments"`
	Jobs           []domain.RawRecord `json:"jobs"`
	HiredEmployees []domain.RawRecord `json:"hired_employees"`
}

// TableIngestRequest carries one table's batch.
type TableIngestRequest struct {
	Records []domain.RawRecord `json:"records"`
}

// IngestSummaryResponse reports one run's outcome.
type IngestSummaryResponse struct {
	RunID    string                  `json:"run_id"`
	Table    string                  `json:"table"`
	Accepted int                     `json:"accepted"`
	Rejected int                     `json:"rejected"`
	Report   string                  `json:"report,omitempty"`
	Errors   []ingest.RejectionEntry `json:"errors,omitempty"`
}
