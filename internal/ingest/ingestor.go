package ingest

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/lfpl47/hiring-data-service/internal/domain"
	"github.com/lfpl47/hiring-data-service/internal/repository"
	"github.com/lfpl47/hiring-data-service/pkg/util"
)

// MaxBatchSize is the ceiling on records per ingestion attempt.
const MaxBatchSize = 1000

// RunLock serializes ingestion runs that must not interleave reference-set
// reads with another run's writes.
type RunLock interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Summary reports the outcome of one batch ingestion. Data-quality failures
// live in Entries; they never surface as errors.
type Summary struct {
	Table    domain.EntityKind
	Accepted int
	Rejected int
	Entries  []RejectionEntry
}

// Dependencies bundles collaborators for the ingestor. MaxBatch overrides the
// default batch ceiling when positive; it can only tighten it.
type Dependencies struct {
	DepartmentRepo repository.DepartmentRepository
	JobRepo        repository.JobRepository
	EmployeeRepo   repository.EmployeeRepository
	Lock           RunLock
	MaxBatch       int
	Logger         *zap.Logger
}

// Ingestor validates a batch against a per-batch storage snapshot and commits
// the accepted subset atomically.
type Ingestor struct {
	departments repository.DepartmentRepository
	jobs        repository.JobRepository
	employees   repository.EmployeeRepository
	lock        RunLock
	maxBatch    int
	logger      *zap.Logger
}

// NewIngestor constructs the ingestor.
func NewIngestor(deps Dependencies) *Ingestor {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBatch := MaxBatchSize
	if deps.MaxBatch > 0 && deps.MaxBatch < MaxBatchSize {
		maxBatch = deps.MaxBatch
	}
	return &Ingestor{
		departments: deps.DepartmentRepo,
		jobs:        deps.JobRepo,
		employees:   deps.EmployeeRepo,
		lock:        deps.Lock,
		maxBatch:    maxBatch,
		logger:      logger,
	}
}

// Ingest validates every record in the batch, partitions accepted/rejected,
// and commits all accepted records as one transaction. The batch size window
// is enforced before any validation or storage access; only infrastructure
// failures return an error.
func (s *Ingestor) Ingest(ctx context.Context, kind domain.EntityKind, batch []domain.RawRecord) (Summary, error) {
	if len(batch) < 1 || len(batch) > s.maxBatch {
		return Summary{}, util.NewBatchSizeError(len(batch), s.maxBatch)
	}

	// HiredEmployee batches read department/job reference sets and must not
	// interleave with other writers; departments/jobs only check their own
	// table and get by with lighter isolation.
	if kind == domain.KindHiredEmployee && s.lock != nil {
		release, err := s.lock.Acquire(ctx, string(kind))
		if err != nil {
			return Summary{}, util.NewStorageUnavailable(err)
		}
		defer release()
	}

	var (
		summary Summary
		err     error
	)
	switch kind {
	case domain.KindDepartment:
		summary, err = s.ingestDepartments(ctx, batch)
	case domain.KindJob:
		summary, err = s.ingestJobs(ctx, batch)
	case domain.KindHiredEmployee:
		summary, err = s.ingestEmployees(ctx, batch)
	default:
		return Summary{}, util.NewValidationError("unknown entity kind", map[string]any{"kind": string(kind)})
	}
	if err != nil {
		return Summary{}, err
	}

	s.logger.Info("batch ingested",
		zap.String("table", string(kind)),
		zap.Int("accepted", summary.Accepted),
		zap.Int("rejected", summary.Rejected),
	)
	return summary, nil
}

func (s *Ingestor) ingestDepartments(ctx context.Context, batch []domain.RawRecord) (Summary, error) {
	existing, err := s.departments.IDs(ctx)
	if err != nil {
		return Summary{}, util.NewStorageUnavailable(err)
	}

	collector := NewCollector()
	seen := make(map[int64]struct{}, len(batch))
	accepted := make([]domain.Department, 0, len(batch))

	for i, rec := range batch {
		dept, rej := ValidateDepartment(rec)
		if rej == nil {
			rej = duplicateID(dept.ID, existing, seen)
		}
		if rej != nil {
			collector.Record(i, domain.KindDepartment, *rej, rec)
			continue
		}
		seen[dept.ID] = struct{}{}
		accepted = append(accepted, dept)
	}

	if len(accepted) > 0 {
		if err := s.departments.InsertBatch(ctx, accepted); err != nil {
			return Summary{}, util.NewStorageUnavailable(err)
		}
	}
	return Summary{
		Table:    domain.KindDepartment,
		Accepted: len(accepted),
		Rejected: collector.Len(),
		Entries:  collector.Entries(),
	}, nil
}

func (s *Ingestor) ingestJobs(ctx context.Context, batch []domain.RawRecord) (Summary, error) {
	existing, err := s.jobs.IDs(ctx)
	if err != nil {
		return Summary{}, util.NewStorageUnavailable(err)
	}

	collector := NewCollector()
	seen := make(map[int64]struct{}, len(batch))
	accepted := make([]domain.Job, 0, len(batch))

	for i, rec := range batch {
		job, rej := ValidateJob(rec)
		if rej == nil {
			rej = duplicateID(job.ID, existing, seen)
		}
		if rej != nil {
			collector.Record(i, domain.KindJob, *rej, rec)
			continue
		}
		seen[job.ID] = struct{}{}
		accepted = append(accepted, job)
	}

	if len(accepted) > 0 {
		if err := s.jobs.InsertBatch(ctx, accepted); err != nil {
			return Summary{}, util.NewStorageUnavailable(err)
		}
	}
	return Summary{
		Table:    domain.KindJob,
		Accepted: len(accepted),
		Rejected: collector.Len(),
		Entries:  collector.Entries(),
	}, nil
}

func (s *Ingestor) ingestEmployees(ctx context.Context, batch []domain.RawRecord) (Summary, error) {
	// Reference sets are loaded once per batch; a consistent snapshot is
	// guaranteed by the run lock held in Ingest.
	refs, err := s.loadReferenceSets(ctx)
	if err != nil {
		return Summary{}, err
	}
	existing, err := s.employees.IDs(ctx)
	if err != nil {
		return Summary{}, util.NewStorageUnavailable(err)
	}

	collector := NewCollector()
	seen := make(map[int64]struct{}, len(batch))
	accepted := make([]domain.HiredEmployee, 0, len(batch))

	for i, rec := range batch {
		emp, rej := ValidateHiredEmployee(rec, refs)
		if rej == nil {
			rej = duplicateID(emp.ID, existing, seen)
		}
		if rej != nil {
			collector.Record(i, domain.KindHiredEmployee, *rej, rec)
			continue
		}
		seen[emp.ID] = struct{}{}
		accepted = append(accepted, emp)
	}

	if len(accepted) > 0 {
		if err := s.employees.InsertBatch(ctx, accepted); err != nil {
			return Summary{}, util.NewStorageUnavailable(err)
		}
	}
	return Summary{
		Table:    domain.KindHiredEmployee,
		Accepted: len(accepted),
		Rejected: collector.Len(),
		Entries:  collector.Entries(),
	}, nil
}

func (s *Ingestor) loadReferenceSets(ctx context.Context) (ReferenceSets, error) {
	deptIDs, err := s.departments.IDs(ctx)
	if err != nil {
		return ReferenceSets{}, util.NewStorageUnavailable(err)
	}
	jobIDs, err := s.jobs.IDs(ctx)
	if err != nil {
		return ReferenceSets{}, util.NewStorageUnavailable(err)
	}
	return ReferenceSets{Departments: deptIDs, Jobs: jobIDs}, nil
}

// duplicateID rejects ids already committed or already accepted earlier in
// this batch; the first occurrence wins.
func duplicateID(id int64, existing, seen map[int64]struct{}) *Rejection {
	if _, ok := existing[id]; ok {
		return &Rejection{Code: ReasonDuplicateID, Field: "id", Value: strconv.FormatInt(id, 10)}
	}
	if _, ok := seen[id]; ok {
		return &Rejection{Code: ReasonDuplicateID, Field: "id", Value: strconv.FormatInt(id, 10)}
	}
	return nil
}
