package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hamba/avro/v2/ocf"
	"go.uber.org/zap"

	"github.com/lfpl47/hiring-data-service/internal/domain"
	"github.com/lfpl47/hiring-data-service/internal/repository"
	"github.com/lfpl47/hiring-data-service/pkg/util"
)

// Avro object container files are self-describing: the schema rides in the
// file header, so restore needs no side channel.
const (
	departmentSchema = `{
		"type": "record", "name": "departments", "namespace": "backup.avro",
		"fields": [
			{"name": "id", "type": "long"},
			{"name": "department", "type": "string"}
		]
	}`
	jobSchema = `{
		"type": "record", "name": "jobs", "namespace": "backup.avro",
		"fields": [
			{"name": "id", "type": "long"},
			{"name": "job", "type": "string"}
		]
	}`
	employeeSchema = `{
		"type": "record", "name": "hired_employees", "namespace": "backup.avro",
		"fields": [
			{"name": "id", "type": "long"},
			{"name": "name", "type": "string"},
			{"name": "datetime", "type": "string"},
			{"name": "department_id", "type": "long"},
			{"name": "job_id", "type": "long"}
		]
	}`
)

type departmentRecord struct {
	ID         int64  `avro:"id"`
	Department string `avro:"department"`
}

type jobRecord struct {
	ID  int64  `avro:"id"`
	Job string `avro:"job"`
}

type employeeRecord struct {
	ID           int64  `avro:"id"`
	Name         string `avro:"name"`
	Datetime     string `avro:"datetime"`
	DepartmentID int64  `avro:"department_id"`
	JobID        int64  `avro:"job_id"`
}

// Dependencies bundles the storage collaborators.
type Dependencies struct {
	DepartmentRepo repository.DepartmentRepository
	JobRepo        repository.JobRepository
	EmployeeRepo   repository.EmployeeRepository
	Dir            string
	Logger         *zap.Logger
}

// Manager exports whole tables to Avro files and loads them back. Restored
// rows are assumed already valid and skip validation; malformed backup files
// are fatal.
type Manager struct {
	departments repository.DepartmentRepository
	jobs        repository.JobRepository
	employees   repository.EmployeeRepository
	dir         string
	logger      *zap.Logger
}

// NewManager constructs the manager.
func NewManager(deps Dependencies) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		departments: deps.DepartmentRepo,
		jobs:        deps.JobRepo,
		employees:   deps.EmployeeRepo,
		dir:         deps.Dir,
		logger:      logger,
	}
}

// Backup dumps one table to <dir>/<table>.avro and returns the file path.
func (m *Manager) Backup(ctx context.Context, kind domain.EntityKind) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(m.dir, string(kind)+".avro")

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer file.Close()

	var count int
	switch kind {
	case domain.KindDepartment:
		count, err = m.backupDepartments(ctx, file)
	case domain.KindJob:
		count, err = m.backupJobs(ctx, file)
	case domain.KindHiredEmployee:
		count, err = m.backupEmployees(ctx, file)
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
	if err != nil {
		return "", err
	}

	m.logger.Info("table backed up",
		zap.String("table", string(kind)),
		zap.Int("rows", count),
		zap.String("file", path),
	)
	return path, nil
}

// Restore loads one table's Avro file and appends its rows to storage.
func (m *Manager) Restore(ctx context.Context, kind domain.EntityKind, path string) error {
	if path == "" {
		path = filepath.Join(m.dir, string(kind)+".avro")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer file.Close()

	dec, err := ocf.NewDecoder(file)
	if err != nil {
		return util.NewBackupCorrupt(path, err)
	}

	var count int
	switch kind {
	case domain.KindDepartment:
		count, err = m.restoreDepartments(ctx, dec, path)
	case domain.KindJob:
		count, err = m.restoreJobs(ctx, dec, path)
	case domain.KindHiredEmployee:
		count, err = m.restoreEmployees(ctx, dec, path)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	if err != nil {
		return err
	}

	m.logger.Info("table restored",
		zap.String("table", string(kind)),
		zap.Int("rows", count),
		zap.String("file", path),
	)
	return nil
}

func (m *Manager) backupDepartments(ctx context.Context, file *os.File) (int, error) {
	departments, err := m.departments.List(ctx)
	if err != nil {
		return 0, util.NewStorageUnavailable(err)
	}
	enc, err := ocf.NewEncoder(departmentSchema, file)
	if err != nil {
		return 0, err
	}
	for _, dept := range departments {
		if err := enc.Encode(departmentRecord{ID: dept.ID, Department: dept.Name}); err != nil {
			return 0, err
		}
	}
	return len(departments), enc.Close()
}

func (m *Manager) backupJobs(ctx context.Context, file *os.File) (int, error) {
	jobs, err := m.jobs.List(ctx)
	if err != nil {
		return 0, util.NewStorageUnavailable(err)
	}
	enc, err := ocf.NewEncoder(jobSchema, file)
	if err != nil {
		return 0, err
	}
	for _, job := range jobs {
		if err := enc.Encode(jobRecord{ID: job.ID, Job: job.Title}); err != nil {
			return 0, err
		}
	}
	return len(jobs), enc.Close()
}

func (m *Manager) backupEmployees(ctx context.Context, file *os.File) (int, error) {
	employees, err := m.employees.List(ctx)
	if err != nil {
		return 0, util.NewStorageUnavailable(err)
	}
	enc, err := ocf.NewEncoder(employeeSchema, file)
	if err != nil {
		return 0, err
	}
	for _, emp := range employees {
		rec := employeeRecord{
			ID:           emp.ID,
			Name:         emp.Name,
			Datetime:     emp.HiredAt.Format(time.RFC3339),
			DepartmentID: emp.DepartmentID,
			JobID:        emp.JobID,
		}
		if err := enc.Encode(rec); err != nil {
			return 0, err
		}
	}
	return len(employees), enc.Close()
}

func (m *Manager) restoreDepartments(ctx context.Context, dec *ocf.Decoder, path string) (int, error) {
	var rows []domain.Department
	for dec.HasNext() {
		var rec departmentRecord
		if err := dec.Decode(&rec); err != nil {
			return 0, util.NewBackupCorrupt(path, err)
		}
		rows = append(rows, domain.Department{ID: rec.ID, Name: rec.Department})
	}
	if err := dec.Error(); err != nil {
		return 0, util.NewBackupCorrupt(path, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := m.departments.InsertBatch(ctx, rows); err != nil {
		return 0, util.NewStorageUnavailable(err)
	}
	return len(rows), nil
}

func (m *Manager) restoreJobs(ctx context.Context, dec *ocf.Decoder, path string) (int, error) {
	var rows []domain.Job
	for dec.HasNext() {
		var rec jobRecord
		if err := dec.Decode(&rec); err != nil {
			return 0, util.NewBackupCorrupt(path, err)
		}
		rows = append(rows, domain.Job{ID: rec.ID, Title: rec.Job})
	}
	if err := dec.Error(); err != nil {
		return 0, util.NewBackupCorrupt(path, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := m.jobs.InsertBatch(ctx, rows); err != nil {
		return 0, util.NewStorageUnavailable(err)
	}
	return len(rows), nil
}

func (m *Manager) restoreEmployees(ctx context.Context, dec *ocf.Decoder, path string) (int, error) {
	var rows []domain.HiredEmployee
	for dec.HasNext() {
		var rec employeeRecord
		if err := dec.Decode(&rec); err != nil {
			return 0, util.NewBackupCorrupt(path, err)
		}
		hiredAt, err := time.Parse(time.RFC3339, rec.Datetime)
		if err != nil {
			return 0, util.NewBackupCorrupt(path, err)
		}
		rows = append(rows, domain.HiredEmployee{
			ID:           rec.ID,
			Name:         rec.Name,
			HiredAt:      hiredAt,
			DepartmentID: rec.DepartmentID,
			JobID:        rec.JobID,
		})
	}
	if err := dec.Error(); err != nil {
		return 0, util.NewBackupCorrupt(path, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := m.employees.InsertBatch(ctx, rows); err != nil {
		return 0, util.NewStorageUnavailable(err)
	}
	return len(rows), nil
}
