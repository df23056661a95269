package migration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lfpl47/hiring-data-service/internal/config"
	"github.com/lfpl47/hiring-data-service/internal/domain"
	"github.com/lfpl47/hiring-data-service/internal/ingest"
)

type memDepartmentRepo struct {
	rows      []domain.Department
	insertErr error
}

func (m *memDepartmentRepo) IDs(ctx context.Context) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{}, len(m.rows))
	for _, d := range m.rows {
		ids[d.ID] = struct{}{}
	}
	return ids, nil
}

func (m *memDepartmentRepo) InsertBatch(ctx context.Context, depts []domain.Department) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, depts...)
	return nil
}

func (m *memDepartmentRepo) List(ctx context.Context) ([]domain.Department, error) {
	return m.rows, nil
}

type memJobRepo struct{ rows []domain.Job }

func (m *memJobRepo) IDs(ctx context.Context) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{}, len(m.rows))
	for _, j := range m.rows {
		ids[j.ID] = struct{}{}
	}
	return ids, nil
}

func (m *memJobRepo) InsertBatch(ctx context.Context, jobs []domain.Job) error {
	m.rows = append(m.rows, jobs...)
	return nil
}

func (m *memJobRepo) List(ctx context.Context) ([]domain.Job, error) {
	return m.rows, nil
}

type memEmployeeRepo struct{ rows []domain.HiredEmployee }

func (m *memEmployeeRepo) IDs(ctx context.Context) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{}, len(m.rows))
	for _, e := range m.rows {
		ids[e.ID] = struct{}{}
	}
	return ids, nil
}

func (m *memEmployeeRepo) InsertBatch(ctx context.Context, emps []domain.HiredEmployee) error {
	m.rows = append(m.rows, emps...)
	return nil
}

func (m *memEmployeeRepo) List(ctx context.Context) ([]domain.HiredEmployee, error) {
	return m.rows, nil
}

type fixture struct {
	departments *memDepartmentRepo
	jobs        *memJobRepo
	employees   *memEmployeeRepo
	reportDir   string
}

func (f *fixture) driver(t *testing.T, sources *config.Sources) *Driver {
	t.Helper()
	ingestor := ingest.NewIngestor(ingest.Dependencies{
		DepartmentRepo: f.departments,
		JobRepo:        f.jobs,
		EmployeeRepo:   f.employees,
	})
	return NewDriver(Dependencies{
		Ingestor: ingestor,
		Reports:  ingest.NewReportWriter(f.reportDir, zap.NewNop()),
		Sources:  sources,
	})
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		departments: &memDepartmentRepo{},
		jobs:        &memJobRepo{},
		employees:   &memEmployeeRepo{},
		reportDir:   t.TempDir(),
	}
}

func writeCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestMigrateSplitsIntoBatches(t *testing.T) {
	dir := t.TempDir()
	lines := []string{"id,department"}
	for i := 1; i <= 5; i++ {
		lines = append(lines, fmt.Sprintf("%d,Department %d", i, i))
	}
	path := writeCSV(t, dir, "departments.csv", lines...)

	f := newFixture(t)
	sources := &config.Sources{
		BatchSize: 2,
		Tables: map[string]config.CSVSource{
			"departments": {Path: path, Header: true, Columns: []string{"id", "department"}},
		},
	}

	report, err := f.driver(t, sources).Migrate(context.Background(), domain.KindDepartment)
	require.NoError(t, err)
	assert.Equal(t, 5, report.TotalRead)
	assert.Equal(t, 5, report.TotalAccepted)
	assert.Equal(t, 0, report.TotalRejected)
	assert.Empty(t, report.ReportPath)
	require.Len(t, f.departments.rows, 5)
	assert.Equal(t, int64(1), f.departments.rows[0].ID)
	assert.Equal(t, int64(5), f.departments.rows[4].ID)
}

func TestMigrateOffsetsRejectionRowsAcrossBatches(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "departments.csv",
		"1,Engineering",
		"2,Sales",
		"2,Duplicate Sales", // row 2, lands in the second batch
		"3,Support",
	)

	f := newFixture(t)
	sources := &config.Sources{
		BatchSize: 2,
		Tables: map[string]config.CSVSource{
			"departments": {Path: path, Columns: []string{"id", "department"}},
		},
	}

	report, err := f.driver(t, sources).Migrate(context.Background(), domain.KindDepartment)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalAccepted)
	assert.Equal(t, 1, report.TotalRejected)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, 2, report.Entries[0].Row)

	require.NotEmpty(t, report.ReportPath)
	base := filepath.Base(report.ReportPath)
	assert.True(t, strings.HasPrefix(base, "migration_errors_departments_"), base)
}

func TestMigrateAllRunsInDependencyOrder(t *testing.T) {
	dir := t.TempDir()
	deptPath := writeCSV(t, dir, "departments.csv", "1,Engineering")
	jobPath := writeCSV(t, dir, "jobs.csv", "1,Backend")
	empPath := writeCSV(t, dir, "hired_employees.csv",
		"1,Ada,2021-02-01T00:00:00Z,1,1",
		"2,Grace,2021-02-02T00:00:00Z,9,1", // department 9 never exists
	)

	f := newFixture(t)
	sources := &config.Sources{
		BatchSize: 1000,
		Tables: map[string]config.CSVSource{
			"departments":     {Path: deptPath, Columns: []string{"id", "department"}},
			"jobs":            {Path: jobPath, Columns: []string{"id", "job"}},
			"hired_employees": {Path: empPath, Columns: []string{"id", "name", "datetime", "department_id", "job_id"}},
		},
	}

	reports, err := f.driver(t, sources).MigrateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, domain.KindDepartment, reports[0].Table)
	assert.Equal(t, domain.KindJob, reports[1].Table)
	assert.Equal(t, domain.KindHiredEmployee, reports[2].Table)

	// The employee row referencing the migrated department commits; the
	// dangling one is rejected, not fatal.
	assert.Equal(t, 1, reports[2].TotalAccepted)
	assert.Equal(t, 1, reports[2].TotalRejected)
	require.Len(t, f.employees.rows, 1)
	assert.Equal(t, "Ada", f.employees.rows[0].Name)
}

func TestMigrateReturnsPartialReportOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "departments.csv",
		"1,Engineering",
		"2,Sales",
		"3,Support",
		"4,Finance",
	)

	f := newFixture(t)
	sources := &config.Sources{
		BatchSize: 2,
		Tables: map[string]config.CSVSource{
			"departments": {Path: path, Columns: []string{"id", "department"}},
		},
	}

	f.departments.insertErr = errors.New("connection lost")
	report, err := f.driver(t, sources).Migrate(context.Background(), domain.KindDepartment)
	require.Error(t, err)
	assert.Equal(t, 4, report.TotalRead)
	assert.Equal(t, 0, report.TotalAccepted)
	assert.Empty(t, f.departments.rows)
}

func TestMigrateHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "departments.csv", "1,Engineering", "2,Sales")

	f := newFixture(t)
	sources := &config.Sources{
		BatchSize: 1,
		Tables: map[string]config.CSVSource{
			"departments": {Path: path, Columns: []string{"id", "department"}},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.driver(t, sources).Migrate(ctx, domain.KindDepartment)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.TotalAccepted)
	assert.Empty(t, f.departments.rows)
}

func TestMigrateUnconfiguredTable(t *testing.T) {
	f := newFixture(t)
	sources := &config.Sources{
		BatchSize: 10,
		Tables:    map[string]config.CSVSource{},
	}

	_, err := f.driver(t, sources).Migrate(context.Background(), domain.KindJob)
	require.Error(t, err)
}
