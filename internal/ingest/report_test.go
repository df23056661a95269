package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lfpl47/hiring-data-service/internal/domain"
)

func TestCollectorPreservesOrder(t *testing.T) {
	c := NewCollector()
	c.Record(4, domain.KindDepartment, Rejection{Code: ReasonBadType, Field: "id"}, domain.RawRecord{"id": "x"})
	c.Record(1, domain.KindDepartment, Rejection{Code: ReasonMissingField, Field: "department"}, domain.RawRecord{"id": float64(2)})
	c.Append([]RejectionEntry{{Row: 9, Table: domain.KindJob, Reason: Rejection{Code: ReasonDuplicateID, Field: "id"}}})

	entries := c.Entries()
	require.Equal(t, 3, c.Len())
	assert.Equal(t, 4, entries[0].Row)
	assert.Equal(t, 1, entries[1].Row)
	assert.Equal(t, 9, entries[2].Row)
}

func TestReportWriterWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	w := NewReportWriter(dir, zap.NewNop())

	entries := []RejectionEntry{
		{
			Row:    3,
			Table:  domain.KindHiredEmployee,
			Reason: Rejection{Code: ReasonDanglingReference, Field: "job_id", Value: "99"},
			Record: domain.RawRecord{"id": float64(3), "job_id": float64(99)},
		},
	}
	path, err := w.Write("ingest", domain.KindHiredEmployee, "4f2a9c11-0000-0000-0000-000000000000", entries)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "ingest_errors_hired_employees_"), base)
	assert.True(t, strings.HasSuffix(base, "_4f2a9c11.json"), base)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []RejectionEntry
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, 3, decoded[0].Row)
	assert.Equal(t, ReasonDanglingReference, decoded[0].Reason.Code)
	assert.Equal(t, "99", decoded[0].Reason.Value)
}

func TestReportWriterSkipsEmptyRuns(t *testing.T) {
	dir := t.TempDir()
	w := NewReportWriter(dir, zap.NewNop())

	path, err := w.Write("ingest", domain.KindDepartment, "run", nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}
