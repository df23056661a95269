package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSources = `
batch_size: 500
tables:
  departments:
    path: data/departments.csv
    header: true
    columns: [id, department]
  hired_employees:
    path: data/hired_employees.csv
    header: false
    columns: [id, name, datetime, department_id, job_id]
`

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSources), 0o644))

	src, err := LoadSources(path)
	require.NoError(t, err)
	assert.Equal(t, 500, src.BatchSize)
	require.Len(t, src.Tables, 2)

	dept := src.Tables["departments"]
	assert.Equal(t, "data/departments.csv", dept.Path)
	assert.True(t, dept.Header)
	assert.Equal(t, []string{"id", "department"}, dept.Columns)

	emp := src.Tables["hired_employees"]
	assert.False(t, emp.Header)
	assert.Len(t, emp.Columns, 5)
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestSourcesValidate(t *testing.T) {
	cases := []struct {
		name string
		src  Sources
		ok   bool
	}{
		{
			name: "valid",
			src: Sources{Tables: map[string]CSVSource{
				"jobs": {Path: "jobs.csv", Columns: []string{"id", "job"}},
			}},
			ok: true,
		},
		{name: "no tables", src: Sources{}, ok: false},
		{
			name: "missing path",
			src: Sources{Tables: map[string]CSVSource{
				"jobs": {Columns: []string{"id", "job"}},
			}},
			ok: false,
		},
		{
			name: "missing columns",
			src: Sources{Tables: map[string]CSVSource{
				"jobs": {Path: "jobs.csv"},
			}},
			ok: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.src.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
