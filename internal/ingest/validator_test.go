package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfpl47/hiring-data-service/internal/domain"
)

func refs(dept, job int64) ReferenceSets {
	return ReferenceSets{
		Departments: map[int64]struct{}{dept: {}},
		Jobs:        map[int64]struct{}{job: {}},
	}
}

func employeeRecord() domain.RawRecord {
	return domain.RawRecord{
		"id":            float64(1),
		"name":          "Ada Lovelace",
		"datetime":      "2021-01-15T10:00:00Z",
		"department_id": float64(10),
		"job_id":        float64(20),
	}
}

func TestValidateDepartment(t *testing.T) {
	dept, rej := ValidateDepartment(domain.RawRecord{"id": float64(3), "department": "Engineering"})
	require.Nil(t, rej)
	assert.Equal(t, int64(3), dept.ID)
	assert.Equal(t, "Engineering", dept.Name)
}

func TestValidateDepartmentCoercesStringID(t *testing.T) {
	dept, rej := ValidateDepartment(domain.RawRecord{"id": "42", "department": "Sales"})
	require.Nil(t, rej)
	assert.Equal(t, int64(42), dept.ID)
}

func TestValidateDepartmentMissingName(t *testing.T) {
	_, rej := ValidateDepartment(domain.RawRecord{"id": float64(3), "department": "  "})
	require.NotNil(t, rej)
	assert.Equal(t, ReasonMissingField, rej.Code)
	assert.Equal(t, "department", rej.Field)
}

func TestValidateDepartmentBadID(t *testing.T) {
	for _, id := range []any{"abc", float64(1.5), float64(0), float64(-7), true} {
		_, rej := ValidateDepartment(domain.RawRecord{"id": id, "department": "X"})
		require.NotNil(t, rej, "id=%v", id)
		assert.Equal(t, ReasonBadType, rej.Code)
		assert.Equal(t, "id", rej.Field)
	}
}

func TestValidateJob(t *testing.T) {
	job, rej := ValidateJob(domain.RawRecord{"id": float64(5), "job": "Backend"})
	require.Nil(t, rej)
	assert.Equal(t, int64(5), job.ID)
	assert.Equal(t, "Backend", job.Title)
}

func TestValidateHiredEmployee(t *testing.T) {
	emp, rej := ValidateHiredEmployee(employeeRecord(), refs(10, 20))
	require.Nil(t, rej)
	assert.Equal(t, int64(1), emp.ID)
	assert.Equal(t, "Ada Lovelace", emp.Name)
	assert.Equal(t, int64(10), emp.DepartmentID)
	assert.Equal(t, int64(20), emp.JobID)
	assert.Equal(t, 2021, emp.HiredAt.Year())
	assert.Equal(t, time.January, emp.HiredAt.Month())
}

func TestValidateHiredEmployeeTimestampFormats(t *testing.T) {
	valid := []string{
		"2021-07-01T09:30:00Z",
		"2021-07-01T09:30:00+02:00",
		"2021-07-01T09:30:00",
		"2021-07-01 09:30:00",
		"2021-07-01",
	}
	for _, ts := range valid {
		rec := employeeRecord()
		rec["datetime"] = ts
		_, rej := ValidateHiredEmployee(rec, refs(10, 20))
		assert.Nil(t, rej, "timestamp %q should parse", ts)
	}

	rec := employeeRecord()
	rec["datetime"] = "not-a-date"
	_, rej := ValidateHiredEmployee(rec, refs(10, 20))
	require.NotNil(t, rej)
	assert.Equal(t, ReasonBadType, rej.Code)
	assert.Equal(t, "datetime", rej.Field)
}

func TestValidateHiredEmployeeMissingFields(t *testing.T) {
	for _, field := range []string{"id", "name", "datetime", "department_id", "job_id"} {
		rec := employeeRecord()
		delete(rec, field)
		_, rej := ValidateHiredEmployee(rec, refs(10, 20))
		require.NotNil(t, rej, "field %s", field)
		assert.Equal(t, ReasonMissingField, rej.Code)
		assert.Equal(t, field, rej.Field)
	}
}

func TestValidateHiredEmployeeDanglingReferences(t *testing.T) {
	rec := employeeRecord()
	_, rej := ValidateHiredEmployee(rec, refs(99, 20))
	require.NotNil(t, rej)
	assert.Equal(t, ReasonDanglingReference, rej.Code)
	assert.Equal(t, "department_id", rej.Field)
	assert.Equal(t, "10", rej.Value)

	_, rej = ValidateHiredEmployee(rec, refs(10, 99))
	require.NotNil(t, rej)
	assert.Equal(t, ReasonDanglingReference, rej.Code)
	assert.Equal(t, "job_id", rej.Field)
}

func TestValidateDispatchesByKind(t *testing.T) {
	validated, rej := Validate(domain.KindDepartment, domain.RawRecord{"id": float64(1), "department": "Ops"}, ReferenceSets{})
	require.Nil(t, rej)
	require.NotNil(t, validated.Department)

	validated, rej = Validate(domain.KindJob, domain.RawRecord{"id": float64(1), "job": "SRE"}, ReferenceSets{})
	require.Nil(t, rej)
	require.NotNil(t, validated.Job)

	validated, rej = Validate(domain.KindHiredEmployee, employeeRecord(), refs(10, 20))
	require.Nil(t, rej)
	require.NotNil(t, validated.Employee)
}
