package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lfpl47/hiring-data-service/internal/domain"
)

// ReasonCode enumerates why a record was rejected.
type ReasonCode string

const (
	ReasonMissingField      ReasonCode = "missing_field"
	ReasonBadType           ReasonCode = "bad_type"
	ReasonDanglingReference ReasonCode = "dangling_reference"
	ReasonDuplicateID       ReasonCode = "duplicate_id"
)

// Rejection explains a single record rejection.
type Rejection struct {
	Code  ReasonCode `json:"code"`
	Field string     `json:"field,omitempty"`
	Value string     `json:"value,omitempty"`
}

func (r Rejection) String() string {
	if r.Value != "" {
		return fmt.Sprintf("%s(%s=%s)", r.Code, r.Field, r.Value)
	}
	return fmt.Sprintf("%s(%s)", r.Code, r.Field)
}

// ReferenceSets holds the foreign-key targets visible to one batch. They are
// snapshotted once per batch and passed in explicitly so validation stays
// referentially transparent.
type ReferenceSets struct {
	Departments map[int64]struct{}
	Jobs        map[int64]struct{}
}

// Validated carries the typed record produced by Validate; exactly one field
// is set, matching the entity kind.
type Validated struct {
	Department *domain.Department
	Job        *domain.Job
	Employee   *domain.HiredEmployee
}

// Validate checks one raw record against the target entity schema. Checks run
// in order and short-circuit on the first failure: required fields present,
// fields coercible to their declared types, then foreign keys resolvable in
// refs. Duplicate detection is the ingestor's job since it owns id-set state.
func Validate(kind domain.EntityKind, rec domain.RawRecord, refs ReferenceSets) (Validated, *Rejection) {
	switch kind {
	case domain.KindDepartment:
		dept, rej := ValidateDepartment(rec)
		if rej != nil {
			return Validated{}, rej
		}
		return Validated{Department: &dept}, nil
	case domain.KindJob:
		job, rej := ValidateJob(rec)
		if rej != nil {
			return Validated{}, rej
		}
		return Validated{Job: &job}, nil
	case domain.KindHiredEmployee:
		emp, rej := ValidateHiredEmployee(rec, refs)
		if rej != nil {
			return Validated{}, rej
		}
		return Validated{Employee: &emp}, nil
	}
	return Validated{}, &Rejection{Code: ReasonBadType, Field: "entity_kind", Value: string(kind)}
}

// ValidateDepartment coerces a raw record into a Department.
func ValidateDepartment(rec domain.RawRecord) (domain.Department, *Rejection) {
	id, rej := idField(rec, "id")
	if rej != nil {
		return domain.Department{}, rej
	}
	name, rej := stringField(rec, "department")
	if rej != nil {
		return domain.Department{}, rej
	}
	return domain.Department{ID: id, Name: name}, nil
}

// ValidateJob coerces a raw record into a Job.
func ValidateJob(rec domain.RawRecord) (domain.Job, *Rejection) {
	id, rej := idField(rec, "id")
	if rej != nil {
		return domain.Job{}, rej
	}
	title, rej := stringField(rec, "job")
	if rej != nil {
		return domain.Job{}, rej
	}
	return domain.Job{ID: id, Title: title}, nil
}

// ValidateHiredEmployee coerces a raw record into a HiredEmployee and checks
// its department and job references against the batch snapshot.
func ValidateHiredEmployee(rec domain.RawRecord, refs ReferenceSets) (domain.HiredEmployee, *Rejection) {
	id, rej := idField(rec, "id")
	if rej != nil {
		return domain.HiredEmployee{}, rej
	}
	name, rej := stringField(rec, "name")
	if rej != nil {
		return domain.HiredEmployee{}, rej
	}
	hiredAt, rej := timeField(rec, "datetime")
	if rej != nil {
		return domain.HiredEmployee{}, rej
	}
	deptID, rej := idField(rec, "department_id")
	if rej != nil {
		return domain.HiredEmployee{}, rej
	}
	jobID, rej := idField(rec, "job_id")
	if rej != nil {
		return domain.HiredEmployee{}, rej
	}

	if _, ok := refs.Departments[deptID]; !ok {
		return domain.HiredEmployee{}, &Rejection{
			Code:  ReasonDanglingReference,
			Field: "department_id",
			Value: strconv.FormatInt(deptID, 10),
		}
	}
	if _, ok := refs.Jobs[jobID]; !ok {
		return domain.HiredEmployee{}, &Rejection{
			Code:  ReasonDanglingReference,
			Field: "job_id",
			Value: strconv.FormatInt(jobID, 10),
		}
	}

	return domain.HiredEmployee{
		ID:           id,
		Name:         name,
		HiredAt:      hiredAt,
		DepartmentID: deptID,
		JobID:        jobID,
	}, nil
}

// timeLayouts are accepted hire timestamp formats. The source data mixes
// RFC3339 ("Z" suffixed) with naive ISO timestamps.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func fieldPresent(rec domain.RawRecord, name string) (any, *Rejection) {
	val, ok := rec[name]
	if !ok || val == nil {
		return nil, &Rejection{Code: ReasonMissingField, Field: name}
	}
	if s, isStr := val.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, &Rejection{Code: ReasonMissingField, Field: name}
	}
	return val, nil
}

func idField(rec domain.RawRecord, name string) (int64, *Rejection) {
	val, rej := fieldPresent(rec, name)
	if rej != nil {
		return 0, rej
	}

	badType := &Rejection{Code: ReasonBadType, Field: name, Value: fmt.Sprintf("%v", val)}

	var id int64
	switch v := val.(type) {
	case int64:
		id = v
	case int:
		id = int64(v)
	case float64:
		// JSON numbers decode to float64; only whole values are ids.
		if v != math.Trunc(v) {
			return 0, badType
		}
		id = int64(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, badType
		}
		id = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, badType
		}
		id = parsed
	default:
		return 0, badType
	}

	if id <= 0 {
		return 0, badType
	}
	return id, nil
}

func stringField(rec domain.RawRecord, name string) (string, *Rejection) {
	val, rej := fieldPresent(rec, name)
	if rej != nil {
		return "", rej
	}
	s, ok := val.(string)
	if !ok {
		return "", &Rejection{Code: ReasonBadType, Field: name, Value: fmt.Sprintf("%v", val)}
	}
	return strings.TrimSpace(s), nil
}

func timeField(rec domain.RawRecord, name string) (time.Time, *Rejection) {
	val, rej := fieldPresent(rec, name)
	if rej != nil {
		return time.Time{}, rej
	}

	switch v := val.(type) {
	case time.Time:
		return v, nil
	case string:
		raw := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts, nil
			}
		}
	}
	return time.Time{}, &Rejection{Code: ReasonBadType, Field: name, Value: fmt.Sprintf("%v", val)}
}
