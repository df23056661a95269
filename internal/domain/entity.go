package domain

import "fmt"

// EntityKind identifies one of the three ingestable tables.
type EntityKind string

const (
	KindDepartment    EntityKind = "departments"
	KindJob           EntityKind = "jobs"
	KindHiredEmployee EntityKind = "hired_employees"
)

// Kinds lists all entity kinds in referential dependency order:
// departments and jobs carry no foreign keys, hired employees reference both.
func Kinds() []EntityKind {
	return []EntityKind{KindDepartment, KindJob, KindHiredEmployee}
}

// ParseEntityKind resolves a table name into an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case KindDepartment, KindJob, KindHiredEmployee:
		return EntityKind(s), nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// RawRecord is an untyped record as it arrives from a parsed request payload
// or a CSV row: field name to raw value, before any coercion.
type RawRecord map[string]any
