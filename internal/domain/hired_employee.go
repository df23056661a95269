package domain

import "time"

// HiredEmployee is one hire event. HiredAt maps to the "datetime" column of
// the source data. DepartmentID and JobID must reference existing rows at
// commit time.
type HiredEmployee struct {
	ID           int64
	Name         string
	HiredAt      time.Time
	DepartmentID int64
	JobID        int64
}

// Quarter returns the calendar quarter (1-4) of the hire date.
func (e HiredEmployee) Quarter() int {
	return (int(e.HiredAt.Month())-1)/3 + 1
}
