package metrics

import (
	"context"
	"sort"

	"github.com/lfpl47/hiring-data-service/internal/repository"
	"github.com/lfpl47/hiring-data-service/pkg/util"
)

// DefaultYear scopes the hiring metrics when the caller does not pick one.
const DefaultYear = 2021

// QuarterRow is one department/job pair with hire counts per calendar
// quarter. Pairs with no hires in the year are omitted entirely.
type QuarterRow struct {
	Department string `json:"department"`
	Job        string `json:"job"`
	Q1         int    `json:"q1"`
	Q2         int    `json:"q2"`
	Q3         int    `json:"q3"`
	Q4         int    `json:"q4"`
}

// DepartmentHiring is one department's hire total for the year.
type DepartmentHiring struct {
	ID         int64  `json:"id"`
	Department string `json:"department"`
	Hired      int    `json:"hired"`
}

// Dependencies bundles the read-only storage collaborators.
type Dependencies struct {
	EmployeeRepo   repository.EmployeeRepository
	DepartmentRepo repository.DepartmentRepository
	JobRepo        repository.JobRepository
}

// Aggregator answers hiring questions over committed storage. It holds no
// state between calls; every query recomputes from a fresh table read so
// results are deterministic for unchanged data.
type Aggregator struct {
	employees   repository.EmployeeRepository
	departments repository.DepartmentRepository
	jobs        repository.JobRepository
}

// NewAggregator constructs the aggregator.
func NewAggregator(deps Dependencies) *Aggregator {
	return &Aggregator{
		employees:   deps.EmployeeRepo,
		departments: deps.DepartmentRepo,
		jobs:        deps.JobRepo,
	}
}

type pairKey struct {
	departmentID int64
	jobID        int64
}

// HiredByQuarter groups the year's hires by (department, job) and buckets
// them into calendar quarters. Rows are sorted by department name, then job
// title.
func (a *Aggregator) HiredByQuarter(ctx context.Context, year int) ([]QuarterRow, error) {
	if year == 0 {
		year = DefaultYear
	}

	employees, err := a.employees.List(ctx)
	if err != nil {
		return nil, util.NewStorageUnavailable(err)
	}

	counts := make(map[pairKey]*[4]int)
	for _, emp := range employees {
		if emp.HiredAt.Year() != year {
			continue
		}
		key := pairKey{departmentID: emp.DepartmentID, jobID: emp.JobID}
		buckets, ok := counts[key]
		if !ok {
			buckets = &[4]int{}
			counts[key] = buckets
		}
		buckets[emp.Quarter()-1]++
	}

	deptNames, jobTitles, err := a.lookupNames(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]QuarterRow, 0, len(counts))
	for key, buckets := range counts {
		rows = append(rows, QuarterRow{
			Department: deptNames[key.departmentID],
			Job:        jobTitles[key.jobID],
			Q1:         buckets[0],
			Q2:         buckets[1],
			Q3:         buckets[2],
			Q4:         buckets[3],
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Department != rows[j].Department {
			return rows[i].Department < rows[j].Department
		}
		return rows[i].Job < rows[j].Job
	})
	return rows, nil
}

// DepartmentsAboveMean returns departments whose hire total for the year
// strictly exceeds the mean total across departments with at least one hire
// that year. Zero-hire departments count toward neither the results nor the
// mean. Sorted by total descending, department name ascending on ties.
func (a *Aggregator) DepartmentsAboveMean(ctx context.Context, year int) ([]DepartmentHiring, error) {
	if year == 0 {
		year = DefaultYear
	}

	employees, err := a.employees.List(ctx)
	if err != nil {
		return nil, util.NewStorageUnavailable(err)
	}

	totals := make(map[int64]int)
	for _, emp := range employees {
		if emp.HiredAt.Year() != year {
			continue
		}
		totals[emp.DepartmentID]++
	}
	if len(totals) == 0 {
		return []DepartmentHiring{}, nil
	}

	sum := 0
	for _, total := range totals {
		sum += total
	}
	mean := float64(sum) / float64(len(totals))

	departments, err := a.departments.List(ctx)
	if err != nil {
		return nil, util.NewStorageUnavailable(err)
	}
	names := make(map[int64]string, len(departments))
	for _, dept := range departments {
		names[dept.ID] = dept.Name
	}

	result := make([]DepartmentHiring, 0, len(totals))
	for id, total := range totals {
		if float64(total) > mean {
			result = append(result, DepartmentHiring{ID: id, Department: names[id], Hired: total})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Hired != result[j].Hired {
			return result[i].Hired > result[j].Hired
		}
		return result[i].Department < result[j].Department
	})
	return result, nil
}

func (a *Aggregator) lookupNames(ctx context.Context) (map[int64]string, map[int64]string, error) {
	departments, err := a.departments.List(ctx)
	if err != nil {
		return nil, nil, util.NewStorageUnavailable(err)
	}
	jobs, err := a.jobs.List(ctx)
	if err != nil {
		return nil, nil, util.NewStorageUnavailable(err)
	}

	deptNames := make(map[int64]string, len(departments))
	for _, dept := range departments {
		deptNames[dept.ID] = dept.Name
	}
	jobTitles := make(map[int64]string, len(jobs))
	for _, job := range jobs {
		jobTitles[job.ID] = job.Title
	}
	return deptNames, jobTitles, nil
}
