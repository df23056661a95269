package dto

// QuarterRowResponse is one department/job row of the quarterly pivot.
type QuarterRowResponse struct {
	Department string `json:"department"`
	Job        string `json:"job"`
	Q1         int    `json:"Q1"`
	Q2         int    `json:"Q2"`
	Q3         int    `json:"Q3"`
	Q4         int    `json:"Q4"`
}

// DepartmentHiringResponse is one above-mean department row.
type DepartmentHiringResponse struct {
	ID         int64  `json:"id"`
	Department string `json:"department"`
	Hired      int    `json:"hired"`
}
