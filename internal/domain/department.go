package domain

// Department represents an organizational unit employees are hired into.
type Department struct {
	ID   int64
	Name string
}
