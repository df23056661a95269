package domain

// Job represents a position employees are hired for.
type Job struct {
	ID    int64
	Title string
}
