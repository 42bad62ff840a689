package mask

import "fmt"

// InsufficientDataError indicates that a matrix has no eligible entries
// to sample from: every non-zero cell falls inside the excluded edge
// columns, or the matrix is entirely zero. The window cannot be
// cross-validated; pipelines typically skip it.
type InsufficientDataError struct {
	Rows          int
	Cols          int
	ExcludedEdges int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("mask: no eligible entries in %dx%d matrix (edge exclusion %d)", e.Rows, e.Cols, e.ExcludedEdges)
}
