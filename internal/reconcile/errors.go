// Package reconcile implements the roadmap reconciliation pipeline:
// classification, section moves, diagram regeneration, and the validators
// that bracket them. A run either produces a fully consistent document or
// fails before anything is written.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/ryoheik/roadmap/internal/model"
)

// CycleError reports a dependency cycle among non-Done tasks. Cycle is the
// ordered path; its first and last elements are the same task.
type CycleError struct {
	Cycle []model.TaskID
}

func (e *CycleError) Error() string {
	ids := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		ids[i] = id.String()
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(ids, " -> "))
}

// DuplicateIDError reports two checklist entries sharing one task ID.
type DuplicateIDError struct {
	ID         model.TaskID
	FirstLine  int
	SecondLine int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate task ID %s (lines %d and %d)", e.ID, e.FirstLine, e.SecondLine)
}

// IntegrityError reports a post-reconciliation invariant violation. It
// indicates a bug in this tool, not bad input; the run aborts without
// writing.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed: %s", e.Reason)
}

// Warning is a non-fatal finding, reported to the caller without blocking
// reconciliation. Today the only kind is a dangling dependency reference.
type Warning struct {
	Task   model.TaskID
	Ref    model.TaskID
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("task %s: dependency %s %s", w.Task, w.Ref, w.Detail)
}
