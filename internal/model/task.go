package model

import "fmt"

// MarkerName returns the mermaid marker node name for a milestone number,
// e.g. "M1".
func MarkerName(n int) string {
	return fmt.Sprintf("M%d", n)
}

// Task is a unit of work with a stable ID, dependency set, and status.
// The description is opaque text; this package never parses it for meaning.
type Task struct {
	ID          TaskID
	Description string
	DependsOn   []TaskID

	// Done is true when the checklist entry is marked complete ("[x]").
	Done bool

	// Section is the bucket the entry currently occupies in the document,
	// as parsed. In-Progress placement is a manual decision that
	// reconciliation must not silently undo.
	Section Bucket

	// Placement records whether the section was a manual pin.
	Placement Placement

	// Line is the 1-based line number of the checklist entry; Raw holds the
	// entry's exact bytes so an unchanged entry re-renders byte-identically.
	Line int
	Raw  string

	// Status is the classification computed by the reconcile pipeline.
	// It is not persisted independently of the section it lands in.
	Status Bucket

	// Dangling lists referenced dependencies absent from the document.
	Dangling []TaskID
}

// Milestone is a named grouping of tasks with its own checklist sections
// and diagram. Milestones are created when first referenced and never
// deleted by this tool.
type Milestone struct {
	Number int
	Title  string
	Tasks  []TaskID // document order
}

// Marker returns the milestone's mermaid marker node name, e.g. "M1".
func (m *Milestone) Marker() string {
	return MarkerName(m.Number)
}

// Document is the in-memory task graph of one roadmap file. It exclusively
// owns its tasks and milestones for the duration of one run; the serialised
// text is the only state shared across runs.
type Document struct {
	Milestones []*Milestone
	Tasks      map[TaskID]*Task
	Order      []TaskID // all tasks in document order
}

// Task returns the task with the given ID, or nil.
func (d *Document) Task(id TaskID) *Task {
	return d.Tasks[id]
}

// Milestone returns the milestone with the given number, or nil.
func (d *Document) Milestone(n int) *Milestone {
	for _, m := range d.Milestones {
		if m.Number == n {
			return m
		}
	}
	return nil
}

// NonDone returns the IDs of all tasks not marked complete, in document
// order. This is the node set both diagrams must carry.
func (d *Document) NonDone() []TaskID {
	var ids []TaskID
	for _, id := range d.Order {
		if !d.Tasks[id].Done {
			ids = append(ids, id)
		}
	}
	return ids
}
