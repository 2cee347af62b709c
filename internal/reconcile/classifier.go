package reconcile

import (
	"github.com/ryoheik/roadmap/internal/graph"
	"github.com/ryoheik/roadmap/internal/model"
)

// Classify computes every task's status in one dependency-first pass and
// returns the dangling-reference warnings it found. The non-Done dependency
// relation must be acyclic; PreValidate enforces that before this runs.
//
// Rules, in order:
//   - a task marked complete is Done, regardless of its dependencies;
//   - a task with any non-Done dependency is Blocked, regardless of its
//     prior section;
//   - an unblocked task pinned into In-Progress stays In-Progress;
//   - everything else is To-Do.
//
// A dependency absent from the document counts as satisfied (it cannot
// block) but is recorded as a warning rather than silently ignored.
func Classify(doc *model.Document) []Warning {
	var warnings []Warning

	for _, id := range doc.Order {
		t := doc.Tasks[id]
		t.Status = ""
		t.Dangling = nil
		if t.Done {
			t.Status = model.BucketDone
		}
	}

	order, _ := graph.TopoOrder(nonDoneGraph(doc))

	for _, id := range order {
		t := doc.Tasks[id]

		blocked := false
		for _, dep := range t.DependsOn {
			dt := doc.Tasks[dep]
			if dt == nil {
				t.Dangling = append(t.Dangling, dep)
				warnings = append(warnings, Warning{
					Task:   id,
					Ref:    dep,
					Detail: "not found in document; treated as satisfied",
				})
				continue
			}
			if dt.Status != model.BucketDone {
				blocked = true
			}
		}

		switch {
		case blocked:
			t.Status = model.BucketBlocked
		case pinnedInProgress(t):
			t.Status = model.BucketInProgress
		default:
			t.Status = model.BucketToDo
		}
	}

	return warnings
}

func pinnedInProgress(t *model.Task) bool {
	b, pinned := t.Placement.Pinned()
	return pinned && b == model.BucketInProgress
}

// nonDoneGraph restricts the dependency relation to tasks not yet Done,
// in document order. Dependencies on Done or absent tasks fall outside the
// node set and are ignored by the ordering.
func nonDoneGraph(doc *model.Document) graph.Graph {
	g := graph.Graph{Deps: make(map[model.TaskID][]model.TaskID)}
	for _, id := range doc.Order {
		t := doc.Tasks[id]
		if t.Done {
			continue
		}
		g.Order = append(g.Order, id)
		g.Deps[id] = t.DependsOn
	}
	return g
}
