package reconcile

import (
	"fmt"

	"github.com/ryoheik/roadmap/internal/document"
	"github.com/ryoheik/roadmap/internal/graph"
	"github.com/ryoheik/roadmap/internal/model"
)

// PreValidate checks the document as parsed, before any transformation:
// task IDs must be unique and the non-Done dependency relation acyclic.
// Running this first avoids amplifying corruption that predates this run.
func PreValidate(doc *document.Doc) error {
	if len(doc.Duplicates) > 0 {
		d := doc.Duplicates[0]
		return &DuplicateIDError{ID: d.ID, FirstLine: d.FirstLine, SecondLine: d.SecondLine}
	}
	if cycle := graph.CyclePath(nonDoneGraph(doc.Model)); cycle != nil {
		return &CycleError{Cycle: cycle}
	}
	return nil
}

// PostValidate re-parses the rendered output and verifies the invariants
// the pipeline is supposed to establish: unique IDs, acyclicity, every
// task already in its computed section (the document is a fixed point),
// and diagram node/edge sets agreeing with the checklist. Any violation is
// an IntegrityError: it means this tool produced a bad document, and the
// run aborts before writing.
func PostValidate(text string) error {
	doc, err := document.Parse(text)
	if err != nil {
		return &IntegrityError{Reason: fmt.Sprintf("rendered output does not parse: %v", err)}
	}
	if len(doc.Duplicates) > 0 {
		return &IntegrityError{Reason: fmt.Sprintf("rendered output duplicates task ID %s", doc.Duplicates[0].ID)}
	}
	if cycle := graph.CyclePath(nonDoneGraph(doc.Model)); cycle != nil {
		return &IntegrityError{Reason: (&CycleError{Cycle: cycle}).Error()}
	}

	// Fixed point: reclassifying the output must demand no further moves.
	Classify(doc.Model)
	for id, want := range finalBuckets(doc) {
		if got := doc.Model.Tasks[id].Section; got != want {
			return &IntegrityError{Reason: fmt.Sprintf("task %s rendered in %s, classified %s", id, got, want)}
		}
	}

	return validateDiagrams(doc)
}

// validateDiagrams checks that every diagram block's node set equals its
// scope's non-Done task set and that its edge set equals the dependency
// relation restricted to those nodes.
func validateDiagrams(doc *document.Doc) error {
	for _, m := range doc.Model.Milestones {
		block := doc.Diagram(m.Number)
		if block == nil {
			continue
		}
		want := make(map[model.TaskID]bool)
		for _, id := range m.Tasks {
			if !doc.Model.Tasks[id].Done {
				want[id] = true
			}
		}
		scope := fmt.Sprintf("milestone %d diagram", m.Number)
		if err := compareNodes(scope, block, want); err != nil {
			return err
		}
		if err := compareEdges(scope, block.Edges, edgesAmong(doc.Model, want)); err != nil {
			return err
		}
	}

	if doc.Aggregate == nil {
		return nil
	}

	want := make(map[model.TaskID]bool)
	for _, id := range doc.Model.NonDone() {
		want[id] = true
	}
	if err := compareNodes("aggregate diagram", doc.Aggregate, want); err != nil {
		return err
	}
	return compareEdges("aggregate diagram", doc.Aggregate.Edges, edgesAmong(doc.Model, want))
}

// edgesAmong returns the dependency edges whose endpoints both lie in nodes.
func edgesAmong(doc *model.Document, nodes map[model.TaskID]bool) map[[2]model.TaskID]bool {
	edges := make(map[[2]model.TaskID]bool)
	for id := range nodes {
		for _, dep := range doc.Tasks[id].DependsOn {
			if nodes[dep] {
				edges[[2]model.TaskID{dep, id}] = true
			}
		}
	}
	return edges
}

func compareEdges(scope string, got [][2]model.TaskID, want map[[2]model.TaskID]bool) error {
	gotSet := make(map[[2]model.TaskID]bool, len(got))
	for _, e := range got {
		gotSet[e] = true
	}
	for e := range want {
		if !gotSet[e] {
			return &IntegrityError{Reason: fmt.Sprintf("%s missing edge %s -> %s", scope, e[0], e[1])}
		}
	}
	for e := range gotSet {
		if !want[e] {
			return &IntegrityError{Reason: fmt.Sprintf("%s has stale edge %s -> %s", scope, e[0], e[1])}
		}
	}
	return nil
}

func compareNodes(scope string, block *document.DiagramBlock, want map[model.TaskID]bool) error {
	for id := range want {
		if _, ok := block.Nodes[id]; !ok {
			return &IntegrityError{Reason: fmt.Sprintf("%s missing node %s", scope, id)}
		}
	}
	for id := range block.Nodes {
		if !want[id] {
			return &IntegrityError{Reason: fmt.Sprintf("%s has stale node %s", scope, id)}
		}
	}
	return nil
}
