// Package diagram regenerates the mermaid dependency diagrams from the
// reconciled task graph. Both the per-milestone blocks and the aggregate
// block are rebuilt from scratch every run; nothing is patched in place,
// which is what makes repeated runs converge.
package diagram

import (
	"fmt"
	"strings"

	"github.com/ryoheik/roadmap/internal/model"
)

const indent = "    "

// ClassDefs are the fixed style definitions emitted at the end of every
// block, byte-for-byte, whether or not any node currently uses them.
var ClassDefs = []string{
	indent + "classDef open fill:#d4edda,stroke:#2e7d32,color:#1b5e20",
	indent + "classDef blocked fill:#f8d7da,stroke:#c62828,color:#b71c1c",
	indent + "classDef milestone fill:#cfe2ff,stroke:#1565c0,color:#0d47a1",
}

// final returns the bucket a task is rendered with: Done wins, then the
// computed status.
func final(t *model.Task) model.Bucket {
	if t.Done {
		return model.BucketDone
	}
	return t.Status
}

// MilestoneBlock renders the interior lines of one milestone's mermaid
// block (without the surrounding fences): the milestone marker, one node
// per non-Done task, marker edges to the milestone's root tasks, the
// dependency edges, and the fixed classDefs.
func MilestoneBlock(m *model.Milestone, doc *model.Document) []string {
	lines := []string{"graph TD"}

	lines = append(lines, fmt.Sprintf("%s%s{{%q}}:::milestone", indent, m.Marker(), fmt.Sprintf("Milestone %d", m.Number)))

	ids := liveTasks(m.Tasks, doc)
	for _, id := range ids {
		lines = append(lines, nodeLine(doc.Tasks[id]))
	}

	// Marker edges point at tasks with no remaining in-document dependencies,
	// anchoring the milestone's roots visually.
	var roots []model.TaskID
	for _, id := range ids {
		if len(liveDeps(doc.Tasks[id], doc)) == 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) > 0 {
		lines = append(lines, edgeLine(m.Marker(), roots))
	}

	lines = append(lines, edgeLines(ids, doc)...)
	lines = append(lines, ClassDefs...)
	return lines
}

// AggregateBlock renders the cross-milestone diagram: every milestone's
// live tasks grouped in a subgraph, followed by the full edge set.
func AggregateBlock(doc *model.Document) []string {
	lines := []string{"graph TD"}

	var all []model.TaskID
	for _, m := range doc.Milestones {
		ids := liveTasks(m.Tasks, doc)
		all = append(all, ids...)
		lines = append(lines, fmt.Sprintf("%ssubgraph %s[%q]", indent, m.Marker(), fmt.Sprintf("Milestone %d", m.Number)))
		for _, id := range ids {
			lines = append(lines, indent+nodeLine(doc.Tasks[id]))
		}
		lines = append(lines, indent+"end")
	}

	model.SortIDs(all)
	lines = append(lines, edgeLines(all, doc)...)
	lines = append(lines, ClassDefs...)
	return lines
}

// liveTasks returns the non-Done members of ids in canonical order.
func liveTasks(ids []model.TaskID, doc *model.Document) []model.TaskID {
	var live []model.TaskID
	for _, id := range ids {
		if t := doc.Tasks[id]; t != nil && !final(t).Terminal() {
			live = append(live, id)
		}
	}
	model.SortIDs(live)
	return live
}

// liveDeps returns a task's dependencies that are still present and not
// Done. Dangling or Done dependencies produce no edge.
func liveDeps(t *model.Task, doc *model.Document) []model.TaskID {
	var deps []model.TaskID
	for _, dep := range t.DependsOn {
		if dt := doc.Tasks[dep]; dt != nil && !final(dt).Terminal() {
			deps = append(deps, dep)
		}
	}
	return deps
}

func nodeLine(t *model.Task) string {
	return fmt.Sprintf("%s%s[%q]:::%s", indent, t.ID.NodeName(), t.ID.String(), model.ClassFor(final(t)))
}

// edgeLines renders the dependency edges among ids, one line per source,
// multiple targets combined with "&".
func edgeLines(ids []model.TaskID, doc *model.Document) []string {
	idSet := make(map[model.TaskID]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	targets := make(map[model.TaskID][]model.TaskID)
	var sources []model.TaskID
	for _, id := range ids {
		for _, dep := range liveDeps(doc.Tasks[id], doc) {
			if !idSet[dep] {
				continue // cross-set edge; rendered only where both ends exist
			}
			if len(targets[dep]) == 0 {
				sources = append(sources, dep)
			}
			targets[dep] = append(targets[dep], id)
		}
	}
	model.SortIDs(sources)

	var lines []string
	for _, src := range sources {
		dst := targets[src]
		model.SortIDs(dst)
		lines = append(lines, edgeLine(src.NodeName(), dst))
	}
	return lines
}

func edgeLine(source string, targets []model.TaskID) string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.NodeName()
	}
	return fmt.Sprintf("%s%s --> %s", indent, source, strings.Join(names, " & "))
}
