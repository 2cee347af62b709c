// Package graph provides pure dependency-graph checks over task IDs:
// topological ordering, cycle detection with path reporting, and
// dangling-reference discovery. No side effects, no I/O.
package graph

import (
	"github.com/ryoheik/roadmap/internal/model"
)

// Graph is a dependency relation over a fixed node set. Order carries the
// document order of the nodes and doubles as the node set; Deps[id] lists
// the IDs id depends on. Dependencies outside the node set are ignored by
// the ordering and surfaced by DanglingReferences.
type Graph struct {
	Order []model.TaskID
	Deps  map[model.TaskID][]model.TaskID
}

// TopoOrder returns the nodes in dependency-first order using Kahn's
// algorithm. Ties between independent nodes resolve in document order so
// classification is deterministic. ok is false when the relation contains
// a cycle; CyclePath reports it.
func TopoOrder(g Graph) (order []model.TaskID, ok bool) {
	nodeSet := make(map[model.TaskID]bool, len(g.Order))
	for _, n := range g.Order {
		nodeSet[n] = true
	}

	inDegree := make(map[model.TaskID]int, len(g.Order))
	dependents := make(map[model.TaskID][]model.TaskID)
	for _, n := range g.Order {
		inDegree[n] = 0
	}
	for _, n := range g.Order {
		for _, dep := range g.Deps[n] {
			if !nodeSet[dep] {
				continue // dangling, handled elsewhere
			}
			inDegree[n]++
			dependents[dep] = append(dependents[dep], n)
		}
	}

	pos := make(map[model.TaskID]int, len(g.Order))
	for i, n := range g.Order {
		pos[n] = i
	}

	// ready holds in-degree-zero nodes; always pop the one earliest in the
	// document so ties are stable.
	var ready []model.TaskID
	for _, n := range g.Order {
		if inDegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	for len(ready) > 0 {
		best := 0
		for i := 1; i < len(ready); i++ {
			if pos[ready[i]] < pos[ready[best]] {
				best = i
			}
		}
		n := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, n)

		for _, dep := range dependents[n] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	return order, len(order) == len(g.Order)
}

// HasCycle reports whether the dependency relation contains a cycle.
func HasCycle(g Graph) bool {
	_, ok := TopoOrder(g)
	return !ok
}

// CyclePath returns one dependency cycle as an ordered ID list whose first
// and last elements are the same node, or nil when the graph is acyclic.
func CyclePath(g Graph) []model.TaskID {
	nodeSet := make(map[model.TaskID]bool, len(g.Order))
	for _, n := range g.Order {
		nodeSet[n] = true
	}

	const (
		white = 0 // unvisited
		gray  = 1 // in current path
		black = 2 // finished
	)

	color := make(map[model.TaskID]int)
	parent := make(map[model.TaskID]model.TaskID)

	var cycle []model.TaskID

	var dfs func(n model.TaskID) bool
	dfs = func(n model.TaskID) bool {
		color[n] = gray
		for _, dep := range g.Deps[n] {
			if !nodeSet[dep] {
				continue
			}
			if color[dep] == gray {
				// Reconstruct the path back from n to dep.
				cycle = []model.TaskID{dep}
				current := n
				for current != dep {
					cycle = append(cycle, current)
					current = parent[current]
				}
				cycle = append(cycle, dep)
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return true
			}
			if color[dep] == white {
				parent[dep] = n
				if dfs(dep) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}

	for _, n := range g.Order {
		if color[n] == white {
			if dfs(n) {
				return cycle
			}
		}
	}
	return nil
}

// DanglingReferences returns the deduplicated set of referenced IDs absent
// from the node set, in canonical order.
func DanglingReferences(g Graph) []model.TaskID {
	nodeSet := make(map[model.TaskID]bool, len(g.Order))
	for _, n := range g.Order {
		nodeSet[n] = true
	}

	seen := make(map[model.TaskID]bool)
	var dangling []model.TaskID
	for _, n := range g.Order {
		for _, dep := range g.Deps[n] {
			if nodeSet[dep] || seen[dep] {
				continue
			}
			seen[dep] = true
			dangling = append(dangling, dep)
		}
	}
	model.SortIDs(dangling)
	return dangling
}
