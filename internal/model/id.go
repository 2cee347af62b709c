// Package model defines the data structures for roadmap documents:
// task identifiers, tasks, milestones, checklist buckets, and tool
// configuration.
package model

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// idRegex matches task IDs of the form {milestone}{CATEGORY}.{sequence}[sub],
// e.g. "1WA.12" or "2TI.3a". Sequence numbers are scoped to the
// (milestone, category) pair.
var idRegex = regexp.MustCompile(`^([0-9]+)([A-Z]+)\.([0-9]+)([a-z]?)$`)

// nodeNameRegex matches the mermaid-safe form of a task ID, where the dot
// is replaced by an underscore (mermaid identifiers cannot contain dots).
var nodeNameRegex = regexp.MustCompile(`^([0-9]+)([A-Z]+)_([0-9]+)([a-z]?)$`)

// TaskID is a stable task identifier. IDs are assigned once and never
// renumbered; deleting a task leaves a permanent gap in its sequence.
type TaskID struct {
	Milestone int
	Category  string
	Sequence  int
	Sub       string // optional lowercase sub-task letter
}

// ParseTaskID parses the textual form of a task ID.
func ParseTaskID(s string) (TaskID, error) {
	m := idRegex.FindStringSubmatch(s)
	if m == nil {
		return TaskID{}, fmt.Errorf("invalid task ID %q (want {milestone}{CATEGORY}.{sequence}[a-z])", s)
	}
	milestone, err := strconv.Atoi(m[1])
	if err != nil {
		return TaskID{}, fmt.Errorf("invalid milestone in task ID %q: %w", s, err)
	}
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return TaskID{}, fmt.Errorf("invalid sequence in task ID %q: %w", s, err)
	}
	return TaskID{Milestone: milestone, Category: m[2], Sequence: seq, Sub: m[4]}, nil
}

// ValidTaskID reports whether s has the task ID shape.
func ValidTaskID(s string) bool {
	return idRegex.MatchString(s)
}

func (id TaskID) String() string {
	return fmt.Sprintf("%d%s.%d%s", id.Milestone, id.Category, id.Sequence, id.Sub)
}

// IsZero reports whether id is the zero TaskID.
func (id TaskID) IsZero() bool {
	return id == TaskID{}
}

// NodeName returns the mermaid-safe node identifier for the task,
// e.g. "1WA.12" becomes "1WA_12".
func (id TaskID) NodeName() string {
	return strings.ReplaceAll(id.String(), ".", "_")
}

// ParseNodeName converts a mermaid node identifier back to a TaskID.
func ParseNodeName(s string) (TaskID, error) {
	m := nodeNameRegex.FindStringSubmatch(s)
	if m == nil {
		return TaskID{}, fmt.Errorf("invalid task node name %q", s)
	}
	return ParseTaskID(m[1] + m[2] + "." + m[3] + m[4])
}

// Less orders IDs by milestone, then category, then sequence, then the
// sub-task letter. This is the canonical ordering used wherever output
// must be deterministic regardless of document layout.
func (id TaskID) Less(other TaskID) bool {
	if id.Milestone != other.Milestone {
		return id.Milestone < other.Milestone
	}
	if id.Category != other.Category {
		return id.Category < other.Category
	}
	if id.Sequence != other.Sequence {
		return id.Sequence < other.Sequence
	}
	return id.Sub < other.Sub
}

// SortIDs sorts ids in place into canonical order.
func SortIDs(ids []TaskID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}
