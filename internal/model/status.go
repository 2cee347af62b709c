package model

import "fmt"

// Bucket is one of the four checklist sections a task can occupy. The same
// values serve as the classifier's computed status: a task's status and the
// section it belongs in are the same thing after reconciliation.
type Bucket string

const (
	BucketBlocked    Bucket = "blocked"
	BucketToDo       Bucket = "todo"
	BucketInProgress Bucket = "inprogress"
	BucketDone       Bucket = "done"
)

// Buckets lists the four sections in their document order.
var Buckets = []Bucket{BucketBlocked, BucketToDo, BucketInProgress, BucketDone}

var bucketTitles = map[Bucket]string{
	BucketBlocked:    "Blocked",
	BucketToDo:       "To-Do",
	BucketInProgress: "In-Progress",
	BucketDone:       "Done",
}

var titleBuckets = map[string]Bucket{
	"Blocked":     BucketBlocked,
	"To-Do":       BucketToDo,
	"In-Progress": BucketInProgress,
	"Done":        BucketDone,
}

// Title returns the section heading text for the bucket.
func (b Bucket) Title() string {
	return bucketTitles[b]
}

// AnchorName returns the fixed section anchor for a milestone,
// e.g. "m1-todo".
func (b Bucket) AnchorName(milestone int) string {
	return fmt.Sprintf("m%d-%s", milestone, b)
}

// BucketForTitle maps a section heading back to its bucket.
func BucketForTitle(title string) (Bucket, bool) {
	b, ok := titleBuckets[title]
	return b, ok
}

// Terminal reports whether the bucket is Done. Done tasks never leave their
// section and are dropped from both diagrams.
func (b Bucket) Terminal() bool {
	return b == BucketDone
}

// DiagramClass is a mermaid visual class tag.
type DiagramClass string

const (
	ClassOpen      DiagramClass = "open"
	ClassBlocked   DiagramClass = "blocked"
	ClassMilestone DiagramClass = "milestone"
)

// ClassFor returns the visual class for a task's reconciled bucket. Done
// tasks have no class because they have no node.
func ClassFor(b Bucket) DiagramClass {
	if b == BucketBlocked {
		return ClassBlocked
	}
	return ClassOpen
}

// Placement distinguishes automatic classification from a manual pin.
// In-Progress is the only bucket a human pins a task into; reconciliation
// never moves a pinned task out of it once its dependencies are satisfied.
type Placement struct {
	pinned bool
	bucket Bucket
}

// AutomaticPlacement marks a task as freely movable by the reconciler.
func AutomaticPlacement() Placement {
	return Placement{}
}

// PinnedPlacement marks a task as manually placed into b.
func PinnedPlacement(b Bucket) Placement {
	return Placement{pinned: true, bucket: b}
}

// Pinned returns the pinned bucket, if any.
func (p Placement) Pinned() (Bucket, bool) {
	return p.bucket, p.pinned
}
