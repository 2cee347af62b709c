package reconcile

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/ryoheik/roadmap/internal/document"
	"github.com/ryoheik/roadmap/internal/model"
)

// Move is one checklist relocation performed by a run.
type Move struct {
	ID   model.TaskID
	From model.Bucket
	To   model.Bucket
}

// Report describes what a successful run did and found. Warnings never
// fail a run. Promotions lists the ready To-Do tasks as candidates for a
// human to move into In-Progress; this tool never applies that move
// itself.
type Report struct {
	Moves      []Move
	Warnings   []Warning
	Promotions []model.TaskID
	Changed    bool
}

// Reconciler runs the full pipeline over one document at a time. It holds
// no state between runs; the serialised text is the only thing shared
// across invocations.
type Reconciler struct {
	logger *log.Logger
}

// New creates a Reconciler. A nil logger silences the pipeline.
func New(logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Reconciler{logger: logger}
}

// Reconcile parses the document, validates it, recomputes every task's
// status, relocates entries to their correct sections, regenerates both
// diagram views, validates the result, and returns the rewritten text.
// On any fatal error no text is returned and the caller must not write.
func (r *Reconciler) Reconcile(text string) (string, *Report, error) {
	doc, err := document.Parse(text)
	if err != nil {
		return "", nil, err
	}
	if err := PreValidate(doc); err != nil {
		return "", nil, err
	}

	warnings := Classify(doc.Model)
	for _, w := range warnings {
		r.logger.Warn("dangling reference", "task", w.Task.String(), "ref", w.Ref.String())
	}

	final := finalBuckets(doc)

	report := &Report{Warnings: warnings}
	for _, id := range doc.Model.Order {
		t := doc.Model.Tasks[id]
		if final[id] != t.Section {
			report.Moves = append(report.Moves, Move{ID: id, From: t.Section, To: final[id]})
			r.logger.Debug("move", "task", id.String(), "from", string(t.Section), "to", string(final[id]))
		}
		if final[id] == model.BucketToDo {
			report.Promotions = append(report.Promotions, id)
		}
	}

	out := doc.Render(final)
	if err := PostValidate(out); err != nil {
		return "", nil, err
	}

	report.Changed = out != text
	return out, report, nil
}

// Check runs the pipeline and discards the output: parse, validate, and
// report what a write would have done.
func (r *Reconciler) Check(text string) (*Report, error) {
	_, report, err := r.Reconcile(text)
	return report, err
}

// finalBuckets maps every task to the section it belongs in after this
// run, and records that decision on the task. Beyond the classifier:
//
//   - a Done task always lands in Done;
//   - a task sitting in Blocked whose promotion rests only on dangling
//     references is conservatively held in Blocked;
//   - a task whose destination section is missing from the document stays
//     put rather than disappearing from the checklist.
func finalBuckets(doc *document.Doc) map[model.TaskID]model.Bucket {
	final := make(map[model.TaskID]model.Bucket, len(doc.Model.Order))
	for _, id := range doc.Model.Order {
		t := doc.Model.Tasks[id]

		b := t.Status
		if t.Done {
			b = model.BucketDone
		}
		if b == model.BucketToDo && t.Section == model.BucketBlocked && len(t.Dangling) > 0 {
			b = model.BucketBlocked
		}
		if b != t.Section && doc.Section(id.Milestone, b) == nil {
			b = t.Section
		}

		t.Status = b
		final[id] = b
	}
	return final
}
