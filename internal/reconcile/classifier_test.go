package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryoheik/roadmap/internal/model"
)

type taskSpec struct {
	id      string
	done    bool
	section model.Bucket
	deps    []string
}

func buildDocument(t *testing.T, specs []taskSpec) *model.Document {
	t.Helper()
	doc := &model.Document{Tasks: make(map[model.TaskID]*model.Task)}

	for _, s := range specs {
		id, err := model.ParseTaskID(s.id)
		require.NoError(t, err)

		var deps []model.TaskID
		for _, d := range s.deps {
			did, err := model.ParseTaskID(d)
			require.NoError(t, err)
			deps = append(deps, did)
		}

		placement := model.AutomaticPlacement()
		if s.section == model.BucketInProgress {
			placement = model.PinnedPlacement(model.BucketInProgress)
		}

		doc.Tasks[id] = &model.Task{
			ID:        id,
			DependsOn: deps,
			Done:      s.done,
			Section:   s.section,
			Placement: placement,
		}
		doc.Order = append(doc.Order, id)

		m := doc.Milestone(id.Milestone)
		if m == nil {
			m = &model.Milestone{Number: id.Milestone}
			doc.Milestones = append(doc.Milestones, m)
		}
		m.Tasks = append(m.Tasks, id)
	}
	return doc
}

func status(t *testing.T, doc *model.Document, id string) model.Bucket {
	t.Helper()
	tid, err := model.ParseTaskID(id)
	require.NoError(t, err)
	task := doc.Task(tid)
	require.NotNil(t, task)
	return task.Status
}

func TestClassify_DoneWinsOverDependencies(t *testing.T) {
	doc := buildDocument(t, []taskSpec{
		{id: "1WA.1", section: model.BucketToDo},
		{id: "1WA.2", done: true, section: model.BucketDone, deps: []string{"1WA.1"}},
	})

	warnings := Classify(doc)
	assert.Empty(t, warnings)
	assert.Equal(t, model.BucketDone, status(t, doc, "1WA.2"))
}

func TestClassify_AnyNonDoneDependencyBlocks(t *testing.T) {
	doc := buildDocument(t, []taskSpec{
		{id: "1WA.1", done: true, section: model.BucketDone},
		{id: "1WA.2", section: model.BucketToDo},
		{id: "1WA.3", section: model.BucketToDo, deps: []string{"1WA.1", "1WA.2"}},
	})

	Classify(doc)
	assert.Equal(t, model.BucketBlocked, status(t, doc, "1WA.3"))
}

func TestClassify_AllDependenciesDoneUnblocks(t *testing.T) {
	doc := buildDocument(t, []taskSpec{
		{id: "1WA.1", done: true, section: model.BucketDone},
		{id: "1WA.2", section: model.BucketBlocked, deps: []string{"1WA.1"}},
	})

	Classify(doc)
	assert.Equal(t, model.BucketToDo, status(t, doc, "1WA.2"))
}

func TestClassify_BlockingPropagatesThroughChains(t *testing.T) {
	doc := buildDocument(t, []taskSpec{
		{id: "1WA.1", section: model.BucketToDo},
		{id: "1WA.2", section: model.BucketToDo, deps: []string{"1WA.1"}},
		{id: "1WA.3", section: model.BucketToDo, deps: []string{"1WA.2"}},
	})

	Classify(doc)
	assert.Equal(t, model.BucketToDo, status(t, doc, "1WA.1"))
	assert.Equal(t, model.BucketBlocked, status(t, doc, "1WA.2"))
	assert.Equal(t, model.BucketBlocked, status(t, doc, "1WA.3"))
}

func TestClassify_PinnedInProgressIsSticky(t *testing.T) {
	doc := buildDocument(t, []taskSpec{
		{id: "1WA.1", done: true, section: model.BucketDone},
		{id: "1WA.2", section: model.BucketInProgress, deps: []string{"1WA.1"}},
	})

	Classify(doc)
	assert.Equal(t, model.BucketInProgress, status(t, doc, "1WA.2"))
}

func TestClassify_InProgressWithUnmetDependencyIsBlocked(t *testing.T) {
	doc := buildDocument(t, []taskSpec{
		{id: "1WA.1", section: model.BucketToDo},
		{id: "1WA.2", section: model.BucketInProgress, deps: []string{"1WA.1"}},
	})

	Classify(doc)
	assert.Equal(t, model.BucketBlocked, status(t, doc, "1WA.2"))
}

func TestClassify_DanglingDependencySatisfiedWithWarning(t *testing.T) {
	doc := buildDocument(t, []taskSpec{
		{id: "1WA.1", section: model.BucketBlocked, deps: []string{"9ZZ.9"}},
	})

	warnings := Classify(doc)
	require.Len(t, warnings, 1)
	assert.Equal(t, "1WA.1", warnings[0].Task.String())
	assert.Equal(t, "9ZZ.9", warnings[0].Ref.String())

	assert.Equal(t, model.BucketToDo, status(t, doc, "1WA.1"))

	tid, _ := model.ParseTaskID("1WA.1")
	assert.Len(t, doc.Task(tid).Dangling, 1)
}

func TestClassify_MixedDanglingAndRealDependencies(t *testing.T) {
	doc := buildDocument(t, []taskSpec{
		{id: "1WA.1", section: model.BucketToDo},
		{id: "1WA.2", section: model.BucketBlocked, deps: []string{"1WA.1", "9ZZ.9"}},
	})

	warnings := Classify(doc)
	require.Len(t, warnings, 1)

	// The real unmet dependency still blocks.
	assert.Equal(t, model.BucketBlocked, status(t, doc, "1WA.2"))
}

func TestClassify_Idempotent(t *testing.T) {
	doc := buildDocument(t, []taskSpec{
		{id: "1WA.1", done: true, section: model.BucketDone},
		{id: "1WA.2", section: model.BucketBlocked, deps: []string{"1WA.1"}},
		{id: "1WA.3", section: model.BucketBlocked, deps: []string{"1WA.2"}},
	})

	Classify(doc)
	first := make(map[model.TaskID]model.Bucket)
	for id, task := range doc.Tasks {
		first[id] = task.Status
	}

	Classify(doc)
	for id, task := range doc.Tasks {
		assert.Equal(t, first[id], task.Status, "status of %s changed on second pass", id)
	}
}
