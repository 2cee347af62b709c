package reconcile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryoheik/roadmap/internal/document"
	"github.com/ryoheik/roadmap/internal/model"
)

const chainDoc = `# Demo

## Milestone 1: Ingest

<a id="m1-blocked"></a>
### Blocked

- [ ] 1WA.2 Normalise records (depends on 1WA.1)
- [ ] 1WA.3 Publish feed (depends on 1WA.2)

<a id="m1-todo"></a>
### To-Do

<a id="m1-inprogress"></a>
### In-Progress

- [x] 1WA.1 Fetch source data

<a id="m1-done"></a>
### Done

` + "```mermaid" + `
graph TD
` + "```" + `
`

func TestReconcile_CompletionRipplesThroughChain(t *testing.T) {
	out, report, err := New(nil).Reconcile(chainDoc)
	require.NoError(t, err)
	require.True(t, report.Changed)

	// 1WA.1 was marked complete while in In-Progress: it moves to Done,
	// which unblocks 1WA.2. 1WA.3 stays blocked behind 1WA.2.
	require.Len(t, report.Moves, 2)
	assert.Equal(t, "1WA.2", report.Moves[0].ID.String())
	assert.Equal(t, model.BucketBlocked, report.Moves[0].From)
	assert.Equal(t, model.BucketToDo, report.Moves[0].To)
	assert.Equal(t, "1WA.1", report.Moves[1].ID.String())
	assert.Equal(t, model.BucketDone, report.Moves[1].To)

	require.Len(t, report.Promotions, 1)
	assert.Equal(t, "1WA.2", report.Promotions[0].String())

	doc, err := document.Parse(out)
	require.NoError(t, err)

	id := func(s string) model.TaskID {
		tid, err := model.ParseTaskID(s)
		require.NoError(t, err)
		return tid
	}
	assert.Equal(t, model.BucketDone, doc.Model.Tasks[id("1WA.1")].Section)
	assert.Equal(t, model.BucketToDo, doc.Model.Tasks[id("1WA.2")].Section)
	assert.Equal(t, model.BucketBlocked, doc.Model.Tasks[id("1WA.3")].Section)

	// The diagram drops the Done task and tracks the new statuses.
	assert.NotContains(t, out, `1WA_1["1WA.1"]`)
	assert.Contains(t, out, `    1WA_2["1WA.2"]:::open`)
	assert.Contains(t, out, `    1WA_3["1WA.3"]:::blocked`)
	assert.Contains(t, out, "    1WA_2 --> 1WA_3")
}

func TestReconcile_Idempotent(t *testing.T) {
	first, report, err := New(nil).Reconcile(chainDoc)
	require.NoError(t, err)
	require.True(t, report.Changed)

	second, report2, err := New(nil).Reconcile(first)
	require.NoError(t, err)
	assert.False(t, report2.Changed)
	assert.Empty(t, report2.Moves)
	assert.Equal(t, first, second)
}

func TestReconcile_AlreadyConsistentIsUntouched(t *testing.T) {
	text := `## Milestone 1: Ingest

<a id="m1-blocked"></a>
### Blocked

- [ ] 1WA.2 Normalise records (depends on 1WA.1)

<a id="m1-todo"></a>
### To-Do

- [ ] 1WA.1 Fetch source data

<a id="m1-inprogress"></a>
### In-Progress

<a id="m1-done"></a>
### Done
`
	out, report, err := New(nil).Reconcile(text)
	require.NoError(t, err)
	assert.False(t, report.Changed)
	assert.Equal(t, text, out)
}

func TestReconcile_DanglingReferenceHoldsBlockedTask(t *testing.T) {
	text := `## Milestone 1: Ingest

<a id="m1-blocked"></a>
### Blocked

- [ ] 1WA.1 Waiting on removed work (depends on 9ZZ.9)

<a id="m1-todo"></a>
### To-Do

<a id="m1-inprogress"></a>
### In-Progress

<a id="m1-done"></a>
### Done
`
	out, report, err := New(nil).Reconcile(text)
	require.NoError(t, err)

	// The only unmet reference points outside the document; promotion on
	// that evidence alone would be a guess, so the task stays in Blocked.
	assert.Empty(t, report.Moves)
	assert.Empty(t, report.Promotions)
	assert.Equal(t, text, out)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0].String(), "9ZZ.9")
}

func TestReconcile_DependencyCycleFailsWithoutOutput(t *testing.T) {
	text := `## Milestone 1: Ingest

<a id="m1-blocked"></a>
### Blocked

- [ ] 1WA.1 First half (depends on 1WA.2)
- [ ] 1WA.2 Second half (depends on 1WA.1)

<a id="m1-todo"></a>
### To-Do

<a id="m1-inprogress"></a>
### In-Progress

<a id="m1-done"></a>
### Done
`
	out, _, err := New(nil).Reconcile(text)
	require.Error(t, err)
	assert.Empty(t, out)

	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "1WA.1")
	assert.Contains(t, err.Error(), "1WA.2")
}

func TestReconcile_CycleThroughDoneTaskIsFine(t *testing.T) {
	// Completing a task breaks any textual cycle through it.
	text := `## Milestone 1: Ingest

<a id="m1-blocked"></a>
### Blocked

- [ ] 1WA.2 Second half (depends on 1WA.1)

<a id="m1-todo"></a>
### To-Do

<a id="m1-inprogress"></a>
### In-Progress

<a id="m1-done"></a>
### Done

- [x] 1WA.1 First half (depends on 1WA.2)
`
	_, report, err := New(nil).Reconcile(text)
	require.NoError(t, err)
	require.Len(t, report.Moves, 1)
	assert.Equal(t, "1WA.2", report.Moves[0].ID.String())
	assert.Equal(t, model.BucketToDo, report.Moves[0].To)
}

func TestReconcile_DuplicateIDFails(t *testing.T) {
	text := `## Milestone 1: Ingest

<a id="m1-todo"></a>
### To-Do

- [ ] 1WA.1 first use
- [ ] 1WA.1 second use

<a id="m1-done"></a>
### Done
`
	_, _, err := New(nil).Reconcile(text)
	require.Error(t, err)

	var de *DuplicateIDError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "1WA.1", de.ID.String())
	assert.Equal(t, 6, de.FirstLine)
	assert.Equal(t, 7, de.SecondLine)
}

func TestReconcile_MalformedDocumentFails(t *testing.T) {
	text := `## Milestone 1: Ingest

<a id="m1-todo"></a>
### To-Do

- [ ] bogus entry without an ID shape
`
	_, _, err := New(nil).Reconcile(text)
	require.Error(t, err)

	var pe *document.ParseErrors
	require.ErrorAs(t, err, &pe)
}

func TestReconcile_UncheckedTaskInDoneMovesOut(t *testing.T) {
	text := `## Milestone 1: Ingest

<a id="m1-todo"></a>
### To-Do

<a id="m1-inprogress"></a>
### In-Progress

<a id="m1-done"></a>
### Done

- [ ] 1WA.1 Not actually finished
`
	out, report, err := New(nil).Reconcile(text)
	require.NoError(t, err)

	// The checkbox is the source of truth: an unchecked entry does not
	// belong in Done no matter where a hand edit left it.
	require.Len(t, report.Moves, 1)
	assert.Equal(t, model.BucketDone, report.Moves[0].From)
	assert.Equal(t, model.BucketToDo, report.Moves[0].To)

	doc, err := document.Parse(out)
	require.NoError(t, err)
	assert.Empty(t, doc.Section(1, model.BucketDone).Entries)
}

func TestReconcile_StickyInProgressSurvivesRuns(t *testing.T) {
	text := `## Milestone 1: Ingest

<a id="m1-todo"></a>
### To-Do

<a id="m1-inprogress"></a>
### In-Progress

- [ ] 1WA.1 Being worked on right now

<a id="m1-done"></a>
### Done
`
	out, report, err := New(nil).Reconcile(text)
	require.NoError(t, err)
	assert.Empty(t, report.Moves)
	assert.Equal(t, text, out)
}

func TestReconcile_SectionsSwappingEntriesStayTidy(t *testing.T) {
	// Blocked's only entry becomes ready while To-Do's only entry becomes
	// blocked: both sections lose their last entry and receive an arrival
	// in the same run. No stray blank lines may be left behind.
	text := `## Milestone 1: Ingest

<a id="m1-blocked"></a>
### Blocked

- [ ] 1WA.3 Publish feed (depends on 1WA.1)

<a id="m1-todo"></a>
### To-Do

- [ ] 1WA.2 Normalise records (depends on 1WA.4)

<a id="m1-inprogress"></a>
### In-Progress

- [ ] 1WA.4 Review schema draft

<a id="m1-done"></a>
### Done

- [x] 1WA.1 Fetch source data
`
	out, report, err := New(nil).Reconcile(text)
	require.NoError(t, err)
	require.Len(t, report.Moves, 2)

	assert.NotContains(t, out, "\n\n\n")
	assert.Contains(t, out, "### Blocked\n\n- [ ] 1WA.2 Normalise records (depends on 1WA.4)")
	assert.Contains(t, out, "### To-Do\n\n- [ ] 1WA.3 Publish feed (depends on 1WA.1)")

	doc, err := document.Parse(out)
	require.NoError(t, err)
	blocked := doc.Section(1, model.BucketBlocked)
	require.NotNil(t, blocked)
	require.Len(t, blocked.Entries, 1)
	assert.Equal(t, "1WA.2", blocked.Entries[0].String())

	second, report2, err := New(nil).Reconcile(out)
	require.NoError(t, err)
	assert.False(t, report2.Changed)
	assert.Equal(t, out, second)
}

func TestReconcile_EntryBytesSurviveMoves(t *testing.T) {
	out, _, err := New(nil).Reconcile(chainDoc)
	require.NoError(t, err)

	for _, raw := range []string{
		"- [ ] 1WA.2 Normalise records (depends on 1WA.1)",
		"- [ ] 1WA.3 Publish feed (depends on 1WA.2)",
		"- [x] 1WA.1 Fetch source data",
	} {
		assert.Equal(t, 1, strings.Count(out, raw), "entry %q not preserved exactly once", raw)
	}
}

func TestCheck_ReportsWithoutRendering(t *testing.T) {
	report, err := New(nil).Check(chainDoc)
	require.NoError(t, err)
	assert.True(t, report.Changed)
	assert.Len(t, report.Moves, 2)
}
