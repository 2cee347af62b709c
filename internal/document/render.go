package document

import (
	"strings"

	"github.com/ryoheik/roadmap/internal/diagram"
	"github.com/ryoheik/roadmap/internal/model"
)

// Render serialises the reconciled document. final maps every task to the
// bucket it belongs in after reconciliation. Untouched lines are emitted
// byte-for-byte; entries that moved keep their raw bytes in their new
// section; diagram blocks are regenerated wholesale.
func (d *Doc) Render(final map[model.TaskID]model.Bucket) string {
	entryAt := make(map[int]model.TaskID)
	for _, s := range d.Sections {
		for i, lineIdx := range s.EntryLines {
			entryAt[lineIdx] = s.Entries[i]
		}
	}

	// Arrivals per section, in document order. A task whose destination
	// section is missing from the document stays where it is rather than
	// vanishing from the checklist.
	effective := make(map[model.TaskID]model.Bucket, len(d.Model.Order))
	arrivals := make(map[*Section][]model.TaskID)
	for _, id := range d.Model.Order {
		t := d.Model.Tasks[id]
		to, ok := final[id]
		if !ok {
			to = t.Section
		}
		effective[id] = to
		if to == t.Section {
			continue
		}
		if s := d.Section(id.Milestone, to); s != nil {
			arrivals[s] = append(arrivals[s], id)
		} else {
			effective[id] = t.Section
		}
	}
	final = effective

	// Arrival lines are emitted after the section's last entry line, or
	// after the heading (and its trailing blank) when the section is empty.
	// The separating blank before the block is decided at emission time:
	// the insertion-point line may itself be a departing entry that never
	// gets emitted.
	insertAfter := make(map[int][]string)
	for s, ids := range arrivals {
		p := insertionPoint(d.Lines, s)
		var block []string
		for _, id := range ids {
			block = append(block, d.Model.Tasks[id].Raw)
		}
		if p+1 < len(d.Lines) && d.Lines[p+1] != "" {
			block = append(block, "")
		}
		insertAfter[p] = block
	}

	// Diagram interiors are replaced by regenerated content.
	skip := make(map[int]bool)
	generated := make(map[int][]string) // keyed by OpenLine
	blocks := make([]*DiagramBlock, 0, len(d.Diagrams)+1)
	blocks = append(blocks, d.Diagrams...)
	if d.Aggregate != nil {
		blocks = append(blocks, d.Aggregate)
	}
	for _, b := range blocks {
		for i := b.OpenLine + 1; i < b.CloseLine; i++ {
			skip[i] = true
		}
		if b.IsAggregate {
			generated[b.OpenLine] = diagram.AggregateBlock(d.Model)
		} else if m := d.Model.Milestone(b.Milestone); m != nil {
			generated[b.OpenLine] = diagram.MilestoneBlock(m, d.Model)
		}
	}

	var out []string
	lastWasBlank := false
	lastSkippedEntry := -1

	emit := func(line string) {
		out = append(out, line)
		lastWasBlank = line == ""
	}

	for i, line := range d.Lines {
		switch {
		case skip[i]:
			// regenerated diagram interior

		case hasEntry(entryAt, i):
			id := entryAt[i]
			if final[id] == d.Model.Tasks[id].Section {
				emit(line)
			} else {
				lastSkippedEntry = i
			}

		case line == "" && lastWasBlank && lastSkippedEntry == i-1:
			// collapse the separator a departed entry left behind

		default:
			emit(line)
			if gen, ok := generated[i]; ok {
				out = append(out, gen...)
			}
		}

		if ins, ok := insertAfter[i]; ok {
			if !lastWasBlank {
				emit("")
			}
			for _, l := range ins {
				emit(l)
			}
		}
	}

	text := strings.Join(out, "\n")
	if d.TrailingNewline {
		text += "\n"
	}
	return text
}

// insertionPoint returns the line index after which a section's arrivals
// are emitted.
func insertionPoint(lines []string, s *Section) int {
	if len(s.EntryLines) > 0 {
		return s.EntryLines[len(s.EntryLines)-1]
	}
	p := s.AnchorLine
	if s.HeadingLine >= 0 {
		p = s.HeadingLine
	}
	if p+1 < len(lines) && lines[p+1] == "" {
		p++
	}
	return p
}

func hasEntry(entryAt map[int]model.TaskID, lineIdx int) bool {
	_, ok := entryAt[lineIdx]
	return ok
}
