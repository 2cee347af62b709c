// Package document parses roadmap markdown into the task graph model and
// renders the reconciled model back, preserving untouched lines
// byte-for-byte.
package document

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ryoheik/roadmap/internal/model"
)

var (
	milestoneHeadingRegex = regexp.MustCompile(`^## Milestone ([0-9]+): (.+?)\s*$`)
	aggregateHeadingRegex = regexp.MustCompile(`^## Dependency Graph\s*$`)
	anchorRegex           = regexp.MustCompile(`^<a id="m([0-9]+)-(blocked|todo|inprogress|done)"></a>\s*$`)
	entryRegex            = regexp.MustCompile(`^- \[([ xX])\] (\S+)(?:\s+(.*))?$`)
	dependsRegex          = regexp.MustCompile(`\(depends on ([^)]*)\)\s*$`)
	otherHeadingRegex     = regexp.MustCompile(`^##[^#]`)
)

const (
	fenceOpen  = "```mermaid"
	fenceClose = "```"
)

// ParseError is a line-addressed structural error in the document.
type ParseError struct {
	Line   int // 1-based
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

// ParseErrors aggregates every structural error found in one pass.
type ParseErrors struct {
	Errors []*ParseError
}

func (pe *ParseErrors) add(line int, text, reason string) {
	pe.Errors = append(pe.Errors, &ParseError{Line: line, Text: text, Reason: reason})
}

func (pe *ParseErrors) Error() string {
	msgs := make([]string, 0, len(pe.Errors))
	for _, e := range pe.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// FormatStderr renders the errors one per line for CLI output.
func (pe *ParseErrors) FormatStderr() string {
	var sb strings.Builder
	for _, e := range pe.Errors {
		fmt.Fprintf(&sb, "error: %s\n", e.Error())
	}
	return sb.String()
}

// Duplicate records a task ID used by two checklist entries.
type Duplicate struct {
	ID         model.TaskID
	FirstLine  int
	SecondLine int
}

// Section is one checklist bucket of one milestone: its anchor, heading,
// and entry lines.
type Section struct {
	Milestone   int
	Bucket      model.Bucket
	AnchorLine  int // index into Doc.Lines
	HeadingLine int // index of the "### ..." line, -1 if absent
	EntryLines  []int
	Entries     []model.TaskID
}

// DiagramBlock is one fenced mermaid block: its span in the document and
// the nodes and edges it declares.
type DiagramBlock struct {
	Milestone   int
	IsAggregate bool // the cross-milestone block under "## Dependency Graph"
	OpenLine    int  // index of the ```mermaid line
	CloseLine   int  // index of the closing ``` line
	Nodes       map[model.TaskID]model.DiagramClass
	Edges       [][2]model.TaskID // {source, target}: target depends on source
	Markers     []string
}

// Doc is the parsed document: the task graph model plus the line-level
// layout needed to re-render it.
type Doc struct {
	Lines           []string
	TrailingNewline bool

	Model      *model.Document
	Sections   []*Section
	Diagrams   []*DiagramBlock // per-milestone blocks, document order
	Aggregate  *DiagramBlock
	Duplicates []Duplicate
}

// Section returns the section for a milestone bucket, or nil.
func (d *Doc) Section(milestone int, bucket model.Bucket) *Section {
	for _, s := range d.Sections {
		if s.Milestone == milestone && s.Bucket == bucket {
			return s
		}
	}
	return nil
}

// Diagram returns the diagram block for a milestone, or nil.
func (d *Doc) Diagram(milestone int) *DiagramBlock {
	for _, b := range d.Diagrams {
		if b.Milestone == milestone {
			return b
		}
	}
	return nil
}

// Parse reads the document text into a Doc. It fails with ParseErrors on
// malformed task IDs or dependency annotations; unrecognised lines are kept
// verbatim for re-rendering. Duplicate IDs are recorded, not fatal here —
// the validator turns them into a fatal error before anything is written.
func Parse(text string) (*Doc, error) {
	lines := strings.Split(text, "\n")
	trailing := false
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		trailing = true
		lines = lines[:len(lines)-1]
	}

	doc := &Doc{
		Lines:           lines,
		TrailingNewline: trailing,
		Model: &model.Document{
			Tasks: make(map[model.TaskID]*model.Task),
		},
	}
	errs := &ParseErrors{}

	var (
		curMilestone *model.Milestone
		curSection   *Section
		inAggregate  bool
	)

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if line == fenceOpen {
			block, next := parseDiagramBlock(lines, i)
			if inAggregate {
				block.IsAggregate = true
				if doc.Aggregate == nil {
					doc.Aggregate = block
				}
			} else if curMilestone != nil {
				block.Milestone = curMilestone.Number
				if doc.Diagram(curMilestone.Number) == nil {
					doc.Diagrams = append(doc.Diagrams, block)
				}
			}
			i = next
			continue
		}

		if m := milestoneHeadingRegex.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			curMilestone = &model.Milestone{Number: n, Title: m[2]}
			doc.Model.Milestones = append(doc.Model.Milestones, curMilestone)
			curSection = nil
			inAggregate = false
			continue
		}

		if aggregateHeadingRegex.MatchString(line) {
			inAggregate = true
			curSection = nil
			continue
		}

		if m := anchorRegex.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			bucket := model.Bucket(m[2])
			if curMilestone == nil || n != curMilestone.Number {
				errs.add(i+1, line, fmt.Sprintf("section anchor %s outside milestone %d", bucket.AnchorName(n), n))
				curSection = nil
				continue
			}
			curSection = &Section{
				Milestone:   n,
				Bucket:      bucket,
				AnchorLine:  i,
				HeadingLine: -1,
			}
			if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "### ") {
				curSection.HeadingLine = i + 1
				title := strings.TrimSpace(strings.TrimPrefix(lines[i+1], "### "))
				if b, ok := model.BucketForTitle(title); !ok || b != bucket {
					errs.add(i+2, lines[i+1], fmt.Sprintf("heading %q does not match anchor %s", title, bucket.AnchorName(n)))
				}
			}
			doc.Sections = append(doc.Sections, curSection)
			continue
		}

		if otherHeadingRegex.MatchString(line) {
			// Any other second-level heading closes the current section.
			curSection = nil
			inAggregate = false
			continue
		}

		if curSection == nil {
			continue // unrecognised content, preserved verbatim
		}

		if m := entryRegex.FindStringSubmatch(line); m != nil {
			parseEntry(doc, curMilestone, curSection, i, line, m, errs)
		}
	}

	if len(errs.Errors) > 0 {
		return nil, errs
	}
	return doc, nil
}

func parseEntry(doc *Doc, milestone *model.Milestone, section *Section, lineIdx int, line string, m []string, errs *ParseErrors) {
	idText := m[2]
	id, err := model.ParseTaskID(idText)
	if err != nil {
		errs.add(lineIdx+1, line, err.Error())
		return
	}
	if id.Milestone != section.Milestone {
		errs.add(lineIdx+1, line, fmt.Sprintf("task %s listed under milestone %d", id, section.Milestone))
		return
	}

	desc := strings.TrimSpace(m[3])
	var deps []model.TaskID
	if dm := dependsRegex.FindStringSubmatch(desc); dm != nil {
		desc = strings.TrimSpace(strings.TrimSuffix(desc, dm[0]))
		for _, ref := range strings.Split(dm[1], ",") {
			ref = strings.TrimSpace(ref)
			if ref == "" {
				continue
			}
			depID, err := model.ParseTaskID(ref)
			if err != nil {
				errs.add(lineIdx+1, line, fmt.Sprintf("dependency annotation: %v", err))
				return
			}
			deps = append(deps, depID)
		}
	}

	if existing, ok := doc.Model.Tasks[id]; ok {
		doc.Duplicates = append(doc.Duplicates, Duplicate{
			ID:         id,
			FirstLine:  existing.Line,
			SecondLine: lineIdx + 1,
		})
		return
	}

	placement := model.AutomaticPlacement()
	if section.Bucket == model.BucketInProgress {
		placement = model.PinnedPlacement(model.BucketInProgress)
	}

	task := &model.Task{
		ID:          id,
		Description: desc,
		DependsOn:   deps,
		Done:        m[1] == "x" || m[1] == "X",
		Section:     section.Bucket,
		Placement:   placement,
		Line:        lineIdx + 1,
		Raw:         line,
	}

	doc.Model.Tasks[id] = task
	doc.Model.Order = append(doc.Model.Order, id)
	milestone.Tasks = append(milestone.Tasks, id)
	section.EntryLines = append(section.EntryLines, lineIdx)
	section.Entries = append(section.Entries, id)
}

var (
	nodeLineRegex   = regexp.MustCompile(`^\s*([A-Za-z0-9_]+)\["([^"]*)"\]:::([a-z]+)\s*$`)
	markerLineRegex = regexp.MustCompile(`^\s*(M[0-9]+)\{\{"([^"]*)"\}\}:::milestone\s*$`)
	edgeLineRegex   = regexp.MustCompile(`^\s*([A-Za-z0-9_&\s]+?)\s*-->\s*([A-Za-z0-9_&\s]+?)\s*$`)
	markerNameRegex = regexp.MustCompile(`^M[0-9]+$`)
)

// parseDiagramBlock reads a fenced mermaid block starting at open (the
// index of the ```mermaid line) and returns the block plus the index of
// its closing fence. A block left unclosed runs to the end of the file.
func parseDiagramBlock(lines []string, open int) (*DiagramBlock, int) {
	block := &DiagramBlock{
		OpenLine:  open,
		CloseLine: len(lines) - 1,
		Nodes:     make(map[model.TaskID]model.DiagramClass),
	}

	i := open + 1
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == fenceClose {
			block.CloseLine = i
			break
		}

		if m := markerLineRegex.FindStringSubmatch(line); m != nil {
			block.Markers = append(block.Markers, m[1])
			continue
		}
		if m := nodeLineRegex.FindStringSubmatch(line); m != nil {
			if id, err := model.ParseNodeName(m[1]); err == nil {
				block.Nodes[id] = model.DiagramClass(m[3])
			}
			continue
		}
		if m := edgeLineRegex.FindStringSubmatch(line); m != nil {
			sources := splitNodeList(m[1])
			targets := splitNodeList(m[2])
			for _, src := range sources {
				for _, dst := range targets {
					if markerNameRegex.MatchString(src) || markerNameRegex.MatchString(dst) {
						continue // marker edges are decoration, not dependencies
					}
					srcID, err1 := model.ParseNodeName(src)
					dstID, err2 := model.ParseNodeName(dst)
					if err1 != nil || err2 != nil {
						continue
					}
					block.Edges = append(block.Edges, [2]model.TaskID{srcID, dstID})
				}
			}
			continue
		}
		// graph/subgraph/end/classDef and anything else: regenerated, not modelled.
	}

	return block, i
}

func splitNodeList(s string) []string {
	parts := strings.Split(s, "&")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
