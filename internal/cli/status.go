package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ryoheik/roadmap/internal/document"
	"github.com/ryoheik/roadmap/internal/logging"
	"github.com/ryoheik/roadmap/internal/model"
	"github.com/ryoheik/roadmap/internal/reconcile"
)

var jsonOutput bool

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	blockedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	todoStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	inProgressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	doneStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle        = lipgloss.NewStyle().Faint(true)
)

var bucketStyles = map[model.Bucket]lipgloss.Style{
	model.BucketBlocked:    blockedStyle,
	model.BucketToDo:       todoStyle,
	model.BucketInProgress: inProgressStyle,
	model.BucketDone:       doneStyle,
}

type milestoneStatus struct {
	Milestone int            `json:"milestone"`
	Title     string         `json:"title"`
	Counts    map[string]int `json:"counts"`
}

type statusOutput struct {
	Document     string            `json:"document"`
	Milestones   []milestoneStatus `json:"milestones"`
	PendingMoves int               `json:"pending_moves"`
	Warnings     []string          `json:"warnings,omitempty"`
	Promotions   []string          `json:"promotions,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status [file]",
	Short: "Summarise the roadmap per milestone",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := documentPath(args)

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		doc, err := document.Parse(string(data))
		if err != nil {
			return err
		}

		report, err := reconcile.New(logging.Discard()).Check(string(data))
		if err != nil {
			return err
		}

		out := buildStatus(path, doc, report)
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		printStatus(out)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit machine-readable output")
	rootCmd.AddCommand(statusCmd)
}

func buildStatus(path string, doc *document.Doc, report *reconcile.Report) statusOutput {
	out := statusOutput{
		Document:     path,
		PendingMoves: len(report.Moves),
	}

	for _, m := range doc.Model.Milestones {
		ms := milestoneStatus{
			Milestone: m.Number,
			Title:     m.Title,
			Counts:    make(map[string]int, len(model.Buckets)),
		}
		for _, id := range m.Tasks {
			ms.Counts[string(doc.Model.Tasks[id].Section)]++
		}
		out.Milestones = append(out.Milestones, ms)
	}

	for _, w := range report.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	for _, id := range report.Promotions {
		out.Promotions = append(out.Promotions, id.String())
	}
	return out
}

func printStatus(out statusOutput) {
	for _, m := range out.Milestones {
		fmt.Println(titleStyle.Render(fmt.Sprintf("Milestone %d: %s", m.Milestone, m.Title)))
		for _, b := range model.Buckets {
			fmt.Printf("  %s %d\n", bucketStyles[b].Render(fmt.Sprintf("%-12s", b.Title())), m.Counts[string(b)])
		}
	}

	if out.PendingMoves > 0 {
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d move(s) pending; run `roadmap reconcile`", out.PendingMoves)))
	}
	for _, w := range out.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if len(out.Promotions) > 0 {
		fmt.Printf("ready to start: %s\n", strings.Join(out.Promotions, ", "))
	}
}
