package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryoheik/roadmap/internal/document"
	"github.com/ryoheik/roadmap/internal/fileio"
	"github.com/ryoheik/roadmap/internal/lock"
	"github.com/ryoheik/roadmap/internal/model"
	"github.com/ryoheik/roadmap/internal/reconcile"
)

var (
	dryRun bool
	quiet  bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [file]",
	Short: "Recompute statuses, move entries, and regenerate diagrams",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reconcileDocument(documentPath(args), dryRun)
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	reconcileCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the change summary")
	rootCmd.AddCommand(reconcileCmd)
}

// reconcileDocument runs one full reconcile over the document at path and,
// unless dry is set, writes the result atomically. The document on disk is
// untouched on any fatal error.
func reconcileDocument(path string, dry bool) error {
	fl := lock.ForDocument(path)
	if err := fl.TryLock(); err != nil {
		return err
	}
	defer func() { _ = fl.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	r := reconcile.New(logger)
	out, report, err := r.Reconcile(string(data))
	if err != nil {
		var pe *document.ParseErrors
		if errors.As(err, &pe) {
			fmt.Fprint(os.Stderr, pe.FormatStderr())
			return fmt.Errorf("%s is malformed", path)
		}
		return err
	}

	if !quiet {
		printReport(report)
	}

	if !report.Changed {
		logger.Info("document already reconciled", "document", path)
		return nil
	}
	if dry {
		logger.Info("dry run, not writing", "document", path, "moves", len(report.Moves))
		return nil
	}

	err = fileio.AtomicWrite(path, []byte(out), fileio.WriteOptions{
		Backup: cfg.Backup.Enabled,
		Verify: func(b []byte) error {
			_, perr := document.Parse(string(b))
			return perr
		},
	})
	if err != nil {
		return err
	}
	logger.Info("document reconciled", "document", path, "moves", len(report.Moves))
	return nil
}

func printReport(report *reconcile.Report) {
	for _, m := range report.Moves {
		fmt.Printf("moved %s: %s -> %s\n", m.ID, m.From.Title(), m.To.Title())
	}
	for _, w := range report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if len(report.Promotions) > 0 {
		fmt.Printf("ready to start: %s\n", joinIDs(report.Promotions))
	}
}

func joinIDs(ids []model.TaskID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
