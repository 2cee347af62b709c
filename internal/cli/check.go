package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ryoheik/roadmap/internal/document"
	"github.com/ryoheik/roadmap/internal/reconcile"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate the document without writing anything",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := documentPath(args)

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		report, err := reconcile.New(logger).Check(string(data))
		if err != nil {
			var pe *document.ParseErrors
			if errors.As(err, &pe) {
				fmt.Fprint(os.Stderr, pe.FormatStderr())
				return fmt.Errorf("%s is malformed", path)
			}
			return err
		}

		for _, w := range report.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		if report.Changed {
			fmt.Printf("%s: valid, %d move(s) pending\n", path, len(report.Moves))
		} else {
			fmt.Printf("%s: valid, reconciled\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
