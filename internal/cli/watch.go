package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryoheik/roadmap/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [file...]",
	Short: "Reconcile documents whenever they change on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			paths = cfg.Documents
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w := watch.New(logger, time.Duration(cfg.Watcher.DebounceMs)*time.Millisecond, func(path string) error {
			return reconcileDocument(path, false)
		})

		err := w.Watch(ctx, paths)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
