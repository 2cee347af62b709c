// Package cli implements the roadmap command tree.
package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ryoheik/roadmap/internal/logging"
	"github.com/ryoheik/roadmap/internal/model"
)

var (
	cfgFile  string
	logLevel string

	cfg    model.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Keep a roadmap's checklist and dependency diagrams in agreement",
	Long: `roadmap maintains a markdown planning document that tracks tasks,
milestones, and the dependencies between them. Each run recomputes every
task's status from its dependencies, moves checklist entries into the
right section, and regenerates the mermaid dependency diagrams so both
views always describe the same graph.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = model.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		logger = logging.New(level)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", model.DefaultConfigFile, "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// documentPath resolves the document argument: explicit argument first,
// then the first configured document.
func documentPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Documents[0]
}
