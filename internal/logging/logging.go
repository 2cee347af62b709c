// Package logging constructs the shared console logger.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New returns a leveled console logger writing to stderr. Unknown level
// strings fall back to info.
func New(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: false,
		Prefix:          "roadmap",
	})
}

// Discard returns a logger that drops everything. Used in tests and by
// callers that want a silent pipeline.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
