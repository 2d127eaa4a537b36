package app

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger creates the application logger. Components derive their own
// with WithPrefix.
func NewLogger(out io.Writer, level log.Level) *log.Logger {
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          "modkernel",
		ReportTimestamp: true,
	})
}
