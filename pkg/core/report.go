// pkg/core/report.go
package core

import (
	"io"

	"github.com/charmbracelet/log"
)

// Reporter is the diagnostic sink shared by all components. Three
// severities only; every diagnostic is a formatted string.
type Reporter interface {
	// Infof reports normal progress
	Infof(format string, args ...interface{})

	// Debugf reports verbose detail, shown only when enabled
	Debugf(format string, args ...interface{})

	// Errorf reports a per-item failure; it does not abort the run
	Errorf(format string, args ...interface{})
}

// logReporter routes diagnostics through a charmbracelet logger
type logReporter struct {
	logger *log.Logger
}

// NewReporter creates a Reporter writing to w. Debug output is emitted
// only when verbose is set.
func NewReporter(w io.Writer, verbose bool) Reporter {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(w, log.Options{Level: level})
	return &logReporter{logger: logger}
}

func (r *logReporter) Infof(format string, args ...interface{}) {
	r.logger.Infof(format, args...)
}

func (r *logReporter) Debugf(format string, args ...interface{}) {
	r.logger.Debugf(format, args...)
}

func (r *logReporter) Errorf(format string, args ...interface{}) {
	r.logger.Errorf(format, args...)
}

// discardReporter swallows all diagnostics
type discardReporter struct{}

// DiscardReporter returns a Reporter that drops everything
func DiscardReporter() Reporter {
	return discardReporter{}
}

func (discardReporter) Infof(format string, args ...interface{})  {}
func (discardReporter) Debugf(format string, args ...interface{}) {}
func (discardReporter) Errorf(format string, args ...interface{}) {}
