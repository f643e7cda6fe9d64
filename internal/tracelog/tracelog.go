// Package tracelog is the allocator family's internal diagnostic logger.
//
// It is deliberately tiny: a single leveled logger that every allocator
// in the bento package routes its gated, per-call trace lines through
// instead of writing straight to os.Stderr. It is not the bento SDK's
// client-facing logging façade (that lives outside this module's scope);
// it only serves this package's own debugging needs.
package tracelog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.TraceLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return l
}

// Tracef emits a trace-level line tagged with the emitting component
// (e.g. "page_allocator", "safe_system_allocator"). Callers are expected
// to gate calls behind their own enable flag; Tracef itself does no
// filtering beyond the logger's configured level.
func Tracef(component, format string, args ...interface{}) {
	logger.WithField("component", component).Tracef(format, args...)
}

// SetLevel exposes the underlying level control for tests and for
// callers that want verbose allocator tracing.
func SetLevel(level logrus.Level) {
	logger.SetLevel(level)
}

// SetOutput redirects where trace lines are written. It exists so tests
// can capture output instead of having it land on os.Stderr.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}
