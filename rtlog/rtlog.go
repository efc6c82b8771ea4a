// Package rtlog wires rtos.Hooks to a colorized structured logger.
// The kernel core never imports this package or takes a logging
// dependency; rtlog is strictly a caller-side subscriber.
package rtlog

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/kineticos/rtos"
)

// New builds a tint-backed slog.Logger: level-colored, millisecond
// timestamps from the host clock, no source location.
func New() *slog.Logger {
	return NewWithTime(nil)
}

// NewWithTime builds the same logger but stamps every record through
// now instead of the host clock, so an embedder can timestamp log
// lines with kernel time (boot epoch + sys ticks, see
// rtclock.Clock.Time). A nil now falls back to the host clock.
func NewWithTime(now func() time.Time) *slog.Logger {
	opts := &tint.Options{
		TimeFormat: "15:04:05.000",
	}
	if now != nil {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				a.Value = slog.TimeValue(now())
			}
			return a
		}
	}
	return slog.New(tint.NewHandler(os.Stdout, opts))
}

// Hooks returns an rtos.Hooks wired to log through lg, ready to pass
// straight to rtos.NewKernel.
func Hooks(lg *slog.Logger) rtos.Hooks {
	return rtos.Hooks{
		TaskCreated: func(t *rtos.Task) {
			lg.Info("task created", "name", t.Name(), "id", t.ID(), "prio", t.Prio())
		},
		TaskDeleted: func(t *rtos.Task) {
			lg.Info("task deleted", "name", t.Name(), "id", t.ID())
		},
		MutexTimeout: func(t *rtos.Task) {
			lg.Warn("mutex wait timed out", "name", t.Name(), "id", t.ID())
		},
		CondSignaled: func(waiters int) {
			lg.Debug("condvar signaled", "waiters", waiters)
		},
	}
}
