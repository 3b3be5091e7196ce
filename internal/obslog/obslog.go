// Package obslog is the scheduler's operational log: everything that is not
// part of the trace contract (internal/trace). Boot and shutdown lifecycle,
// configuration validation failures and HRT spawn failures are logged here;
// panics in worker bodies are not recovered, and SRT work dropped at the end
// of a sub-frame is not logged. Logging goes through
// github.com/joeycumines/logiface fronting github.com/rs/zerolog, exactly as
// the teacher's logiface/zerolog integration wires the two together.
package obslog

import (
	"os"
	"time"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// LoggerFactory is an alias of izerolog's LoggerFactory, re-exported so call
// sites can write obslog.L instead of reaching into the izerolog package
// directly.
type LoggerFactory = izerolog.LoggerFactory

// L is the package-level LoggerFactory, matching the teacher's convention of
// exposing New and its Option constructors as methods on a zero-value
// struct.
var L = izerolog.L

// Logger is the concrete logger type handed around the scheduler: a
// logiface.Logger bound to izerolog's Event type. Components that need to
// log (the dispatcher, the host program) take this type directly rather
// than a logiface.Event-generic one, since obslog only ever constructs
// loggers via New/Default.
type Logger = *logiface.Logger[*izerolog.Event]

// New builds a logiface.Logger fronting the given zerolog.Logger.
func New(zl zerolog.Logger) Logger {
	return L.New(L.WithZerolog(zl))
}

// Default is the process-wide operational logger. A host program may replace
// it with SetDefault before starting the dispatcher, e.g. to switch to a
// JSON writer in production rather than the human-readable console writer
// used here by default.
var Default = New(zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger())

// SetDefault replaces the package-level Default logger.
func SetDefault(logger Logger) { Default = logger }
