// logging.go - structured logging for rxs, wired to github.com/joeycumines/logiface.
//
// Design Decision: the Engine stores logging behind a small, non-generic
// Logger interface rather than a *logiface.Logger[E] field, because E
// (the concrete event type) differs per backend (stumpy.Event, izerolog.Event)
// and Engine must not be generic over it. This mirrors the teacher's own
// rationale in eventloop/logging.go for a package-level abstraction, except
// here the abstraction adapts real logiface backends instead of hand-rolling
// one: NewStumpyLogger and NewZerologLogger below are thin adapters over
// *logiface.Logger[*stumpy.Event] and *logiface.Logger[*izerolog.Event].
package rxs

import (
	"os"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/rs/zerolog"
)

// LogLevel mirrors the subset of logiface.Level the engine emits at.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Field is a single structured log attribute.
type Field struct {
	Key string
	Str string
	Err error
	Int int64
	Has byte // 1=Str, 2=Err, 3=Int
}

// StrField constructs a string Field.
func StrField(key, val string) Field { return Field{Key: key, Str: val, Has: 1} }

// ErrField constructs an error Field.
func ErrField(err error) Field { return Field{Key: "err", Err: err, Has: 2} }

// IntField constructs an integer Field.
func IntField(key string, val int64) Field { return Field{Key: key, Int: val, Has: 3} }

// Logger is the logging capability the engine depends on. Implementations
// are expected to be safe for concurrent use.
type Logger interface {
	Log(level LogLevel, msg string, fields ...Field)
}

type noopLogger struct{}

func (noopLogger) Log(LogLevel, string, ...Field) {}

// NoopLogger discards every message.
func NoopLogger() Logger { return noopLogger{} }

// logifaceAdapter adapts any logiface.Logger[E] into the engine's Logger
// interface, regardless of backend.
type logifaceAdapter[E logiface.Event] struct {
	l *logiface.Logger[E]
}

func (a logifaceAdapter[E]) Log(level LogLevel, msg string, fields ...Field) {
	var b *logiface.Builder[E]
	switch level {
	case LogLevelDebug:
		b = a.l.Debug()
	case LogLevelWarn:
		b = a.l.Warning()
	case LogLevelError:
		b = a.l.Err()
	default:
		b = a.l.Info()
	}
	if b == nil {
		return
	}
	for _, f := range fields {
		switch f.Has {
		case 1:
			b = b.Str(f.Key, f.Str)
		case 2:
			b = b.Err(f.Err)
		case 3:
			b = b.Int64(f.Key, f.Int)
		}
	}
	b.Log(msg)
}

// AdaptLogifaceLogger wraps an arbitrary logiface backend logger so it can be
// passed as EngineConfig.Logger.
func AdaptLogifaceLogger[E logiface.Event](l *logiface.Logger[E]) Logger {
	return logifaceAdapter[E]{l: l}
}

// NewStumpyLogger builds the default logger: stumpy (zero-dependency)
// writing to os.Stderr at Warn level and above.
func NewStumpyLogger() Logger {
	l := stumpy.L.New(stumpy.L.WithStumpy(), logiface.WithLevel[*stumpy.Event](logiface.LevelWarning))
	return AdaptLogifaceLogger[*stumpy.Event](l)
}

// NewZerologLogger builds a logger backed by the supplied zerolog.Logger via
// github.com/joeycumines/izerolog, for hosts that already standardized on
// zerolog (as cuemby-warren does in the example corpus).
func NewZerologLogger(zl zerolog.Logger) Logger {
	l := izerolog.L.New(izerolog.L.WithZerolog(zl), logiface.WithLevel[*izerolog.Event](logiface.LevelWarning))
	return AdaptLogifaceLogger[*izerolog.Event](l)
}

// defaultLogger returns the package default, a stumpy logger to stderr.
func defaultLogger() Logger {
	if os.Getenv("RXS_DISABLE_LOGGING") != "" {
		return NoopLogger()
	}
	return NewStumpyLogger()
}
