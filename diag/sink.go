package diag

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SilentLevel disables every emitter.
const SilentLevel = zapcore.FatalLevel + 1

const (
	colourReset  = "\033[0m"
	colourRed    = "\033[31m"
	colourGreen  = "\033[32m"
	colourYellow = "\033[33m"
	colourCyan   = "\033[36m"
)

// LevelFromVerbosity maps verbose-minus-quiet counts onto a logging level.
func LevelFromVerbosity(n int) zapcore.Level {
	switch {
	case n > 0:
		return zapcore.DebugLevel
	case n == 0:
		return zapcore.InfoLevel
	case n == -1:
		return zapcore.WarnLevel
	case n == -2:
		return zapcore.ErrorLevel
	default:
		return SilentLevel
	}
}

// Options configures a Sink.
type Options struct {
	// Writer receives the formatted lines. Defaults to os.Stderr.
	Writer io.Writer
	// Verbosity is the number of -v flags minus the number of -q flags.
	Verbosity int
	Colour    bool
	Scheme    URIScheme
}

// Sink is the leveled diagnostics emitter. It only formats and writes;
// counting lives with the session that owns the sink.
type Sink struct {
	logger *zap.SugaredLogger
	level  zap.AtomicLevel
	scheme URIScheme
	colour bool
}

// NewSink builds a console sink backed by zap.
func NewSink(opts Options) *Sink {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := zap.NewAtomicLevelAt(LevelFromVerbosity(opts.Verbosity))
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      levelEncoder(opts.Colour),
		ConsoleSeparator: " ",
	})
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
	return &Sink{
		logger: zap.New(core).Sugar(),
		level:  level,
		scheme: opts.Scheme,
		colour: opts.Colour,
	}
}

// Nop returns a sink that discards everything.
func Nop() *Sink {
	return &Sink{logger: zap.NewNop().Sugar(), level: zap.NewAtomicLevelAt(SilentLevel)}
}

func levelEncoder(colour bool) zapcore.LevelEncoder {
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		var label, c string
		switch l {
		case zapcore.DebugLevel:
			label, c = "DEBUG", colourCyan
		case zapcore.InfoLevel:
			label, c = "INFO ", colourGreen
		case zapcore.WarnLevel:
			label, c = "WARN ", colourYellow
		default:
			label, c = "ERROR", colourRed
		}
		if colour {
			label = c + label + colourReset
		}
		enc.AppendString(label)
	}
}

// Enabled reports whether messages at l are written.
func (s *Sink) Enabled(l zapcore.Level) bool { return s.level.Enabled(l) }

// Scheme is the configured hyperlink scheme.
func (s *Sink) Scheme() URIScheme { return s.scheme }

func (s *Sink) Debugf(format string, args ...any) { s.logger.Debugf(format, args...) }
func (s *Sink) Infof(format string, args ...any)  { s.logger.Infof(format, args...) }
func (s *Sink) Warnf(format string, args ...any)  { s.logger.Warnf(format, args...) }
func (s *Sink) Errorf(format string, args ...any) { s.logger.Errorf(format, args...) }

// Format renders a located message as "<label>\n  <msg>".
func (s *Sink) Format(loc Location, msg string) string {
	return fmt.Sprintf("%s\n  %s", loc.Render(s.scheme), msg)
}

// ErrorAt writes an error anchored to loc.
func (s *Sink) ErrorAt(loc Location, msg string) {
	if !s.Enabled(zapcore.ErrorLevel) {
		return
	}
	s.logger.Error(s.Format(loc, msg))
}

// WarnAt writes a warning anchored to loc.
func (s *Sink) WarnAt(loc Location, msg string) {
	if !s.Enabled(zapcore.WarnLevel) {
		return
	}
	s.logger.Warn(s.Format(loc, msg))
}

// Sync flushes buffered output.
func (s *Sink) Sync() error { return s.logger.Sync() }

// IsTerminal reports whether w is an interactive character device. CI
// environments are never treated as terminals.
func IsTerminal(w io.Writer) bool {
	if os.Getenv("CI") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Paint colours msg green when ok and red otherwise, if colour is enabled.
func (s *Sink) Paint(ok bool, msg string) string {
	if !s.colour {
		return msg
	}
	if ok {
		return colourGreen + msg + colourReset
	}
	return colourRed + msg + colourReset
}
