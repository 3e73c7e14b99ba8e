// Package observability provides structured logging for pdf2excel.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogConfig holds logger configuration.
type LogConfig struct {
	Level   string
	Format  string // json or console
	Output  io.Writer
	NoColor bool
	// ServiceName is attached to every entry when set.
	ServiceName string
}

// Logger is a leveled logger scoped by component. Loggers are immutable;
// With* methods return a child.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger builds a logger writing to cfg.Output, or stderr. Stdout stays
// free for command output such as parse --json.
func NewLogger(cfg LogConfig) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: cfg.NoColor}
	}

	ctx := zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.ServiceName != "" {
		ctx = ctx.Str("service", cfg.ServiceName)
	}
	return &Logger{zl: ctx.Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) Debug() *LogEvent { return &LogEvent{e: l.zl.Debug()} }
func (l *Logger) Info() *LogEvent  { return &LogEvent{e: l.zl.Info()} }
func (l *Logger) Warn() *LogEvent  { return &LogEvent{e: l.zl.Warn()} }
func (l *Logger) Error() *LogEvent { return &LogEvent{e: l.zl.Error()} }

// WithComponent tags every entry with the emitting package.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

// LogEvent is one entry under construction. A disabled level yields an
// event whose methods are no-ops.
type LogEvent struct {
	e *zerolog.Event
}

func (ev *LogEvent) Str(key, val string) *LogEvent {
	ev.e.Str(key, val)
	return ev
}

func (ev *LogEvent) Int(key string, val int) *LogEvent {
	ev.e.Int(key, val)
	return ev
}

func (ev *LogEvent) Bool(key string, val bool) *LogEvent {
	ev.e.Bool(key, val)
	return ev
}

func (ev *LogEvent) Dur(key string, val time.Duration) *LogEvent {
	ev.e.Dur(key, val)
	return ev
}

func (ev *LogEvent) Err(err error) *LogEvent {
	ev.e.Err(err)
	return ev
}

// Msg writes the entry.
func (ev *LogEvent) Msg(msg string) {
	ev.e.Msg(msg)
}

// parseLevel maps a config level name onto zerolog, defaulting to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "off", "none":
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
