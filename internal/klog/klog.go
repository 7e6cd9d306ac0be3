// Package klog is the kernel's logging layer.
//
// The teacher represents log severity with a small category enum
// (DW_COLOR_INFO, DW_COLOR_ERROR, DW_COLOR_DEBUG, ...) passed to
// text_color_set ahead of a dw_printf call. This package keeps that
// category-before-message shape but backs it with charmbracelet/log
// instead of a color-stub printf, and adds the one thing the teacher's
// stub never implemented: an actual Fatal path, reserved for the
// kernel's own assertion failures.
package klog

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// Logger wraps a charmbracelet/log.Logger with the kernel's fatal-halt
// convention and an optional strftime-formatted timestamp prefix.
type Logger struct {
	l        *log.Logger
	pattern  *strftime.Strftime
	haltHook func()
}

// Option configures a Logger at construction.
type Option func(*Logger)

// WithOutput redirects log output away from os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(lg *Logger) {
		lg.l.SetOutput(w)
	}
}

// WithLevel sets the minimum reported severity.
func WithLevel(level log.Level) Option {
	return func(lg *Logger) {
		lg.l.SetLevel(level)
	}
}

// ParseLevel maps a configuration string ("debug", "info", "error",
// ...) onto a charmbracelet/log.Level, defaulting to InfoLevel on an
// unrecognized name rather than failing the whole configuration load.
func ParseLevel(name string) log.Level {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// WithTimePattern enables a strftime-style timestamp prefix on every
// line, mirroring the teacher's daily-log-filename formatting
// ("2006-01-02.log" via time.Format in src/log.go) but expressed as a
// user-configurable strftime layout, since the pack also carries
// lestrrat-go/strftime as a direct dependency for exactly this purpose.
func WithTimePattern(layout string) Option {
	return func(lg *Logger) {
		p, err := strftime.New(layout)
		if err == nil {
			lg.pattern = p
		}
	}
}

// WithHaltHook overrides what Fatal does after logging. Tests use this
// to observe a halt without terminating the test process; the default
// is os.Exit(1), the closest Go analog of "disable interrupts and
// halt" on a real MCU.
func WithHaltHook(hook func()) Option {
	return func(lg *Logger) { lg.haltHook = hook }
}

// New builds a Logger writing to os.Stderr by default.
func New(opts ...Option) *Logger {
	lg := &Logger{
		l:        log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true}),
		haltHook: func() { os.Exit(1) },
	}
	for _, opt := range opts {
		opt(lg)
	}
	return lg
}

func (lg *Logger) prefix(msg string) string {
	if lg.pattern == nil {
		return msg
	}
	return lg.pattern.FormatString(time.Now()) + " " + msg
}

func (lg *Logger) Info(msg string, kv ...any)  { lg.l.Info(lg.prefix(msg), kv...) }
func (lg *Logger) Debug(msg string, kv ...any) { lg.l.Debug(lg.prefix(msg), kv...) }
func (lg *Logger) Error(msg string, kv ...any) { lg.l.Error(lg.prefix(msg), kv...) }

// Trace is the kernel's highest-frequency category (tick-by-tick
// scheduling decisions); mapped onto charmbracelet/log's Debug level
// since the library has no lower level, but kept as a distinct method
// so call sites read the way the teacher's DW_COLOR_DEBUG category
// reads — "this is a trace line, not a real debug message."
func (lg *Logger) Trace(msg string, kv ...any) { lg.l.Debug(lg.prefix(msg), kv...) }

// SetHaltHookForTest overrides the halt hook after construction. Only
// meant for use by tests in this module that need to observe a fatal
// assertion without killing the test binary.
func (lg *Logger) SetHaltHookForTest(hook func()) { lg.haltHook = hook }

// Fatal logs msg at the highest severity and then halts via the
// configured hook. Reserved for assertion failures: a corrupt list, a
// bitmap/ready-queue mismatch, or a stack sentinel violation (spec §7 —
// "Assertion failures... are fatal: disable interrupts and halt").
// Fatal does not return under the default hook; under a test hook that
// does not itself exit or panic, it returns normally so the caller's
// own control flow (which should not continue past a fatal assertion
// in production) is visible to the test.
func (lg *Logger) Fatal(msg string, kv ...any) {
	// Deliberately not lg.l.Fatal: that method calls os.Exit itself,
	// which would make haltHook unreachable and untestable.
	lg.l.Log(log.FatalLevel, lg.prefix(msg), kv...)
	lg.haltHook()
}
