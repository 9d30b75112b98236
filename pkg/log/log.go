package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"sync"
	"sync/atomic"
)

const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelDebug = "DEBUG"
)

// Logger is a named logger. Obtain one with ForService.
type Logger struct {
	name string
	std  *stdlog.Logger
}

// output is boxed so the atomic.Value always holds the same concrete type.
type output struct{ w io.Writer }

var (
	globalDebug atomic.Bool
	debugFor    sync.Map // name -> *atomic.Bool
	loggers     sync.Map // name -> *Logger
	current     atomic.Value
)

func init() {
	current.Store(output{w: os.Stderr})
}

// ForService returns the logger for name, creating it on first use.
func ForService(name string) *Logger {
	if name == "" {
		name = "unknown"
	}
	if l, ok := loggers.Load(name); ok {
		return l.(*Logger)
	}
	w := current.Load().(output).w
	l := &Logger{name: name, std: stdlog.New(w, "", stdlog.LstdFlags|stdlog.Lmicroseconds)}
	actual, _ := loggers.LoadOrStore(name, l)
	return actual.(*Logger)
}

func SetGlobalDebug(enabled bool) { globalDebug.Store(enabled) }

func GlobalDebug() bool { return globalDebug.Load() }

// EnableDebugFor turns on debug output for a single logger.
func EnableDebugFor(name string) {
	if name == "" {
		return
	}
	v, _ := debugFor.LoadOrStore(name, new(atomic.Bool))
	v.(*atomic.Bool).Store(true)
}

func DisableDebugFor(name string) {
	if v, ok := debugFor.Load(name); ok {
		v.(*atomic.Bool).Store(false)
	}
}

// DebugEnabledFor reports whether debug output is on for name.
func DebugEnabledFor(name string) bool {
	if globalDebug.Load() {
		return true
	}
	if v, ok := debugFor.Load(name); ok {
		return v.(*atomic.Bool).Load()
	}
	return false
}

// SetOutput sends every logger, existing and future, to w.
func SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	current.Store(output{w: w})
	loggers.Range(func(_, v any) bool {
		v.(*Logger).std.SetOutput(w)
		return true
	})
}

// Name returns the service name.
func (l *Logger) Name() string { return l.name }

func (l *Logger) emit(level, format string, args ...any) {
	l.std.Printf("%s [%s>] %s", level, l.name, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) { l.emit(LevelInfo, format, args...) }

func (l *Logger) Warnf(format string, args ...any) { l.emit(LevelWarn, format, args...) }

func (l *Logger) Errorf(format string, args ...any) { l.emit(LevelError, format, args...) }

// Debugf logs only when debug is enabled globally or for this logger.
func (l *Logger) Debugf(format string, args ...any) {
	if DebugEnabledFor(l.name) {
		l.emit(LevelDebug, format, args...)
	}
}
