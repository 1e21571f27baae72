// Package log provides the leveled logger used by every OBSW subsystem.
//
// Time/date are intentionally omittable: under systemd the journal already
// timestamps every line, so the default format only carries the syslog-style
// priority prefix (see sd-daemon(3) for the <N> convention) and the message.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCrit
)

func ParseLevel(s string) (Level, bool) {
	switch s {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "err", "error":
		return LevelError, true
	case "crit":
		return LevelCrit, true
	default:
		return LevelDebug, false
	}
}

type levelConf struct {
	prio   string
	prefix string
	flags  int
}

var levelConfs = map[Level]levelConf{
	LevelDebug: {"<7>", "[DEBUG]    ", 0},
	LevelInfo:  {"<6>", "[INFO]     ", 0},
	LevelWarn:  {"<4>", "[WARNING]  ", stdlog.Lshortfile},
	LevelError: {"<3>", "[ERROR]    ", stdlog.Llongfile},
	LevelCrit:  {"<2>", "[CRITICAL] ", stdlog.Llongfile},
}

// Logger is a single leveled sink. New returns one that logs every level to
// stderr; the zero value has no per-level loggers and is not usable.
type Logger struct {
	threshold Level
	withDate  bool
	writer    io.Writer
	loggers   map[Level]*stdlog.Logger
}

func New() *Logger {
	l := &Logger{
		threshold: LevelDebug,
		writer:    os.Stderr,
	}
	l.rebuild()
	return l
}

func (l *Logger) rebuild() {
	flags := 0
	if l.withDate {
		flags = stdlog.LstdFlags
	}
	loggers := make(map[Level]*stdlog.Logger, len(levelConfs))
	for lvl, c := range levelConfs {
		loggers[lvl] = stdlog.New(l.writer, c.prio+c.prefix, flags|c.flags)
	}
	l.loggers = loggers
}

func (l *Logger) SetLevel(lvl Level) { l.threshold = lvl }

func (l *Logger) SetOutput(w io.Writer) {
	l.writer = w
	l.rebuild()
}

func (l *Logger) SetWithDate(withDate bool) {
	l.withDate = withDate
	l.rebuild()
}

func (l *Logger) log(lvl Level, s string) {
	if lvl < l.threshold {
		return
	}
	_ = l.loggers[lvl].Output(3, s)
}

func (l *Logger) Debug(v ...any)                 { l.log(LevelDebug, fmt.Sprint(v...)) }
func (l *Logger) Debugf(f string, v ...any)       { l.log(LevelDebug, fmt.Sprintf(f, v...)) }
func (l *Logger) Info(v ...any)                   { l.log(LevelInfo, fmt.Sprint(v...)) }
func (l *Logger) Infof(f string, v ...any)        { l.log(LevelInfo, fmt.Sprintf(f, v...)) }
func (l *Logger) Warn(v ...any)                   { l.log(LevelWarn, fmt.Sprint(v...)) }
func (l *Logger) Warnf(f string, v ...any)        { l.log(LevelWarn, fmt.Sprintf(f, v...)) }
func (l *Logger) Error(v ...any)                  { l.log(LevelError, fmt.Sprint(v...)) }
func (l *Logger) Errorf(f string, v ...any)       { l.log(LevelError, fmt.Sprintf(f, v...)) }
func (l *Logger) Crit(v ...any)                   { l.log(LevelCrit, fmt.Sprint(v...)) }
func (l *Logger) Critf(f string, v ...any)        { l.log(LevelCrit, fmt.Sprintf(f, v...)) }

// Abort logs at crit level and terminates the process. Used during startup
// wiring where a misconfiguration cannot be recovered from.
func (l *Logger) Abort(v ...any) {
	l.Crit(v...)
	os.Exit(1)
}

func (l *Logger) Abortf(f string, v ...any) {
	l.Critf(f, v...)
	os.Exit(1)
}

// std is the package-level logger most call sites use directly, mirroring
// a singleton config object injected once at process start.
var std = New()

func Default() *Logger { return std }

func SetLevel(lvl Level)         { std.SetLevel(lvl) }
func SetOutput(w io.Writer)      { std.SetOutput(w) }
func SetWithDate(withDate bool)  { std.SetWithDate(withDate) }

func Debug(v ...any)           { std.log(LevelDebug, fmt.Sprint(v...)) }
func Debugf(f string, v ...any) { std.log(LevelDebug, fmt.Sprintf(f, v...)) }
func Info(v ...any)            { std.log(LevelInfo, fmt.Sprint(v...)) }
func Infof(f string, v ...any)  { std.log(LevelInfo, fmt.Sprintf(f, v...)) }
func Warn(v ...any)            { std.log(LevelWarn, fmt.Sprint(v...)) }
func Warnf(f string, v ...any)  { std.log(LevelWarn, fmt.Sprintf(f, v...)) }
func Error(v ...any)           { std.log(LevelError, fmt.Sprint(v...)) }
func Errorf(f string, v ...any) { std.log(LevelError, fmt.Sprintf(f, v...)) }
func Crit(v ...any)            { std.log(LevelCrit, fmt.Sprint(v...)) }
func Critf(f string, v ...any)  { std.log(LevelCrit, fmt.Sprintf(f, v...)) }
func Abort(v ...any)           { std.Abort(v...) }
func Abortf(f string, v ...any) { std.Abortf(f, v...) }
