package log

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

type LogLevel string

const (
	FatalLevel    LogLevel = "fatal"
	ErrorLevel    LogLevel = "error"
	WarningLevel  LogLevel = "warn"
	InfoLevel     LogLevel = "info"
	DebugLevel    LogLevel = "debug"
	TraceLevel    LogLevel = "trace"
	DisabledLevel LogLevel = "disabled"
)

var levelmap = map[LogLevel]int{
	TraceLevel:    5,
	DebugLevel:    4,
	InfoLevel:     3,
	WarningLevel:  2,
	ErrorLevel:    1,
	FatalLevel:    0,
	DisabledLevel: -1,
}

type logWrapper struct {
	mu    sync.Mutex
	log   *log.Logger
	level LogLevel
}

func (l *logWrapper) printf(level LogLevel, format string, args ...any) {
	if !l.enabled(level) {
		return
	}
	l.println(level, fmt.Sprintf(format, args...))
}

func (l *logWrapper) println(level LogLevel, args ...any) {
	if !l.enabled(level) {
		return
	}
	ts := time.Now().Local()
	timeStr := fmt.Sprintf("%s.%03d", ts.Format("2006-01-02 15:04:05"), ts.Nanosecond()/1000000)
	levelStr := fmt.Sprintf("- %5s -", level)
	allArgs := []any{timeStr, levelStr}
	allArgs = append(allArgs, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Println(allArgs...)
}

func (l *logWrapper) enabled(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ShouldLog(level, l.level)
}

func (l *logWrapper) setLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *logWrapper) setOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.SetOutput(w)
}

var (
	stdoutLog = &logWrapper{log: log.New(os.Stdout, "", 0), level: InfoLevel}
	stderrLog = &logWrapper{log: log.New(os.Stderr, "", 0), level: InfoLevel}
)

// SetLevel changes the level of both the stdout and the stderr logger.
func SetLevel(loglevel LogLevel) error {
	if !ValidLogLevel(loglevel) {
		return fmt.Errorf("no such log level %s", loglevel)
	}

	stderrLog.setLevel(loglevel)
	stdoutLog.setLevel(loglevel)
	return nil
}

// SetVerbosity maps a numeric debug level to a log level.
// Zero means info, one means debug and anything higher means trace.
func SetVerbosity(verbosity int) {
	switch {
	case verbosity >= 2:
		SetLevel(TraceLevel)
	case verbosity == 1:
		SetLevel(DebugLevel)
	case verbosity < 0:
		SetLevel(DisabledLevel)
	default:
		SetLevel(InfoLevel)
	}
}

// SetOutput redirects both loggers. Warnings and errors go to stderr,
// everything else to stdout. A nil writer leaves that stream unchanged.
func SetOutput(stdout, stderr io.Writer) {
	if stdout != nil {
		stdoutLog.setOutput(stdout)
	}
	if stderr != nil {
		stderrLog.setOutput(stderr)
	}
}

func ValidLogLevel(level LogLevel) bool {
	_, ok := levelmap[level]
	return ok
}

func ShouldLog(logLevel, enabled LogLevel) bool {
	if !ValidLogLevel(logLevel) || !ValidLogLevel(enabled) {
		return false
	}
	return levelmap[logLevel] <= levelmap[enabled]
}

func Log(level LogLevel, msg string, args ...any) {
	switch level {
	case TraceLevel, DebugLevel, InfoLevel:
		stdoutLog.printf(level, msg, args...)
	case WarningLevel, ErrorLevel:
		stderrLog.printf(level, msg, args...)
	case FatalLevel:
		Fatalf(msg, args...)
	}
}

func Trace(args ...any) {
	stdoutLog.println(TraceLevel, args...)
}

func Debug(args ...any) {
	stdoutLog.println(DebugLevel, args...)
}

func Info(args ...any) {
	stdoutLog.println(InfoLevel, args...)
}

func Warn(args ...any) {
	stderrLog.println(WarningLevel, args...)
}

func Error(args ...any) {
	stderrLog.println(ErrorLevel, args...)
}

func Fatal(args ...any) {
	stderrLog.println(FatalLevel, args...)
	debug.PrintStack()
	os.Exit(1)
}

func Tracef(format string, args ...any) {
	stdoutLog.printf(TraceLevel, format, args...)
}

func Debugf(format string, args ...any) {
	stdoutLog.printf(DebugLevel, format, args...)
}

func Infof(format string, args ...any) {
	stdoutLog.printf(InfoLevel, format, args...)
}

func Warnf(format string, args ...any) {
	stderrLog.printf(WarningLevel, format, args...)
}

func Errorf(format string, args ...any) {
	stderrLog.printf(ErrorLevel, format, args...)
}

func Fatalf(format string, args ...any) {
	stderrLog.printf(FatalLevel, format, args...)
	debug.PrintStack()
	os.Exit(1)
}

type writeFunc func([]byte) (int, error)

func (fn writeFunc) Write(data []byte) (int, error) {
	return fn(data)
}

// NewLogWriter returns a writer which logs everything written to it at
// the given level, one record per write.
func NewLogWriter(level LogLevel) io.Writer {
	return writeFunc(func(data []byte) (int, error) {
		Log(level, "%s", data)
		return len(data), nil
	})
}

// DebugError logs an error and every error it wraps.
func DebugError(err error) {
	indent := 1

	Debug(err.Error())

	for {
		if err = errors.Unwrap(err); err == nil {
			break
		}

		Debugf("| %d: %s", indent, err.Error())
		indent += 1
	}
}
