// Package logging provides a small leveled logger that renders each
// line as an RFC5424 structured syslog message, adapted from the
// ingest daemon's logging package with the kernel-log relay and raw
// stderr-fd-dup mode dropped — this daemon only ever logs to a file or
// stderr writer handed in by cmd/secstraced.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

type Level int

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

const defaultDepth = 3

const defaultID = `secstrace@1`

var ErrInvalidLevel = errors.New("invalid log level")

// Logger writes leveled, RFC5424-framed log lines to one writer. It is
// safe for concurrent use; every HTTP request goroutine logs through
// the same instance.
type Logger struct {
	mtx      sync.Mutex
	wtr      io.Writer
	lvl      Level
	hostname string
	appname  string
}

// New builds a Logger writing to wtr at level INFO.
func New(wtr io.Writer) *Logger {
	hostname, _ := os.Hostname()
	appname := "secstraced"
	if len(os.Args) > 0 {
		appname = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))
	}
	return &Logger{wtr: wtr, lvl: INFO, hostname: hostname, appname: appname}
}

// NewFile opens (creating if needed, append mode) a log file at path.
func NewFile(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0660)
	if err != nil {
		return nil, err
	}
	return New(f), nil
}

func NewDiscard() *Logger {
	return New(io.Discard)
}

func (l *Logger) SetLevel(lvl Level) error {
	if !lvl.Valid() {
		return ErrInvalidLevel
	}
	l.mtx.Lock()
	l.lvl = lvl
	l.mtx.Unlock()
	return nil
}

func (l *Logger) SetLevelString(s string) error {
	lvl, err := LevelFromString(s)
	if err != nil {
		return err
	}
	return l.SetLevel(lvl)
}

func (l *Logger) Debug(msg string, sds ...rfc5424.SDParam) { l.output(defaultDepth, DEBUG, msg, sds...) }
func (l *Logger) Info(msg string, sds ...rfc5424.SDParam)  { l.output(defaultDepth, INFO, msg, sds...) }
func (l *Logger) Warn(msg string, sds ...rfc5424.SDParam)  { l.output(defaultDepth, WARN, msg, sds...) }
func (l *Logger) Error(msg string, sds ...rfc5424.SDParam) { l.output(defaultDepth, ERROR, msg, sds...) }

func (l *Logger) Debugf(f string, args ...interface{}) {
	l.output(defaultDepth, DEBUG, fmt.Sprintf(f, args...))
}
func (l *Logger) Infof(f string, args ...interface{}) {
	l.output(defaultDepth, INFO, fmt.Sprintf(f, args...))
}
func (l *Logger) Warnf(f string, args ...interface{}) {
	l.output(defaultDepth, WARN, fmt.Sprintf(f, args...))
}
func (l *Logger) Errorf(f string, args ...interface{}) {
	l.output(defaultDepth, ERROR, fmt.Sprintf(f, args...))
}

// Fatal logs msg at ERROR level and exits the process with status 1.
func (l *Logger) Fatal(msg string, sds ...rfc5424.SDParam) {
	l.FatalCode(1, msg, sds...)
}

// Fatalf is Fatal with format-string arguments.
func (l *Logger) Fatalf(f string, args ...interface{}) {
	l.FatalfCode(1, f, args...)
}

// FatalCode is identical to Fatal, except it allows the caller to
// control the process exit code (e.g. cmd/secstraced's documented
// bind-failure/data-root/config-file exit code scheme).
func (l *Logger) FatalCode(code int, msg string, sds ...rfc5424.SDParam) {
	l.output(defaultDepth, ERROR, msg, sds...)
	os.Exit(code)
}

// FatalfCode is FatalCode with format-string arguments.
func (l *Logger) FatalfCode(code int, f string, args ...interface{}) {
	l.output(defaultDepth, ERROR, fmt.Sprintf(f, args...))
	os.Exit(code)
}

func (l *Logger) output(depth int, lvl Level, msg string, sds ...rfc5424.SDParam) {
	l.mtx.Lock()
	curLvl := l.lvl
	l.mtx.Unlock()
	if curLvl == OFF || lvl < curLvl {
		return
	}
	b, err := genRFCMessage(time.Now(), lvl.priority(), l.hostname, l.appname, callLoc(depth), msg, sds...)
	if err != nil {
		return
	}
	l.mtx.Lock()
	io.WriteString(l.wtr, string(b))
	io.WriteString(l.wtr, "\n")
	l.mtx.Unlock()
}

func genRFCMessage(ts time.Time, prio rfc5424.Priority, hostname, appname, msgid, msg string, sds ...rfc5424.SDParam) ([]byte, error) {
	m := rfc5424.Message{
		Priority:  prio,
		Timestamp: ts,
		Hostname:  trimLength(255, hostname),
		AppName:   trimLength(48, appname),
		MessageID: trimLength(32, msgid),
		Message:   []byte(msg),
	}
	if len(sds) > 0 {
		m.StructuredData = []rfc5424.StructuredData{{ID: defaultID, Parameters: sds}}
	}
	return m.MarshalBinary()
}

func callLoc(depth int) string {
	if _, file, line, ok := runtime.Caller(depth); ok {
		dir, f := filepath.Split(file)
		return fmt.Sprintf("%s:%d", filepath.Join(filepath.Base(dir), f), line)
	}
	return ""
}

func trimLength(n int, s string) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (l Level) String() string {
	switch l {
	case OFF:
		return "OFF"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	}
	return "UNKNOWN"
}

func (l Level) Valid() bool {
	switch l {
	case OFF, DEBUG, INFO, WARN, ERROR:
		return true
	}
	return false
}

func (l Level) priority() rfc5424.Priority {
	switch l {
	case OFF:
		return 0
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	}
	return rfc5424.User | rfc5424.Debug
}

func LevelFromString(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "OFF":
		return OFF, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return 0, ErrInvalidLevel
	}
}
