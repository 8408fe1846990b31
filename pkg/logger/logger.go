// Package logger is the leveled, structured logger shared by the commands
// and the engine. Lines are either human-readable or one JSON object each.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

var levelAliases = map[string]Level{"": InfoLevel, "warning": WarnLevel}

func (l Level) String() string {
	if l < TraceLevel || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a --log-level value to a Level. Matching ignores case.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if l, ok := levelAliases[name]; ok {
		return l, nil
	}
	for i, n := range levelNames {
		if strings.EqualFold(n, name) {
			return Level(i), nil
		}
	}
	return InfoLevel, fmt.Errorf("invalid log level %q: use trace, debug, info, warn or error", s)
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	// DryRun tags every line so previews are not mistaken for writes.
	DryRun bool
	// Output receives the log lines. Nil means stderr.
	Output io.Writer
}

// Logger writes entries at or above its level. It is safe for concurrent
// use; files are processed on several goroutines.
type Logger struct {
	config Config

	mu  sync.Mutex
	out io.Writer
}

var defaultLogger *Logger

// Initialize replaces the default logger.
func Initialize(config Config) error {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	defaultLogger = &Logger{config: config, out: out}
	return nil
}

// Enabled reports whether the default logger emits level.
func Enabled(level Level) bool {
	return defaultLogger != nil && level >= defaultLogger.config.Level
}

// LogEntry is one line of output. In JSON mode it is encoded as is.
type LogEntry struct {
	Time      time.Time              `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	DryRun    bool                   `json:"dry_run,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Log writes message when level is enabled. Debug and trace lines carry the
// caller's file and line.
func (l *Logger) Log(level Level, message string, fields ...Field) {
	l.emit(2, level, message, fields)
}

// emit writes one entry; depth is the number of frames between emit and the
// code that logged.
func (l *Logger) emit(depth int, level Level, message string, fields []Field) {
	if level < l.config.Level {
		return
	}

	entry := LogEntry{
		Time:      time.Now(),
		Level:     level.String(),
		Message:   message,
		Component: l.config.Component,
		DryRun:    l.config.DryRun,
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}
	if level <= DebugLevel {
		if _, file, line, ok := runtime.Caller(depth); ok {
			entry.File, entry.Line = filepath.Base(file), line
		}
	}

	var text string
	if l.config.JSON {
		data, err := json.Marshal(entry)
		if err != nil {
			data = []byte(fmt.Sprintf(`{"level":%q,"message":%q}`, entry.Level, entry.Message))
		}
		text = string(data)
	} else {
		text = l.formatPretty(entry)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, text+"\n")
}

const colorReset = "\033[0m"

var levelColors = map[string]string{
	"TRACE": "\033[37m",
	"DEBUG": "\033[36m",
	"INFO":  "\033[32m",
	"WARN":  "\033[33m",
	"ERROR": "\033[31m",
}

func (l *Logger) paint(color, s string) string {
	if !l.config.UseColor || color == "" {
		return s
	}
	return color + s + colorReset
}

// formatPretty renders entry on one line:
// time [LEVEL] component: [DRY-RUN] message {k=v, ...} (file:line)
func (l *Logger) formatPretty(entry LogEntry) string {
	parts := []string{
		entry.Time.Format("2006-01-02 15:04:05"),
		"[" + l.paint(levelColors[entry.Level], entry.Level) + "]",
	}
	if entry.Component != "" {
		parts = append(parts, entry.Component+":")
	}
	if l.config.DryRun {
		parts = append(parts, l.paint("\033[35m", "[DRY-RUN]"))
	}
	parts = append(parts, entry.Message)
	if len(entry.Fields) > 0 {
		parts = append(parts, "{"+joinFields(entry.Fields)+"}")
	}
	if entry.File != "" {
		parts = append(parts, fmt.Sprintf("(%s:%d)", entry.File, entry.Line))
	}
	return strings.Join(parts, " ")
}

// joinFields renders fields as k=v pairs in key order.
func joinFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, fields[k])
	}
	return strings.Join(pairs, ", ")
}

// Field is one key/value pair attached to an entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Strings renders values space-separated in brackets, like a search path.
func Strings(key string, values []string) Field {
	return Field{Key: key, Value: "[" + strings.Join(values, " ") + "]"}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err stores err under the "error" key.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

func logDefault(level Level, message string, fields []Field) {
	if defaultLogger != nil {
		defaultLogger.emit(3, level, message, fields)
	}
}

// Trace, Debug, Info, Warn and Error log through the default logger. Before
// Initialize only Info prints, as a bare line on stderr.

func Trace(message string, fields ...Field) { logDefault(TraceLevel, message, fields) }

func Debug(message string, fields ...Field) { logDefault(DebugLevel, message, fields) }

func Info(message string, fields ...Field) {
	if defaultLogger == nil {
		fmt.Fprintf(os.Stderr, "[INFO] gousemin: %s\n", message)
		return
	}
	logDefault(InfoLevel, message, fields)
}

func Warn(message string, fields ...Field) { logDefault(WarnLevel, message, fields) }

func Error(message string, fields ...Field) { logDefault(ErrorLevel, message, fields) }

// SetOutput redirects the default logger.
func SetOutput(w io.Writer) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defaultLogger.out = w
	defaultLogger.mu.Unlock()
}
