// Package logger prints coloured, categorised lines to the terminal and
// mirrors every entry as a JSON line into a daily file under the log dir.
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

	"github.com/fatih/color"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (lv Level) String() string {
	if lv < DEBUG || lv > FATAL {
		return "INFO"
	}
	return levelNames[lv]
}

type style struct {
	level    *color.Color
	category *color.Color
}

var styles = map[Level]style{
	DEBUG: {color.New(color.FgCyan), color.New(color.FgCyan, color.Bold)},
	INFO:  {color.New(color.FgGreen), color.New(color.FgGreen, color.Bold)},
	WARN:  {color.New(color.FgYellow), color.New(color.FgYellow, color.Bold)},
	ERROR: {color.New(color.FgRed), color.New(color.FgRed, color.Bold)},
	FATAL: {color.New(color.FgRed, color.Bold), color.New(color.FgRed, color.Bold)},
}

var (
	timeColor   = color.New(color.FgBlue)
	fieldsColor = color.New(color.FgHiBlack)
	callerColor = color.New(color.FgMagenta)
)

// Fields is structured context attached to an entry, e.g. an event id.
type Fields map[string]interface{}

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type Logger struct {
	mu           sync.Mutex
	out          io.Writer
	logFile      *os.File
	colorEnabled bool
}

// NewLogger writes coloured lines to stdout and JSON lines to
// <dir>/charity-api-YYYY-MM-DD.log.
func NewLogger(dir string, colorEnabled bool) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("charity-api-%s.log", time.Now().Format("2006-01-02")))
	logFile, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &Logger{out: os.Stdout, logFile: logFile, colorEnabled: colorEnabled}
	l.Info("LOGGER", fmt.Sprintf("Logging to %s", name))
	return l, nil
}

// NewLoggerWithWriter returns a logger without a log file. Colour is off.
func NewLoggerWithWriter(w io.Writer) *Logger {
	return &Logger{out: w}
}

// write must be called directly by an exported method so the caller frame
// points at the code that logged.
func (l *Logger) write(level Level, category, message string, fields Fields) {
	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     level.String(),
		Category:  strings.ToUpper(category),
		Message:   message,
		Fields:    fields,
		File:      file,
		Line:      line,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.out, l.terminalLine(level, entry))
	if l.logFile != nil {
		raw, _ := json.Marshal(entry)
		l.logFile.Write(append(raw, '\n'))
	}
}

func (l *Logger) terminalLine(level Level, entry LogEntry) string {
	clock := entry.Timestamp[11:19]
	levelStr := fmt.Sprintf("%-5s", entry.Level)
	categoryStr := fmt.Sprintf("[%-10s]", entry.Category)
	fieldStr := formatFields(entry.Fields)
	var callerStr string
	if entry.File != "" && entry.Line > 0 {
		callerStr = fmt.Sprintf(" (%s:%d)", entry.File, entry.Line)
	}

	if l.colorEnabled {
		s, ok := styles[level]
		if !ok {
			s = styles[INFO]
		}
		clock = timeColor.Sprint(clock)
		levelStr = s.level.Sprint(levelStr)
		categoryStr = s.category.Sprint(categoryStr)
		if fieldStr != "" {
			fieldStr = fieldsColor.Sprint(fieldStr)
		}
		if callerStr != "" {
			callerStr = callerColor.Sprint(callerStr)
		}
	}

	return fmt.Sprintf("%s %s %s %s%s%s\n", clock, levelStr, categoryStr, entry.Message, fieldStr, callerStr)
}

// formatFields renders fields as " k=v" pairs in key order.
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

func (l *Logger) Debug(category, message string) {
	l.write(DEBUG, category, message, nil)
}

func (l *Logger) Info(category, message string) {
	l.write(INFO, category, message, nil)
}

func (l *Logger) Warn(category, message string) {
	l.write(WARN, category, message, nil)
}

func (l *Logger) Error(category, message string) {
	l.write(ERROR, category, message, nil)
}

func (l *Logger) Fatal(category, message string) {
	l.write(FATAL, category, message, nil)
	os.Exit(1)
}

// LogAdmission records an admission decision for one event.
func (l *Logger) LogAdmission(eventID int64, message string) {
	l.write(INFO, "ADMISSION", message, Fields{"event_id": eventID})
}

// LogCatalog records an organiser change to an event.
func (l *Logger) LogCatalog(action string, eventID int64, message string) {
	l.write(INFO, "CATALOG", message, Fields{"action": action, "event_id": eventID})
}

// LogRequest writes one access line. Server errors log at ERROR and client
// errors at WARN.
func (l *Logger) LogRequest(method, path string, status int, elapsed time.Duration, requestID string) {
	level := INFO
	switch {
	case status >= 500:
		level = ERROR
	case status >= 400:
		level = WARN
	}
	fields := Fields{"status": status, "elapsed": elapsed.Round(time.Microsecond).String()}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	l.write(level, "API", method+" "+path, fields)
}

func (l *Logger) LogPublish(topic, msgType, key string) {
	l.write(DEBUG, "KAFKA", "published "+msgType, Fields{"topic": topic, "key": key})
}

func (l *Logger) LogSecurity(event, message string) {
	l.write(WARN, "SECURITY", message, Fields{"event": event})
}

func (l *Logger) Close() {
	if l.logFile == nil {
		return
	}
	l.Info("LOGGER", "Closing log file")
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logFile.Close()
	l.logFile = nil
}
