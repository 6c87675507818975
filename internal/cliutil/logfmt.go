package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/Paintersrp/subproc/internal/supervisor"
)

// LogRecord represents a structured log event ready for JSON encoding.
type LogRecord struct {
	Timestamp time.Time `json:"ts"`
	Entry     string    `json:"entry"`
	Pid       int       `json:"pid,omitempty"`
	Type      string    `json:"type"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
	Source    string    `json:"source"`
}

// NewLogRecord converts a supervisor event into a structured log record with
// secrets masked.
func NewLogRecord(event supervisor.Event) LogRecord {
	level := event.Level
	if level == "" {
		if inferred := inferLogLevel(event.Message); inferred != "" {
			level = inferred
		} else {
			level = "info"
		}
	}
	source := event.Source
	if source == "" {
		source = supervisor.LogSourceSystem
	}
	message := event.Message
	if event.Err != nil {
		if message == "" {
			message = event.Err.Error()
		} else {
			message = message + ": " + event.Err.Error()
		}
	}
	return LogRecord{
		Timestamp: event.Timestamp,
		Entry:     event.Entry,
		Pid:       event.Pid,
		Type:      string(event.Type),
		Level:     level,
		Message:   RedactSecrets(message),
		Source:    source,
	}
}

var levelTokenPattern = regexp.MustCompile(`(?i)\b(error|warn|info)\b`)

func inferLogLevel(message string) string {
	matches := levelTokenPattern.FindStringSubmatch(message)
	if len(matches) < 2 {
		return ""
	}
	switch strings.ToLower(matches[1]) {
	case "error":
		return "error"
	case "warn":
		return "warn"
	case "info":
		return "info"
	default:
		return ""
	}
}

// EncodeLogEvent encodes a supervisor event to JSON, reporting errors to
// stderr if needed.
func EncodeLogEvent(enc *json.Encoder, stderr io.Writer, event supervisor.Event) {
	if enc == nil {
		return
	}
	record := NewLogRecord(event)
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode log: %v\n", err)
	}
}

// FormatEvent renders a supervisor event as a single human-readable line.
func FormatEvent(event supervisor.Event) string {
	rec := NewLogRecord(event)
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s [%s]", ts.Format("15:04:05.000"), strings.ToUpper(rec.Level), rec.Entry)
	if rec.Pid != 0 {
		fmt.Fprintf(&b, " pid=%d", rec.Pid)
	}
	if event.Type != supervisor.EventTypeLog {
		fmt.Fprintf(&b, " %s", rec.Type)
	}
	if rec.Message != "" {
		fmt.Fprintf(&b, " %s", rec.Message)
	}
	return b.String()
}
