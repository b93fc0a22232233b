package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TextFormatter writes one line per entry:
//
//	2024-05-01 12:00:00.000 [INFO] [3f2a9c1e] provider/prepare: message | k=v
type TextFormatter struct {
	TimestampFormat  string
	DisableColors    bool
	DisableTimestamp bool
}

// NewTextFormatter returns a colored text formatter with millisecond timestamps.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{TimestampFormat: "2006-01-02 15:04:05.000"}
}

// Format implements Formatter
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var buf bytes.Buffer

	if !f.DisableTimestamp {
		buf.WriteString(entry.Timestamp.Format(f.TimestampFormat))
		buf.WriteByte(' ')
	}

	level := "[" + entry.Level.String() + "]"
	if !f.DisableColors {
		level = levelColor[entry.Level] + level + colorReset
	}
	buf.WriteString(level)
	buf.WriteByte(' ')

	if id := shortConnectionID(entry.ConnectionID); id != "" {
		fmt.Fprintf(&buf, "[%s] ", id)
	}

	header := headerKeys(entry)
	if entry.Component != "" {
		buf.WriteString(entry.Component)
		if entry.Operation != "" {
			buf.WriteByte('/')
			buf.WriteString(entry.Operation)
		}
		buf.WriteString(": ")
	}
	buf.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		if !header[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		buf.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&buf, " %s=%s", k, textValue(entry.Fields[k]))
		}
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

const colorReset = "\033[0m"

var levelColor = map[Level]string{
	DebugLevel: "\033[90m",
	InfoLevel:  "\033[34m",
	WarnLevel:  "\033[33m",
	ErrorLevel: "\033[31m",
}

// shortConnectionID keeps the first UUID group, enough to follow one socket.
func shortConnectionID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// headerKeys lists the fields already printed before the message.
func headerKeys(entry *Entry) map[string]bool {
	keys := map[string]bool{ConnectionIDKey: true}
	if entry.Component != "" {
		keys["component"] = true
		if entry.Operation != "" {
			keys["operation"] = true
		}
	}
	return keys
}

func textValue(v interface{}) string {
	s := fmt.Sprint(fieldValue(v))
	if strings.ContainsAny(s, " \t\n") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// fieldValue renders errors as their message.
func fieldValue(v interface{}) interface{} {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}

// JSONFormatter writes one JSON object per line with level, message,
// timestamp and every field at the top level.
type JSONFormatter struct{}

// NewJSONFormatter returns a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format implements Formatter
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		data[k] = fieldValue(v)
	}
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	data["timestamp"] = entry.Timestamp.Format(time.RFC3339Nano)

	out, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return append(out, '\n'), nil
}
