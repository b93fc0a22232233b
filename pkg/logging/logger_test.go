package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
)

// TestLogger tests the basic logger functionality
func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, &TextFormatter{DisableColors: true, DisableTimestamp: true})
	logger.SetLevel(DebugLevel)

	logger.Debug("Debug message", String("key", "value"))
	logger.Info("Info message", Int("count", 42))
	logger.Warn("Warning message", Bool("flag", true))
	logger.Error("Error message", ErrorField(errors.New("boom")))

	output := buf.String()
	for _, want := range []string{
		"[DEBUG] Debug message | key=value",
		"[INFO] Info message | count=42",
		"[WARN] Warning message | flag=true",
		"[ERROR] Error message | error=boom",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

// TestLogLevels tests log level filtering
func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewTextFormatter())
	logger.SetLevel(WarnLevel)

	logger.Debug("Debug message")
	logger.Info("Info message")
	logger.Warn("Warning message")
	logger.Error("Error message")

	output := buf.String()
	if strings.Contains(output, "Debug message") || strings.Contains(output, "Info message") {
		t.Error("debug and info should be filtered out")
	}
	if !strings.Contains(output, "Warning message") || !strings.Contains(output, "Error message") {
		t.Error("warn and error should be logged")
	}
	if logger.GetLevel() != WarnLevel {
		t.Errorf("GetLevel() = %v", logger.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   Level
		wantOK bool
	}{
		{"debug", DebugLevel, true},
		{"info", InfoLevel, true},
		{"warning", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"", InfoLevel, false},
		{"verbose", InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLevel(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestWithFields tests that derived loggers keep parent fields and do not leak back
func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	parent := New(&buf, &TextFormatter{DisableColors: true, DisableTimestamp: true})
	child := parent.WithFields(Int("server_number", 1), String("component", "listener"))

	child.Info("started")
	parent.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "listener: started") || !strings.Contains(lines[0], "server_number=1") {
		t.Errorf("child line missing fields: %s", lines[0])
	}
	if strings.Contains(lines[1], "server_number") {
		t.Errorf("parent must not inherit child fields: %s", lines[1])
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, &TextFormatter{DisableColors: true, DisableTimestamp: true})

	ctx := ContextWithConnectionID(context.Background(), "3f2a9c1e-0000-4000-8000-000000000000")
	logger.WithContext(ctx).Info("prepared")

	if !strings.Contains(buf.String(), "[3f2a9c1e] prepared") {
		t.Errorf("expected shortened connection id, got %q", buf.String())
	}
	if ConnectionIDFromContext(context.Background()) != "" {
		t.Error("empty context should have no connection id")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewJSONFormatter())

	err := perrors.ConnectionSetupFailed("server", "prepare", "127.0.0.1:1", errors.New("refused")).
		WithContext(&perrors.Context{ConnectionID: "c-9", Operation: "prepare"})
	logger.WithError(err).Error("setup failed")

	var data map[string]interface{}
	if jerr := json.Unmarshal(buf.Bytes(), &data); jerr != nil {
		t.Fatalf("Failed to parse JSON output: %v", jerr)
	}
	if data["error_category"] != string(perrors.CategoryConnection) {
		t.Errorf("error_category = %v", data["error_category"])
	}
	if data[ConnectionIDKey] != "c-9" {
		t.Errorf("connection_id = %v", data[ConnectionIDKey])
	}
	if data["error_code"] != float64(perrors.CodeConnectionSetupFailed) {
		t.Errorf("error_code = %v", data["error_code"])
	}
}

func TestJSONFormatter(t *testing.T) {
	formatter := NewJSONFormatter()
	entry := &Entry{
		Level:   InfoLevel,
		Message: "listener started",
		Fields: map[string]interface{}{
			"endpoint": "0.0.0.0:9000",
			"error":    errors.New("x"),
		},
	}

	out, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(out, &data); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}
	if data["level"] != "INFO" || data["message"] != "listener started" {
		t.Errorf("unexpected core fields: %v", data)
	}
	if data["error"] != "x" {
		t.Errorf("errors should render as strings, got %v", data["error"])
	}
}

func TestAddrField(t *testing.T) {
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000}
	if f := Addr("endpoint", addr); f.Value != "127.0.0.1:9000" {
		t.Errorf("Addr = %v", f.Value)
	}
	if f := Addr("endpoint", nil); f.Value != "<nil>" {
		t.Errorf("nil Addr = %v", f.Value)
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Error("dropped")
	logger.WithFields(String("a", "b")).Info("dropped")
}

// TestConcurrentChildren writes from many derived loggers; each line must stay whole.
func TestConcurrentChildren(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, &TextFormatter{DisableColors: true, DisableTimestamp: true})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.WithFields(Int("n", n)).Info("line")
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "[INFO] line | n=") {
			t.Errorf("corrupted line: %q", line)
		}
	}
}

func TestNewConnectionID(t *testing.T) {
	a, b := NewConnectionID(), NewConnectionID()
	if a == b || len(a) != 36 {
		t.Errorf("unexpected ids %q %q", a, b)
	}
}

func TestTextFormatterHeader(t *testing.T) {
	f := &TextFormatter{DisableColors: true, DisableTimestamp: true}
	out, err := f.Format(&Entry{
		Level:        WarnLevel,
		Message:      "prepare failed",
		ConnectionID: "3f2a9c1e-0000-4000-8000-000000000000",
		Component:    "initializer",
		Operation:    "prepare",
		Fields: map[string]interface{}{
			ConnectionIDKey: "3f2a9c1e-0000-4000-8000-000000000000",
			"component":     "initializer",
			"operation":     "prepare",
			"remote":        "127.0.0.1:4000",
			"error":         errors.New("socket closed"),
		},
	})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	want := "[WARN] [3f2a9c1e] initializer/prepare: prepare failed | error=\"socket closed\" remote=127.0.0.1:4000\n"
	if string(out) != want {
		t.Errorf("Format =\n%q\nwant\n%q", out, want)
	}
}
