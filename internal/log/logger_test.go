package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	logger.WithComponent(ComponentStore).Info("saved", FieldCount, 3)
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %q", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[FieldComponent] != ComponentStore {
		t.Errorf("component = %v, want %s", record[FieldComponent], ComponentStore)
	}
	if record[FieldCount] != float64(3) {
		t.Errorf("count = %v, want 3", record[FieldCount])
	}
	if logger.Component() != ComponentApp {
		t.Errorf("default component = %s, want %s", logger.Component(), ComponentApp)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithOperation(OpImport).
		WithError(errors.New("boom")).
		WithHTTPResponse(404, 12)

	if f[FieldOperation] != OpImport {
		t.Errorf("operation = %v", f[FieldOperation])
	}
	if f[FieldError] != "boom" {
		t.Errorf("error = %v", f[FieldError])
	}
	if f[FieldSuccess] != false {
		t.Errorf("success = %v, want false for 404", f[FieldSuccess])
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Errorf("ToSlice len = %d, want %d", got, 2*len(f))
	}

	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Error("nil error should not add a field")
	}
}

func TestMiddlewareBindsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})

	h := Middleware(logger, func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		}),
	)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("record missing request id: %s", buf.String())
	}
}
