package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/collection-scheduler/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var sawContextLogger bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawContextLogger = logging.FromContext(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	})

	handler := RequestLogger(base)(next)

	req := httptest.NewRequest(http.MethodGet, "/calendar/day?date=2025-01-15", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !sawContextLogger {
		t.Error("expected logger to be attached to the request context")
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected start and completion log lines, got %d", len(lines))
	}

	var record map[string]any
	if err := json.Unmarshal(lines[0], &record); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if record["method"] != http.MethodGet {
		t.Errorf("expected method GET in log attributes, got %v", record["method"])
	}
	if record["path"] != "/calendar/day" {
		t.Errorf("expected path in log attributes, got %v", record["path"])
	}
	if _, ok := record["request_id"]; !ok {
		t.Error("expected request_id in log attributes")
	}
}

func TestRequestLoggerAssignsDistinctIDs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	ids := make(map[float64]struct{})
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("failed to parse log line: %v", err)
		}
		if id, ok := record["request_id"].(float64); ok {
			ids[id] = struct{}{}
		}
	}

	if len(ids) != 2 {
		t.Errorf("expected 2 distinct request ids, got %d", len(ids))
	}
}
