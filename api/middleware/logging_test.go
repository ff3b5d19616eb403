package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
)

func TestLoggingLevelFollowsStatus(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusConflict, "warn"},
		{http.StatusBadGateway, "error"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		logg := logger.New(logger.Options{ServiceName: "api-test", Level: zerolog.DebugLevel, Output: &buf, Format: "json"})
		handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte("body"))
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

		var entry map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
			t.Fatalf("status %d: decode log line %q: %v", tc.status, buf.String(), err)
		}
		if entry["level"] != tc.level {
			t.Fatalf("status %d: expected level %s, got %v", tc.status, tc.level, entry["level"])
		}
		if entry["status"] != float64(tc.status) || entry["bytes"] != float64(4) {
			t.Fatalf("status %d: unexpected fields %v", tc.status, entry)
		}
		if entry["path"] != "/api/v1/orders" {
			t.Fatalf("expected path field, got %v", entry["path"])
		}
	}
}

func TestLoggingDefaultsSilentHandlersToOK(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "api-test", Output: &buf, Format: "json"})
	handler := Logging(logg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(buf.String(), `"status":200`) {
		t.Fatalf("expected implicit 200, got %s", buf.String())
	}
}
