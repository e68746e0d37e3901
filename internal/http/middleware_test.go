package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequireUser(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without identity", func(t *testing.T) {
		t.Parallel()

		handler := RequireUser(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called without X-User-ID")
		}))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(UserIDHeader, "   ")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Message == "" {
			t.Fatalf("expected JSON error body, got %q", rec.Body.String())
		}
	})

	t.Run("attaches identity to the request context", func(t *testing.T) {
		t.Parallel()

		var captured string
		handler := RequireUser(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(UserIDHeader, " 29:1a2b3c ")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if captured != "29:1a2b3c" {
			t.Fatalf("expected trimmed identity, got %q", captured)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var fromContext *slog.Logger
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromContext = LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/s1", nil))

	if fromContext == nil {
		t.Fatalf("expected request logger in context")
	}
	requestID := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(requestID); err != nil {
		t.Fatalf("expected UUID request id, got %q", requestID)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected start and completion entries, got %d: %s", len(lines), buf.String())
	}
	var completed map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &completed); err != nil {
		t.Fatalf("invalid log entry: %v", err)
	}
	if completed["request_id"] != requestID || completed["status"] != float64(http.StatusTeapot) || completed["path"] != "/sessions/s1" {
		t.Fatalf("unexpected completion entry %v", completed)
	}
}
