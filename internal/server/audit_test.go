package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditMiddleware_LogsPosts(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenBody string
	h := AuditMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/purchase", strings.NewReader(`{"quantity":"1"}`)))

	assert.Equal(t, `{"quantity":"1"}`, seenBody, "handler still sees the full body")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request audit", entry["msg"])
	assert.Equal(t, "http_audit", entry["component"])
	assert.Equal(t, "/api/purchase", entry["path"])
	assert.Equal(t, `{"quantity":"1"}`, entry["body_summary"])
	assert.Equal(t, float64(http.StatusAccepted), entry["response_status"])
	assert.Equal(t, rec.Header().Get("X-Request-Id"), entry["request_id"])
}

func TestAuditMiddleware_TruncatesLongBodies(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	long := strings.Repeat("a", maxAuditBodyBytes+100)
	var seen int
	h := AuditMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = len(b)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/purchase", strings.NewReader(long)))

	assert.Equal(t, len(long), seen)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.True(t, strings.HasSuffix(entry["body_summary"].(string), "...(truncated)"))
}

func TestAuditMiddleware_SkipsReads(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := AuditMiddleware(logger, okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/widget", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, buf.String())
	assert.Empty(t, rec.Header().Get("X-Request-Id"))
}
