package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelforge/labelforge/pkg/pipeline"
)

func testServer() *Server {
	logger := log.New(io.Discard)
	return NewServer(pipeline.NewRunner(nil, logger), logger)
}

func post(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error
}

func TestHealth(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSheetsReturnsPDF(t *testing.T) {
	w := post(t, testServer(), "/v1/sheets", `{
		"config": {"layout": {"label_width_mm": 60, "label_height_mm": 40,
			"labels_per_row": 0, "labels_per_column": 0}},
		"records": [
			{"id": "BOX-001"},
			{"id": "BOX-002", "qr_value": "https://example.com/2"}
		]
	}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")), "body is not a PDF document")
	assert.NotEmpty(t, w.Header().Get("X-Run-Id"))
	assert.Equal(t, "2", w.Header().Get("X-Generated"))
	assert.Equal(t, "1", w.Header().Get("X-Pages"))
}

func TestPlan(t *testing.T) {
	w := post(t, testServer(), "/v1/plan", `{
		"config": {"layout": {"label_width_mm": 60, "label_height_mm": 40,
			"labels_per_row": 0, "labels_per_column": 0}},
		"records": [
			`+strings.TrimSuffix(strings.Repeat(`{"id": "X"},`, 40), ",")+`
		]
	}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var plan pipeline.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, 3, plan.PerRow)
	assert.Equal(t, 6, plan.PerColumn)
	assert.Equal(t, 3, plan.Pages)
	assert.Equal(t, 40, plan.Records)
}

func TestSheetsRequestErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       `{"records": [`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_FORMAT",
		},
		{
			name:       "no records",
			body:       `{"records": []}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_FORMAT",
		},
		{
			name:       "blank ids only",
			body:       `{"records": [{"id": "  "}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_FORMAT",
		},
		{
			name:       "invalid scalar config",
			body:       `{"config": {"output": {"dpi": 5000}}, "records": [{"id": "A"}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_CONFIG",
		},
		{
			name:       "infeasible margins",
			body:       `{"config": {"output": {"margin_mm": 150}}, "records": [{"id": "A"}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INSUFFICIENT_SPACE",
		},
	}

	s := testServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, s, "/v1/sheets", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestSheetsViolationsListed(t *testing.T) {
	w := post(t, testServer(), "/v1/sheets",
		`{"config": {"output": {"dpi": 5000}, "text": {"font_size": 1}}, "records": [{"id": "A"}]}`)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	got := decodeError(t, w)
	assert.Len(t, got.Violations, 2, "both the DPI and font size violations should be listed")
}
