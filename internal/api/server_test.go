package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taxfiler/internal/config"
	"taxfiler/pkg/models"
)

type fakeSubmitter struct {
	report   *models.BatchReport
	err      error
	calls    int
	captured string
	invoices []models.Invoice
	deadline bool
}

func (f *fakeSubmitter) Submit(ctx context.Context, captured string, invoices []models.Invoice) (*models.BatchReport, error) {
	f.calls++
	f.captured = captured
	f.invoices = invoices
	_, f.deadline = ctx.Deadline()
	return f.report, f.err
}

func newTestServer(t *testing.T, sub *fakeSubmitter) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.AllowedOrigin = "https://app.example.com"
	cfg.MaxBodyBytes = 4096
	return NewServer(cfg, sub)
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func okReport() *models.BatchReport {
	return &models.BatchReport{
		BatchID:   "batch-1",
		Successes: []models.InvoiceOutcome{{InvoiceNo: "A-1", Message: "{}"}},
		Failures:  []models.InvoiceOutcome{},
		Total:     1,
	}
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, &fakeSubmitter{})

	w := doRequest(s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	sub := &fakeSubmitter{}
	s := newTestServer(t, sub)

	w := doRequest(s, http.MethodOptions, "/api/process", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Zero(t, sub.calls)
}

func TestProcessAcceptsArrayAndString(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "array", body: `{"textJsContent":"fetch(\"x\")","jsonData":[{"INV_NO":"A-1","TOTAL_AMT":10}]}`},
		{name: "string", body: `{"textJsContent":"fetch(\"x\")","jsonData":"[{\"INV_NO\":\"A-1\",\"TOTAL_AMT\":10}]"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &fakeSubmitter{report: okReport()}
			s := newTestServer(t, sub)

			w := doRequest(s, http.MethodPost, "/api/process", []byte(tt.body))

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, "batch-1", w.Header().Get("X-Batch-ID"))
			assert.Equal(t, `fetch("x")`, sub.captured)
			require.Len(t, sub.invoices, 1)
			assert.Equal(t, "10", sub.invoices[0][models.FieldTotalAmount])
			assert.True(t, sub.deadline)

			var report models.BatchReport
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
			assert.Len(t, report.Successes, 1)
		})
	}
}

func TestProcessBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		wantErr string
	}{
		{name: "missing capture", body: []byte(`{"jsonData":[]}`), wantErr: msgMissingFields},
		{name: "missing data", body: []byte(`{"textJsContent":"x"}`), wantErr: msgMissingFields},
		{name: "null data", body: []byte(`{"textJsContent":"x","jsonData":null}`), wantErr: msgMissingFields},
		{name: "empty string data", body: []byte(`{"textJsContent":"x","jsonData":""}`), wantErr: msgMissingFields},
		{name: "broken body", body: []byte(`{"textJsContent":`), wantErr: msgInvalidJSON},
		{name: "broken data string", body: []byte(`{"textJsContent":"x","jsonData":"[{"}`), wantErr: msgInvalidJSON},
		{name: "data not an array", body: []byte(`{"textJsContent":"x","jsonData":{"INV_NO":"A"}}`), wantErr: msgInvalidJSON},
		{name: "not utf-8", body: []byte("{\"textJsContent\":\"\xff\xfe\",\"jsonData\":[]}"), wantErr: msgNotUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &fakeSubmitter{report: okReport()}
			s := newTestServer(t, sub)

			w := doRequest(s, http.MethodPost, "/api/process", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Error)
			assert.Zero(t, sub.calls)
		})
	}
}

func TestProcessBodyTooLarge(t *testing.T) {
	sub := &fakeSubmitter{report: okReport()}
	s := newTestServer(t, sub)
	body := `{"textJsContent":"` + strings.Repeat("a", 5000) + `","jsonData":[]}`

	w := doRequest(s, http.MethodPost, "/api/process", []byte(body))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, sub.calls)
}

func TestProcessDeadlineReturnsPartialReport(t *testing.T) {
	partial := okReport()
	partial.Total = 3
	partial.Partial = true
	sub := &fakeSubmitter{report: partial, err: context.DeadlineExceeded}
	s := newTestServer(t, sub)

	w := doRequest(s, http.MethodPost, "/api/process", []byte(`{"textJsContent":"x","jsonData":[]}`))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	var report models.BatchReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.Partial)
	assert.Equal(t, 3, report.Total)
}

func TestProcessFatalError(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("capture: URL section not found")}
	s := newTestServer(t, sub)

	w := doRequest(s, http.MethodPost, "/api/process", []byte(`{"textJsContent":"x","jsonData":[]}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "capture: URL section not found", resp.Error)
	assert.Empty(t, w.Header().Get("X-Batch-ID"))
}

func TestStopWithoutStart(t *testing.T) {
	s := newTestServer(t, &fakeSubmitter{})
	assert.NoError(t, s.Stop())
}
