package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"taxfiler/internal/source"
	"taxfiler/pkg/models"
	"taxfiler/pkg/services"
)

// Error messages returned to the front-end
const (
	msgMissingFields = "Missing required fields"
	msgInvalidJSON   = "Invalid JSON format"
	msgNotUTF8       = "Request body must be valid UTF-8"
	msgTooLarge      = "Request body too large"
)

// Handlers contains the HTTP request handlers
type Handlers struct {
	submitter    services.BatchSubmitter
	batchTimeout time.Duration
	log          zerolog.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(submitter services.BatchSubmitter, batchTimeout time.Duration, log zerolog.Logger) *Handlers {
	return &Handlers{
		submitter:    submitter,
		batchTimeout: batchTimeout,
		log:          log,
	}
}

// ProcessRequest is the body of POST /api/process. JSONData holds the invoice
// batch either as a JSON array or as a string containing one.
type ProcessRequest struct {
	TextJSContent string          `json:"textJsContent"`
	JSONData      json.RawMessage `json:"jsonData"`
}

// ErrorResponse is the body of every non-2xx reply except the 504
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Process handles POST /api/process
func (h *Handlers) Process(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: msgTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON, Detail: err.Error()})
		return
	}

	if !utf8.Valid(body) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgNotUTF8})
		return
	}

	var req ProcessRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON, Detail: err.Error()})
		return
	}

	if req.TextJSContent == "" || isAbsent(req.JSONData) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgMissingFields})
		return
	}

	invoices, err := decodeBatch(req.JSONData)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON, Detail: err.Error()})
		return
	}

	h.log.Info().
		Int("invoices", len(invoices)).
		Int("capture_bytes", len(req.TextJSContent)).
		Msg("Processing batch request")

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.batchTimeout)
	defer cancel()

	report, err := h.submitter.Submit(ctx, req.TextJSContent, invoices)
	if report != nil {
		c.Header("X-Batch-ID", report.BatchID)
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, report)
	case errors.Is(err, context.DeadlineExceeded) && report != nil:
		h.log.Warn().
			Str("batch_id", report.BatchID).
			Int("processed", report.Processed()).
			Int("total", report.Total).
			Msg("Batch deadline exceeded, returning partial report")
		c.JSON(http.StatusGatewayTimeout, report)
	default:
		h.log.Error().Err(err).Msg("Batch processing failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// isAbsent treats a missing, null or empty-string jsonData as not provided
func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}

func decodeBatch(raw json.RawMessage) ([]models.Invoice, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, err
		}
		return source.DecodeJSON(bytes.NewReader([]byte(text)))
	}
	return source.DecodeJSON(bytes.NewReader(trimmed))
}
