// Package portal talks to the GDT e-filing web portal on behalf of a captured
// browser session: counterparty lookups and invoice submission.
//
// Every call is a single attempt. Retrying is left to the caller because a
// replayed submission may create a duplicate invoice on the portal.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"taxfiler/internal/logger"
)

// Config holds configuration for the portal client
type Config struct {
	// BaseURL is the portal web root the lookup endpoints hang off.
	BaseURL string

	// Timeout bounds each individual HTTP call.
	Timeout time.Duration
}

// Client performs session-authenticated calls against the portal
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a new portal client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		log:        logger.WithComponent("portal"),
	}
}

// postJSON sends payload as JSON and returns the response body of a 2xx reply
func (c *Client) postJSON(ctx context.Context, op, url string, headers map[string]string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, NewPortalError(op, err, "failed to encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, NewPortalError(op, err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewPortalError(op, fmt.Errorf("%w: %w", ErrRequestFailed, err), url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewPortalError(op, fmt.Errorf("%w: %w", ErrRequestFailed, err), "failed to read response")
	}

	c.log.Debug().
		Str("op", op).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Portal call completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewPortalError(op, &StatusError{StatusCode: resp.StatusCode, Body: body}, url)
	}

	return body, nil
}
