package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestFailed is returned when the request never produced a response.
	ErrRequestFailed = errors.New("portal request failed")

	// ErrMalformedResponse is returned when a lookup response lacks DATA.ID.
	ErrMalformedResponse = errors.New("malformed portal response")
)

// StatusError is returned for non-2xx portal responses.
type StatusError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	body := string(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("portal responded with status %d: %s", e.StatusCode, body)
}

// PortalError wraps errors with the portal operation that failed.
type PortalError struct {
	// Op is the operation that failed (e.g., "ResolveCompany", "SubmitInvoice").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *PortalError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("portal: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("portal: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PortalError) Unwrap() error {
	return e.Err
}

// NewPortalError creates a new PortalError with the specified operation and underlying error.
func NewPortalError(op string, err error, details string) *PortalError {
	return &PortalError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// IsStatusError checks if an error carries a non-2xx portal response
func IsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
