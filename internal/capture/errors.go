package capture

import (
	"errors"
	"fmt"
)

// Section names a part of the captured request the extractor looks for.
type Section string

const (
	SectionURL     Section = "URL"
	SectionHeaders Section = "HEADERS"
	SectionBody    Section = "BODY"
)

var (
	// ErrMissingSection is returned when a section cannot be located in the capture.
	ErrMissingSection = errors.New("section not found in captured request")

	// ErrMalformedSection is returned when a section is present but cannot be parsed.
	ErrMalformedSection = errors.New("malformed section in captured request")
)

// ExtractionError reports which section of the capture could not be extracted.
type ExtractionError struct {
	Section Section
	Err     error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("capture: could not extract %s: %v", e.Section, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func missing(section Section) error {
	return &ExtractionError{Section: section, Err: ErrMissingSection}
}

func malformed(section Section, cause error) error {
	return &ExtractionError{Section: section, Err: fmt.Errorf("%w: %v", ErrMalformedSection, cause)}
}
