package domain

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors. Request-time failures wrap one of these so callers can
// branch with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnknownOrganism     = errors.New("unknown organism")
	ErrUnknownAntibiotic   = errors.New("unknown antibiotic")
	ErrUnrecognizedCode    = errors.New("unrecognized code")
	ErrInvalidRawResult    = errors.New("invalid raw result")
	ErrMalformedCatalogRow = errors.New("malformed catalog row")
)

// Error codes reported in structured outcomes.
const (
	ErrCodeUnknownOrganism   = "UNKNOWN_ORGANISM"
	ErrCodeUnknownAntibiotic = "UNKNOWN_ANTIBIOTIC"
	ErrCodeUnrecognizedCode  = "UNRECOGNIZED_CODE"
	ErrCodeInvalidRawResult  = "INVALID_RAW_RESULT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeCancelled         = "CANCELLED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// InterpretationError is the structured form of a failed request.
type InterpretationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *InterpretationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInterpretationError converts any request-time error into its structured
// form.
func NewInterpretationError(err error) *InterpretationError {
	var ie *InterpretationError
	if errors.As(err, &ie) {
		return ie
	}
	return &InterpretationError{
		Code:    ErrorCode(err),
		Message: err.Error(),
	}
}

// ErrorCode maps an error onto its reporting code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownOrganism):
		return ErrCodeUnknownOrganism
	case errors.Is(err, ErrUnknownAntibiotic):
		return ErrCodeUnknownAntibiotic
	case errors.Is(err, ErrUnrecognizedCode):
		return ErrCodeUnrecognizedCode
	case errors.Is(err, ErrInvalidRawResult):
		return ErrCodeInvalidRawResult
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCancelled
	default:
		return ErrCodeInternal
	}
}

// CatalogRowError describes why a catalog source could not be loaded.
type CatalogRowError struct {
	Source string
	Line   int
	Column string
	Reason string
}

// Error implements the error interface
func (e *CatalogRowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s line %d, column %s: %s", e.Source, e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("%s line %d: %s", e.Source, e.Line, e.Reason)
}

func (e *CatalogRowError) Unwrap() error {
	return ErrMalformedCatalogRow
}

// CodeError reports a compound antibiotic code that does not decode.
type CodeError struct {
	Code    string
	Segment string
	Reason  string
}

// Error implements the error interface
func (e *CodeError) Error() string {
	return fmt.Sprintf("unrecognized %s code %q: %s", e.Segment, e.Code, e.Reason)
}

func (e *CodeError) Unwrap() error {
	return ErrUnrecognizedCode
}
