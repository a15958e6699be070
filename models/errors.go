package models

import (
	"errors"
	"fmt"
)

// Error codes shared by the stat store, the execution log and the API
// failure envelope.
const (
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeTransport    = "TRANSPORT_ERROR"
	ErrCodeNoData       = "NO_DATA_FOUND"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the code/message pair inside the API failure envelope.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError carries an error code through the scrape path, so a failure
// stored hours ago still says which class of thing went wrong.
type ScrapeError struct {
	Code    string
	Message string
	Err     error
}

// NewScrapeError wraps err under a code. err may be nil for failures that
// originate here rather than in a lower layer.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// ErrorCode extracts the code from any error chain. Errors that are not
// ScrapeErrors map to INTERNAL_ERROR so every failure still records a code.
func ErrorCode(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}
