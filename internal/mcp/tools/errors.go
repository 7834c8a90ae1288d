package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/usestring/redcap-mcp/pkg/client"
)

// Error codes for MCP tool responses.
const (
	ErrCodeConfig       = "CONFIG_ERROR"
	ErrCodeREDCap       = "REDCAP_ERROR"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeParse        = "PARSE_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapREDCapError converts a client error into a coded error. Coded errors
// pass through unchanged.
func WrapREDCapError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return err
	}

	var (
		cfgErr   *client.ConfigurationError
		tErr     *client.TransportError
		parseErr *client.ResponseParseError
	)
	switch {
	case errors.As(err, &cfgErr):
		coded = &CodedError{Code: ErrCodeConfig, Message: cfgErr.Message, Cause: err}
	case errors.As(err, &tErr) && tErr.Timeout(), errors.Is(err, context.DeadlineExceeded):
		coded = &CodedError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
	case errors.As(err, &tErr) && tErr.StatusCode == http.StatusNotFound:
		coded = &CodedError{Code: ErrCodeNotFound, Message: tErr.Message, Cause: err}
	case errors.As(err, &tErr):
		coded = &CodedError{Code: ErrCodeREDCap, Message: tErr.Message, Cause: err}
	case errors.As(err, &parseErr):
		coded = &CodedError{Code: ErrCodeParse, Message: fmt.Sprintf("unexpected %s response", parseErr.Content), Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeREDCap, Message: err.Error(), Cause: err}
	}

	slog.Warn("REDCap API error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)
	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
