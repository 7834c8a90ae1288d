package client

import (
	"errors"
	"fmt"
	"net"
)

// ErrNotConfigured is returned by every operation of a Client built without a Config.
var ErrNotConfigured = errors.New("redcap client is not configured")

// ConfigurationError reports a client that cannot build or address a request.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("redcap configuration error: %s: %v", e.Message, e.Cause)
	}
	return "redcap configuration error: " + e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// TransportError reports a failed POST: the connection failed, timed out,
// or the server answered with a non-2xx status.
type TransportError struct {
	Host       string
	StatusCode int    // 0 when no response was received
	Message    string // REDCap's error message or the raw body
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("redcap API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("redcap request to %s failed: %v", e.Host, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the failure was a network timeout.
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Cause, &netErr) && netErr.Timeout()
}

// ResponseParseError reports a JSON response body that could not be decoded.
type ResponseParseError struct {
	Content string // content discriminator of the request
	Body    string // leading bytes of the body
	Cause   error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Content, e.Cause)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Cause
}

// errorResponse is REDCap's JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

const maxErrorBody = 512

func excerpt(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
