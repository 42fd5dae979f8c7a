package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// Input validation
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrRead              = errors.New("read error")
	ErrSubmissionPending = errors.New("a request is already in flight")
	ErrUploadPending     = errors.New("an upload is already in flight")
	ErrNotFound          = errors.New("entity not found")

	// Transport / upstream
	ErrNetwork            = errors.New("network error")
	ErrTimeout            = errors.New("request timed out")
	ErrUnparsableResponse = errors.New("unparsable response")
	ErrUpstream           = errors.New("upstream error")
)

// NetworkError is a transport failure before any HTTP status was received.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// TimeoutError is a transport failure caused by a deadline.
type TimeoutError struct {
	Endpoint string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout calling %s: %v", e.Endpoint, e.Err)
}

func (e *TimeoutError) Unwrap() []error { return []error{ErrTimeout, e.Err} }

// HTTPError is a non-2xx response. Body holds the decoded JSON when the payload
// parsed, otherwise the raw text.
type HTTPError struct {
	Status int
	Body   any
	Raw    string
}

func NewHTTPError(status int, raw []byte) *HTTPError {
	e := &HTTPError{Status: status, Raw: string(raw)}
	var v any
	if len(raw) > 0 && json.Unmarshal(raw, &v) == nil {
		e.Body = v
	} else {
		e.Body = string(raw)
	}
	return e
}

// Detail extracts the most useful human-readable text from the body:
// an "error" or "message" field when present, else the raw body.
func (e *HTTPError) Detail() string {
	switch b := e.Body.(type) {
	case map[string]any:
		for _, k := range []string{"error", "message"} {
			if s, ok := b[k].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	case string:
		return strings.TrimSpace(b)
	}
	return strings.TrimSpace(e.Raw)
}

func (e *HTTPError) Error() string {
	if d := e.Detail(); d != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, d)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// UpstreamError carries an explicit "error" field returned with a success status.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

func (e *UpstreamError) Unwrap() error { return ErrUpstream }
