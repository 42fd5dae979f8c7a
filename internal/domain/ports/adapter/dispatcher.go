package adapter

import (
	"context"
	"net/http"
)

// RawResponse is a successful (2xx) upstream reply, body untouched.
type RawResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Dispatcher is the single-attempt send primitive. It POSTs body as JSON to endpoint and
// returns the raw reply, or one of *domain.NetworkError, *domain.TimeoutError, *domain.HTTPError.
// It never retries and never interprets the payload.
type Dispatcher interface {
	Send(ctx context.Context, endpoint string, body any) (*RawResponse, error)
}
