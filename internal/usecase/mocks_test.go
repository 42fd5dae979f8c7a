// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/domain/ports/adapter"
	"smart-study-buddy/internal/infra/encoder"
)

// ---- Fakes ----

type sentRequest struct {
	Endpoint string
	Body     []byte
}

type adapterRaw = adapter.RawResponse

// fakeDispatcher answers every Send with reply and records what it was given.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []sentRequest
	reply func(endpoint string, body []byte) (*adapter.RawResponse, error)
	gate  chan struct{} // when set, Send blocks until it is closed
}

func (f *fakeDispatcher) Send(ctx context.Context, endpoint string, body any) (*adapter.RawResponse, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, sentRequest{Endpoint: endpoint, Body: b})
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &domain.TimeoutError{Endpoint: endpoint, Err: ctx.Err()}
		}
	}
	if f.reply == nil {
		return okJSON(`{"answer":"ok"}`), nil
	}
	return f.reply(endpoint, b)
}

func (f *fakeDispatcher) Calls() []sentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentRequest(nil), f.calls...)
}

func okJSON(s string) *adapter.RawResponse {
	return &adapter.RawResponse{Status: 200, Body: []byte(s)}
}

func replyJSON(s string) func(string, []byte) (*adapter.RawResponse, error) {
	return func(string, []byte) (*adapter.RawResponse, error) { return okJSON(s), nil }
}

func replyErr(err error) func(string, []byte) (*adapter.RawResponse, error) {
	return func(string, []byte) (*adapter.RawResponse, error) { return nil, err }
}

// memFile builds an upload candidate and counts how often it was opened.
type memFile struct {
	mu      sync.Mutex
	opened  int
	data    string
	openErr error
}

func (m *memFile) File(name, mime string) model.File {
	return model.File{
		Name:     name,
		MIMEType: mime,
		Open: func() (io.ReadCloser, error) {
			m.mu.Lock()
			m.opened++
			m.mu.Unlock()
			if m.openErr != nil {
				return nil, m.openErr
			}
			return io.NopCloser(strings.NewReader(m.data)), nil
		},
	}
}

func (m *memFile) Opened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

var errDisk = errors.New("disk unplugged")

var testEndpoints = Endpoints{
	Chat:  "https://api.test/prod",
	Solve: "https://api.test/prod/solve",
}

func fixedClock() func() time.Time {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func newTestSession(d adapter.Dispatcher, onSolve SolveCallback) *Session {
	return NewSession(d, encoder.New(), SessionOptions{
		ID:        "sess-test",
		Endpoints: testEndpoints,
		OnSolve:   onSolve,
		Now:       fixedClock(),
	}, nil)
}
