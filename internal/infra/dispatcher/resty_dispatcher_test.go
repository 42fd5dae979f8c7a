//go:build !integration

package dispatcher_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/infra/dispatcher"
	"smart-study-buddy/internal/infra/logging"
)

func newDispatcher(timeout time.Duration) *dispatcher.RestyDispatcher {
	return dispatcher.NewRestyDispatcher(dispatcher.Options{Timeout: timeout}, logging.Nop())
}

func TestSend_PostsJSONOnce(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		b, _ := io.ReadAll(r.Body)
		var body map[string]string
		if err := json.Unmarshal(b, &body); err != nil || body["prompt"] != "what is 2+2?" {
			t.Errorf("unexpected body %s", b)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"4"}`))
	}))
	defer srv.Close()

	d := newDispatcher(time.Second)
	defer d.Close()
	resp, err := d.Send(context.Background(), srv.URL, map[string]string{"prompt": "what is 2+2?"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.Status != http.StatusOK || string(resp.Body) != `{"answer":"4"}` {
		t.Fatalf("unexpected response %d %s", resp.Status, resp.Body)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected exactly one call, got %d", hits.Load())
	}
}

func TestSend_HTTPErrorNoRetry(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	d := newDispatcher(time.Second)
	defer d.Close()
	_, err := d.Send(context.Background(), srv.URL, map[string]string{"prompt": "x"})

	var he *domain.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if he.Status != 500 || he.Detail() != "boom" {
		t.Fatalf("unexpected error %+v", he)
	}
	if _, ok := he.Body.(map[string]any); !ok {
		t.Fatalf("expected parsed JSON body, got %T", he.Body)
	}
	if hits.Load() != 1 {
		t.Fatalf("dispatcher retried: %d calls", hits.Load())
	}
}

func TestSend_HTTPErrorRawBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := newDispatcher(time.Second)
	defer d.Close()
	_, err := d.Send(context.Background(), srv.URL, map[string]string{})

	var he *domain.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if he.Body != "gateway exploded\n" || he.Detail() != "gateway exploded" {
		t.Fatalf("expected raw text body, got %#v", he.Body)
	}
}

func TestSend_NetworkError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := newDispatcher(time.Second)
	defer d.Close()
	_, err := d.Send(context.Background(), url, map[string]string{})
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestSend_Timeout(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	d := newDispatcher(50 * time.Millisecond)
	defer d.Close()
	_, err := d.Send(context.Background(), srv.URL, map[string]string{})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
