package dispatcher

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/domain/ports/adapter"
	"smart-study-buddy/internal/infra/metrics"
)

// Compile-time check
var _ adapter.Dispatcher = (*RestyDispatcher)(nil)

// RestyDispatcher POSTs JSON bodies over a shared resty client. One call, one attempt.
type RestyDispatcher struct {
	client *resty.Client
	labels map[string]string // endpoint URL -> metrics label
	log    *zerolog.Logger
}

type Options struct {
	Timeout time.Duration
	// Labels maps configured endpoint URLs to low-cardinality metric labels ("chat", "solve").
	Labels map[string]string
}

func NewRestyDispatcher(opts Options, log *zerolog.Logger) *RestyDispatcher {
	c := resty.New().
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	labels := make(map[string]string, len(opts.Labels))
	for k, v := range opts.Labels {
		labels[k] = v
	}
	return &RestyDispatcher{client: c, labels: labels, log: log}
}

func (d *RestyDispatcher) Close() error { return d.client.Close() }

func (d *RestyDispatcher) Send(ctx context.Context, endpoint string, body any) (*adapter.RawResponse, error) {
	label := d.label(endpoint)
	start := time.Now()

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	elapsed := time.Since(start)

	if err != nil {
		if isTimeout(err) {
			metrics.ObserveDispatch(label, "timeout", elapsed)
			d.log.Debug().Str("endpoint", label).Dur("elapsed", elapsed).Err(err).Msg("dispatch timeout")
			return nil, &domain.TimeoutError{Endpoint: endpoint, Err: err}
		}
		metrics.ObserveDispatch(label, "network_error", elapsed)
		d.log.Debug().Str("endpoint", label).Dur("elapsed", elapsed).Err(err).Msg("dispatch failed")
		return nil, &domain.NetworkError{Endpoint: endpoint, Err: err}
	}

	raw := resp.Bytes()
	if !resp.IsSuccess() {
		metrics.ObserveDispatch(label, "http_error", elapsed)
		d.log.Debug().Str("endpoint", label).Int("status", resp.StatusCode()).Dur("elapsed", elapsed).Msg("dispatch http error")
		return nil, domain.NewHTTPError(resp.StatusCode(), raw)
	}

	metrics.ObserveDispatch(label, "ok", elapsed)
	d.log.Debug().Str("endpoint", label).Int("status", resp.StatusCode()).Int("bytes", len(raw)).Dur("elapsed", elapsed).Msg("dispatch ok")
	return &adapter.RawResponse{
		Status: resp.StatusCode(),
		Header: resp.Header(),
		Body:   raw,
	}, nil
}

func (d *RestyDispatcher) label(endpoint string) string {
	if l, ok := d.labels[endpoint]; ok {
		return l
	}
	return "other"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
