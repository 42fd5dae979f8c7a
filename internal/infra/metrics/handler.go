package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Mount exposes /metrics on an existing router.
func Mount(r chi.Router) {
	r.Handle("/metrics", promhttp.Handler())
}

// Serve runs a standalone metrics listener until ctx is cancelled. An empty addr is a no-op.
func Serve(ctx context.Context, addr string, log *zerolog.Logger) {
	if addr == "" {
		return
	}
	r := chi.NewRouter()
	Mount(r)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		log.Info().Str("addr", addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}
