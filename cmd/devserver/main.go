// File: cmd/devserver/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-study-buddy/internal/config"
	"smart-study-buddy/internal/domain/ports/adapter"
	aiAdapters "smart-study-buddy/internal/infra/adapters/ai"
	"smart-study-buddy/internal/infra/devserver"
	"smart-study-buddy/internal/infra/logging"
	"smart-study-buddy/internal/infra/metrics"
	"smart-study-buddy/internal/infra/search"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, closer, err := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo("devserver", version, commit)

	dc := cfg.DevServer

	// ---- Answer providers (preferred first, echo last) ----
	openaiModel, geminiModel := "gpt-4o-mini", "gemini-2.0-flash"
	switch dc.Provider {
	case "openai":
		openaiModel = dc.Model
	case "gemini":
		geminiModel = dc.Model
	}
	var providers []adapter.AnswerProvider
	if dc.OpenAIKey != "" {
		p, err := aiAdapters.NewOpenAIAdapter(dc.OpenAIKey, dc.OpenAIBaseURL, openaiModel, dc.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		providers = append(providers, p)
	}
	if dc.GeminiKey != "" {
		p, err := aiAdapters.NewGeminiAdapter(ctx, dc.GeminiKey, dc.GeminiURL, geminiModel, dc.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		providers = append(providers, p)
	}
	providers = append(providers, aiAdapters.NewEchoAdapter(0))
	provider := aiAdapters.NewLimitedAI(aiAdapters.NewMultiAIAdapter(dc.Provider, providers, logger), dc.ConcurrentLimit)

	// ---- Retrieval ----
	web := search.NewTavily(dc.TavilyKey, "", dc.SearchTimeout, logger)
	defer web.Close()
	news := search.NewNews(dc.NewsKey, "", dc.SearchTimeout, logger)
	defer news.Close()

	srv := devserver.NewServer(devserver.Options{
		Config:   dc,
		Provider: provider,
		Web:      web,
		News:     news,
		Tokens:   devserver.NewTiktokenCounter(openaiModel),
		Timeout:  2 * time.Minute,
	}, logger)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", dc.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().
			Str("addr", httpSrv.Addr).
			Str("provider", dc.Provider).
			Bool("web", web.Enabled()).
			Bool("news", news.Enabled()).
			Strs("origins", dc.AllowedOrigins).
			Msg("dev server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("dev server stopped")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}
