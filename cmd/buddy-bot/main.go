// File: cmd/buddy-bot/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"smart-study-buddy/internal/config"
	tele "smart-study-buddy/internal/infra/adapters/telegram"
	"smart-study-buddy/internal/infra/dispatcher"
	"smart-study-buddy/internal/infra/encoder"
	"smart-study-buddy/internal/infra/i18n"
	"smart-study-buddy/internal/infra/logging"
	"smart-study-buddy/internal/infra/metrics"
	red "smart-study-buddy/internal/infra/redis"
	"smart-study-buddy/internal/infra/render"
	"smart-study-buddy/internal/infra/sched"
	"smart-study-buddy/internal/infra/worker"
	"smart-study-buddy/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (console logs, prompts unredacted)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Bot.Token == "" {
		log.Fatalf("config: bot.token is required (or set TELEGRAM_BOT_TOKEN)")
	}
	logger, closer, err := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo("buddy-bot", version, commit)
	metrics.Serve(ctx, cfg.Metrics.Addr, logger)

	catalog, err := i18n.NewCatalog()
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Redis (optional) ----
	var limiter tele.Limiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient, cfg.Bot.RateLimit, cfg.Bot.RateWindow)
	} else {
		logger.Warn().Msg("redis.url not set; rate limiting disabled")
	}

	// ---- Sessions ----
	endpoints := usecase.Endpoints{Chat: cfg.Endpoints.ChatURL, Solve: cfg.Endpoints.SolveURL()}
	d := dispatcher.NewRestyDispatcher(dispatcher.Options{
		Timeout: cfg.HTTP.Timeout,
		Labels:  map[string]string{endpoints.Chat: "chat", endpoints.Solve: "solve"},
	}, logger)
	defer d.Close()
	registry := usecase.NewRegistry(d, encoder.New(), usecase.SessionOptions{
		Welcome:   cfg.Session.Welcome,
		Endpoints: endpoints,
		Dev:       cfg.Runtime.Dev,
	}, logger)

	sweeper := sched.NewSessionSweeper(cfg.Bot.SweepInterval, cfg.Bot.SessionIdle, registry, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- Workers ----
	pool := worker.NewPool(cfg.Bot.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- Telegram ----
	api, err := tele.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	sender := tele.NewSender(api)
	// Uploads read the file before dispatching, so allow more than one request timeout.
	proc := worker.NewExchangeProcessor(pool, sender, render.New(catalog).Plain, 2*cfg.HTTP.Timeout, logger)
	bot := tele.NewBot(api, sender, registry, proc, catalog, tele.Options{
		UpdateWorkers: cfg.Bot.Workers,
		Limiter:       limiter,
	}, logger)

	logger.Info().Str("bot", api.Self.UserName).Str("chat", endpoints.Chat).Str("version", version).Msg("polling started")
	if err := bot.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("polling stopped")
	}
	logger.Info().Msg("shutdown complete")
}
