// File: cmd/buddy/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"smart-study-buddy/internal/config"
	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/infra/dispatcher"
	"smart-study-buddy/internal/infra/encoder"
	"smart-study-buddy/internal/infra/i18n"
	"smart-study-buddy/internal/infra/logging"
	"smart-study-buddy/internal/infra/metrics"
	"smart-study-buddy/internal/infra/render"
	"smart-study-buddy/internal/infra/tui"
	"smart-study-buddy/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	})
	stop()
	os.Exit(code)
}

// run returns the exit code so deferred cleanup, the log file included,
// happens before the process exits.
func run(ctx context.Context, args []string, runUI func(tea.Model) error) int {
	// ---- CLI flags ----
	fs := flag.NewFlagSet("buddy", flag.ContinueOnError)
	cfgPath := fs.String("config", "config.yaml", "path to YAML config file")
	devMode := fs.Bool("dev", false, "developer mode (log prompts unredacted)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	// The terminal belongs to the UI.
	if cfg.Log.File == "" {
		cfg.Log.File = "buddy.log"
	}
	logger, closer, err := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err != nil {
		log.Printf("logging: %v", err)
		return 1
	}
	defer closer.Close()

	metrics.MustRegister()
	metrics.SetBuildInfo("buddy", version, commit)
	metrics.Serve(ctx, cfg.Metrics.Addr, logger)

	catalog, err := i18n.NewCatalog()
	if err != nil {
		logger.Error().Err(err).Msg("i18n")
		return 1
	}

	endpoints := usecase.Endpoints{Chat: cfg.Endpoints.ChatURL, Solve: cfg.Endpoints.SolveURL()}
	d := dispatcher.NewRestyDispatcher(dispatcher.Options{
		Timeout: cfg.HTTP.Timeout,
		Labels:  map[string]string{endpoints.Chat: "chat", endpoints.Solve: "solve"},
	}, logger)
	defer d.Close()

	session := usecase.NewSession(d, encoder.New(), usecase.SessionOptions{
		Welcome:   cfg.Session.Welcome,
		Endpoints: endpoints,
		Dev:       cfg.Runtime.Dev,
		OnSolve: func(res model.SolveResult) {
			logger.Info().
				Str("expression", res.ParsedExpression).
				Str("result", logging.Redact(res.Result, cfg.Runtime.Dev)).
				Msg("solve finished")
		},
	}, logger)

	// LANG like "es_ES.UTF-8" picks the Spanish status labels.
	ui := tui.New(ctx, session, render.New(catalog), catalog.For(os.Getenv("LANG")), tui.Options{}, logger)
	logger.Info().Str("chat", endpoints.Chat).Str("solve", endpoints.Solve).Str("version", version).Msg("buddy starting")

	if err := runUI(ui); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error().Err(err).Msg("ui stopped")
		return 1
	}
	return 0
}
