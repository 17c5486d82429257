// main is the entry point of the student registration front end.
//
// STARTUP SEQUENCE:
//  1. Load configuration and check the API endpoints
//  2. Initialise the logger
//  3. Build the API client and both pages
//  4. Register the page routes and /metrics
//  5. Serve until SIGINT/SIGTERM, then shut down gracefully
//
// RUNNING:
//
//	go run ./cmd/frontcadastro --config=config/local.yaml
//
// or
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/frontcadastro
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/apiclient"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/config"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/http/handlers/pages"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/http/middleware"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/logger"
)

func main() {
	// ── 1. Config ─────────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Logger ─────────────────────────────────────────────────────────
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	// An endpoint left as a placeholder would only fail on the first click.
	if err := cfg.API.Validate(); err != nil {
		log.Error("invalid api configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("starting frontcadastro",
		slog.String("env", cfg.Env),
		slog.String("register_endpoint", cfg.API.RegisterEndpoint),
		slog.String("list_endpoint", cfg.API.ListEndpoint),
	)

	// ── 3. API client and pages ───────────────────────────────────────────
	// No client timeout: an action lasts as long as the API takes to answer.
	client := apiclient.New(cfg.API.RegisterEndpoint, cfg.API.ListEndpoint, apiclient.WithLogger(log))
	site := pages.New(client, cfg.Feedback, !cfg.API.AcceptAnyContentType, pages.WithLogger(log))

	// ── 4. Routes ─────────────────────────────────────────────────────────
	router := http.NewServeMux()
	router.Handle("/", site.Handler())
	router.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: middleware.Chain(router, middleware.RequestID, middleware.WithLogging),

		// A page request waits on the API, so writes get more room than the
		// stub's.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── 5. Serve and wait for a signal ────────────────────────────────────
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
