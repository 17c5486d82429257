// main runs a local stand-in for the student registration API, backed by
// SQLite, so the front end can be exercised without the real service.
//
//	go run ./cmd/alunos-api-stub --config=config/stub.yaml
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

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/config"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/http/handlers/aluno"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/http/middleware"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/logger"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/storage/sqlite"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Stub.Validate(); err != nil {
		log.Error("invalid stub configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("starting alunos-api-stub",
		slog.String("env", cfg.Env),
		slog.String("envelope", cfg.Stub.Envelope),
	)

	// The handlers only see the storage.Storage interface.
	storage, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	log.Info("storage initialised", slog.String("path", cfg.Stub.StoragePath))

	// Route table:
	//   POST   /api/alunos/cadastro  → register a student
	//   GET    /api/alunos           → list students
	//   GET    /api/alunos/{id}      → one student
	//   PUT    /api/alunos/{id}      → replace a student
	//   DELETE /api/alunos/{id}      → remove a student
	router := http.NewServeMux()

	router.HandleFunc("POST /api/alunos/cadastro", middleware.Instrument("api_cadastro", aluno.New(storage)))
	router.HandleFunc("GET /api/alunos", middleware.Instrument("api_lista", aluno.GetList(storage, cfg.Stub.Envelope)))
	router.HandleFunc("GET /api/alunos/{id}", middleware.Instrument("api_aluno", aluno.GetByID(storage)))
	router.HandleFunc("PUT /api/alunos/{id}", middleware.Instrument("api_aluno_update", aluno.Update(storage)))
	router.HandleFunc("DELETE /api/alunos/{id}", middleware.Instrument("api_aluno_delete", aluno.Delete(storage)))
	router.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      middleware.Chain(router, middleware.RequestID, middleware.WithLogging, middleware.CORS),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

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
