// Package logger builds the process-wide slog.Logger for each environment.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Environments recognised by New.
const (
	EnvProd    = "prod"
	EnvStaging = "staging"
	EnvDev     = "dev"
)

// New returns a *slog.Logger for env, writing to stdout.
//
//	prod:    JSON, INFO and above
//	staging: JSON, DEBUG and above
//	other:   text, DEBUG and above
func New(env string) *slog.Logger {
	return NewWriter(env, os.Stdout)
}

// NewWriter is New with an explicit destination.
func NewWriter(env string, w io.Writer) *slog.Logger {
	switch env {
	case EnvProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case EnvStaging:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
