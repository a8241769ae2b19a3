// Command server runs the weekly notes backend.
//
// main stays small: load the configuration, build the logger, hand both to
// the server package. Everything else lives under internal/.
package main

import (
	"context"
	"log/slog"
	"os"

	// Embedded zone database so APP_TIMEZONE resolves in minimal images.
	_ "time/tzdata"

	"github.com/sakif/weekly-notes/internal/config"
	"github.com/sakif/weekly-notes/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Text output reads well in a terminal; LOG_LEVEL=debug shows everything.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if len(cfg.AdminEmails) == 0 {
		logger.Warn("ADMIN_EMAILS is empty: nobody can use the admin routes")
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
