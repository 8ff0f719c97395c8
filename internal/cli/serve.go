package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/todoapi/internal/db"
	"github.com/existflow/todoapi/internal/logger"
	"github.com/existflow/todoapi/internal/telemetry"
	"github.com/existflow/todoapi/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server.

The schema is created on startup if missing. In testing mode (TESTING set)
the server uses SQLite and starts from an empty table.

Examples:
  todo-server serve
  PORT=9000 TESTING=1 todo-server serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(telemetry.Config{
		ServiceName:    "todo-server",
		ServiceVersion: version,
		Exporter:       cfg.Observability.Tracing,
		Endpoint:       cfg.Observability.ZipkinEndpoint,
		Writer:         cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Failed to flush traces", logger.F("error", err))
		}
	}()

	opts := cfg.DatabaseOptions()
	database, err := db.Open(ctx, opts)
	if err != nil {
		logger.Error("Failed to open database", logger.F("driver", opts.Driver), logger.F("error", err))
		return err
	}
	defer func() {
		_ = database.Close()
		logger.Info("Database closed")
	}()

	srv := server.New(database, server.Options{Metrics: cfg.Observability.Metrics})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Addr())
	}()

	logger.Info("todo-server listening",
		logger.F("addr", cfg.Addr()),
		logger.F("driver", opts.Driver),
		logger.F("testing", cfg.Testing),
		logger.F("tracing", cfg.Observability.Tracing))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
