package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contentforge/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve command for starting the HTTP API
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the ContentForge HTTP API.

The server provides:
  • POST /api/articles/generate (JSON, or progress events with
    Accept: text/event-stream)
  • Library, settings, key check, internal link and publish endpoints
  • GET /health

Examples:
  # Start on the configured port (default 8080)
  contentforge serve

  # Local only, custom port
  contentforge serve --host 127.0.0.1 --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				return runServe(cmd.Context(), a, host, port)
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")

	return cmd
}

func runServe(ctx context.Context, a *app, host string, port int) error {
	serverCfg := a.cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	srv := server.New(a.articles, serverCfg, a.log)

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "🌐 Listening on http://%s:%d (Ctrl+C to stop)\n", serverCfg.Host, serverCfg.Port)
		serverErrors <- srv.Start()
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("graceful shutdown failed")
			return err
		}
		a.log.Info().Msg("server stopped")
		return nil
	}
}
