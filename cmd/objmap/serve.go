package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"objmap/internal/app"
	"objmap/pkg/logging"
	"objmap/pkg/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the settings API and UI",
		Long: `Run the HTTP server for the browser UI.

Settings are saved when the server stops: on Ctrl+C, SIGTERM or a POST to
/api/shutdown. With settings.autosave_interval set they are also saved
periodically.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cleanup, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logging: %w", err)
	}
	defer cleanup()

	slog.Info("Starting objmap", "version", version.Version, "db", cfg.DB.Path)

	a, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Address, err)
	}
	return a.Serve(ctx, ln)
}
