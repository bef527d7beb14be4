// Package app wires the settings singleton, its sqlite backend, the draw layer
// and the HTTP API into one runnable unit shared by the CLI and the desktop
// window.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"objmap/internal/api"
	"objmap/pkg/config"
	"objmap/pkg/db"
	"objmap/pkg/drawlayer"
	"objmap/pkg/settings"
	"objmap/pkg/store"
)

const shutdownTimeout = 5 * time.Second

// App holds the long-lived services of one process.
type App struct {
	Config   *config.Config
	Settings *settings.Store
	Layer    *drawlayer.Layer
	store    store.Store
}

// Open initialises the database, installs it as the settings backend and
// loads the process-wide settings instance.
func Open(cfg *config.Config) (*App, error) {
	d, err := db.Init(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}
	st := store.NewSQLiteStore(d)

	if err := settings.SetDefaultBackend(st, settings.WithKey(cfg.Settings.Key)); err != nil {
		_ = st.Close()
		return nil, err
	}
	s, err := settings.Instance()
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	layer := drawlayer.New()
	if err := layer.Attach(s); err != nil {
		// The layer is still attached; the next edit overwrites the stored value.
		slog.Warn("Stored draw layer is invalid, starting empty", "error", err)
	}

	return &App{Config: cfg, Settings: s, Layer: layer, store: st}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.store.Close()
}

// Serve runs the API on ln until ctx is done, a client posts to
// /api/shutdown or the server fails. The server is stopped before the
// settings are saved, so no request can change them after the final save.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unloadCtx, unload := context.WithCancel(context.Background())
	defer unload()
	saved := a.Settings.BindUnload(unloadCtx, a.Config.Settings.SaveTimeout.Std())

	if interval := a.Config.Settings.AutosaveInterval.Std(); interval > 0 {
		slog.Info("Autosave enabled", "interval", interval)
		go a.Settings.Autosave(ctx, interval)
	}

	srv := api.NewServer(a.Config.Server,
		api.NewSettingsHandler(a.Settings),
		api.NewDrawLayerHandler(a.Layer),
		api.NewEventsHandler(a.Settings),
		cancel)

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	case err := <-serverErrors:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Server shutdown incomplete", "error", err)
	}

	unload()
	if err := <-saved; err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
