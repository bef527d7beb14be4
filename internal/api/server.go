package api

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"objmap/internal/ui"
	"objmap/pkg/config"
	"objmap/pkg/logging"
	"objmap/pkg/version"
)

// NewServer creates and configures the HTTP server.
// shutdown is called (asynchronously) when a client posts to /api/shutdown.
func NewServer(cfg config.ServerConfig, settingsH *SettingsHandler, drawH *DrawLayerHandler, events *EventsHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// Settings
	mux.HandleFunc("/api/settings", settingsH.HandleSettings)
	mux.HandleFunc("/api/settings/save", settingsH.HandleSave)
	if events != nil {
		mux.Handle("GET /api/settings/events", events)
	}

	// Draw layer
	if drawH != nil {
		mux.HandleFunc("/api/draw-layer", drawH.HandleLayer)
		mux.HandleFunc("/api/draw-layer/features", drawH.HandleAddFeature)
		mux.HandleFunc("/api/draw-layer/features/{id}", drawH.HandleRemoveFeature)
	}

	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Let the response flush first.
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	distFS, err := fs.Sub(ui.DistFS, "dist")
	if err != nil {
		panic(fmt.Sprintf("Failed to subtree dist from embedded assets: %v", err))
	}
	mux.Handle("/", http.FileServer(&spaFileSystem{root: http.FS(distFS)}))

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      LoggingMiddleware(mux),
		ReadTimeout:  cfg.ReadTimeout.Std(),
		WriteTimeout: cfg.WriteTimeout.Std(),
		IdleTimeout:  60 * time.Second,
	}
	if events != nil {
		// Hijacked websocket connections are not closed by Shutdown.
		srv.RegisterOnShutdown(events.Close)
	}
	return srv
}

// LoggingMiddleware writes one line per request to the request log.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}

// setCORS allows the UI to be served from a dev server on another origin.
func setCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
