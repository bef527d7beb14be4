package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objmap/pkg/config"
	"objmap/pkg/drawlayer"
	"objmap/pkg/version"
)

func TestNewServer(t *testing.T) {
	st, _ := newTestSettings(t)
	shutdown := make(chan struct{})

	srv := NewServer(config.DefaultConfig().Server,
		NewSettingsHandler(st),
		NewDrawLayerHandler(drawlayer.New()),
		NewEventsHandler(st),
		func() { close(shutdown) })
	assert.Equal(t, "localhost:1921", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"Health", http.MethodGet, "/health", http.StatusOK, "OK"},
		{"Version", http.MethodGet, "/api/version", http.StatusOK, version.Version},
		{"Settings", http.MethodGet, "/api/settings", http.StatusOK, "shownGroups"},
		{"DrawLayer", http.MethodGet, "/api/draw-layer", http.StatusOK, "FeatureCollection"},
		{"LatestLog", http.MethodGet, "/api/log/latest", http.StatusOK, `"log"`},
		{"FeaturesPreflight", http.MethodOptions, "/api/draw-layer/features", http.StatusOK, ""},
		{"FeaturePreflight", http.MethodOptions, "/api/draw-layer/features/abc", http.StatusOK, ""},
		{"Index", http.MethodGet, "/", http.StatusOK, "<title>objmap</title>"},
		{"SPAFallback", http.MethodGet, "/some/client/route", http.StatusOK, "<title>objmap</title>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}

	t.Run("Shutdown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/shutdown", strings.NewReader("")))
		require.Equal(t, http.StatusOK, rec.Code)
		select {
		case <-shutdown:
		case <-time.After(2 * time.Second):
			t.Fatal("shutdown func not called")
		}
	})
}
