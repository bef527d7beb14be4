package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"objmap/pkg/settings"
)

// SettingsHandler exposes the settings store to the UI.
type SettingsHandler struct {
	store *settings.Store
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(st *settings.Store) *SettingsHandler {
	return &SettingsHandler{store: st}
}

// HandleSettings dispatches GET and PUT/POST on /api/settings, answering
// CORS preflight requests.
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, PUT, POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.HandleGet(w, r)
	case http.MethodPut, http.MethodPost:
		h.HandleUpdate(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleGet returns the five settings in their persisted layout.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.store); err != nil {
		slog.Error("Failed to encode settings response", "error", err)
	}
}

// HandleUpdate applies a partial update. Every key is validated before any is
// written, so a bad request changes nothing. Each accepted key is a separate
// write and notifies listeners on its own.
func (h *SettingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	var req map[string]json.RawMessage
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	for name, raw := range req {
		if err := settings.Validate(name, raw); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	// Declaration order keeps notification order stable.
	for _, name := range settings.FieldNames() {
		raw, ok := req[name]
		if !ok {
			continue
		}
		if err := h.store.Set(name, raw); err != nil {
			slog.Error("Failed to apply setting", "field", name, "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	h.HandleGet(w, r)
}

// HandleSave persists the current settings.
func (h *SettingsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.store.Save(r.Context()); err != nil {
		slog.Error("Failed to save settings", "error", err)
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
