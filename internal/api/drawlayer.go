package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/paulmach/orb/geojson"

	"objmap/pkg/drawlayer"
)

// maxLayerBody caps uploaded draw layers.
const maxLayerBody = 8 << 20

// DrawLayerHandler edits the draw layer. Edits reach the settings blob on the
// next save.
type DrawLayerHandler struct {
	layer *drawlayer.Layer
}

// NewDrawLayerHandler creates a new DrawLayerHandler.
func NewDrawLayerHandler(l *drawlayer.Layer) *DrawLayerHandler {
	return &DrawLayerHandler{layer: l}
}

// DrawLayerResponse is the GET /api/draw-layer payload.
type DrawLayerResponse struct {
	FeatureCollection *drawlayer.Layer `json:"featureCollection"`
	Count             int              `json:"count"`
	BBox              []float64        `json:"bbox,omitempty"` // [minLon, minLat, maxLon, maxLat]
	Dirty             bool             `json:"dirty"`
}

// HandleLayer dispatches GET, PUT and DELETE on /api/draw-layer.
func (h *DrawLayerHandler) HandleLayer(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, PUT, DELETE, OPTIONS")
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		h.handleGet(w)
	case http.MethodPut:
		h.handleReplace(w, r)
	case http.MethodDelete:
		h.layer.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DrawLayerHandler) handleGet(w http.ResponseWriter) {
	resp := DrawLayerResponse{
		FeatureCollection: h.layer,
		Count:             h.layer.Len(),
		Dirty:             h.layer.Dirty(),
	}
	if b, ok := h.layer.Bound(); ok {
		resp.BBox = []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DrawLayerHandler) handleReplace(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxLayerBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	fc, err := drawlayer.Parse(string(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.layer.Replace(fc)
	slog.Debug("Draw layer replaced", "features", len(fc.Features))
	h.handleGet(w)
}

// HandleAddFeature appends one GeoJSON feature and returns its id.
func (h *DrawLayerHandler) HandleAddFeature(w http.ResponseWriter, r *http.Request) {
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

	body, err := io.ReadAll(io.LimitReader(r.Body, maxLayerBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	f, err := geojson.UnmarshalFeature(body)
	if err != nil || f.Geometry == nil {
		http.Error(w, "Invalid GeoJSON feature", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": h.layer.Add(f)})
}

// HandleRemoveFeature deletes the feature named by the {id} path value.
func (h *DrawLayerHandler) HandleRemoveFeature(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "DELETE, OPTIONS")
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodDelete:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.layer.Remove(r.PathValue("id")) {
		http.Error(w, "Feature not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
