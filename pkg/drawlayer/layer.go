// Package drawlayer keeps the user's map drawings as an editable GeoJSON
// feature collection and flushes them into the drawLayerGeojson setting
// right before the settings are saved.
package drawlayer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"objmap/pkg/settings"
)

// Layer is an in-memory feature collection with a dirty flag.
type Layer struct {
	mu     sync.RWMutex
	fc     *geojson.FeatureCollection
	dirty  bool
	synced string // setting value the layer was last loaded from or flushed to
	logger *slog.Logger
}

// New creates an empty layer.
func New() *Layer {
	return &Layer{
		fc:     geojson.NewFeatureCollection(),
		logger: slog.With("component", "drawlayer"),
	}
}

// Parse decodes a stored draw layer. The empty string is an empty collection.
func Parse(s string) (*geojson.FeatureCollection, error) {
	if s == "" {
		return geojson.NewFeatureCollection(), nil
	}
	fc, err := geojson.UnmarshalFeatureCollection([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("failed to parse draw layer: %w", err)
	}
	return fc, nil
}

// Load replaces the layer contents with the stored value s and marks the
// layer clean.
func (l *Layer) Load(s string) error {
	fc, err := Parse(s)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.fc = fc
	l.dirty = false
	l.synced = s
	l.mu.Unlock()
	return nil
}

// Replace swaps in a new collection, e.g. one uploaded by the UI.
func (l *Layer) Replace(fc *geojson.FeatureCollection) {
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	for _, f := range fc.Features {
		ensureID(f)
	}
	l.mu.Lock()
	l.fc = fc
	l.dirty = true
	l.mu.Unlock()
}

// Add appends f, assigning a fresh id when it has none, and returns the id.
func (l *Layer) Add(f *geojson.Feature) string {
	id := ensureID(f)
	l.mu.Lock()
	l.fc.Append(f)
	l.dirty = true
	l.mu.Unlock()
	return id
}

// Remove deletes the feature with the given id.
func (l *Layer) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, f := range l.fc.Features {
		if featureID(f) == id {
			l.fc.Features = append(l.fc.Features[:i], l.fc.Features[i+1:]...)
			l.dirty = true
			return true
		}
	}
	return false
}

// Clear drops every feature.
func (l *Layer) Clear() {
	l.mu.Lock()
	l.fc = geojson.NewFeatureCollection()
	l.dirty = true
	l.mu.Unlock()
}

func (l *Layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fc.Features)
}

func (l *Layer) Dirty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dirty
}

// Bound returns the union of all feature bounds; ok is false for an empty layer.
func (l *Layer) Bound() (b orb.Bound, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, f := range l.fc.Features {
		if f.Geometry == nil {
			continue
		}
		if !ok {
			b, ok = f.Geometry.Bound(), true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b, ok
}

// Marshal encodes the layer in its stored form. An empty layer is "".
func (l *Layer) Marshal() (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return marshal(l.fc)
}

func marshal(fc *geojson.FeatureCollection) (string, error) {
	if len(fc.Features) == 0 {
		return "", nil
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal draw layer: %w", err)
	}
	return string(data), nil
}

// MarshalJSON always renders a FeatureCollection, empty or not.
func (l *Layer) MarshalJSON() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return json.Marshal(l.fc)
}

// Attach wires the layer to the store and loads it from the drawLayerGeojson
// setting: edits are flushed into the setting before every save, and writes to
// the setting made elsewhere reload the layer. The layer is wired even when the
// stored value does not parse; it then stays empty and the next edit replaces
// the bad value.
func (l *Layer) Attach(s *settings.Store) error {
	s.RegisterBeforeSaveCallback(func() { l.flush(s) })
	s.RegisterCallback(func() { l.sync(s.DrawLayerGeojson()) })

	current := s.DrawLayerGeojson()
	if err := l.Load(current); err != nil {
		l.mu.Lock()
		l.synced = current
		l.mu.Unlock()
		return err
	}
	return nil
}

func (l *Layer) flush(s *settings.Store) {
	l.mu.Lock()
	if !l.dirty {
		l.mu.Unlock()
		return
	}
	data, err := marshal(l.fc)
	if err != nil {
		l.mu.Unlock()
		l.logger.Error("Draw layer not flushed", "error", err)
		return
	}
	l.dirty = false
	l.synced = data
	n := len(l.fc.Features)
	l.mu.Unlock()

	// Lock released: the setter notifies, and sync reads the layer.
	s.SetDrawLayerGeojson(data)
	l.logger.Debug("Draw layer flushed", "features", n)
}

func (l *Layer) sync(current string) {
	l.mu.RLock()
	same := current == l.synced
	l.mu.RUnlock()
	if same {
		return
	}
	if err := l.Load(current); err != nil {
		l.logger.Warn("Ignoring invalid draw layer setting", "error", err)
		l.mu.Lock()
		l.synced = current
		l.mu.Unlock()
	}
}

func ensureID(f *geojson.Feature) string {
	if f.ID == nil || f.ID == "" {
		f.ID = uuid.NewString()
	}
	return featureID(f)
}

func featureID(f *geojson.Feature) string {
	if f.ID == nil {
		return ""
	}
	return fmt.Sprint(f.ID)
}
