package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"objmap/pkg/logging"
	"objmap/pkg/store"
)

// ChangeFunc is invoked after any setting is modified, and once after every load.
type ChangeFunc func()

// BeforeSaveFunc is invoked right before the record is serialized. It may
// write settings to flush pending state.
type BeforeSaveFunc func()

// Store owns the live settings record and its persistence.
//
// The record lock is never held while callbacks run, so a callback may call
// setters. Such nested writes notify again; callbacks must not form cycles.
type Store struct {
	backend store.StateStore
	key     string
	logger  *slog.Logger

	mu   sync.RWMutex
	data Settings

	cbMu       sync.Mutex
	callbacks  []ChangeFunc
	beforeSave []BeforeSaveFunc
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the state key the blob is stored under.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store holding defaults. Callers normally use Open or Instance,
// which also load.
func New(backend store.StateStore, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		logger:  slog.With("component", "settings"),
		data:    Defaults(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Open creates a Store and loads it from backend.
func Open(ctx context.Context, backend store.StateStore, opts ...Option) (*Store, error) {
	s := New(backend, opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("Settings initialised", "key", s.key, "shown_groups", len(s.ShownGroups()))
	return s, nil
}

// Key returns the state key the blob is stored under.
func (s *Store) Key() string { return s.key }

// RegisterCallback appends cb to the change callbacks. Registering the same
// function twice makes it run twice per change.
func (s *Store) RegisterCallback(cb ChangeFunc) {
	s.cbMu.Lock()
	s.callbacks = append(s.callbacks, cb)
	s.cbMu.Unlock()
}

// RegisterBeforeSaveCallback appends cb to the pre-save callbacks.
func (s *Store) RegisterBeforeSaveCallback(cb BeforeSaveFunc) {
	s.cbMu.Lock()
	s.beforeSave = append(s.beforeSave, cb)
	s.cbMu.Unlock()
}

// Load replaces the record with the persisted blob, substituting defaults for
// missing fields, then fires every change callback once.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.backend.GetState(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if !ok {
		raw = ""
	}

	data, err := Decode(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	s.invokeCallbacks()
	return nil
}

// Save runs the pre-save callbacks in order, then overwrites the persisted
// blob with the current record.
func (s *Store) Save(ctx context.Context) error {
	s.cbMu.Lock()
	hooks := append([]BeforeSaveFunc(nil), s.beforeSave...)
	s.cbMu.Unlock()
	for _, cb := range hooks {
		cb()
	}

	s.mu.RLock()
	data, err := Encode(s.data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := s.backend.SetState(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Debug("Settings saved", "key", s.key, "bytes", len(data))
	return nil
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// MarshalJSON renders the current record in the persisted layout.
func (s *Store) MarshalJSON() ([]byte, error) {
	return Encode(s.Snapshot())
}

// --- Getters ---

func (s *Store) ShownGroups() GroupSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.ShownGroups.Clone()
}

func (s *Store) DrawLayerGeojson() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.DrawLayerGeojson
}

func (s *Store) ColorPerActor() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.ColorPerActor
}

func (s *Store) UseActorNames() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.UseActorNames
}

func (s *Store) UseHexForHashIds() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.UseHexForHashIds
}

// --- Setters ---
// Every setter notifies, even when the new value equals the old one.

func (s *Store) SetShownGroups(groups GroupSet) {
	groups = groups.Clone()
	if groups == nil {
		groups = GroupSet{}
	}
	s.update(FieldShownGroups, func(d *Settings) { d.ShownGroups = groups })
}

func (s *Store) SetDrawLayerGeojson(v string) {
	s.update(FieldDrawLayerGeojson, func(d *Settings) { d.DrawLayerGeojson = v })
}

func (s *Store) SetColorPerActor(v bool) {
	s.update(FieldColorPerActor, func(d *Settings) { d.ColorPerActor = v })
}

func (s *Store) SetUseActorNames(v bool) {
	s.update(FieldUseActorNames, func(d *Settings) { d.UseActorNames = v })
}

func (s *Store) SetUseHexForHashIds(v bool) {
	s.update(FieldUseHexForHashIds, func(d *Settings) { d.UseHexForHashIds = v })
}

// Set assigns a field by name from its JSON value. A rejected write leaves the
// record untouched and notifies nobody.
func (s *Store) Set(name string, raw json.RawMessage) error {
	apply, err := decodeField(name, raw)
	if err != nil {
		return err
	}
	s.update(name, apply)
	return nil
}

func (s *Store) update(name string, apply func(*Settings)) {
	s.mu.Lock()
	apply(&s.data)
	s.mu.Unlock()

	logging.Trace(s.logger, "Setting changed", "field", name)
	s.invokeCallbacks()
}

func (s *Store) invokeCallbacks() {
	s.cbMu.Lock()
	cbs := append([]ChangeFunc(nil), s.callbacks...)
	s.cbMu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}
