package settings

import (
	"context"
	"errors"
	"sync"

	"objmap/pkg/store"
)

// ErrAlreadyInitialized is returned by SetDefaultBackend once Instance has
// built the singleton.
var ErrAlreadyInitialized = errors.New("settings: instance already initialized")

var (
	instanceMu     sync.Mutex
	instance       *Store
	defaultBackend store.StateStore
	defaultOpts    []Option
)

// SetDefaultBackend selects the state store the process-wide instance loads
// from. It must be called before the first Instance call.
func SetDefaultBackend(backend store.StateStore, opts ...Option) error {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance != nil {
		return ErrAlreadyInitialized
	}
	defaultBackend = backend
	defaultOpts = opts
	return nil
}

// Instance returns the process-wide Store, creating and loading it on first
// use. Without SetDefaultBackend it lives in memory only. A failed load is
// returned and the next call tries again.
func Instance() (*Store, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance != nil {
		return instance, nil
	}

	backend := defaultBackend
	if backend == nil {
		backend = store.NewMemoryStore()
	}
	s, err := Open(context.Background(), backend, defaultOpts...)
	if err != nil {
		return nil, err
	}
	instance = s
	return instance, nil
}
