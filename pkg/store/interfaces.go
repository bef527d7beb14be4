package store

import "context"

// StateStore handles persistent application state as string key/value pairs.
// It is the durable facility the settings blob lives in.
type StateStore interface {
	// GetState returns the value stored under key. A missing key is reported
	// with ok=false and a nil error.
	GetState(ctx context.Context, key string) (val string, ok bool, err error)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Store composes the state store with connection lifecycle.
type Store interface {
	StateStore

	// Close closes the store connection.
	Close() error
}
