package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objmap/pkg/store"
)

func resetInstance(t *testing.T) {
	t.Helper()
	reset := func() {
		instanceMu.Lock()
		instance = nil
		defaultBackend = nil
		defaultOpts = nil
		instanceMu.Unlock()
	}
	reset()
	t.Cleanup(reset)
}

func TestInstance_Identity(t *testing.T) {
	resetInstance(t)
	require.NoError(t, SetDefaultBackend(store.NewMemoryStore()))

	a, err := Instance()
	require.NoError(t, err)
	b, err := Instance()
	require.NoError(t, err)

	assert.Same(t, a, b)
	a.SetColorPerActor(false)
	assert.False(t, b.ColorPerActor())
}

func TestInstance_DefaultsToMemory(t *testing.T) {
	resetInstance(t)

	s, err := Instance()
	require.NoError(t, err)
	assert.True(t, s.UseHexForHashIds())
	assert.Equal(t, DefaultKey, s.Key())
}

func TestInstance_BackendLockedAfterInit(t *testing.T) {
	resetInstance(t)

	_, err := Instance()
	require.NoError(t, err)
	assert.ErrorIs(t, SetDefaultBackend(store.NewMemoryStore()), ErrAlreadyInitialized)
}

func TestInstance_RetriesAfterLoadFailure(t *testing.T) {
	resetInstance(t)
	ctx := context.Background()
	backend := store.NewMemoryStore()
	require.NoError(t, backend.SetState(ctx, DefaultKey, "{broken"))
	require.NoError(t, SetDefaultBackend(backend))

	_, err := Instance()
	require.ErrorIs(t, err, ErrMalformedBlob)

	require.NoError(t, backend.SetState(ctx, DefaultKey, `{"useActorNames":true}`))
	s, err := Instance()
	require.NoError(t, err)
	assert.True(t, s.UseActorNames())
}
