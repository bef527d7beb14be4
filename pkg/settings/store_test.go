package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objmap/pkg/store"
)

type failingStore struct {
	*store.MemoryStore
	readErr  error
	writeErr error
}

func (f *failingStore) GetState(ctx context.Context, key string) (string, bool, error) {
	if f.readErr != nil {
		return "", false, f.readErr
	}
	return f.MemoryStore.GetState(ctx, key)
}

func (f *failingStore) SetState(ctx context.Context, key, val string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemoryStore.SetState(ctx, key, val)
}

func newFailingStore() *failingStore {
	return &failingStore{MemoryStore: store.NewMemoryStore()}
}

func TestOpen_DefaultSubstitution(t *testing.T) {
	s, err := Open(context.Background(), store.NewMemoryStore())
	require.NoError(t, err)

	assert.True(t, s.ShownGroups().Equal(NewGroupSet("Location", "Dungeon", "Place", "Tower", "Shop", "Labo")))
	assert.Equal(t, "", s.DrawLayerGeojson())
	assert.True(t, s.ColorPerActor())
	assert.False(t, s.UseActorNames())
	assert.True(t, s.UseHexForHashIds())
}

func TestOpen_PartialRecord(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	require.NoError(t, backend.SetState(ctx, DefaultKey, `{"colorPerActor": false}`))

	s, err := Open(ctx, backend)
	require.NoError(t, err)

	want := Defaults()
	want.ColorPerActor = false
	assertSettingsEqual(t, want, s.Snapshot())
}

func TestOpen_MalformedBlobPropagates(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	require.NoError(t, backend.SetState(ctx, DefaultKey, "not-json"))

	_, err := Open(ctx, backend)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedBlob)
}

func TestOpen_ReadFailurePropagates(t *testing.T) {
	backend := newFailingStore()
	backend.readErr = errors.New("storage disabled")

	_, err := Open(context.Background(), backend)
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.readErr)
}

func TestStore_SaveLoadIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()

	s, err := Open(ctx, backend)
	require.NoError(t, err)
	s.SetShownGroups(NewGroupSet("Tower", "Shop"))
	s.SetDrawLayerGeojson(`{"type":"FeatureCollection","features":[]}`)
	s.SetColorPerActor(false)
	s.SetUseActorNames(true)
	s.SetUseHexForHashIds(false)
	require.NoError(t, s.Save(ctx))

	fresh, err := Open(ctx, backend)
	require.NoError(t, err)
	assertSettingsEqual(t, s.Snapshot(), fresh.Snapshot())
}

func TestStore_SetRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()

	s, err := Open(ctx, backend)
	require.NoError(t, err)
	s.SetShownGroups(NewGroupSet("A", "B"))
	require.NoError(t, s.Save(ctx))

	fresh, err := Open(ctx, backend)
	require.NoError(t, err)
	assert.True(t, fresh.ShownGroups().Equal(NewGroupSet("B", "A")))
}

func TestStore_NotificationCount(t *testing.T) {
	s := New(store.NewMemoryStore())
	calls := 0
	s.RegisterCallback(func() { calls++ })

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 1, calls, "load fires the ready notification once")

	s.SetColorPerActor(false)
	s.SetUseActorNames(true)
	assert.Equal(t, 3, calls, "one notification per assignment plus the load")
}

func TestStore_CallbacksRunInOrderWithoutDedup(t *testing.T) {
	s := New(store.NewMemoryStore())

	var order []string
	first := func() { order = append(order, "first") }
	s.RegisterCallback(first)
	s.RegisterCallback(func() { order = append(order, "second") })
	s.RegisterCallback(first)

	s.SetUseHexForHashIds(false)
	assert.Equal(t, []string{"first", "second", "first"}, order)
}

func TestStore_UnchangedValueStillNotifies(t *testing.T) {
	s := New(store.NewMemoryStore())
	calls := 0
	s.RegisterCallback(func() { calls++ })

	s.SetColorPerActor(true)
	s.SetColorPerActor(true)
	assert.Equal(t, 2, calls)
}

func TestStore_BeforeSaveOrdering(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	s, err := Open(ctx, backend)
	require.NoError(t, err)

	s.SetDrawLayerGeojson("initial")
	var order []int
	s.RegisterBeforeSaveCallback(func() {
		order = append(order, 1)
		s.SetDrawLayerGeojson("X")
	})
	s.RegisterBeforeSaveCallback(func() { order = append(order, 2) })

	require.NoError(t, s.Save(ctx))
	assert.Equal(t, []int{1, 2}, order)

	raw, ok, err := backend.GetState(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	persisted, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "X", persisted.DrawLayerGeojson)
}

func TestStore_SaveDropsUnknownKeys(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	require.NoError(t, backend.SetState(ctx, DefaultKey, `{"legacyZoom": 3, "useActorNames": true}`))

	s, err := Open(ctx, backend)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	raw, _, _ := backend.GetState(ctx, DefaultKey)
	var record map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	assert.NotContains(t, record, "legacyZoom")
	assert.Len(t, record, 5)
	assert.JSONEq(t, "true", string(record[FieldUseActorNames]))
}

func TestStore_SaveWriteFailure(t *testing.T) {
	backend := newFailingStore()
	s, err := Open(context.Background(), backend)
	require.NoError(t, err)

	backend.writeErr = errors.New("quota exceeded")
	err = s.Save(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.writeErr)
}

func TestStore_CustomKey(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	s, err := Open(ctx, backend, WithKey("objmap.settings"))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	_, ok, _ := backend.GetState(ctx, "objmap.settings")
	assert.True(t, ok)
	_, ok, _ = backend.GetState(ctx, DefaultKey)
	assert.False(t, ok)
}

func TestStore_Set(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		check   func(t *testing.T, s *Store)
		wantErr error
	}{
		{
			name:  "Groups",
			field: FieldShownGroups,
			value: `["Shop","Labo"]`,
			check: func(t *testing.T, s *Store) {
				assert.True(t, s.ShownGroups().Equal(NewGroupSet("Shop", "Labo")))
			},
		},
		{
			name:  "DrawLayer",
			field: FieldDrawLayerGeojson,
			value: `"{}"`,
			check: func(t *testing.T, s *Store) { assert.Equal(t, "{}", s.DrawLayerGeojson()) },
		},
		{
			name:  "Bool",
			field: FieldUseActorNames,
			value: `true`,
			check: func(t *testing.T, s *Store) { assert.True(t, s.UseActorNames()) },
		},
		{
			name:    "UnknownField",
			field:   "zoom",
			value:   `3`,
			wantErr: ErrUnknownField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(store.NewMemoryStore())
			calls := 0
			s.RegisterCallback(func() { calls++ })

			err := s.Set(tt.field, json.RawMessage(tt.value))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, calls)
			tt.check(t, s)
		})
	}
}

func TestStore_SetRejectedLeavesValue(t *testing.T) {
	s := New(store.NewMemoryStore())
	calls := 0
	s.RegisterCallback(func() { calls++ })

	err := s.Set(FieldColorPerActor, json.RawMessage(`"nope"`))
	require.Error(t, err)
	assert.True(t, s.ColorPerActor())
	assert.Equal(t, 0, calls)
}

func TestStore_NestedNotification(t *testing.T) {
	s := New(store.NewMemoryStore())
	calls := 0
	s.RegisterCallback(func() {
		calls++
		if !s.UseActorNames() {
			s.SetUseActorNames(true)
		}
	})

	done := make(chan struct{})
	go func() {
		s.SetColorPerActor(false)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested setter deadlocked")
	}
	assert.Equal(t, 2, calls)
	assert.True(t, s.UseActorNames())
}

func TestStore_GettersDoNotAlias(t *testing.T) {
	s := New(store.NewMemoryStore())
	groups := s.ShownGroups()
	groups["Hidden"] = struct{}{}
	assert.False(t, s.ShownGroups().Has("Hidden"))

	in := NewGroupSet("A")
	s.SetShownGroups(in)
	in["B"] = struct{}{}
	assert.False(t, s.ShownGroups().Has("B"))
}

func TestStore_MarshalJSON(t *testing.T) {
	s := New(store.NewMemoryStore())
	s.SetShownGroups(NewGroupSet("Shop"))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"shownGroups":["Shop"],"drawLayerGeojson":"","colorPerActor":true,"useActorNames":false,"useHexForHashIds":true}`, string(data))
}
