// Package settings holds the user preferences of the map viewer: a single
// record persisted as one JSON blob in a state store, with change and
// pre-save callbacks.
package settings

import "errors"

// DefaultKey is the state key the settings blob is stored under.
const DefaultKey = "storage"

// Field names, as they appear in the persisted blob and the HTTP API.
const (
	FieldShownGroups      = "shownGroups"
	FieldDrawLayerGeojson = "drawLayerGeojson"
	FieldColorPerActor    = "colorPerActor"
	FieldUseActorNames    = "useActorNames"
	FieldUseHexForHashIds = "useHexForHashIds"
)

var (
	// ErrMalformedBlob is returned when the persisted blob cannot be decoded.
	ErrMalformedBlob = errors.New("settings: malformed persisted blob")
	// ErrUnknownField is returned by Store.Set for a field name that does not exist.
	ErrUnknownField = errors.New("settings: unknown field")
)

// DefaultShownGroups lists the map groups visible on a fresh install.
var DefaultShownGroups = []string{"Location", "Dungeon", "Place", "Tower", "Shop", "Labo"}

// Settings is the plain settings record.
type Settings struct {
	ShownGroups      GroupSet
	DrawLayerGeojson string
	ColorPerActor    bool
	UseActorNames    bool
	UseHexForHashIds bool
}

// Defaults returns the record used when nothing has been persisted yet.
func Defaults() Settings {
	return Settings{
		ShownGroups:      NewGroupSet(DefaultShownGroups...),
		DrawLayerGeojson: "",
		ColorPerActor:    true,
		UseActorNames:    false,
		UseHexForHashIds: true,
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	out.ShownGroups = s.ShownGroups.Clone()
	return out
}
