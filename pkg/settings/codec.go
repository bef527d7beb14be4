package settings

import (
	"encoding/json"
	"fmt"
)

// blob is the persisted layout. Save always emits exactly these keys.
type blob struct {
	ShownGroups      []string `json:"shownGroups"`
	DrawLayerGeojson string   `json:"drawLayerGeojson"`
	ColorPerActor    bool     `json:"colorPerActor"`
	UseActorNames    bool     `json:"useActorNames"`
	UseHexForHashIds bool     `json:"useHexForHashIds"`
}

// decoder turns one raw field value into an assignment on a record.
type decoder func(raw json.RawMessage) (apply func(*Settings), err error)

type field struct {
	name   string
	decode decoder
}

var fields = []field{
	{FieldShownGroups, decodeGroups},
	{FieldDrawLayerGeojson, scalar(func(s *Settings, v string) { s.DrawLayerGeojson = v })},
	{FieldColorPerActor, scalar(func(s *Settings, v bool) { s.ColorPerActor = v })},
	{FieldUseActorNames, scalar(func(s *Settings, v bool) { s.UseActorNames = v })},
	{FieldUseHexForHashIds, scalar(func(s *Settings, v bool) { s.UseHexForHashIds = v })},
}

// FieldNames returns the known field names in declaration order.
func FieldNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

func lookupField(name string) (field, bool) {
	for _, f := range fields {
		if f.name == name {
			return f, true
		}
	}
	return field{}, false
}

func decodeField(name string, raw json.RawMessage) (func(*Settings), error) {
	f, ok := lookupField(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	apply, err := f.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid value for %s: %w", name, err)
	}
	return apply, nil
}

// Validate checks raw against the named field's decoder without applying it.
func Validate(name string, raw json.RawMessage) error {
	_, err := decodeField(name, raw)
	return err
}

func scalar[T any](assign func(*Settings, T)) decoder {
	return func(raw json.RawMessage) (func(*Settings), error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return func(s *Settings) { assign(s, v) }, nil
	}
}

// decodeGroups builds a set from a sequence; null yields an empty set.
func decodeGroups(raw json.RawMessage) (func(*Settings), error) {
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, err
	}
	set := NewGroupSet(names...)
	return func(s *Settings) { s.ShownGroups = set }, nil
}

// Decode parses a persisted blob. An empty blob means an empty record; every
// field missing from the record takes its default. Unknown keys are ignored.
func Decode(data string) (Settings, error) {
	out := Defaults()
	if data == "" {
		return out, nil
	}

	var record map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}

	for _, f := range fields {
		raw, ok := record[f.name]
		if !ok {
			continue
		}
		apply, err := f.decode(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: field %s: %v", ErrMalformedBlob, f.name, err)
		}
		apply(&out)
	}
	return out, nil
}

// Encode serializes s into the persisted layout.
func Encode(s Settings) ([]byte, error) {
	return json.Marshal(toBlob(s))
}

func toBlob(s Settings) blob {
	return blob{
		ShownGroups:      s.ShownGroups.Slice(),
		DrawLayerGeojson: s.DrawLayerGeojson,
		ColorPerActor:    s.ColorPerActor,
		UseActorNames:    s.UseActorNames,
		UseHexForHashIds: s.UseHexForHashIds,
	}
}
