package settings

// GroupSet is the set of map groups currently shown.
type GroupSet map[string]struct{}

// NewGroupSet builds a set from names. Duplicates collapse.
func NewGroupSet(names ...string) GroupSet {
	set := make(GroupSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Has reports whether name is in the set.
func (g GroupSet) Has(name string) bool {
	_, ok := g[name]
	return ok
}

// Slice returns the members in map iteration order. No sort is applied.
func (g GroupSet) Slice() []string {
	out := make([]string, 0, len(g))
	for n := range g {
		out = append(out, n)
	}
	return out
}

// Equal reports set equality, ignoring order.
func (g GroupSet) Equal(other GroupSet) bool {
	if len(g) != len(other) {
		return false
	}
	for n := range g {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

func (g GroupSet) Clone() GroupSet {
	if g == nil {
		return nil
	}
	out := make(GroupSet, len(g))
	for n := range g {
		out[n] = struct{}{}
	}
	return out
}
