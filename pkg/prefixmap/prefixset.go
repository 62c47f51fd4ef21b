package prefixmap

import (
	"sort"
	"strings"
)

// PrefixSet is a removal set: a name is covered when any member prefix
// matches it. Sets are kept in minimal form, holding only the shortest
// prefixes needed; a prefix implies coverage of everything under it.
type PrefixSet []string

// NewPrefixSet constructs a minimal-form set from the given prefixes.
func NewPrefixSet(prefixes ...string) PrefixSet {
	if len(prefixes) == 0 {
		return nil
	}
	sorted := make([]string, len(prefixes))
	copy(sorted, prefixes)
	sort.Strings(sorted)

	var set PrefixSet
	for _, p := range sorted {
		// sorted order guarantees a covering prefix sorts immediately before
		if n := len(set); n > 0 && strings.HasPrefix(p, set[n-1]) {
			continue
		}
		set = append(set, p)
	}
	return set
}

// Union returns the minimal-form union of two sets.
func (s PrefixSet) Union(t PrefixSet) PrefixSet {
	if len(s) == 0 {
		return t
	}
	if len(t) == 0 {
		return s
	}
	return NewPrefixSet(append(append([]string{}, s...), t...)...)
}

// IsEmpty reports whether the set covers nothing.
func (s PrefixSet) IsEmpty() bool { return len(s) == 0 }

// MatchesName reports whether any member prefix matches the given name.
func (s PrefixSet) MatchesName(name string) bool {
	for _, p := range s {
		if MatchesName(p, name) {
			return true
		}
	}
	return false
}

// Covers reports whether the set already covers the whole region of the
// given prefix.
func (s PrefixSet) Covers(prefix string) bool {
	for _, p := range s {
		if strings.HasPrefix(prefix, p) {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer
func (s PrefixSet) String() string {
	quoted := make([]string, len(s))
	for i, p := range s {
		quoted[i] = "\"" + p + "\""
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}
