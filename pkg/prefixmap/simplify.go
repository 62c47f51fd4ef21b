package prefixmap

// Simplify returns an equivalent map with every entry removed whose
// outcome is already implied by the nearest shorter entry covering it.
// Lookup results are unchanged for every name. Simplify is idempotent.
func (m *PrefixMap) Simplify() *PrefixMap {
	keep := make([]Entry, 0, m.Len())
	for _, e := range m.Entries() {
		if anc, ok := m.ancestor(e.Key); ok && anc.implies(e) {
			continue
		}
		keep = append(keep, e)
	}
	if len(keep) == m.Len() {
		return m
	}
	return MustNew(keep...)
}

// ancestor finds the entry with the longest key that is a strict prefix of
// the given key.
func (m *PrefixMap) ancestor(key string) (Entry, bool) {
	if key == "" {
		return Entry{}, false
	}
	return m.longest(key[:len(key)-1])
}

// Unsimplify expands the map with redundant entries so that every prefix
// in coverage that the map already matches is keyed exactly. The expansion
// refines granularity only: Lookup results are unchanged for every name.
// The result may hold nested keys and is re-simplified by consumers that
// need normal form.
func (m *PrefixMap) Unsimplify(coverage ...string) *PrefixMap {
	entries := m.Entries()
	added := false
	seen := make(map[string]bool, len(coverage))
	for _, p := range coverage {
		if seen[p] {
			continue
		}
		seen[p] = true
		if _, exact := m.rules[p]; exact {
			continue
		}
		anc, ok := m.LookupPrefix(p)
		if !ok || len(anc.Key) >= len(p) {
			continue
		}
		entries = append(entries, anc.extend(p[len(anc.Key):]))
		added = true
	}
	if !added {
		return m
	}
	return MustNew(entries...)
}
