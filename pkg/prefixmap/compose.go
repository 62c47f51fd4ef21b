package prefixmap

import "strings"

// ComposeFollowedBy computes the map equivalent to applying a and then
// applying b to the result.
//
// a is first unsimplified at every cut point where b's keys become
// observable: at b's keys themselves, for names a leaves unchanged, and at
// the preimage of each b key under every rewrite of a. Every refined entry
// then routes its replacement prefix through b. Entries of b whose region
// a never touches carry over as-is; deeper entries of a win over them by
// the longest-prefix rule.
func ComposeFollowedBy(a, b *PrefixMap) *PrefixMap {
	if a.Len() == 0 {
		return b
	}
	if b.Len() == 0 {
		return a
	}

	coverage := make([]string, 0, b.Len())
	for _, bk := range b.Keys() {
		coverage = append(coverage, bk)
		for _, ae := range a.Entries() {
			if ae.Undefine {
				continue
			}
			if len(ae.To) < len(bk) && strings.HasPrefix(bk, ae.To) {
				coverage = append(coverage, ae.Key+bk[len(ae.To):])
			}
		}
	}
	ax := a.Unsimplify(coverage...)

	out := make([]Entry, 0, ax.Len()+b.Len())
	for _, ae := range ax.Entries() {
		if ae.Undefine {
			out = append(out, ae)
			continue
		}
		be, ok := b.LookupPrefix(ae.To)
		switch {
		case !ok:
			out = append(out, ae)
		case be.Undefine:
			out = append(out, Undefine(ae.Key))
		default:
			out = append(out, Rename(ae.Key, be.To+ae.To[len(be.Key):]))
		}
	}
	for _, be := range b.Entries() {
		if _, shadowed := ax.Get(be.Key); shadowed {
			continue
		}
		out = append(out, be)
	}
	return MustNew(out...).Simplify()
}
