// Package dict implements the tacit dictionary threaded through namespace
// operations: a partial function from names to definitions, where a name
// may transiently hold several candidate definitions pending conflict
// resolution. Dictionaries are values; every operation returns a new one.
package dict

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/dmbarbour/glas-ns/pkg/collections"
	"github.com/dmbarbour/glas-ns/pkg/prefixmap"
	"github.com/dmbarbour/glas-ns/pkg/term"
)

// Binding associates a name with its candidate definitions. More than one
// candidate marks the name as ambiguous until conflict resolution; the
// candidates are structurally distinct by construction.
type Binding struct {
	// Name is the bound name.
	Name string
	// Defs holds the candidate definitions, in insertion order.
	Defs []*term.Term
}

// IsAmbiguous reports whether the binding still has competing candidates.
func (b *Binding) IsAmbiguous() bool { return len(b.Defs) > 1 }

// Definition returns the sole definition of an unambiguous binding.
func (b *Binding) Definition() *term.Term { return b.Defs[0] }

// Dict is an immutable dictionary. The zero value is not usable; use New
// or FromDefs.
type Dict struct {
	bindings map[string]*Binding
	names    []string // sorted
}

// New returns the empty dictionary.
func New() *Dict {
	return &Dict{bindings: map[string]*Binding{}}
}

// FromDefs builds a dictionary of unambiguous literal bindings.
func FromDefs(defs map[string]*term.Term) *Dict {
	b := NewBuilder()
	for name, def := range defs {
		b.Add(name, def)
	}
	return b.Build()
}

// Len returns the number of bound names.
func (d *Dict) Len() int { return len(d.names) }

// Names returns the bound names in sorted order. Callers must not modify
// the slice.
func (d *Dict) Names() []string { return d.names }

// Get returns the binding for a name.
func (d *Dict) Get(name string) (*Binding, bool) {
	b, ok := d.bindings[name]
	return b, ok
}

// Definition returns the sole definition bound to name, if the name is
// bound and unambiguous.
func (d *Dict) Definition(name string) (*term.Term, bool) {
	b, ok := d.bindings[name]
	if !ok || b.IsAmbiguous() {
		return nil, false
	}
	return b.Definition(), true
}

// Bindings returns all bindings in sorted name order.
func (d *Dict) Bindings() []*Binding {
	out := make([]*Binding, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, d.bindings[name])
	}
	return out
}

// Ambiguous returns the bindings that still have competing candidates, in
// sorted name order.
func (d *Dict) Ambiguous() []*Binding {
	var out []*Binding
	for _, name := range d.names {
		if b := d.bindings[name]; b.IsAmbiguous() {
			out = append(out, b)
		}
	}
	return out
}

// NamesUnder returns the sorted bound names matched by the given prefix.
func (d *Dict) NamesUnder(prefix string) []string {
	// sorted order makes the covered names a contiguous range
	start := sort.SearchStrings(d.names, prefix)
	var out []string
	for _, name := range d.names[start:] {
		if !strings.HasPrefix(name, prefix) {
			break
		}
		out = append(out, name)
	}
	return out
}

// Union merges two dictionaries, accumulating candidate definitions where
// names collide. Structurally identical definitions merge silently.
func (d *Dict) Union(o *Dict) *Dict {
	if o.Len() == 0 {
		return d
	}
	if d.Len() == 0 {
		return o
	}
	b := newBuilderFrom(d)
	for _, name := range o.names {
		b.AddBinding(o.bindings[name])
	}
	return b.Build()
}

// RemovePrefixes returns the dictionary without any name matched by the
// set.
func (d *Dict) RemovePrefixes(set prefixmap.PrefixSet) *Dict {
	if set.IsEmpty() || d.Len() == 0 {
		return d
	}
	b := NewBuilder()
	for _, name := range d.names {
		if set.MatchesName(name) {
			continue
		}
		b.AddBinding(d.bindings[name])
	}
	if b.Len() == d.Len() {
		return d
	}
	return b.Build()
}

// RenameNames rebinds every definition under the name fn yields. Names fn
// undefines are dropped from the result and reported back, sorted, so the
// caller can decide whether dropping is legal in its context. Collisions
// created by the rename accumulate as candidates.
func (d *Dict) RenameNames(fn term.RenameFunc) (*Dict, []string) {
	b := NewBuilder()
	var dropped []string
	changed := false
	for _, name := range d.names {
		binding := d.bindings[name]
		next, action := fn(name)
		switch action {
		case term.Keep:
			b.AddBinding(binding)
		case term.Rename:
			// a permuting map keeps the name set intact while still
			// rebinding, so the identity check must be per name
			if next != name {
				changed = true
			}
			for _, def := range binding.Defs {
				b.Add(next, def)
			}
		case term.Undefine:
			changed = true
			dropped = append(dropped, name)
		}
	}
	if !changed {
		return d, nil
	}
	sort.Strings(dropped)
	return b.Build(), dropped
}

// RewriteRefs rewrites the free references inside every candidate
// definition; binding keys are unchanged.
func (d *Dict) RewriteRefs(fn term.RenameFunc) *Dict {
	b := NewBuilder()
	changed := false
	for _, name := range d.names {
		for _, def := range d.bindings[name].Defs {
			next := def.RewriteFreeRefs(fn)
			if next != def {
				changed = true
			}
			b.Add(name, next)
		}
	}
	if !changed {
		return d
	}
	return b.Build()
}

// Fingerprint returns a content hash of the dictionary, stable across
// construction order.
func (d *Dict) Fingerprint() string {
	var buf bytes.Buffer
	for _, name := range d.names {
		buf.WriteString(strconv.Itoa(len(name)))
		buf.WriteByte(':')
		buf.WriteString(name)
		for _, def := range d.bindings[name].Defs {
			buf.WriteString(def.Hash())
		}
	}
	return collections.Sha256Bytes(buf.Bytes())
}

// Builder accumulates bindings for a new dictionary.
type Builder struct {
	bindings map[string]*Binding
	owned    map[string]bool // bindings this builder may append to
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{bindings: map[string]*Binding{}, owned: map[string]bool{}}
}

func newBuilderFrom(d *Dict) *Builder {
	b := NewBuilder()
	for name, binding := range d.bindings {
		b.bindings[name] = binding
	}
	return b
}

// Len returns the number of names accumulated so far.
func (b *Builder) Len() int { return len(b.bindings) }

// Add puts one candidate definition under a name, merging structural
// duplicates silently.
func (b *Builder) Add(name string, def *term.Term) {
	existing, ok := b.bindings[name]
	if !ok {
		b.bindings[name] = &Binding{Name: name, Defs: []*term.Term{def}}
		b.owned[name] = true
		return
	}
	for _, have := range existing.Defs {
		if term.Equal(have, def) {
			return
		}
	}
	if !b.owned[name] {
		// shared with a source dictionary; copy before appending
		defs := make([]*term.Term, len(existing.Defs), len(existing.Defs)+1)
		copy(defs, existing.Defs)
		existing = &Binding{Name: name, Defs: defs}
		b.bindings[name] = existing
		b.owned[name] = true
	}
	existing.Defs = append(existing.Defs, def)
}

// AddBinding merges every candidate of the given binding.
func (b *Builder) AddBinding(binding *Binding) {
	if _, ok := b.bindings[binding.Name]; !ok {
		b.bindings[binding.Name] = binding
		return
	}
	for _, def := range binding.Defs {
		b.Add(binding.Name, def)
	}
}

// Build finalizes the accumulated bindings into a dictionary.
func (b *Builder) Build() *Dict {
	names := make([]string, 0, len(b.bindings))
	for name := range b.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Dict{bindings: b.bindings, names: names}
}
