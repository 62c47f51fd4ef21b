// Package term models definitions as opaque finite trees that may contain
// free references to dictionary names. The composition engine only needs
// to enumerate and rewrite those references; any further structure belongs
// to the program layer.
package term

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/dmbarbour/glas-ns/pkg/collections"
)

// Kind discriminates the structural forms of a term.
type Kind int

const (
	// KindRef is a free reference to a dictionary name.
	KindRef Kind = iota
	// KindData is an opaque leaf payload.
	KindData
	// KindNode is a labeled constructor over child terms.
	KindNode
	// KindBind introduces locally bound names scoped to its body.
	KindBind
	// KindSelf is a deferred-fixpoint marker for self reference. It stays
	// opaque here; a fixpoint pass outside this engine closes the loop.
	KindSelf
	// KindUndefined marks a reference erased by an explicit undefine rule.
	KindUndefined
)

func (k Kind) String() string {
	switch k {
	case KindRef:
		return "ref"
	case KindData:
		return "data"
	case KindNode:
		return "node"
	case KindBind:
		return "bind"
	case KindSelf:
		return "self"
	case KindUndefined:
		return "undefined"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Term is one immutable node of a definition tree. Terms are compared
// structurally and carry a content hash computed at construction.
type Term struct {
	kind  Kind
	label string
	data  []byte
	bound []string
	kids  []*Term
	hash  string
}

// Ref constructs a free reference to the given name.
func Ref(name string) *Term {
	return newTerm(&Term{kind: KindRef, label: name})
}

// Data constructs an opaque leaf holding a copy of the payload.
func Data(payload []byte) *Term {
	data := make([]byte, len(payload))
	copy(data, payload)
	return newTerm(&Term{kind: KindData, data: data})
}

// Text is Data over a string payload.
func Text(payload string) *Term {
	return newTerm(&Term{kind: KindData, data: []byte(payload)})
}

// Node constructs a labeled term over child terms.
func Node(label string, kids ...*Term) *Term {
	children := make([]*Term, len(kids))
	copy(children, kids)
	return newTerm(&Term{kind: KindNode, label: label, kids: children})
}

// Bind constructs a local binder: references to the given names within
// body are bound, not free.
func Bind(names []string, body *Term) *Term {
	bound := make([]string, len(names))
	copy(bound, names)
	return newTerm(&Term{kind: KindBind, bound: bound, kids: []*Term{body}})
}

// Self constructs a deferred-fixpoint marker referring to the given name.
func Self(name string) *Term {
	return newTerm(&Term{kind: KindSelf, label: name})
}

// Undef constructs the poisoned marker left behind when a free reference
// is rewritten through an explicit undefine rule. It records the original
// name for diagnostics.
func Undef(name string) *Term {
	return newTerm(&Term{kind: KindUndefined, label: name})
}

func newTerm(t *Term) *Term {
	t.hash = computeHash(t)
	return t
}

// Kind returns the structural form of the term.
func (t *Term) Kind() Kind { return t.kind }

// Name returns the referenced name of a ref, self, or undefined term.
func (t *Term) Name() string { return t.label }

// Label returns the constructor label of a node term.
func (t *Term) Label() string { return t.label }

// Bytes returns the payload of a data term. Callers must not modify it.
func (t *Term) Bytes() []byte { return t.data }

// Bound returns the locally bound names of a bind term.
func (t *Term) Bound() []string { return t.bound }

// Children returns the child terms. Callers must not modify the slice.
func (t *Term) Children() []*Term { return t.kids }

// Body returns the scoped body of a bind term.
func (t *Term) Body() *Term {
	if t.kind != KindBind {
		return nil
	}
	return t.kids[0]
}

// Hash returns the content hash of the term.
func (t *Term) Hash() string { return t.hash }

// Equal reports structural equality of two terms. Identical hashes decide
// it: the hash encodes the full structure.
func Equal(a, b *Term) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.hash == b.hash
}

// FreeNames returns the sorted set of names occurring free in the term.
// Self and undefined markers are opaque and contribute nothing.
func (t *Term) FreeNames() []string {
	found := map[string]bool{}
	bound := map[string]int{}
	t.walkFree(bound, func(name string) {
		found[name] = true
	})
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Term) walkFree(bound map[string]int, visit func(name string)) {
	switch t.kind {
	case KindRef:
		if bound[t.label] == 0 {
			visit(t.label)
		}
	case KindBind:
		for _, n := range t.bound {
			bound[n]++
		}
		t.kids[0].walkFree(bound, visit)
		for _, n := range t.bound {
			bound[n]--
		}
	case KindNode:
		for _, kid := range t.kids {
			kid.walkFree(bound, visit)
		}
	}
}

// String implements fmt.Stringer
func (t *Term) String() string {
	var buf bytes.Buffer
	t.render(&buf)
	return buf.String()
}

func (t *Term) render(buf *bytes.Buffer) {
	switch t.kind {
	case KindRef:
		fmt.Fprintf(buf, "ref:%q", t.label)
	case KindData:
		fmt.Fprintf(buf, "data:%q", t.data)
	case KindSelf:
		fmt.Fprintf(buf, "self:%q", t.label)
	case KindUndefined:
		fmt.Fprintf(buf, "undefined:%q", t.label)
	case KindBind:
		fmt.Fprintf(buf, "bind%v(", t.bound)
		t.kids[0].render(buf)
		buf.WriteString(")")
	case KindNode:
		fmt.Fprintf(buf, "%s(", t.label)
		for i, kid := range t.kids {
			if i > 0 {
				buf.WriteString(", ")
			}
			kid.render(buf)
		}
		buf.WriteString(")")
	}
}

// computeHash builds the content hash from the node's own fields and the
// hashes of its children, so construction stays linear overall.
func computeHash(t *Term) string {
	var buf bytes.Buffer
	buf.WriteString(strconv.Itoa(int(t.kind)))
	buf.WriteByte(':')
	buf.WriteString(strconv.Itoa(len(t.label)))
	buf.WriteByte(':')
	buf.WriteString(t.label)
	buf.WriteString(strconv.Itoa(len(t.data)))
	buf.WriteByte(':')
	buf.Write(t.data)
	for _, n := range t.bound {
		buf.WriteString(strconv.Itoa(len(n)))
		buf.WriteByte(':')
		buf.WriteString(n)
	}
	for _, kid := range t.kids {
		buf.WriteString(kid.hash)
	}
	return collections.Sha256Bytes(buf.Bytes())
}
