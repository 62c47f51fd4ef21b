// Package nsop defines the six namespace operation kinds. Operation trees
// are finite, acyclic, and immutable once constructed; the evaluator folds
// them against a tacit dictionary.
package nsop

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/dmbarbour/glas-ns/pkg/collections"
	"github.com/dmbarbour/glas-ns/pkg/prefixmap"
	"github.com/dmbarbour/glas-ns/pkg/term"
)

// Kind identifies an operation.
type Kind int

const (
	// KindNs introduces literal definitions, threads child operations over
	// them, and unifies the result with the outer dictionary.
	KindNs Kind = iota
	// KindMx is sequential composition; Mx() is the identity operation.
	KindMx
	// KindLn rewrites free references inside every bound definition.
	KindLn
	// KindMv rewrites binding keys without touching definitions.
	KindMv
	// KindRm unbinds every name matching one of the given prefixes.
	KindRm
	// KindTl applies child operations to the dictionary as seen through a
	// prefix map.
	KindTl
)

func (k Kind) String() string {
	switch k {
	case KindNs:
		return "ns"
	case KindMx:
		return "mx"
	case KindLn:
		return "ln"
	case KindMv:
		return "mv"
	case KindRm:
		return "rm"
	case KindTl:
		return "tl"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Op is one node of an operation tree.
type Op struct {
	kind Kind
	defs map[string]*term.Term
	ops  []*Op
	pm   *prefixmap.PrefixMap
	rm   prefixmap.PrefixSet
	hash string
}

// Ns constructs a namespace-literal operation.
func Ns(defs map[string]*term.Term, ops ...*Op) *Op {
	copied := make(map[string]*term.Term, len(defs))
	for name, def := range defs {
		copied[name] = def
	}
	return newOp(&Op{kind: KindNs, defs: copied, ops: copyOps(ops)})
}

// Mx constructs a sequential composition of operations.
func Mx(ops ...*Op) *Op {
	return newOp(&Op{kind: KindMx, ops: copyOps(ops)})
}

// Ln constructs a link operation over the given map.
func Ln(m *prefixmap.PrefixMap) *Op {
	return newOp(&Op{kind: KindLn, pm: m})
}

// Mv constructs a move operation over the given map.
func Mv(m *prefixmap.PrefixMap) *Op {
	return newOp(&Op{kind: KindMv, pm: m})
}

// Rm constructs a remove operation; the prefix set is minimized.
func Rm(prefixes ...string) *Op {
	return RmSet(prefixmap.NewPrefixSet(prefixes...))
}

// RmSet constructs a remove operation from an already minimal set.
func RmSet(set prefixmap.PrefixSet) *Op {
	return newOp(&Op{kind: KindRm, rm: set})
}

// Tl constructs a translate operation: ops evaluated as seen through m.
func Tl(m *prefixmap.PrefixMap, ops ...*Op) *Op {
	return newOp(&Op{kind: KindTl, pm: m, ops: copyOps(ops)})
}

func copyOps(ops []*Op) []*Op {
	copied := make([]*Op, len(ops))
	copy(copied, ops)
	return copied
}

func newOp(op *Op) *Op {
	op.hash = computeHash(op)
	return op
}

// Kind returns the operation kind.
func (o *Op) Kind() Kind { return o.kind }

// Defs returns the literal definitions of an ns operation. Callers must
// not modify the map.
func (o *Op) Defs() map[string]*term.Term { return o.defs }

// DefNames returns the sorted names of an ns operation's literals.
func (o *Op) DefNames() []string {
	names := make([]string, 0, len(o.defs))
	for name := range o.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ops returns the child operations. Callers must not modify the slice.
func (o *Op) Ops() []*Op { return o.ops }

// Map returns the prefix map of an ln, mv, or tl operation.
func (o *Op) Map() *prefixmap.PrefixMap { return o.pm }

// Prefixes returns the removal set of an rm operation.
func (o *Op) Prefixes() prefixmap.PrefixSet { return o.rm }

// Hash returns the content hash of the operation tree.
func (o *Op) Hash() string { return o.hash }

// String implements fmt.Stringer
func (o *Op) String() string {
	switch o.kind {
	case KindNs:
		return fmt.Sprintf("ns(%d defs, %d ops)", len(o.defs), len(o.ops))
	case KindMx:
		return fmt.Sprintf("mx(%d ops)", len(o.ops))
	case KindLn:
		return fmt.Sprintf("ln%v", o.pm)
	case KindMv:
		return fmt.Sprintf("mv%v", o.pm)
	case KindRm:
		return fmt.Sprintf("rm%v", o.rm)
	case KindTl:
		return fmt.Sprintf("tl(%v, %d ops)", o.pm, len(o.ops))
	}
	return o.kind.String()
}

func computeHash(o *Op) string {
	var buf bytes.Buffer
	buf.WriteString(strconv.Itoa(int(o.kind)))
	buf.WriteByte(':')
	for _, name := range o.DefNames() {
		buf.WriteString(strconv.Itoa(len(name)))
		buf.WriteByte(':')
		buf.WriteString(name)
		buf.WriteString(o.defs[name].Hash())
	}
	if o.pm != nil {
		for _, e := range o.pm.Entries() {
			buf.WriteString(strconv.Itoa(len(e.Key)))
			buf.WriteByte(':')
			buf.WriteString(e.Key)
			if e.Undefine {
				buf.WriteByte('!')
			} else {
				buf.WriteString(strconv.Itoa(len(e.To)))
				buf.WriteByte(':')
				buf.WriteString(e.To)
			}
		}
	}
	for _, p := range o.rm {
		buf.WriteString(strconv.Itoa(len(p)))
		buf.WriteByte(':')
		buf.WriteString(p)
	}
	for _, child := range o.ops {
		buf.WriteString(child.hash)
	}
	return collections.Sha256Bytes(buf.Bytes())
}
