// Package optimize rewrites operation trees into cheaper equivalent forms.
// Every rule preserves the evaluated dictionary and the error behavior of
// the original tree; rules that cannot guarantee that for a particular
// shape leave the shape alone.
package optimize

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/dmbarbour/glas-ns/pkg/collections"
	"github.com/dmbarbour/glas-ns/pkg/nsop"
	"github.com/dmbarbour/glas-ns/pkg/prefixmap"
)

// peephole rounds per operation list; a removal can hoist past each move
// at most once, so realistic lists settle well inside this bound.
const maxRounds = 64

type OptimizerOption func(*Optimizer) *Optimizer

// WithLogger sets the logger used for trace output.
func WithLogger(logger zerolog.Logger) OptimizerOption {
	return func(o *Optimizer) *Optimizer {
		o.logger = logger
		return o
	}
}

var defaultOptions = []OptimizerOption{
	WithLogger(zerolog.Nop()),
}

// Optimizer is a behavior-preserving pre-pass over operation trees.
type Optimizer struct {
	logger zerolog.Logger
}

func NewOptimizer(options ...OptimizerOption) *Optimizer {
	o := &Optimizer{}
	for _, opt := range append(defaultOptions, options...) {
		o = opt(o)
	}
	return o
}

// Optimize returns an operation equivalent to op. The input is never
// modified; untouched subtrees are shared.
func (o *Optimizer) Optimize(op *nsop.Op) *nsop.Op {
	out := o.rewrite(op)
	if out.Hash() != op.Hash() {
		o.logger.Debug().
			Str("before", op.String()).
			Str("after", out.String()).
			Msg("optimized")
	}
	return out
}

func (o *Optimizer) rewrite(op *nsop.Op) *nsop.Op {
	switch op.Kind() {
	case nsop.KindNs:
		ops, changed := o.rewriteList(op.Ops())
		if !changed {
			return op
		}
		return nsop.Ns(op.Defs(), ops...)
	case nsop.KindMx:
		ops, _ := o.rewriteList(op.Ops())
		if len(ops) == 1 {
			return ops[0]
		}
		return nsop.Mx(ops...)
	case nsop.KindTl:
		return o.rewriteTl(op)
	default:
		return op
	}
}

// rewriteTl merges translation chains and unwraps degenerate forms. The
// chain check runs before the children are rewritten: collapsing the
// inner translation first would hide the chain.
func (o *Optimizer) rewriteTl(op *nsop.Op) *nsop.Op {
	m := op.Map()
	// identity map: the rename contributes nothing
	if m.Len() == 0 {
		return o.rewrite(nsop.Mx(op.Ops()...))
	}
	// a sole translated child folds into one map application
	if len(op.Ops()) == 1 && op.Ops()[0].Kind() == nsop.KindTl {
		inner := op.Ops()[0]
		merged := prefixmap.ComposeFollowedBy(inner.Map(), m)
		return o.rewriteTl(nsop.Tl(merged, inner.Ops()...))
	}
	ops, _ := o.rewriteList(op.Ops())
	// with nothing to translate and no undefine rules, the rename is a
	// plain move-then-link; undefine rules must keep tl's silent-drop
	// boundary
	if len(ops) == 0 && !m.HasUndefine() {
		return nsop.Mx(nsop.Mv(m), nsop.Ln(m))
	}
	return nsop.Tl(m, ops...)
}

// rewriteList rewrites each child, flattens nested sequences, and runs
// the peephole rules until they stop firing.
func (o *Optimizer) rewriteList(ops []*nsop.Op) ([]*nsop.Op, bool) {
	out := make([]*nsop.Op, 0, len(ops))
	changed := false
	for _, op := range ops {
		next := o.rewrite(op)
		if next != op {
			changed = true
		}
		if next.Kind() == nsop.KindMx {
			out = append(out, next.Ops()...)
			changed = true
			continue
		}
		out = append(out, next)
	}
	for round := 0; round < maxRounds; round++ {
		next, fired := peephole(out)
		if !fired {
			break
		}
		out = next
		changed = true
	}
	return out, changed
}

// peephole applies one adjacent-pair rule and reports whether any fired.
func peephole(ops []*nsop.Op) ([]*nsop.Op, bool) {
	for i := 0; i+1 < len(ops); i++ {
		a, b := ops[i], ops[i+1]
		switch {
		case a.Kind() == nsop.KindRm && b.Kind() == nsop.KindRm:
			ops[i] = nsop.RmSet(a.Prefixes().Union(b.Prefixes()))
			return collections.SliceRemoveIndex(ops, i+1), true

		case a.Kind() == nsop.KindLn && b.Kind() == nsop.KindLn:
			ops[i] = nsop.Ln(prefixmap.ComposeFollowedBy(a.Map(), b.Map()))
			return collections.SliceRemoveIndex(ops, i+1), true

		case a.Kind() == nsop.KindMv && b.Kind() == nsop.KindMv &&
			!a.Map().HasUndefine() && !b.Map().HasUndefine():
			ops[i] = nsop.Mv(prefixmap.ComposeFollowedBy(a.Map(), b.Map()))
			return collections.SliceRemoveIndex(ops, i+1), true

		case a.Kind() == nsop.KindMv && b.Kind() == nsop.KindRm:
			pre, post := TranslateRemovals(b.Prefixes(), a.Map())
			if pre.IsEmpty() && post.IsEmpty() {
				// the move leaves nothing for the removal to match
				return collections.SliceRemoveIndex(ops, i+1), true
			}
			if pre.IsEmpty() {
				continue
			}
			ops[i] = nsop.RmSet(pre)
			ops[i+1] = a
			if post.IsEmpty() {
				return ops, true
			}
			return collections.SliceInsertAt(ops, i+2, nsop.RmSet(post)), true
		}
	}
	return ops, false
}

// TranslateRemovals splits a removal set that runs after a move into the
// part that can run before it and the part that must stay behind. For a
// prefix untouched by the map the removal commutes as is; a prefix the
// map rewrites into is reached instead through the preimage of the
// rewrite; a prefix that only some of a matched region leaves must keep
// running after the move. Maps with undefine rules or nested keys are
// not split (the whole set stays behind): an undefine turns the move
// into an error on contact, and nested keys make prefix preimages
// ambiguous.
func TranslateRemovals(set prefixmap.PrefixSet, m *prefixmap.PrefixMap) (pre, post prefixmap.PrefixSet) {
	if m.HasUndefine() || hasNestedKeys(m) {
		return nil, set
	}
	var before, after []string
	for _, p := range set {
		partial := false
		covered := false
		for _, k := range m.Keys() {
			if strings.HasPrefix(p, k) {
				// the whole region moves; preimages below decide what
				// lands back inside p
				covered = true
				break
			}
			if strings.HasPrefix(k, p) {
				partial = true
				break
			}
		}
		if partial {
			// the trailing removal already catches whatever the map
			// sends into p, so no preimages are needed for it
			after = append(after, p)
			continue
		}
		if !covered {
			before = append(before, p)
		}
		for _, e := range m.Entries() {
			switch {
			case strings.HasPrefix(p, e.To):
				before = append(before, e.Key+p[len(e.To):])
			case strings.HasPrefix(e.To, p):
				before = append(before, e.Key)
			}
		}
	}
	return prefixmap.NewPrefixSet(before...), prefixmap.NewPrefixSet(after...)
}

func hasNestedKeys(m *prefixmap.PrefixMap) bool {
	keys := m.Keys()
	for i := 0; i+1 < len(keys); i++ {
		if strings.HasPrefix(keys[i+1], keys[i]) {
			return true
		}
	}
	return false
}
