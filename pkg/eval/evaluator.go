// Package eval folds namespace operation trees over a tacit dictionary.
package eval

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dmbarbour/glas-ns/pkg/collections"
	"github.com/dmbarbour/glas-ns/pkg/dict"
	"github.com/dmbarbour/glas-ns/pkg/nsop"
	"github.com/dmbarbour/glas-ns/pkg/prefixmap"
	"github.com/dmbarbour/glas-ns/pkg/term"
)

const defaultMaxDepth = 10000

type EvaluatorOption func(*Evaluator) *Evaluator

// WithLogger sets the logger used for trace output.
func WithLogger(logger zerolog.Logger) EvaluatorOption {
	return func(e *Evaluator) *Evaluator {
		e.logger = logger
		return e
	}
}

// WithMemo caches sub-evaluations keyed by operation hash and input
// dictionary fingerprint. Safe because operations and dictionaries are
// immutable.
func WithMemo(memo *Memo) EvaluatorOption {
	return func(e *Evaluator) *Evaluator {
		e.memo = memo
		return e
	}
}

// WithMaxDepth overrides the recursion depth bound.
func WithMaxDepth(depth int) EvaluatorOption {
	return func(e *Evaluator) *Evaluator {
		e.maxDepth = depth
		return e
	}
}

// WithParallelism allows up to n namespace branches to be evaluated
// concurrently. Branch-local evaluations have no data dependency on the
// tacit dictionary, so only the union step is ordered.
func WithParallelism(n int) EvaluatorOption {
	return func(e *Evaluator) *Evaluator {
		if n > 0 {
			e.parallelism = n
		}
		return e
	}
}

var defaultOptions = []EvaluatorOption{
	WithLogger(zerolog.Nop()),
	WithMaxDepth(defaultMaxDepth),
	WithParallelism(1),
}

// Evaluator interprets operation trees. The zero value is not usable; use
// NewEvaluator.
type Evaluator struct {
	logger      zerolog.Logger
	memo        *Memo
	maxDepth    int
	parallelism int
}

func NewEvaluator(options ...EvaluatorOption) *Evaluator {
	e := &Evaluator{}
	for _, opt := range append(defaultOptions, options...) {
		e = opt(e)
	}
	return e
}

// Eval folds op over the tacit dictionary and finalizes the result. The
// returned dictionary has exactly one definition per name; lingering
// ambiguity is reported as an AmbiguousDefinitionError for the smallest
// such name.
func (e *Evaluator) Eval(ctx context.Context, op *nsop.Op, tacit *dict.Dict) (*dict.Dict, error) {
	if tacit == nil {
		tacit = dict.New()
	}
	d, err := e.evalOp(ctx, op, tacit, 0)
	if err != nil {
		return nil, err
	}
	if err := Finalize(d); err != nil {
		var amb *AmbiguousDefinitionError
		if errors.As(err, &amb) {
			e.logger.Debug().
				Str("name", amb.Name).
				Str("candidates", collections.Dump(amb.Defs)).
				Msg("finalization failed")
		}
		return nil, err
	}
	return d, nil
}

func (e *Evaluator) evalOp(ctx context.Context, op *nsop.Op, d *dict.Dict, depth int) (*dict.Dict, error) {
	if depth > e.maxDepth {
		return nil, &NonTerminatingStructureError{Depth: e.maxDepth}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.memo != nil {
		if cached, ok := e.memo.Get(op, d); ok {
			return cached, nil
		}
	}

	e.logger.Debug().
		Stringer("op", op.Kind()).
		Int("bound", d.Len()).
		Msg("evaluating")

	var out *dict.Dict
	var err error
	switch op.Kind() {
	case nsop.KindNs:
		out, err = e.evalNs(ctx, op, d, depth)
	case nsop.KindMx:
		out, err = e.foldOps(ctx, op.Ops(), d, depth)
	case nsop.KindLn:
		out = d.RewriteRefs(refRenamer(op.Map()))
	case nsop.KindMv:
		out, err = evalMv(d, op.Map())
	case nsop.KindRm:
		out = d.RemovePrefixes(op.Prefixes())
	case nsop.KindTl:
		out, err = e.evalTl(ctx, op, d, depth)
	}
	if err != nil {
		return nil, err
	}
	if e.memo != nil {
		e.memo.Put(op, d, out)
	}
	return out, nil
}

// evalNs folds the child operations over a fresh dictionary seeded from
// the literal definitions, then unions the result into the tacit
// dictionary. Overlapping names accumulate candidates; finalization
// decides whether they conflict.
func (e *Evaluator) evalNs(ctx context.Context, op *nsop.Op, d *dict.Dict, depth int) (*dict.Dict, error) {
	local, err := e.evalNsLocal(ctx, op, depth)
	if err != nil {
		return nil, err
	}
	return d.Union(local), nil
}

func (e *Evaluator) evalNsLocal(ctx context.Context, op *nsop.Op, depth int) (*dict.Dict, error) {
	return e.foldOps(ctx, op.Ops(), dict.FromDefs(op.Defs()), depth)
}

// foldOps threads the dictionary through ops in order. Namespace children
// are branch-local computations, so with parallelism enabled their local
// dictionaries are computed concurrently up front and only the ordered
// union remains sequential. The first error by op position wins, keeping
// diagnostics deterministic regardless of scheduling.
func (e *Evaluator) foldOps(ctx context.Context, ops []*nsop.Op, d *dict.Dict, depth int) (*dict.Dict, error) {
	var locals map[int]*dict.Dict
	if e.parallelism > 1 && countNs(ops) > 1 {
		var err error
		locals, err = e.evalBranches(ctx, ops, depth)
		if err != nil {
			return nil, err
		}
	}
	for i, op := range ops {
		if local, ok := locals[i]; ok {
			d = d.Union(local)
			continue
		}
		var err error
		d, err = e.evalOp(ctx, op, d, depth+1)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func countNs(ops []*nsop.Op) int {
	n := 0
	for _, op := range ops {
		if op.Kind() == nsop.KindNs {
			n++
		}
	}
	return n
}

func (e *Evaluator) evalBranches(ctx context.Context, ops []*nsop.Op, depth int) (map[int]*dict.Dict, error) {
	type result struct {
		index int
		local *dict.Dict
		err   error
	}

	sem := make(chan struct{}, e.parallelism)
	results := make(chan result)
	var wg sync.WaitGroup
	for i, op := range ops {
		if op.Kind() != nsop.KindNs {
			continue
		}
		wg.Add(1)
		go func(i int, op *nsop.Op) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			local, err := e.evalNsLocal(ctx, op, depth+1)
			results <- result{index: i, local: local, err: err}
		}(i, op)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	locals := make(map[int]*dict.Dict)
	firstErr := -1
	var err error
	for r := range results {
		if r.err != nil {
			if firstErr < 0 || r.index < firstErr {
				firstErr = r.index
				err = r.err
			}
			continue
		}
		locals[r.index] = r.local
	}
	if err != nil {
		return nil, err
	}
	return locals, nil
}

// evalMv rebinds every name per the map. A name routed to an explicitly
// undefined prefix is an error; deletion is the remove operation's job.
func evalMv(d *dict.Dict, m *prefixmap.PrefixMap) (*dict.Dict, error) {
	out, dropped := d.RenameNames(keyRenamer(m))
	if len(dropped) > 0 {
		return nil, &InvalidMoveTargetError{Name: dropped[0], Map: m}
	}
	return out, nil
}

// evalTl evaluates the child operations against the tacit dictionary and
// renames the net result through the map: binding keys move the way a
// move would, and free references rewrite the way a link would. A key
// routed to an undefined prefix is dropped silently at the boundary, the
// mechanism by which a host hides a component's names.
func (e *Evaluator) evalTl(ctx context.Context, op *nsop.Op, d *dict.Dict, depth int) (*dict.Dict, error) {
	inner, err := e.foldOps(ctx, op.Ops(), d, depth)
	if err != nil {
		return nil, err
	}
	renamed, dropped := inner.RenameNames(keyRenamer(op.Map()))
	if len(dropped) > 0 {
		e.logger.Debug().
			Strs("names", dropped).
			Msg("translation dropped bindings")
	}
	return renamed.RewriteRefs(refRenamer(op.Map())), nil
}

// keyRenamer adapts a prefix map to binding-key rewriting. Undefined
// outcomes surface as drops; the caller decides whether dropping is legal.
func keyRenamer(m *prefixmap.PrefixMap) term.RenameFunc {
	return func(name string) (string, term.Action) {
		next, outcome := m.Apply(name)
		switch outcome {
		case prefixmap.Rewritten:
			if next == name {
				return name, term.Keep
			}
			return next, term.Rename
		case prefixmap.Undefined:
			return "", term.Undefine
		default:
			return name, term.Keep
		}
	}
}

// refRenamer is keyRenamer for free references inside definitions; an
// undefined outcome poisons the reference instead of dropping anything.
func refRenamer(m *prefixmap.PrefixMap) term.RenameFunc {
	return keyRenamer(m)
}

// Finalize verifies that every bound name has exactly one definition.
// Ambiguous names are reported smallest first so diagnostics are stable
// under parallel evaluation.
func Finalize(d *dict.Dict) error {
	ambiguous := d.Ambiguous()
	if len(ambiguous) == 0 {
		return nil
	}
	b := ambiguous[0] // sorted by name
	return &AmbiguousDefinitionError{Name: b.Name, Defs: b.Defs}
}
