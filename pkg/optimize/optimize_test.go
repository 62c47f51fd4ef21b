package optimize

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmbarbour/glas-ns/pkg/dict"
	"github.com/dmbarbour/glas-ns/pkg/eval"
	"github.com/dmbarbour/glas-ns/pkg/nsop"
	"github.com/dmbarbour/glas-ns/pkg/prefixmap"
	"github.com/dmbarbour/glas-ns/pkg/term"
)

func TestTranslateRemovals(t *testing.T) {
	for name, tc := range map[string]struct {
		set      prefixmap.PrefixSet
		m        *prefixmap.PrefixMap
		wantPre  prefixmap.PrefixSet
		wantPost prefixmap.PrefixSet
	}{
		"untouched prefix hoists unchanged": {
			set:     prefixmap.NewPrefixSet("b."),
			m:       prefixmap.MustNew(prefixmap.Rename("a.", "x.")),
			wantPre: prefixmap.NewPrefixSet("b."),
		},
		"removal of the rewrite image reaches back through the preimage": {
			set:     prefixmap.NewPrefixSet("x.", "b."),
			m:       prefixmap.MustNew(prefixmap.Rename("a.", "x.")),
			wantPre: prefixmap.NewPrefixSet("a.", "b.", "x."),
		},
		"deep image prefix narrows the preimage": {
			set:     prefixmap.NewPrefixSet("x.sub."),
			m:       prefixmap.MustNew(prefixmap.Rename("a.", "x.")),
			wantPre: prefixmap.NewPrefixSet("a.sub.", "x.sub."),
		},
		"partially moved region stays behind": {
			set:      prefixmap.NewPrefixSet("a."),
			m:        prefixmap.MustNew(prefixmap.Rename("a.b.", "y.")),
			wantPost: prefixmap.NewPrefixSet("a."),
		},
		"fully moved region vanishes": {
			set: prefixmap.NewPrefixSet("a.foo"),
			m:   prefixmap.MustNew(prefixmap.Rename("a.", "x.")),
		},
		"undefine rule blocks the split": {
			set:      prefixmap.NewPrefixSet("b."),
			m:        prefixmap.MustNew(prefixmap.Undefine("a.")),
			wantPost: prefixmap.NewPrefixSet("b."),
		},
		"nested keys block the split": {
			set: prefixmap.NewPrefixSet("b."),
			m: prefixmap.MustNew(
				prefixmap.Rename("a.", "x."),
				prefixmap.Rename("a.b.", "y."),
			),
			wantPost: prefixmap.NewPrefixSet("b."),
		},
	} {
		t.Run(name, func(t *testing.T) {
			pre, post := TranslateRemovals(tc.set, tc.m)
			if diff := cmp.Diff(tc.wantPre, pre); diff != "" {
				t.Errorf("pre (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantPost, post); diff != "" {
				t.Errorf("post (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOptimizeFlattensSequences(t *testing.T) {
	a := nsop.Ns(map[string]*term.Term{"a": term.Text("A")})
	b := nsop.Ns(map[string]*term.Term{"b": term.Text("B")})
	c := nsop.Ns(map[string]*term.Term{"c": term.Text("C")})

	got := NewOptimizer().Optimize(nsop.Mx(nsop.Mx(a, b), c))
	want := nsop.Mx(a, b, c)
	assert.Equal(t, want.Hash(), got.Hash())

	// a singleton sequence unwraps entirely
	got = NewOptimizer().Optimize(nsop.Mx(nsop.Mx(a)))
	assert.Equal(t, a.Hash(), got.Hash())
}

func TestOptimizeFusesAdjacentPairs(t *testing.T) {
	for name, tc := range map[string]struct {
		in   *nsop.Op
		want *nsop.Op
	}{
		"removals union": {
			in:   nsop.Mx(nsop.Rm("a."), nsop.Rm("b.", "a.x")),
			want: nsop.Rm("a.", "b."),
		},
		"links compose": {
			in: nsop.Mx(
				nsop.Ln(prefixmap.MustNew(prefixmap.Rename("a.", "b."))),
				nsop.Ln(prefixmap.MustNew(prefixmap.Rename("b.", "c."))),
			),
			want: nsop.Ln(prefixmap.MustNew(
				prefixmap.Rename("a.", "c."),
				prefixmap.Rename("b.", "c."),
			)),
		},
		"moves compose": {
			in: nsop.Mx(
				nsop.Mv(prefixmap.MustNew(prefixmap.Rename("a.", "b."))),
				nsop.Mv(prefixmap.MustNew(prefixmap.Rename("b.", "c."))),
			),
			want: nsop.Mv(prefixmap.MustNew(
				prefixmap.Rename("a.", "c."),
				prefixmap.Rename("b.", "c."),
			)),
		},
	} {
		t.Run(name, func(t *testing.T) {
			got := NewOptimizer().Optimize(tc.in)
			assert.Equal(t, tc.want.Hash(), got.Hash())
		})
	}
}

func TestOptimizeKeepsMoveWithUndefineUnfused(t *testing.T) {
	// fusing would change which operation reports the invalid target
	first := nsop.Mv(prefixmap.MustNew(prefixmap.Undefine("a.")))
	second := nsop.Mv(prefixmap.MustNew(prefixmap.Rename("b.", "c.")))
	got := NewOptimizer().Optimize(nsop.Mx(first, second))
	require.Equal(t, nsop.KindMx, got.Kind())
	assert.Len(t, got.Ops(), 2)
}

func TestOptimizeHoistsRemovalBeforeMove(t *testing.T) {
	m := prefixmap.MustNew(prefixmap.Rename("a.", "x."))
	got := NewOptimizer().Optimize(nsop.Mx(nsop.Mv(m), nsop.Rm("x.", "b.")))

	require.Equal(t, nsop.KindMx, got.Kind())
	require.Len(t, got.Ops(), 2)
	assert.Equal(t, nsop.KindRm, got.Ops()[0].Kind())
	assert.Equal(t, nsop.KindMv, got.Ops()[1].Kind())
	if diff := cmp.Diff(prefixmap.NewPrefixSet("a.", "b.", "x."), got.Ops()[0].Prefixes()); diff != "" {
		t.Errorf("hoisted prefixes (-want +got):\n%s", diff)
	}
}

func TestOptimizeDropsDeadRemoval(t *testing.T) {
	m := prefixmap.MustNew(prefixmap.Rename("a.", "x."))
	got := NewOptimizer().Optimize(nsop.Mx(nsop.Mv(m), nsop.Rm("a.foo")))
	assert.Equal(t, nsop.Mv(m).Hash(), got.Hash())
}

func TestOptimizeMergesTranslationChain(t *testing.T) {
	inner := nsop.Tl(prefixmap.MustNew(prefixmap.Rename("", "inner.")))
	outer := nsop.Tl(prefixmap.MustNew(prefixmap.Rename("", "outer.")), inner)

	got := NewOptimizer().Optimize(outer)
	// both renames collapse into one total map, then into move+link
	want := nsop.Mx(
		nsop.Mv(prefixmap.MustNew(prefixmap.Rename("", "outer.inner."))),
		nsop.Ln(prefixmap.MustNew(prefixmap.Rename("", "outer.inner."))),
	)
	assert.Equal(t, want.Hash(), got.Hash())
}

func TestOptimizeKeepsUndefineTranslation(t *testing.T) {
	// tl drops bindings silently where mv would error, so the boundary
	// must survive
	op := nsop.Tl(prefixmap.MustNew(
		prefixmap.Rename("", "comp."),
		prefixmap.Undefine("tmp."),
	))
	got := NewOptimizer().Optimize(op)
	assert.Equal(t, op.Hash(), got.Hash())
}

func TestOptimizePreservesEvaluation(t *testing.T) {
	tacit := dict.FromDefs(map[string]*term.Term{
		"a.one":    term.Text("1"),
		"a.two":    term.Node("t", term.Ref("b.helper")),
		"b.helper": term.Text("h"),
		"x.old":    term.Text("old"),
		"keep":     term.Text("k"),
	})

	for name, op := range map[string]*nsop.Op{
		"move then remove image": nsop.Mx(
			nsop.Mv(prefixmap.MustNew(prefixmap.Rename("a.", "x."))),
			nsop.Rm("x.", "b."),
		),
		"move then remove source remainder": nsop.Mx(
			nsop.Mv(prefixmap.MustNew(prefixmap.Rename("a.one", "solo"))),
			nsop.Rm("a."),
		),
		"chained moves and links": nsop.Mx(
			nsop.Mv(prefixmap.MustNew(prefixmap.Rename("a.", "m."))),
			nsop.Mv(prefixmap.MustNew(prefixmap.Rename("m.", "n."))),
			nsop.Ln(prefixmap.MustNew(prefixmap.Rename("b.", "n."))),
			nsop.Ln(prefixmap.MustNew(prefixmap.Rename("n.helper", "keep"))),
		),
		"translated component": nsop.Mx(
			nsop.Rm("x."),
			nsop.Tl(prefixmap.MustNew(prefixmap.Rename("", "comp.")),
				nsop.Tl(prefixmap.MustNew(prefixmap.Rename("", "sub."))),
			),
		),
		"sequence with namespace branches": nsop.Mx(
			nsop.Mx(
				nsop.Ns(map[string]*term.Term{"n.f": term.Text("F")}),
				nsop.Rm("x."),
			),
			nsop.Rm("zzz."),
			nsop.Ns(map[string]*term.Term{"n.g": term.Ref("n.f")}),
		),
	} {
		t.Run(name, func(t *testing.T) {
			evaluator := eval.NewEvaluator()
			want, err := evaluator.Eval(context.Background(), op, tacit)
			require.NoError(t, err)

			optimized := NewOptimizer().Optimize(op)
			got, err := evaluator.Eval(context.Background(), optimized, tacit)
			require.NoError(t, err)
			assert.Equal(t, want.Fingerprint(), got.Fingerprint())
		})
	}
}
