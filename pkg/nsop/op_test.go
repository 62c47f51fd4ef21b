package nsop

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/dmbarbour/glas-ns/pkg/prefixmap"
	"github.com/dmbarbour/glas-ns/pkg/term"
)

func TestHashStability(t *testing.T) {
	a := Ns(map[string]*term.Term{"x": term.Ref("y")}, Rm("tmp."))
	b := Ns(map[string]*term.Term{"x": term.Ref("y")}, Rm("tmp."))
	assert.Equal(t, a.Hash(), b.Hash())

	c := Ns(map[string]*term.Term{"x": term.Ref("z")}, Rm("tmp."))
	assert.NotEqual(t, a.Hash(), c.Hash())

	assert.NotEqual(t, Ln(prefixmap.MustNew(prefixmap.Rename("a", "b"))).Hash(),
		Mv(prefixmap.MustNew(prefixmap.Rename("a", "b"))).Hash())
	assert.NotEqual(t, Mx().Hash(), Ns(nil).Hash())
}

func TestRmMinimizes(t *testing.T) {
	op := Rm("a", "ab", "z")
	if diff := cmp.Diff(prefixmap.PrefixSet{"a", "z"}, op.Prefixes()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestDefNames(t *testing.T) {
	op := Ns(map[string]*term.Term{"b": term.Text("1"), "a": term.Text("2")})
	assert.Equal(t, []string{"a", "b"}, op.DefNames())
}
