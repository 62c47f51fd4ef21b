package prefixmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMalformed(t *testing.T) {
	for name, tc := range map[string]struct {
		entries []Entry
		wantErr string
	}{
		"empty is fine": {},
		"nested keys are fine": {
			entries: []Entry{Rename("", "comp."), Rename("sys.", "sys.")},
		},
		"duplicate key": {
			entries: []Entry{Rename("a", "x"), Rename("a", "y")},
			wantErr: `malformed prefix map (duplicate key): "a"=>"y"`,
		},
		"terminator in key": {
			entries: []Entry{Rename("a\x00", "x")},
			wantErr: "malformed prefix map (prefix contains the reserved terminator byte): \"a\\x00\"=>\"x\"",
		},
		"undefine with replacement": {
			entries: []Entry{{Key: "a", To: "x", Undefine: true}},
			wantErr: `malformed prefix map (undefine rule carries a replacement prefix): "a"=>(undefined)`,
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(tc.entries...)
			if tc.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tc.wantErr)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for name, tc := range map[string]struct {
		entries []Entry
		name    string
		want    Entry
		wantOK  bool
	}{
		"degenerate": {
			name: "foo",
		},
		"miss": {
			entries: []Entry{Rename("bar.", "baz.")},
			name:    "foo",
		},
		"direct hit": {
			entries: []Entry{Rename("foo", "qux")},
			name:    "foo",
			want:    Rename("foo", "qux"),
			wantOK:  true,
		},
		"longest wins": {
			entries: []Entry{Rename("a", "x"), Rename("ab", "y")},
			name:    "abc",
			want:    Rename("ab", "y"),
			wantOK:  true,
		},
		"key longer than name does not match": {
			entries: []Entry{Rename("abc", "x")},
			name:    "ab",
		},
		"empty prefix matches everything": {
			entries: []Entry{Rename("", "comp.")},
			name:    "anything",
			want:    Rename("", "comp."),
			wantOK:  true,
		},
		"exception under empty prefix": {
			entries: []Entry{Rename("", "comp."), Rename("sys.", "sys.")},
			name:    "sys.log",
			want:    Rename("sys.", "sys."),
			wantOK:  true,
		},
		"undefine hit": {
			entries: []Entry{Undefine("tmp.")},
			name:    "tmp.x",
			want:    Undefine("tmp."),
			wantOK:  true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			m := MustNew(tc.entries...)
			got, ok := m.Lookup(tc.name)
			require.Equal(t, tc.wantOK, ok)
			if ok {
				if diff := cmp.Diff(tc.want, got); diff != "" {
					t.Errorf("(-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestApply(t *testing.T) {
	m := MustNew(
		Rename("", "comp."),
		Rename("sys.", "sys."),
		Undefine("tmp."),
	)
	for name, tc := range map[string]struct {
		name        string
		want        string
		wantOutcome Outcome
	}{
		"relocated":       {name: "x", want: "comp.x", wantOutcome: Rewritten},
		"exception":       {name: "sys.log", want: "sys.log", wantOutcome: Rewritten},
		"undefined":       {name: "tmp.scratch", want: "", wantOutcome: Undefined},
		"empty name also": {name: "", want: "comp.", wantOutcome: Rewritten},
	} {
		t.Run(name, func(t *testing.T) {
			got, outcome := m.Apply(tc.name)
			assert.Equal(t, tc.wantOutcome, outcome)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("no match on empty map", func(t *testing.T) {
		got, outcome := Empty().Apply("foo")
		assert.Equal(t, NoMatch, outcome)
		assert.Equal(t, "foo", got)
	})
}

func TestEqual(t *testing.T) {
	a := MustNew(Rename("a", "x"), Undefine("b"))
	b := MustNew(Undefine("b"), Rename("a", "x"))
	c := MustNew(Rename("a", "x"))
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.True(t, Equal(Empty(), MustNew()))
}

func TestMatchesName(t *testing.T) {
	assert.True(t, MatchesName("", "anything"))
	assert.True(t, MatchesName("a", "ab"))
	assert.True(t, MatchesName("ab", "ab"))
	assert.False(t, MatchesName("abc", "ab"))
	assert.False(t, MatchesName("b", "ab"))
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("foo"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("foo\x00bar"))
}

func TestValidPrefix(t *testing.T) {
	assert.True(t, ValidPrefix(""))
	assert.True(t, ValidPrefix("foo."))
	assert.False(t, ValidPrefix("foo\x00bar"))
}
