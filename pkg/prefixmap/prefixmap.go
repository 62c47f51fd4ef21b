package prefixmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dghubble/trie"
)

// Terminator is the reserved byte logically appended to a name before any
// prefix matching takes place. Valid names never contain it, so a map key
// can never swallow a shorter sibling name by accident.
const Terminator = "\x00"

// ValidName reports whether name is usable as a dictionary name: non-empty
// and free of the reserved terminator byte.
func ValidName(name string) bool {
	return name != "" && !strings.Contains(name, Terminator)
}

// ValidPrefix reports whether a prefix may appear in maps and removal
// sets: any byte string free of the reserved terminator. Unlike names,
// the empty prefix is legal and matches everything.
func ValidPrefix(prefix string) bool {
	return !strings.Contains(prefix, Terminator)
}

// MatchesName reports whether prefix matches name under the longest-prefix
// rule, i.e. whether prefix is a prefix of name plus the terminator.
func MatchesName(prefix, name string) bool {
	return strings.HasPrefix(name+Terminator, prefix)
}

// Outcome describes what applying a PrefixMap did to a name.
type Outcome int

const (
	// NoMatch means no rule applies and the name is unchanged.
	NoMatch Outcome = iota
	// Rewritten means a rule applied and produced a new name.
	Rewritten
	// Undefined means the matched rule explicitly undefines the name.
	Undefined
)

func (o Outcome) String() string {
	switch o {
	case NoMatch:
		return "no-match"
	case Rewritten:
		return "rewritten"
	case Undefined:
		return "undefined"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Entry is a single prefix rewrite rule.
type Entry struct {
	// Key is the matched prefix.
	Key string
	// To is the replacement prefix. Empty when Undefine is set.
	To string
	// Undefine marks the covered region as explicitly undefined.
	Undefine bool
}

// Rename constructs a rewrite rule sending the key prefix to another prefix.
func Rename(key, to string) Entry {
	return Entry{Key: key, To: to}
}

// Undefine constructs a rule that explicitly undefines the key's region.
func Undefine(key string) Entry {
	return Entry{Key: key, Undefine: true}
}

func (e Entry) String() string {
	if e.Undefine {
		return fmt.Sprintf("%q=>(undefined)", e.Key)
	}
	return fmt.Sprintf("%q=>%q", e.Key, e.To)
}

// extend records the same rule at finer granularity: the rewrite of any
// key extending e.Key by suffix.
func (e Entry) extend(suffix string) Entry {
	if e.Undefine {
		return Undefine(e.Key + suffix)
	}
	return Rename(e.Key+suffix, e.To+suffix)
}

// implies reports whether e already determines the outcome of the finer
// entry sub, whose key must extend e.Key.
func (e Entry) implies(sub Entry) bool {
	if e.Undefine {
		return sub.Undefine
	}
	return !sub.Undefine && sub.To == e.To+sub.Key[len(e.Key):]
}

// PrefixMap is a finite partial function from byte-string prefixes to
// replacement prefixes, matched by the longest-prefix rule. A key that
// extends another key carves an exception out of the shorter key's region:
// the empty-prefix rule {"" => "comp."} relocates everything, and adding
// {"sys." => "sys."} exempts one subtree from the move.
//
// Maps are immutable once constructed.
type PrefixMap struct {
	keys  []string // sorted
	rules map[string]Entry
	index *trie.PathTrie // keys except the empty prefix
}

var emptyMap = &PrefixMap{rules: map[string]Entry{}}

// Empty returns the map with no rules (the identity rewrite).
func Empty() *PrefixMap { return emptyMap }

// New constructs a PrefixMap from the given entries. It returns a
// *MalformedPrefixMapError when an entry is self-inconsistent or a key
// occurs twice: both indicate a broken producer, not bad user data.
func New(entries ...Entry) (*PrefixMap, error) {
	m := &PrefixMap{
		keys:  make([]string, 0, len(entries)),
		rules: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		if strings.Contains(e.Key, Terminator) || strings.Contains(e.To, Terminator) {
			return nil, &MalformedPrefixMapError{Entry: e, Reason: "prefix contains the reserved terminator byte"}
		}
		if e.Undefine && e.To != "" {
			return nil, &MalformedPrefixMapError{Entry: e, Reason: "undefine rule carries a replacement prefix"}
		}
		if _, exists := m.rules[e.Key]; exists {
			return nil, &MalformedPrefixMapError{Entry: e, Reason: "duplicate key"}
		}
		m.rules[e.Key] = e
		m.keys = append(m.keys, e.Key)
	}
	sort.Strings(m.keys)
	for _, key := range m.keys {
		if key == "" {
			continue
		}
		if m.index == nil {
			m.index = newPathTrie()
		}
		m.index.Put(key, m.rules[key])
	}
	return m, nil
}

// MustNew is New for statically known entries; it panics on a malformed map.
func MustNew(entries ...Entry) *PrefixMap {
	m, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return m
}

// Len returns the number of rules.
func (m *PrefixMap) Len() int { return len(m.keys) }

// Keys returns the rule keys in sorted order.
func (m *PrefixMap) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Entries returns the rules in sorted key order.
func (m *PrefixMap) Entries() []Entry {
	entries := make([]Entry, 0, len(m.keys))
	for _, key := range m.keys {
		entries = append(entries, m.rules[key])
	}
	return entries
}

// Get returns the rule stored under exactly the given key.
func (m *PrefixMap) Get(key string) (Entry, bool) {
	e, ok := m.rules[key]
	return e, ok
}

// HasUndefine reports whether any rule explicitly undefines its region.
func (m *PrefixMap) HasUndefine() bool {
	for _, key := range m.keys {
		if m.rules[key].Undefine {
			return true
		}
	}
	return false
}

// Lookup finds the rule whose key is the longest prefix of the given name
// (with the terminator appended). The second result is false when no rule
// applies, which is distinct from a rule that explicitly undefines.
func (m *PrefixMap) Lookup(name string) (Entry, bool) {
	return m.longest(name + Terminator)
}

// LookupPrefix finds the rule whose key is the longest prefix of the given
// prefix. Unlike Lookup no terminator is appended: a prefix may sit at an
// arbitrary cut point inside longer names.
func (m *PrefixMap) LookupPrefix(prefix string) (Entry, bool) {
	return m.longest(prefix)
}

func (m *PrefixMap) longest(path string) (Entry, bool) {
	last, found := m.rules[""]
	if m.index != nil {
		m.index.WalkPath(path, func(key string, value interface{}) error {
			last = value.(Entry)
			found = true
			return nil
		})
	}
	return last, found
}

// Apply rewrites a single name. The outcome distinguishes "no rule
// applies" (name returned unchanged) from a rewrite and from an explicit
// undefine (empty name returned).
func (m *PrefixMap) Apply(name string) (string, Outcome) {
	e, ok := m.Lookup(name)
	if !ok {
		return name, NoMatch
	}
	if e.Undefine {
		return "", Undefined
	}
	return e.To + name[len(e.Key):], Rewritten
}

// Equal reports structural equality of two maps. Behavioral equivalence of
// simplified maps coincides with structural equality of their entries.
func Equal(a, b *PrefixMap) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, key := range a.keys {
		be, ok := b.rules[key]
		if !ok || be != a.rules[key] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer
func (m *PrefixMap) String() string {
	parts := make([]string, 0, len(m.keys))
	for _, e := range m.Entries() {
		parts = append(parts, e.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func newPathTrie() *trie.PathTrie {
	return trie.NewPathTrieWithConfig(&trie.PathTrieConfig{
		Segmenter: byteSegmenter,
	})
}

// byteSegmenter segments string keys one byte at a time, so longest-prefix
// walks observe every byte-level cut point. It does not allocate.
func byteSegmenter(path string, start int) (segment string, next int) {
	if len(path) == 0 || start < 0 || start > len(path)-1 {
		return "", -1
	}
	if start+1 >= len(path) {
		return path[start:], -1
	}
	return path[start : start+1], start + 1
}
