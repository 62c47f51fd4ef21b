package eval

import (
	"sync"

	"github.com/dmbarbour/glas-ns/pkg/dict"
	"github.com/dmbarbour/glas-ns/pkg/nsop"
)

// Memo caches evaluation results keyed by operation hash and input
// dictionary fingerprint. Both inputs are immutable and evaluation is
// referentially transparent, so a hit is always safe to reuse. Safe for
// concurrent use.
type Memo struct {
	mu    sync.Mutex
	cache map[string]*dict.Dict
}

func NewMemo() *Memo {
	return &Memo{cache: make(map[string]*dict.Dict)}
}

// Len returns the number of cached results.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}

func (m *Memo) Get(op *nsop.Op, d *dict.Dict) (*dict.Dict, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out, ok := m.cache[memoKey(op, d)]
	return out, ok
}

func (m *Memo) Put(op *nsop.Op, d *dict.Dict, out *dict.Dict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[memoKey(op, d)] = out
}

func memoKey(op *nsop.Op, d *dict.Dict) string {
	return op.Hash() + "/" + d.Fingerprint()
}
