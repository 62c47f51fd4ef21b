package term

// Action describes what a rename function decided for one name.
type Action int

const (
	// Keep leaves the name unchanged.
	Keep Action = iota
	// Rename replaces the name.
	Rename
	// Undefine erases the reference, leaving a poisoned marker.
	Undefine
)

// RenameFunc maps a free name to its replacement. The same name always
// yields the same result within one rewrite pass.
type RenameFunc func(name string) (string, Action)

// RewriteFreeRefs substitutes every free reference per fn, leaving bound
// references, data, and fixpoint markers untouched. Unchanged subtrees are
// shared with the input term.
func (t *Term) RewriteFreeRefs(fn RenameFunc) *Term {
	pass := &rewritePass{fn: fn, bound: map[string]int{}, memo: map[string]*Term{}}
	return pass.rewrite(t)
}

type rewritePass struct {
	fn    RenameFunc
	bound map[string]int
	memo  map[string]*Term // replacement term per free name
}

func (p *rewritePass) rewrite(t *Term) *Term {
	switch t.kind {
	case KindRef:
		if p.bound[t.label] > 0 {
			return t
		}
		return p.replacement(t)
	case KindBind:
		for _, n := range t.bound {
			p.bound[n]++
		}
		body := p.rewrite(t.kids[0])
		for _, n := range t.bound {
			p.bound[n]--
		}
		if body == t.kids[0] {
			return t
		}
		return Bind(t.bound, body)
	case KindNode:
		var kids []*Term
		for i, kid := range t.kids {
			next := p.rewrite(kid)
			if kids == nil && next != kid {
				kids = make([]*Term, i, len(t.kids))
				copy(kids, t.kids[:i])
			}
			if kids != nil {
				kids = append(kids, next)
			}
		}
		if kids == nil {
			return t
		}
		return Node(t.label, kids...)
	default:
		// data, self, undefined: opaque
		return t
	}
}

func (p *rewritePass) replacement(ref *Term) *Term {
	if cached, ok := p.memo[ref.label]; ok {
		return cached
	}
	out := ref
	name, action := p.fn(ref.label)
	switch action {
	case Rename:
		out = Ref(name)
	case Undefine:
		out = Undef(ref.label)
	}
	p.memo[ref.label] = out
	return out
}
