package eval

import (
	"fmt"

	"github.com/dmbarbour/glas-ns/pkg/prefixmap"
	"github.com/dmbarbour/glas-ns/pkg/term"
)

// AmbiguousDefinitionError reports a name bound to two or more structurally
// distinct definitions at finalization time.
type AmbiguousDefinitionError struct {
	Name string
	Defs []*term.Term
}

func (e *AmbiguousDefinitionError) Error() string {
	return fmt.Sprintf("ambiguous definition of %q (%d distinct candidates)", e.Name, len(e.Defs))
}

// InvalidMoveTargetError reports a move that sent a bound name to an
// explicitly undefined target. Deleting bindings is the remove
// operation's job, not the move operation's.
type InvalidMoveTargetError struct {
	Name string
	Map  *prefixmap.PrefixMap
}

func (e *InvalidMoveTargetError) Error() string {
	return fmt.Sprintf("move of %q targets an undefined prefix in %v", e.Name, e.Map)
}

// NonTerminatingStructureError reports an operation tree deeper than the
// configured bound. Trees are required to be finite and acyclic, so this
// indicates a defect in whatever produced the tree.
type NonTerminatingStructureError struct {
	Depth int
}

func (e *NonTerminatingStructureError) Error() string {
	return fmt.Sprintf("operation tree exceeds depth bound %d", e.Depth)
}
