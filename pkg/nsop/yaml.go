package nsop

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmbarbour/glas-ns/pkg/prefixmap"
	"github.com/dmbarbour/glas-ns/pkg/term"
)

// opSpec is the serialized form of an operation.
type opSpec struct {
	Op       string                `yaml:"op"`
	Defs     map[string]*term.Term `yaml:"defs,omitempty"`
	Ops      []*Op                 `yaml:"ops,omitempty"`
	Map      []entrySpec           `yaml:"map,omitempty"`
	Prefixes []string              `yaml:"prefixes,omitempty"`
}

// entrySpec is the serialized form of one prefix map rule.
type entrySpec struct {
	From     string `yaml:"from"`
	To       string `yaml:"to,omitempty"`
	Undefine bool   `yaml:"undefine,omitempty"`
}

// MarshalYAML implements yaml.Marshaler.
func (o *Op) MarshalYAML() (interface{}, error) {
	spec := opSpec{Op: o.kind.String(), Ops: o.ops}
	switch o.kind {
	case KindNs:
		spec.Defs = o.defs
	case KindLn, KindMv, KindTl:
		spec.Map = entrySpecs(o.pm)
	case KindRm:
		spec.Prefixes = o.rm
	}
	return spec, nil
}

func entrySpecs(m *prefixmap.PrefixMap) []entrySpec {
	specs := make([]entrySpec, 0, m.Len())
	for _, e := range m.Entries() {
		specs = append(specs, entrySpec{From: e.Key, To: e.To, Undefine: e.Undefine})
	}
	return specs
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Op) UnmarshalYAML(value *yaml.Node) error {
	var spec opSpec
	if err := value.Decode(&spec); err != nil {
		return err
	}
	built, err := spec.op()
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*o = *built
	return nil
}

func (s *opSpec) op() (*Op, error) {
	switch s.Op {
	case "ns":
		if s.Map != nil || s.Prefixes != nil {
			return nil, fmt.Errorf("ns takes only defs and ops")
		}
		for name := range s.Defs {
			if !prefixmap.ValidName(name) {
				return nil, fmt.Errorf("invalid definition name %q", name)
			}
		}
		return Ns(s.Defs, s.Ops...), nil
	case "mx":
		if s.Defs != nil || s.Map != nil || s.Prefixes != nil {
			return nil, fmt.Errorf("mx takes only ops")
		}
		return Mx(s.Ops...), nil
	case "ln", "mv", "tl":
		if s.Defs != nil || s.Prefixes != nil {
			return nil, fmt.Errorf("%s takes no defs or prefixes", s.Op)
		}
		if s.Op != "tl" && len(s.Ops) > 0 {
			return nil, fmt.Errorf("%s takes no ops", s.Op)
		}
		m, err := s.prefixMap()
		if err != nil {
			return nil, err
		}
		switch s.Op {
		case "ln":
			return Ln(m), nil
		case "mv":
			return Mv(m), nil
		default:
			return Tl(m, s.Ops...), nil
		}
	case "rm":
		if s.Defs != nil || s.Map != nil || len(s.Ops) > 0 {
			return nil, fmt.Errorf("rm takes only prefixes")
		}
		for _, p := range s.Prefixes {
			if !prefixmap.ValidPrefix(p) {
				return nil, fmt.Errorf("rm prefix %q contains the reserved terminator byte", p)
			}
		}
		return Rm(s.Prefixes...), nil
	default:
		return nil, fmt.Errorf("unknown op kind %q", s.Op)
	}
}

func (s *opSpec) prefixMap() (*prefixmap.PrefixMap, error) {
	entries := make([]prefixmap.Entry, 0, len(s.Map))
	for _, e := range s.Map {
		if e.Undefine {
			if e.To != "" {
				return nil, fmt.Errorf("map rule for %q has both to and undefine", e.From)
			}
			entries = append(entries, prefixmap.Undefine(e.From))
		} else {
			entries = append(entries, prefixmap.Rename(e.From, e.To))
		}
	}
	return prefixmap.New(entries...)
}

// ReadFile loads an operation tree from a YAML file.
func ReadFile(filename string) (*Op, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var op Op
	if err := yaml.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return &op, nil
}
