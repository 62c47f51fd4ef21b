package term

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// termSpec is the serialized form of a term. Exactly one of the form
// fields must be present.
type termSpec struct {
	Ref   *string  `yaml:"ref,omitempty"`
	Data  *string  `yaml:"data,omitempty"`
	Node  *string  `yaml:"node,omitempty"`
	Args  []*Term  `yaml:"args,omitempty"`
	Bind  []string `yaml:"bind,omitempty"`
	In    *Term    `yaml:"in,omitempty"`
	Self  *string  `yaml:"self,omitempty"`
	Undef *string  `yaml:"undefined,omitempty"`
}

// MarshalYAML implements yaml.Marshaler.
func (t *Term) MarshalYAML() (interface{}, error) {
	spec := termSpec{}
	switch t.kind {
	case KindRef:
		spec.Ref = &t.label
	case KindData:
		payload := string(t.data)
		spec.Data = &payload
	case KindNode:
		spec.Node = &t.label
		spec.Args = t.kids
	case KindBind:
		spec.Bind = t.bound
		spec.In = t.kids[0]
	case KindSelf:
		spec.Self = &t.label
	case KindUndefined:
		spec.Undef = &t.label
	default:
		return nil, fmt.Errorf("cannot marshal term kind %v", t.kind)
	}
	return spec, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Term) UnmarshalYAML(value *yaml.Node) error {
	var spec termSpec
	if err := value.Decode(&spec); err != nil {
		return err
	}
	built, err := spec.term()
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*t = *built
	return nil
}

func (s *termSpec) term() (*Term, error) {
	forms := 0
	for _, present := range []bool{
		s.Ref != nil, s.Data != nil, s.Node != nil,
		len(s.Bind) > 0 || s.In != nil, s.Self != nil, s.Undef != nil,
	} {
		if present {
			forms++
		}
	}
	if forms != 1 {
		return nil, fmt.Errorf("term must have exactly one of ref, data, node, bind/in, self, undefined")
	}
	switch {
	case s.Ref != nil:
		if *s.Ref == "" {
			return nil, fmt.Errorf("ref name must be non-empty")
		}
		return Ref(*s.Ref), nil
	case s.Data != nil:
		return Text(*s.Data), nil
	case s.Node != nil:
		return Node(*s.Node, s.Args...), nil
	case s.Self != nil:
		return Self(*s.Self), nil
	case s.Undef != nil:
		return Undef(*s.Undef), nil
	default:
		if s.In == nil {
			return nil, fmt.Errorf("bind requires a body under 'in'")
		}
		return Bind(s.Bind, s.In), nil
	}
}
