package dict

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmbarbour/glas-ns/pkg/prefixmap"
	"github.com/dmbarbour/glas-ns/pkg/term"
)

// MarshalYAML renders the dictionary as a name-to-definition mapping.
// Only finalized dictionaries serialize; candidates pending conflict
// resolution have no file representation.
func (d *Dict) MarshalYAML() (interface{}, error) {
	out := make(map[string]*term.Term, d.Len())
	for _, b := range d.Bindings() {
		if b.IsAmbiguous() {
			return nil, fmt.Errorf("cannot serialize ambiguous binding %q", b.Name)
		}
		out[b.Name] = b.Definition()
	}
	return out, nil
}

func (d *Dict) UnmarshalYAML(value *yaml.Node) error {
	var defs map[string]*term.Term
	if err := value.Decode(&defs); err != nil {
		return err
	}
	for name := range defs {
		if !prefixmap.ValidName(name) {
			return fmt.Errorf("invalid name %q", name)
		}
	}
	*d = *FromDefs(defs)
	return nil
}

// ReadFile loads a dictionary from a YAML file.
func ReadFile(filename string) (*Dict, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var d Dict
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return &d, nil
}

// WriteFile writes a finalized dictionary to a YAML file.
func (d *Dict) WriteFile(filename string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}
