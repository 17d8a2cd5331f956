// Package schema describes object stores and their secondary indexes.
package schema

import (
	"strings"

	"github.com/dacapoday/zigzag/key"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Schema is the set of object stores of a database.
type Schema struct {
	Stores []*Store `yaml:"stores"`
}

// Store describes an object store. Records are keyed by the value at KeyPath,
// or by an explicit key when KeyPath is empty (out-of-line keys).
type Store struct {
	Name          string   `yaml:"name"`
	KeyPath       KeyPath  `yaml:"keyPath,omitempty"`
	AutoIncrement bool     `yaml:"autoIncrement,omitempty"`
	Indexes       []*Index `yaml:"indexes,omitempty"`
}

// Index describes a secondary index of a store.
type Index struct {
	Name       string  `yaml:"name"`
	KeyPath    KeyPath `yaml:"keyPath"`
	Unique     bool    `yaml:"unique,omitempty"`
	MultiEntry bool    `yaml:"multiEntry,omitempty"`
}

// Parse decodes a YAML schema document and validates it.
func Parse(data []byte) (*Schema, error) {
	s := new(Schema)
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(err, "schema: yaml")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks names are present and unique.
func (s *Schema) Validate() error {
	seen := map[string]bool{}
	for _, st := range s.Stores {
		if st.Name == "" {
			return errors.Wrap(ErrArgument, "schema: store without name")
		}
		if seen[st.Name] {
			return errors.Wrapf(ErrArgument, "schema: duplicate store %q", st.Name)
		}
		seen[st.Name] = true
		if st.AutoIncrement && len(st.KeyPath) > 1 {
			return errors.Wrapf(ErrArgument, "schema: store %q: auto-increment needs a single key path", st.Name)
		}
		idx := map[string]bool{}
		for _, ix := range st.Indexes {
			if ix.Name == "" || len(ix.KeyPath) == 0 {
				return errors.Wrapf(ErrArgument, "schema: store %q: index needs a name and a key path", st.Name)
			}
			if idx[ix.Name] {
				return errors.Wrapf(ErrArgument, "schema: store %q: duplicate index %q", st.Name, ix.Name)
			}
			if ix.MultiEntry && len(ix.KeyPath) > 1 {
				return errors.Wrapf(ErrArgument, "schema: index %q: multi-entry needs a single key path", ix.Name)
			}
			idx[ix.Name] = true
		}
	}
	return nil
}

// Store returns the named store.
func (s *Schema) Store(name string) (*Store, error) {
	for _, st := range s.Stores {
		if st.Name == name {
			return st, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "store %q", name)
}

// Index returns the named index of the store.
func (st *Store) Index(name string) (*Index, error) {
	for _, ix := range st.Indexes {
		if ix.Name == name {
			return ix, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "index %q of store %q", name, st.Name)
}

// KeyPath names the field (dotted path) or fields (compound key) a key is
// read from. It decodes from a YAML string or list of strings.
type KeyPath []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (kp *KeyPath) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*kp = KeyPath{node.Value}
		return nil
	case yaml.SequenceNode:
		var paths []string
		if err := node.Decode(&paths); err != nil {
			return err
		}
		*kp = paths
		return nil
	}
	return errors.Errorf("schema: line %d: key path must be a string or a list", node.Line)
}

// MarshalYAML implements yaml.Marshaler.
func (kp KeyPath) MarshalYAML() (any, error) {
	if len(kp) == 1 {
		return kp[0], nil
	}
	return []string(kp), nil
}

// Compound reports whether the key path builds an array key from several fields.
func (kp KeyPath) Compound() bool {
	return len(kp) > 1
}

// Extract reads the key addressed by the path from value.
// It reports false when a field is missing or not a valid key.
func (kp KeyPath) Extract(value any) (key.Key, bool) {
	switch len(kp) {
	case 0:
		return nil, false
	case 1:
		v, ok := lookup(value, kp[0])
		if !ok {
			return nil, false
		}
		k, err := key.Normalize(v)
		return k, err == nil
	}
	out := make([]any, len(kp))
	for i, p := range kp {
		v, ok := lookup(value, p)
		if !ok {
			return nil, false
		}
		k, err := key.Normalize(v)
		if err != nil {
			return nil, false
		}
		out[i] = k
	}
	return out, true
}

// Inject sets the field addressed by a single-field path, creating
// intermediate objects. It is used to store auto-incremented keys.
func (kp KeyPath) Inject(value any, k key.Key) bool {
	if len(kp) != 1 {
		return false
	}
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	parts := strings.Split(kp[0], ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			if m[p] != nil {
				return false
			}
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = k
	return true
}

func lookup(value any, path string) (any, bool) {
	cur := value
	for _, p := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func (kp KeyPath) String() string {
	if len(kp) == 1 {
		return kp[0]
	}
	return "[" + strings.Join(kp, ",") + "]"
}
