package yamlmeta

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// Record is implemented by every Metadata[T].
// The facade only ever stores Records, which lets it handle metadata
// generically without knowing the concrete payload types.
type Record interface {
	// Len returns the number of paths that carry a value.
	Len() int
	// Paths returns the annotated paths in sorted order.
	Paths() []Path
	// ValueAt returns the untyped value at path.
	ValueAt(path Path) (any, bool)

	cloneRecord() Record
}

type entry[T any] struct {
	path  Path
	value T
}

// Metadata associates values of type T with paths of a YAML document.
// Each feature that needs to annotate documents defines its own T and a
// props.Key[*Metadata[T]] to attach its Metadata to assets.
//
// A Metadata is not safe for concurrent use.
type Metadata[T any] struct {
	entries map[string]entry[T]
}

var _ Record = (*Metadata[int])(nil)

func NewMetadata[T any]() *Metadata[T] {
	return &Metadata[T]{
		entries: make(map[string]entry[T]),
	}
}

// Set associates value with path, replacing any previous value.
func (m *Metadata[T]) Set(path Path, value T) {
	if m.entries == nil {
		m.entries = make(map[string]entry[T])
	}
	m.entries[path.String()] = entry[T]{path: path, value: value}
}

func (m *Metadata[T]) Get(path Path) (T, bool) {
	e, ok := m.entries[path.String()]
	return e.value, ok
}

// Remove deletes the value at path and reports whether there was one.
func (m *Metadata[T]) Remove(path Path) bool {
	k := path.String()
	if _, ok := m.entries[k]; !ok {
		return false
	}
	delete(m.entries, k)
	return true
}

func (m *Metadata[T]) Len() int {
	return len(m.entries)
}

// sorted returns the entries of m in path order.
func (m *Metadata[T]) sorted() []entry[T] {
	es := slices.Collect(maps.Values(m.entries))
	slices.SortFunc(es, func(a, b entry[T]) int {
		return a.path.Compare(b.path)
	})
	return es
}

func (m *Metadata[T]) Paths() []Path {
	es := m.sorted()
	paths := make([]Path, len(es))
	for i, e := range es {
		paths[i] = e.path
	}
	return paths
}

func (m *Metadata[T]) ValueAt(path Path) (any, bool) {
	return m.Get(path)
}

// All iterates over all (path, value) pairs in path order.
func (m *Metadata[T]) All() iter.Seq2[Path, T] {
	return func(yield func(Path, T) bool) {
		for _, e := range m.sorted() {
			if !yield(e.path, e.value) {
				return
			}
		}
	}
}

// Map returns the contents as a map keyed by canonical path strings.
func (m *Metadata[T]) Map() map[string]T {
	res := make(map[string]T, len(m.entries))
	for k, e := range m.entries {
		res[k] = e.value
	}
	return res
}

// Clone returns a copy of m. Values are copied shallowly.
func (m *Metadata[T]) Clone() *Metadata[T] {
	return &Metadata[T]{
		entries: maps.Clone(m.entries),
	}
}

func (m *Metadata[T]) cloneRecord() Record {
	return m.Clone()
}

// MarshalYAML writes m as a mapping from path strings to values, sorted by path.
func (m *Metadata[T]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for p, v := range m.All() {
		var vn yaml.Node
		if err := vn.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode value at %s: %w", p, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.String()},
			&vn,
		)
	}
	return node, nil
}

func (m *Metadata[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: metadata must be a mapping of paths", node.Line)
	}
	entries := make(map[string]entry[T], len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		kn, vn := node.Content[i], node.Content[i+1]
		path, err := ParsePath(kn.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", kn.Line, err)
		}
		k := path.String()
		if _, ok := entries[k]; ok {
			return fmt.Errorf("line %d: duplicate path %s", kn.Line, k)
		}
		var v T
		if err := vn.Decode(&v); err != nil {
			return fmt.Errorf("line %d: invalid value at %s: %w", vn.Line, k, err)
		}
		entries[k] = entry[T]{path: path, value: v}
	}
	m.entries = entries
	return nil
}
