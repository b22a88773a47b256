package props

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// EncodeYAML encodes c as a YAML mapping from persistent key names to values.
// Entries appear in container order. All keys in c must be registered in r.
func EncodeYAML(c *Container, r *Registry) (*yaml.Node, error) {
	node := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}
	for k, v := range c.All() {
		name, ok := r.NameOf(k)
		if !ok {
			return nil, fmt.Errorf("cannot encode %s: %w", k.Name(), ErrUnregisteredKey)
		}
		var value yaml.Node
		if err := value.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode value for %s: %w", name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&value,
		)
	}
	return node, nil
}

// DecodeYAML is the inverse of EncodeYAML.
// A nil or null node yields an empty container.
func DecodeYAML(node *yaml.Node, r *Registry) (*Container, error) {
	c := NewContainer()
	if node == nil || node.Kind == 0 || node.Tag == "!!null" {
		return c, nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		kn, vn := node.Content[i], node.Content[i+1]
		name := kn.Value
		key, ok := r.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("line %d: unknown property %q: %w", kn.Line, name, ErrUnregisteredKey)
		}
		if c.Contains(key) {
			return nil, fmt.Errorf("line %d: duplicate property %q", kn.Line, name)
		}
		v, err := key.decodeYAML(vn)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value for property %q: %w", vn.Line, name, err)
		}
		if err := c.SetValue(key, v); err != nil {
			return nil, fmt.Errorf("line %d: %w", vn.Line, err)
		}
	}
	return c, nil
}
