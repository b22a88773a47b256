package yamlmeta

import (
	"gopkg.in/yaml.v3"
)

// deref skips document and alias indirections.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) == 1:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

// Resolve returns the node that p addresses within root, or nil if there is none.
// root may be a document node or its top-level mapping.
func (p Path) Resolve(root *yaml.Node) *yaml.Node {
	n := deref(root)
	for _, e := range p.elems {
		if n == nil {
			return nil
		}
		if e.IsIndex {
			if n.Kind != yaml.SequenceNode || e.Index >= len(n.Content) {
				return nil
			}
			n = deref(n.Content[e.Index])
			continue
		}
		if n.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if k := n.Content[i]; k.Kind == yaml.ScalarNode && k.Value == e.Member {
				next = n.Content[i+1]
				break
			}
		}
		n = deref(next)
	}
	return n
}

// Walk calls fn for every node below start, in document order, passing the
// node's path. For mapping values, key is the corresponding key node; it is
// nil for sequence items and for start itself, which is visited first with
// the path base.
// Mapping entries with non-scalar keys are skipped. Nodes more than maxDepth
// steps below start are not visited; maxDepth <= 0 means no limit.
// If fn returns false, the children of that node are not visited.
// Alias nodes below start are passed to fn as they are and never descended
// into, so documents whose anchors refer to themselves are walked in finite time.
func Walk(start *yaml.Node, base Path, maxDepth int, fn func(p Path, key, value *yaml.Node) bool) {
	walk(deref(start), nil, base, 0, maxDepth, fn)
}

func walk(n, key *yaml.Node, p Path, depth, maxDepth int, fn func(Path, *yaml.Node, *yaml.Node) bool) {
	if n == nil || !fn(p, key, n) {
		return
	}
	if maxDepth > 0 && depth >= maxDepth {
		return
	}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				continue
			}
			walk(n.Content[i+1], k, p.Child(k.Value), depth+1, maxDepth, fn)
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			walk(c, nil, p.Index(i), depth+1, maxDepth, fn)
		}
	}
}
