package api

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Top-level field names of asset documents.
const (
	FieldSpec       = "spec"
	FieldMetadata   = "metadata"
	FieldProperties = "properties"
)

// rootMapping returns the top-level mapping of a document node.
func rootMapping(doc *yaml.Node) (*yaml.Node, error) {
	if doc == nil || doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("expected a YAML document with a top-level map")
	}
	return doc.Content[0], nil
}

// MappingValue returns the value node for key in mapping node m, or nil.
func MappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// setMappingValue replaces the value for key in m, or appends a new entry.
func setMappingValue(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	m.Content = append(m.Content, keyNode, value)
}

func removeMappingKey(m *yaml.Node, key string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return
		}
	}
}

// FindKindInNode is a helper to extract the 'kind' value from a yaml.Node
func FindKindInNode(doc *yaml.Node) (string, error) {
	root, err := rootMapping(doc)
	if err != nil {
		return "", err
	}
	valueNode := MappingValue(root, "kind")
	if valueNode == nil {
		return "", errors.New("no 'kind' field found")
	}
	if valueNode.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("'kind' field is not a string (type: %v)", valueNode.Tag)
	}
	return valueNode.Value, nil
}

// SpecNode returns the spec value node of a document, or nil if it has none.
// Unlike Asset.Spec, the returned node belongs to the original document and
// carries its original line numbers.
func SpecNode(doc *yaml.Node) *yaml.Node {
	root, err := rootMapping(doc)
	if err != nil {
		return nil
	}
	return MappingValue(root, FieldSpec)
}

// PropertiesNode returns the properties value node of a document, or nil.
func PropertiesNode(doc *yaml.Node) *yaml.Node {
	root, err := rootMapping(doc)
	if err != nil {
		return nil
	}
	return MappingValue(root, FieldProperties)
}

// NewAssetFromNode decodes a document node into an Asset.
// If strict is true, unknown top-level and metadata fields are rejected.
func NewAssetFromNode(node *yaml.Node, strict bool) (*Asset, error) {
	if len(node.Content) == 0 {
		return nil, errors.New("empty yaml document")
	}
	if _, err := FindKindInNode(node); err != nil {
		return nil, fmt.Errorf("error in document: %w", err)
	}

	asset := &Asset{}
	if strict {
		// Re-encode the YAML document to then decode it strictly into the target type.
		// There is no strict mode when decoding from a yaml.Node directly.
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		if err := enc.Encode(node); err != nil {
			return nil, fmt.Errorf("failed to re-encode node: %v", err)
		}
		strictDec := yaml.NewDecoder(&buf)
		strictDec.KnownFields(true)
		if err := strictDec.Decode(asset); err != nil {
			return nil, fmt.Errorf("failed to decode node into struct: %v", err)
		}
	} else {
		if err := node.Decode(asset); err != nil {
			return nil, fmt.Errorf("failed to decode node into struct: %v", err)
		}
	}
	asset.SetSourceInfo(&SourceInfo{
		Node: node,
		Line: node.Line,
	})
	return asset, nil
}

func NewAssetFromString(content string) (*Asset, error) {
	var node yaml.Node
	dec := yaml.NewDecoder(strings.NewReader(content))
	if err := dec.Decode(&node); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %v", err)
	}
	return NewAssetFromNode(&node, true)
}

// SetPropertiesInNode replaces the properties section of doc with props.
// A nil or empty props removes the section.
func SetPropertiesInNode(doc *yaml.Node, props *yaml.Node) error {
	root, err := rootMapping(doc)
	if err != nil {
		return err
	}
	if props == nil || (props.Kind == yaml.MappingNode && len(props.Content) == 0) {
		removeMappingKey(root, FieldProperties)
		return nil
	}
	if props.Kind != yaml.MappingNode {
		return fmt.Errorf("properties must be a map, got %v", props.Tag)
	}
	setMappingValue(root, FieldProperties, props)
	return nil
}

// SetNameInNode sets metadata.name in doc, creating metadata if necessary.
func SetNameInNode(doc *yaml.Node, name string) error {
	root, err := rootMapping(doc)
	if err != nil {
		return err
	}
	metadataNode := MappingValue(root, FieldMetadata)
	if metadataNode == nil {
		metadataNode = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		setMappingValue(root, FieldMetadata, metadataNode)
	}
	if metadataNode.Kind != yaml.MappingNode {
		return errors.New("'metadata' field is not a map")
	}
	setMappingValue(metadataNode, "name", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name})
	return nil
}

// CopyNode returns a deep copy of the given node.
func CopyNode(node *yaml.Node) (*yaml.Node, error) {
	if node == nil {
		return nil, nil
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to encode node: %v", err)
	}
	var copiedNode yaml.Node
	if err := yaml.Unmarshal(data, &copiedNode); err != nil {
		return nil, fmt.Errorf("failed to decode node: %v", err)
	}
	return &copiedNode, nil
}
