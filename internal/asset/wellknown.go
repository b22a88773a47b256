package asset

import (
	"fmt"
	"time"

	"github.com/dnswlt/yamlasset/internal/props"
	"github.com/dnswlt/yamlasset/internal/yamlmeta"
	"gopkg.in/yaml.v3"
)

// FormatStyle is the preferred YAML style of a document node.
type FormatStyle string

const (
	StyleFlow         FormatStyle = "flow"
	StyleBlock        FormatStyle = "block"
	StyleLiteral      FormatStyle = "literal"
	StyleFolded       FormatStyle = "folded"
	StyleDoubleQuoted FormatStyle = "double-quoted"
	StyleSingleQuoted FormatStyle = "single-quoted"
)

var formatStyles = map[FormatStyle]yaml.Style{
	StyleFlow:         yaml.FlowStyle,
	StyleBlock:        0,
	StyleLiteral:      yaml.LiteralStyle,
	StyleFolded:       yaml.FoldedStyle,
	StyleDoubleQuoted: yaml.DoubleQuotedStyle,
	StyleSingleQuoted: yaml.SingleQuotedStyle,
}

func ParseFormatStyle(s string) (FormatStyle, error) {
	st := FormatStyle(s)
	if _, ok := formatStyles[st]; !ok {
		return "", fmt.Errorf("invalid format style %q", s)
	}
	return st, nil
}

// Apply sets the style of n. Scalar-only styles are ignored for
// collection nodes. It reports whether n was changed.
func (s FormatStyle) Apply(n *yaml.Node) bool {
	style, ok := formatStyles[s]
	if !ok {
		return false
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if s == StyleFlow {
			return false
		}
	case yaml.MappingNode, yaml.SequenceNode:
		if s != StyleFlow && s != StyleBlock {
			return false
		}
	default:
		return false
	}
	n.Style = style
	return true
}

func (s *FormatStyle) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: format style must be a string", n.Line)
	}
	st, err := ParseFormatStyle(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*s = st
	return nil
}

// Provenance records which pipeline run last touched an asset.
type Provenance struct {
	Stage  string    `yaml:"stage"`
	RunID  string    `yaml:"runId"`
	Time   time.Time `yaml:"time"`
	Source string    `yaml:"source,omitempty"`
	Ref    string    `yaml:"ref,omitempty"`
}

// Well-known metadata attached to assets by the built-in pipeline stages.
var (
	// Preferred YAML style per document path, applied when saving.
	FormatHintsKey = props.NewKey[*yamlmeta.Metadata[FormatStyle]]("yamlasset.io/format-hints")
	// Line number of each spec node in the file the asset was loaded from.
	SourceLinesKey = props.NewKey[*yamlmeta.Metadata[int]]("yamlasset.io/source-lines")
	// Provenance, attached at the root path.
	ProvenanceKey = props.NewKey[*yamlmeta.Metadata[Provenance]]("yamlasset.io/provenance")
)

// NewRegistry returns a registry with all well-known keys registered.
// Callers may register additional keys of their own.
func NewRegistry() *props.Registry {
	r := props.NewRegistry()
	props.MustRegister(r, FormatHintsKey)
	props.MustRegister(r, SourceLinesKey)
	props.MustRegister(r, ProvenanceKey)
	return r
}
