package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dnswlt/yamlasset/internal/asset"
	"github.com/dnswlt/yamlasset/internal/yamlmeta"
	"gopkg.in/yaml.v3"
)

// decodeSpec strictly decodes a stage spec into v. A missing spec leaves v unchanged.
func decodeSpec(specYaml *yaml.Node, v any) error {
	if specYaml == nil || specYaml.Kind == 0 {
		return nil
	}
	// There is no strict mode when decoding from a yaml.Node directly.
	var buf bytes.Buffer
	if err := yaml.NewEncoder(&buf).Encode(specYaml); err != nil {
		return err
	}
	dec := yaml.NewDecoder(&buf)
	dec.KnownFields(true)
	return dec.Decode(v)
}

type sourceLineStageSpec struct {
	// Maximum depth below spec to record. 0 means unlimited.
	MaxDepth int `yaml:"maxDepth"`
}

// SourceLineStage records the source line of every spec node.
type SourceLineStage struct {
	name string
	spec *sourceLineStageSpec
}

func newSourceLineStage(name string, specYaml *yaml.Node) (*SourceLineStage, error) {
	var spec sourceLineStageSpec
	if err := decodeSpec(specYaml, &spec); err != nil {
		return nil, fmt.Errorf("failed to decode SourceLineStage spec for %s: %v", name, err)
	}
	if spec.MaxDepth < 0 {
		return nil, fmt.Errorf("maxDepth must not be negative, got %d", spec.MaxDepth)
	}
	return &SourceLineStage{name: name, spec: &spec}, nil
}

func (s *SourceLineStage) Execute(ctx context.Context, a *asset.Asset, args *StageArgs) error {
	specNode := a.SpecNode()
	if specNode == nil {
		return nil
	}
	lines := yamlmeta.NewMetadata[int]()
	yamlmeta.Walk(specNode, yamlmeta.NewPath("spec"), s.spec.MaxDepth, func(p yamlmeta.Path, key, value *yaml.Node) bool {
		// For mapping values, report the line of the key.
		line := value.Line
		if key != nil {
			line = key.Line
		}
		lines.Set(p, line)
		return true
	})
	yamlmeta.Attach(a.Attached(), asset.SourceLinesKey, lines)
	return nil
}

type formatHintStageSpec struct {
	Hints map[string]asset.FormatStyle `yaml:"hints"`
}

// FormatHintStage attaches configured YAML styles to document paths.
// Hints are merged into existing ones; paths the asset lacks are skipped.
type FormatHintStage struct {
	name  string
	hints *yamlmeta.Metadata[asset.FormatStyle]
}

func newFormatHintStage(name string, specYaml *yaml.Node) (*FormatHintStage, error) {
	var spec formatHintStageSpec
	if err := decodeSpec(specYaml, &spec); err != nil {
		return nil, fmt.Errorf("failed to decode FormatHintStage spec for %s: %v", name, err)
	}
	if len(spec.Hints) == 0 {
		return nil, fmt.Errorf("no hints defined")
	}
	hints := yamlmeta.NewMetadata[asset.FormatStyle]()
	for k, style := range spec.Hints {
		p, err := yamlmeta.ParsePath(k)
		if err != nil {
			return nil, err
		}
		hints.Set(p, style)
	}
	return &FormatHintStage{name: name, hints: hints}, nil
}

func (s *FormatHintStage) Execute(ctx context.Context, a *asset.Asset, args *StageArgs) error {
	doc := a.Document()
	if doc == nil {
		return fmt.Errorf("asset %s has no document", a.GetRef())
	}
	var merged *yamlmeta.Metadata[asset.FormatStyle]
	if existing := yamlmeta.Retrieve(a.Attached(), asset.FormatHintsKey); existing != nil {
		merged = existing.Clone()
	} else {
		merged = yamlmeta.NewMetadata[asset.FormatStyle]()
	}
	for p, style := range s.hints.All() {
		if p.Resolve(doc) == nil {
			continue
		}
		merged.Set(p, style)
	}
	if merged.Len() > 0 {
		yamlmeta.Attach(a.Attached(), asset.FormatHintsKey, merged)
	}
	return nil
}

// ProvenanceStage records the pipeline run that processed an asset.
type ProvenanceStage struct {
	name string
}

func newProvenanceStage(name string, specYaml *yaml.Node) (*ProvenanceStage, error) {
	var spec struct{}
	if err := decodeSpec(specYaml, &spec); err != nil {
		return nil, fmt.Errorf("failed to decode ProvenanceStage spec for %s: %v", name, err)
	}
	return &ProvenanceStage{name: name}, nil
}

func (s *ProvenanceStage) Execute(ctx context.Context, a *asset.Asset, args *StageArgs) error {
	prov := asset.Provenance{
		Stage: s.name,
		RunID: args.RunID,
		Time:  args.Now().UTC(),
		Ref:   a.GetRef().String(),
	}
	if si := a.GetSourceInfo(); si != nil {
		prov.Source = si.Path
	}
	m := yamlmeta.NewMetadata[asset.Provenance]()
	m.Set(yamlmeta.Root(), prov)
	yamlmeta.Attach(a.Attached(), asset.ProvenanceKey, m)
	return nil
}
