package asset

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dnswlt/yamlasset/internal/api"
	"github.com/dnswlt/yamlasset/internal/props"
	"github.com/dnswlt/yamlasset/internal/yamlmeta"
	"gopkg.in/yaml.v3"
)

func NewMetadataFromAPI(m *api.Metadata) (*Metadata, error) {
	if m == nil {
		return nil, fmt.Errorf("Metadata is nil")
	}
	if !IsValidName(m.Name) {
		return nil, fmt.Errorf("invalid name: %q", m.Name)
	}
	namespace := DefaultNamespace
	if m.Namespace != "" {
		namespace = m.Namespace
	}
	if !IsValidNamespace(namespace) {
		return nil, fmt.Errorf("invalid namespace: %q", namespace)
	}
	// Sorted iteration for deterministic error messages.
	for _, k := range slices.Sorted(maps.Keys(m.Labels)) {
		if err := ValidateLabel(k, m.Labels[k]); err != nil {
			return nil, err
		}
	}
	for _, k := range slices.Sorted(maps.Keys(m.Annotations)) {
		if err := ValidateAnnotation(k); err != nil {
			return nil, err
		}
	}
	meta := &Metadata{
		Name:        m.Name,
		Namespace:   namespace,
		Title:       m.Title,
		Description: m.Description,
		Labels:      make(map[string]string),
		Annotations: make(map[string]string),
	}
	maps.Copy(meta.Labels, m.Labels)
	maps.Copy(meta.Annotations, m.Annotations)
	return meta, nil
}

// NewAssetFromAPI validates a and converts it into an Asset.
// The properties section is decoded using the persistent names in reg and
// becomes the asset's attached metadata.
func NewAssetFromAPI(a *api.Asset, reg *props.Registry) (*Asset, error) {
	if a == nil {
		return nil, fmt.Errorf("Asset is nil")
	}
	if err := api.CheckAPIVersion(a.APIVersion); err != nil {
		return nil, err
	}
	if !IsValidKind(a.Kind) {
		return nil, fmt.Errorf("invalid kind: %q", a.Kind)
	}
	meta, err := NewMetadataFromAPI(a.Metadata)
	if err != nil {
		return nil, err
	}
	// Prefer the properties node of the source document: unlike a.Properties,
	// it carries line numbers of the source file.
	var propsNode *yaml.Node
	if a.Properties.Kind != 0 {
		propsNode = &a.Properties
	}
	if si := a.GetSourceInfo(); si != nil && si.Node != nil {
		propsNode = api.PropertiesNode(si.Node)
	}
	c, err := props.DecodeYAML(propsNode, reg)
	if err != nil {
		return nil, fmt.Errorf("invalid properties: %w", err)
	}
	attached, err := yamlmeta.FromContainer(c)
	if err != nil {
		return nil, fmt.Errorf("invalid properties: %w", err)
	}
	return &Asset{
		Kind:       a.Kind,
		Metadata:   meta,
		sourceInfo: a.GetSourceInfo(),
		attached:   attached,
	}, nil
}

// NewAssetFromString parses a single YAML document into an Asset.
func NewAssetFromString(content string, reg *props.Registry) (*Asset, error) {
	a, err := api.NewAssetFromString(content)
	if err != nil {
		return nil, err
	}
	return NewAssetFromAPI(a, reg)
}

// ToNode brings the document node of a up to date and returns it.
//
// The attached metadata is encoded into the properties section, which is
// removed if nothing is attached. Format hints are applied to the nodes
// they address; hints for paths that do not exist are ignored.
// The document is modified in place, so comments and the order of fields
// of the source document are retained.
func (a *Asset) ToNode(reg *props.Registry) (*yaml.Node, error) {
	doc := a.Document()
	if doc == nil {
		return nil, fmt.Errorf("asset %s has no source document", a.GetRef())
	}
	if hints := yamlmeta.Retrieve(a.attached, FormatHintsKey); hints != nil {
		for p, style := range hints.All() {
			if n := p.Resolve(doc); n != nil {
				style.Apply(n)
			}
		}
	}
	propsNode, err := props.EncodeYAML(a.attached.ToContainer(), reg)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", a.GetRef(), err)
	}
	if err := api.SetPropertiesInNode(doc, propsNode); err != nil {
		return nil, fmt.Errorf("asset %s: %w", a.GetRef(), err)
	}
	return doc, nil
}

// ToAPI returns the wire form of a, as written by ToNode.
func (a *Asset) ToAPI(reg *props.Registry) (*api.Asset, error) {
	doc, err := a.ToNode(reg)
	if err != nil {
		return nil, err
	}
	res, err := api.NewAssetFromNode(doc, false)
	if err != nil {
		return nil, err
	}
	res.SetSourceInfo(a.sourceInfo)
	return res, nil
}

// Clone returns a deep copy of a named name.
// The document is copied and renamed, and all attached metadata is copied
// into the clone. The clone is not linked to a source file line.
func (a *Asset) Clone(name string) (*Asset, error) {
	if !IsValidName(name) {
		return nil, fmt.Errorf("invalid name: %q", name)
	}
	if a.Document() == nil {
		return nil, fmt.Errorf("asset %s has no source document", a.GetRef())
	}
	doc, err := api.CopyNode(a.Document())
	if err != nil {
		return nil, err
	}
	if err := api.SetNameInNode(doc, name); err != nil {
		return nil, err
	}
	// Attached metadata may have changed since loading, so the clone gets
	// a copy of the live metadata rather than the serialized one.
	if err := api.SetPropertiesInNode(doc, nil); err != nil {
		return nil, err
	}

	meta := a.Metadata.clone()
	meta.Name = name
	cpy := &Asset{
		Kind:     a.Kind,
		Metadata: meta,
		attached: yamlmeta.NewAttached(),
	}
	si := &api.SourceInfo{Node: doc}
	if a.sourceInfo != nil {
		si.Path = a.sourceInfo.Path
	}
	cpy.SetSourceInfo(si)

	if err := a.attached.CopyInto(cpy.attached); err != nil {
		return nil, err
	}
	return cpy, nil
}
