// Package asset defines the validated model of asset documents.
// See the api package for the types that are marshalled to / unmarshalled from YAML.
//
// Every Asset owns a yamlmeta.Attached holding the metadata that pipeline
// stages attached to it. On load and save, attached metadata travels through
// the document's properties section.
package asset

import (
	"cmp"
	"maps"

	"github.com/dnswlt/yamlasset/internal/api"
	"github.com/dnswlt/yamlasset/internal/yamlmeta"
	"gopkg.in/yaml.v3"
)

const (
	DefaultNamespace = api.DefaultNamespace
)

type Metadata struct {
	// The name of the asset. Unique per kind and namespace.
	Name string
	// The namespace of the asset. Always set; assets without an explicit
	// namespace live in DefaultNamespace.
	Namespace string
	// A display name of the asset.
	Title string
	// A short description of the asset.
	Description string
	// Key/value pairs of identifying information attached to the asset.
	Labels map[string]string
	// Key/value pairs of non-identifying information attached to the asset.
	Annotations map[string]string
}

type Asset struct {
	// The YAML kind, e.g. "Texture".
	Kind     string
	Metadata *Metadata

	sourceInfo *api.SourceInfo
	attached   *yamlmeta.Attached
}

// GetRef returns the fully qualified reference of a.
func (a *Asset) GetRef() *api.Ref {
	return &api.Ref{
		Kind:      api.RefKind(a.Kind),
		Namespace: a.Metadata.Namespace,
		Name:      a.Metadata.Name,
	}
}

// GetQName returns the namespace qualified name, e.g. "env/brick-wall".
// The default namespace is omitted.
func (a *Asset) GetQName() string {
	if a.Metadata.Namespace == DefaultNamespace {
		return a.Metadata.Name
	}
	return a.Metadata.Namespace + "/" + a.Metadata.Name
}

// GetSourceInfo returns internal bookkeeping data, e.g. for error logging
// and writing back the YAML document with its original structure.
func (a *Asset) GetSourceInfo() *api.SourceInfo {
	return a.sourceInfo
}

func (a *Asset) SetSourceInfo(si *api.SourceInfo) {
	a.sourceInfo = si
}

// Attached returns the metadata attached to a. The result is owned by a
// and modifications through it are visible in later calls.
func (a *Asset) Attached() *yamlmeta.Attached {
	return a.attached
}

// SpecNode returns the spec node of the document a was loaded from, or nil.
// Its line numbers refer to the source file.
func (a *Asset) SpecNode() *yaml.Node {
	if a.sourceInfo == nil {
		return nil
	}
	return api.SpecNode(a.sourceInfo.Node)
}

// Document returns the YAML document node of a, or nil.
func (a *Asset) Document() *yaml.Node {
	if a.sourceInfo == nil {
		return nil
	}
	return a.sourceInfo.Node
}

func (m *Metadata) clone() *Metadata {
	cp := *m
	cp.Labels = maps.Clone(m.Labels)
	cp.Annotations = maps.Clone(m.Annotations)
	return &cp
}

// CompareRefs orders refs by kind, namespace and name.
func CompareRefs(r1, r2 *api.Ref) int {
	if c := cmp.Compare(r1.Kind, r2.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(r1.Namespace, r2.Namespace); c != 0 {
		return c
	}
	return cmp.Compare(r1.Name, r2.Name)
}
