// This file contains the wire types of YAML asset documents.
// A document looks like this:
//
//	apiVersion: yamlasset/v1
//	kind: Texture
//	metadata:
//	  name: brick-wall
//	spec:
//	  size: [512, 512]
//	properties:
//	  yamlasset.io/format-hints:
//	    spec.size: flow
//
// spec is free-form. properties is the side-channel holding metadata that
// pipeline stages attached to the asset; it is written and read by the asset
// package and never interpreted here.
package api

import (
	"gopkg.in/yaml.v3"
)

const (
	// The name of the (implicit) default namespace.
	// Asset references typically omit it, e.g. texture:brick-wall.
	DefaultNamespace = "default"

	// The API group every asset document must declare in its apiVersion.
	APIGroup = "yamlasset"
)

// File and line information of an asset.
// Used in error messages and to write back YAML files retaining their
// exact structure, including comments.
type SourceInfo struct {
	Node *yaml.Node // The raw YAML document from which the asset was parsed.
	Path string     // The path from which the asset was read.
	Line int        // The first line number in Path where the asset was found.
}

type Metadata struct {
	// The name of the asset. Must be unique within its kind and namespace.
	// [required]
	Name string `yaml:"name,omitempty"`
	// The namespace of the asset. If empty, the asset lives in the default namespace.
	// [optional]
	Namespace string `yaml:"namespace,omitempty"`
	// A display name of the asset.
	// [optional]
	Title string `yaml:"title,omitempty"`
	// A short description of the asset. May contain markdown.
	// [optional]
	Description string `yaml:"description,omitempty"`
	// Key/value pairs of identifying information attached to the asset.
	// [optional]
	Labels map[string]string `yaml:"labels,omitempty"`
	// Key/value pairs of non-identifying, human maintained information.
	// [optional]
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

type Asset struct {
	APIVersion string    `yaml:"apiVersion,omitempty"`
	Kind       string    `yaml:"kind,omitempty"`
	Metadata   *Metadata `yaml:"metadata,omitempty"`
	// The asset's payload. Its structure depends on the kind and is not validated.
	// A zero Kind means the document has no spec.
	Spec yaml.Node `yaml:"spec,omitempty"`
	// Metadata attached by pipeline stages, keyed by persistent property names.
	// A zero Kind means the document has no properties section.
	Properties yaml.Node `yaml:"properties,omitempty"`

	// Internal bookkeeping data, not part of the API.
	*SourceInfo `yaml:"-"`
}

// Ref is a fully qualified asset reference: <kind>:<namespace>/<name>.
// Kinds in references are lowercase (texture:brick-wall for kind: Texture).
type Ref struct {
	Kind      string
	Namespace string
	Name      string
}

// GetQName returns the qualified name of the asset.
func (m *Metadata) GetQName() string {
	if m == nil {
		return ""
	}
	if m.Namespace == "" || m.Namespace == DefaultNamespace {
		return m.Name
	}
	return m.Namespace + "/" + m.Name
}

func (a *Asset) GetSourceInfo() *SourceInfo   { return a.SourceInfo }
func (a *Asset) SetSourceInfo(si *SourceInfo) { a.SourceInfo = si }
