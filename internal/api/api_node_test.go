package api

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestNewAssetFromString(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		content := `
apiVersion: yamlasset/v1
kind: Texture
metadata:
  name: brick-wall
  labels:
    team: graphics
spec:
  size: [512, 512]
properties:
  yamlasset.io/format-hints:
    spec.size: flow
`
		asset, err := NewAssetFromString(content)
		if err != nil {
			t.Fatalf("NewAssetFromString() error = %v, wantErr %v", err, false)
		}
		if asset.Metadata.Name != "brick-wall" {
			t.Errorf("asset.Metadata.Name = %s, want %s", asset.Metadata.Name, "brick-wall")
		}
		if asset.Spec.Kind != yaml.MappingNode {
			t.Errorf("asset.Spec.Kind = %d, want %d", asset.Spec.Kind, yaml.MappingNode)
		}
		if asset.Properties.Kind != yaml.MappingNode {
			t.Errorf("asset.Properties.Kind = %d, want %d", asset.Properties.Kind, yaml.MappingNode)
		}
		if asset.GetSourceInfo().Line != 2 {
			t.Errorf("SourceInfo.Line = %d, want 2", asset.GetSourceInfo().Line)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		content := `
apiVersion: yamlasset/v1
kind: Texture
metadata:
  name: brick-wall
  owner: me
`
		if _, err := NewAssetFromString(content); err == nil {
			t.Errorf("NewAssetFromString() error = %v, wantErr %v", err, true)
		}
	})

	t.Run("no kind", func(t *testing.T) {
		content := `
apiVersion: yamlasset/v1
metadata:
  name: brick-wall
`
		if _, err := NewAssetFromString(content); err == nil || !strings.Contains(err.Error(), "kind") {
			t.Errorf("NewAssetFromString() error = %v, want error about kind", err)
		}
	})
}

func TestNewAssetFromStringSpecKinds(t *testing.T) {
	const header = "apiVersion: yamlasset/v1\nkind: Texture\nmetadata:\n  name: x\n"
	tests := []struct {
		name      string
		body      string
		wantSpec  yaml.Kind
		wantProps yaml.Kind
	}{
		{name: "mapping", body: "spec:\n  base: 1\n  nested:\n    kind: deep\n", wantSpec: yaml.MappingNode},
		{name: "sequence", body: "spec:\n  - a\n  - b\n", wantSpec: yaml.SequenceNode},
		{name: "scalar", body: "spec: plain\n", wantSpec: yaml.ScalarNode},
		{name: "absent", body: ""},
		{name: "properties only", body: "properties:\n  yamlasset.io/source-lines:\n    spec: 3\n", wantProps: yaml.MappingNode},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			asset, err := NewAssetFromString(header + tc.body)
			if err != nil {
				t.Fatalf("NewAssetFromString() failed: %v", err)
			}
			if asset.Spec.Kind != tc.wantSpec {
				t.Errorf("asset.Spec.Kind = %d, want %d", asset.Spec.Kind, tc.wantSpec)
			}
			if asset.Properties.Kind != tc.wantProps {
				t.Errorf("asset.Properties.Kind = %d, want %d", asset.Properties.Kind, tc.wantProps)
			}
		})
	}
}

func TestSetPropertiesInNode(t *testing.T) {
	content := `# Leading comment
apiVersion: yamlasset/v1
kind: Texture # the kind
metadata:
  name: brick-wall
properties:
  old: value
`
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	props := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "example.com/a"},
		{Kind: yaml.ScalarNode, Value: "1", Tag: "!!int"},
	}}
	if err := SetPropertiesInNode(&doc, props); err != nil {
		t.Fatalf("SetPropertiesInNode() failed: %v", err)
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	want := `# Leading comment
apiVersion: yamlasset/v1
kind: Texture # the kind
metadata:
    name: brick-wall
properties:
    example.com/a: 1
`
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	// Empty properties remove the section.
	if err := SetPropertiesInNode(&doc, &yaml.Node{Kind: yaml.MappingNode}); err != nil {
		t.Fatalf("SetPropertiesInNode() failed: %v", err)
	}
	root, _ := rootMapping(&doc)
	if MappingValue(root, FieldProperties) != nil {
		t.Error("properties still present after setting empty properties")
	}
}

func TestSetNameInNode(t *testing.T) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte("kind: Texture\n"), &doc); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if err := SetNameInNode(&doc, "copy"); err != nil {
		t.Fatalf("SetNameInNode() failed: %v", err)
	}
	asset, err := NewAssetFromNode(&doc, true)
	if err != nil {
		t.Fatalf("NewAssetFromNode() failed: %v", err)
	}
	if asset.Metadata == nil || asset.Metadata.Name != "copy" {
		t.Errorf("asset.Metadata = %+v, want name %q", asset.Metadata, "copy")
	}
}

func TestCopyNode(t *testing.T) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte("kind: Texture\nspec:\n  a: 1\n"), &doc); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	cp, err := CopyNode(&doc)
	if err != nil {
		t.Fatalf("CopyNode() failed: %v", err)
	}
	SpecNode(cp).Content[1].Value = "2"
	if got := SpecNode(&doc).Content[1].Value; got != "1" {
		t.Errorf("original spec.a = %q after modifying copy, want %q", got, "1")
	}
}
