package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dnswlt/yamlasset/internal/pipeline"
	"github.com/dnswlt/yamlasset/internal/store"
	"github.com/google/go-cmp/cmp"
)

const bundleYaml = `
assetsDir: assets
pipeline:
  stages:
    lines:
      kind: SourceLineStage
      trigger: kind == 'Texture'
report:
  title: Textures
  keys: [yamlasset.io/source-lines]
repository:
  validation:
    kind:
      values: [Texture, SoundBank]
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "yamlasset.yaml"), []byte(bundleYaml), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	b, err := Load(store.NewDiskStore(dir), "yamlasset.yaml")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if b.AssetsDir != "assets" {
		t.Errorf("AssetsDir = %q, want %q", b.AssetsDir, "assets")
	}
	if b.Report.Title != "Textures" {
		t.Errorf("Report.Title = %q, want %q", b.Report.Title, "Textures")
	}
	if diff := cmp.Diff([]string{"yamlasset.io/source-lines"}, b.Report.Keys); diff != "" {
		t.Errorf("Report.Keys mismatch (-want +got):\n%s", diff)
	}
	if b.Repository.Validation == nil || b.Repository.Validation.Kind == nil {
		t.Fatal("Repository.Validation.Kind is nil")
	}
	if diff := cmp.Diff([]string{"Texture", "SoundBank"}, b.Repository.Validation.Kind.Values); diff != "" {
		t.Errorf("Kind.Values mismatch (-want +got):\n%s", diff)
	}
	// The pipeline section must be usable as is.
	r, err := pipeline.NewRegistry(&b.Pipeline)
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"lines"}, r.StageNames()); diff != "" {
		t.Errorf("StageNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDefaults(t *testing.T) {
	b, err := Parse([]byte("report:\n  skipEmpty: true\n"), "test")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if b.AssetsDir != "." {
		t.Errorf("AssetsDir = %q, want %q", b.AssetsDir, ".")
	}
	if len(b.Pipeline.Stages) != 0 {
		t.Errorf("len(Pipeline.Stages) = %d, want 0", len(b.Pipeline.Stages))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown top-level field", content: "server:\n  addr: localhost:8080\n"},
		{name: "unknown stage field", content: "pipeline:\n  stages:\n    x:\n      kind: ProvenanceStage\n      when: true\n"},
		{name: "invalid regexp", content: "repository:\n  validation:\n    kind:\n      matches: ['(']\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.content), "test.yaml")
			if err == nil || !strings.Contains(err.Error(), "test.yaml") {
				t.Errorf("Parse() error = %v, want error mentioning test.yaml", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(store.NewDiskStore(t.TempDir()), "missing.yaml"); err == nil {
		t.Error("Load() succeeded, want error")
	}
}
