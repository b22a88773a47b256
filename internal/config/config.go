package config

import (
	"bytes"
	"fmt"

	"github.com/dnswlt/yamlasset/internal/pipeline"
	"github.com/dnswlt/yamlasset/internal/repo"
	"github.com/dnswlt/yamlasset/internal/report"
	"github.com/dnswlt/yamlasset/internal/store"
	"gopkg.in/yaml.v3"
)

// Bundle is the umbrella struct for the serialized application configuration YAML.
// It bundles the package-specific configurations.
type Bundle struct {
	// Directory of the asset files, relative to the store root. Defaults to ".".
	AssetsDir  string          `yaml:"assetsDir"`
	Pipeline   pipeline.Config `yaml:"pipeline"`
	Report     report.Config   `yaml:"report"`
	Repository repo.Config     `yaml:"repository"`
}

// Load reads the config bundle at configPath from st.
// Unknown fields are rejected.
func Load(st store.Store, configPath string) (*Bundle, error) {
	bs, err := st.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not read config %q: %v", configPath, err)
	}
	return Parse(bs, configPath)
}

// Parse decodes a config bundle. name is only used in error messages.
func Parse(bs []byte, name string) (*Bundle, error) {
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true)
	var bundle Bundle
	if err := dec.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("invalid configuration YAML in %q: %v", name, err)
	}
	if bundle.AssetsDir == "" {
		bundle.AssetsDir = "."
	}
	return &bundle, nil
}
