package repo

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dnswlt/yamlasset/internal/asset"
	"k8s.io/apimachinery/pkg/labels"
)

// Find returns all assets whose labels match the given label selector,
// e.g. "team=graphics,tier in (hero, prop)", sorted by ref.
// An empty selector matches all assets.
func (r *Repository) Find(selector string) ([]*asset.Asset, error) {
	if strings.TrimSpace(selector) == "" {
		return r.Assets(), nil
	}
	sel, err := labels.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %v", selector, err)
	}
	var result []*asset.Asset
	for _, a := range r.Assets() {
		if sel.Matches(labels.Set(a.Metadata.Labels)) {
			result = append(result, a)
		}
	}
	return result, nil
}

// FindKind is like Find, restricted to assets of the given YAML kind.
func (r *Repository) FindKind(kind, selector string) ([]*asset.Asset, error) {
	all, err := r.Find(selector)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(a *asset.Asset) bool {
		return a.Kind != kind
	}), nil
}

// LabelKeys returns all label keys used by any asset, sorted.
func (r *Repository) LabelKeys() []string {
	keySet := map[string]bool{}
	for _, a := range r.assets {
		for k := range a.Metadata.Labels {
			keySet[k] = true
		}
	}
	return slices.Sorted(maps.Keys(keySet))
}

// Kinds returns all YAML kinds in the repository, sorted.
func (r *Repository) Kinds() []string {
	kindSet := map[string]bool{}
	for _, a := range r.assets {
		kindSet[a.Kind] = true
	}
	return slices.Sorted(maps.Keys(kindSet))
}
