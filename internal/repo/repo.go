package repo

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"

	"github.com/dnswlt/yamlasset/internal/api"
	"github.com/dnswlt/yamlasset/internal/asset"
	"github.com/dnswlt/yamlasset/internal/props"
	"github.com/dnswlt/yamlasset/internal/store"
	"gopkg.in/yaml.v3"
)

var (
	ErrNotFound = errors.New("asset not found")
	ErrExists   = errors.New("asset already exists")
)

// Repository holds all assets loaded from a store directory.
type Repository struct {
	// All assets, keyed by their ref string (<kind>:<namespace>/<name>).
	assets map[string]*asset.Asset
	// Assets per file, in document order.
	files map[string][]*asset.Asset

	registry *props.Registry
	config   Config
}

func NewRepository(reg *props.Registry, config Config) *Repository {
	return &Repository{
		assets:   make(map[string]*asset.Asset),
		files:    make(map[string][]*asset.Asset),
		registry: reg,
		config:   config,
	}
}

// Registry returns the registry used to encode and decode attached metadata.
func (r *Repository) Registry() *props.Registry {
	return r.registry
}

func (r *Repository) Len() int {
	return len(r.assets)
}

func refKey(ref *api.Ref) string {
	ns := ref.Namespace
	if ns == "" {
		ns = api.DefaultNamespace
	}
	return ref.Kind + ":" + ns + "/" + ref.Name
}

func (r *Repository) Exists(ref *api.Ref) bool {
	_, ok := r.assets[refKey(ref)]
	return ok
}

// AddAsset adds a to the repository as the last document of file path.
// The asset must be valid according to the repository config.
func (r *Repository) AddAsset(path string, a *asset.Asset) error {
	if a.Metadata == nil {
		return fmt.Errorf("asset metadata is nil")
	}
	ref := a.GetRef()
	if r.Exists(ref) {
		return fmt.Errorf("asset %s: %w", ref, ErrExists)
	}
	if err := r.config.Validation.Accept(a); err != nil {
		return fmt.Errorf("asset %s: %v", ref, err)
	}
	r.assets[refKey(ref)] = a
	r.files[path] = append(r.files[path], a)
	return nil
}

// Asset returns the asset with the given ref, or nil.
func (r *Repository) Asset(ref *api.Ref) *asset.Asset {
	return r.assets[refKey(ref)]
}

// Assets returns all assets sorted by ref.
func (r *Repository) Assets() []*asset.Asset {
	result := slices.Collect(maps.Values(r.assets))
	slices.SortFunc(result, func(a1, a2 *asset.Asset) int {
		return asset.CompareRefs(a1.GetRef(), a2.GetRef())
	})
	return result
}

// Files returns the paths of all files in the repository in sorted order.
func (r *Repository) Files() []string {
	return slices.Sorted(maps.Keys(r.files))
}

// FileAssets returns the assets of file path in document order.
func (r *Repository) FileAssets(path string) []*asset.Asset {
	return slices.Clone(r.files[path])
}

// Clone creates a copy of the asset ref under newName, including all
// attached metadata, and inserts it right after its source in the same file.
func (r *Repository) Clone(ref *api.Ref, newName string) (*asset.Asset, error) {
	src := r.Asset(ref)
	if src == nil {
		return nil, fmt.Errorf("asset %s: %w", ref, ErrNotFound)
	}
	newRef := &api.Ref{Kind: ref.Kind, Namespace: src.Metadata.Namespace, Name: newName}
	if r.Exists(newRef) {
		return nil, fmt.Errorf("asset %s: %w", newRef, ErrExists)
	}
	cpy, err := src.Clone(newName)
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", ref, err)
	}
	if err := r.config.Validation.Accept(cpy); err != nil {
		return nil, fmt.Errorf("asset %s: %v", newRef, err)
	}

	path := src.GetSourceInfo().Path
	docs := r.files[path]
	idx := slices.Index(docs, src)
	r.files[path] = slices.Insert(docs, idx+1, cpy)
	r.assets[refKey(newRef)] = cpy
	return cpy, nil
}

// Save writes every file of the repository back to st.
// Attached metadata is written to the properties section of each asset.
func (r *Repository) Save(st store.Store) error {
	for _, path := range r.Files() {
		assets := r.files[path]
		docs := make([]*yaml.Node, 0, len(assets))
		for _, a := range assets {
			doc, err := a.ToNode(r.registry)
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", a.GetRef(), err)
			}
			docs = append(docs, doc)
		}
		if err := store.WriteAssets(st, path, docs); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.Printf("Wrote %d assets to %s", len(docs), path)
	}
	return nil
}

// Load reads all asset files below dir in st.
// Attached metadata is decoded using the persistent names in reg.
func Load(st store.Store, config Config, dir string, reg *props.Registry) (*Repository, error) {
	repo := NewRepository(reg, config)
	if err := repo.initialize(st, dir); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) initialize(st store.Store, dir string) error {
	if r.Len() != 0 {
		return fmt.Errorf("initialize called on a non-empty repo (size: %d)", r.Len())
	}
	paths, err := store.AssetFiles(st, dir)
	if err != nil {
		return fmt.Errorf("initialize: cannot retrieve asset files: %v", err)
	}
	for _, path := range paths {
		log.Printf("Reading asset file %s", path)
		apiAssets, err := store.ReadAssets(st, path)
		if err != nil {
			return fmt.Errorf("failed to read assets from %s: %v", path, err)
		}
		for _, a := range apiAssets {
			as, err := asset.NewAssetFromAPI(a, r.registry)
			if err != nil {
				return fmt.Errorf("invalid asset %s %s (source: %s:%d): %v",
					a.Kind, a.Metadata.GetQName(),
					a.GetSourceInfo().Path, a.GetSourceInfo().Line, err)
			}
			if err := r.AddAsset(path, as); err != nil {
				return fmt.Errorf("failed to add asset %s (source: %s:%d): %w",
					as.GetRef(), a.GetSourceInfo().Path, a.GetSourceInfo().Line, err)
			}
		}
	}
	return nil
}
