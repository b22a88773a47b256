package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dnswlt/yamlasset/internal/api"
	"github.com/dnswlt/yamlasset/internal/gitclient"
	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"
)

const (
	YAMLIndent = 2

	// Number of git blobs kept in memory by a GitSource.
	DefaultBlobCacheSize = 1024
)

var (
	ErrReadOnly  = errors.New("store is read-only")
	ErrNoSuchRef = errors.New("no such ref")
)

// Source is the abstraction over different types of storage layers,
// in particular local disk (non-versioned) and a Git repo (read-only).
type Source interface {
	// Refresh updates the internal state of the source (e.g., via git fetch).
	// For a disk store, this is a no-op.
	Refresh() error
	// Store returns a handle to a store at the given ref.
	// For non-versioned disk-based stores, ref must be "".
	Store(ref string) (Store, error)
}

// Store is a minimal abstraction to list, read, and write files.
// It is the common interface for disk-based and git-repo-based stores.
type Store interface {
	// ListFiles lists all files in dir (recursively).
	// The resulting paths are relative to the store's root directory,
	// so they can be passed to ReadFile and WriteFile unmodified.
	ListFiles(dir string) ([]string, error)
	// ReadFile reads the contents of path from the store.
	// path must be a relative path (e.g., "textures/brick.yml").
	ReadFile(path string) ([]byte, error)
	// WriteFile writes contents to path in the store.
	// Stores that do not support writing return ErrReadOnly.
	WriteFile(path string, contents []byte) error
}

// DiskStore is an implementation of Source and Store that reads files from the local file system.
type DiskStore struct {
	rootDir string
}

// Asserts that DiskStore implements both Source and Store.
var _ Source = (*DiskStore)(nil)
var _ Store = (*DiskStore)(nil)

func NewDiskStore(rootDir string) *DiskStore {
	return &DiskStore{
		rootDir: rootDir,
	}
}

func (d *DiskStore) Refresh() error {
	return nil
}

func (d *DiskStore) Store(ref string) (Store, error) {
	if ref != "" {
		return nil, fmt.Errorf("invalid ref %q: %w", ref, ErrNoSuchRef)
	}
	return d, nil
}

func (d *DiskStore) ListFiles(dir string) ([]string, error) {
	return listFilesRecursively(d.rootDir, dir)
}

func resolveRelPath(root, subpath string) (string, error) {
	fullPath := filepath.Join(root, subpath)

	// Verify ancestry by calculating the relative path from the root.
	rel, err := filepath.Rel(root, fullPath)
	if err != nil {
		return "", fmt.Errorf("not a relative path: %v", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes root directory", subpath)
	}
	return fullPath, nil
}

func (d *DiskStore) ReadFile(path string) ([]byte, error) {
	fullPath, err := resolveRelPath(d.rootDir, path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(fullPath)
}

func (d *DiskStore) WriteFile(path string, contents []byte) error {
	fullPath, err := resolveRelPath(d.rootDir, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, contents, 0644)
}

type blobKey struct {
	ref  string
	path string
}

// GitSource is an implementation of Source that reads from a remote Git repository.
// Files read through its stores are cached per (ref, path).
type GitSource struct {
	client     *gitclient.Client
	defaultRef string // ref to use if the empty ref ("") is requested
	rootDir    string // directory within the repository that stores are rooted at

	mu    sync.Mutex
	refs  []string // cached list of available references
	blobs *lru.Cache[blobKey, []byte]
}

// gitStore is a "view" over a single revision in a GitSource.
type gitStore struct {
	source *GitSource
	ref    string
}

var _ Source = (*GitSource)(nil)
var _ Store = (*gitStore)(nil)

// NewGitSource returns a source over the revisions of client's repository.
// All paths are interpreted relative to rootDir, which may be empty.
func NewGitSource(client *gitclient.Client, defaultRef, rootDir string) *GitSource {
	blobs, err := lru.New[blobKey, []byte](DefaultBlobCacheSize)
	if err != nil {
		// Only fails for non-positive sizes.
		panic(err)
	}
	return &GitSource{
		client:     client,
		defaultRef: defaultRef,
		rootDir:    path.Clean(strings.Trim(rootDir, "/")),
		blobs:      blobs,
	}
}

func (g *GitSource) DefaultRef() string {
	return g.defaultRef
}

// Refresh fetches from the remote. Branch refs may move, so the
// reference list and the blob cache are discarded.
func (g *GitSource) Refresh() error {
	g.mu.Lock()
	g.refs = nil
	g.mu.Unlock()
	g.blobs.Purge()
	return g.client.Update()
}

func (g *GitSource) Store(ref string) (Store, error) {
	if ref == "" {
		ref = g.defaultRef
	}
	refs, err := g.ListReferences()
	if err != nil {
		return nil, fmt.Errorf("cannot list references: %v", err)
	}
	if !slices.Contains(refs, ref) {
		return nil, ErrNoSuchRef
	}
	return &gitStore{
		source: g,
		ref:    ref,
	}, nil
}

func (g *GitSource) ListReferences() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refs != nil {
		return g.refs, nil
	}
	refs, err := g.client.ListReferences()
	if err != nil {
		return nil, err
	}
	slices.Sort(refs)
	g.refs = refs
	return refs, nil
}

// repoPath returns the path of p within the repository.
// Avoid using filepath here, as git paths use "/" on any OS.
func (g *GitSource) repoPath(p string) string {
	return path.Join(g.rootDir, p)
}

func (s *gitStore) ListFiles(dir string) ([]string, error) {
	files, err := s.source.client.ListFilesRecursive(s.ref, s.source.repoPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %v", err)
	}
	// Make relative to the store root.
	result := make([]string, len(files))
	for i, f := range files {
		result[i] = path.Join(dir, f)
	}
	return result, nil
}

func (s *gitStore) ReadFile(p string) ([]byte, error) {
	key := blobKey{ref: s.ref, path: s.source.repoPath(p)}
	if data, ok := s.source.blobs.Get(key); ok {
		return slices.Clone(data), nil
	}
	data, err := s.source.client.ReadFile(s.ref, key.path)
	if err != nil {
		return nil, err
	}
	s.source.blobs.Add(key, data)
	return slices.Clone(data), nil
}

func (s *gitStore) WriteFile(path string, contents []byte) error {
	return ErrReadOnly
}

// WriteAssets writes a multi-document YAML file containing docs to path.
func WriteAssets(st Store, path string, docs []*yaml.Node) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(YAMLIndent)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("failed to encode node from line %d: %w", d.Line, err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}
	return st.WriteFile(path, buf.Bytes())
}

// ReadAssets reads all asset documents from the YAML file at path.
// Empty documents are skipped. Unknown fields are rejected.
func ReadAssets(st Store, path string) ([]*api.Asset, error) {
	bs, err := st.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(bs))
	var assets []*api.Asset
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode YAML node in %q: %w", path, err)
		}

		// node.Content is empty for blank documents (e.g., just "---")
		if len(node.Content) == 0 {
			continue
		}

		a, err := api.NewAssetFromNode(&node, true)
		if err != nil {
			return nil, fmt.Errorf("error in document %q starting at line %d: %v", path, node.Line, err)
		}
		a.GetSourceInfo().Path = path
		assets = append(assets, a)
	}

	return assets, nil
}

// listFilesRecursively lists all files in subDir, which must
// be a relative path specifying a sub-directory of rootDir.
// The resulting paths are relative to rootDir.
//
// Example:
// with rootDir "/foo/bar" and subDir "baz/quz", all files under
// "/foo/bar/baz/quz" are returned, relative to "/foo/bar", such as
// ["baz/quz/brick.yml"].
func listFilesRecursively(rootDir, subDir string) ([]string, error) {
	startDir, err := resolveRelPath(rootDir, subDir)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(startDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// IsAssetFile reports whether path names a YAML file.
func IsAssetFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}

// AssetFiles lists all *.yml and *.yaml files under dir, which must be
// a path relative to the store's root. The result is sorted.
func AssetFiles(st Store, dir string) ([]string, error) {
	allFiles, err := st.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	var result []string
	for _, f := range allFiles {
		if IsAssetFile(f) {
			result = append(result, f)
		}
	}
	slices.Sort(result)
	return result, nil
}
