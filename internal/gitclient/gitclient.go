// Package gitclient reads files from any revision of a remote Git repository
// that is cloned into memory.
package gitclient

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Auth holds Basic Auth credentials.
// For access tokens, most hosting services accept an arbitrary
// Username and the token as Password.
type Auth struct {
	Username string
	Password string // or Token
}

// Client holds a clone of a repository in memory.
// It is safe for concurrent use.
type Client struct {
	mu   sync.RWMutex
	repo *git.Repository
	auth *Auth
}

// New clones the repository at url into memory.
// auth may be nil for public or local repositories.
func New(url string, auth *Auth) (*Client, error) {
	cloneOpts := &git.CloneOptions{
		URL:        url,
		NoCheckout: true, // Only the object database is needed.
		Depth:      0,    // Full history, so that all tags can be resolved.
		Tags:       git.AllTags,
	}
	if a := basicAuth(auth); a != nil {
		cloneOpts.Auth = a
	}
	repo, err := git.Clone(memory.NewStorage(), nil, cloneOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return &Client{repo: repo, auth: auth}, nil
}

func basicAuth(auth *Auth) *http.BasicAuth {
	if auth == nil {
		return nil
	}
	return &http.BasicAuth{
		Username: auth.Username,
		Password: auth.Password,
	}
}

// Update fetches all branches and tags from the remote.
func (c *Client) Update() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fetchOpts := &git.FetchOptions{
		RefSpecs: []config.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Tags:     git.AllTags,
		Force:    true,
	}
	if a := basicAuth(c.auth); a != nil {
		fetchOpts.Auth = a
	}
	err := c.repo.Fetch(fetchOpts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch failed: %w", err)
	}
	return nil
}

// DefaultBranch returns the branch that HEAD of the remote pointed to
// when the repository was cloned, e.g. "main".
func (c *Client) DefaultBranch() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	head, err := c.repo.Head()
	if err != nil {
		return "", fmt.Errorf("cannot resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is not a branch: %s", head.Name())
	}
	return head.Name().Short(), nil
}

// ListReferences returns the short names of all branches and tags.
// Remote branches are reported without the remote name.
func (c *Client) ListReferences() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	refMap := make(map[string]bool)
	refs, err := c.repo.References()
	if err != nil {
		return nil, err
	}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		if name.IsTag() || name.IsBranch() {
			refMap[name.Short()] = true
		} else if name.IsRemote() {
			// refs/remotes/origin/main => main
			short := name.Short()
			if _, branch, ok := strings.Cut(short, "/"); ok && branch != "HEAD" {
				refMap[branch] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	references := make([]string, 0, len(refMap))
	for v := range refMap {
		references = append(references, v)
	}
	return references, nil
}

func (c *Client) resolveRevision(revision string) (*plumbing.Hash, error) {
	// Remote branches are updated by Update, local ones are not,
	// so they take precedence.
	if !strings.HasPrefix(revision, "refs/") {
		if hash, err := c.repo.ResolveRevision(plumbing.Revision("refs/remotes/origin/" + revision)); err == nil {
			return hash, nil
		}
	}
	hash, err := c.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("revision %q not found: %w", revision, err)
	}
	return hash, nil
}

func (c *Client) rootTree(revision string) (*object.Tree, error) {
	hash, err := c.resolveRevision(revision)
	if err != nil {
		return nil, err
	}
	commit, err := c.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("commit lookup failed: %w", err)
	}
	return commit.Tree()
}

// ReadFile returns the contents of filePath at the given revision.
func (c *Client) ReadFile(revision, filePath string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tree, err := c.rootTree(revision)
	if err != nil {
		return nil, err
	}
	file, err := tree.File(filePath)
	if err != nil {
		return nil, err // object.ErrFileNotFound if missing
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// ListFilesRecursive lists all files below dirPath at the given revision.
// The returned paths are relative to dirPath.
func (c *Client) ListFilesRecursive(revision, dirPath string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rootTree, err := c.rootTree(revision)
	if err != nil {
		return nil, fmt.Errorf("revision resolution failed: %w", err)
	}
	targetTree := rootTree
	if dirPath != "" && dirPath != "." && dirPath != "/" {
		targetTree, err = rootTree.Tree(strings.Trim(dirPath, "/"))
		if err != nil {
			return nil, fmt.Errorf("directory %q not found or invalid: %w", dirPath, err)
		}
	}

	var filePaths []string
	filesIter := targetTree.Files()
	defer filesIter.Close()
	err = filesIter.ForEach(func(f *object.File) error {
		filePaths = append(filePaths, f.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iteration failed: %w", err)
	}
	return filePaths, nil
}
