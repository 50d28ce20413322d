/*
Package condaforge updates a conda-forge feedstock checkout for a new release:
it downloads the source tarball, records its digest and version in the recipe,
and commits the change in the feedstock repository.
*/
package condaforge

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quantstack/releash/internal/checksum"
	"github.com/quantstack/releash/internal/git"
)

// DefaultTimeout bounds the tarball download.
const DefaultTimeout = 5 * time.Minute

// Feedstock is a local checkout of a conda-forge feedstock
type Feedstock struct {
	// Dir is the feedstock working tree
	Dir string

	// Recipe is the recipe path relative to Dir
	Recipe string

	// Client downloads tarballs; http.DefaultClient when nil
	Client *http.Client

	Timeout time.Duration
}

// Result is the outcome of a feedstock update
type Result struct {
	RecipePath string
	Change     RecipeChange
	Committed  bool
}

// Fetch downloads url and returns the SHA-256 of its body.
func (f *Feedstock) Fetch(ctx context.Context, url string) (string, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid source tarball url %s: %w", url, err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	log.Info("Downloading source tarball", "url", url)
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: %s", url, resp.Status)
	}

	sum, err := checksum.SHA256(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	log.Debug("Source tarball digest", "url", url, "sha256", sum)
	return sum, nil
}

// Update downloads the source tarball and writes version and digest into the
// recipe. When commit is set the recipe is committed in the feedstock.
func (f *Feedstock) Update(ctx context.Context, pkg, version, url string, commit bool) (*Result, error) {
	recipePath := filepath.Join(f.Dir, f.Recipe)
	info, err := os.Stat(recipePath)
	if err != nil {
		return nil, fmt.Errorf("feedstock recipe not found: %w", err)
	}

	sum, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(recipePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}

	updated, change, err := UpdateRecipe(content, version, sum)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recipePath, err)
	}

	if err := os.WriteFile(recipePath, updated, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("failed to write recipe: %w", err)
	}
	log.Info("Updated feedstock recipe", "recipe", recipePath, "from", change.OldVersion, "to", version)

	result := &Result{RecipePath: recipePath, Change: change}
	if !commit {
		return result, nil
	}

	repo, err := git.Open(ctx, f.Dir)
	if err != nil {
		return nil, err
	}
	message := fmt.Sprintf("Update %s to %s", pkg, version)
	if err := repo.Commit(ctx, []string{f.Recipe}, message); err != nil {
		return nil, err
	}
	result.Committed = true

	return result, nil
}

// Push pushes the feedstock branch to remote.
func (f *Feedstock) Push(ctx context.Context, remote, branch string) error {
	repo, err := git.Open(ctx, f.Dir)
	if err != nil {
		return err
	}
	if branch == "" {
		branch, err = repo.Branch(ctx)
		if err != nil {
			return err
		}
	}
	return repo.Push(ctx, remote, branch)
}
