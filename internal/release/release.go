/*
Package release holds the release model of releash: packages, where their
version is read from and written to, and the targets run to publish it.
*/
package release

import (
	"context"
	"fmt"

	"github.com/quantstack/releash/internal/tmpl"
	"github.com/quantstack/releash/internal/version"
)

// VersionSource reads the current version of a package
type VersionSource interface {
	Version(ctx context.Context) (version.Version, error)
}

// VersionTarget stores a new version
type VersionTarget interface {
	SetVersion(ctx context.Context, v version.Version) error
	// Files lists the files SetVersion writes, for committing
	Files() []string
}

// Target is a release action run after the version is final
type Target interface {
	Name() string
	Release(ctx context.Context, rc *Context) error
}

// Package is a releasable unit
type Package struct {
	Name string
	Path string

	VersionSource  VersionSource
	VersionTargets []VersionTarget
	ReleaseTargets []Target
}

// Context is passed to release targets
type Context struct {
	Package *Package
	Version version.Version
	// Tag is the release tag pushed with the branch; empty when the
	// package has no git tag target
	Tag     string
	Tmpl    *tmpl.Context
	DryRun  bool
}

// Files returns every file written by the version targets, without
// duplicates.
func (p *Package) Files() []string {
	seen := make(map[string]bool)
	var files []string
	for _, t := range p.VersionTargets {
		for _, f := range t.Files() {
			if seen[f] {
				continue
			}
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

// CurrentVersion reads the version from the package's version source
func (p *Package) CurrentVersion(ctx context.Context) (version.Version, error) {
	if p.VersionSource == nil {
		return version.Version{}, fmt.Errorf("package %s has no version source", p.Name)
	}
	v, err := p.VersionSource.Version(ctx)
	if err != nil {
		return version.Version{}, fmt.Errorf("package %s: %w", p.Name, err)
	}
	return v, nil
}

// SetVersion writes v to every version target
func (p *Package) SetVersion(ctx context.Context, v version.Version) error {
	for _, t := range p.VersionTargets {
		if err := t.SetVersion(ctx, v); err != nil {
			return fmt.Errorf("package %s: %w", p.Name, err)
		}
	}
	return nil
}

// TargetNames returns the release target names in run order
func (p *Package) TargetNames() []string {
	names := make([]string, 0, len(p.ReleaseTargets))
	for _, t := range p.ReleaseTargets {
		names = append(names, t.Name())
	}
	return names
}
