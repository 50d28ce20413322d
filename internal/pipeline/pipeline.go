/*
Package pipeline provides the release orchestration for releash.
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quantstack/releash/internal/config"
	"github.com/quantstack/releash/internal/git"
	"github.com/quantstack/releash/internal/hook"
	"github.com/quantstack/releash/internal/release"
	"github.com/quantstack/releash/internal/tmpl"
	"github.com/quantstack/releash/internal/version"
)

// ErrDirtyTree is returned when a release starts from uncommitted changes.
var ErrDirtyTree = errors.New("working tree has uncommitted changes")

// Options contains options for the release pipeline
type Options struct {
	ConfigFile string

	// Packages restricts the run to these package names
	Packages []string

	DryRun     bool
	AllowDirty bool

	// NoCommit leaves bumped files uncommitted
	NoCommit bool

	// Bump is the version part bumped before releasing; empty means none
	Bump version.Part

	// Timeout for the whole run (Go duration)
	Timeout string
}

// Pipeline orchestrates bumps and releases
type Pipeline struct {
	config    *config.Config
	options   Options
	packages  []*release.Package
	baseTmpl  *tmpl.Context
	startTime time.Time
}

// PackageStatus is the current state of a package
type PackageStatus struct {
	Name    string
	Path    string
	Version version.Version
	Targets []string
}

// New creates a new pipeline
func New(ctx context.Context, opts Options) (*Pipeline, error) {
	cfgPath := opts.ConfigFile
	if cfgPath == "" {
		cfgPath = FindConfigFile()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return FromConfig(cfg, opts)
}

// FromConfig creates a pipeline from a loaded configuration
func FromConfig(cfg *config.Config, opts Options) (*Pipeline, error) {
	all, err := release.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	packages, err := selectPackages(all, opts.Packages)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config:    cfg,
		options:   opts,
		packages:  packages,
		baseTmpl:  tmpl.New(cfg.ProjectName, cfg.Variables),
		startTime: time.Now(),
	}, nil
}

func selectPackages(all []*release.Package, names []string) ([]*release.Package, error) {
	if len(names) == 0 {
		return all, nil
	}

	var selected []*release.Package
	for _, name := range names {
		found := false
		for _, p := range all {
			if p.Name == name {
				selected = append(selected, p)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown package: %s", name)
		}
	}
	return selected, nil
}

// Packages returns the packages the pipeline operates on
func (p *Pipeline) Packages() []*release.Package {
	return p.packages
}

// Status reads the current version of every package
func (p *Pipeline) Status(ctx context.Context) ([]PackageStatus, error) {
	statuses := make([]PackageStatus, 0, len(p.packages))
	for _, pkg := range p.packages {
		v, err := pkg.CurrentVersion(ctx)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, PackageStatus{
			Name:    pkg.Name,
			Path:    pkg.Path,
			Version: v,
			Targets: pkg.TargetNames(),
		})
	}
	return statuses, nil
}

// Bump moves every package to its next version, writes all version targets
// and commits the touched files. It returns the new version per package.
func (p *Pipeline) Bump(ctx context.Context, part version.Part) (map[string]version.Version, error) {
	bumped := make(map[string]version.Version, len(p.packages))
	for _, pkg := range p.packages {
		current, err := pkg.CurrentVersion(ctx)
		if err != nil {
			return nil, err
		}
		next, err := current.Bump(part)
		if err != nil {
			return nil, err
		}
		bumped[pkg.Name] = next

		if p.options.DryRun {
			log.Info("Would bump version", "package", pkg.Name, "from", current, "to", next)
			continue
		}

		if err := pkg.SetVersion(ctx, next); err != nil {
			return nil, err
		}
		log.Info("Bumped version", "package", pkg.Name, "from", current, "to", next)

		if p.options.NoCommit {
			continue
		}
		if err := commitFiles(ctx, pkg, fmt.Sprintf("Release %s", next)); err != nil {
			return nil, err
		}
	}
	return bumped, nil
}

func commitFiles(ctx context.Context, pkg *release.Package, message string) error {
	repo, err := git.Open(ctx, pkg.Path)
	if err != nil {
		return err
	}

	var rel []string
	for _, f := range pkg.Files() {
		r, err := filepath.Rel(pkg.Path, f)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		rel = append(rel, r)
	}
	if err := repo.Commit(ctx, rel, message); err != nil {
		return fmt.Errorf("package %s: %w", pkg.Name, err)
	}
	log.Debug("Committed version bump", "package", pkg.Name, "files", rel)
	return nil
}

// Run bumps (when requested) and releases every package
func (p *Pipeline) Run(ctx context.Context) error {
	if p.options.Timeout != "" {
		d, err := time.ParseDuration(p.options.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	log.Info("Starting release", "project", p.config.ProjectName, "dry_run", p.options.DryRun)

	if !p.options.AllowDirty && !p.options.DryRun {
		if err := p.checkClean(ctx); err != nil {
			return err
		}
	}

	hooks := hook.NewRunner(p.baseTmpl, p.config.BaseDir)
	hooks.DryRun = p.options.DryRun
	if err := hooks.RunAll(ctx, p.config.Before, "before"); err != nil {
		return err
	}

	var planned map[string]version.Version
	if p.options.Bump != "" {
		var err error
		planned, err = p.Bump(ctx, p.options.Bump)
		if err != nil {
			return err
		}
	}

	for _, pkg := range p.packages {
		v, ok := planned[pkg.Name]
		if !ok {
			var err error
			v, err = pkg.CurrentVersion(ctx)
			if err != nil {
				return err
			}
		}
		if err := p.releasePackage(ctx, pkg, v); err != nil {
			return err
		}
	}

	if err := hooks.RunAll(ctx, p.config.After, "after"); err != nil {
		return err
	}

	elapsed := time.Since(p.startTime)
	log.Info("Release completed successfully", "duration", elapsed.Round(time.Millisecond))
	return nil
}

func (p *Pipeline) checkClean(ctx context.Context) error {
	for _, pkg := range p.packages {
		repo, err := git.Open(ctx, pkg.Path)
		if err != nil {
			return err
		}
		clean, err := repo.IsClean(ctx)
		if err != nil {
			return err
		}
		if !clean {
			return fmt.Errorf("package %s: %w (use --allow-dirty to override)", pkg.Name, ErrDirtyTree)
		}
	}
	return nil
}

// releasePackage runs the release targets of pkg in order, stopping at the
// first failure.
func (p *Pipeline) releasePackage(ctx context.Context, pkg *release.Package, v version.Version) error {
	rc := p.releaseContext(pkg, v)

	log.Info("Releasing package", "package", pkg.Name, "version", v, "targets", pkg.TargetNames())
	for _, target := range pkg.ReleaseTargets {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debug("Running release target", "package", pkg.Name, "target", target.Name())
		if err := target.Release(ctx, rc); err != nil {
			return fmt.Errorf("package %s: %s: %w", pkg.Name, target.Name(), err)
		}
	}
	return nil
}

func (p *Pipeline) releaseContext(pkg *release.Package, v version.Version) *release.Context {
	var tag string
	for _, t := range pkg.ReleaseTargets {
		if tagTarget, ok := t.(*release.GitTagVersion); ok {
			tag = tagTarget.Prefix + v.String()
		}
	}
	tmplTag := tag
	if tmplTag == "" {
		tmplTag = v.String()
	}

	return &release.Context{
		Package: pkg,
		Version: v,
		Tag:     tag,
		Tmpl:    p.baseTmpl.WithRelease(pkg.Name, pkg.Path, v.String(), tmplTag, v.Major(), v.Minor(), v.Patch()),
		DryRun:  p.options.DryRun,
	}
}

// FindConfigFile returns the first existing default config file name
func FindConfigFile() string {
	candidates := []string{
		".releash.yaml",
		".releash.yml",
		"releash.yaml",
		"releash.yml",
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}

	return ".releash.yaml"
}
