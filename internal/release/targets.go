package release

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quantstack/releash/internal/condaforge"
	"github.com/quantstack/releash/internal/git"
)

// GitTagVersion tags the package repository with the released version
type GitTagVersion struct {
	Source   VersionSource
	Prefix   string
	Annotate bool
	// Message is a template; "Release {{ .Tag }}" when empty
	Message string
}

// Name implements Target
func (t *GitTagVersion) Name() string { return "git_tag" }

// TagName returns the tag for a version
func (t *GitTagVersion) TagName(rc *Context) string {
	return t.Prefix + rc.Version.String()
}

// Release implements Target
func (t *GitTagVersion) Release(ctx context.Context, rc *Context) error {
	// Only tag the version the source holds.
	if t.Source != nil && !rc.DryRun {
		v, err := t.Source.Version(ctx)
		if err != nil {
			return err
		}
		if !v.Equal(rc.Version) {
			return fmt.Errorf("version source reports %s, releasing %s", v, rc.Version)
		}
	}

	tag := t.TagName(rc)
	message := t.Message
	if message == "" {
		message = "Release {{ .Tag }}"
	}
	message, err := rc.Tmpl.Apply(message)
	if err != nil {
		return fmt.Errorf("failed to render tag message: %w", err)
	}

	if rc.DryRun {
		log.Info("Would create tag", "tag", tag, "annotated", t.Annotate)
		return nil
	}

	repo, err := git.Open(ctx, rc.Package.Path)
	if err != nil {
		return err
	}
	exists, err := repo.TagExists(ctx, tag)
	if err != nil {
		return err
	}
	if exists {
		// A tag on HEAD is left over from an interrupted release.
		tagged, err := repo.TagCommit(ctx, tag)
		if err != nil {
			return err
		}
		head, err := repo.Head(ctx)
		if err != nil {
			return err
		}
		if tagged != head {
			return fmt.Errorf("tag %s already exists on %s", tag, tagged)
		}
		log.Info("Tag already on HEAD, keeping it", "tag", tag)
		return nil
	}
	if err := repo.Tag(ctx, tag, t.Annotate, message); err != nil {
		return err
	}
	log.Info("Created tag", "tag", tag)
	return nil
}

// GitPush pushes the package repository to a remote branch
type GitPush struct {
	Remote string
	Branch string
	// NoTags pushes the branch without the release tag
	NoTags bool
}

// Name implements Target
func (t *GitPush) Name() string { return "git_push" }

// Release implements Target
func (t *GitPush) Release(ctx context.Context, rc *Context) error {
	var tags []string
	if !t.NoTags && rc.Tag != "" {
		tags = append(tags, rc.Tag)
	}

	if rc.DryRun {
		log.Info("Would push", "remote", t.Remote, "branch", t.Branch, "tags", tags)
		return nil
	}

	repo, err := git.Open(ctx, rc.Package.Path)
	if err != nil {
		return err
	}
	if err := repo.Push(ctx, t.Remote, t.Branch, tags...); err != nil {
		return err
	}
	log.Info("Pushed", "remote", t.Remote, "branch", t.Branch, "tags", tags)
	return nil
}

// CondaForge updates a conda-forge feedstock with the released sources
type CondaForge struct {
	// Feedstock path; relative paths resolve against the package path
	Feedstock string
	Recipe    string

	// SourceTarball is a URL template
	SourceTarball string

	PushRemote string
	PushBranch string

	Timeout time.Duration

	// updater is swapped in tests
	updater func(fs *condaforge.Feedstock) feedstockUpdater
}

type feedstockUpdater interface {
	Update(ctx context.Context, pkg, version, url string, commit bool) (*condaforge.Result, error)
	Push(ctx context.Context, remote, branch string) error
}

// Name implements Target
func (t *CondaForge) Name() string { return "conda_forge" }

// SourceURL renders the source tarball URL for the release
func (t *CondaForge) SourceURL(rc *Context) (string, error) {
	url, err := rc.Tmpl.Apply(t.SourceTarball)
	if err != nil {
		return "", fmt.Errorf("failed to render source tarball url: %w", err)
	}
	return url, nil
}

func (t *CondaForge) feedstockDir(rc *Context) string {
	if filepath.IsAbs(t.Feedstock) {
		return t.Feedstock
	}
	return filepath.Join(rc.Package.Path, t.Feedstock)
}

// Release implements Target
func (t *CondaForge) Release(ctx context.Context, rc *Context) error {
	url, err := t.SourceURL(rc)
	if err != nil {
		return err
	}
	dir := t.feedstockDir(rc)

	if rc.DryRun {
		log.Info("Would update feedstock", "feedstock", dir, "url", url, "push", t.PushRemote)
		return nil
	}

	fs := &condaforge.Feedstock{Dir: dir, Recipe: t.Recipe, Timeout: t.Timeout}
	var u feedstockUpdater = fs
	if t.updater != nil {
		u = t.updater(fs)
	}

	res, err := u.Update(ctx, rc.Package.Name, rc.Version.String(), url, true)
	if err != nil {
		return fmt.Errorf("conda-forge: %w", err)
	}
	log.Info("Feedstock updated", "recipe", res.RecipePath, "sha256", res.Change.SHA256)

	if t.PushRemote == "" {
		return nil
	}
	if err := u.Push(ctx, t.PushRemote, t.PushBranch); err != nil {
		return fmt.Errorf("conda-forge: %w", err)
	}
	log.Info("Feedstock pushed", "remote", t.PushRemote)
	return nil
}
