/*
Package git wraps the git executable for the release targets of releash.
*/
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Repo is a git working tree
type Repo struct {
	// Dir is the working tree; empty means the current directory
	Dir string
}

// Open returns a Repo for dir after checking that it is a git working tree
func Open(ctx context.Context, dir string) (*Repo, error) {
	r := &Repo{Dir: dir}
	if _, err := r.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("not a git repository: %s", displayDir(dir))
	}
	return r, nil
}

// Head returns the current commit hash
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get commit: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Branch returns the current branch
func (r *Repo) Branch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// IsClean reports whether the working tree has no uncommitted changes
func (r *Repo) IsClean(ctx context.Context) (bool, error) {
	status, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return strings.TrimSpace(status) == "", nil
}

// TagExists reports whether a tag with the given name exists
func (r *Repo) TagExists(ctx context.Context, name string) (bool, error) {
	out, err := r.run(ctx, "tag", "-l", name)
	if err != nil {
		return false, fmt.Errorf("failed to list tags: %w", err)
	}
	return strings.TrimSpace(out) == name, nil
}

// Tag creates a tag on HEAD. Annotated tags carry message.
func (r *Repo) Tag(ctx context.Context, name string, annotate bool, message string) error {
	args := []string{"tag"}
	if annotate {
		args = append(args, "-a", name, "-m", message)
	} else {
		args = append(args, name)
	}
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	log.Debug("Created tag", "tag", name, "annotated", annotate, "dir", displayDir(r.Dir))
	return nil
}

// TagSubject returns the annotation subject of a tag
func (r *Repo) TagSubject(ctx context.Context, name string) (string, error) {
	out, err := r.run(ctx, "tag", "-l", "--format=%(subject)", name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Push pushes branch to remote together with the named tags
func (r *Repo) Push(ctx context.Context, remote, branch string, tags ...string) error {
	args := []string{"push", remote, branch}
	for _, tag := range tags {
		args = append(args, "refs/tags/"+tag)
	}
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", branch, remote, err)
	}
	log.Debug("Pushed", "remote", remote, "branch", branch, "tags", tags, "dir", displayDir(r.Dir))
	return nil
}

// TagCommit returns the commit a tag points at
func (r *Repo) TagCommit(ctx context.Context, name string) (string, error) {
	out, err := r.run(ctx, "rev-parse", "refs/tags/"+name+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("failed to resolve tag %s: %w", name, err)
	}
	return strings.TrimSpace(out), nil
}

// Commit stages paths and commits them with message
func (r *Repo) Commit(ctx context.Context, paths []string, message string) error {
	if len(paths) == 0 {
		return fmt.Errorf("nothing to commit")
	}
	args := append([]string{"add", "--"}, paths...)
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	args = append([]string{"commit", "-m", message, "--"}, paths...)
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// run executes a git command and returns the output
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
