package git_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/quantstack/releash/internal/git"
)

// initRepo creates a repository with one commit in a temp dir.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q", "-b", "master"},
		{"config", "user.email", "dev@example.com"},
		{"config", "user.name", "Dev"},
		{"config", "commit.gpgsign", "false"},
		{"config", "tag.gpgsign", "false"},
	} {
		runGit(t, dir, args...)
	}
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("xtl\n"), 0644))
	runGit(t, dir, "add", "README.md")
	runGit(t, dir, "commit", "-q", "-m", "init")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return string(out)
}

func TestOpen_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_CEILING_DIRECTORIES", os.TempDir())
	_, err := git.Open(context.Background(), t.TempDir())
	gt.Error(t, err)
}

func TestRepo_TagAndCommit(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	repo, err := git.Open(ctx, dir)
	gt.NoError(t, err)

	branch, err := repo.Branch(ctx)
	gt.NoError(t, err)
	gt.Equal(t, branch, "master")

	clean, err := repo.IsClean(ctx)
	gt.NoError(t, err)
	gt.True(t, clean)

	gt.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("xtl 0.6.2\n"), 0644))
	clean, err = repo.IsClean(ctx)
	gt.NoError(t, err)
	gt.Equal(t, clean, false)

	before, err := repo.Head(ctx)
	gt.NoError(t, err)
	gt.NoError(t, repo.Commit(ctx, []string{"README.md"}, "Release 0.6.2"))
	after, err := repo.Head(ctx)
	gt.NoError(t, err)
	gt.Value(t, after).NotEqual(before)

	gt.NoError(t, repo.Tag(ctx, "0.6.2", true, "Release 0.6.2"))
	exists, err := repo.TagExists(ctx, "0.6.2")
	gt.NoError(t, err)
	gt.True(t, exists)

	subject, err := repo.TagSubject(ctx, "0.6.2")
	gt.NoError(t, err)
	gt.Equal(t, subject, "Release 0.6.2")

	// Same tag twice fails.
	gt.Error(t, repo.Tag(ctx, "0.6.2", false, ""))

	exists, err = repo.TagExists(ctx, "0.6.3")
	gt.NoError(t, err)
	gt.Equal(t, exists, false)
}

func TestRepo_Push(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	remote := t.TempDir()
	runGit(t, remote, "init", "-q", "--bare")
	runGit(t, dir, "remote", "add", "upstream", remote)

	repo, err := git.Open(ctx, dir)
	gt.NoError(t, err)
	gt.NoError(t, repo.Tag(ctx, "0.6.0", false, ""))
	gt.NoError(t, repo.Tag(ctx, "0.6.1", true, "Release 0.6.1"))
	gt.NoError(t, repo.Push(ctx, "upstream", "master", "0.6.1"))

	// Only the named tag leaves the repository.
	out := runGit(t, remote, "tag", "-l")
	gt.String(t, out).Contains("0.6.1")
	gt.Equal(t, strings.Contains(out, "0.6.0"), false)

	gt.Error(t, repo.Push(ctx, "missing", "master"))
}

func TestRepo_TagCommit(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	repo, err := git.Open(ctx, dir)
	gt.NoError(t, err)
	head, err := repo.Head(ctx)
	gt.NoError(t, err)

	gt.NoError(t, repo.Tag(ctx, "0.6.1", true, "Release 0.6.1"))
	commit, err := repo.TagCommit(ctx, "0.6.1")
	gt.NoError(t, err)
	gt.Equal(t, commit, head)

	_, err = repo.TagCommit(ctx, "0.9.9")
	gt.Error(t, err)
}

func TestRepo_CommitNothing(t *testing.T) {
	repo := &git.Repo{Dir: t.TempDir()}
	gt.Error(t, repo.Commit(context.Background(), nil, "empty"))
}
