package hook_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/quantstack/releash/internal/config"
	"github.com/quantstack/releash/internal/hook"
	"github.com/quantstack/releash/internal/tmpl"
)

func newRunner(t *testing.T) (*hook.Runner, *bytes.Buffer, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("hooks are exercised with sh")
	}
	t.Setenv("SHELL", "/bin/sh")
	dir := t.TempDir()
	ctx := tmpl.New("xtl", nil).WithRelease("xtl", dir, "0.6.2", "0.6.2", 0, 6, 2)
	r := hook.NewRunner(ctx, dir)
	var out bytes.Buffer
	r.Stdout = &out
	r.Stderr = &out
	return r, &out, dir
}

func TestRunner_RunAll(t *testing.T) {
	r, out, dir := newRunner(t)

	hooks := config.Hooks{
		Commands: []string{"echo before {{ .Version }}"},
		Hooks: []config.Hook{
			{Cmd: "touch released-{{ .Version }}", FailFast: true},
			{Cmd: "echo $RELEASH_HOOK_VALUE", Shell: true, Output: "true", Env: map[string]string{"RELEASH_HOOK_VALUE": "v{{ .Version }}"}},
		},
	}
	gt.NoError(t, r.RunAll(context.Background(), hooks, "after"))

	gt.String(t, out.String()).Contains("before 0.6.2")
	gt.String(t, out.String()).Contains("v0.6.2")
	_, err := os.Stat(filepath.Join(dir, "released-0.6.2"))
	gt.NoError(t, err)
}

func TestRunner_FailFast(t *testing.T) {
	r, _, _ := newRunner(t)
	ctx := context.Background()

	err := r.RunAll(ctx, config.Hooks{Commands: []string{"exit 3"}}, "before")
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("before hook")

	// Without fail_fast the failure is only logged.
	gt.NoError(t, r.Run(ctx, config.Hook{Cmd: "exit 3", Shell: true}))
}

func TestRunner_Condition(t *testing.T) {
	r, _, dir := newRunner(t)
	ctx := context.Background()

	gt.NoError(t, r.Run(ctx, config.Hook{Cmd: "touch skipped", If: `{{ eq .Version "1.0.0" }}`}))
	_, err := os.Stat(filepath.Join(dir, "skipped"))
	gt.True(t, os.IsNotExist(err))

	gt.NoError(t, r.Run(ctx, config.Hook{Cmd: "touch ran", If: `{{ eq .Version "0.6.2" }}`}))
	_, err = os.Stat(filepath.Join(dir, "ran"))
	gt.NoError(t, err)
}

func TestRunner_DryRun(t *testing.T) {
	r, _, dir := newRunner(t)
	r.DryRun = true

	gt.NoError(t, r.Run(context.Background(), config.Hook{Cmd: "touch never", FailFast: true}))
	_, err := os.Stat(filepath.Join(dir, "never"))
	gt.True(t, os.IsNotExist(err))
}

func TestRunner_Dir(t *testing.T) {
	r, _, dir := newRunner(t)
	gt.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	gt.NoError(t, r.Run(context.Background(), config.Hook{Cmd: "touch here", Dir: "sub", FailFast: true}))
	_, err := os.Stat(filepath.Join(dir, "sub", "here"))
	gt.NoError(t, err)
}

func TestRunner_HookEnvFromLoadedConfig(t *testing.T) {
	r, out, dir := newRunner(t)
	path := filepath.Join(dir, ".releash.yaml")
	gt.NoError(t, os.WriteFile(path, []byte(`project_name: xtl
before:
  hooks:
    - cmd: echo notes=$NOTES
      shell: true
      output: "true"
      fail_fast: true
      env:
        NOTES: "v{{ .Version }}"
    - cmd: touch ${MARKER}.txt
      fail_fast: true
      env:
        MARKER: "marker-{{ .Version }}"
packages:
  - name: xtl
    version:
      file: include/xtl/xtl_config.hpp
      prefix: XTL_VERSION_
`), 0644))

	cfg, err := config.Load(path)
	gt.NoError(t, err)
	gt.Equal(t, cfg.Before.Hooks[0].Cmd, "echo notes=$NOTES")

	gt.NoError(t, r.RunAll(context.Background(), cfg.Before, "before"))
	gt.String(t, out.String()).Contains("notes=v0.6.2")
	_, err = os.Stat(filepath.Join(dir, "marker-0.6.2.txt"))
	gt.NoError(t, err)
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("RELEASH_FALLBACK", "env")
	got := hook.ExpandVariables("$A-${B}-$RELEASH_FALLBACK", map[string]string{"A": "a", "B": "b"})
	gt.Equal(t, got, "a-b-env")
}
