// Package hook runs the before/after release hooks.
package hook

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/quantstack/releash/internal/config"
	"github.com/quantstack/releash/internal/tmpl"
)

// Runner executes lifecycle hooks.
type Runner struct {
	tmplCtx *tmpl.Context
	workDir string

	// DryRun logs hooks instead of running them
	DryRun bool

	// Stdout and Stderr receive hook output when the hook asks for it
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner creates a new hook runner.
func NewRunner(tmplCtx *tmpl.Context, workDir string) *Runner {
	return &Runner{
		tmplCtx: tmplCtx,
		workDir: workDir,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run executes a hook.
func (r *Runner) Run(ctx context.Context, hook config.Hook) error {
	if hook.If != "" {
		condition, err := r.tmplCtx.Apply(hook.If)
		if err != nil {
			return fmt.Errorf("failed to evaluate condition: %w", err)
		}
		condition = strings.TrimSpace(condition)
		if condition != "true" && condition != "1" {
			log.Debug("Skipping hook due to condition", "condition", hook.If)
			return nil
		}
	}

	if hook.Cmd == "" {
		return nil
	}

	cmd, err := r.tmplCtx.Apply(hook.Cmd)
	if err != nil {
		return fmt.Errorf("failed to apply template to command: %w", err)
	}

	env := make(map[string]string, len(hook.Env))
	for key, value := range hook.Env {
		expanded, err := r.tmplCtx.Apply(value)
		if err != nil {
			return fmt.Errorf("failed to apply template to env %s: %w", key, err)
		}
		env[key] = os.ExpandEnv(expanded)
	}

	if r.DryRun {
		log.Info("Would run hook", "cmd", cmd)
		return nil
	}
	log.Info("Running hook", "cmd", cmd)

	var c *exec.Cmd
	if hook.Shell {
		c = shellCommand(ctx, cmd)
	} else {
		parts := strings.Fields(ExpandVariables(cmd, env))
		if len(parts) == 0 {
			return nil
		}
		c = exec.CommandContext(ctx, parts[0], parts[1:]...)
	}

	c.Dir = r.workDir
	if hook.Dir != "" {
		if filepath.IsAbs(hook.Dir) {
			c.Dir = hook.Dir
		} else {
			c.Dir = filepath.Join(r.workDir, hook.Dir)
		}
	}

	c.Env = os.Environ()
	for key, value := range env {
		c.Env = append(c.Env, key+"="+value)
	}

	if hook.Output == "true" || hook.Output == "1" {
		c.Stdout = r.Stdout
		c.Stderr = r.Stderr
	}

	if err := c.Run(); err != nil {
		if hook.FailFast {
			return fmt.Errorf("hook %q failed: %w", cmd, err)
		}
		log.Warn("Hook failed but continuing", "cmd", cmd, "error", err)
	}

	return nil
}

// RunAll executes the commands and hooks of a phase in order.
func (r *Runner) RunAll(ctx context.Context, hooks config.Hooks, phase string) error {
	all := append(FromStrings(hooks.Commands), hooks.Hooks...)
	if len(all) == 0 {
		return nil
	}

	log.Debug("Running hooks", "phase", phase, "count", len(all))
	for _, h := range all {
		if err := r.Run(ctx, h); err != nil {
			return fmt.Errorf("%s hook: %w", phase, err)
		}
	}
	return nil
}

// FromStrings converts plain command strings to shell hooks that fail fast.
func FromStrings(commands []string) []config.Hook {
	hooks := make([]config.Hook, 0, len(commands))
	for _, cmd := range commands {
		hooks = append(hooks, config.Hook{
			Cmd:      cmd,
			FailFast: true,
			Output:   "true",
			Shell:    true,
		})
	}
	return hooks
}

func shellCommand(ctx context.Context, cmd string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "powershell.exe", "-Command", cmd)
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return exec.CommandContext(ctx, shell, "-c", cmd)
}

// ExpandVariables expands $VAR and ${VAR} from env, falling back to the
// process environment.
func ExpandVariables(s string, env map[string]string) string {
	return os.Expand(s, func(key string) string {
		if v, ok := env[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}
