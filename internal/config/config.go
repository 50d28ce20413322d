/*
Package config provides configuration loading and validation for releash.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/quantstack/releash/internal/tmpl"
)

// Release target kinds, as used in release_order.
const (
	KindGitTag     = "git_tag"
	KindGitPush    = "git_push"
	KindCondaForge = "conda_forge"
)

// DefaultReleaseOrder is the order targets run in when a package does not
// set release_order.
var DefaultReleaseOrder = []string{KindGitTag, KindGitPush, KindCondaForge}

// Config represents the complete releash configuration
type Config struct {
	// ProjectName is the name of the project
	ProjectName string `yaml:"project_name"`

	// Custom template variables
	Variables map[string]interface{} `yaml:"variables,omitempty"`

	// Include other configuration files
	Includes []string `yaml:"includes,omitempty"`

	// Before hooks run at the start of the release
	Before Hooks `yaml:"before,omitempty"`

	// After hooks run at the end of the release
	After Hooks `yaml:"after,omitempty"`

	// GitPush declares named push targets shared by packages
	GitPush []GitPush `yaml:"git_push,omitempty"`

	// Packages to release
	Packages []Package `yaml:"packages,omitempty"`

	// BaseDir is the directory of the loaded file; relative package paths
	// resolve against it.
	BaseDir string `yaml:"-"`
}

// Hooks represents before/after hooks
type Hooks struct {
	// Commands to run
	Commands []string `yaml:"commands,omitempty"`

	// Hooks with more options
	Hooks []Hook `yaml:"hooks,omitempty"`
}

// Hook represents a single hook command
type Hook struct {
	// Command to run
	Cmd string `yaml:"cmd"`

	// Directory to run the command in
	Dir string `yaml:"dir,omitempty"`

	// Environment variables
	Env map[string]string `yaml:"env,omitempty"`

	// Output handling
	Output string `yaml:"output,omitempty"`

	// If condition
	If string `yaml:"if,omitempty"`

	// FailFast stops on error
	FailFast bool `yaml:"fail_fast,omitempty"`

	// Shell runs command in shell
	Shell bool `yaml:"shell,omitempty"`
}

// GitPush is a named git push target
type GitPush struct {
	Name   string `yaml:"name,omitempty"`
	Remote string `yaml:"remote"`
	Branch string `yaml:"branch"`
	// NoTags disables pushing the release tag along with the branch
	NoTags bool `yaml:"no_tags,omitempty"`
}

// Package is a releasable unit
type Package struct {
	Name string `yaml:"name"`
	Path string `yaml:"path,omitempty"`

	// Version is the header carrying the version macros. It is both the
	// version source and a version target.
	Version VersionFile `yaml:"version"`

	// ExtraVersionFiles are additional headers rewritten on bump
	ExtraVersionFiles []VersionFile `yaml:"extra_version_files,omitempty"`

	GitTag *GitTag `yaml:"git_tag,omitempty"`

	// Push names a git_push entry
	Push string `yaml:"push,omitempty"`

	CondaForge *CondaForge `yaml:"conda_forge,omitempty"`

	// ReleaseOrder lists target kinds in the order they run
	ReleaseOrder []string `yaml:"release_order,omitempty"`
}

// VersionFile locates version macros in a header
type VersionFile struct {
	// File may start with {path}, replaced by the package path
	File   string `yaml:"file"`
	Prefix string `yaml:"prefix"`
}

// GitTag configures the git tag release target
type GitTag struct {
	Prefix   string `yaml:"prefix,omitempty"`
	Annotate bool   `yaml:"annotate,omitempty"`
	// Message is a template; defaults to "Release {{ .Tag }}"
	Message string `yaml:"message,omitempty"`
}

// CondaForge configures the conda-forge feedstock release target
type CondaForge struct {
	// Feedstock is the path of the feedstock checkout
	Feedstock string `yaml:"feedstock"`

	// SourceTarball is a URL template resolved with the release version
	SourceTarball string `yaml:"source_tarball"`

	// Recipe is relative to the feedstock; defaults to recipe/meta.yaml
	Recipe string `yaml:"recipe,omitempty"`

	PushRemote string `yaml:"push_remote,omitempty"`
	PushBranch string `yaml:"push_branch,omitempty"`

	// Timeout for the tarball download (Go duration); defaults to 5m
	Timeout string `yaml:"timeout,omitempty"`
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.expandEnv()

	baseDir := filepath.Dir(path)
	cfg.BaseDir = baseDir

	// Process includes
	for _, include := range cfg.Includes {
		includePath := include
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, include)
		}

		// Support glob patterns
		matches, err := filepath.Glob(includePath)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %s: %w", include, err)
		}

		for _, match := range matches {
			includeCfg, err := Load(match)
			if err != nil {
				return nil, fmt.Errorf("failed to load include %s: %w", match, err)
			}
			includeCfg.BaseDir = ""

			if err := mergo.Merge(&cfg, includeCfg, mergo.WithAppendSlice); err != nil {
				return nil, fmt.Errorf("failed to merge include %s: %w", match, err)
			}
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// expandEnv expands $VAR references in every field except hooks. Hook
// commands may reference variables from the hook's own env, so they are
// expanded when the hook runs.
func (c *Config) expandEnv() {
	c.ProjectName = os.ExpandEnv(c.ProjectName)
	for i := range c.Includes {
		c.Includes[i] = os.ExpandEnv(c.Includes[i])
	}
	for k, v := range c.Variables {
		if s, ok := v.(string); ok {
			c.Variables[k] = os.ExpandEnv(s)
		}
	}
	for i := range c.GitPush {
		gp := &c.GitPush[i]
		gp.Name = os.ExpandEnv(gp.Name)
		gp.Remote = os.ExpandEnv(gp.Remote)
		gp.Branch = os.ExpandEnv(gp.Branch)
	}
	for i := range c.Packages {
		p := &c.Packages[i]
		p.Name = os.ExpandEnv(p.Name)
		p.Path = os.ExpandEnv(p.Path)
		p.Push = os.ExpandEnv(p.Push)
		p.Version.expandEnv()
		for j := range p.ExtraVersionFiles {
			p.ExtraVersionFiles[j].expandEnv()
		}
		if p.GitTag != nil {
			p.GitTag.Prefix = os.ExpandEnv(p.GitTag.Prefix)
			p.GitTag.Message = os.ExpandEnv(p.GitTag.Message)
		}
		if cf := p.CondaForge; cf != nil {
			cf.Feedstock = os.ExpandEnv(cf.Feedstock)
			cf.SourceTarball = os.ExpandEnv(cf.SourceTarball)
			cf.Recipe = os.ExpandEnv(cf.Recipe)
			cf.PushRemote = os.ExpandEnv(cf.PushRemote)
			cf.PushBranch = os.ExpandEnv(cf.PushBranch)
			cf.Timeout = os.ExpandEnv(cf.Timeout)
		}
	}
}

func (v *VersionFile) expandEnv() {
	v.File = os.ExpandEnv(v.File)
	v.Prefix = os.ExpandEnv(v.Prefix)
}

func (c *Config) applyDefaults() {
	for i := range c.GitPush {
		if c.GitPush[i].Name == "" {
			c.GitPush[i].Name = c.GitPush[i].Remote
		}
	}
	for i := range c.Packages {
		p := &c.Packages[i]
		if p.Path == "" {
			p.Path = "."
		}
		if p.Push == "" && len(c.GitPush) == 1 {
			p.Push = c.GitPush[0].Name
		}
		if p.CondaForge != nil && p.CondaForge.Recipe == "" {
			p.CondaForge.Recipe = filepath.Join("recipe", "meta.yaml")
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ProjectName == "" {
		return fmt.Errorf("project_name is required")
	}
	if len(c.Packages) == 0 {
		return fmt.Errorf("at least one package is required")
	}

	pushNames := make(map[string]bool)
	for i, gp := range c.GitPush {
		if gp.Remote == "" || gp.Branch == "" {
			return fmt.Errorf("git_push[%d]: remote and branch are required", i)
		}
		name := gp.Name
		if name == "" {
			name = gp.Remote
		}
		if pushNames[name] {
			return fmt.Errorf("duplicate git_push name: %s", name)
		}
		pushNames[name] = true
	}

	names := make(map[string]bool)
	for i, p := range c.Packages {
		if p.Name == "" {
			return fmt.Errorf("packages[%d]: name is required", i)
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate package name: %s", p.Name)
		}
		names[p.Name] = true

		if err := validateVersionFile(p.Name, p.Version); err != nil {
			return err
		}
		for _, vf := range p.ExtraVersionFiles {
			if err := validateVersionFile(p.Name, vf); err != nil {
				return err
			}
		}

		if p.Push != "" && !pushNames[p.Push] {
			return fmt.Errorf("package %s: unknown git_push target %q", p.Name, p.Push)
		}

		if p.GitTag != nil && p.GitTag.Message != "" {
			if _, err := tmpl.Parse(p.GitTag.Message); err != nil {
				return fmt.Errorf("package %s: invalid git_tag.message: %w", p.Name, err)
			}
		}

		if cf := p.CondaForge; cf != nil {
			if cf.Feedstock == "" {
				return fmt.Errorf("package %s: conda_forge.feedstock is required", p.Name)
			}
			if cf.SourceTarball == "" {
				return fmt.Errorf("package %s: conda_forge.source_tarball is required", p.Name)
			}
			if _, err := tmpl.Parse(cf.SourceTarball); err != nil {
				return fmt.Errorf("package %s: invalid conda_forge.source_tarball: %w", p.Name, err)
			}
		}

		if err := validateOrder(p); err != nil {
			return fmt.Errorf("package %s: %w", p.Name, err)
		}
	}

	return nil
}

func validateVersionFile(pkg string, vf VersionFile) error {
	if vf.File == "" {
		return fmt.Errorf("package %s: version.file is required", pkg)
	}
	if vf.Prefix == "" {
		return fmt.Errorf("package %s: version.prefix is required", pkg)
	}
	if i := strings.Index(vf.File, "{path}"); i > 0 {
		return fmt.Errorf("package %s: {path} must start version.file %q", pkg, vf.File)
	}
	return nil
}

func validateOrder(p Package) error {
	seen := make(map[string]bool)
	for _, kind := range p.ReleaseOrder {
		if seen[kind] {
			return fmt.Errorf("duplicate release_order entry: %s", kind)
		}
		seen[kind] = true

		switch kind {
		case KindGitTag:
			if p.GitTag == nil {
				return fmt.Errorf("release_order names git_tag but none is configured")
			}
		case KindGitPush:
			if p.Push == "" {
				return fmt.Errorf("release_order names git_push but none is configured")
			}
		case KindCondaForge:
			if p.CondaForge == nil {
				return fmt.Errorf("release_order names conda_forge but none is configured")
			}
		default:
			return fmt.Errorf("unknown release_order entry: %s", kind)
		}
	}
	return nil
}

// Order returns the release target kinds of the package in run order,
// keeping only the targets that are configured.
func (p Package) Order() []string {
	if len(p.ReleaseOrder) > 0 {
		return p.ReleaseOrder
	}

	var order []string
	for _, kind := range DefaultReleaseOrder {
		switch kind {
		case KindGitTag:
			if p.GitTag == nil {
				continue
			}
		case KindGitPush:
			if p.Push == "" {
				continue
			}
		case KindCondaForge:
			if p.CondaForge == nil {
				continue
			}
		}
		order = append(order, kind)
	}
	return order
}

// FindGitPush returns the git_push entry with the given name
func (c *Config) FindGitPush(name string) (GitPush, bool) {
	for _, gp := range c.GitPush {
		if gp.Name == name {
			return gp, true
		}
	}
	return GitPush{}, false
}
