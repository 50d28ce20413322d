package release

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantstack/releash/internal/condaforge"
	"github.com/quantstack/releash/internal/config"
	"github.com/quantstack/releash/internal/hpp"
)

// FromConfig builds the packages described by cfg. The header of each
// package is its version source and its first version target; release
// targets follow the package's release order.
func FromConfig(cfg *config.Config) ([]*Package, error) {
	packages := make([]*Package, 0, len(cfg.Packages))
	for _, pc := range cfg.Packages {
		pkg, err := buildPackage(cfg, pc)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", pc.Name, err)
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func buildPackage(cfg *config.Config, pc config.Package) (*Package, error) {
	path := pc.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.BaseDir, path)
	}

	pkg := &Package{Name: pc.Name, Path: path}

	source := hpp.New(resolveFile(cfg.BaseDir, path, pc.Version.File), pc.Version.Prefix)
	pkg.VersionSource = source
	pkg.VersionTargets = append(pkg.VersionTargets, source)
	for _, vf := range pc.ExtraVersionFiles {
		pkg.VersionTargets = append(pkg.VersionTargets, hpp.New(resolveFile(cfg.BaseDir, path, vf.File), vf.Prefix))
	}

	for _, kind := range pc.Order() {
		switch kind {
		case config.KindGitTag:
			pkg.ReleaseTargets = append(pkg.ReleaseTargets, &GitTagVersion{
				Source:   source,
				Prefix:   pc.GitTag.Prefix,
				Annotate: pc.GitTag.Annotate,
				Message:  pc.GitTag.Message,
			})
		case config.KindGitPush:
			gp, ok := cfg.FindGitPush(pc.Push)
			if !ok {
				return nil, fmt.Errorf("unknown git_push target %q", pc.Push)
			}
			pkg.ReleaseTargets = append(pkg.ReleaseTargets, &GitPush{
				Remote: gp.Remote,
				Branch: gp.Branch,
				NoTags: gp.NoTags,
			})
		case config.KindCondaForge:
			cf := pc.CondaForge
			timeout := condaforge.DefaultTimeout
			if cf.Timeout != "" {
				d, err := time.ParseDuration(cf.Timeout)
				if err != nil {
					return nil, fmt.Errorf("invalid conda_forge.timeout: %w", err)
				}
				timeout = d
			}
			pkg.ReleaseTargets = append(pkg.ReleaseTargets, &CondaForge{
				Feedstock:     cf.Feedstock,
				Recipe:        cf.Recipe,
				SourceTarball: cf.SourceTarball,
				PushRemote:    cf.PushRemote,
				PushBranch:    cf.PushBranch,
				Timeout:       timeout,
			})
		default:
			return nil, fmt.Errorf("unknown release target %q", kind)
		}
	}

	return pkg, nil
}

// resolveFile expands a leading {path} to the package path. Other relative
// files resolve against the config directory.
func resolveFile(baseDir, pkgPath, file string) string {
	if rest, ok := strings.CutPrefix(file, "{path}"); ok {
		return filepath.Join(pkgPath, rest)
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(baseDir, file)
}
