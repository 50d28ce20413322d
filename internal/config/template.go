package config

// DefaultTemplate returns the default configuration template. It describes a
// header-only library released with an annotated tag, a push to upstream and
// a conda-forge feedstock update.
func DefaultTemplate() string {
	return `# releash configuration file

project_name: xtl

git_push:
  - name: upstream
    remote: upstream
    branch: master

packages:
  - name: xtl
    path: .
    version:
      file: "{path}/include/xtl/xtl_config.hpp"
      prefix: XTL_VERSION_
    git_tag:
      prefix: ""
      annotate: true
    push: upstream
    conda_forge:
      feedstock: ../xtl-feedstock
      source_tarball: "https://github.com/QuantStack/xtl/archive/{{ .Version }}.tar.gz"
`
}
