/*
Package releash provides release automation for header-only C++ libraries.

A project describes its release in a .releash.yaml file:
  - the packages it ships and where they live
  - the header that carries the version macros (read and rewritten on bump)
  - the release targets to run, in order: git tag, git push, conda-forge

# Usage

	releash status               # Print the current version of every package
	releash bump patch           # Bump the version macros and commit
	releash release              # Tag, push and update the feedstock
	releash release --bump minor # Bump first, then release
	releash release --dry-run    # Show what would happen
*/
package releash

// Version is the current version of releash
const Version = "0.3.0"

// BuildDate is set at build time
var BuildDate string

// GitCommit is set at build time
var GitCommit string
