/*
Package hpp reads and writes version numbers stored as preprocessor macros in
a C/C++ header:

	#define XTL_VERSION_MAJOR 0
	#define XTL_VERSION_MINOR 6
	#define XTL_VERSION_PATCH 1

Only the numbers are rewritten; everything else in the file is kept byte for
byte.
*/
package hpp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/quantstack/releash/internal/version"
)

var (
	// ErrMacroNotFound is returned when a version macro is missing.
	ErrMacroNotFound = errors.New("version macro not found")

	// ErrDuplicateMacro is returned when a version macro is defined twice.
	ErrDuplicateMacro = errors.New("version macro defined more than once")
)

var suffixes = [3]string{"MAJOR", "MINOR", "PATCH"}

// File is a header that is both the version source and a version target of
// a package.
type File struct {
	Path   string
	Prefix string
}

// New creates a header version file.
func New(path, prefix string) *File {
	return &File{Path: path, Prefix: prefix}
}

func (f *File) macroRe(suffix string) *regexp.Regexp {
	// group 1: everything up to the value, group 2: the value
	return regexp.MustCompile(`(?m)^([ \t]*#[ \t]*define[ \t]+` + regexp.QuoteMeta(f.Prefix+suffix) + `[ \t]+)(\S+)`)
}

// Version reads the version from the header.
func (f *File) Version(_ context.Context) (version.Version, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return version.Version{}, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}

	var parts [3]uint64
	for i, suffix := range suffixes {
		loc, err := f.locate(data, suffix)
		if err != nil {
			return version.Version{}, err
		}
		raw := string(data[loc[4]:loc[5]])
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return version.Version{}, fmt.Errorf("%s: %s%s has non-numeric value %q", f.Path, f.Prefix, suffix, raw)
		}
		parts[i] = n
	}

	return version.New(parts[0], parts[1], parts[2]), nil
}

// SetVersion rewrites the version macros in place.
func (f *File) SetVersion(_ context.Context, v version.Version) error {
	info, err := os.Stat(f.Path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.Path, err)
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Path, err)
	}

	values := [3]uint64{v.Major(), v.Minor(), v.Patch()}
	for i, suffix := range suffixes {
		loc, err := f.locate(data, suffix)
		if err != nil {
			return err
		}
		value := strconv.FormatUint(values[i], 10)
		out := make([]byte, 0, len(data)+len(value))
		out = append(out, data[:loc[4]]...)
		out = append(out, value...)
		out = append(out, data[loc[5]:]...)
		data = out
	}

	if err := os.WriteFile(f.Path, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Path, err)
	}

	log.Debug("Updated version macros", "file", f.Path, "prefix", f.Prefix, "version", v)
	return nil
}

// Files returns the files touched by SetVersion.
func (f *File) Files() []string {
	return []string{f.Path}
}

func (f *File) String() string {
	return fmt.Sprintf("%s (%s*)", f.Path, f.Prefix)
}

// locate returns the submatch indices of the single definition of a macro.
func (f *File) locate(data []byte, suffix string) ([]int, error) {
	matches := f.macroRe(suffix).FindAllSubmatchIndex(data, -1)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%s: %s%s: %w", f.Path, f.Prefix, suffix, ErrMacroNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%s: %s%s: %w", f.Path, f.Prefix, suffix, ErrDuplicateMacro)
	}
}
