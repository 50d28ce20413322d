package hpp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/quantstack/releash/internal/hpp"
	"github.com/quantstack/releash/internal/version"
)

const header = `/***************************************************************************
* Copyright (c) QuantStack                                                 *
****************************************************************************/

#ifndef XTL_CONFIG_HPP
#define XTL_CONFIG_HPP

#define XTL_VERSION_MAJOR 0
#define XTL_VERSION_MINOR 6
#define XTL_VERSION_PATCH 1

// XTL_VERSION_MAJOR 99 in a comment is not a definition
#define XTL_VERSION_MAJOR_EXTRA 7

#endif
`

func writeHeader(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xtl_config.hpp")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0640))
	return path
}

func TestFile_Version(t *testing.T) {
	f := hpp.New(writeHeader(t, header), "XTL_VERSION_")

	v, err := f.Version(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, v.String(), "0.6.1")
}

func TestFile_SetVersion(t *testing.T) {
	path := writeHeader(t, header)
	f := hpp.New(path, "XTL_VERSION_")
	ctx := context.Background()

	gt.NoError(t, f.SetVersion(ctx, version.New(1, 10, 0)))

	v, err := f.Version(ctx)
	gt.NoError(t, err)
	gt.Equal(t, v.String(), "1.10.0")

	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	content := string(data)
	gt.String(t, content).Contains("#define XTL_VERSION_MAJOR 1\n")
	gt.String(t, content).Contains("#define XTL_VERSION_MINOR 10\n")
	gt.String(t, content).Contains("#define XTL_VERSION_PATCH 0\n")
	gt.String(t, content).Contains("#define XTL_VERSION_MAJOR_EXTRA 7\n")
	gt.String(t, content).Contains("// XTL_VERSION_MAJOR 99 in a comment")

	info, err := os.Stat(path)
	gt.NoError(t, err)
	gt.Equal(t, info.Mode().Perm(), os.FileMode(0640))

	gt.Equal(t, len(f.Files()), 1)
	gt.Equal(t, f.Files()[0], path)
}

func TestFile_PreservesLayout(t *testing.T) {
	src := "  #  define LIB_VERSION_MAJOR\t2\n#define LIB_VERSION_MINOR 0 // minor\n#define LIB_VERSION_PATCH 3\n"
	path := writeHeader(t, src)
	f := hpp.New(path, "LIB_VERSION_")

	gt.NoError(t, f.SetVersion(context.Background(), version.New(2, 1, 0)))

	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, string(data), "  #  define LIB_VERSION_MAJOR\t2\n#define LIB_VERSION_MINOR 1 // minor\n#define LIB_VERSION_PATCH 0\n")
}

func TestFile_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		f := hpp.New(filepath.Join(t.TempDir(), "none.hpp"), "XTL_VERSION_")
		_, err := f.Version(ctx)
		gt.Error(t, err)
	})

	t.Run("missing macro", func(t *testing.T) {
		f := hpp.New(writeHeader(t, "#define XTL_VERSION_MAJOR 0\n#define XTL_VERSION_MINOR 1\n"), "XTL_VERSION_")
		_, err := f.Version(ctx)
		gt.True(t, errors.Is(err, hpp.ErrMacroNotFound))
	})

	t.Run("duplicate macro", func(t *testing.T) {
		f := hpp.New(writeHeader(t, header+"#define XTL_VERSION_PATCH 2\n"), "XTL_VERSION_")
		_, err := f.Version(ctx)
		gt.True(t, errors.Is(err, hpp.ErrDuplicateMacro))
	})

	t.Run("non numeric", func(t *testing.T) {
		f := hpp.New(writeHeader(t, "#define XTL_VERSION_MAJOR X\n#define XTL_VERSION_MINOR 1\n#define XTL_VERSION_PATCH 1\n"), "XTL_VERSION_")
		_, err := f.Version(ctx)
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("non-numeric")
	})

	t.Run("set on missing macro leaves file alone", func(t *testing.T) {
		src := "#define XTL_VERSION_MAJOR 0\n"
		path := writeHeader(t, src)
		err := hpp.New(path, "XTL_VERSION_").SetVersion(ctx, version.New(1, 0, 0))
		gt.True(t, errors.Is(err, hpp.ErrMacroNotFound))
		data, rerr := os.ReadFile(path)
		gt.NoError(t, rerr)
		gt.Equal(t, string(data), src)
	})
}
