package checksum_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/quantstack/releash/internal/checksum"
)

// sha256 of "abc"
const abcSum = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

func TestSHA256(t *testing.T) {
	sum, err := checksum.SHA256(strings.NewReader("abc"))
	gt.NoError(t, err)
	gt.Equal(t, sum, abcSum)
}

func TestVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.tar.gz")
	gt.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	ok, err := checksum.Verify(path, strings.ToUpper(abcSum))
	gt.NoError(t, err)
	gt.True(t, ok)

	ok, err = checksum.Verify(path, "00")
	gt.NoError(t, err)
	gt.Equal(t, ok, false)

	_, err = checksum.Verify(filepath.Join(t.TempDir(), "missing"), abcSum)
	gt.Error(t, err)
}
