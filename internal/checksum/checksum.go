// Package checksum computes digests for downloaded release sources.
package checksum

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"
)

// SHA256 returns the hex encoded SHA-256 digest of r.
func SHA256(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// SHA256File returns the hex encoded SHA-256 digest of a file.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return SHA256(f)
}

// Verify verifies a file against an expected digest.
func Verify(path string, expected string) (bool, error) {
	actual, err := SHA256File(path)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(actual, expected), nil
}
