// Package pathutil provides utilities for safe path handling.
package pathutil

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath = errors.New("path is empty")
	ErrNullBytes = errors.New("path contains null bytes")
)

// ValidatePath cleans path and resolves symlinks when the path exists.
// Returns ErrEmptyPath if path is empty, ErrNullBytes if path contains null bytes.
func ValidatePath(p string) (string, error) {
	if p == "" {
		return "", ErrEmptyPath
	}
	if strings.Contains(p, "\x00") {
		return "", ErrNullBytes
	}

	cleaned := filepath.Clean(p)

	realPath, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		// Not there yet; the caller reports the open error.
		return cleaned, nil
	}
	return realPath, nil
}

// Open validates path and opens it for reading.
func Open(p string) (*os.File, error) {
	cleaned, err := ValidatePath(p)
	if err != nil {
		return nil, err
	}
	return os.Open(cleaned) // #nosec G304 - path is validated above
}

// ReadFile validates path and reads the whole file.
func ReadFile(p string) ([]byte, error) {
	cleaned, err := ValidatePath(p)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(cleaned) // #nosec G304 - path is validated above
}

// ReportKey converts a source path found inside a coverage report into the
// slash-separated form used as a coverage map key.
func ReportKey(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return path.Clean(filepath.ToSlash(p))
}
