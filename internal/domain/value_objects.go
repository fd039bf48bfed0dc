package domain

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// Value object errors.
var (
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 100")
	ErrEmptySelector    = errors.New("threshold selector cannot be empty")
	ErrEmptyFilePath    = errors.New("file path cannot be empty")
)

// Threshold represents a coverage threshold percentage (0-100).
// It is a value object that ensures threshold values are always valid.
type Threshold struct {
	value float64
}

// NewThreshold creates a new Threshold value object.
// Returns an error if the value is not between 0 and 100.
func NewThreshold(value float64) (Threshold, error) {
	if value < 0 || value > 100 {
		return Threshold{}, ErrInvalidThreshold
	}
	return Threshold{value: value}, nil
}

// FilePath represents a normalized, forward-slash file path.
type FilePath struct {
	value string
}

// NewFilePath creates a new FilePath value object.
// The path is cleaned and converted to forward slashes.
func NewFilePath(p string) (FilePath, error) {
	if p == "" {
		return FilePath{}, ErrEmptyFilePath
	}
	normalized := path.Clean(filepath.ToSlash(p))
	return FilePath{value: normalized}, nil
}

// String returns the normalized file path string.
func (p FilePath) String() string {
	return p.value
}

// Dir returns the parent directory.
func (p FilePath) Dir() FilePath {
	return FilePath{value: path.Dir(p.value)}
}

// IsRoot reports whether the path is a root marker ("." or "/").
func (p FilePath) IsRoot() bool {
	return p.value == "." || p.value == "/" || p.value == ""
}

// IsWithin reports whether the path equals dir or is nested below it.
func (p FilePath) IsWithin(dir string) bool {
	return p.value == dir || strings.HasPrefix(p.value, dir+"/")
}
