package domain

import (
	"math"
	"strings"
)

// CoverageReport is anything that can yield per-file coverage, keyed by the
// file paths recorded in the report.
type CoverageReport interface {
	FileCoverageMap() CoverageMap
}

// CoverageMap maps file paths to their coverage and remembers insertion
// order, so every walk over it is deterministic.
type CoverageMap struct {
	paths []string
	files map[string]FileCoverage
}

// NewCoverageMap creates an empty map.
func NewCoverageMap() CoverageMap {
	return CoverageMap{files: make(map[string]FileCoverage)}
}

// Set stores coverage for path. Re-setting a path keeps its original position.
func (m *CoverageMap) Set(path string, coverage FileCoverage) {
	if m.files == nil {
		m.files = make(map[string]FileCoverage)
	}
	if _, ok := m.files[path]; !ok {
		m.paths = append(m.paths, path)
	}
	m.files[path] = coverage
}

// Merge adds coverage to whatever is already recorded for path.
func (m *CoverageMap) Merge(path string, coverage FileCoverage) {
	existing, _ := m.Get(path)
	m.Set(path, existing.Add(coverage))
}

// Get returns the coverage recorded for path.
func (m CoverageMap) Get(path string) (FileCoverage, bool) {
	c, ok := m.files[path]
	return c, ok
}

// Paths returns a copy of the file paths in insertion order.
func (m CoverageMap) Paths() []string {
	return append([]string(nil), m.paths...)
}

// Len returns the number of files.
func (m CoverageMap) Len() int {
	return len(m.paths)
}

// FileCoverageMap lets a CoverageMap act as a CoverageReport.
func (m CoverageMap) FileCoverageMap() CoverageMap {
	return m
}

// Relativize returns a new map with prefix stripped from every key that
// starts with it. Keys outside prefix are kept unchanged.
func (m CoverageMap) Relativize(prefix string) CoverageMap {
	out := NewCoverageMap()
	for _, p := range m.paths {
		out.Merge(strings.TrimPrefix(p, prefix), m.files[p])
	}
	return out
}

// Total accumulates every file of the map.
func (m CoverageMap) Total() FileCoverage {
	var total FileCoverage
	for _, p := range m.paths {
		total = total.Add(m.files[p])
	}
	return total
}

func roundTo(v, factor float64) float64 {
	return math.Round(v*factor) / factor
}
