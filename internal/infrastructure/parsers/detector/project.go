package detector

import (
	"os"
	"path/filepath"
)

// Ecosystem is the toolchain family a project builds with. It decides where
// coverage reports are usually written.
type Ecosystem string

const (
	EcosystemUnknown Ecosystem = ""
	EcosystemNode    Ecosystem = "node"
	EcosystemGo      Ecosystem = "go"
	EcosystemPython  Ecosystem = "python"
	EcosystemJava    Ecosystem = "java"
	EcosystemRust    Ecosystem = "rust"
)

// ProjectMarker is a file whose presence identifies an ecosystem.
type ProjectMarker struct {
	Filename  string
	Ecosystem Ecosystem
	Priority  int // Higher priority wins when multiple markers exist
}

// DefaultProjectMarkers lists the project files checked by DetectEcosystem.
var DefaultProjectMarkers = []ProjectMarker{
	{Filename: "package.json", Ecosystem: EcosystemNode, Priority: 100},
	{Filename: "tsconfig.json", Ecosystem: EcosystemNode, Priority: 90},

	{Filename: "go.mod", Ecosystem: EcosystemGo, Priority: 100},

	{Filename: "pyproject.toml", Ecosystem: EcosystemPython, Priority: 100},
	{Filename: "setup.py", Ecosystem: EcosystemPython, Priority: 90},
	{Filename: "requirements.txt", Ecosystem: EcosystemPython, Priority: 80},

	{Filename: "pom.xml", Ecosystem: EcosystemJava, Priority: 100},
	{Filename: "build.gradle", Ecosystem: EcosystemJava, Priority: 100},
	{Filename: "build.gradle.kts", Ecosystem: EcosystemJava, Priority: 100},

	{Filename: "Cargo.toml", Ecosystem: EcosystemRust, Priority: 100},
}

// maxParentDirs bounds how far DetectEcosystem walks up from the start dir.
const maxParentDirs = 5

// DetectEcosystem finds the ecosystem of the project containing dir,
// searching dir and up to five of its parents.
func (d *Detector) DetectEcosystem(dir string) Ecosystem {
	return d.DetectEcosystemWithMarkers(dir, DefaultProjectMarkers)
}

// DetectEcosystemWithMarkers is DetectEcosystem with custom markers.
func (d *Detector) DetectEcosystemWithMarkers(dir string, markers []ProjectMarker) Ecosystem {
	best := EcosystemUnknown
	bestPriority := 0

	current := dir
	for i := 0; i <= maxParentDirs; i++ {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(current, marker.Filename)); err != nil {
				continue
			}
			if marker.Priority > bestPriority {
				best = marker.Ecosystem
				bestPriority = marker.Priority
			}
		}
		// The nearest project root wins
		if best != EcosystemUnknown {
			break
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return best
}

// DefaultReportPaths returns where the common coverage tools of eco write
// reports this module can parse, most preferred first.
func (d *Detector) DefaultReportPaths(eco Ecosystem) []string {
	switch eco {
	case EcosystemNode:
		return []string{
			"coverage/coverage-final.json",    // jest, nyc, c8 json reporter
			"coverage/lcov.info",              // lcov reporter
			"coverage/cobertura-coverage.xml", // cobertura reporter
		}
	case EcosystemGo:
		return []string{"coverage.out", "cover.out", "c.out"}
	case EcosystemPython:
		return []string{"coverage.xml", "coverage.lcov"}
	case EcosystemJava:
		return []string{
			"target/site/cobertura/coverage.xml",
			"build/reports/cobertura/coverage.xml",
		}
	case EcosystemRust:
		return []string{"target/coverage/lcov.info", "lcov.info", "target/coverage/cobertura.xml"}
	default:
		return nil
	}
}

// DiscoverReport returns the first default report of the project in dir
// that exists, relative to dir.
func (d *Detector) DiscoverReport(dir string) (string, bool) {
	for _, candidate := range d.DefaultReportPaths(d.DetectEcosystem(dir)) {
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(candidate)))
		if err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
