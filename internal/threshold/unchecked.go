package threshold

import "github.com/felixgeelhaar/covergate/internal/domain"

// UncheckedFiles returns the files of coverage that no path selector of spec
// reaches, either directly or through a directory it matches. Those files
// make up the global bucket. Without path selectors every file is unchecked.
func UncheckedFiles(spec domain.ThresholdSpec, coverage domain.CoverageMap) []string {
	normalized := NormalizeThreshold(spec)
	files := coverage.Paths()
	if normalized.IsEmpty() {
		return files
	}

	selectors := normalized.Selectors()
	patterns := append(selectors, MatchAny(CoveredDirectories(coverage), selectors)...)

	return NotSubtree(files, patterns)
}
