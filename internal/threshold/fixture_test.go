package threshold

import "github.com/felixgeelhaar/covergate/internal/domain"

func stat(covered, total int) domain.CoverageStat {
	return domain.CoverageStat{Covered: covered, Total: total}
}

func fileCov(s, b, f, l domain.CoverageStat) domain.FileCoverage {
	return domain.FileCoverage{Statements: s, Branches: b, Functions: f, Lines: l}
}

// fixtureCoverage mimics a small TypeScript project:
//
//	src/stages/runTest.ts                      fully covered
//	src/stages/collectCoverage.ts              poorly covered
//	src/format/details/getNewFilesCoverage.ts  no branch hit
//	src/format/formatCoverage.ts               partly covered
//
// Totals: statements 41/60, branches 10/16, functions 8/11, lines 41/60.
func fixtureCoverage(prefix string) domain.CoverageMap {
	m := domain.NewCoverageMap()
	m.Set(prefix+"src/stages/runTest.ts", fileCov(stat(20, 20), stat(4, 4), stat(3, 3), stat(20, 20)))
	m.Set(prefix+"src/stages/collectCoverage.ts", fileCov(stat(5, 20), stat(2, 4), stat(1, 3), stat(5, 20)))
	m.Set(prefix+"src/format/details/getNewFilesCoverage.ts", fileCov(stat(10, 10), stat(0, 2), stat(2, 2), stat(10, 10)))
	m.Set(prefix+"src/format/formatCoverage.ts", fileCov(stat(6, 10), stat(4, 6), stat(2, 3), stat(6, 10)))
	return m
}

func uniform(statements, branches, functions, lines float64) domain.SingleThreshold {
	return domain.SingleThreshold{
		domain.MetricStatements: statements,
		domain.MetricBranches:   branches,
		domain.MetricFunctions:  functions,
		domain.MetricLines:      lines,
	}
}

func spec(entries ...domain.ThresholdEntry) domain.ThresholdSpec {
	return domain.NewThresholdSpec(entries...)
}

func entry(selector string, th domain.SingleThreshold) domain.ThresholdEntry {
	return domain.ThresholdEntry{Selector: selector, Threshold: th}
}

func paths(files ...string) domain.CoverageMap {
	m := domain.NewCoverageMap()
	for _, f := range files {
		m.Set(f, domain.FileCoverage{})
	}
	return m
}

var defaultThreshold = uniform(77, 69, 65, 77)

func projectSpec() domain.ThresholdSpec {
	return spec(
		entry("global", defaultThreshold),
		entry("./src/", defaultThreshold),
		entry("./src/stages/runTest.ts", defaultThreshold),
	)
}
