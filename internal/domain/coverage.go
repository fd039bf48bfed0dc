package domain

import "strings"

// Metric names one of the coverage counters tracked per file.
type Metric string

const (
	MetricStatements Metric = "statements"
	MetricBranches   Metric = "branches"
	MetricFunctions  Metric = "functions"
	MetricLines      Metric = "lines"
)

// Metrics lists every metric in canonical order. Threshold checks walk
// metrics in this order, so the first failing metric is stable.
var Metrics = []Metric{MetricStatements, MetricBranches, MetricFunctions, MetricLines}

// ParseMetric returns the metric with the given name.
func ParseMetric(name string) (Metric, bool) {
	m := Metric(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Metrics {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// CoverageStat summarizes covered vs total items of one metric.
type CoverageStat struct {
	Covered int `json:"covered"`
	Total   int `json:"total"`
}

// Percent returns the coverage percentage as a raw float64.
func (c CoverageStat) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return (float64(c.Covered) / float64(c.Total)) * 100
}

// IsEmpty returns true if the metric is not tracked.
func (c CoverageStat) IsEmpty() bool {
	return c.Total == 0
}

// Add returns the sum of two stats.
func (c CoverageStat) Add(other CoverageStat) CoverageStat {
	return CoverageStat{Covered: c.Covered + other.Covered, Total: c.Total + other.Total}
}

// FileCoverage holds the raw counters of every metric for one file, or for
// several files merged with Accumulate.
type FileCoverage struct {
	Statements CoverageStat `json:"statements"`
	Branches   CoverageStat `json:"branches"`
	Functions  CoverageStat `json:"functions"`
	Lines      CoverageStat `json:"lines"`
}

// Stat returns the counters for the given metric.
func (f FileCoverage) Stat(m Metric) CoverageStat {
	switch m {
	case MetricStatements:
		return f.Statements
	case MetricBranches:
		return f.Branches
	case MetricFunctions:
		return f.Functions
	case MetricLines:
		return f.Lines
	default:
		return CoverageStat{}
	}
}

// Add returns the metric-wise sum of two file coverages.
func (f FileCoverage) Add(other FileCoverage) FileCoverage {
	return FileCoverage{
		Statements: f.Statements.Add(other.Statements),
		Branches:   f.Branches.Add(other.Branches),
		Functions:  f.Functions.Add(other.Functions),
		Lines:      f.Lines.Add(other.Lines),
	}
}

// Summary returns the percentage of every tracked metric. Metrics without
// any items are left out: they are absent, not 0%.
func (f FileCoverage) Summary() map[Metric]float64 {
	summary := make(map[Metric]float64, len(Metrics))
	for _, m := range Metrics {
		stat := f.Stat(m)
		if stat.IsEmpty() {
			continue
		}
		summary[m] = stat.Percent()
	}
	return summary
}

// Accumulate merges the raw counters of all given files. Merging nothing
// yields the zero FileCoverage.
func Accumulate(files ...FileCoverage) FileCoverage {
	var total FileCoverage
	for _, f := range files {
		total = total.Add(f)
	}
	return total
}

// Round2 rounds a float64 to two decimal places.
func Round2(v float64) float64 {
	return roundTo(v, 100)
}
