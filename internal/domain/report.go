package domain

// Report is the coverage extracted from one or more report files, keyed by
// the file paths the reports recorded.
type Report struct {
	Coverage CoverageMap
	// TestsFailed is set when the report also records a failing test run.
	TestsFailed bool
}

// NewReport creates an empty report.
func NewReport() Report {
	return Report{Coverage: NewCoverageMap()}
}

// FileCoverageMap returns the per-file coverage of the report.
func (r Report) FileCoverageMap() CoverageMap {
	return r.Coverage
}

// Merge adds other into r. Coverage of a file present in both is summed.
func (r *Report) Merge(other Report) {
	for _, p := range other.Coverage.Paths() {
		fc, _ := other.Coverage.Get(p)
		r.Coverage.Merge(p, fc)
	}
	r.TestsFailed = r.TestsFailed || other.TestsFailed
}
