package threshold

import "github.com/felixgeelhaar/covergate/internal/domain"

// CoverageForDirectory accumulates the coverage of every file at any depth
// below dir (or equal to it).
func CoverageForDirectory(dir string, coverage domain.CoverageMap) domain.FileCoverage {
	return accumulateWhere(coverage, func(file domain.FilePath) bool {
		return file.IsWithin(dir)
	})
}

// CoverageForFiles accumulates the coverage of the listed files. Unknown
// paths are skipped.
func CoverageForFiles(files []string, coverage domain.CoverageMap) domain.FileCoverage {
	list := make([]domain.FileCoverage, 0, len(files))
	for _, file := range files {
		if fc, ok := coverage.Get(file); ok {
			list = append(list, fc)
		}
	}
	return domain.Accumulate(list...)
}

func accumulateWhere(coverage domain.CoverageMap, keep func(domain.FilePath) bool) domain.FileCoverage {
	var list []domain.FileCoverage
	for _, file := range coverage.Paths() {
		fp, err := domain.NewFilePath(file)
		if err != nil || !keep(fp) {
			continue
		}
		fc, _ := coverage.Get(file)
		list = append(list, fc)
	}
	return domain.Accumulate(list...)
}
