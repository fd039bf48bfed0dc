package threshold

import "github.com/felixgeelhaar/covergate/internal/domain"

// CoveredDirectories returns every ancestor directory of the files in
// coverage, root excluded. Directories appear in discovery order: files in
// map order, each file's ancestors from nearest to farthest.
func CoveredDirectories(coverage domain.CoverageMap) []string {
	seen := make(map[string]struct{})
	var dirs []string

	for _, file := range coverage.Paths() {
		fp, err := domain.NewFilePath(file)
		if err != nil {
			continue
		}
		for dir := fp.Dir(); !dir.IsRoot(); dir = dir.Dir() {
			// Every ancestor of a known directory is known as well.
			if _, ok := seen[dir.String()]; ok {
				break
			}
			seen[dir.String()] = struct{}{}
			dirs = append(dirs, dir.String())
		}
	}

	return dirs
}
