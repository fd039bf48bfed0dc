package threshold

import (
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/covergate/internal/domain"
)

// NormalizeThreshold returns the path rules of spec: the global entry is
// dropped and trailing separators are stripped from every selector. Two
// selectors that normalize to the same key keep the position of the first
// and the threshold of the last. The input is not modified.
func NormalizeThreshold(spec domain.ThresholdSpec) domain.ThresholdSpec {
	out := domain.ThresholdSpec{Entries: make([]domain.ThresholdEntry, 0, spec.Len())}
	for _, entry := range spec.Entries {
		if entry.IsGlobal() {
			continue
		}
		out.Set(trimTrailingSeparators(entry.Selector), entry.Threshold)
	}
	return out
}

func trimTrailingSeparators(selector string) string {
	return strings.TrimRight(selector, "/"+string(filepath.Separator))
}
