package threshold

import "github.com/felixgeelhaar/covergate/internal/domain"

// CheckSingle compares coverage of path against threshold. Metrics are
// visited in canonical order and only the first failing one is reported.
// Nil coverage and untracked metrics never fail.
func CheckSingle(threshold domain.SingleThreshold, coverage *domain.FileCoverage, path string) *domain.ThresholdResult {
	violations := check(threshold, coverage, path, true)
	if len(violations) == 0 {
		return nil
	}
	return &violations[0]
}

// CheckAll is CheckSingle without the short circuit: every failing metric is
// reported, in canonical order.
func CheckAll(threshold domain.SingleThreshold, coverage *domain.FileCoverage, path string) []domain.ThresholdResult {
	return check(threshold, coverage, path, false)
}

func check(threshold domain.SingleThreshold, coverage *domain.FileCoverage, path string, firstOnly bool) []domain.ThresholdResult {
	if coverage == nil {
		return nil
	}
	summary := coverage.Summary()

	var violations []domain.ThresholdResult
	for _, metric := range domain.Metrics {
		expected, declared := threshold[metric]
		if !declared {
			continue
		}
		received, tracked := summary[metric]
		if !tracked || received >= expected {
			continue
		}
		violations = append(violations, domain.ThresholdResult{
			Path:     path,
			Type:     metric,
			Expected: expected,
			Received: received,
		})
		if firstOnly {
			break
		}
	}
	return violations
}
