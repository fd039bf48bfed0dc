package domain

import (
	"fmt"
	"strings"
)

// GlobalSelector is the reserved selector whose threshold applies to every
// file no other selector covers.
const GlobalSelector = "global"

// SingleThreshold maps a metric to its required minimum percentage.
// Metrics that are not declared are not checked.
type SingleThreshold map[Metric]float64

// Validate checks every declared minimum against the 0-100 range.
func (t SingleThreshold) Validate() error {
	for _, m := range Metrics {
		value, ok := t[m]
		if !ok {
			continue
		}
		if _, err := NewThreshold(value); err != nil {
			return fmt.Errorf("%s: %w", m, err)
		}
	}
	return nil
}

// String renders the declared metrics in canonical order.
func (t SingleThreshold) String() string {
	parts := make([]string, 0, len(t))
	for _, m := range Metrics {
		if value, ok := t[m]; ok {
			parts = append(parts, fmt.Sprintf("%s=%g", m, value))
		}
	}
	return strings.Join(parts, " ")
}

// ThresholdEntry binds a selector to its threshold.
type ThresholdEntry struct {
	Selector  string
	Threshold SingleThreshold
}

// IsGlobal reports whether the entry is the reserved global bucket.
func (e ThresholdEntry) IsGlobal() bool {
	return e.Selector == GlobalSelector
}

// ThresholdSpec is the ordered list of selector rules declared by the user.
// Selectors are either "global" or a glob pattern over relative paths.
type ThresholdSpec struct {
	Entries []ThresholdEntry
}

// NewThresholdSpec builds a spec from entries, keeping their order.
func NewThresholdSpec(entries ...ThresholdEntry) ThresholdSpec {
	return ThresholdSpec{Entries: append([]ThresholdEntry(nil), entries...)}
}

// Get returns the threshold declared for selector.
func (s ThresholdSpec) Get(selector string) (SingleThreshold, bool) {
	for _, e := range s.Entries {
		if e.Selector == selector {
			return e.Threshold, true
		}
	}
	return nil, false
}

// Global returns the global threshold if one is declared.
func (s ThresholdSpec) Global() (SingleThreshold, bool) {
	return s.Get(GlobalSelector)
}

// Set declares or replaces the threshold for selector. A new selector is
// appended after the existing ones.
func (s *ThresholdSpec) Set(selector string, threshold SingleThreshold) {
	for i := range s.Entries {
		if s.Entries[i].Selector == selector {
			s.Entries[i].Threshold = threshold
			return
		}
	}
	s.Entries = append(s.Entries, ThresholdEntry{Selector: selector, Threshold: threshold})
}

// Selectors returns every selector in declaration order.
func (s ThresholdSpec) Selectors() []string {
	out := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		out = append(out, e.Selector)
	}
	return out
}

// Len returns the number of declared selectors.
func (s ThresholdSpec) Len() int {
	return len(s.Entries)
}

// IsEmpty reports whether no selector is declared.
func (s ThresholdSpec) IsEmpty() bool {
	return len(s.Entries) == 0
}

// Validate checks every declared threshold.
func (s ThresholdSpec) Validate() error {
	for _, e := range s.Entries {
		if strings.TrimSpace(e.Selector) == "" {
			return ErrEmptySelector
		}
		if err := e.Threshold.Validate(); err != nil {
			return fmt.Errorf("threshold %q: %w", e.Selector, err)
		}
	}
	return nil
}

// ThresholdResult is one unmet rule: the metric of path whose coverage
// received is below expected.
type ThresholdResult struct {
	Path     string  `json:"path"`
	Type     Metric  `json:"type"`
	Expected float64 `json:"expected"`
	Received float64 `json:"received"`
}

// Shortfall returns how many percentage points are missing.
func (r ThresholdResult) Shortfall() float64 {
	if r.Received >= r.Expected {
		return 0
	}
	return Round2(r.Expected - r.Received)
}

// String formats the violation for logs and plain output.
func (r ThresholdResult) String() string {
	return fmt.Sprintf("%s: %s coverage %.2f%% is below %.2f%%", r.Path, r.Type, r.Received, r.Expected)
}
