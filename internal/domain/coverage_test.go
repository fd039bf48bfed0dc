package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoveragePercent(t *testing.T) {
	stat := CoverageStat{Covered: 1, Total: 3}
	if got := stat.Percent(); got < 33.3 || got > 33.4 {
		t.Fatalf("expected ~33.3, got %f", got)
	}
	zero := CoverageStat{}
	if got := zero.Percent(); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
	if !zero.IsEmpty() {
		t.Fatalf("expected zero stat to be empty")
	}
}

func TestParseMetric(t *testing.T) {
	m, ok := ParseMetric(" Branches ")
	require.True(t, ok)
	assert.Equal(t, MetricBranches, m)

	_, ok = ParseMetric("conditions")
	assert.False(t, ok)
}

func TestFileCoverageSummary(t *testing.T) {
	fc := FileCoverage{
		Statements: CoverageStat{Covered: 3, Total: 4},
		Branches:   CoverageStat{Covered: 0, Total: 2},
		Lines:      CoverageStat{Covered: 1, Total: 1},
	}

	summary := fc.Summary()

	assert.Equal(t, 75.0, summary[MetricStatements])
	assert.Equal(t, 0.0, summary[MetricBranches])
	assert.Equal(t, 100.0, summary[MetricLines])
	_, tracked := summary[MetricFunctions]
	assert.False(t, tracked, "functions have no items and must be absent")
}

func TestAccumulate(t *testing.T) {
	t.Run("sums raw counters", func(t *testing.T) {
		a := FileCoverage{Statements: CoverageStat{Covered: 1, Total: 2}, Functions: CoverageStat{Covered: 1, Total: 1}}
		b := FileCoverage{Statements: CoverageStat{Covered: 3, Total: 6}, Branches: CoverageStat{Covered: 2, Total: 4}}

		total := Accumulate(a, b)

		assert.Equal(t, CoverageStat{Covered: 4, Total: 8}, total.Statements)
		assert.Equal(t, CoverageStat{Covered: 2, Total: 4}, total.Branches)
		assert.Equal(t, CoverageStat{Covered: 1, Total: 1}, total.Functions)
		assert.Equal(t, 50.0, total.Summary()[MetricStatements])
	})

	t.Run("empty input yields zero coverage", func(t *testing.T) {
		assert.Equal(t, FileCoverage{}, Accumulate())
		assert.Empty(t, Accumulate().Summary())
	})
}

func TestCoverageMap(t *testing.T) {
	t.Run("keeps insertion order", func(t *testing.T) {
		m := NewCoverageMap()
		m.Set("b.ts", FileCoverage{})
		m.Set("a.ts", FileCoverage{})
		m.Set("b.ts", FileCoverage{Lines: CoverageStat{Covered: 1, Total: 1}})

		assert.Equal(t, []string{"b.ts", "a.ts"}, m.Paths())
		got, ok := m.Get("b.ts")
		require.True(t, ok)
		assert.Equal(t, 1, got.Lines.Covered)
	})

	t.Run("zero value is usable", func(t *testing.T) {
		var m CoverageMap
		m.Set("a.ts", FileCoverage{})
		assert.Equal(t, 1, m.Len())
	})

	t.Run("relativize strips prefix and leaves other keys", func(t *testing.T) {
		m := NewCoverageMap()
		m.Set("/repo/src/a.ts", FileCoverage{})
		m.Set("/other/b.ts", FileCoverage{})

		rel := m.Relativize("/repo/")

		assert.Equal(t, []string{"src/a.ts", "/other/b.ts"}, rel.Paths())
		assert.Equal(t, []string{"/repo/src/a.ts", "/other/b.ts"}, m.Paths(), "source map must not change")
	})
}
