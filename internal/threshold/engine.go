// Package threshold resolves declared coverage thresholds against a coverage
// report and collects the rules that are not met.
//
// A threshold spec is a flat, ordered list of selectors. A selector is either
// "global" or a glob over slash-separated paths relative to the working
// directory. Each path selector is evaluated twice: against the directories
// implied by the report (with the coverage of each matched directory
// aggregated over its subtree) and against the files themselves. The global
// threshold is evaluated once, over the files no path selector reaches.
// Overlapping selectors are evaluated independently.
package threshold

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/covergate/internal/domain"
)

// Engine evaluates threshold specs against coverage reports.
type Engine struct {
	// Getwd returns the process working directory. Defaults to os.Getwd.
	Getwd func() (string, error)
	// Logger receives debug traces of each pass. Defaults to a discarding logger.
	Logger *slog.Logger
}

// NewEngine creates an engine that resolves paths against the process
// working directory.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{Getwd: os.Getwd, Logger: logger}
}

// CheckThreshold evaluates spec against report with a default engine.
func CheckThreshold(report domain.CoverageReport, spec domain.ThresholdSpec, workingDirectory string, sink domain.FailureSink) []domain.ThresholdResult {
	return NewEngine(nil).Check(report, spec, workingDirectory, sink)
}

// ResolveWorkingDirectory joins cwd with the optional workingDirectory
// override. An absolute override replaces cwd.
func ResolveWorkingDirectory(cwd, workingDirectory string) string {
	if workingDirectory != "" && filepath.IsAbs(workingDirectory) {
		return filepath.Clean(workingDirectory)
	}
	if cwd == "" && workingDirectory == "" {
		return ""
	}
	return filepath.Join(cwd, workingDirectory)
}

// RelativizeCoverage strips "<root>/" from every file path of coverage.
func RelativizeCoverage(coverage domain.CoverageMap, root string) domain.CoverageMap {
	prefix := strings.TrimSuffix(filepath.ToSlash(root), "/") + "/"
	return coverage.Relativize(prefix)
}

// Check relativizes the report against the resolved working directory and
// evaluates spec. When at least one rule is unmet, sink receives
// UNDER_THRESHOLD exactly once.
func (e *Engine) Check(report domain.CoverageReport, spec domain.ThresholdSpec, workingDirectory string, sink domain.FailureSink) []domain.ThresholdResult {
	cwd, err := e.getwd()
	if err != nil {
		e.logger().Warn("cannot read working directory", "error", err)
		cwd = ""
	}
	root := ResolveWorkingDirectory(cwd, workingDirectory)
	coverage := RelativizeCoverage(report.FileCoverageMap(), root)

	e.logger().Debug("relativized coverage", "root", root, "files", coverage.Len())
	return e.Evaluate(coverage, spec, sink)
}

// Evaluate runs the directory, file and global passes over an already
// relativized coverage map.
func (e *Engine) Evaluate(coverage domain.CoverageMap, spec domain.ThresholdSpec, sink domain.FailureSink) []domain.ThresholdResult {
	log := e.logger()
	results := make([]domain.ThresholdResult, 0)
	normalized := NormalizeThreshold(spec)

	directories := CoveredDirectories(coverage)
	for _, entry := range normalized.Entries {
		selected := MatchList(directories, entry.Selector)
		log.Debug("directory pass", "selector", entry.Selector, "matched", len(selected))
		for _, dir := range selected {
			dirCoverage := CoverageForDirectory(dir, coverage)
			if violation := CheckSingle(entry.Threshold, &dirCoverage, dir); violation != nil {
				results = append(results, *violation)
			}
		}
	}

	files := coverage.Paths()
	for _, entry := range normalized.Entries {
		selected := MatchList(files, entry.Selector)
		log.Debug("file pass", "selector", entry.Selector, "matched", len(selected))
		for _, file := range selected {
			fileCoverage, ok := coverage.Get(file)
			if !ok {
				continue
			}
			if violation := CheckSingle(entry.Threshold, &fileCoverage, file); violation != nil {
				results = append(results, *violation)
			}
		}
	}

	if global, ok := spec.Global(); ok {
		unchecked := UncheckedFiles(normalized, coverage)
		total := CoverageForFiles(unchecked, coverage)
		log.Debug("global pass", "files", len(unchecked))
		if violation := CheckSingle(global, &total, domain.GlobalSelector); violation != nil {
			results = append(results, *violation)
		}
	}

	for _, r := range results {
		log.Debug("threshold not met", "path", r.Path, "type", r.Type, "expected", r.Expected, "received", r.Received)
	}

	if len(results) > 0 && sink != nil {
		sink.Add(domain.FailReasonUnderThreshold)
	}

	return results
}

func (e *Engine) getwd() (string, error) {
	if e.Getwd == nil {
		return os.Getwd()
	}
	return e.Getwd()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}
