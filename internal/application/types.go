package application

import (
	"context"
	"errors"
	"io"

	"github.com/felixgeelhaar/covergate/internal/domain"
)

type OutputFormat string

const (
	OutputText     OutputFormat = "text"
	OutputJSON     OutputFormat = "json"
	OutputMarkdown OutputFormat = "markdown"
	OutputBrief    OutputFormat = "brief"
)

// Format represents a coverage report format.
type Format string

const (
	// FormatAuto detects the format from the report content.
	FormatAuto Format = "auto"
	// FormatIstanbul is istanbul's coverage-final.json or Jest's --json output.
	FormatIstanbul Format = "istanbul"
	// FormatLCOV is the LCOV tracefile format.
	FormatLCOV Format = "lcov"
	// FormatCobertura is the Cobertura XML format.
	FormatCobertura Format = "cobertura"
	// FormatGo is the Go coverage profile format.
	FormatGo Format = "go"
)

var (
	ErrConfigNotFound = errors.New("config not found")
	ErrNoThresholds   = errors.New("no coverage thresholds configured")
	ErrNoReports      = errors.New("no coverage reports configured")
	ErrReportLoad     = errors.New("coverage report could not be loaded")
	ErrUnderThreshold = errors.New("coverage below threshold")
	ErrTestsFailed    = errors.New("test run reported failures")
)

// Config represents validated, application-ready configuration.
type Config struct {
	Report           ReportConfig
	WorkingDirectory string
	Thresholds       domain.ThresholdSpec
	Log              LogConfig
}

// ReportConfig locates the coverage reports to check.
type ReportConfig struct {
	Paths  []string
	Format Format
}

type LogConfig struct {
	Level    string
	Filename string
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

// ReportParser parses coverage reports of one format.
type ReportParser interface {
	// Parse reads a single report.
	Parse(path string) (domain.Report, error)
	// ParseAll merges several reports in argument order.
	ParseAll(paths []string) (domain.Report, error)
	// Format returns the format this parser handles.
	Format() Format
}

// ReportLoader resolves the parser for each report and merges the results.
type ReportLoader interface {
	Load(ctx context.Context, format Format, paths []string) (domain.Report, error)
}

type Reporter interface {
	Write(w io.Writer, result CheckResult, format OutputFormat) error
}

// FileWatcher provides file change notifications.
type FileWatcher interface {
	Watch(paths ...string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// CheckOptions overrides configuration for a single check. Empty fields fall
// back to the config file.
type CheckOptions struct {
	ConfigPath       string
	Reports          []string
	Format           Format
	WorkingDirectory string
	Output           OutputFormat
}

// CheckResult is the outcome of one threshold check.
type CheckResult struct {
	Passed     bool                      `json:"passed"`
	Files      int                       `json:"files"`
	Summary    map[domain.Metric]float64 `json:"summary"`
	Violations []domain.ThresholdResult  `json:"violations"`
	Reasons    []domain.FailReason       `json:"reasons"`
}

// SummaryOptions selects the reports to summarize.
type SummaryOptions struct {
	ConfigPath string
	Reports    []string
	Format     Format
}

// WatchOptions configures watch mode behavior.
type WatchOptions struct {
	CheckOptions
	Clear bool // Clear terminal before each run
}

// WatchCallback is invoked after every check run in watch mode.
type WatchCallback func(run int, result CheckResult, err error)
