// Package parsers provides a unified registry for coverage report parsers.
//
// The registry automatically detects report formats and selects the appropriate parser.
package parsers

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/coverprofile"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/parsers/cobertura"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/parsers/detector"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/parsers/istanbul"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/parsers/lcov"
)

// Registry manages multiple report parsers and auto-detects formats.
type Registry struct {
	detector *detector.Detector
	parsers  map[application.Format]application.ReportParser
	limit    int
}

// Option configures the registry.
type Option func(*Registry)

// WithGoModule resolves Go profile import paths against module.
func WithGoModule(module coverprofile.Module) Option {
	return func(r *Registry) {
		r.parsers[application.FormatGo] = coverprofile.New(module)
	}
}

// WithConcurrency caps how many reports are parsed at once.
func WithConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.limit = n
		}
	}
}

// NewRegistry creates a new parser registry with all supported parsers.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		detector: detector.New(),
		parsers: map[application.Format]application.ReportParser{
			application.FormatIstanbul:  istanbul.New(),
			application.FormatGo:        coverprofile.New(coverprofile.Module{}),
			application.FormatLCOV:      lcov.New(),
			application.FormatCobertura: cobertura.New(),
		},
		limit: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Format returns the auto format, since the registry handles all formats.
func (r *Registry) Format() application.Format {
	return application.FormatAuto
}

// Parse parses a coverage report, auto-detecting the format.
func (r *Registry) Parse(path string) (domain.Report, error) {
	return r.ParseWithFormat(path, application.FormatAuto)
}

// ParseAll parses multiple reports, potentially with different formats.
func (r *Registry) ParseAll(paths []string) (domain.Report, error) {
	return r.Load(context.Background(), application.FormatAuto, paths)
}

// ParseWithFormat parses a report using a specific format. FormatAuto
// detects the format from the report.
func (r *Registry) ParseWithFormat(path string, format application.Format) (domain.Report, error) {
	parser, err := r.parserFor(path, format)
	if err != nil {
		return domain.Report{}, err
	}
	return parser.Parse(path)
}

// Load parses paths concurrently and merges them in argument order. The
// first failure cancels the remaining work.
func (r *Registry) Load(ctx context.Context, format application.Format, paths []string) (domain.Report, error) {
	reports := make([]domain.Report, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.limit)

	for i, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			report, err := r.ParseWithFormat(path, format)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return domain.Report{}, err
	}

	merged := domain.NewReport()
	for _, report := range reports {
		merged.Merge(report)
	}
	return merged, nil
}

// parserFor returns the parser for format, detecting it when auto.
func (r *Registry) parserFor(path string, format application.Format) (application.ReportParser, error) {
	if format == "" || format == application.FormatAuto {
		detected, err := r.detector.DetectFormat(path)
		if err != nil {
			return nil, fmt.Errorf("detect format: %w", err)
		}
		if detected == application.FormatAuto {
			return nil, fmt.Errorf("cannot detect coverage format of %s", path)
		}
		format = detected
	}

	parser, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return parser, nil
}

// SupportedFormats returns a list of all supported formats.
func (r *Registry) SupportedFormats() []application.Format {
	formats := make([]application.Format, 0, len(r.parsers))
	for format := range r.parsers {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
