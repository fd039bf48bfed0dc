package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/threshold"
)

type Service struct {
	ConfigLoader ConfigLoader
	ReportLoader ReportLoader
	Reporter     Reporter
	Engine       *threshold.Engine
	Logger       *slog.Logger
	Out          io.Writer
}

// Check runs CheckResult and renders the outcome. It returns
// ErrUnderThreshold and/or ErrTestsFailed when the run did not pass.
func (s *Service) Check(ctx context.Context, opts CheckOptions) error {
	result, err := s.CheckResult(ctx, opts)
	if err != nil {
		return err
	}
	if err := s.Reporter.Write(s.Out, result, opts.Output); err != nil {
		return err
	}
	return resultError(result)
}

// CheckResult loads the configuration and reports and evaluates the
// configured thresholds. Report load failures are recorded as fail reasons
// on the returned result and also returned as an error.
func (s *Service) CheckResult(ctx context.Context, opts CheckOptions) (CheckResult, error) {
	cfg, err := s.loadConfig(opts.ConfigPath, true)
	if err != nil {
		return CheckResult{}, err
	}
	if cfg.Thresholds.IsEmpty() {
		return CheckResult{}, ErrNoThresholds
	}

	reasons := domain.NewFailReasons()
	report, err := s.loadReports(ctx, cfg, opts.Reports, opts.Format)
	if err != nil {
		reasons.Add(failReasonFor(err))
		reasons.Error(err)
		return CheckResult{Reasons: reasons.Get().Data}, err
	}
	if report.TestsFailed {
		reasons.Add(domain.FailReasonTestsFailed)
	}

	workingDirectory := opts.WorkingDirectory
	if workingDirectory == "" {
		workingDirectory = cfg.WorkingDirectory
	}

	violations := s.engine().Check(report, cfg.Thresholds, workingDirectory, reasons)
	collected := reasons.Get()

	s.logger().Info("threshold check finished",
		"files", report.Coverage.Len(),
		"violations", len(violations),
		"reasons", len(collected.Data))

	return CheckResult{
		Passed:     len(collected.Data) == 0,
		Files:      report.Coverage.Len(),
		Summary:    report.Coverage.Total().Summary(),
		Violations: violations,
		Reasons:    collected.Data,
	}, nil
}

// Summary returns the accumulated coverage percentages of the reports.
// The config file is optional here.
func (s *Service) Summary(ctx context.Context, opts SummaryOptions) (map[domain.Metric]float64, error) {
	cfg, err := s.loadConfig(opts.ConfigPath, false)
	if err != nil {
		return nil, err
	}
	report, err := s.loadReports(ctx, cfg, opts.Reports, opts.Format)
	if err != nil {
		return nil, err
	}
	return report.Coverage.Total().Summary(), nil
}

// LoadConfig loads and validates the config file at path.
func (s *Service) LoadConfig(path string) (Config, error) {
	return s.loadConfig(path, true)
}

func (s *Service) loadConfig(path string, required bool) (Config, error) {
	exists, err := s.ConfigLoader.Exists(path)
	if err != nil {
		return Config{}, err
	}
	if !exists {
		if required {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, nil
	}
	return s.ConfigLoader.Load(path)
}

func (s *Service) loadReports(ctx context.Context, cfg Config, paths []string, format Format) (domain.Report, error) {
	if len(paths) == 0 {
		paths = cfg.Report.Paths
	}
	if len(paths) == 0 {
		return domain.Report{}, ErrNoReports
	}
	if format == "" {
		format = cfg.Report.Format
	}
	if format == "" {
		format = FormatAuto
	}
	s.logger().Debug("loading reports", "paths", paths, "format", format)
	report, err := s.ReportLoader.Load(ctx, format, paths)
	if err != nil {
		return domain.Report{}, fmt.Errorf("%w: %w", ErrReportLoad, err)
	}
	return report, nil
}

func (s *Service) engine() *threshold.Engine {
	if s.Engine == nil {
		return threshold.NewEngine(s.logger())
	}
	return s.Engine
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

func failReasonFor(err error) domain.FailReason {
	if errors.Is(err, fs.ErrNotExist) {
		return domain.FailReasonReportNotFound
	}
	return domain.FailReasonInvalidCoverageFormat
}

func resultError(result CheckResult) error {
	var errs []error
	for _, reason := range result.Reasons {
		switch reason {
		case domain.FailReasonUnderThreshold:
			errs = append(errs, ErrUnderThreshold)
		case domain.FailReasonTestsFailed:
			errs = append(errs, ErrTestsFailed)
		}
	}
	return errors.Join(errs...)
}
