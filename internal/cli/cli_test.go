package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/config"
)

type fakeService struct {
	checkErr    error
	checkOpts   application.CheckOptions
	checkCalled bool

	summary     map[domain.Metric]float64
	summaryErr  error
	summaryOpts application.SummaryOptions

	config    application.Config
	configErr error

	watchErr  error
	watchOpts application.WatchOptions
}

func (f *fakeService) Check(_ context.Context, opts application.CheckOptions) error {
	f.checkCalled = true
	f.checkOpts = opts
	return f.checkErr
}

func (f *fakeService) CheckResult(_ context.Context, opts application.CheckOptions) (application.CheckResult, error) {
	f.checkOpts = opts
	return application.CheckResult{}, f.checkErr
}

func (f *fakeService) Summary(_ context.Context, opts application.SummaryOptions) (map[domain.Metric]float64, error) {
	f.summaryOpts = opts
	return f.summary, f.summaryErr
}

func (f *fakeService) LoadConfig(string) (application.Config, error) {
	return f.config, f.configErr
}

func (f *fakeService) Watch(_ context.Context, opts application.WatchOptions, _ application.FileWatcher, callback application.WatchCallback) error {
	f.watchOpts = opts
	callback(1, application.CheckResult{Passed: true}, nil)
	return f.watchErr
}

type fakeWatcher struct{}

func (fakeWatcher) Watch(...string) error                  { return nil }
func (fakeWatcher) Events(context.Context) <-chan struct{} { return make(chan struct{}) }
func (fakeWatcher) Close() error                           { return nil }

func factoryFor(svc *fakeService) ServiceFactory {
	return func(*slog.Logger, io.Writer) (Service, error) {
		return svc, nil
	}
}

func runCLI(svc *fakeService, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"covergate"}, args...), &stdout, &stderr, factoryFor(svc))
	return code, stdout.String(), stderr.String()
}

func TestRunMissingCommand(t *testing.T) {
	code, _, stderr := runCLI(&fakeService{})
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr, "missing command") {
		t.Fatalf("expected missing command error, got %q", stderr)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if code, _, _ := runCLI(&fakeService{}, "frobnicate"); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestVersion(t *testing.T) {
	called := false
	factory := func(*slog.Logger, io.Writer) (Service, error) {
		called = true
		return &fakeService{}, nil
	}
	var stdout bytes.Buffer
	code := Run([]string{"covergate", "version"}, &stdout, io.Discard, factory)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "covergate dev") {
		t.Fatalf("unexpected version output %q", stdout.String())
	}
	if called {
		t.Fatal("version should not build the service")
	}
}

func TestCheckExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"pass", nil, 0},
		{"under threshold", application.ErrUnderThreshold, 1},
		{"tests failed", errors.Join(application.ErrUnderThreshold, application.ErrTestsFailed), 1},
		{"missing report", fmt.Errorf("%w: %w", application.ErrReportLoad, fs.ErrNotExist), 3},
		{"missing config", application.ErrConfigNotFound, 2},
		{"no thresholds", application.ErrNoThresholds, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(&fakeService{checkErr: tt.err}, "check")
			if code != tt.want {
				t.Fatalf("expected exit %d, got %d", tt.want, code)
			}
		})
	}
}

func TestCheckPassesOptions(t *testing.T) {
	svc := &fakeService{}
	code, _, stderr := runCLI(svc, "check",
		"-c", "custom.yaml",
		"-r", "unit/lcov.info", "--report", "e2e/lcov.info",
		"-f", "lcov",
		"-w", "packages/app",
		"-o", "json",
	)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	want := application.CheckOptions{
		ConfigPath:       "custom.yaml",
		Reports:          []string{"unit/lcov.info", "e2e/lcov.info"},
		Format:           application.FormatLCOV,
		WorkingDirectory: "packages/app",
		Output:           application.OutputJSON,
	}
	got := svc.checkOpts
	if got.ConfigPath != want.ConfigPath || got.Format != want.Format ||
		got.WorkingDirectory != want.WorkingDirectory || got.Output != want.Output ||
		strings.Join(got.Reports, ",") != strings.Join(want.Reports, ",") {
		t.Fatalf("unexpected options %+v", got)
	}
}

func TestCheckDefaults(t *testing.T) {
	svc := &fakeService{}
	if code, _, _ := runCLI(svc, "check"); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if svc.checkOpts.ConfigPath != config.DefaultPath || svc.checkOpts.Output != application.OutputText {
		t.Fatalf("unexpected defaults %+v", svc.checkOpts)
	}
	if svc.checkOpts.Format != "" || len(svc.checkOpts.Reports) != 0 {
		t.Fatalf("expected report settings to defer to the config, got %+v", svc.checkOpts)
	}
}

func TestCheckEnvironmentOverrides(t *testing.T) {
	t.Setenv("COVERGATE_CONFIG", "env.yaml")
	t.Setenv("COVERGATE_OUTPUT", "brief")
	t.Setenv("COVERGATE_FORMAT", "cobertura")

	svc := &fakeService{}
	if code, _, _ := runCLI(svc, "check", "--output", "markdown"); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if svc.checkOpts.ConfigPath != "env.yaml" {
		t.Fatalf("expected config from env, got %q", svc.checkOpts.ConfigPath)
	}
	if svc.checkOpts.Format != application.FormatCobertura {
		t.Fatalf("expected format from env, got %q", svc.checkOpts.Format)
	}
	if svc.checkOpts.Output != application.OutputMarkdown {
		t.Fatalf("expected flag to win over env, got %q", svc.checkOpts.Output)
	}
}

func TestCheckInvalidFlags(t *testing.T) {
	for _, args := range [][]string{
		{"check", "-o", "xml"},
		{"check", "-f", "jacoco"},
		{"check", "extra-arg"},
	} {
		svc := &fakeService{}
		code, _, _ := runCLI(svc, args...)
		if code != 2 {
			t.Fatalf("%v: expected exit 2, got %d", args, code)
		}
		if svc.checkCalled {
			t.Fatalf("%v: service should not run", args)
		}
	}
}

func TestFactoryError(t *testing.T) {
	factory := func(*slog.Logger, io.Writer) (Service, error) {
		return nil, errors.New("boom")
	}
	var stderr bytes.Buffer
	if code := Run([]string{"covergate", "check"}, io.Discard, &stderr, factory); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Fatalf("expected factory error, got %q", stderr.String())
	}
}

func TestLogFileFlag(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "covergate.log")
	svc := &fakeService{}
	if code, _, _ := runCLI(svc, "check", "--verbose", "--log-file", logPath); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "command started") {
		t.Fatalf("expected debug log line, got %q", data)
	}
}

func TestInitNonInteractive(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultPath)
	svc := &fakeService{
		configErr: application.ErrConfigNotFound,
		summary: map[domain.Metric]float64{
			domain.MetricStatements: 68.33,
			domain.MetricLines:      91.2,
		},
	}

	code, stdout, stderr := runCLI(svc, "init", "--no-interactive", "-c", path, "-r", "coverage/lcov.info")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Wrote "+path) {
		t.Fatalf("unexpected output %q", stdout)
	}
	if svc.summaryOpts.Reports[0] != "coverage/lcov.info" || svc.summaryOpts.Format != application.FormatAuto {
		t.Fatalf("unexpected summary options %+v", svc.summaryOpts)
	}

	cfg, err := config.Loader{}.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	global, ok := cfg.Thresholds.Global()
	if !ok || global[domain.MetricStatements] != 65 || global[domain.MetricLines] != 90 {
		t.Fatalf("unexpected global %v", global)
	}
	if cfg.Report.Paths[0] != "coverage/lcov.info" {
		t.Fatalf("unexpected report paths %v", cfg.Report.Paths)
	}
}

func TestInitKeepsExistingSelectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultPath)
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	svc := &fakeService{
		config: application.Config{
			Report: application.ReportConfig{Paths: []string{"lcov.info"}, Format: application.FormatLCOV},
			Thresholds: domain.NewThresholdSpec(
				domain.ThresholdEntry{Selector: "src/**", Threshold: domain.SingleThreshold{domain.MetricLines: 95}},
			),
		},
		summary: map[domain.Metric]float64{domain.MetricLines: 72},
	}

	if code, _, stderr := runCLI(svc, "init", "--no-interactive", "--force", "-c", path); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	cfg, err := config.Loader{}.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if got := strings.Join(cfg.Thresholds.Selectors(), ","); got != "src/**,global" {
		t.Fatalf("unexpected selectors %s", got)
	}
	if cfg.Report.Format != application.FormatLCOV {
		t.Fatalf("expected configured format kept, got %q", cfg.Report.Format)
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultPath)
	if err := os.WriteFile(path, []byte("coverageThreshold: {}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	code, _, stderr := runCLI(&fakeService{}, "init", "--no-interactive", "-c", path)
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr, "already exists") {
		t.Fatalf("unexpected error %q", stderr)
	}
}

func TestInitWithoutCoverageData(t *testing.T) {
	svc := &fakeService{configErr: application.ErrConfigNotFound, summary: map[domain.Metric]float64{}}
	code, _, _ := runCLI(svc, "init", "--no-interactive", "--write", "-", "-r", "empty.info")
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestInitToStdout(t *testing.T) {
	svc := &fakeService{
		configErr: application.ErrConfigNotFound,
		summary:   map[domain.Metric]float64{domain.MetricBranches: 50},
	}
	code, stdout, _ := runCLI(svc, "init", "--no-interactive", "--write", "-", "-r", "lcov.info")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(stdout, "global: {branches: 50}") {
		t.Fatalf("expected config on stdout, got %q", stdout)
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	orig := newWatcher
	newWatcher = func(*app) (application.FileWatcher, error) { return fakeWatcher{}, nil }
	t.Cleanup(func() { newWatcher = orig })

	svc := &fakeService{watchErr: context.Canceled}
	code, stdout, _ := runCLI(svc, "watch", "--clear", "-r", "lcov.info")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !svc.watchOpts.Clear || svc.watchOpts.Reports[0] != "lcov.info" {
		t.Fatalf("unexpected watch options %+v", svc.watchOpts)
	}
	for _, want := range []string{"Run #1", "All coverage thresholds met", "Stopping watch mode"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output %q", want, stdout)
		}
	}
}

func TestWatchWatcherError(t *testing.T) {
	orig := newWatcher
	newWatcher = func(*app) (application.FileWatcher, error) { return nil, errors.New("too many open files") }
	t.Cleanup(func() { newWatcher = orig })

	if code, _, _ := runCLI(&fakeService{}, "watch"); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseSlogLevel(tt.value, slog.LevelInfo); got != tt.want {
			t.Errorf("parseSlogLevel(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestConfigureLoggerDiscardsByDefault(t *testing.T) {
	var stderr bytes.Buffer
	logger, closeFn := configureLogger(application.LogConfig{}, false, &stderr)
	logger.Info("hidden")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if stderr.Len() != 0 {
		t.Fatalf("expected no output, got %q", stderr.String())
	}

	logger, _ = configureLogger(application.LogConfig{}, true, &stderr)
	logger.Debug("shown")
	if !strings.Contains(stderr.String(), "shown") {
		t.Fatalf("expected verbose logs on stderr, got %q", stderr.String())
	}
}

func TestBuildService(t *testing.T) {
	svc, err := BuildService(slog.New(slog.NewTextHandler(io.Discard, nil)), io.Discard)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := svc.(*application.Service); !ok {
		t.Fatalf("expected application service, got %T", svc)
	}
}

func TestInitDiscoversReport(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/demo\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "coverage.out"), []byte("mode: set\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Chdir(dir)

	svc := &fakeService{
		configErr: application.ErrConfigNotFound,
		summary:   map[domain.Metric]float64{domain.MetricStatements: 80},
	}
	code, _, stderr := runCLI(svc, "init", "--no-interactive", "--write", "-")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if len(svc.summaryOpts.Reports) != 1 || svc.summaryOpts.Reports[0] != "coverage.out" {
		t.Fatalf("expected discovered report, got %v", svc.summaryOpts.Reports)
	}
	if !strings.Contains(stderr, "Using discovered report coverage.out") {
		t.Fatalf("expected discovery notice, got %q", stderr)
	}
}
