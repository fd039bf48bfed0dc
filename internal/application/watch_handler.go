package application

import (
	"context"
	"fmt"
)

const clearScreen = "\033[H\033[2J"

// Watch runs the threshold check once, then again every time one of the
// reports or the config file changes.
func (s *Service) Watch(ctx context.Context, opts WatchOptions, watcher FileWatcher, callback WatchCallback) error {
	cfg, err := s.loadConfig(opts.ConfigPath, true)
	if err != nil {
		return err
	}

	paths := opts.Reports
	if len(paths) == 0 {
		paths = cfg.Report.Paths
	}
	if len(paths) == 0 {
		return ErrNoReports
	}
	watched := append(append([]string(nil), paths...), opts.ConfigPath)
	if err := watcher.Watch(watched...); err != nil {
		return fmt.Errorf("failed to watch reports: %w", err)
	}

	runNumber := 1
	s.watchRun(ctx, opts, runNumber, callback)

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			s.watchRun(ctx, opts, runNumber, callback)
		}
	}
}

func (s *Service) watchRun(ctx context.Context, opts WatchOptions, run int, callback WatchCallback) {
	if opts.Clear && s.Out != nil {
		fmt.Fprint(s.Out, clearScreen)
	}
	result, err := s.CheckResult(ctx, opts.CheckOptions)
	if err == nil && s.Reporter != nil && s.Out != nil {
		err = s.Reporter.Write(s.Out, result, opts.Output)
	}
	if err == nil {
		err = resultError(result)
	}
	s.logger().Debug("watch run finished", "run", run, "passed", result.Passed)
	if callback != nil {
		callback(run, result, err)
	}
}
