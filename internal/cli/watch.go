package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/watcher"
)

const clearFlagName = "clear"

// newWatcher is swapped in tests.
var newWatcher = func(a *app) (application.FileWatcher, error) {
	w, err := watcher.New(watcher.WithDebounce(500*time.Millisecond), watcher.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (a *app) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-check thresholds whenever a report or the config changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.checkOptions(cmd)
			if err != nil {
				return err
			}
			clearScreen, err := cmd.Flags().GetBool(clearFlagName)
			if err != nil {
				return err
			}
			return a.runWatch(cmd.Context(), application.WatchOptions{CheckOptions: opts, Clear: clearScreen})
		},
	}
	a.reportFlags(cmd.Flags())
	cmd.Flags().Bool(clearFlagName, false, "clear the terminal before each run")
	return cmd
}

func (a *app) runWatch(ctx context.Context, opts application.WatchOptions) error {
	w, err := newWatcher(a)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	// Handle Ctrl+C gracefully
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(a.stdout, "Watching for report changes... (Ctrl+C to stop)")

	callback := func(run int, result application.CheckResult, runErr error) {
		fmt.Fprintf(a.stdout, "\n--- Run #%d at %s ---\n", run, time.Now().Format("15:04:05"))
		switch {
		case runErr == nil:
			fmt.Fprintln(a.stdout, "All coverage thresholds met")
		case errors.Is(runErr, application.ErrUnderThreshold), errors.Is(runErr, application.ErrTestsFailed):
			fmt.Fprintf(a.stdout, "Check failed: %v\n", runErr)
		default:
			fmt.Fprintf(a.stderr, "Check error: %v\n", runErr)
		}
	}

	err = a.svc.Watch(ctx, opts, w, callback)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(a.stdout, "\nStopping watch mode...")
		return nil
	}
	return err
}
