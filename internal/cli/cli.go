// Package cli wires the covergate commands to the application service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/config"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/wizard"
)

// Service is the application surface the commands drive.
type Service interface {
	Check(ctx context.Context, opts application.CheckOptions) error
	CheckResult(ctx context.Context, opts application.CheckOptions) (application.CheckResult, error)
	Summary(ctx context.Context, opts application.SummaryOptions) (map[domain.Metric]float64, error)
	LoadConfig(path string) (application.Config, error)
	Watch(ctx context.Context, opts application.WatchOptions, watcher application.FileWatcher, callback application.WatchCallback) error
}

// ServiceFactory builds the service once logging is configured.
type ServiceFactory func(logger *slog.Logger, out io.Writer) (Service, error)

const (
	envPrefix = "COVERGATE"

	configFlagName     = "config"
	verboseFlagName    = "verbose"
	logFileFlagName    = "log-file"
	logLevelFlagName   = "log-level"
	reportFlagName     = "report"
	formatFlagName     = "format"
	workingDirFlagName = "working-dir"
	outputFlagName     = "output"
)

var errMissingCommand = errors.New("missing command")

var initWizard = wizard.Run

// app holds the state shared by the commands of one invocation.
type app struct {
	viper   *viper.Viper
	stdout  io.Writer
	stderr  io.Writer
	factory ServiceFactory

	logger  *slog.Logger
	closeFn func() error
	svc     Service
}

// Run executes the command line and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer, factory ServiceFactory) int {
	a := &app{
		viper:   newViper(),
		stdout:  stdout,
		stderr:  stderr,
		factory: factory,
	}
	defer a.close()

	root := a.newRootCmd()
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	return exitCode(err, stderr)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "covergate",
		Short: "Enforce coverage thresholds on coverage reports",
		Long: `covergate checks istanbul, LCOV, Cobertura and Go coverage reports against
per-path glob thresholds and a global bucket for everything else.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errMissingCommand
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringP(configFlagName, "c", config.DefaultPath, "config file path")
	flags.BoolP(verboseFlagName, "v", false, "log at debug level")
	flags.String(logFileFlagName, "", "write logs to this file (rotated)")
	flags.String(logLevelFlagName, "", "log level: debug|info|warn|error")
	for _, name := range []string{configFlagName, verboseFlagName, logFileFlagName, logLevelFlagName} {
		a.bindFlag(flags.Lookup(name), name)
	}

	root.AddCommand(
		a.newCheckCmd(),
		a.newWatchCmd(),
		a.newInitCmd(),
		a.newMCPCmd(),
		a.newVersionCmd(),
	)
	return root
}

// bindFlag wires a cobra flag to a viper key so env values feed the flag.
func (a *app) bindFlag(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}
	cobra.CheckErr(a.viper.BindPFlag(key, flag))
}

// setup configures logging and builds the service for the running command.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}

	logCfg := application.LogConfig{
		Level:    a.viper.GetString(logLevelFlagName),
		Filename: a.viper.GetString(logFileFlagName),
	}
	if fileCfg, err := (config.Loader{}).Load(a.configPath()); err == nil {
		if logCfg.Level == "" {
			logCfg.Level = fileCfg.Log.Level
		}
		if logCfg.Filename == "" {
			logCfg.Filename = fileCfg.Log.Filename
		}
	}

	logger, closeFn := configureLogger(logCfg, a.viper.GetBool(verboseFlagName), a.stderr)
	a.logger = logger
	a.closeFn = closeFn

	svc, err := a.factory(logger, a.stdout)
	if err != nil {
		return err
	}
	a.svc = svc
	logger.Debug("command started", "command", cmd.Name(), "config", a.configPath())
	return nil
}

func (a *app) configPath() string {
	return a.viper.GetString(configFlagName)
}

func (a *app) close() {
	if a.closeFn != nil {
		_ = a.closeFn()
	}
}

// exitCode maps a command error to the process exit code: 1 for unmet
// thresholds or failing tests, 3 for unreadable reports, 2 for everything
// else (usage and configuration).
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	switch {
	case errors.Is(err, application.ErrReportLoad):
		return 3
	case errors.Is(err, application.ErrUnderThreshold), errors.Is(err, application.ErrTestsFailed):
		return 1
	default:
		return 2
	}
}
