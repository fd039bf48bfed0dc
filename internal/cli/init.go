package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/config"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/parsers/detector"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/wizard"
)

const (
	forceFlagName         = "force"
	noInteractiveFlagName = "no-interactive"
	initOutputFlagName    = "write"
)

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

func (a *app) newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config with global thresholds seeded from the current coverage",
		Long: `Init measures the current coverage of the reports and proposes global
thresholds rounded down to the nearest 5%, so the current state passes.
In a terminal the proposal can be edited before it is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInit(cmd)
		},
	}
	flags := cmd.Flags()
	flags.StringArrayP(reportFlagName, "r", nil, "coverage report path (repeatable)")
	flags.StringP(formatFlagName, "f", "", "report format: auto|istanbul|lcov|cobertura|go")
	flags.Bool(forceFlagName, false, "overwrite an existing config")
	flags.Bool(noInteractiveFlagName, false, "write the proposal without the wizard")
	flags.String(initOutputFlagName, "", "write to this path instead of --config (- for stdout)")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command) error {
	flags := cmd.Flags()
	reports, _ := flags.GetStringArray(reportFlagName)
	force, _ := flags.GetBool(forceFlagName)
	noInteractive, _ := flags.GetBool(noInteractiveFlagName)
	format, err := parseFormat(a.stringFlag(cmd, formatFlagName))
	if err != nil {
		return err
	}

	target, _ := flags.GetString(initOutputFlagName)
	if target == "" {
		target = a.configPath()
	}
	if target != "-" && !force {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("config %s already exists (use --force to overwrite)", target)
		}
	}

	base, err := a.svc.LoadConfig(a.configPath())
	if err != nil && !errors.Is(err, application.ErrConfigNotFound) {
		return err
	}
	if len(reports) > 0 {
		base.Report.Paths = reports
	}
	if len(base.Report.Paths) == 0 {
		if found, ok := discoverReport(); ok {
			fmt.Fprintf(a.stderr, "Using discovered report %s\n", found)
			base.Report.Paths = []string{found}
		}
	}
	if format != "" {
		base.Report.Format = format
	}
	if base.Report.Format == "" {
		base.Report.Format = application.FormatAuto
	}

	summary, err := a.svc.Summary(cmd.Context(), application.SummaryOptions{
		ConfigPath: a.configPath(),
		Reports:    base.Report.Paths,
		Format:     base.Report.Format,
	})
	if err != nil {
		return err
	}
	suggested := wizard.Suggest(summary)
	if len(suggested) == 0 {
		return fmt.Errorf("%w: no coverage data found in %v", application.ErrNoThresholds, base.Report.Paths)
	}
	base.Thresholds = withGlobal(base.Thresholds, suggested)

	cfg := base
	if !noInteractive && isTerminal(stdin) {
		edited, confirmed, err := initWizard(base, a.stdout, stdin)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(a.stdout, "Init cancelled")
			return nil
		}
		cfg = edited
	}

	return writeConfigFile(target, cfg, a.stdout)
}

// withGlobal returns spec with its global threshold replaced, keeping the
// other selectors and the position of global.
func withGlobal(spec domain.ThresholdSpec, global domain.SingleThreshold) domain.ThresholdSpec {
	out := domain.NewThresholdSpec(spec.Entries...)
	out.Set(domain.GlobalSelector, global)
	return out
}

// discoverReport looks for the default report of the project in the
// working directory.
func discoverReport() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return detector.New().DiscoverReport(cwd)
}

func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := config.Write(file, cfg); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}
