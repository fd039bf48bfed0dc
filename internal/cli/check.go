package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/covergate/internal/application"
)

// reportFlags registers the flags shared by check and watch.
func (a *app) reportFlags(flags *pflag.FlagSet) {
	flags.StringArrayP(reportFlagName, "r", nil, "coverage report path (repeatable, overrides report.paths)")
	flags.StringP(formatFlagName, "f", "", "report format: auto|istanbul|lcov|cobertura|go")
	flags.StringP(workingDirFlagName, "w", "", "directory threshold selectors are relative to")
	flags.StringP(outputFlagName, "o", string(application.OutputText), "output format: text|json|markdown|brief")
}

// checkOptions reads the shared flags of cmd, falling back to COVERGATE_*
// environment variables.
func (a *app) checkOptions(cmd *cobra.Command) (application.CheckOptions, error) {
	flags := cmd.Flags()
	reports, err := flags.GetStringArray(reportFlagName)
	if err != nil {
		return application.CheckOptions{}, err
	}
	if len(reports) == 0 {
		reports = a.viper.GetStringSlice(reportFlagName)
	}

	format, err := parseFormat(a.stringFlag(cmd, formatFlagName))
	if err != nil {
		return application.CheckOptions{}, err
	}
	output, err := parseOutput(a.stringFlag(cmd, outputFlagName))
	if err != nil {
		return application.CheckOptions{}, err
	}

	return application.CheckOptions{
		ConfigPath:       a.configPath(),
		Reports:          reports,
		Format:           format,
		WorkingDirectory: a.stringFlag(cmd, workingDirFlagName),
		Output:           output,
	}, nil
}

// stringFlag returns the flag value when set on the command line, then the
// environment, then the flag default.
func (a *app) stringFlag(cmd *cobra.Command, name string) string {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return ""
	}
	if !flag.Changed {
		if env := a.viper.GetString(name); env != "" {
			return env
		}
	}
	return flag.Value.String()
}

func (a *app) newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check coverage reports against the configured thresholds",
		Long: `Check parses the coverage reports, evaluates every selector threshold and the
global bucket, and prints the result.

Exit codes: 0 all thresholds met, 1 thresholds not met or tests failed,
2 usage or configuration error, 3 reports missing or unreadable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.checkOptions(cmd)
			if err != nil {
				return err
			}
			return a.svc.Check(cmd.Context(), opts)
		},
	}
	a.reportFlags(cmd.Flags())
	return cmd
}

func parseFormat(value string) (application.Format, error) {
	switch f := application.Format(value); f {
	case "":
		return "", nil
	case application.FormatAuto, application.FormatIstanbul, application.FormatLCOV,
		application.FormatCobertura, application.FormatGo:
		return f, nil
	default:
		return "", fmt.Errorf("invalid report format: %s", value)
	}
}

func parseOutput(value string) (application.OutputFormat, error) {
	switch o := application.OutputFormat(value); o {
	case "":
		return application.OutputText, nil
	case application.OutputText, application.OutputJSON, application.OutputMarkdown, application.OutputBrief:
		return o, nil
	default:
		return "", fmt.Errorf("invalid output format: %s", value)
	}
}
