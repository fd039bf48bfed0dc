package cli

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/config"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/coverprofile"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/parsers"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/report"
	"github.com/felixgeelhaar/covergate/internal/threshold"
)

// BuildService wires the production adapters. Go profiles are resolved
// against the module enclosing the working directory when there is one.
func BuildService(logger *slog.Logger, out io.Writer) (Service, error) {
	var opts []parsers.Option
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	module, err := coverprofile.FindModule(cwd)
	switch {
	case err == nil:
		logger.Debug("resolving go profiles against module", "module", module.Path, "root", module.Root)
		opts = append(opts, parsers.WithGoModule(module))
	case !errors.Is(err, coverprofile.ErrModuleNotFound):
		return nil, err
	}

	return &application.Service{
		ConfigLoader: config.Loader{},
		ReportLoader: parsers.NewRegistry(opts...),
		Reporter:     report.Writer{},
		Engine:       threshold.NewEngine(logger),
		Logger:       logger,
		Out:          out,
	}, nil
}
