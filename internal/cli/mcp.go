package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/covergate/internal/mcp"
)

func (a *app) newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the threshold check over the Model Context Protocol (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mcp.Version = Version
			server := mcp.New(a.svc, mcp.Config{ConfigPath: a.configPath()})
			a.logger.Info("mcp server starting", "config", a.configPath())
			return server.Run(cmd.Context())
		},
	}
}
