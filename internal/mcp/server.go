package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is set at build time.
var Version = "dev"

const configResourceURI = "covergate://config"

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc    Service
	config Config
	server *mcp.Server
}

// New creates a new MCP server wrapping the given service.
func New(svc Service, cfg Config) *Server {
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfig().ConfigPath
	}

	s := &Server{
		svc:    svc,
		config: cfg,
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "covergate",
		Version: Version,
	}, nil)
	s.registerTools(s.server)
	s.registerResources(s.server)
	return s
}

// Run serves MCP over stdio and blocks until the context is canceled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "check_threshold",
		Description: "Check coverage reports against the configured per-path and global thresholds. " +
			"Returns the accumulated summary, every unmet threshold and the fail reasons.",
	}, s.handleCheck)
}

func (s *Server) registerResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         configResourceURI,
		Name:        "Current Configuration",
		Description: "The validated covergate configuration with thresholds in declaration order",
		MIMEType:    "application/yaml",
	}, s.handleConfigResource)
}
