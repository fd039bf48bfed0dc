package mcp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/covergate/internal/infrastructure/config"
)

// handleConfigResource returns the loaded configuration re-rendered as YAML.
func (s *Server) handleConfigResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	cfg, err := s.svc.LoadConfig(s.config.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var buf bytes.Buffer
	if err := config.Write(&buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      configResourceURI,
			MIMEType: "application/yaml",
			Text:     buf.String(),
		}},
	}, nil
}
