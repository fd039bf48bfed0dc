// Package mcp provides the Model Context Protocol server for covergate.
package mcp

import (
	"context"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/infrastructure/config"
)

// Service defines the application operations needed by MCP.
// This interface allows for easy mocking in tests.
type Service interface {
	CheckResult(ctx context.Context, opts application.CheckOptions) (application.CheckResult, error)
	LoadConfig(path string) (application.Config, error)
}

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string // Path to .covergate.yaml (default: ".covergate.yaml")
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() Config {
	return Config{
		ConfigPath: config.DefaultPath,
	}
}

// CheckInput defines the input parameters for the check_threshold tool.
type CheckInput struct {
	ConfigPath       string   `json:"configPath,omitempty" jsonschema:"path to the covergate config file"`
	Reports          []string `json:"reports,omitempty" jsonschema:"coverage reports to check instead of the configured ones"`
	Format           string   `json:"format,omitempty" jsonschema:"report format: auto, istanbul, lcov, cobertura or go"`
	WorkingDirectory string   `json:"workingDirectory,omitempty" jsonschema:"directory that threshold selectors are relative to"`
}

// CheckOutput is the structured result of the check_threshold tool.
type CheckOutput struct {
	Passed     bool                      `json:"passed"`
	Summary    map[domain.Metric]float64 `json:"summary,omitempty"`
	Violations []domain.ThresholdResult  `json:"violations,omitempty"`
	Reasons    []domain.FailReason       `json:"reasons,omitempty"`
	Message    string                    `json:"message"`
	Error      string                    `json:"error,omitempty"`
}

// coalesce returns value if non-empty, otherwise fallback.
func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
