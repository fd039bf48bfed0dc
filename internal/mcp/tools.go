package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/covergate/internal/application"
)

// handleCheck implements the check_threshold tool. Check failures are
// reported in the output rather than as protocol errors.
func (s *Server) handleCheck(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CheckInput,
) (*mcp.CallToolResult, CheckOutput, error) {
	opts := application.CheckOptions{
		ConfigPath:       coalesce(input.ConfigPath, s.config.ConfigPath),
		Reports:          input.Reports,
		Format:           application.Format(input.Format),
		WorkingDirectory: input.WorkingDirectory,
		Output:           application.OutputJSON,
	}

	result, err := s.svc.CheckResult(ctx, opts)

	output := CheckOutput{
		Passed:     result.Passed,
		Summary:    result.Summary,
		Violations: result.Violations,
		Reasons:    result.Reasons,
	}
	if err != nil {
		output.Passed = false
		output.Error = err.Error()
	}
	output.Message = generateMessage(output)

	return nil, output, nil
}

// generateMessage creates a human-readable line from the output.
func generateMessage(output CheckOutput) string {
	switch {
	case output.Error != "":
		return "FAIL | " + output.Error
	case output.Passed:
		return "PASS | all coverage thresholds met"
	case len(output.Violations) > 0:
		return fmt.Sprintf("FAIL | %d coverage thresholds not met", len(output.Violations))
	default:
		return fmt.Sprintf("FAIL | %v", output.Reasons)
	}
}
