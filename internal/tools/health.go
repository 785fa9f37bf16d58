package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
)

// HealthCheckTool handles the health_check MCP tool. It never fails:
// the process answering at all means serviceStatus is "up"; database
// availability is reported inside the payload.
type HealthCheckTool struct {
	reporter *inventory.HealthReporter
}

// NewHealthCheckTool creates a HealthCheckTool.
func NewHealthCheckTool(reporter *inventory.HealthReporter) *HealthCheckTool {
	return &HealthCheckTool{reporter: reporter}
}

// Definition returns the MCP tool definition for health_check.
func (t *HealthCheckTool) Definition() mcp.Tool {
	return mcp.NewTool("health_check",
		mcp.WithDescription(
			"Report the service's composite health: process status, database "+
				"connection state and whether data operations are currently served.",
		),
	)
}

// Handle processes the health_check tool call.
func (t *HealthCheckTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.reporter.Check()), nil
}
