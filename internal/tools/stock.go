package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
)

// UpdateInventoryTool handles the update_inventory MCP tool.
type UpdateInventoryTool struct {
	store *inventory.Store
}

// NewUpdateInventoryTool creates an UpdateInventoryTool.
func NewUpdateInventoryTool(store *inventory.Store) *UpdateInventoryTool {
	return &UpdateInventoryTool{store: store}
}

// Definition returns the MCP tool definition for update_inventory.
func (t *UpdateInventoryTool) Definition() mcp.Tool {
	return mcp.NewTool("update_inventory",
		mcp.WithDescription(
			"Adjust a product's stock by a positive or negative delta. "+
				"An adjustment that would take inventory below zero is rejected.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Product identifier"),
		),
		mcp.WithNumber("delta",
			mcp.Required(),
			mcp.Description("Stock change, e.g. 5 for restock or -2 for shrinkage"),
		),
	)
}

// Handle processes the update_inventory tool call.
func (t *UpdateInventoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("ValidationError: 'id' must be a positive integer"), nil
	}
	delta := intArg(req, "delta", 0)

	product, err := t.store.AdjustInventory(ctx, id, delta)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(product), nil
}
