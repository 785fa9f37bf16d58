package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
)

// RemoveProductTool handles the remove_product MCP tool.
type RemoveProductTool struct {
	store *inventory.Store
}

// NewRemoveProductTool creates a RemoveProductTool.
func NewRemoveProductTool(store *inventory.Store) *RemoveProductTool {
	return &RemoveProductTool{store: store}
}

// Definition returns the MCP tool definition for remove_product.
func (t *RemoveProductTool) Definition() mcp.Tool {
	return mcp.NewTool("remove_product",
		mcp.WithDescription(
			"Delete a product by id and return the deleted record. "+
				"Historical orders for the product are kept for audit.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Product identifier"),
		),
	)
}

// Handle processes the remove_product tool call.
func (t *RemoveProductTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("ValidationError: 'id' must be a positive integer"), nil
	}

	product, err := t.store.RemoveProduct(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(product), nil
}
