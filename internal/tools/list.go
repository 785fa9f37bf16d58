package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
)

// ListProductsTool handles the get_products MCP tool.
type ListProductsTool struct {
	store *inventory.Store
}

// NewListProductsTool creates a ListProductsTool.
func NewListProductsTool(store *inventory.Store) *ListProductsTool {
	return &ListProductsTool{store: store}
}

// Definition returns the MCP tool definition for get_products.
func (t *ListProductsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_products",
		mcp.WithDescription(
			"List products in the inventory, ordered by id. Supports paging via skip/limit.",
		),
		mcp.WithNumber("skip",
			mcp.Description("Number of products to skip (default: 0)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max products to return (default: 20, capped by server config)"),
		),
	)
}

// Handle processes the get_products tool call.
func (t *ListProductsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	skip := intArg(req, "skip", 0)
	limit := intArg(req, "limit", 0)

	products, err := t.store.Products(ctx, skip, limit)
	if err != nil {
		return errorResult(err), nil
	}
	if products == nil {
		products = []inventory.Product{}
	}
	return jsonResult(products), nil
}
