package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
)

// GetProductTool handles the get_product_by_id MCP tool.
type GetProductTool struct {
	store *inventory.Store
}

// NewGetProductTool creates a GetProductTool.
func NewGetProductTool(store *inventory.Store) *GetProductTool {
	return &GetProductTool{store: store}
}

// Definition returns the MCP tool definition for get_product_by_id.
func (t *GetProductTool) Definition() mcp.Tool {
	return mcp.NewTool("get_product_by_id",
		mcp.WithDescription("Fetch a single product by its numeric identifier."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Product identifier"),
		),
	)
}

// Handle processes the get_product_by_id tool call.
func (t *GetProductTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("ValidationError: 'id' must be a positive integer"), nil
	}

	product, err := t.store.ProductByID(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(product), nil
}

// GetProductByNameTool handles the get_product_by_name MCP tool.
type GetProductByNameTool struct {
	store *inventory.Store
}

// NewGetProductByNameTool creates a GetProductByNameTool.
func NewGetProductByNameTool(store *inventory.Store) *GetProductByNameTool {
	return &GetProductByNameTool{store: store}
}

// Definition returns the MCP tool definition for get_product_by_name.
func (t *GetProductByNameTool) Definition() mcp.Tool {
	return mcp.NewTool("get_product_by_name",
		mcp.WithDescription("Fetch a single product by exact name (case-sensitive)."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Exact product name"),
		),
	)
}

// Handle processes the get_product_by_name tool call.
func (t *GetProductByNameTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")

	product, err := t.store.ProductByName(ctx, name)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(product), nil
}
