package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
)

// SearchProductsTool handles the search_products MCP tool.
type SearchProductsTool struct {
	store *inventory.Store
}

// NewSearchProductsTool creates a SearchProductsTool.
func NewSearchProductsTool(store *inventory.Store) *SearchProductsTool {
	return &SearchProductsTool{store: store}
}

// Definition returns the MCP tool definition for search_products.
func (t *SearchProductsTool) Definition() mcp.Tool {
	return mcp.NewTool("search_products",
		mcp.WithDescription(
			"Search products whose name or description contains the query "+
				"(case-insensitive substring match). Supports paging via skip/limit.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Substring to look for in product names and descriptions"),
		),
		mcp.WithNumber("skip",
			mcp.Description("Number of matches to skip (default: 0)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max matches to return (default: 20, capped by server config)"),
		),
	)
}

// Handle processes the search_products tool call.
func (t *SearchProductsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	skip := intArg(req, "skip", 0)
	limit := intArg(req, "limit", 0)

	products, err := t.store.SearchProducts(ctx, query, skip, limit)
	if err != nil {
		return errorResult(err), nil
	}
	if products == nil {
		products = []inventory.Product{}
	}
	return jsonResult(products), nil
}
