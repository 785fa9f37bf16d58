package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
)

// AddProductTool handles the add_product MCP tool.
type AddProductTool struct {
	store *inventory.Store
}

// NewAddProductTool creates an AddProductTool.
func NewAddProductTool(store *inventory.Store) *AddProductTool {
	return &AddProductTool{store: store}
}

// Definition returns the MCP tool definition for add_product.
func (t *AddProductTool) Definition() mcp.Tool {
	return mcp.NewTool("add_product",
		mcp.WithDescription(
			"Create a new product. Names are unique; a duplicate name fails with ValidationError.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Product name, unique among all products (case-sensitive)"),
		),
		mcp.WithString("description",
			mcp.Description("Optional free-text description"),
		),
		mcp.WithNumber("inventory",
			mcp.Description("Initial stock level, must be >= 0 (default: 0)"),
		),
		mcp.WithNumber("price",
			mcp.Description("Unit price, must be >= 0 (default: 0)"),
		),
	)
}

// Handle processes the add_product tool call.
func (t *AddProductTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	price := decimal.Zero
	if v, ok := floatArg(req, "price", 0); ok {
		price = decimal.NewFromFloat(v)
	}

	product, err := t.store.AddProduct(ctx, inventory.AddProductParams{
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		Inventory:   intArg(req, "inventory", 0),
		Price:       price,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(product), nil
}
