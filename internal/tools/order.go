package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
)

// OrderProductTool handles the order_product MCP tool.
type OrderProductTool struct {
	store *inventory.Store
}

// NewOrderProductTool creates an OrderProductTool.
func NewOrderProductTool(store *inventory.Store) *OrderProductTool {
	return &OrderProductTool{store: store}
}

// Definition returns the MCP tool definition for order_product.
func (t *OrderProductTool) Definition() mcp.Tool {
	return mcp.NewTool("order_product",
		mcp.WithDescription(
			"Place an order: atomically checks stock, decrements the product's "+
				"inventory and records the order. Fails with "+
				"InsufficientInventoryError when the quantity exceeds current stock.",
		),
		mcp.WithNumber("product_id",
			mcp.Required(),
			mcp.Description("Identifier of the product to order"),
		),
		mcp.WithNumber("quantity",
			mcp.Required(),
			mcp.Description("Units to order, must be > 0"),
		),
		mcp.WithString("customer_identifier",
			mcp.Required(),
			mcp.Description("Opaque customer identifier recorded on the order"),
		),
	)
}

// Handle processes the order_product tool call.
func (t *OrderProductTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	productID := int64Arg(req, "product_id", 0)
	quantity := intArg(req, "quantity", 0)
	customerID := req.GetString("customer_identifier", "")

	order, err := t.store.PlaceOrder(ctx, productID, quantity, customerID)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(order), nil
}

// ListOrdersTool handles the get_orders_for_product MCP tool.
type ListOrdersTool struct {
	store *inventory.Store
}

// NewListOrdersTool creates a ListOrdersTool.
func NewListOrdersTool(store *inventory.Store) *ListOrdersTool {
	return &ListOrdersTool{store: store}
}

// Definition returns the MCP tool definition for get_orders_for_product.
func (t *ListOrdersTool) Definition() mcp.Tool {
	return mcp.NewTool("get_orders_for_product",
		mcp.WithDescription(
			"List the audit trail of orders for a product id. Works even after "+
				"the product itself has been removed.",
		),
		mcp.WithNumber("product_id",
			mcp.Required(),
			mcp.Description("Product identifier, possibly of a removed product"),
		),
	)
}

// Handle processes the get_orders_for_product tool call.
func (t *ListOrdersTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	productID := int64Arg(req, "product_id", 0)
	if productID <= 0 {
		return mcp.NewToolResultError("ValidationError: 'product_id' must be a positive integer"), nil
	}

	orders, err := t.store.OrdersForProduct(ctx, productID)
	if err != nil {
		return errorResult(err), nil
	}
	if orders == nil {
		orders = []inventory.Order{}
	}
	return jsonResult(orders), nil
}
