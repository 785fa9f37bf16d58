package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/config"
	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

// newTestEnv brings up a connected store and health reporter over a
// temp-dir database.
func newTestEnv(t *testing.T) (*inventory.Store, *inventory.HealthReporter) {
	t.Helper()

	dsn := config.SQLiteDSN(filepath.Join(t.TempDir(), "inventory.db"))
	sup := inventory.NewSupervisor(inventory.SupervisorConfig{
		Driver:         "sqlite",
		DSN:            dsn,
		AcquireTimeout: 2 * time.Second,
		BackoffBase:    10 * time.Millisecond,
		BackoffMax:     100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(5 * time.Second)
	for !sup.Available() {
		if time.Now().After(deadline) {
			t.Fatal("supervisor did not reach Connected")
		}
		time.Sleep(10 * time.Millisecond)
	}

	return inventory.NewStore(sup, inventory.StoreConfig{}), inventory.NewHealthReporter(sup)
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// addWidget seeds one product through the add_product tool and returns
// the raw JSON result.
func addWidget(t *testing.T, store *inventory.Store, inventoryLevel int) string {
	t.Helper()
	add := NewAddProductTool(store)
	res, err := add.Handle(context.Background(), makeReq(map[string]interface{}{
		"name":        "Widget",
		"description": "a widget",
		"inventory":   float64(inventoryLevel),
		"price":       9.99,
	}))
	if err != nil {
		t.Fatalf("add_product returned protocol error: %v", err)
	}
	if res.IsError {
		t.Fatalf("add_product failed: %s", resultText(res))
	}
	return resultText(res)
}

// ─── Definitions ─────────────────────────────────────────────────────────────

func TestToolDefinitions(t *testing.T) {
	store, reporter := newTestEnv(t)

	cases := []struct {
		def      mcp.Tool
		required []string
	}{
		{NewListProductsTool(store).Definition(), nil},
		{NewSearchProductsTool(store).Definition(), []string{"query"}},
		{NewGetProductTool(store).Definition(), []string{"id"}},
		{NewGetProductByNameTool(store).Definition(), []string{"name"}},
		{NewAddProductTool(store).Definition(), []string{"name"}},
		{NewRemoveProductTool(store).Definition(), []string{"id"}},
		{NewUpdateInventoryTool(store).Definition(), []string{"id", "delta"}},
		{NewOrderProductTool(store).Definition(), []string{"product_id", "quantity", "customer_identifier"}},
		{NewListOrdersTool(store).Definition(), []string{"product_id"}},
		{NewHealthCheckTool(reporter).Definition(), nil},
	}

	names := map[string]bool{}
	for _, tc := range cases {
		if tc.def.Name == "" {
			t.Fatal("tool with empty name")
		}
		if names[tc.def.Name] {
			t.Errorf("duplicate tool name %q", tc.def.Name)
		}
		names[tc.def.Name] = true

		if tc.def.Description == "" {
			t.Errorf("%s: missing description", tc.def.Name)
		}
		for _, want := range tc.required {
			if _, ok := tc.def.InputSchema.Properties[want]; !ok {
				t.Errorf("%s: missing %q parameter", tc.def.Name, want)
			}
			found := false
			for _, r := range tc.def.InputSchema.Required {
				if r == want {
					found = true
				}
			}
			if !found {
				t.Errorf("%s: %q should be required", tc.def.Name, want)
			}
		}
	}

	for _, want := range []string{
		"get_products", "search_products", "get_product_by_id", "get_product_by_name",
		"add_product", "remove_product", "update_inventory",
		"order_product", "get_orders_for_product", "health_check",
	} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}

// ─── Product tools ───────────────────────────────────────────────────────────

func TestAddAndGetProductTools(t *testing.T) {
	store, _ := newTestEnv(t)
	ctx := context.Background()

	out := addWidget(t, store, 10)
	if !strings.Contains(out, `"name": "Widget"`) {
		t.Errorf("add_product output missing name: %s", out)
	}

	get := NewGetProductTool(store)
	res, err := get.Handle(ctx, makeReq(map[string]interface{}{"id": float64(1)}))
	if err != nil {
		t.Fatalf("get_product_by_id: %v", err)
	}
	if res.IsError {
		t.Fatalf("get_product_by_id failed: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), `"inventory": 10`) {
		t.Errorf("unexpected product payload: %s", resultText(res))
	}

	byName := NewGetProductByNameTool(store)
	res, err = byName.Handle(ctx, makeReq(map[string]interface{}{"name": "Widget"}))
	if err != nil {
		t.Fatalf("get_product_by_name: %v", err)
	}
	if res.IsError {
		t.Fatalf("get_product_by_name failed: %s", resultText(res))
	}
}

func TestGetProductToolValidation(t *testing.T) {
	store, _ := newTestEnv(t)
	get := NewGetProductTool(store)

	for name, args := range map[string]map[string]interface{}{
		"missing id":  {},
		"zero id":     {"id": float64(0)},
		"negative id": {"id": float64(-3)},
	} {
		res, err := get.Handle(context.Background(), makeReq(args))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !res.IsError {
			t.Errorf("%s: expected error result", name)
		}
		if !strings.HasPrefix(resultText(res), "ValidationError:") {
			t.Errorf("%s: expected ValidationError tag, got %s", name, resultText(res))
		}
	}
}

func TestGetProductToolNotFound(t *testing.T) {
	store, _ := newTestEnv(t)

	res, err := NewGetProductTool(store).Handle(context.Background(),
		makeReq(map[string]interface{}{"id": float64(42)}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if !strings.HasPrefix(resultText(res), "NotFoundError:") {
		t.Errorf("expected NotFoundError tag, got %s", resultText(res))
	}
}

func TestListProductsToolEmptyIsArray(t *testing.T) {
	store, _ := newTestEnv(t)

	res, err := NewListProductsTool(store).Handle(context.Background(), makeReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("get_products failed: %s", resultText(res))
	}
	if strings.TrimSpace(resultText(res)) != "[]" {
		t.Errorf("empty catalog should render as [], got %s", resultText(res))
	}
}

func TestSearchProductsTool(t *testing.T) {
	store, _ := newTestEnv(t)
	addWidget(t, store, 1)

	res, err := NewSearchProductsTool(store).Handle(context.Background(),
		makeReq(map[string]interface{}{"query": "WIDG"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("search_products failed: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), `"name": "Widget"`) {
		t.Errorf("case-insensitive search missed the product: %s", resultText(res))
	}
}

func TestRemoveProductTool(t *testing.T) {
	store, _ := newTestEnv(t)
	addWidget(t, store, 1)
	ctx := context.Background()

	remove := NewRemoveProductTool(store)
	res, err := remove.Handle(ctx, makeReq(map[string]interface{}{"id": float64(1)}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("remove_product failed: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), `"name": "Widget"`) {
		t.Errorf("remove_product should echo the deleted record: %s", resultText(res))
	}

	res, err = remove.Handle(ctx, makeReq(map[string]interface{}{"id": float64(1)}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resultText(res), "NotFoundError:") {
		t.Errorf("second removal should be NotFoundError, got %s", resultText(res))
	}
}

func TestUpdateInventoryTool(t *testing.T) {
	store, _ := newTestEnv(t)
	addWidget(t, store, 5)
	ctx := context.Background()

	stock := NewUpdateInventoryTool(store)
	res, err := stock.Handle(ctx, makeReq(map[string]interface{}{
		"id": float64(1), "delta": float64(-2),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("update_inventory failed: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), `"inventory": 3`) {
		t.Errorf("unexpected inventory after delta: %s", resultText(res))
	}

	// Going below zero is rejected.
	res, err = stock.Handle(ctx, makeReq(map[string]interface{}{
		"id": float64(1), "delta": float64(-10),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resultText(res), "ValidationError:") {
		t.Errorf("expected ValidationError tag, got %s", resultText(res))
	}
}

// ─── Order tools ─────────────────────────────────────────────────────────────

func TestOrderProductTool(t *testing.T) {
	store, _ := newTestEnv(t)
	addWidget(t, store, 10)
	ctx := context.Background()

	order := NewOrderProductTool(store)
	res, err := order.Handle(ctx, makeReq(map[string]interface{}{
		"product_id":          float64(1),
		"quantity":            float64(3),
		"customer_identifier": "cust-a",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("order_product failed: %s", resultText(res))
	}
	out := resultText(res)
	if !strings.Contains(out, `"quantity": 3`) || !strings.Contains(out, `"customer_id": "cust-a"`) {
		t.Errorf("unexpected order payload: %s", out)
	}

	// Over-ordering the remaining 7 units.
	res, err = order.Handle(ctx, makeReq(map[string]interface{}{
		"product_id":          float64(1),
		"quantity":            float64(8),
		"customer_identifier": "cust-b",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if !strings.HasPrefix(resultText(res), "InsufficientInventoryError:") {
		t.Errorf("expected InsufficientInventoryError tag, got %s", resultText(res))
	}

	// Stock is unchanged by the failed attempt.
	check, err := NewGetProductTool(store).Handle(ctx, makeReq(map[string]interface{}{"id": float64(1)}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(check), `"inventory": 7`) {
		t.Errorf("inventory should still be 7: %s", resultText(check))
	}
}

func TestOrderProductToolValidation(t *testing.T) {
	store, _ := newTestEnv(t)
	addWidget(t, store, 10)

	order := NewOrderProductTool(store)
	for name, args := range map[string]map[string]interface{}{
		"zero quantity": {
			"product_id": float64(1), "quantity": float64(0), "customer_identifier": "c",
		},
		"negative quantity": {
			"product_id": float64(1), "quantity": float64(-1), "customer_identifier": "c",
		},
		"empty customer": {
			"product_id": float64(1), "quantity": float64(1), "customer_identifier": "",
		},
	} {
		res, err := order.Handle(context.Background(), makeReq(args))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !strings.HasPrefix(resultText(res), "ValidationError:") {
			t.Errorf("%s: expected ValidationError tag, got %s", name, resultText(res))
		}
	}
}

func TestListOrdersToolSurvivesRemoval(t *testing.T) {
	store, _ := newTestEnv(t)
	addWidget(t, store, 10)
	ctx := context.Background()

	res, err := NewOrderProductTool(store).Handle(ctx, makeReq(map[string]interface{}{
		"product_id":          float64(1),
		"quantity":            float64(2),
		"customer_identifier": "cust-a",
	}))
	if err != nil || res.IsError {
		t.Fatalf("order_product: err=%v result=%s", err, resultText(res))
	}

	res, err = NewRemoveProductTool(store).Handle(ctx, makeReq(map[string]interface{}{"id": float64(1)}))
	if err != nil || res.IsError {
		t.Fatalf("remove_product: err=%v result=%s", err, resultText(res))
	}

	res, err = NewListOrdersTool(store).Handle(ctx, makeReq(map[string]interface{}{
		"product_id": float64(1),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("get_orders_for_product failed: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), `"customer_id": "cust-a"`) {
		t.Errorf("order audit trail missing after product removal: %s", resultText(res))
	}
}

// ─── Health tool ─────────────────────────────────────────────────────────────

func TestHealthCheckTool(t *testing.T) {
	_, reporter := newTestEnv(t)

	res, err := NewHealthCheckTool(reporter).Handle(context.Background(), makeReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("health_check must never be an error result: %s", resultText(res))
	}

	out := resultText(res)
	for _, want := range []string{
		`"serviceStatus": "up"`,
		`"databaseStatus": "Connected"`,
		`"databaseAvailable": true`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("health payload missing %s: %s", want, out)
		}
	}
}
