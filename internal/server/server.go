// Package server wires all components and creates the MCP server
// instance.
//
// This is the composition root: it creates concrete implementations
// (supervisor, repository, health reporter, metrics) and injects them
// into the tool handlers. No business logic lives here — only wiring.
package server

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/config"
	"github.com/rh-ai-quickstart/inventory-mcp/internal/healthz"
	"github.com/rh-ai-quickstart/inventory-mcp/internal/inventory"
	"github.com/rh-ai-quickstart/inventory-mcp/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App bundles the long-running pieces main has to drive: the MCP
// server, the connection supervisor's run loop and the optional health
// sidecar (nil when disabled).
type App struct {
	MCP        *server.MCPServer
	Supervisor *inventory.Supervisor
	Health     *healthz.Server
}

// New creates and wires the application. The supervisor starts in the
// Disconnected state; the process comes up and serves health_check even
// when the database is unreachable, and data tools fail fast with
// DatabaseUnavailableError until the supervisor reaches Connected.
func New(cfg config.Config, log *slog.Logger) *App {
	registry := prometheus.NewRegistry()
	metrics := inventory.NewMetrics(registry)

	sup := inventory.NewSupervisor(inventory.SupervisorConfig{
		Driver:         cfg.DBDriver,
		DSN:            cfg.DBDSN,
		MaxOpenConns:   cfg.MaxOpenConns,
		MaxIdleConns:   cfg.MaxIdleConns,
		AcquireTimeout: cfg.AcquireTimeout,
		ConnectTimeout: cfg.ConnectTimeout,
		BackoffBase:    cfg.BackoffBase,
		BackoffMax:     cfg.BackoffMax,
		Logger:         log,
		Metrics:        metrics,
	})

	store := inventory.NewStore(sup, inventory.StoreConfig{
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
		Logger:          log,
		Metrics:         metrics,
	})

	reporter := inventory.NewHealthReporter(sup)

	s := server.NewMCPServer(
		"inventory-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerTools(s, store, reporter)

	app := &App{MCP: s, Supervisor: sup}
	if cfg.HealthAddr != "" {
		app.Health = healthz.New(cfg.HealthAddr, reporter, registry, log)
	}
	return app
}

// registerTools registers all inventory MCP tools with the server.
func registerTools(s *server.MCPServer, store *inventory.Store, reporter *inventory.HealthReporter) {
	// --- Product reads ---
	list := tools.NewListProductsTool(store)
	s.AddTool(list.Definition(), list.Handle)

	byID := tools.NewGetProductTool(store)
	s.AddTool(byID.Definition(), byID.Handle)

	byName := tools.NewGetProductByNameTool(store)
	s.AddTool(byName.Definition(), byName.Handle)

	search := tools.NewSearchProductsTool(store)
	s.AddTool(search.Definition(), search.Handle)

	// --- Product writes ---
	add := tools.NewAddProductTool(store)
	s.AddTool(add.Definition(), add.Handle)

	remove := tools.NewRemoveProductTool(store)
	s.AddTool(remove.Definition(), remove.Handle)

	stock := tools.NewUpdateInventoryTool(store)
	s.AddTool(stock.Definition(), stock.Handle)

	// --- Orders ---
	order := tools.NewOrderProductTool(store)
	s.AddTool(order.Definition(), order.Handle)

	orders := tools.NewListOrdersTool(store)
	s.AddTool(orders.Definition(), orders.Handle)

	// --- Health ---
	health := tools.NewHealthCheckTool(reporter)
	s.AddTool(health.Definition(), health.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use the inventory tools effectively.
func serverInstructions() string {
	return `You have access to an inventory store through these tools.

## Reading
- get_products / search_products page through the catalog (skip, limit).
- get_product_by_id / get_product_by_name fetch a single product.
- get_orders_for_product lists the order history for a product id,
  including products that were removed later.

## Writing
- add_product creates a product; names are unique.
- update_inventory adjusts stock by a delta.
- order_product places an order and decrements stock atomically.
- remove_product deletes a product (its orders are kept for audit).

## Errors
Every failure starts with a stable tag. DatabaseUnavailableError means
the backing store is temporarily unreachable — retry the same call
after a short wait. ValidationError, NotFoundError and
InsufficientInventoryError will not succeed on retry; fix the input or
report the situation instead. Use health_check to see the database
connection state at any time; the service itself is up as long as it
answers.`
}
