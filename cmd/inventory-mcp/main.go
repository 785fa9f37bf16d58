// inventory-mcp: resilient inventory MCP server
//
// An MCP server exposing product and order CRUD tools to AI agents over
// stdio, backed by a relational store that may be intermittently
// unavailable. The process starts and keeps answering health_check even
// while the database is down; data tools fail fast with typed errors
// until the connection supervisor reconnects.
//
// Usage:
//
//	inventory-mcp serve      # Start MCP server (stdio transport)
//	inventory-mcp version    # Print version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/mcp-go/server"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/config"
	"github.com/rh-ai-quickstart/inventory-mcp/internal/obs"
	invserver "github.com/rh-ai-quickstart/inventory-mcp/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("inventory-mcp v%s\n", invserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	log := obs.NewLogger()

	app := invserver.New(cfg, log)

	// Graceful shutdown on interrupt: cancelling the context stops the
	// supervisor mid-backoff instead of waiting the interval out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Supervisor.Run(ctx)
	})

	if app.Health != nil {
		g.Go(func() error {
			return app.Health.Run(ctx)
		})
	}

	g.Go(func() error {
		stdio := server.NewStdioServer(app.MCP)
		err := stdio.Listen(ctx, os.Stdin, os.Stdout)
		// stdin closing is the normal way an MCP host ends the session.
		stop()
		return err
	})

	log.Info("inventory-mcp started", "version", invserver.Version)
	return g.Wait()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `inventory-mcp v%s — resilient inventory MCP server

Usage:
  inventory-mcp serve      Start the MCP server (stdio transport)
  inventory-mcp version    Print version

Configuration (environment):
  DB_DRIVER                Database driver (default: sqlite)
  DB_DSN                   DSN; defaults to ~/.inventory-mcp/inventory.db
  DB_ACQUIRE_TIMEOUT_MS    Pool acquire timeout (default: 2000)
  DB_BACKOFF_BASE_MS       Reconnect backoff base (default: 1000)
  DB_BACKOFF_MAX_MS        Reconnect backoff cap (default: 60000)
  HEALTH_ADDR              Optional HTTP liveness/metrics listener, e.g. :8081

MCP config:

  {
    "mcpServers": {
      "inventory": {
        "command": "inventory-mcp",
        "args": ["serve"]
      }
    }
  }
`, invserver.Version)
}
