// Package tools implements the MCP tool handlers of the inventory
// server.
//
// Each tool follows the same pattern:
// - A struct with dependencies (inventory.Store or HealthReporter)
//   injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Business failures are returned as tool error results carrying the
// stable kind tag (e.g. "ValidationError: ...", never as Go errors —
// those are reserved for protocol-level failures. An agent reading the
// tag can decide to retry DatabaseUnavailableError but not
// ValidationError.
package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// int64Arg extracts an int64 argument (entity identifiers).
func int64Arg(req mcp.CallToolRequest, key string, defaultVal int64) int64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int64(v)
}

// floatArg extracts a float argument.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) (float64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal, false
	}
	return v, true
}

// jsonResult renders v as an indented JSON tool result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("UnexpectedError: encoding result: " + err.Error())
	}
	return mcp.NewToolResultText(string(data))
}

// errorResult converts a typed repository error into a tool error
// result. The error string already leads with the kind tag.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}
