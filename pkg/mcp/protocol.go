// Package mcp supervises external tool-server processes speaking a
// line-delimited JSON-RPC protocol over their standard streams, and exposes a
// unified tool catalog and call interface across all of them.
package mcp

import "encoding/json"

const (
	jsonRPCVersion  = "2.0"
	protocolVersion = "2024-11-05"
	clientName      = "conductor"
	clientVersion   = "1.0.0"
)

// Request is an outgoing JSON-RPC request; a response with the same ID is
// expected on the server's stdout.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Notification is an outgoing fire-and-forget message: no ID, no response.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// RPCError is the error member of a response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response is a correlated reply from a tool server.
type Response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// incoming is the union shape of anything a server may write on stdout: a
// response (ID set) or an unsolicited notification (Method set, no ID).
type incoming struct {
	ID     *int64          `json:"id"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ToolDescriptor is one tool reported by a server via tools/list. The list is
// replaced wholesale on each refresh.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ToolInfo is a catalog entry: a tool descriptor plus its owning server.
type ToolInfo struct {
	Server string `json:"server"`
	ToolDescriptor
}

// ToolKey builds the flat registry key for a server/tool pair.
func ToolKey(server, tool string) string {
	return server + "_" + tool
}

// toolListResult is the payload of a tools/list response.
type toolListResult struct {
	Tools []ToolDescriptor `json:"tools"`
}
