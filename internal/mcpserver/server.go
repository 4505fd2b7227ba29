// Package mcpserver implements the built-in calculator-and-utilities MCP
// server. It speaks line-delimited JSON-RPC 2.0 over any reader/writer pair,
// usually the stdio of a "moonjelly mcp" subprocess.
package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const protocolVersion = "2024-11-05"

// Handler executes one tool invocation. A returned error becomes an
// isError tool result on the wire.
type Handler func(args map[string]any) (string, error)

// toolDef pairs a tool's advertised schema with its handler.
type toolDef struct {
	name        string
	description string
	inputSchema map[string]any
	handler     Handler
}

// Server serves MCP requests for a fixed set of tools.
type Server struct {
	name  string
	tools []toolDef

	wmu sync.Mutex // serialises writes to the transport
}

// New returns a Server exposing the built-in calculator and weather tools.
func New() *Server {
	s := &Server{name: "moonjelly-calculator"}
	s.tools = builtinTools()
	return s
}

// Serve reads requests from r and writes responses to w until r is exhausted
// or ctx is cancelled. Notifications get no response.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			slog.Warn("mcpserver: skipping malformed request", "err", err)
			continue
		}
		if req.ID == nil {
			continue // notification, nothing to answer
		}

		resp := s.handle(req)
		if err := s.write(w, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handle(req request) response {
	switch req.Method {
	case "initialize":
		return s.ok(req, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": s.name, "version": "1.0"},
		})

	case "tools/list":
		defs := make([]map[string]any, 0, len(s.tools))
		for _, t := range s.tools {
			defs = append(defs, map[string]any{
				"name":        t.name,
				"description": t.description,
				"inputSchema": t.inputSchema,
			})
		}
		return s.ok(req, map[string]any{"tools": defs})

	case "tools/call":
		return s.callTool(req)

	default:
		return response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: -32601, Message: "method not found: " + req.Method},
		}
	}
}

func (s *Server) callTool(req request) response {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: -32602, Message: "invalid params: " + err.Error()},
		}
	}

	for _, t := range s.tools {
		if t.name != params.Name {
			continue
		}
		out, err := t.handler(params.Arguments)
		if err != nil {
			return s.ok(req, toolResult("Error: "+err.Error(), true))
		}
		return s.ok(req, toolResult(out, false))
	}

	return response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Error:   &rpcError{Code: -32602, Message: "unknown tool: " + params.Name},
	}
}

func toolResult(text string, isError bool) map[string]any {
	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
		"isError": isError,
	}
}

func (s *Server) ok(req request, result any) response {
	return response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func (s *Server) write(w io.Writer, resp response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
