package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/everydev1618/vegadock/tools"
)

// maxMessageSize bounds a single newline-delimited message.
const maxMessageSize = 16 << 20

// Registry is the tool table served over MCP. *tools.Tools satisfies it.
type Registry interface {
	Schema() []tools.Schema
	Invoke(ctx context.Context, name string, params map[string]any) (tools.Result, error)
}

// Server answers MCP requests read from one stream and writes responses to
// another. Each request is handled on its own goroutine; writes are
// serialised.
type Server struct {
	info  Implementation
	tools Registry

	mu sync.Mutex
	w  io.Writer
	wg sync.WaitGroup
}

// NewServer creates a server that identifies itself as name/version.
func NewServer(name, version string, reg Registry) *Server {
	return &Server{
		info:  Implementation{Name: name, Version: version},
		tools: reg,
	}
}

// Serve reads newline-delimited JSON-RPC messages from r until EOF or until
// ctx is done, and waits for in-flight requests before returning.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.w = w

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxMessageSize)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- append([]byte(nil), line...):
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	defer s.wg.Wait()
	for {
		select {
		case msg, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read: %w", err)
					}
				default:
				}
				return nil
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handle(ctx, msg)
			}()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Server) handle(ctx context.Context, msg []byte) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		slog.Debug("mcp: malformed message", "error", err)
		s.writeError(nil, ErrCodeParse, "parse error: "+err.Error())
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		if !req.IsNotification() {
			s.writeError(req.ID, ErrCodeInvalidRequest, "invalid request")
		}
		return
	}

	if req.IsNotification() {
		slog.Debug("mcp: notification", "method", req.Method)
		return
	}

	slog.Debug("mcp: request", "method", req.Method, "id", string(req.ID))
	result, rpcErr := s.dispatch(ctx, &req)
	if rpcErr != nil {
		s.write(Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
		return
	}
	s.write(Response{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		var params InitializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "invalid initialize params: " + err.Error()}
			}
		}
		slog.Info("mcp client connected",
			"client", params.ClientInfo.Name,
			"client_version", params.ClientInfo.Version,
			"protocol", params.ProtocolVersion)
		return InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      s.info,
			Capabilities:    Capabilities{Tools: &ToolsCapability{}},
		}, nil

	case "ping":
		return struct{}{}, nil

	case "tools/list":
		schemas := s.tools.Schema()
		list := ToolsListResult{Tools: make([]Tool, 0, len(schemas))}
		for _, sc := range schemas {
			list.Tools = append(list.Tools, Tool{
				Name:        sc.Name,
				Description: sc.Description,
				InputSchema: sc.InputSchema,
			})
		}
		return list, nil

	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "tools/call requires a tool name"}
		}
		res, err := s.tools.Invoke(ctx, params.Name, params.Arguments)
		if err != nil {
			if errors.Is(err, tools.ErrToolNotFound) {
				return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "unknown tool: " + params.Name}
			}
			return nil, &RPCError{Code: ErrCodeInternal, Message: err.Error()}
		}
		return ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: res.Text}},
			IsError: res.IsError,
		}, nil

	default:
		return nil, &RPCError{Code: ErrCodeMethodNotFound, Message: "method not found: " + req.Method}
	}
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	s.write(Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}})
}

func (s *Server) write(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("mcp: encode response", "error", err)
		data, _ = json.Marshal(Response{
			JSONRPC: "2.0",
			ID:      resp.ID,
			Error:   &RPCError{Code: ErrCodeInternal, Message: "encode response: " + err.Error()},
		})
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		slog.Error("mcp: write response", "error", err)
	}
}
