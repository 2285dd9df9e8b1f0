// Package mcp implements a minimal Model Context Protocol client for a
// tool server spawned as a local subprocess and spoken to over stdio
// with line-delimited JSON-RPC 2.0.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	protocolVersion = "2024-11-05"
	requestTimeout  = 30 * time.Second
)

// JSON-RPC messages
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      interface{} `json:"id,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      interface{}     `json:"id"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ToolDefinition describes a tool exposed by the server
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Client talks to an MCP server subprocess. The tool list is fetched once
// after the initialize handshake and reused for the life of the process.
type Client struct {
	name    string
	command string
	args    []string

	mu      sync.Mutex
	process *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Scanner
	id      int
	pending map[int]chan *rpcResponse

	tools []ToolDefinition
}

// NewClient creates a client for the server launched as `command args...`
func NewClient(name, command string, args ...string) *Client {
	return &Client{
		name:    name,
		command: command,
		args:    args,
		pending: make(map[int]chan *rpcResponse),
	}
}

// Start launches the subprocess, performs the initialize handshake and
// caches the tool list. Readiness is signalled only once the tool list
// has been obtained; any failure here is fatal to startup.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.process != nil {
		c.mu.Unlock()
		return nil
	}

	cmd := exec.Command(c.command, c.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to start %s %v: %w", c.command, c.args, err)
	}

	c.process = cmd
	c.attachLocked(stdin, stdout)
	c.mu.Unlock()

	log.Info().
		Str("server", c.name).
		Str("command", c.command).
		Strs("args", c.args).
		Msg("MCP server started")

	if err := c.initialize(ctx); err != nil {
		c.Stop()
		return fmt.Errorf("initialize handshake failed: %w", err)
	}

	if err := c.fetchTools(ctx); err != nil {
		c.Stop()
		return fmt.Errorf("failed to list tools: %w", err)
	}

	return nil
}

// attachLocked wires the transport and starts the response listener.
// Callers must hold c.mu. Split out so tests can drive the client over
// in-memory pipes without a subprocess.
func (c *Client) attachLocked(stdin io.WriteCloser, stdout io.Reader) {
	c.stdin = stdin
	c.stdout = bufio.NewScanner(stdout)
	c.stdout.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	go c.listen()
}

func (c *Client) listen() {
	for c.stdout.Scan() {
		line := c.stdout.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp rpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			log.Error().Err(err).Str("server", c.name).Msg("Failed to unmarshal MCP response")
			continue
		}

		id, ok := resp.ID.(float64)
		if !ok {
			// Notification or malformed id, nothing waits on it
			continue
		}

		c.mu.Lock()
		ch, exists := c.pending[int(id)]
		if exists {
			delete(c.pending, int(id))
		}
		c.mu.Unlock()

		if exists {
			ch <- &resp
		}
	}
}

func (c *Client) initialize(ctx context.Context) error {
	params := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo": map[string]interface{}{
			"name":    "ordina",
			"version": "0.1.0",
		},
	}
	if _, err := c.call(ctx, "initialize", params); err != nil {
		return err
	}

	return c.notify("notifications/initialized", nil)
}

func (c *Client) call(ctx context.Context, method string, params interface{}) (*rpcResponse, error) {
	c.mu.Lock()
	if c.stdin == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("mcp client is not started")
	}
	c.id++
	id := c.id
	ch := make(chan *rpcResponse, 1)
	c.pending[id] = ch
	stdin := c.stdin
	c.mu.Unlock()

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      id,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	if _, err := stdin.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, fmt.Errorf("mcp error (%d): %s", resp.Error.Code, resp.Error.Message)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(requestTimeout):
		return nil, fmt.Errorf("mcp request timeout for %s", method)
	}
}

func (c *Client) notify(method string, params interface{}) error {
	c.mu.Lock()
	stdin := c.stdin
	c.mu.Unlock()

	if stdin == nil {
		return fmt.Errorf("mcp client is not started")
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	_, err = stdin.Write(append(data, '\n'))
	return err
}

func (c *Client) fetchTools(ctx context.Context) error {
	resp, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return err
	}

	var listResult struct {
		Tools []ToolDefinition `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &listResult); err != nil {
		return fmt.Errorf("failed to decode tool list: %w", err)
	}

	c.mu.Lock()
	c.tools = listResult.Tools
	c.mu.Unlock()

	log.Info().
		Str("server", c.name).
		Int("tool_count", len(listResult.Tools)).
		Msg("MCP tool list cached")

	return nil
}

// Tools returns the cached tool definitions
func (c *Client) Tools() []ToolDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()

	tools := make([]ToolDefinition, len(c.tools))
	copy(tools, c.tools)
	return tools
}

// CallTool invokes a tool by name. Arguments are validated against the
// tool's declared input schema before the call is forwarded; a schema
// violation is reported without touching the server.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	tool, ok := c.lookupTool(name)
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	if err := ValidateArguments(tool.InputSchema, args); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
	}

	resp, err := c.call(ctx, "tools/call", map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return "", fmt.Errorf("failed to decode tool result: %w", err)
	}

	text := ""
	for _, content := range result.Content {
		if content.Type == "text" {
			if text != "" {
				text += "\n"
			}
			text += content.Text
		}
	}

	if result.IsError {
		return "", fmt.Errorf("tool %s failed: %s", name, text)
	}

	return text, nil
}

func (c *Client) lookupTool(name string) (ToolDefinition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tool := range c.tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return ToolDefinition{}, false
}

// Name returns the server's display name
func (c *Client) Name() string {
	return c.name
}

// Stop terminates the subprocess. Safe to call on a client that never
// started or already stopped.
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stdin != nil {
		c.stdin.Close()
		c.stdin = nil
	}

	if c.process == nil {
		return nil
	}
	process := c.process
	c.process = nil

	if process.Process != nil {
		if err := process.Process.Kill(); err != nil {
			return err
		}
	}
	_ = process.Wait()

	log.Info().Str("server", c.name).Msg("MCP server stopped")

	return nil
}
