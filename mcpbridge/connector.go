// Package mcpbridge exposes the row store's operations to an LLM agent as
// MCP tools served by a companion subprocess, and runs the agent's tool-use
// loop against them.
package mcpbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"college_pathfinder/config"
	"college_pathfinder/logger"
)

// toolSession is the slice of an MCP client the connector needs. Tests
// substitute a fake; production sessions wrap a stdio client.
type toolSession interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
	Close() error
}

type stdioSession struct {
	client *client.Client
}

func (s *stdioSession) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	result, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return result.Tools, nil
}

func (s *stdioSession) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return s.client.CallTool(ctx, req)
}

func (s *stdioSession) Close() error {
	return s.client.Close()
}

// ToolResult is the normalized output of one tool call: the concatenated
// text content, plus its decoded form when the text parses as JSON.
type ToolResult struct {
	Text       string
	Structured any
}

// ToolArgument describes one argument of a tool, for introspection.
type ToolArgument struct {
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// ToolInfo is the human-friendly view of one tool.
type ToolInfo struct {
	Usage     string                  `json:"usage"`
	Arguments map[string]ToolArgument `json:"arguments"`
}

// Connector owns the MCP session to the tool server subprocess. With
// session reuse enabled one subprocess serves every call, serialized
// through a mutex; a transport failure triggers exactly one session reset
// and retry. With reuse disabled a fresh subprocess is started per call
// and failures propagate immediately.
type Connector struct {
	command      string
	args         []string
	reuseSession bool
	callTimeout  time.Duration

	mu      sync.Mutex
	session toolSession

	// newSession is swappable in tests.
	newSession func(ctx context.Context) (toolSession, error)
}

// NewConnector builds a connector from configuration. The subprocess is not
// started until the first call.
func NewConnector(cfg *config.Config) *Connector {
	c := &Connector{
		command:      cfg.MCP.Command,
		args:         cfg.MCP.Args,
		reuseSession: cfg.MCP.ReuseSession,
		callTimeout:  time.Duration(cfg.MCP.CallTimeoutSec) * time.Second,
	}
	c.newSession = c.startStdioSession
	return c
}

// subprocessEnv forwards only the allow-listed variables to the tool server.
func subprocessEnv() []string {
	keys := []string{"SUPABASE_URL", "SUPABASE_KEY", "GEMINI_API_KEY"}
	var env []string
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			env = append(env, key+"="+value)
		}
	}
	return env
}

func (c *Connector) startStdioSession(ctx context.Context) (toolSession, error) {
	mcpClient, err := client.NewStdioMCPClient(c.command, subprocessEnv(), c.args...)
	if err != nil {
		return nil, fmt.Errorf("start tool server: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "college-pathfinder",
		Version: "1.0.0",
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("initialize tool session: %w", err)
	}

	return &stdioSession{client: mcpClient}, nil
}

func (c *Connector) ensureSession(ctx context.Context) (toolSession, error) {
	if c.session != nil {
		return c.session, nil
	}
	session, err := c.newSession(ctx)
	if err != nil {
		return nil, err
	}
	c.session = session
	return session, nil
}

func (c *Connector) resetLocked() {
	if c.session != nil {
		if err := c.session.Close(); err != nil {
			logger.Warn("Closing tool session failed", "error", err)
		}
		c.session = nil
	}
}

// Reset closes the shared session so the next call starts a fresh one.
func (c *Connector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Close releases the shared session and its subprocess.
func (c *Connector) Close() {
	c.Reset()
}

// withSession runs fn against a session. On a reused session a failure
// resets the session and retries once; a second failure propagates.
func (c *Connector) withSession(ctx context.Context, fn func(toolSession) error) error {
	if !c.reuseSession {
		session, err := c.newSession(ctx)
		if err != nil {
			return err
		}
		defer session.Close()
		return fn(session)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.ensureSession(ctx)
	if err != nil {
		return err
	}

	err = fn(session)
	if err == nil {
		return nil
	}
	logger.Warn("Tool session call failed, restarting session", "error", err)

	c.resetLocked()
	session, err = c.ensureSession(ctx)
	if err != nil {
		return err
	}
	return fn(session)
}

func (c *Connector) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

// ListTools fetches the raw tool catalog from the tool server.
func (c *Connector) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	var tools []mcp.Tool
	err := c.withSession(ctx, func(session toolSession) error {
		listed, err := session.ListTools(ctx)
		if err != nil {
			return err
		}
		tools = listed
		return nil
	})
	return tools, err
}

// DescribeTools returns the catalog keyed by tool name with argument types,
// requiredness and descriptions spelled out.
func (c *Connector) DescribeTools(ctx context.Context) (map[string]ToolInfo, error) {
	tools, err := c.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	catalog := make(map[string]ToolInfo, len(tools))
	for _, tool := range tools {
		required := make(map[string]bool, len(tool.InputSchema.Required))
		for _, name := range tool.InputSchema.Required {
			required[name] = true
		}

		arguments := map[string]ToolArgument{}
		for argName, rawSchema := range tool.InputSchema.Properties {
			argType := "any"
			description := ""
			if schema, ok := rawSchema.(map[string]any); ok {
				if t, ok := schema["type"].(string); ok {
					argType = t
				}
				if d, ok := schema["description"].(string); ok {
					description = d
				}
			}
			arguments[argName] = ToolArgument{
				Type:        argType,
				Required:    required[argName],
				Description: description,
			}
		}

		usage := tool.Description
		if usage == "" {
			usage = tool.Name
		}
		catalog[tool.Name] = ToolInfo{Usage: usage, Arguments: arguments}
	}
	return catalog, nil
}

// CallTool invokes one tool by name. A tool that reports an error surfaces
// as a Go error carrying the tool's message.
func (c *Connector) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	var result *ToolResult
	err := c.withSession(ctx, func(session toolSession) error {
		raw, err := session.CallTool(ctx, name, args)
		if err != nil {
			return err
		}
		normalized, err := normalizeResult(name, raw)
		if err != nil {
			return err
		}
		result = normalized
		return nil
	})
	return result, err
}

func normalizeResult(name string, raw *mcp.CallToolResult) (*ToolResult, error) {
	var texts []string
	for _, item := range raw.Content {
		if text, ok := mcp.AsTextContent(item); ok {
			texts = append(texts, text.Text)
		}
	}
	joined := strings.Join(texts, "\n")

	if raw.IsError {
		return nil, fmt.Errorf("tool %q returned an error: %s", name, joined)
	}

	result := &ToolResult{Text: joined}
	if joined != "" {
		var decoded any
		if err := json.Unmarshal([]byte(joined), &decoded); err == nil {
			result.Structured = decoded
		}
	}
	return result, nil
}

// FormatResult renders a tool result for inclusion in an agent transcript.
func FormatResult(result *ToolResult) string {
	if result == nil {
		return ""
	}
	if result.Text != "" {
		return result.Text
	}
	if result.Structured != nil {
		if data, err := json.MarshalIndent(result.Structured, "", "  "); err == nil {
			return string(data)
		}
	}
	return ""
}
