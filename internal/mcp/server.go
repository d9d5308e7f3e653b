// Package mcp exposes a launcher session to MCP clients over stdio, with a
// search tool that ranks items and a select tool that runs one of them.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/runger/sift/internal/launcher"
	"github.com/runger/sift/internal/redact"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Session is the launcher surface the tools drive.
type Session interface {
	Search(ctx context.Context, query string) []launcher.Item
	Select(ctx context.Context, item launcher.Item) (bool, error)
	State() launcher.State
	Rearm()
}

// Capture collects text written by print actions so it can be returned to
// the client instead of corrupting the stdio transport.
type Capture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// Drain returns and clears everything written so far.
func (c *Capture) Drain() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.buf.String()
	c.buf.Reset()
	return s
}

// Options configures a Server.
type Options struct {
	Name    string
	Version string
	Logger  *slog.Logger
	Printed *Capture
}

// Server serves one launcher session. Items returned by the most recent
// search can be selected by ID.
type Server struct {
	session Session
	logger  *slog.Logger
	printed *Capture
	mcp     *server.MCPServer

	mu   sync.Mutex
	last map[string]launcher.Item
}

// ItemView is the JSON form of a ranked item.
type ItemView struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Source   string  `json:"source"`
	Layer    string  `json:"layer"`
	Score    int     `json:"score"`
	Uses     int     `json:"uses"`
	Final    float64 `json:"final"`
	Action   string  `json:"action"`

	// Destructive marks commands that need confirm=true to run.
	Destructive bool `json:"destructive,omitempty"`
}

// SelectView is the JSON result of the select tool.
type SelectView struct {
	Terminal bool   `json:"terminal"`
	Printed  string `json:"printed,omitempty"`
}

// New builds the MCP server and registers its tools.
func New(session Session, opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "sift"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		session: session,
		logger:  logger,
		printed: opts.Printed,
		last:    make(map[string]launcher.Item),
	}

	s.mcp = server.NewMCPServer(
		opts.Name,
		opts.Version,
		server.WithToolCapabilities(false),
		server.WithInstructions("sift: search launcher items from many sources and run the one you pick."),
		server.WithRecovery(),
	)
	s.mcp.AddTool(
		mcp.NewTool("search",
			mcp.WithDescription("Rank launcher items matching a query. Use an empty query to list defaults."),
			mcp.WithString("query", mcp.Description("Search text")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of items (default 20)")),
		),
		s.handleSearch,
	)
	s.mcp.AddTool(
		mcp.NewTool("select",
			mcp.WithDescription("Run the action of an item returned by the most recent search."),
			mcp.WithString("id", mcp.Description("Item id from the search results"), mcp.Required()),
			mcp.WithBoolean("confirm", mcp.Description("Required to run an item marked destructive")),
		),
		s.handleSelect,
	)
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// Serve speaks MCP over in and out until ctx is done or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	limit := req.GetInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	items := s.session.Search(ctx, query)
	if len(items) > limit {
		items = items[:limit]
	}

	// Views carry redacted ids, so selection is keyed by the view id.
	views := make([]ItemView, len(items))
	last := make(map[string]launcher.Item, len(items))
	for i, it := range items {
		v := viewOf(it)
		if _, taken := last[v.ID]; taken {
			v.ID = fmt.Sprintf("%s#%d", v.ID, i)
		}
		last[v.ID] = it
		views[i] = v
	}

	s.mu.Lock()
	s.last = last
	s.mu.Unlock()

	return jsonResult(views)
}

func (s *Server) handleSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return toolError("id is required"), nil
	}

	s.mu.Lock()
	item, ok := s.last[id]
	s.mu.Unlock()
	if !ok {
		return toolError(fmt.Sprintf("unknown item %q: run search first", id)), nil
	}
	if destructive(item) && !req.GetBool("confirm", false) {
		return toolError(fmt.Sprintf("item %q runs a destructive command: select it again with confirm=true", id)), nil
	}

	// Each tool call is its own interaction; a finished action does not end
	// the server.
	if s.session.State() == launcher.StateTerminal {
		s.session.Rearm()
	}

	done, err := s.session.Select(ctx, item)
	if err != nil {
		s.logger.Warn("mcp select failed", "item", id, "error", err)
		return toolError(fmt.Sprintf("action failed: %v", err)), nil
	}

	view := SelectView{Terminal: done}
	if s.printed != nil {
		view.Printed = redact.Secrets(s.printed.Drain())
	}
	return jsonResult(view)
}

// viewOf is the client's view of an item. Item text can come from shell
// history or the clipboard, so credentials are masked before it leaves.
func viewOf(it launcher.Item) ItemView {
	return ItemView{
		ID:          redact.Secrets(it.ID),
		Title:       redact.Secrets(it.Title),
		Subtitle:    redact.Secrets(it.Subtitle),
		Source:      it.Source,
		Layer:       it.Layer.String(),
		Score:       it.Score,
		Uses:        it.Uses,
		Final:       it.Final,
		Action:      it.Action.Kind.String(),
		Destructive: destructive(it),
	}
}

func destructive(it launcher.Item) bool {
	switch it.Action.Kind {
	case launcher.ActionRun, launcher.ActionRunInTerminal:
		return redact.Destructive(it.Action.Command)
	}
	return false
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
