package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/promptlab/internal/logging"
)

// Tool names the knowledge server is expected to expose.
const (
	IngestTool = "cognify"
	SearchTool = "search"
)

func (c *Client) discoverTools(ctx context.Context) error {
	res, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return err
	}
	for _, tool := range res.Tools {
		c.tools[strings.ToLower(tool.Name)] = tool
	}
	return nil
}

// HasTool reports whether the server advertised name during the handshake.
func (c *Client) HasTool(name string) bool {
	_, ok := c.tools[strings.ToLower(name)]
	return ok
}

// Ingest sends the knowledge text to the ingest tool.
func (c *Client) Ingest(ctx context.Context, text string) (string, error) {
	return c.callTool(ctx, IngestTool, map[string]any{"data": text})
}

// Search runs one query through the search tool.
func (c *Client) Search(ctx context.Context, query, searchType string) (string, error) {
	return c.callTool(ctx, SearchTool, map[string]any{
		"search_query": query,
		"search_type":  searchType,
	})
}

// callTool invokes a tool and joins the text parts of its content.
func (c *Client) callTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if c.session == nil {
		return "", fmt.Errorf("mcp %s: client closed", name)
	}
	if len(c.tools) > 0 && !c.HasTool(name) {
		return "", fmt.Errorf("mcp server does not provide tool %q", name)
	}
	logging.LogRequest("PROMPTLAB->MCP", c.host, "", name, args)

	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("mcp %s: %w", name, err)
	}

	var parts []string
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok && text.Text != "" {
			parts = append(parts, text.Text)
		}
	}
	reply := strings.Join(parts, "\n")
	logging.LogRequest("MCP->PROMPTLAB", c.host, "", name, reply)

	if res.IsError {
		if reply == "" {
			reply = "tool reported an error"
		}
		return "", fmt.Errorf("mcp %s: %s", name, reply)
	}
	return reply, nil
}
