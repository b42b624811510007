// Package mcp talks to a knowledge-graph service exposed as an MCP server over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/logging"
)

// Client is a knowledge.Client backed by an MCP server session.
type Client struct {
	host    string
	session *mcp.ClientSession
	tools   map[string]*mcp.Tool
}

// Start launches the configured server command and performs the initialize handshake.
func Start(ctx context.Context, cfg appconfig.KnowledgeConfig) (*Client, error) {
	if len(cfg.ServerCommand) == 0 || strings.TrimSpace(cfg.ServerCommand[0]) == "" {
		return nil, errors.New("mcp knowledge client requires knowledge.server_command")
	}
	binary := cfg.ServerCommand[0]
	if _, err := exec.LookPath(binary); err != nil {
		logging.LogEvent("MCP server start aborted: %q not found", binary)
		return nil, fmt.Errorf("mcp server %q not found: %w", binary, err)
	}

	cmd := exec.Command(binary, cfg.ServerCommand[1:]...)
	cmd.Env = os.Environ()
	cmd.Stderr = os.Stderr

	initCtx, cancel := context.WithTimeout(ctx, cfg.InitTimeout())
	defer cancel()
	c, err := connect(initCtx, &mcp.CommandTransport{Command: cmd}, binary)
	if err != nil {
		return nil, err
	}
	logging.LogEvent("MCP knowledge server started: %s (%d tools)", binary, len(c.tools))
	return c, nil
}

// connect opens a session over transport and records the advertised tools.
func connect(ctx context.Context, transport mcp.Transport, host string) (*Client, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "promptlab", Version: "dev"}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp initialize: %w", err)
	}

	c := &Client{host: host, session: session, tools: map[string]*mcp.Tool{}}
	if err := c.discoverTools(ctx); err != nil {
		logging.LogWarn("failed to list MCP tools: %v", err)
	}
	return c, nil
}

// Close ends the session; for a spawned server this also stops the process.
func (c *Client) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}
