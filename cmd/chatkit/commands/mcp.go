// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents to use chatkit conversations via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/akshith/chatkit/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs chatkit as an MCP (Model Context Protocol) server, exposing
conversation threads, history, and document upload as tools over stdio.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by an MCP client)
  chatkit mcp

  # Configure in an MCP client config:
  # {
  #   "mcpServers": {
  #     "chatkit": {
  #       "command": "chatkit",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	server := mcpserver.NewMCPServer(
		"chatkit",
		versionInfo.Version,
	)

	mcp.RegisterTools(server, a.engine, a.logger)

	// Graceful shutdown on interrupt
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		a.logger.Info("mcp server starting on stdio")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			a.logger.Info("shutdown signal received")
		}
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
