package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/unowned-ai/remember/pkg/mcp"
	"go.uber.org/zap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Remember MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes contacts, tags and the
theme setting as MCP tools via STDIO.

The --db flag is optional. If not provided, a system-specific default location will be used:
- Windows: %USERPROFILE%\AppData\Roaming\remember\remember.db
- macOS: ~/Library/Application Support/remember/remember.db
- Linux: ~/.local/share/remember/remember.db

Example:
  remember mcp
  remember mcp --db remember.db --tz Europe/Berlin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := location()
		if err != nil {
			return err
		}

		srv, err := mcp.NewRememberMCPServer(dbPath, walMode, syncMode, loc)
		if err != nil {
			return err
		}
		defer srv.Close()

		srv.RegisterAll()

		// stdout carries the JSON-RPC stream.
		zap.L().Info("mcp server started",
			zap.String("db", srv.DbPath),
			zap.Bool("wal", walMode),
			zap.String("sync", syncMode),
			zap.Strings("tools", mcp.ToolNames),
		)
		fmt.Fprintf(os.Stderr, "Remember MCP server started. DB: %s (WAL: %t, Sync: %s)\n", srv.DbPath, walMode, syncMode)
		fmt.Fprintf(os.Stderr, "Available tools: %s\n", strings.Join(mcp.ToolNames, ", "))
		fmt.Fprintln(os.Stderr, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")

		return srv.Start()
	},
}
