package mcp

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/server"
	remember "github.com/unowned-ai/remember/pkg"
	pkgdb "github.com/unowned-ai/remember/pkg/db"
	"github.com/unowned-ai/remember/pkg/utils"
	"go.uber.org/zap"
)

// ToolNames lists every tool RegisterAll installs, in registration order.
var ToolNames = []string{
	"ping",
	"list_contacts", "get_contact", "create_contact", "update_contact", "delete_contact",
	"add_tag", "toggle_tag", "delete_tag", "list_tags", "search_contacts",
	"get_theme", "set_theme",
}

type RememberMCPServer struct {
	mcpServer *server.MCPServer
	db        *sql.DB
	loc       *time.Location
	DbPath    string
}

// NewRememberMCPServer opens (and if needed initialises) the database at dbPath and builds
// an MCP server over it. An empty dbPath selects the system default location. Contacts are
// grouped by day in loc.
func NewRememberMCPServer(dbPath string, enableWAL bool, syncPragma string, loc *time.Location) (*RememberMCPServer, error) {
	resolved, err := utils.ResolveAndEnsureDBPath(dbPath)
	if err != nil {
		return nil, err
	}

	dbConn, err := pkgdb.Open(resolved, enableWAL, syncPragma)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	srv := NewServer(dbConn, loc)
	srv.DbPath = resolved
	return srv, nil
}

// NewServer builds an MCP server over an already open database.
func NewServer(db *sql.DB, loc *time.Location) *RememberMCPServer {
	if loc == nil {
		loc = time.Local
	}
	s := server.NewMCPServer(
		"Remember MCP Server",
		remember.Version,
		server.WithLogging(),
		server.WithRecovery(),
	)
	return &RememberMCPServer{mcpServer: s, db: db, loc: loc}
}

// RegisterAll installs every contact, tag and settings tool.
func (s *RememberMCPServer) RegisterAll() {
	raw, db := s.mcpServer, s.db

	RegisterPingTool(raw)

	RegisterListContactsTool(raw, db, s.loc)
	RegisterGetContactTool(raw, db)
	RegisterCreateContactTool(raw, db, s.loc)
	RegisterUpdateContactTool(raw, db, s.loc)
	RegisterDeleteContactTool(raw, db)

	RegisterAddTagTool(raw, db)
	RegisterToggleTagTool(raw, db)
	RegisterDeleteTagTool(raw, db)
	RegisterListTagsTool(raw, db)
	RegisterSearchContactsTool(raw, db)

	RegisterGetThemeTool(raw, db)
	RegisterSetThemeTool(raw, db)
}

// Start runs the stdio event loop. Make sure to register tools beforehand.
func (s *RememberMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// DB returns the underlying *sql.DB.
func (s *RememberMCPServer) DB() *sql.DB {
	return s.db
}

// MCPRawServer exposes the raw mcp-go server.
func (s *RememberMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}

// Close checkpoints the WAL and closes the database.
func (s *RememberMCPServer) Close() error {
	if s.db == nil {
		return nil
	}
	// TRUNCATE mode waits for transactions and writes the WAL back to the main DB.
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		zap.L().Warn("WAL checkpoint failed during close", zap.Error(err))
	}
	return s.db.Close()
}
