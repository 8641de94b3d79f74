package mcp

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/unowned-ai/remember/pkg/settings"
)

type themeView struct {
	Theme string `json:"theme"`
	Value int    `json:"value"`
}

// RegisterGetThemeTool registers the get_theme tool.
func RegisterGetThemeTool(s *server.MCPServer, db *sql.DB) {
	getThemeTool := mcp.NewTool("get_theme",
		mcp.WithDescription("Returns the selected colour theme (System, Light or Dark)."),
	)
	s.AddTool(getThemeTool, getThemeHandler(db))
}

func getThemeHandler(db *sql.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		theme, err := settings.GetTheme(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to read theme: %v", err)), nil
		}
		return jsonResult(themeView{Theme: theme.String(), Value: int(theme)}, "theme")
	}
}

// RegisterSetThemeTool registers the set_theme tool.
func RegisterSetThemeTool(s *server.MCPServer, db *sql.DB) {
	setThemeTool := mcp.NewTool("set_theme",
		mcp.WithDescription("Selects the colour theme."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("system, light or dark.")),
	)
	s.AddTool(setThemeTool, setThemeHandler(db))
}

func setThemeHandler(db *sql.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := stringArg(request, "theme")
		if !ok || raw == "" {
			return mcp.NewToolResultError("'theme' parameter is required."), nil
		}
		theme, err := settings.ParseTheme(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := settings.SetTheme(ctx, db, theme); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to store theme: %v", err)), nil
		}
		return jsonResult(themeView{Theme: theme.String(), Value: int(theme)}, "theme")
	}
}
