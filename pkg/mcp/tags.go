package mcp

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/unowned-ai/remember/pkg/editor"
	"github.com/unowned-ai/remember/pkg/people"
	"github.com/unowned-ai/remember/pkg/views"
	"go.uber.org/zap"
)

// RegisterAddTagTool registers the add_tag tool.
func RegisterAddTagTool(s *server.MCPServer, db *sql.DB) {
	addTagTool := mcp.NewTool("add_tag",
		mcp.WithDescription("Adds a tag to a contact, creating the tag if no tag has exactly this name."),
		mcp.WithString("contact_id", mcp.Required(), mcp.Description("The contact id.")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name.")),
	)
	s.AddTool(addTagTool, addTagHandler(db))
}

func addTagHandler(db *sql.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, errResult := contactFromArgs(ctx, db, request, "contact_id")
		if errResult != nil {
			return errResult, nil
		}
		name, ok := stringArg(request, "tag")
		if !ok || name == "" {
			return mcp.NewToolResultError("'tag' parameter is required and must be a non-empty string."), nil
		}

		form := editor.Load(db, zap.L(), c)
		if err := form.AddTag(ctx, name); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to add tag '%s': %v", name, err)), nil
		}
		return jsonResult(toContactView(form.Contact()), "contact")
	}
}

// RegisterToggleTagTool registers the toggle_tag tool.
func RegisterToggleTagTool(s *server.MCPServer, db *sql.DB) {
	toggleTagTool := mcp.NewTool("toggle_tag",
		mcp.WithDescription("Adds an existing tag to a contact, or removes it when the contact already has it."),
		mcp.WithString("contact_id", mcp.Required(), mcp.Description("The contact id.")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Name of an existing tag.")),
	)
	s.AddTool(toggleTagTool, toggleTagHandler(db))
}

func toggleTagHandler(db *sql.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, errResult := contactFromArgs(ctx, db, request, "contact_id")
		if errResult != nil {
			return errResult, nil
		}
		tag, errResult := tagFromArgs(ctx, db, request, "tag")
		if errResult != nil {
			return errResult, nil
		}

		form := editor.Load(db, zap.L(), c)
		if err := form.ToggleTag(ctx, tag); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to toggle tag '%s': %v", tag.Name, err)), nil
		}
		return jsonResult(toContactView(form.Contact()), "contact")
	}
}

// RegisterDeleteTagTool registers the delete_tag tool.
func RegisterDeleteTagTool(s *server.MCPServer, db *sql.DB) {
	deleteTagTool := mcp.NewTool("delete_tag",
		mcp.WithDescription("Deletes a tag everywhere, removing it from every contact. Requires confirm=true."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Name of the tag to delete.")),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true; the deletion affects all contacts.")),
	)
	s.AddTool(deleteTagTool, deleteTagHandler(db))
}

func deleteTagHandler(db *sql.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tag, errResult := tagFromArgs(ctx, db, request, "tag")
		if errResult != nil {
			return errResult, nil
		}
		if confirm, _ := boolArg(request, "confirm"); !confirm {
			return mcp.NewToolResultError(fmt.Sprintf("Deleting tag '%s' removes it from every contact; call again with confirm=true.", tag.Name)), nil
		}

		if err := people.DeleteTag(ctx, db, tag.ID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete tag '%s': %v", tag.Name, err)), nil
		}
		zap.L().Info("tag deleted", zap.String("tag", tag.Name))
		return mcp.NewToolResultText(fmt.Sprintf("Tag '%s' deleted.", tag.Name)), nil
	}
}

type tagUsageView struct {
	Name     string `json:"name"`
	Contacts int    `json:"contacts"`
}

// RegisterListTagsTool registers the list_tags tool.
func RegisterListTagsTool(s *server.MCPServer, db *sql.DB) {
	listTagsTool := mcp.NewTool("list_tags",
		mcp.WithDescription("Lists all tags with the number of contacts using each, most used first."),
	)
	s.AddTool(listTagsTool, listTagsHandler(db))
}

func listTagsHandler(db *sql.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tags, err := people.ListTags(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list tags: %v", err)), nil
		}
		contacts, err := people.ListContacts(ctx, db, people.ContactQuery{})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to count tag usage: %v", err)), nil
		}

		counts := views.TagUsageCount(contacts)
		sorted := views.SortedTagsByPopularity(tags, counts)
		out := make([]tagUsageView, len(sorted))
		for i, t := range sorted {
			out[i] = tagUsageView{Name: t.Name, Contacts: counts[t.ID]}
		}
		return jsonResult(out, "tags")
	}
}

type matchedContactView struct {
	contactView
	MatchCount int `json:"match_count"`
}

// RegisterSearchContactsTool registers the search_contacts tool.
func RegisterSearchContactsTool(s *server.MCPServer, db *sql.DB) {
	searchTool := mcp.NewTool("search_contacts",
		mcp.WithDescription("Finds saved contacts carrying any of the given tags, best matches first."),
		mcp.WithString("tags", mcp.Required(), mcp.Description("Comma-separated tag names (exact match).")),
	)
	s.AddTool(searchTool, searchContactsHandler(db))
}

func searchContactsHandler(db *sql.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, _ := stringArg(request, "tags")
		tagNames := parseTags(raw)
		if len(tagNames) == 0 {
			return mcp.NewToolResultError("'tags' parameter is required."), nil
		}

		results, err := people.SearchContactsByTags(ctx, db, tagNames)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to search contacts: %v", err)), nil
		}
		out := make([]matchedContactView, len(results))
		for i, r := range results {
			out[i] = matchedContactView{contactView: toContactView(r.Contact), MatchCount: r.MatchCount}
		}
		return jsonResult(out, "search results")
	}
}
