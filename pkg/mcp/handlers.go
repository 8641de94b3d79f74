package mcp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/unowned-ai/remember/pkg/editor"
	"github.com/unowned-ai/remember/pkg/people"
	"github.com/unowned-ai/remember/pkg/views"
	"go.uber.org/zap"
)

// RegisterPingTool registers the simple ping tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the Remember MCP server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_remember"), nil
}

type daySectionView struct {
	Day      string        `json:"day"`
	Contacts []contactView `json:"contacts"`
}

// RegisterListContactsTool registers the list_contacts tool.
func RegisterListContactsTool(s *server.MCPServer, db *sql.DB, loc *time.Location) {
	listContactsTool := mcp.NewTool("list_contacts",
		mcp.WithDescription("Lists contacts, most recently met first, grouped by the day they were met."),
		mcp.WithString("tag", mcp.Description("Optional tag name; only contacts carrying it are listed.")),
		mcp.WithBoolean("flat", mcp.Description("Return a flat list instead of day sections.")),
		mcp.WithBoolean("exclude_drafts", mcp.Description("Hide contacts that were never saved.")),
	)
	s.AddTool(listContactsTool, listContactsHandler(db, loc))
}

func listContactsHandler(db *sql.DB, loc *time.Location) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := people.ContactQuery{Sort: people.SortDateMetDesc}
		if exclude, ok := boolArg(request, "exclude_drafts"); ok {
			q.ExcludeDrafts = exclude
		}

		contacts, err := people.ListContacts(ctx, db, q)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list contacts: %v", err)), nil
		}

		if tagName, ok := stringArg(request, "tag"); ok && tagName != "" {
			tag, errResult := tagFromArgs(ctx, db, request, "tag")
			if errResult != nil {
				return errResult, nil
			}
			contacts = views.FilterByTag(contacts, &tag.ID)
		}

		if flat, _ := boolArg(request, "flat"); flat {
			return jsonResult(toContactViews(contacts), "contacts")
		}

		sections := views.Sections(contacts, loc)
		out := make([]daySectionView, len(sections))
		for i, sec := range sections {
			out[i] = daySectionView{Day: sec.Day.String(), Contacts: toContactViews(sec.Contacts)}
		}
		return jsonResult(out, "contacts")
	}
}

// RegisterGetContactTool registers the get_contact tool.
func RegisterGetContactTool(s *server.MCPServer, db *sql.DB) {
	getContactTool := mcp.NewTool("get_contact",
		mcp.WithDescription("Retrieves a contact by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("The contact id.")),
	)
	s.AddTool(getContactTool, getContactHandler(db))
}

func getContactHandler(db *sql.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, errResult := contactFromArgs(ctx, db, request, "id")
		if errResult != nil {
			return errResult, nil
		}
		return jsonResult(toContactView(c), "contact")
	}
}

// RegisterCreateContactTool registers the create_contact tool.
func RegisterCreateContactTool(s *server.MCPServer, db *sql.DB, loc *time.Location) {
	createContactTool := mcp.NewTool("create_contact",
		mcp.WithDescription("Records a new person. An empty name is stored as 'New Person'."),
		mcp.WithString("name", mcp.Description("Name of the person.")),
		mcp.WithString("notes", mcp.Description("Free-form notes.")),
		mcp.WithString("date_met", mcp.Description("Day you met, YYYY-MM-DD or RFC3339. Defaults to now.")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag names; missing tags are created.")),
		mcp.WithString("photo_path", mcp.Description("Path of an image file to use as the photo.")),
	)
	s.AddTool(createContactTool, createContactHandler(db, loc))
}

func createContactHandler(db *sql.DB, loc *time.Location) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dateMet := time.Now()
		if raw, ok := stringArg(request, "date_met"); ok && raw != "" {
			t, err := parseDate(raw, loc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			dateMet = t
		}

		c, err := people.NewContact(ctx, db, dateMet)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create contact: %v", err)), nil
		}

		form := editor.Load(db, zap.L(), c)
		if errResult := applyContactArgs(ctx, form, request); errResult != nil {
			// The draft was never committed; do not leave it behind.
			if err := people.DeleteContact(ctx, db, c.ID); err != nil {
				zap.L().Warn("failed to discard draft contact", zap.Stringer("contact_id", c.ID), zap.Error(err))
			}
			return errResult, nil
		}
		if err := form.Commit(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to save contact: %v", err)), nil
		}
		return jsonResult(toContactView(form.Contact()), "contact")
	}
}

// RegisterUpdateContactTool registers the update_contact tool.
func RegisterUpdateContactTool(s *server.MCPServer, db *sql.DB, loc *time.Location) {
	updateContactTool := mcp.NewTool("update_contact",
		mcp.WithDescription("Updates an existing contact. Only the provided fields change."),
		mcp.WithString("id", mcp.Required(), mcp.Description("The contact id.")),
		mcp.WithString("name", mcp.Description("New name. An empty string stores 'New Person'.")),
		mcp.WithString("notes", mcp.Description("New notes.")),
		mcp.WithString("date_met", mcp.Description("New meeting day, YYYY-MM-DD or RFC3339.")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag names to add; missing tags are created.")),
		mcp.WithString("photo_path", mcp.Description("Path of an image file to use as the new photo.")),
	)
	s.AddTool(updateContactTool, updateContactHandler(db, loc))
}

func updateContactHandler(db *sql.DB, loc *time.Location) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, errResult := contactFromArgs(ctx, db, request, "id")
		if errResult != nil {
			return errResult, nil
		}

		form := editor.Load(db, zap.L(), c)
		if raw, ok := stringArg(request, "date_met"); ok && raw != "" {
			t, err := parseDate(raw, loc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			form.SetDateMet(t)
		}
		if errResult := applyContactArgs(ctx, form, request); errResult != nil {
			return errResult, nil
		}
		if err := form.Commit(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to save contact: %v", err)), nil
		}
		return jsonResult(toContactView(form.Contact()), "contact")
	}
}

// applyContactArgs copies the optional name, notes, tags and photo arguments onto form.
func applyContactArgs(ctx context.Context, form *editor.Form, request mcp.CallToolRequest) *mcp.CallToolResult {
	if name, ok := stringArg(request, "name"); ok {
		form.SetName(name)
	}
	if notes, ok := stringArg(request, "notes"); ok {
		form.SetNotes(notes)
	}
	if path, ok := stringArg(request, "photo_path"); ok && path != "" {
		if err := form.PickPhoto(ctx, path); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load photo '%s': %v", path, err))
		}
	}
	if tagsStr, ok := stringArg(request, "tags"); ok {
		for _, name := range parseTags(tagsStr) {
			if err := form.AddTag(ctx, name); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to add tag '%s': %v", name, err))
			}
		}
	}
	return nil
}

// RegisterDeleteContactTool registers the delete_contact tool.
func RegisterDeleteContactTool(s *server.MCPServer, db *sql.DB) {
	deleteContactTool := mcp.NewTool("delete_contact",
		mcp.WithDescription("Deletes a contact permanently. Its tags are kept."),
		mcp.WithString("id", mcp.Required(), mcp.Description("The contact id.")),
	)
	s.AddTool(deleteContactTool, deleteContactHandler(db))
}

func deleteContactHandler(db *sql.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, errResult := contactFromArgs(ctx, db, request, "id")
		if errResult != nil {
			return errResult, nil
		}

		err := people.DeleteContact(ctx, db, c.ID)
		if errors.Is(err, people.ErrContactNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Contact '%s' not found.", c.ID)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete contact: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Contact '%s' deleted.", c.ID)), nil
	}
}
