package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/unowned-ai/remember/pkg/listing"
	"github.com/unowned-ai/remember/pkg/people"
)

// contactView is the JSON shape of a contact in tool results. Photo bytes are left out.
type contactView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Notes       string    `json:"notes,omitempty"`
	DateMet     string    `json:"date_met"`
	Tags        []string  `json:"tags"`
	HasPhoto    bool      `json:"has_photo"`
	PhotoHash   string    `json:"photo_hash,omitempty"`
	State       string    `json:"state"`
}

func toContactView(c people.Contact) contactView {
	tags := c.TagNames()
	if tags == nil {
		tags = []string{}
	}
	return contactView{
		ID:          c.ID,
		Name:        c.Name,
		DisplayName: listing.DisplayName(c),
		Notes:       c.Notes,
		DateMet:     c.DateMet.UTC().Format(time.RFC3339),
		Tags:        tags,
		HasPhoto:    len(c.Photo) > 0,
		PhotoHash:   c.PhotoHash,
		State:       string(c.State),
	}
}

func toContactViews(contacts []people.Contact) []contactView {
	out := make([]contactView, len(contacts))
	for i, c := range contacts {
		out[i] = toContactView(c)
	}
	return out
}

// jsonResult serialises v as the text of a tool result.
func jsonResult(v any, what string) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize %s to JSON: %v", what, err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func stringArg(request mcp.CallToolRequest, name string) (string, bool) {
	v, ok := request.Params.Arguments[name].(string)
	return v, ok
}

func boolArg(request mcp.CallToolRequest, name string) (bool, bool) {
	v, ok := request.Params.Arguments[name].(bool)
	return v, ok
}

// parseTags splits a comma-separated tag list, dropping empty items.
func parseTags(tagsStr string) []string {
	var tagsList []string
	for _, tag := range strings.Split(tagsStr, ",") {
		if t := strings.TrimSpace(tag); t != "" {
			tagsList = append(tagsList, t)
		}
	}
	return tagsList
}

// parseDate accepts 2006-01-02 (midnight in loc) or RFC3339.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

// contactFromArgs loads the contact named by the "id" argument.
func contactFromArgs(ctx context.Context, db *sql.DB, request mcp.CallToolRequest, arg string) (people.Contact, *mcp.CallToolResult) {
	raw, ok := stringArg(request, arg)
	if !ok || raw == "" {
		return people.Contact{}, mcp.NewToolResultError(fmt.Sprintf("'%s' parameter is required.", arg))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return people.Contact{}, mcp.NewToolResultError(fmt.Sprintf("'%s' is not a valid contact id: %v", arg, err))
	}
	c, err := people.GetContact(ctx, db, id)
	if errors.Is(err, people.ErrContactNotFound) {
		return people.Contact{}, mcp.NewToolResultError(fmt.Sprintf("Contact '%s' not found.", raw))
	}
	if err != nil {
		return people.Contact{}, mcp.NewToolResultError(fmt.Sprintf("Error retrieving contact '%s': %v", raw, err))
	}
	return c, nil
}

// tagFromArgs loads the tag named by the given argument, by exact name.
func tagFromArgs(ctx context.Context, db *sql.DB, request mcp.CallToolRequest, arg string) (people.Tag, *mcp.CallToolResult) {
	name, ok := stringArg(request, arg)
	if !ok || name == "" {
		return people.Tag{}, mcp.NewToolResultError(fmt.Sprintf("'%s' parameter is required.", arg))
	}
	tag, err := people.FindTagByName(ctx, db, name)
	if errors.Is(err, people.ErrTagNotFound) {
		return people.Tag{}, mcp.NewToolResultError(fmt.Sprintf("Tag '%s' not found.", name))
	}
	if err != nil {
		return people.Tag{}, mcp.NewToolResultError(fmt.Sprintf("Error retrieving tag '%s': %v", name, err))
	}
	return tag, nil
}
