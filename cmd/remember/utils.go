package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgdb "github.com/unowned-ai/remember/pkg/db"
	"github.com/unowned-ai/remember/pkg/listing"
	"github.com/unowned-ai/remember/pkg/people"
	"github.com/unowned-ai/remember/pkg/utils"
	"go.uber.org/zap"
)

// dayHeaderLayout is the medium date style used for day section headers.
const dayHeaderLayout = "Jan 2, 2006"

// openDB opens the configured database, creating and upgrading it as needed.
func openDB() (*sql.DB, error) {
	resolved, err := utils.ResolveAndEnsureDBPath(dbPath)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("opening database", zap.String("db", resolved), zap.Bool("wal", walMode), zap.String("sync", syncMode))
	return pkgdb.Open(resolved, walMode, syncMode)
}

// location resolves the --tz flag.
func location() (*time.Location, error) {
	if timeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", timeZone, err)
	}
	return loc, nil
}

// parseDateFlag accepts 2006-01-02 (midnight in loc) or RFC3339.
func parseDateFlag(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

// splitTags parses a comma-separated tag list, dropping empty items.
func splitTags(tagsStr string) []string {
	var tagNames []string
	for _, tag := range strings.Split(tagsStr, ",") {
		if t := strings.TrimSpace(tag); t != "" {
			tagNames = append(tagNames, t)
		}
	}
	return tagNames
}

// resolveContactID accepts a full contact id or an unambiguous prefix of one.
func resolveContactID(ctx context.Context, db *sql.DB, s string) (uuid.UUID, error) {
	if id, err := uuid.Parse(s); err == nil {
		return id, nil
	}
	if len(s) < 4 {
		return uuid.Nil, fmt.Errorf("contact id prefix %q is too short", s)
	}

	contacts, err := people.ListContacts(ctx, db, people.ContactQuery{})
	if err != nil {
		return uuid.Nil, err
	}
	var matches []uuid.UUID
	for _, c := range contacts {
		if strings.HasPrefix(c.ID.String(), strings.ToLower(s)) {
			matches = append(matches, c.ID)
		}
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("contact not found: %s", s)
	case 1:
		return matches[0], nil
	default:
		return uuid.Nil, fmt.Errorf("contact id prefix %q is ambiguous (%d matches)", s, len(matches))
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func formatTagsList(tags []people.Tag) string {
	if len(tags) == 0 {
		return "none"
	}

	tagNames := make([]string, len(tags))
	for i, tag := range tags {
		tagNames[i] = tag.Name
	}
	return strings.Join(tagNames, ", ")
}

func printContact(w io.Writer, c people.Contact, loc *time.Location) {
	fmt.Fprintln(w, "Contact Details:")
	fmt.Fprintf(w, "ID:         %s\n", c.ID)
	fmt.Fprintf(w, "Name:       %s\n", listing.DisplayName(c))
	fmt.Fprintf(w, "Date Met:   %s\n", c.DateMet.In(loc).Format(dayHeaderLayout))
	fmt.Fprintf(w, "Tags:       %s\n", formatTagsList(c.Tags))
	if len(c.Photo) > 0 {
		fmt.Fprintf(w, "Photo:      %d bytes (blurhash %s)\n", len(c.Photo), c.PhotoHash)
	} else {
		fmt.Fprintln(w, "Photo:      none")
	}
	if c.IsNew() {
		fmt.Fprintln(w, "State:      draft (never saved)")
	}
	fmt.Fprintf(w, "Created At: %s\n", c.CreatedAt.In(loc).Format(time.RFC3339))
	fmt.Fprintf(w, "Updated At: %s\n", c.UpdatedAt.In(loc).Format(time.RFC3339))
	if c.Notes != "" {
		fmt.Fprintln(w, "\nNotes:")
		fmt.Fprintln(w, "------------------------------------------------------------")
		fmt.Fprintln(w, c.Notes)
		fmt.Fprintln(w, "------------------------------------------------------------")
	}
}

func printContactLine(w io.Writer, c people.Contact) {
	name := listing.DisplayName(c)
	if listing.IsPlaceholder(c) {
		name = "(" + name + ")"
	}
	fmt.Fprintf(w, "  %s  %s", shortID(c.ID), name)
	if len(c.Tags) > 0 {
		fmt.Fprintf(w, "  [%s]", formatTagsList(c.Tags))
	}
	fmt.Fprintln(w)
}
