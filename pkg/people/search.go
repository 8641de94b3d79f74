package people

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MatchedContact is a contact found by SearchContactsByTags and how many of the query tags it carries.
type MatchedContact struct {
	Contact
	MatchCount int
}

// matchScanner scans a contact row followed by its match count.
type matchScanner struct {
	rows  *sql.Rows
	count *int
}

func (s matchScanner) Scan(dest ...any) error {
	return s.rows.Scan(append(dest, s.count)...)
}

// SearchContactsByTags finds saved contacts carrying at least one of the named tags. Results are
// ranked by the number of matching tags, then by most recent meeting. Tag names match exactly.
func SearchContactsByTags(ctx context.Context, db *sql.DB, tagNames []string) ([]MatchedContact, error) {
	if len(tagNames) == 0 {
		return []MatchedContact{}, nil
	}

	placeholders := strings.Repeat("?,", len(tagNames)-1) + "?"
	query := fmt.Sprintf(`
	SELECT
		c.id, c.name, c.notes, c.date_met, c.photo, c.photo_hash, c.state, c.created_at, c.updated_at,
		COUNT(t.id) AS match_count
	FROM contacts c
	JOIN contact_tags ct ON c.id = ct.contact_id
	JOIN tags t ON t.id = ct.tag_id
	WHERE c.state = ? AND t.name IN (%s)
	GROUP BY c.id
	ORDER BY match_count DESC, c.date_met DESC, c.id ASC
	`, placeholders)

	args := make([]any, 0, 1+len(tagNames))
	args = append(args, string(Saved))
	for _, name := range tagNames {
		args = append(args, name)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search query: %w", err)
	}
	defer rows.Close()

	results := []MatchedContact{}
	for rows.Next() {
		var mc MatchedContact
		c, err := scanContact(matchScanner{rows: rows, count: &mc.MatchCount})
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result row: %w", err)
		}
		mc.Contact = c
		results = append(results, mc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over search results: %w", err)
	}
	rows.Close()

	for i := range results {
		tags, err := ListTagsForContact(ctx, db, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Tags = tags
	}
	return results, nil
}
