package people

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// contactColumns must match the scan order in scanContact.
const contactColumns = `id, name, notes, date_met, photo, photo_hash, state, created_at, updated_at`

const (
	createContactStatement = `
	INSERT INTO contacts (id, name, notes, date_met, state)
	VALUES (?, '', '', ?, ?)
	`

	getContactStatement = `
	SELECT ` + contactColumns + `
	FROM contacts
	WHERE id = ?
	`

	saveContactStatement = `
	INSERT INTO contacts (id, name, notes, date_met, photo, photo_hash, state)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		notes = excluded.notes,
		date_met = excluded.date_met,
		photo = excluded.photo,
		photo_hash = excluded.photo_hash,
		state = excluded.state,
		updated_at = unixepoch()
	`

	clearContactTagsStatement = `
	DELETE FROM contact_tags
	WHERE contact_id = ?
	`

	insertContactTagStatement = `
	INSERT OR IGNORE INTO contact_tags (contact_id, tag_id)
	VALUES (?, ?)
	`

	deleteContactStatement = `
	DELETE FROM contacts
	WHERE id = ?
	`

	cleanDraftsStatement = `
	DELETE FROM contacts
	WHERE state = 'draft' AND created_at < ?
	`

	tagsForContactsStatement = `
	SELECT ct.contact_id, t.id, t.name, t.created_at, t.updated_at
	FROM contact_tags ct
	JOIN tags t ON t.id = ct.tag_id
	ORDER BY ct.created_at ASC, t.name ASC
	`
)

// ContactSort selects the ordering of ListContacts.
type ContactSort int

const (
	// SortDateMetDesc lists the most recently met people first.
	SortDateMetDesc ContactSort = iota
	// SortNameAsc lists contacts alphabetically.
	SortNameAsc
	// SortCreatedDesc lists the most recently added contacts first.
	SortCreatedDesc
)

func (s ContactSort) orderBy() string {
	switch s {
	case SortNameAsc:
		return "name COLLATE NOCASE ASC, date_met DESC, id ASC"
	case SortCreatedDesc:
		return "created_at DESC, id ASC"
	default:
		return "date_met DESC, created_at DESC, id ASC"
	}
}

// ContactQuery narrows and orders ListContacts.
type ContactQuery struct {
	Sort ContactSort
	// TagID restricts the result to contacts carrying this tag when set.
	TagID *uuid.UUID
	// ExcludeDrafts hides contacts that were never committed.
	ExcludeDrafts bool
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(scanner rowScanner) (Contact, error) {
	var (
		c                             Contact
		state                         string
		dateMet, createdAt, updatedAt float64
	)

	err := scanner.Scan(
		&c.ID,
		&c.Name,
		&c.Notes,
		&dateMet,
		&c.Photo,
		&c.PhotoHash,
		&state,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return Contact{}, err
	}

	c.State = Lifecycle(state)
	c.DateMet = fromUnix(dateMet)
	c.CreatedAt = fromUnix(createdAt)
	c.UpdatedAt = fromUnix(updatedAt)
	return c, nil
}

// NewContact allocates a Draft contact with a generated id and dateMet as its meeting date.
// The record exists in the store immediately so tags can be attached before the first commit.
func NewContact(ctx context.Context, db *sql.DB, dateMet time.Time) (Contact, error) {
	contactID := uuid.New()
	if dateMet.IsZero() {
		dateMet = time.Now()
	}

	_, err := db.ExecContext(ctx, createContactStatement, contactID, toUnix(dateMet), string(Draft))
	if err != nil {
		return Contact{}, persistenceError("create", "contact", contactID, err)
	}

	return GetContact(ctx, db, contactID)
}

// GetContact retrieves a contact together with its tags.
func GetContact(ctx context.Context, db *sql.DB, id uuid.UUID) (Contact, error) {
	c, err := scanContact(db.QueryRowContext(ctx, getContactStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, err
	}

	tags, err := ListTagsForContact(ctx, db, id)
	if err != nil {
		return Contact{}, err
	}
	c.Tags = tags

	return c, nil
}

// ListContacts returns contacts with their tags, ordered and filtered by q.
func ListContacts(ctx context.Context, db *sql.DB, q ContactQuery) ([]Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE 1 = 1`
	var args []any

	if q.ExcludeDrafts {
		query += ` AND state = ?`
		args = append(args, string(Saved))
	}
	if q.TagID != nil {
		query += ` AND id IN (SELECT contact_id FROM contact_tags WHERE tag_id = ?)`
		args = append(args, *q.TagID)
	}
	query += ` ORDER BY ` + q.Sort.orderBy()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		index[c.ID] = len(contacts)
		contacts = append(contacts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact rows: %w", err)
	}
	rows.Close()

	if len(contacts) == 0 {
		return contacts, nil
	}

	tagRows, err := db.QueryContext(ctx, tagsForContactsStatement)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var (
			contactID            uuid.UUID
			t                    Tag
			createdAt, updatedAt float64
		)
		if err := tagRows.Scan(&contactID, &t.ID, &t.Name, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact tag row: %w", err)
		}
		i, ok := index[contactID]
		if !ok {
			continue
		}
		t.CreatedAt = fromUnix(createdAt)
		t.UpdatedAt = fromUnix(updatedAt)
		contacts[i].Tags = append(contacts[i].Tags, t)
	}
	if err = tagRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact tag rows: %w", err)
	}

	return contacts, nil
}

// SaveContact commits c: its fields and complete tag set are written in one transaction
// and the contact becomes Saved. On success c is refreshed from the store. Any failure,
// including validation, is reported as a *PersistenceError and leaves c untouched.
func SaveContact(ctx context.Context, db *sql.DB, c *Contact) error {
	if c.ID == uuid.Nil {
		return persistenceError("save", "contact", c.ID, errors.New("contact has no id"))
	}

	candidate := *c
	candidate.State = Saved
	if err := validateStruct(&candidate); err != nil {
		return persistenceError("save", "contact", c.ID, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceError("save", "contact", c.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		saveContactStatement,
		candidate.ID,
		candidate.Name,
		candidate.Notes,
		toUnix(candidate.DateMet),
		candidate.Photo,
		candidate.PhotoHash,
		string(candidate.State),
	)
	if err != nil {
		return persistenceError("save", "contact", c.ID, err)
	}

	if _, err := tx.ExecContext(ctx, clearContactTagsStatement, candidate.ID); err != nil {
		return persistenceError("save", "contact", c.ID, err)
	}
	for _, t := range candidate.Tags {
		if _, err := tx.ExecContext(ctx, insertContactTagStatement, candidate.ID, t.ID); err != nil {
			return persistenceError("save", "contact", c.ID, fmt.Errorf("attach tag %q: %w", t.Name, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return persistenceError("save", "contact", c.ID, err)
	}

	fresh, err := GetContact(ctx, db, c.ID)
	if err != nil {
		return persistenceError("save", "contact", c.ID, err)
	}
	*c = fresh
	return nil
}

// DeleteContact removes a contact and its tag associations.
func DeleteContact(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, deleteContactStatement, id)
	if err != nil {
		return persistenceError("delete", "contact", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return persistenceError("delete", "contact", id, err)
	}
	if rowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}

// DeleteContacts removes several contacts atomically. Ids that no longer exist are skipped.
func DeleteContacts(ctx context.Context, db *sql.DB, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistenceError("delete", "contacts", uuid.Nil, err)
	}
	defer tx.Rollback()

	var deleted int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, deleteContactStatement, id)
		if err != nil {
			return 0, persistenceError("delete", "contact", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, persistenceError("delete", "contact", id, err)
		}
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, persistenceError("delete", "contacts", uuid.Nil, err)
	}
	return deleted, nil
}

// CleanDrafts permanently deletes drafts allocated before cutoff that were never committed.
func CleanDrafts(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, cleanDraftsStatement, toUnix(cutoff))
	if err != nil {
		return 0, persistenceError("delete", "drafts", uuid.Nil, err)
	}
	return res.RowsAffected()
}
