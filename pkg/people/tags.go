package people

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// tagColumns must match the scan order in scanTag.
const tagColumns = `id, name, created_at, updated_at`

const (
	createTagStatement = `
	INSERT INTO tags (id, name)
	VALUES (?, ?)
	`

	getTagStatement = `
	SELECT ` + tagColumns + `
	FROM tags
	WHERE id = ?
	`

	findTagByNameStatement = `
	SELECT ` + tagColumns + `
	FROM tags
	WHERE name = ?
	`

	listTagsStatement = `
	SELECT ` + tagColumns + `
	FROM tags
	ORDER BY name ASC
	`

	listTagsForContactStatement = `
	SELECT t.id, t.name, t.created_at, t.updated_at
	FROM tags t
	JOIN contact_tags ct ON ct.tag_id = t.id
	WHERE ct.contact_id = ?
	ORDER BY ct.created_at ASC, t.name ASC
	`

	attachTagStatement = `
	INSERT OR IGNORE INTO contact_tags (contact_id, tag_id)
	VALUES (?, ?)
	`

	detachTagStatement = `
	DELETE FROM contact_tags
	WHERE contact_id = ? AND tag_id = ?
	`

	deleteTagStatement = `
	DELETE FROM tags
	WHERE id = ?
	`

	contactExistsStatement = `SELECT 1 FROM contacts WHERE id = ?`
)

func scanTag(scanner rowScanner) (Tag, error) {
	var (
		t                    Tag
		createdAt, updatedAt float64
	)
	if err := scanner.Scan(&t.ID, &t.Name, &createdAt, &updatedAt); err != nil {
		return Tag{}, err
	}
	t.CreatedAt = fromUnix(createdAt)
	t.UpdatedAt = fromUnix(updatedAt)
	return t, nil
}

func queryTags(ctx context.Context, db *sql.DB, query string, args ...any) ([]Tag, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}
	return tags, nil
}

// CreateTag stores a new tag. A name that already exists fails with a *PersistenceError;
// use EnsureTag for lookup-before-create.
func CreateTag(ctx context.Context, db *sql.DB, name string) (Tag, error) {
	tag := Tag{ID: uuid.New(), Name: name}
	if err := validateStruct(&tag); err != nil {
		return Tag{}, persistenceError("create", "tag", tag.ID, err)
	}

	if _, err := db.ExecContext(ctx, createTagStatement, tag.ID, tag.Name); err != nil {
		return Tag{}, persistenceError("create", "tag", tag.ID, err)
	}
	return GetTag(ctx, db, tag.ID)
}

// GetTag retrieves a tag by id.
func GetTag(ctx context.Context, db *sql.DB, id uuid.UUID) (Tag, error) {
	t, err := scanTag(db.QueryRowContext(ctx, getTagStatement, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Tag{}, ErrTagNotFound
	}
	return t, err
}

// FindTagByName looks a tag up by exact, case-sensitive name.
func FindTagByName(ctx context.Context, db *sql.DB, name string) (Tag, error) {
	t, err := scanTag(db.QueryRowContext(ctx, findTagByNameStatement, name))
	if errors.Is(err, sql.ErrNoRows) {
		return Tag{}, ErrTagNotFound
	}
	return t, err
}

// EnsureTag returns the tag called name, creating it when it does not exist yet.
// created reports whether a new record was made.
func EnsureTag(ctx context.Context, db *sql.DB, name string) (tag Tag, created bool, err error) {
	tag, err = FindTagByName(ctx, db, name)
	if err == nil {
		return tag, false, nil
	}
	if !errors.Is(err, ErrTagNotFound) {
		return Tag{}, false, err
	}

	tag, err = CreateTag(ctx, db, name)
	if err != nil {
		return Tag{}, false, err
	}
	return tag, true, nil
}

// ListTags returns every tag ordered by name.
func ListTags(ctx context.Context, db *sql.DB) ([]Tag, error) {
	return queryTags(ctx, db, listTagsStatement)
}

// ListTagsForContact returns the tags associated with a contact in the order they were attached.
func ListTagsForContact(ctx context.Context, db *sql.DB, contactID uuid.UUID) ([]Tag, error) {
	return queryTags(ctx, db, listTagsForContactStatement, contactID)
}

// AttachTag associates a tag with a contact. Attaching twice is a no-op.
func AttachTag(ctx context.Context, db *sql.DB, contactID, tagID uuid.UUID) error {
	if err := db.QueryRowContext(ctx, contactExistsStatement, contactID).Scan(new(int)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrContactNotFound
		}
		return err
	}
	if _, err := GetTag(ctx, db, tagID); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, attachTagStatement, contactID, tagID); err != nil {
		return persistenceError("save", "contact", contactID, fmt.Errorf("attach tag %s: %w", tagID, err))
	}
	return nil
}

// DetachTag removes the association between a contact and a tag.
// ErrTagNotFound is returned when the contact did not carry the tag.
func DetachTag(ctx context.Context, db *sql.DB, contactID, tagID uuid.UUID) error {
	res, err := db.ExecContext(ctx, detachTagStatement, contactID, tagID)
	if err != nil {
		return persistenceError("save", "contact", contactID, fmt.Errorf("detach tag %s: %w", tagID, err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return persistenceError("save", "contact", contactID, err)
	}
	if rowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}

// DeleteTag deletes a tag globally, severing it from every contact.
func DeleteTag(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, deleteTagStatement, id)
	if err != nil {
		return persistenceError("delete", "tag", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return persistenceError("delete", "tag", id, err)
	}
	if rowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}
