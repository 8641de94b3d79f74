// Package editor binds user input to a single contact. Field edits stay in the form until
// Commit; tag changes are written to the store as soon as they are made.
package editor

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/unowned-ai/remember/pkg/people"
	"github.com/unowned-ai/remember/pkg/photos"
	"go.uber.org/zap"
)

const (
	TitleNew  = "New Contact"
	TitleEdit = "Edit Contact"
)

// ErrDeleted is returned by operations on a form whose contact was deleted.
var ErrDeleted = errors.New("contact was deleted")

// Fields are the editable values of a contact before they are committed.
type Fields struct {
	Name    string
	Notes   string
	DateMet time.Time
	Photo   []byte
}

// LoadDraft returns the prefilled field values for c. A missing meeting date defaults to now.
func LoadDraft(c people.Contact) Fields {
	dateMet := c.DateMet
	if dateMet.IsZero() {
		dateMet = time.Now()
	}
	return Fields{
		Name:    c.Name,
		Notes:   c.Notes,
		DateMet: dateMet,
		Photo:   c.Photo,
	}
}

// Form edits one contact. It is not safe for concurrent use; only LoadPhoto may run on
// another goroutine.
type Form struct {
	db     *sql.DB
	logger *zap.Logger
	loader photos.Loader

	contact  people.Contact
	fields   Fields
	tagInput string

	photoHash     string
	photoCaptured bool
	pickGen       uint64
	cancelPick    context.CancelFunc

	pendingDelete *people.Tag
	deleted       bool
}

// Option customises Load.
type Option func(*Form)

// WithPhotoLoader sets the loader used for photo picks. Files are read from the OS by default.
func WithPhotoLoader(l photos.Loader) Option {
	return func(f *Form) { f.loader = l }
}

// Load opens an editor on c.
func Load(db *sql.DB, logger *zap.Logger, c people.Contact, opts ...Option) *Form {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Form{
		db:        db,
		logger:    logger.With(zap.Stringer("contact_id", c.ID)),
		contact:   c,
		fields:    LoadDraft(c),
		photoHash: c.PhotoHash,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.loader == nil {
		f.loader = photos.NewFileLoader()
	}
	return f
}

// Contact returns the record as last written to, or read from, the store plus any tag changes.
func (f *Form) Contact() people.Contact { return f.contact }

// Fields returns the current draft values.
func (f *Form) Fields() Fields { return f.fields }

func (f *Form) SetName(name string) { f.fields.Name = name }
func (f *Form) SetNotes(notes string) { f.fields.Notes = notes }
func (f *Form) SetDateMet(t time.Time) { f.fields.DateMet = t }
func (f *Form) SetTagInput(input string) { f.tagInput = input }
func (f *Form) TagInput() string { return f.tagInput }

// Title is the heading of the editor screen.
func (f *Form) Title() string {
	if f.contact.IsNew() {
		return TitleNew
	}
	return TitleEdit
}

// HasTag reports whether the contact currently carries the tag.
func (f *Form) HasTag(tagID uuid.UUID) bool {
	return f.contact.HasTag(tagID)
}

// Deleted reports whether the contact was removed through this form.
func (f *Form) Deleted() bool { return f.deleted }

// Commit writes the draft fields back to the contact and saves it. An empty name is stored
// as the placeholder and the photo is only replaced when a new one was picked. A failed
// save is logged and returned; the draft fields are kept either way.
func (f *Form) Commit(ctx context.Context) error {
	if f.deleted {
		return ErrDeleted
	}

	name := f.fields.Name
	if name == "" {
		name = people.PlaceholderName
	}
	f.contact.Name = name
	f.contact.Notes = f.fields.Notes
	f.contact.DateMet = f.fields.DateMet
	if f.photoCaptured {
		f.contact.Photo = f.fields.Photo
		f.contact.PhotoHash = f.photoHash
	}

	if err := people.SaveContact(ctx, f.db, &f.contact); err != nil {
		f.logger.Warn("failed to save contact", zap.Error(err))
		return err
	}
	f.photoCaptured = false
	f.logger.Debug("contact saved", zap.String("name", f.contact.Name))
	return nil
}

// Close is called when the editor goes away: it abandons any pending photo pick and commits.
func (f *Form) Close(ctx context.Context) error {
	f.CancelPhotoPick()
	if f.deleted {
		return nil
	}
	return f.Commit(ctx)
}

// Delete removes the contact from the store. Later commits are refused.
func (f *Form) Delete(ctx context.Context) error {
	f.CancelPhotoPick()
	if err := people.DeleteContact(ctx, f.db, f.contact.ID); err != nil {
		f.logger.Warn("failed to delete contact", zap.Error(err))
		return err
	}
	f.deleted = true
	return nil
}
