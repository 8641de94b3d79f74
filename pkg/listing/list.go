// Package listing is the contact list screen: contacts grouped by the day they were met,
// an optional tag filter, and the entry points to create, edit and delete contacts.
package listing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/unowned-ai/remember/pkg/editor"
	"github.com/unowned-ai/remember/pkg/people"
	"github.com/unowned-ai/remember/pkg/views"
	"go.uber.org/zap"
)

// List holds the derived view of the store the user is looking at. Call Refresh after
// anything changed the store.
type List struct {
	db     *sql.DB
	logger *zap.Logger
	loc    *time.Location

	contacts []people.Contact
	tags     []people.Tag
	counts   map[uuid.UUID]int
	popular  []people.Tag
	selected *people.Tag

	visible  []people.Contact
	sections []views.DaySection
}

// New returns an empty list; loc is the location days are computed in.
func New(db *sql.DB, logger *zap.Logger, loc *time.Location) *List {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &List{db: db, logger: logger, loc: loc, counts: map[uuid.UUID]int{}}
}

// Refresh re-queries contacts and tags and recomputes the view. A tag filter whose tag
// no longer exists is cleared.
func (l *List) Refresh(ctx context.Context) error {
	contacts, err := people.ListContacts(ctx, l.db, people.ContactQuery{Sort: people.SortDateMetDesc})
	if err != nil {
		l.logger.Warn("failed to load contacts", zap.Error(err))
		return err
	}
	tags, err := people.ListTags(ctx, l.db)
	if err != nil {
		l.logger.Warn("failed to load tags", zap.Error(err))
		return err
	}

	l.contacts = contacts
	l.tags = tags
	l.counts = views.TagUsageCount(contacts)
	l.popular = views.SortedTagsByPopularity(tags, l.counts)

	if l.selected != nil && !containsTag(tags, l.selected.ID) {
		l.selected = nil
	}
	l.rebuild()
	return nil
}

func (l *List) rebuild() {
	var tagID *uuid.UUID
	if l.selected != nil {
		tagID = &l.selected.ID
	}
	l.visible = views.FilterByTag(l.contacts, tagID)
	l.sections = views.Sections(l.visible, l.loc)
}

func containsTag(tags []people.Tag, id uuid.UUID) bool {
	for _, t := range tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Sections returns the visible contacts grouped by day, most recent day first.
func (l *List) Sections() []views.DaySection { return l.sections }

// Contacts returns the visible contacts in list order.
func (l *List) Contacts() []people.Contact { return l.visible }

// PopularTags returns every tag, most used first. This is the order of the filter menu.
func (l *List) PopularTags() []people.Tag { return l.popular }

// TagCount returns how many contacts carry the tag.
func (l *List) TagCount(tagID uuid.UUID) int { return l.counts[tagID] }

// Location is the location days are computed in.
func (l *List) Location() *time.Location { return l.loc }

// SelectedTag returns the active filter. false means "All Tags".
func (l *List) SelectedTag() (people.Tag, bool) {
	if l.selected == nil {
		return people.Tag{}, false
	}
	return *l.selected, true
}

// SelectTagFilter sets the filter; nil selects "All Tags".
func (l *List) SelectTagFilter(tag *people.Tag) {
	if tag == nil {
		l.selected = nil
	} else {
		t := *tag
		l.selected = &t
	}
	l.rebuild()
}

// AddNewContact creates a contact met today and opens an editor on it.
func (l *List) AddNewContact(ctx context.Context, opts ...editor.Option) (*editor.Form, error) {
	c, err := people.NewContact(ctx, l.db, time.Now())
	if err != nil {
		l.logger.Warn("failed to create contact", zap.Error(err))
		return nil, err
	}
	l.logger.Debug("contact created", zap.Stringer("contact_id", c.ID))
	return editor.Load(l.db, l.logger, c, opts...), nil
}

// Open returns an editor on c.
func (l *List) Open(c people.Contact, opts ...editor.Option) *editor.Form {
	return editor.Load(l.db, l.logger, c, opts...)
}

// Resolve maps positions within the displayed section for day to contacts. Positions refer
// to the filtered, grouped view returned by Sections.
func (l *List) Resolve(day views.Day, offsets []int) ([]people.Contact, error) {
	section, ok := views.FindSection(l.sections, day)
	if !ok {
		return nil, fmt.Errorf("no contacts shown for %s", day)
	}

	resolved := make([]people.Contact, 0, len(offsets))
	seen := make(map[int]bool, len(offsets))
	for _, off := range offsets {
		if off < 0 || off >= len(section.Contacts) {
			return nil, fmt.Errorf("position %d out of range for %s (%d contacts)", off, day, len(section.Contacts))
		}
		if seen[off] {
			continue
		}
		seen[off] = true
		resolved = append(resolved, section.Contacts[off])
	}
	return resolved, nil
}

// DeleteContacts deletes the contacts at offsets within the displayed section for day and
// refreshes the list. Nothing is deleted when any offset is invalid.
func (l *List) DeleteContacts(ctx context.Context, day views.Day, offsets []int) (int64, error) {
	targets, err := l.Resolve(day, offsets)
	if err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, len(targets))
	for i, c := range targets {
		ids[i] = c.ID
	}

	deleted, err := people.DeleteContacts(ctx, l.db, ids)
	if err != nil {
		l.logger.Warn("failed to delete contacts", zap.Int("count", len(ids)), zap.Error(err))
		return 0, err
	}
	l.logger.Info("contacts deleted", zap.Int64("count", deleted), zap.String("day", day.String()))

	return deleted, l.Refresh(ctx)
}

// DisplayName is the name shown for c in the list.
func DisplayName(c people.Contact) string {
	if c.Name == "" {
		return people.PlaceholderName
	}
	return c.Name
}

// IsPlaceholder reports whether c is shown under the placeholder name and should be dimmed.
func IsPlaceholder(c people.Contact) bool {
	return c.Name == "" || c.Name == people.PlaceholderName
}
