package people

import (
	"time"

	"github.com/google/uuid"
)

// PlaceholderName is stored when a contact is committed without a name.
const PlaceholderName = "New Person"

// Lifecycle tells whether a contact has been committed by the user yet.
type Lifecycle string

const (
	// Draft contacts are allocated in the store but were never committed.
	Draft Lifecycle = "draft"
	// Saved contacts have been committed at least once.
	Saved Lifecycle = "saved"
)

// Contact is a person the user has met.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name" validate:"max=256"`
	Notes     string    `json:"notes,omitempty"`
	DateMet   time.Time `json:"date_met"`
	Photo     []byte    `json:"photo,omitempty"`
	PhotoHash string    `json:"photo_hash,omitempty" validate:"max=64"`
	State     Lifecycle `json:"state" validate:"oneof=draft saved"`
	Tags      []Tag     `json:"tags,omitempty" validate:"dive"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag is a named label shared between contacts.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name" validate:"required,max=256"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsNew reports whether the contact has never been committed.
func (c *Contact) IsNew() bool {
	return c.State != Saved
}

// HasTag reports whether the tag with the given id is associated with the contact.
func (c *Contact) HasTag(tagID uuid.UUID) bool {
	for _, t := range c.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// AddTag associates tag with the contact. It returns false when the tag was already
// present, keeping the tag set free of duplicates.
func (c *Contact) AddTag(tag Tag) bool {
	if c.HasTag(tag.ID) {
		return false
	}
	c.Tags = append(c.Tags, tag)
	return true
}

// RemoveTag dissociates the tag with the given id. It returns false when it was not present.
func (c *Contact) RemoveTag(tagID uuid.UUID) bool {
	for i, t := range c.Tags {
		if t.ID == tagID {
			c.Tags = append(c.Tags[:i:i], c.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// TagNames returns the names of the contact's tags in association order.
func (c *Contact) TagNames() []string {
	names := make([]string, len(c.Tags))
	for i, t := range c.Tags {
		names[i] = t.Name
	}
	return names
}

func toUnix(t time.Time) float64 {
	return float64(t.Unix())
}

func fromUnix(f float64) time.Time {
	return time.Unix(int64(f), int64((f-float64(int64(f)))*1e9))
}
