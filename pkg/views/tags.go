package views

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/unowned-ai/remember/pkg/people"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// TagIndex maps a tag id to the set of contacts carrying it.
type TagIndex map[uuid.UUID]map[uuid.UUID]struct{}

// BuildTagIndex indexes the tag associations of contacts.
func BuildTagIndex(contacts []people.Contact) TagIndex {
	idx := make(TagIndex)
	for _, c := range contacts {
		for _, t := range c.Tags {
			set, ok := idx[t.ID]
			if !ok {
				set = make(map[uuid.UUID]struct{})
				idx[t.ID] = set
			}
			set[c.ID] = struct{}{}
		}
	}
	return idx
}

// Count returns how many contacts carry the tag.
func (idx TagIndex) Count(tagID uuid.UUID) int {
	return len(idx[tagID])
}

// Contains reports whether the contact carries the tag.
func (idx TagIndex) Contains(tagID, contactID uuid.UUID) bool {
	_, ok := idx[tagID][contactID]
	return ok
}

// Counts flattens the index into usage counts.
func (idx TagIndex) Counts() map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int, len(idx))
	for id, set := range idx {
		counts[id] = len(set)
	}
	return counts
}

// TagUsageCount returns how many contacts reference each tag. Tags used by nobody are absent.
func TagUsageCount(contacts []people.Contact) map[uuid.UUID]int {
	return BuildTagIndex(contacts).Counts()
}

// SortedTagsByPopularity orders tags by usage count, highest first. Equal counts are
// ordered by name (English collation, case-insensitive), then by raw name, then by id,
// so the result depends only on the input set. tags is not modified.
func SortedTagsByPopularity(tags []people.Tag, counts map[uuid.UUID]int) []people.Tag {
	sorted := make([]people.Tag, len(tags))
	copy(sorted, tags)

	coll := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ca, cb := counts[a.ID], counts[b.ID]; ca != cb {
			return ca > cb
		}
		if c := coll.CompareString(a.Name, b.Name); c != 0 {
			return c < 0
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
	return sorted
}

// FilterByTag returns the contacts carrying tagID, keeping their order.
// A nil tagID stands for "All Tags" and returns contacts unchanged.
func FilterByTag(contacts []people.Contact, tagID *uuid.UUID) []people.Contact {
	if tagID == nil {
		return contacts
	}
	filtered := make([]people.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.HasTag(*tagID) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
