package people

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCreateTag(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()

	tag, err := CreateTag(ctx, testDB, "Work")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if tag.ID == uuid.Nil || tag.Name != "Work" {
		t.Errorf("Unexpected tag: %+v", tag)
	}

	_, err = CreateTag(ctx, testDB, "Work")
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Errorf("Expected a PersistenceError for a duplicate name, got: %v", err)
	}

	_, err = CreateTag(ctx, testDB, "")
	if !errors.As(err, &perr) {
		t.Errorf("Expected a PersistenceError for an empty name, got: %v", err)
	}
}

func TestEnsureTag(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()

	first, created, err := EnsureTag(ctx, testDB, "Family")
	if err != nil {
		t.Fatalf("EnsureTag failed: %v", err)
	}
	if !created {
		t.Errorf("Expected the first EnsureTag to create the tag")
	}

	second, created, err := EnsureTag(ctx, testDB, "Family")
	if err != nil {
		t.Fatalf("second EnsureTag failed: %v", err)
	}
	if created {
		t.Errorf("Expected the second EnsureTag to reuse the tag")
	}
	if first.ID != second.ID {
		t.Errorf("Expected the same tag id, got %s and %s", first.ID, second.ID)
	}

	tags, err := ListTags(ctx, testDB)
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("Expected exactly one tag, got %d", len(tags))
	}
}

func TestFindTagByName(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()

	if _, err := CreateTag(ctx, testDB, "Gym"); err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	if _, err := FindTagByName(ctx, testDB, "Gym"); err != nil {
		t.Errorf("FindTagByName failed: %v", err)
	}
	if _, err := FindTagByName(ctx, testDB, "gym"); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("Expected case-sensitive lookup to miss, got: %v", err)
	}
}

func TestAttachAndDetachTag(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()

	c := createTestContact(t, ctx, testDB, "Ada", time.Now())
	tag, err := CreateTag(ctx, testDB, "Work")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := AttachTag(ctx, testDB, c.ID, tag.ID); err != nil {
			t.Fatalf("AttachTag #%d failed: %v", i+1, err)
		}
	}

	tags, err := ListTagsForContact(ctx, testDB, c.ID)
	if err != nil {
		t.Fatalf("ListTagsForContact failed: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("Expected attaching twice to leave one association, got %d", len(tags))
	}

	if err := AttachTag(ctx, testDB, uuid.New(), tag.ID); !errors.Is(err, ErrContactNotFound) {
		t.Errorf("Expected ErrContactNotFound, got: %v", err)
	}
	if err := AttachTag(ctx, testDB, c.ID, uuid.New()); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("Expected ErrTagNotFound, got: %v", err)
	}

	if err := DetachTag(ctx, testDB, c.ID, tag.ID); err != nil {
		t.Fatalf("DetachTag failed: %v", err)
	}
	if err := DetachTag(ctx, testDB, c.ID, tag.ID); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("Expected ErrTagNotFound when detaching twice, got: %v", err)
	}
	if _, err := GetTag(ctx, testDB, tag.ID); err != nil {
		t.Errorf("Detaching must not delete the tag itself: %v", err)
	}
}

func TestDeleteTagRemovesFromAllContacts(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()

	family, err := CreateTag(ctx, testDB, "Family")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	work, err := CreateTag(ctx, testDB, "Work")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C"} {
		c := createTestContact(t, ctx, testDB, name, time.Now())
		if err := AttachTag(ctx, testDB, c.ID, family.ID); err != nil {
			t.Fatalf("AttachTag failed: %v", err)
		}
		ids = append(ids, c.ID)
	}
	if err := AttachTag(ctx, testDB, ids[0], work.ID); err != nil {
		t.Fatalf("AttachTag failed: %v", err)
	}

	if err := DeleteTag(ctx, testDB, family.ID); err != nil {
		t.Fatalf("DeleteTag failed: %v", err)
	}

	for _, id := range ids {
		c, err := GetContact(ctx, testDB, id)
		if err != nil {
			t.Fatalf("GetContact failed: %v", err)
		}
		if c.HasTag(family.ID) {
			t.Errorf("Contact %s still carries the deleted tag", c.Name)
		}
	}

	first, err := GetContact(ctx, testDB, ids[0])
	if err != nil {
		t.Fatalf("GetContact failed: %v", err)
	}
	if !first.HasTag(work.ID) {
		t.Errorf("Unrelated tags must survive a tag deletion")
	}

	if err := DeleteTag(ctx, testDB, family.ID); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("Expected ErrTagNotFound when deleting twice, got: %v", err)
	}
}

func TestContactTagHelpers(t *testing.T) {
	var c Contact
	a := Tag{ID: uuid.New(), Name: "A"}
	b := Tag{ID: uuid.New(), Name: "B"}

	if !c.AddTag(a) || !c.AddTag(b) {
		t.Fatalf("Expected new tags to be added")
	}
	if c.AddTag(a) {
		t.Errorf("Expected duplicate AddTag to be rejected")
	}
	if got := c.TagNames(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("Unexpected tag names: %v", got)
	}
	if !c.RemoveTag(a.ID) || c.HasTag(a.ID) {
		t.Errorf("Expected tag A to be removed")
	}
	if c.RemoveTag(a.ID) {
		t.Errorf("Expected removing a missing tag to report false")
	}
}

func TestPersistenceErrorMessage(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	err := &PersistenceError{Op: "save", Kind: "contact", ID: id, Err: errors.New("disk full")}
	want := "failed to save contact 00000000-0000-0000-0000-000000000001: disk full"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	noID := &PersistenceError{Op: "delete", Kind: "drafts", Err: errors.New("locked")}
	if noID.Error() != "failed to delete drafts: locked" {
		t.Errorf("Unexpected message without id: %q", noID.Error())
	}
}
