package editor

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgdb "github.com/unowned-ai/remember/pkg/db"
	"github.com/unowned-ai/remember/pkg/people"
	"github.com/unowned-ai/remember/pkg/photos"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := pkgdb.Open(":memory:", false, "OFF")
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })
	return testDB
}

func newDraftForm(t *testing.T, db *sql.DB, opts ...Option) *Form {
	t.Helper()
	c, err := people.NewContact(context.Background(), db, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return Load(db, zaptest.NewLogger(t), c, opts...)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestLoadDraft(t *testing.T) {
	met := time.Date(2023, 8, 14, 0, 0, 0, 0, time.UTC)
	fields := LoadDraft(people.Contact{Name: "Ada", Notes: "chess", DateMet: met, Photo: []byte{1}})
	assert.Equal(t, Fields{Name: "Ada", Notes: "chess", DateMet: met, Photo: []byte{1}}, fields)

	before := time.Now()
	empty := LoadDraft(people.Contact{})
	assert.False(t, empty.DateMet.Before(before), "missing date defaults to now")
}

func TestCommit_PlaceholderName(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := newDraftForm(t, db)

	assert.Equal(t, TitleNew, f.Title())
	require.NoError(t, f.Commit(ctx))

	stored, err := people.GetContact(ctx, db, f.Contact().ID)
	require.NoError(t, err)
	assert.Equal(t, people.PlaceholderName, stored.Name)
	assert.Equal(t, people.Saved, stored.State)
	assert.Equal(t, TitleEdit, f.Title())
	assert.Empty(t, f.Fields().Name, "draft field keeps what the user typed")
}

func TestCommit_WritesFields(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := newDraftForm(t, db)

	met := time.Date(2024, 2, 29, 19, 0, 0, 0, time.UTC)
	f.SetName("Grace")
	f.SetNotes("Navy")
	f.SetDateMet(met)

	// Nothing reaches the store before commit.
	stored, err := people.GetContact(ctx, db, f.Contact().ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Name)

	require.NoError(t, f.Close(ctx))

	stored, err = people.GetContact(ctx, db, f.Contact().ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", stored.Name)
	assert.Equal(t, "Navy", stored.Notes)
	assert.True(t, stored.DateMet.Equal(met))
}

func TestCommit_KeepsPhotoUnlessNewOneCaptured(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	fs := afero.NewMemMapFs()
	first := pngBytes(t, 4, 4)
	second := pngBytes(t, 8, 8)
	require.NoError(t, afero.WriteFile(fs, "/a.png", first, 0644))
	require.NoError(t, afero.WriteFile(fs, "/b.png", second, 0644))
	loader := WithPhotoLoader(&photos.FileLoader{Fs: fs})

	f := newDraftForm(t, db, loader)
	require.NoError(t, f.PickPhoto(ctx, "/a.png"))
	assert.True(t, f.PhotoCaptured())
	require.NoError(t, f.Commit(ctx))
	assert.False(t, f.PhotoCaptured())

	// Reopen without picking: the photo survives the commit.
	reopened := Load(db, zap.NewNop(), f.Contact(), loader)
	reopened.SetName("Renamed")
	require.NoError(t, reopened.Commit(ctx))

	stored, err := people.GetContact(ctx, db, f.Contact().ID)
	require.NoError(t, err)
	assert.Equal(t, first, stored.Photo)
	assert.NotEmpty(t, stored.PhotoHash)

	require.NoError(t, reopened.PickPhoto(ctx, "/b.png"))
	require.NoError(t, reopened.Commit(ctx))
	stored, err = people.GetContact(ctx, db, f.Contact().ID)
	require.NoError(t, err)
	assert.Equal(t, second, stored.Photo)
}

func TestCommit_FailureKeepsEdits(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := newDraftForm(t, db)

	long := strings.Repeat("n", 300)
	f.SetName(long)
	err := f.Commit(ctx)

	var perr *people.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, long, f.Fields().Name)
	assert.Equal(t, long, f.Contact().Name)
}

func TestAddTag_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := newDraftForm(t, db)

	f.SetTagInput("Family")
	require.NoError(t, f.SubmitTagInput(ctx))
	assert.Empty(t, f.TagInput())
	require.NoError(t, f.AddTag(ctx, "Family"))

	tags, err := people.ListTags(ctx, db)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	assert.Len(t, f.Contact().Tags, 1)
	stored, err := people.ListTagsForContact(ctx, db, f.Contact().ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	require.NoError(t, f.AddTag(ctx, ""))
	tags, err = people.ListTags(ctx, db)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestAddTag_PersistsBeforeCommit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := newDraftForm(t, db)

	require.NoError(t, f.AddTag(ctx, "Work"))

	stored, err := people.GetContact(ctx, db, f.Contact().ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work"}, stored.TagNames())
	assert.Equal(t, people.Draft, stored.State)
}

func TestToggleTag(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := newDraftForm(t, db)

	tag, err := people.CreateTag(ctx, db, "Gym")
	require.NoError(t, err)

	require.NoError(t, f.ToggleTag(ctx, tag))
	assert.True(t, f.HasTag(tag.ID))

	require.NoError(t, f.ToggleTag(ctx, tag))
	assert.False(t, f.HasTag(tag.ID))

	stored, err := people.ListTagsForContact(ctx, db, f.Contact().ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestDeleteTag_RequiresConfirmation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := newDraftForm(t, db)
	other := newDraftForm(t, db)

	require.NoError(t, f.AddTag(ctx, "Family"))
	tag := f.Contact().Tags[0]
	require.NoError(t, other.ToggleTag(ctx, tag))

	f.RequestDeleteTag(tag)
	pending, ok := f.PendingDeleteTag()
	require.True(t, ok)
	assert.Equal(t, tag.ID, pending.ID)

	f.CancelDeleteTag()
	_, ok = f.PendingDeleteTag()
	assert.False(t, ok)
	require.NoError(t, f.ConfirmDeleteTag(ctx), "nothing pending is a no-op")
	_, err := people.GetTag(ctx, db, tag.ID)
	require.NoError(t, err)

	f.RequestDeleteTag(tag)
	require.NoError(t, f.ConfirmDeleteTag(ctx))

	assert.False(t, f.HasTag(tag.ID))
	_, err = people.GetTag(ctx, db, tag.ID)
	assert.ErrorIs(t, err, people.ErrTagNotFound)

	stored, err := people.GetContact(ctx, db, other.Contact().ID)
	require.NoError(t, err)
	assert.False(t, stored.HasTag(tag.ID), "deletion reaches every contact")
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := newDraftForm(t, db)

	require.NoError(t, f.Delete(ctx))
	assert.True(t, f.Deleted())
	assert.NoError(t, f.Close(ctx))
	assert.ErrorIs(t, f.Commit(ctx), ErrDeleted)

	_, err := people.GetContact(ctx, db, f.Contact().ID)
	assert.ErrorIs(t, err, people.ErrContactNotFound)
}

// gateLoader blocks each load until its ref is released.
type gateLoader struct {
	data  map[string][]byte
	gates map[string]chan struct{}
}

func (g *gateLoader) Load(ctx context.Context, ref string) ([]byte, error) {
	select {
	case <-g.gates[ref]:
		return g.data[ref], nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestPhotoPick_LatestWins(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	slow, fast := pngBytes(t, 2, 2), pngBytes(t, 3, 3)
	loader := &gateLoader{
		data:  map[string][]byte{"slow": slow, "fast": fast},
		gates: map[string]chan struct{}{"slow": make(chan struct{}), "fast": make(chan struct{})},
	}
	f := newDraftForm(t, db, WithPhotoLoader(loader))

	slowReq := f.BeginPhotoPick(ctx, "slow")
	slowDone := make(chan PhotoLoaded, 1)
	go func() { slowDone <- LoadPhoto(slowReq) }()

	fastReq := f.BeginPhotoPick(ctx, "fast")
	close(loader.gates["fast"])
	fastRes := LoadPhoto(fastReq)
	require.NoError(t, fastRes.Err)
	assert.True(t, f.ApplyPhoto(fastRes))

	// The first pick was cancelled when the second began.
	slowRes := <-slowDone
	assert.ErrorIs(t, slowRes.Err, context.Canceled)
	assert.False(t, f.ApplyPhoto(slowRes))

	assert.Equal(t, fast, f.Fields().Photo)
}

func TestPhotoPick_StaleResultDiscarded(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first, second := pngBytes(t, 2, 2), pngBytes(t, 5, 5)
	f := newDraftForm(t, db)

	stale := PhotoLoaded{Gen: f.BeginPhotoPick(ctx, "a").Gen, Data: first}
	current := PhotoLoaded{Gen: f.BeginPhotoPick(ctx, "b").Gen, Data: second}

	assert.True(t, f.ApplyPhoto(current))
	assert.False(t, f.ApplyPhoto(stale))
	assert.Equal(t, second, f.Fields().Photo)
}

func TestPhotoPick_CancelOnClose(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := newDraftForm(t, db)

	req := f.BeginPhotoPick(ctx, "never")
	f.CancelPhotoPick()

	assert.False(t, f.ApplyPhoto(PhotoLoaded{Gen: req.Gen, Data: pngBytes(t, 1, 1)}))
	assert.Nil(t, f.Fields().Photo)
	assert.False(t, f.PhotoCaptured())
}

func TestPhotoPick_ResultStaysWithItsForm(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := newDraftForm(t, db)
	req := first.BeginPhotoPick(ctx, "first.png")
	first.CancelPhotoPick()

	second := newDraftForm(t, db)
	second.BeginPhotoPick(ctx, "second.png")

	late := PhotoLoaded{Gen: req.Gen, Data: pngBytes(t, 4, 4)}
	assert.False(t, second.ApplyPhoto(late))
	assert.Nil(t, second.Fields().Photo)
	assert.False(t, second.PhotoCaptured())

	fresh := newDraftForm(t, db)
	assert.False(t, fresh.ApplyPhoto(PhotoLoaded{Data: pngBytes(t, 1, 1)}))
	assert.False(t, fresh.PhotoCaptured())
}

func TestPickPhoto_RejectsNonImage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/notes.txt", []byte("hello"), 0644))
	f := newDraftForm(t, db, WithPhotoLoader(&photos.FileLoader{Fs: fs}))

	err := f.PickPhoto(ctx, "/notes.txt")
	assert.True(t, errors.Is(err, photos.ErrNotAnImage))
	assert.False(t, f.PhotoCaptured())
}
