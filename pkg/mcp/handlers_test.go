package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgdb "github.com/unowned-ai/remember/pkg/db"
	"github.com/unowned-ai/remember/pkg/people"
	"github.com/unowned-ai/remember/pkg/settings"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := pkgdb.Open(":memory:", false, "OFF")
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })
	return testDB
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &v))
	return v
}

func TestPing(t *testing.T) {
	result := callTool(t, pingHandler, nil)
	assert.Equal(t, "pong_remember", resultText(t, result))
}

func TestCreateAndGetContact(t *testing.T) {
	db := setupTestDB(t)

	created := decode[contactView](t, callTool(t, createContactHandler(db, time.UTC), map[string]interface{}{
		"name":     "Ada",
		"notes":    "met at the meetup",
		"date_met": "2024-05-01T18:00:00Z",
		"tags":     "Work, Tech, Work",
	}))
	assert.Equal(t, "Ada", created.Name)
	assert.Equal(t, "saved", created.State)
	assert.ElementsMatch(t, []string{"Work", "Tech"}, created.Tags)

	fetched := decode[contactView](t, callTool(t, getContactHandler(db), map[string]interface{}{
		"id": created.ID.String(),
	}))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "2024-05-01T18:00:00Z", fetched.DateMet)

	missing := callTool(t, getContactHandler(db), map[string]interface{}{"id": "not-a-uuid"})
	assert.True(t, missing.IsError)
}

func TestCreateContact_EmptyNameUsesPlaceholder(t *testing.T) {
	db := setupTestDB(t)

	created := decode[contactView](t, callTool(t, createContactHandler(db, time.UTC), map[string]interface{}{}))
	assert.Equal(t, people.PlaceholderName, created.Name)
}

func TestCreateContact_BadPhotoLeavesNoDraft(t *testing.T) {
	db := setupTestDB(t)

	result := callTool(t, createContactHandler(db, time.UTC), map[string]interface{}{
		"name":       "Ghost",
		"photo_path": "/definitely/not/here.png",
	})
	assert.True(t, result.IsError)

	contacts, err := people.ListContacts(context.Background(), db, people.ContactQuery{})
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestCreateContact_FailedDiscardIsLogged(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.Exec(`CREATE TRIGGER keep_contacts BEFORE DELETE ON contacts BEGIN SELECT RAISE(ABORT, 'contacts are read-only'); END`)
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	result := callTool(t, createContactHandler(db, time.UTC), map[string]interface{}{
		"name":       "Ghost",
		"photo_path": "/definitely/not/here.png",
	})
	assert.True(t, result.IsError)

	warnings := logs.FilterMessage("failed to discard draft contact").All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].ContextMap()["error"], "read-only")
}

func TestUpdateContact(t *testing.T) {
	db := setupTestDB(t)

	created := decode[contactView](t, callTool(t, createContactHandler(db, time.UTC), map[string]interface{}{
		"name":  "Grace",
		"notes": "keep me",
	}))

	updated := decode[contactView](t, callTool(t, updateContactHandler(db, time.UTC), map[string]interface{}{
		"id":   created.ID.String(),
		"name": "Grace Hopper",
		"tags": "Navy",
	}))
	assert.Equal(t, "Grace Hopper", updated.Name)
	assert.Equal(t, "keep me", updated.Notes)
	assert.Equal(t, []string{"Navy"}, updated.Tags)

	bad := callTool(t, updateContactHandler(db, time.UTC), map[string]interface{}{
		"id":       created.ID.String(),
		"date_met": "yesterday",
	})
	assert.True(t, bad.IsError)
}

func TestListContacts_GroupedAndFiltered(t *testing.T) {
	db := setupTestDB(t)
	create := createContactHandler(db, time.UTC)
	for _, args := range []map[string]interface{}{
		{"name": "A", "date_met": "2024-05-01T09:00:00Z", "tags": "Family"},
		{"name": "B", "date_met": "2024-05-01T12:00:00Z"},
		{"name": "C", "date_met": "2024-05-02T12:00:00Z", "tags": "Family"},
	} {
		decode[contactView](t, callTool(t, create, args))
	}

	list := listContactsHandler(db, time.UTC)

	sections := decode[[]daySectionView](t, callTool(t, list, nil))
	require.Len(t, sections, 2)
	assert.Equal(t, "2024-05-02", sections[0].Day)
	assert.Len(t, sections[0].Contacts, 1)
	assert.Equal(t, "2024-05-01", sections[1].Day)
	assert.Len(t, sections[1].Contacts, 2)

	flat := decode[[]contactView](t, callTool(t, list, map[string]interface{}{"flat": true, "tag": "Family"}))
	require.Len(t, flat, 2)
	assert.Equal(t, "C", flat[0].Name)
	assert.Equal(t, "A", flat[1].Name)

	unknown := callTool(t, list, map[string]interface{}{"tag": "Nope"})
	assert.True(t, unknown.IsError)
}

func TestDateMetUsesServerLocation(t *testing.T) {
	db := setupTestDB(t)
	pdt := time.FixedZone("PDT", -7*60*60)

	ada := decode[contactView](t, callTool(t, createContactHandler(db, pdt), map[string]interface{}{
		"name":     "Ada",
		"date_met": "2024-05-01",
	}))
	bob := decode[contactView](t, callTool(t, createContactHandler(db, pdt), map[string]interface{}{"name": "Bob"}))
	decode[contactView](t, callTool(t, updateContactHandler(db, pdt), map[string]interface{}{
		"id":       bob.ID.String(),
		"date_met": "2024-04-20",
	}))

	sections := decode[[]daySectionView](t, callTool(t, listContactsHandler(db, pdt), nil))
	require.Len(t, sections, 2)
	assert.Equal(t, "2024-05-01", sections[0].Day)
	assert.Equal(t, ada.ID, sections[0].Contacts[0].ID)
	assert.Equal(t, "2024-04-20", sections[1].Day)
	assert.Equal(t, bob.ID, sections[1].Contacts[0].ID)
}

func TestTagTools(t *testing.T) {
	db := setupTestDB(t)

	ada := decode[contactView](t, callTool(t, createContactHandler(db, time.UTC), map[string]interface{}{"name": "Ada", "tags": "Family"}))
	bob := decode[contactView](t, callTool(t, createContactHandler(db, time.UTC), map[string]interface{}{"name": "Bob"}))

	withTag := decode[contactView](t, callTool(t, addTagHandler(db), map[string]interface{}{
		"contact_id": bob.ID.String(),
		"tag":        "Family",
	}))
	assert.Equal(t, []string{"Family"}, withTag.Tags)

	toggled := decode[contactView](t, callTool(t, toggleTagHandler(db), map[string]interface{}{
		"contact_id": bob.ID.String(),
		"tag":        "Family",
	}))
	assert.Empty(t, toggled.Tags)

	tags := decode[[]tagUsageView](t, callTool(t, listTagsHandler(db), nil))
	require.Len(t, tags, 1)
	assert.Equal(t, tagUsageView{Name: "Family", Contacts: 1}, tags[0])

	refused := callTool(t, deleteTagHandler(db), map[string]interface{}{"tag": "Family"})
	assert.True(t, refused.IsError)
	refused = callTool(t, deleteTagHandler(db), map[string]interface{}{"tag": "Family", "confirm": false})
	assert.True(t, refused.IsError)

	deleted := callTool(t, deleteTagHandler(db), map[string]interface{}{"tag": "Family", "confirm": true})
	assert.False(t, deleted.IsError)

	fetched := decode[contactView](t, callTool(t, getContactHandler(db), map[string]interface{}{"id": ada.ID.String()}))
	assert.Empty(t, fetched.Tags)
}

func TestSearchContactsTool(t *testing.T) {
	db := setupTestDB(t)
	create := createContactHandler(db, time.UTC)
	decode[contactView](t, callTool(t, create, map[string]interface{}{"name": "Ada", "tags": "Work,Gym"}))
	decode[contactView](t, callTool(t, create, map[string]interface{}{"name": "Bob", "tags": "Work"}))
	decode[contactView](t, callTool(t, create, map[string]interface{}{"name": "Cy", "tags": "Family"}))

	results := decode[[]matchedContactView](t, callTool(t, searchContactsHandler(db), map[string]interface{}{
		"tags": "Gym, Work",
	}))
	require.Len(t, results, 2)
	assert.Equal(t, "Ada", results[0].Name)
	assert.Equal(t, 2, results[0].MatchCount)
	assert.Equal(t, "Bob", results[1].Name)
	assert.Equal(t, 1, results[1].MatchCount)

	missing := callTool(t, searchContactsHandler(db), map[string]interface{}{"tags": " , "})
	assert.True(t, missing.IsError)
}

func TestDeleteContactTool(t *testing.T) {
	db := setupTestDB(t)

	created := decode[contactView](t, callTool(t, createContactHandler(db, time.UTC), map[string]interface{}{"name": "Temp"}))

	result := callTool(t, deleteContactHandler(db), map[string]interface{}{"id": created.ID.String()})
	assert.False(t, result.IsError)

	again := callTool(t, deleteContactHandler(db), map[string]interface{}{"id": created.ID.String()})
	assert.True(t, again.IsError)
}

func TestThemeTools(t *testing.T) {
	db := setupTestDB(t)

	current := decode[themeView](t, callTool(t, getThemeHandler(db), nil))
	assert.Equal(t, themeView{Theme: "System", Value: 0}, current)

	set := decode[themeView](t, callTool(t, setThemeHandler(db), map[string]interface{}{"theme": "dark"}))
	assert.Equal(t, themeView{Theme: "Dark", Value: int(settings.ThemeDark)}, set)

	bad := callTool(t, setThemeHandler(db), map[string]interface{}{"theme": "neon"})
	assert.True(t, bad.IsError)
}

func TestRegisterAll(t *testing.T) {
	srv := NewServer(setupTestDB(t), time.UTC)
	srv.RegisterAll()
	assert.NotNil(t, srv.MCPRawServer())
	assert.Len(t, ToolNames, 13)
}
