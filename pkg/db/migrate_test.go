package db

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3" // SQLite driver, needed for tests
)

// checkTableExists is a test helper to verify if a table exists in the database.
func checkTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()
	query := fmt.Sprintf("SELECT name FROM sqlite_master WHERE type='table' AND name='%s';", tableName)
	var name string
	err := db.QueryRow(query).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			t.Errorf("Table '%s' does not exist, but it should.", tableName)
			return
		}
		t.Fatalf("Error checking if table '%s' exists: %v", tableName, err)
	}
	if name != tableName {
		t.Errorf("Table check query returned '%s' but expected '%s'", name, tableName)
	}
}

func TestUpgradeDB_NewDatabase(t *testing.T) {
	db, err := OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	err = UpgradeDB(db, ":memory:", TargetSchemaVersion)
	if err != nil {
		t.Fatalf("UpgradeDB failed on a new in-memory database: %v", err)
	}

	expectedTables := []string{"remember_versions", "contacts", "tags", "contact_tags", "preferences"}
	for _, tableName := range expectedTables {
		checkTableExists(t, db, tableName)
	}

	// Verify the component version is set correctly
	version, err := GetComponentSchemaVersion(db, ContactsDBComponent)
	if err != nil {
		t.Fatalf("GetComponentSchemaVersion failed after UpgradeDB: %v", err)
	}

	if version != TargetSchemaVersion {
		t.Errorf("Expected component '%s' to be at version %d, but got %d", ContactsDBComponent, TargetSchemaVersion, version)
	}
}

func TestUpgradeDB_AlreadyUpToDate(t *testing.T) {
	db, err := OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	// Initialize the database to the TargetSchemaVersion first
	if err := InitializeSchema(db, TargetSchemaVersion); err != nil {
		t.Fatalf("InitializeSchema failed: %v", err)
	}

	// Now, call UpgradeDB again. It should detect it's up to date.
	err = UpgradeDB(db, ":memory:", TargetSchemaVersion)
	if err != nil {
		t.Fatalf("UpgradeDB failed on an up-to-date database: %v", err)
	}

	// Verify the component version is still TargetSchemaVersion
	version, err := GetComponentSchemaVersion(db, ContactsDBComponent)
	if err != nil {
		t.Fatalf("GetComponentSchemaVersion failed: %v", err)
	}
	if version != TargetSchemaVersion {
		t.Errorf("Expected component '%s' to be at version %d, but got %d", ContactsDBComponent, TargetSchemaVersion, version)
	}
}

func TestUpgradeDB_OlderVersionNeedsMigration(t *testing.T) {
	db, err := OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	const dbInitialSchemaVersion int64 = 1
	const appTargetsSchemaVersion int64 = 2 // Simulate app wanting version 2

	// Initialize the database to an older version (e.g., 1)
	if err := InitializeSchema(db, dbInitialSchemaVersion); err != nil {
		t.Fatalf("InitializeSchema to version %d failed: %v", dbInitialSchemaVersion, err)
	}

	// Call UpgradeDB, expecting the app to target a newer version (2)
	err = UpgradeDB(db, ":memory:", appTargetsSchemaVersion)
	if err == nil {
		t.Fatalf("UpgradeDB should have failed for an older DB version requiring migration, but it did not")
	}

	expectedErrorMsg := fmt.Sprintf("component %s in database ':memory:' has schema version %d, which is older than application's target schema version %d", ContactsDBComponent, dbInitialSchemaVersion, appTargetsSchemaVersion)
	if !strings.Contains(err.Error(), expectedErrorMsg) {
		t.Errorf("UpgradeDB error message mismatch.\nExpected to contain: %s\nGot: %s", expectedErrorMsg, err.Error())
	}

	// Ensure the DB version was not changed by the failed upgrade attempt
	currentVersion, getErr := GetComponentSchemaVersion(db, ContactsDBComponent)
	if getErr != nil {
		t.Fatalf("GetComponentSchemaVersion failed after attempted upgrade: %v", getErr)
	}
	if currentVersion != dbInitialSchemaVersion {
		t.Errorf("Database schema version changed from %d to %d after a failed upgrade attempt that should have been a no-op.", dbInitialSchemaVersion, currentVersion)
	}
}

func TestUpgradeDB_NewerVersionUnsupported(t *testing.T) {
	db, err := OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	const dbInitialSchemaVersion int64 = 2  // DB is at version 2
	const appTargetsSchemaVersion int64 = 1 // Simulate app wanting version 1

	// Initialize the database to a newer version (e.g., 2)
	if err := InitializeSchema(db, dbInitialSchemaVersion); err != nil {
		t.Fatalf("InitializeSchema to version %d failed: %v", dbInitialSchemaVersion, err)
	}

	// Call UpgradeDB, expecting the app to target an older version (1)
	err = UpgradeDB(db, ":memory:", appTargetsSchemaVersion)
	if err == nil {
		t.Fatalf("UpgradeDB should have failed for a newer DB version, but it did not")
	}

	expectedErrorMsg := fmt.Sprintf("component %s in database ':memory:' has schema version %d, which is newer than application's target schema version %d", ContactsDBComponent, dbInitialSchemaVersion, appTargetsSchemaVersion)
	if !strings.Contains(err.Error(), expectedErrorMsg) {
		t.Errorf("UpgradeDB error message mismatch.\nExpected to contain: %s\nGot: %s", expectedErrorMsg, err.Error())
	}

	// Ensure the DB version was not changed
	currentVersion, getErr := GetComponentSchemaVersion(db, ContactsDBComponent)
	if getErr != nil {
		t.Fatalf("GetComponentSchemaVersion failed after attempted upgrade: %v", getErr)
	}
	if currentVersion != dbInitialSchemaVersion {
		t.Errorf("Database schema version changed from %d to %d after a failed upgrade attempt that should have been a no-op.", dbInitialSchemaVersion, currentVersion)
	}
}

func TestBuildDSN(t *testing.T) {
	dsn, err := BuildDSN("contacts.db", true, "normal")
	if err != nil {
		t.Fatalf("BuildDSN failed: %v", err)
	}
	for _, want := range []string{"_journal_mode=WAL", "_synchronous=NORMAL", "_foreign_keys=on"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q does not contain %q", dsn, want)
		}
	}
	if !strings.HasPrefix(dsn, "contacts.db?") {
		t.Errorf("DSN %q should start with the base path and a query separator", dsn)
	}

	dsn, err = BuildDSN("file:contacts.db?cache=shared", false, "")
	if err != nil {
		t.Fatalf("BuildDSN failed: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:contacts.db?cache=shared&") {
		t.Errorf("existing query parameters should be extended, got %q", dsn)
	}

	if _, err := BuildDSN("contacts.db", false, "sometimes"); err == nil {
		t.Error("BuildDSN should reject an unknown sync pragma")
	}
}

func TestForeignKeysCascade(t *testing.T) {
	db, err := Open(":memory:", false, "OFF")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	mustExec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("exec %q failed: %v", query, err)
		}
	}

	mustExec(`INSERT INTO contacts (id, date_met) VALUES ('c1', 0)`)
	mustExec(`INSERT INTO tags (id, name) VALUES ('t1', 'Family')`)
	mustExec(`INSERT INTO contact_tags (contact_id, tag_id) VALUES ('c1', 't1')`)
	mustExec(`DELETE FROM tags WHERE id = 't1'`)

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM contact_tags`).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected tag deletion to cascade to contact_tags, %d rows left", n)
	}
}
