package db

const (
	// SchemaV1 defines the SQL statements for version 1 of the contactsdb component.
	// date_met and the bookkeeping timestamps are unix seconds.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS remember_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS contacts (
    id UUID PRIMARY KEY,
    name VARCHAR(256) NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    date_met REAL NOT NULL,
    photo BLOB,
    photo_hash VARCHAR(64) NOT NULL DEFAULT '',
    state VARCHAR(16) NOT NULL DEFAULT 'draft',
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS contacts_date_met_idx ON contacts (date_met DESC);

CREATE TABLE IF NOT EXISTS tags (
    id UUID PRIMARY KEY,
    name VARCHAR(256) NOT NULL UNIQUE,
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS contact_tags (
    contact_id UUID NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
    tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    created_at REAL DEFAULT (unixepoch()),
    PRIMARY KEY (contact_id, tag_id)
);

CREATE TABLE IF NOT EXISTS preferences (
    key VARCHAR(64) PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at REAL DEFAULT (unixepoch())
);
`
)
