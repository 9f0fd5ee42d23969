package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS structure_snapshots (
	id         INTEGER PRIMARY KEY CHECK(id = 1),
	payload    TEXT NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS board_snapshots (
	entity_id  INTEGER PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at DATETIME NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS trigger_dispatches (
	id             TEXT PRIMARY KEY,
	spreadsheet_id TEXT NOT NULL DEFAULT '',
	sheet_row      INTEGER NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	outcome        TEXT NOT NULL CHECK(outcome IN ('sent', 'skipped', 'failed')),
	reason         TEXT NOT NULL DEFAULT '',
	status_code    INTEGER NOT NULL DEFAULT 0,
	marker         TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trigger_dispatches_created ON trigger_dispatches(created_at);
CREATE INDEX IF NOT EXISTS idx_trigger_dispatches_outcome ON trigger_dispatches(outcome);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
