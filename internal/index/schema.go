package index

// schemaStatements creates every table and index this package needs, and
// is safe to run against an already-migrated database (IF NOT EXISTS
// throughout). The full-text table requires mattn/go-sqlite3 to be built
// with the sqlite_fts5 build tag (go build -tags sqlite_fts5 ./...); this
// is a build-time concern, not a schema concern.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS page (
		mediawiki_id         INTEGER PRIMARY KEY,
		namespace_id         INTEGER NOT NULL,
		title                TEXT NOT NULL,
		slug                 TEXT NOT NULL,
		chunk_id             INTEGER NOT NULL,
		slot_index           INTEGER NOT NULL,
		revision_id          INTEGER NOT NULL,
		revision_parent_id   INTEGER,
		revision_ts_utc_secs INTEGER,
		sha1_word0           INTEGER,
		sha1_word1           INTEGER,
		sha1_word2           INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_page_chunk ON page(chunk_id, slot_index)`,
	`CREATE TABLE IF NOT EXISTS page_by_slug (
		slug         TEXT NOT NULL,
		namespace_id INTEGER NOT NULL,
		mediawiki_id INTEGER NOT NULL,
		PRIMARY KEY (slug, namespace_id, mediawiki_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_page_by_slug_slug ON page_by_slug(slug)`,
	`CREATE TABLE IF NOT EXISTS category_link (
		category_slug     TEXT NOT NULL,
		page_mediawiki_id INTEGER NOT NULL,
		PRIMARY KEY (category_slug, page_mediawiki_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_category_link_listing ON category_link(category_slug ASC, page_mediawiki_id ASC)`,
	`CREATE TABLE IF NOT EXISTS chunk (
		chunk_id    INTEGER PRIMARY KEY,
		path        TEXT NOT NULL,
		page_count  INTEGER NOT NULL,
		low_page_id INTEGER NOT NULL,
		high_page_id INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chunk_wip (
		chunk_id INTEGER PRIMARY KEY
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS title_fts USING fts5(
		title,
		mediawiki_id UNINDEXED,
		tokenize = 'unicode61'
	)`,
}

const chunkCounterKey = "next_chunk_id"
