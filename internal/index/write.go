package index

import (
	"context"
	"database/sql"
	"fmt"
)

// BeginWrite starts a transaction on the single writer connection. The
// importer's commit protocol composes two of these (plus a chunk-store
// rename in between) per batch; apart from Clear, this package's write
// functions never open their own transactions so that composition is
// possible.
func (ix *Index) BeginWrite(ctx context.Context) (*sql.Tx, error) {
	tx, err := ix.writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin write transaction: %w", err)
	}
	return tx, nil
}

// AllocateChunkID consults the store-wide counter row (never a directory
// scan, so concurrent imports against the same store cannot collide),
// advances it, and marks the new ID work-in-progress. Call within the
// first of the two commit-protocol transactions (see the importer
// package); the caller commits tx immediately after.
func AllocateChunkID(ctx context.Context, tx *sql.Tx) (uint64, error) {
	var current int64
	err := tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, chunkCounterKey).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		current = 1
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES (?, ?)`, chunkCounterKey, "2"); err != nil {
			return 0, fmt.Errorf("seed chunk id counter: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("read chunk id counter: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `UPDATE meta SET value = ? WHERE key = ?`, current+1, chunkCounterKey); err != nil {
			return 0, fmt.Errorf("advance chunk id counter: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO chunk_wip(chunk_id) VALUES (?)`, current); err != nil {
		return 0, fmt.Errorf("mark chunk work-in-progress: %w", err)
	}
	return uint64(current), nil
}

// FinalizeChunk performs step 4 of the commit protocol: records the
// committed chunk, upserts every page row (skipping on a mediawiki_id
// conflict, the idempotent-reimport rule), replaces each page's category
// edges, and clears the chunk's work-in-progress marker. Call within the
// second commit-protocol transaction.
func FinalizeChunk(ctx context.Context, tx *sql.Tx, chunkID uint64, path string, rows []PageRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("finalize chunk %d: empty batch", chunkID)
	}

	low, high := rows[0].MediaWikiID, rows[0].MediaWikiID
	for _, r := range rows {
		if r.MediaWikiID < low {
			low = r.MediaWikiID
		}
		if r.MediaWikiID > high {
			high = r.MediaWikiID
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chunk(chunk_id, path, page_count, low_page_id, high_page_id) VALUES (?, ?, ?, ?, ?)`,
		chunkID, path, len(rows), low, high,
	); err != nil {
		return fmt.Errorf("insert chunk row: %w", err)
	}

	for _, row := range rows {
		if err := upsertPage(ctx, tx, chunkID, row); err != nil {
			return err
		}
		if err := replaceCategoryLinks(ctx, tx, row.MediaWikiID, row.CategorySlugs); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunk_wip WHERE chunk_id = ?`, chunkID); err != nil {
		return fmt.Errorf("clear work-in-progress marker for chunk %d: %w", chunkID, err)
	}
	return nil
}

func upsertPage(ctx context.Context, tx *sql.Tx, chunkID uint64, row PageRow) error {
	var parentID, tsSecs, w0, w1, w2 sql.NullInt64
	if row.HasParent {
		parentID = sql.NullInt64{Int64: row.RevisionParentID, Valid: true}
	}
	if row.HasTimestamp {
		tsSecs = sql.NullInt64{Int64: row.RevisionTSUnix, Valid: true}
	}
	if row.HasSHA1 {
		w0 = sql.NullInt64{Int64: int64(row.SHA1Words[0]), Valid: true}
		w1 = sql.NullInt64{Int64: int64(row.SHA1Words[1]), Valid: true}
		w2 = sql.NullInt64{Int64: int64(row.SHA1Words[2]), Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO page(mediawiki_id, namespace_id, title, slug, chunk_id, slot_index,
			revision_id, revision_parent_id, revision_ts_utc_secs, sha1_word0, sha1_word1, sha1_word2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mediawiki_id) DO NOTHING`,
		row.MediaWikiID, row.NamespaceID, row.Title, row.Slug, chunkID, row.SlotIndex,
		row.RevisionID, parentID, tsSecs, w0, w1, w2,
	)
	if err != nil {
		return fmt.Errorf("upsert page %d: %w", row.MediaWikiID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected for page %d: %w", row.MediaWikiID, err)
	}
	if affected == 0 {
		return nil // already present from an earlier import; idempotent skip
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO page_by_slug(slug, namespace_id, mediawiki_id) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		row.Slug, row.NamespaceID, row.MediaWikiID,
	); err != nil {
		return fmt.Errorf("insert page_by_slug for %d: %w", row.MediaWikiID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO title_fts(title, mediawiki_id) VALUES (?, ?)`,
		row.Title, row.MediaWikiID,
	); err != nil {
		return fmt.Errorf("index title for %d: %w", row.MediaWikiID, err)
	}
	return nil
}

func replaceCategoryLinks(ctx context.Context, tx *sql.Tx, pageID int64, slugs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM category_link WHERE page_mediawiki_id = ?`, pageID); err != nil {
		return fmt.Errorf("clear category links for %d: %w", pageID, err)
	}
	for _, slug := range slugs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO category_link(category_slug, page_mediawiki_id) VALUES (?, ?)
			 ON CONFLICT DO NOTHING`,
			slug, pageID,
		); err != nil {
			return fmt.Errorf("insert category link %s -> %d: %w", slug, pageID, err)
		}
	}
	return nil
}

// PendingWIP returns every chunk_id currently marked work-in-progress,
// for startup recovery.
func (ix *Index) PendingWIP(ctx context.Context) ([]uint64, error) {
	rows, err := ix.writer.QueryContext(ctx, `SELECT chunk_id FROM chunk_wip`)
	if err != nil {
		return nil, fmt.Errorf("list pending work-in-progress chunks: %w", err)
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending chunk id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DiscardWIP removes chunk_id's work-in-progress marker without
// recording a committed chunk: the recovery path for a batch whose temp
// file never made it to a committed rename.
func (ix *Index) DiscardWIP(ctx context.Context, chunkID uint64) error {
	_, err := ix.writer.ExecContext(ctx, `DELETE FROM chunk_wip WHERE chunk_id = ?`, chunkID)
	if err != nil {
		return fmt.Errorf("discard work-in-progress marker for chunk %d: %w", chunkID, err)
	}
	return nil
}

// Clear transactionally truncates every table. The caller is then
// responsible for removing chunk files from disk (the index is
// truncated first, per spec).
func (ix *Index) Clear(ctx context.Context) error {
	tx, err := ix.BeginWrite(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"page", "page_by_slug", "category_link", "chunk", "chunk_wip", "title_fts", "meta"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return fmt.Errorf("clear table %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}
