package index

import (
	"context"
	"database/sql"
	"fmt"
)

// LookupByID returns the location of the page with the given MediaWiki
// ID, or (PageLocation{}, false, nil) if no such page exists.
func (ix *Index) LookupByID(ctx context.Context, mediaWikiID int64) (PageLocation, bool, error) {
	var loc PageLocation
	err := ix.reader.QueryRowContext(ctx,
		`SELECT chunk_id, slot_index FROM page WHERE mediawiki_id = ?`, mediaWikiID,
	).Scan(&loc.ChunkID, &loc.SlotIndex)
	switch {
	case err == sql.ErrNoRows:
		return PageLocation{}, false, nil
	case err != nil:
		return PageLocation{}, false, fmt.Errorf("lookup page %d: %w", mediaWikiID, err)
	}
	return loc, true, nil
}

// LookupBySlug returns every page whose slug matches, across all
// namespaces — titles are not globally unique, and this package leaves
// disambiguation to the caller.
func (ix *Index) LookupBySlug(ctx context.Context, slug string) ([]SlugMatch, error) {
	rows, err := ix.reader.QueryContext(ctx, `
		SELECT p.mediawiki_id, p.namespace_id, p.chunk_id, p.slot_index
		FROM page_by_slug s
		JOIN page p ON p.mediawiki_id = s.mediawiki_id
		WHERE s.slug = ?
		ORDER BY p.mediawiki_id ASC`, slug)
	if err != nil {
		return nil, fmt.Errorf("lookup slug %q: %w", slug, err)
	}
	defer rows.Close()

	var out []SlugMatch
	for rows.Next() {
		var m SlugMatch
		if err := rows.Scan(&m.MediaWikiID, &m.NamespaceID, &m.Location.ChunkID, &m.Location.SlotIndex); err != nil {
			return nil, fmt.Errorf("scan slug match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListCategory lists a category's member pages, forward-paged by
// mediawiki_id, ordered ascending.
func (ix *Index) ListCategory(ctx context.Context, categorySlug string, after *int64, limit int) ([]TitleHit, error) {
	var rows *sql.Rows
	var err error
	if after != nil {
		rows, err = ix.reader.QueryContext(ctx, `
			SELECT p.mediawiki_id, p.title
			FROM category_link c
			JOIN page p ON p.mediawiki_id = c.page_mediawiki_id
			WHERE c.category_slug = ? AND c.page_mediawiki_id > ?
			ORDER BY c.page_mediawiki_id ASC
			LIMIT ?`, categorySlug, *after, limit)
	} else {
		rows, err = ix.reader.QueryContext(ctx, `
			SELECT p.mediawiki_id, p.title
			FROM category_link c
			JOIN page p ON p.mediawiki_id = c.page_mediawiki_id
			WHERE c.category_slug = ?
			ORDER BY c.page_mediawiki_id ASC
			LIMIT ?`, categorySlug, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list category %q: %w", categorySlug, err)
	}
	defer rows.Close()
	return scanTitleHits(rows)
}

// SearchTitle returns up to limit (mediawiki_id, title) pairs whose
// title matches prefix via the full-text index.
func (ix *Index) SearchTitle(ctx context.Context, prefix string, limit int) ([]TitleHit, error) {
	rows, err := ix.reader.QueryContext(ctx, `
		SELECT mediawiki_id, title FROM title_fts
		WHERE title_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsPrefixQuery(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("search title %q: %w", prefix, err)
	}
	defer rows.Close()
	return scanTitleHits(rows)
}

func scanTitleHits(rows *sql.Rows) ([]TitleHit, error) {
	var out []TitleHit
	for rows.Next() {
		var h TitleHit
		if err := rows.Scan(&h.MediaWikiID, &h.Title); err != nil {
			return nil, fmt.Errorf("scan title hit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ftsPrefixQuery builds an FTS5 MATCH expression matching prefix as a
// phrase prefix, per the "prefix/phrase search" contract.
func ftsPrefixQuery(prefix string) string {
	return fmt.Sprintf("%q*", prefix)
}

// ChunkCommitted reports whether a chunk row exists for id — used by
// recovery to decide whether a work-in-progress entry still needs step 4
// of the commit protocol applied, or can simply be discarded.
func (ix *Index) ChunkCommitted(ctx context.Context, id uint64) (bool, error) {
	var exists int
	err := ix.reader.QueryRowContext(ctx, `SELECT 1 FROM chunk WHERE chunk_id = ?`, id).Scan(&exists)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check chunk %d committed: %w", id, err)
	}
	return true, nil
}
