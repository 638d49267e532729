package wikistore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"wikistore/internal/chunkcodec"
	"wikistore/internal/chunkstore"
	"wikistore/internal/importer"
	"wikistore/internal/index"
	"wikistore/internal/slugify"
)

// Config configures Open.
type Config struct {
	// Root is the directory beneath which every wiki's store lives, one
	// subdirectory per wiki name (see Open).
	Root   string
	Logger *slog.Logger
	// NamespaceRules overrides the per-namespace title-casing policy used
	// by both ordinary imports and crash recovery. Namespaces absent from
	// the map use the MediaWiki default, first-letter upper-casing.
	NamespaceRules slugify.NamespaceRules
}

// Store is one open wiki's storage and retrieval core: a chunk store and
// its index, plus the import coordinator that keeps them consistent.
type Store struct {
	store *chunkstore.Store
	idx   *index.Index
	coord *importer.Coordinator
	log   *slog.Logger
}

// ImportReport summarises one Import call.
type ImportReport = importer.Report

// ImportOptions configures one Import call.
type ImportOptions = importer.Options

// Open opens (creating if absent) the store rooted at cfg.Root/stores/
// wikiName, running startup recovery before returning so that a prior
// process's interrupted commit never lingers as an inconsistency: per
// the persisted-invariant contract, a store whose index and on-disk
// chunks disagree is reconciled here, not surfaced to the caller.
func Open(cfg Config, wikiName string) (*Store, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "wikistore", "wiki", wikiName)

	root := filepath.Join(cfg.Root, "stores", wikiName)

	cs, err := chunkstore.Open(chunkstore.Config{Dir: root, Logger: log})
	if err != nil {
		return nil, newErr(KindChunkStoreIO, "Open", err)
	}

	ix, err := index.Open(index.Config{Path: filepath.Join(root, "index", "index.db"), Logger: log})
	if err != nil {
		cs.Close()
		return nil, newErr(KindIndex, "Open", err)
	}

	coord := importer.New(cs, ix, log, cfg.NamespaceRules)

	s := &Store{store: cs, idx: ix, coord: coord, log: log}

	if err := coord.Recover(context.Background()); err != nil {
		s.Close()
		return nil, newErr(KindIndex, "Open", fmt.Errorf("startup recovery: %w", err))
	}

	return s, nil
}

// Close releases every resource held by the store: outstanding chunk
// mappings, the advisory writer lock, and both index connection pools.
func (s *Store) Close() error {
	var first error
	if err := s.idx.Close(); err != nil {
		first = err
	}
	if err := s.store.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// Import runs one import job against this store, per the coordinator's
// crash-safe commit protocol. The store's writer lock is held for the
// duration; concurrent imports against the same store root fail fast
// with KindConflict (surfaced from the advisory lock, not blocked on).
func (s *Store) Import(ctx context.Context, opts ImportOptions) (ImportReport, error) {
	report, err := s.coord.Run(ctx, opts)
	if err != nil {
		return report, newErr(KindIndex, "Import", err)
	}
	return report, nil
}

// Clear truncates the index and removes every chunk file, leaving the
// store empty but open.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.coord.Clear(ctx); err != nil {
		return newErr(KindIndex, "Clear", err)
	}
	return nil
}

// GetPageByID returns the page with the given MediaWiki ID, or
// ErrNotFound if no such page is committed.
func (s *Store) GetPageByID(ctx context.Context, mediaWikiID int64) (Page, error) {
	loc, ok, err := s.idx.LookupByID(ctx, mediaWikiID)
	if err != nil {
		return Page{}, newErr(KindIndex, "GetPageByID", err)
	}
	if !ok {
		return Page{}, ErrNotFound
	}
	return s.fetchPage(loc)
}

// GetPageBySlug returns every page whose slug matches — more than one
// when the same title is used across multiple namespaces (see
// slugify.Slugify's namespace-blind normalisation), disambiguated by
// NamespaceID on the returned Page values.
func (s *Store) GetPageBySlug(ctx context.Context, slug string) ([]Page, error) {
	matches, err := s.idx.LookupBySlug(ctx, slug)
	if err != nil {
		return nil, newErr(KindIndex, "GetPageBySlug", err)
	}
	pages := make([]Page, 0, len(matches))
	for _, m := range matches {
		p, err := s.fetchPage(m.Location)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// ListCategory lists a category's member pages, forward-paged by
// mediawiki_id. A nil after starts from the beginning.
func (s *Store) ListCategory(ctx context.Context, categorySlug string, after *int64, limit int) ([]Page, error) {
	hits, err := s.idx.ListCategory(ctx, categorySlug, after, limit)
	if err != nil {
		return nil, newErr(KindIndex, "ListCategory", err)
	}
	return s.fetchPagesForHits(ctx, hits)
}

// SearchTitle returns up to limit pages whose title matches prefix via
// the full-text title index.
func (s *Store) SearchTitle(ctx context.Context, prefix string, limit int) ([]Page, error) {
	hits, err := s.idx.SearchTitle(ctx, prefix, limit)
	if err != nil {
		return nil, newErr(KindIndex, "SearchTitle", err)
	}
	return s.fetchPagesForHits(ctx, hits)
}

// fetchPagesForHits resolves a batch of (mediawiki_id, title) hits back
// into full Page values, re-running the by-ID lookup each hit already
// implicitly went through once inside the index query — an acceptable
// extra round trip for list/search result sets, which are bounded by the
// caller's limit.
func (s *Store) fetchPagesForHits(ctx context.Context, hits []index.TitleHit) ([]Page, error) {
	pages := make([]Page, 0, len(hits))
	for _, h := range hits {
		loc, ok, err := s.idx.LookupByID(ctx, h.MediaWikiID)
		if err != nil {
			return nil, newErr(KindIndex, "fetchPagesForHits", err)
		}
		if !ok {
			continue // removed (e.g. by a concurrent Clear) since the list query; skip rather than error
		}
		p, err := s.fetchPage(loc)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// fetchPage maps a chunk store location to an owned Page, per the
// copy-at-the-boundary rule: the mapping is released before returning,
// so the caller never holds a reference into memory this package owns.
func (s *Store) fetchPage(loc index.PageLocation) (Page, error) {
	mc, err := s.store.Map(chunkstore.ChunkID(loc.ChunkID))
	if err != nil {
		return Page{}, newErr(KindChunkStoreIO, "fetchPage", err)
	}
	defer mc.Close()

	pv, err := mc.View().Page(int(loc.SlotIndex))
	if err != nil {
		return Page{}, newErr(KindChunkCodec, "fetchPage", err)
	}
	return fromChunkPage(pv.ToPage()), nil
}

func fromChunkPage(cp chunkcodec.Page) Page {
	return Page{
		MediaWikiID:      cp.MediaWikiID,
		NamespaceID:      cp.NamespaceID,
		Title:            cp.Title,
		RedirectTitle:    cp.RedirectTitle,
		RevisionID:       cp.RevisionID,
		RevisionParentID: cp.RevisionParentID,
		HasParent:        cp.HasParent,
		RevisionTSUnix:   cp.RevisionTSUnix,
		HasTimestamp:     cp.HasTimestamp,
		SHA1Words:        cp.SHA1Words,
		HasSHA1:          cp.HasSHA1,
		Wikitext:         cp.Wikitext,
	}
}
