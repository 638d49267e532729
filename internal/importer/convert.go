package importer

import (
	"wikistore/internal/category"
	"wikistore/internal/chunkcodec"
	"wikistore/internal/dump"
	"wikistore/internal/index"
	"wikistore/internal/slugify"
)

// toChunkPage converts a freshly parsed dump page into its stored,
// codec-level representation.
func toChunkPage(p dump.Page) chunkcodec.Page {
	cp := chunkcodec.Page{
		MediaWikiID:       p.ID,
		NamespaceID:       p.Namespace,
		Title:             p.Title,
		RedirectTitle:     p.RedirectTitle,
		RevisionID:        p.Revision.ID,
		RevisionParentID:  p.Revision.ParentID,
		HasParent:         p.Revision.HasParent,
		HasTimestamp:      p.Revision.HasStamp,
		SHA1Words:         p.Revision.SHA1Words,
		HasSHA1:           p.Revision.HasSHA1,
		Wikitext:          p.Revision.Text,
	}
	if p.Revision.HasStamp {
		cp.RevisionTSUnix = p.Revision.Timestamp.Unix()
	}
	return cp
}

// toIndexRow builds the index row for a codec-level page at the given
// slot, leaving ChunkID unset — the committer fills it in once a chunk
// ID has been allocated.
func toIndexRow(cp chunkcodec.Page, slot uint32, rules slugify.NamespaceRules) index.PageRow {
	return index.PageRow{
		MediaWikiID:      cp.MediaWikiID,
		NamespaceID:      cp.NamespaceID,
		Title:            cp.Title,
		Slug:             slugify.Slugify(cp.Title, rules.RuleFor(cp.NamespaceID)),
		SlotIndex:        slot,
		RevisionID:       cp.RevisionID,
		RevisionParentID: cp.RevisionParentID,
		HasParent:        cp.HasParent,
		RevisionTSUnix:   cp.RevisionTSUnix,
		HasTimestamp:     cp.HasTimestamp,
		SHA1Words:        cp.SHA1Words,
		HasSHA1:          cp.HasSHA1,
		CategorySlugs:    category.Scan(cp.Wikitext),
	}
}

// rowsFromView reconstructs every page row of an already-committed
// chunk directly from its mapped bytes. Recovery uses this to complete
// step 4 of the commit protocol without ever having kept the original
// batch in memory across a crash: everything FinalizeChunk needs is
// already inside the chunk file itself.
func rowsFromView(view *chunkcodec.ChunkView, rules slugify.NamespaceRules) ([]index.PageRow, error) {
	rows := make([]index.PageRow, view.Count())
	for slot := 0; slot < view.Count(); slot++ {
		pv, err := view.Page(slot)
		if err != nil {
			return nil, err
		}
		cp := pv.ToPage()
		rows[slot] = toIndexRow(cp, uint32(slot), rules)
	}
	return rows, nil
}
