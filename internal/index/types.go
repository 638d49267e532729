package index

// PageLocation is a Store Page ID: the (chunk, slot) pair uniquely
// locating a page's record within the chunk store.
type PageLocation struct {
	ChunkID   uint64
	SlotIndex uint32
}

// PageRow is everything the index needs to know about one page to
// populate page, page_by_slug, and category_link in a single batch
// commit.
type PageRow struct {
	MediaWikiID      int64
	NamespaceID      int32
	Title            string
	Slug             string
	ChunkID          uint64
	SlotIndex        uint32
	RevisionID       int64
	RevisionParentID int64
	HasParent        bool
	RevisionTSUnix   int64
	HasTimestamp     bool
	SHA1Words        [3]uint64
	HasSHA1          bool
	CategorySlugs    []string
}

// TitleHit is one (mediawiki_id, title) result row from ListCategory or
// SearchTitle.
type TitleHit struct {
	MediaWikiID int64
	Title       string
}

// SlugMatch is one result row from LookupBySlug: a located page plus the
// namespace that disambiguates it from same-titled pages elsewhere.
type SlugMatch struct {
	MediaWikiID int64
	NamespaceID int32
	Location    PageLocation
}
