package wikistore

// Page is an owned, caller-safe copy of one stored page: the chunk
// mapping backing the original PageView may already have been released
// by the time a caller inspects this value.
type Page struct {
	MediaWikiID      int64
	NamespaceID      int32
	Title            string
	RedirectTitle    string
	RevisionID       int64
	RevisionParentID int64
	HasParent        bool
	RevisionTSUnix   int64
	HasTimestamp     bool
	SHA1Words        [3]uint64
	HasSHA1          bool
	Wikitext         string
}
