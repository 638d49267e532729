// Package wikistore is the storage and retrieval core of an offline
// Wikimedia reader: it ingests MediaWiki XML page dumps into an
// append-only chunk store indexed by a relational SQLite layer, and
// serves page lookups, category listings, and title search against that
// store.
//
// Downloading dumps, rendering wikitext, and driving a CLI or HTTP
// server are the job of other parts of a full reader; this package only
// ever touches a store root on local disk.
package wikistore
