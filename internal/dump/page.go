// Package dump streams MediaWiki XML page-dump exports and yields Page
// values in source order, one at a time.
package dump

import "time"

// Page is a single <page> element of a MediaWiki dump: the current
// revision only, plus the metadata dumps carry per page.
type Page struct {
	ID            int64
	Namespace     int32
	Title         string
	RedirectTitle string // empty if not a redirect
	Revision      Revision
}

// Revision is the <revision> retained for a page (only the last one in
// source order is kept, per the dump-export contract).
type Revision struct {
	ID         int64
	ParentID   int64 // 0 if absent
	HasParent  bool
	Timestamp  time.Time
	HasStamp   bool
	Text       string
	SHA1Words  [3]uint64 // 8+8+4 bytes of a 160-bit SHA1, big-endian words; only [2] uses its low 32 bits
	HasSHA1    bool
}
