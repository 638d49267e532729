package chunkcodec

// Fixed-width prefix of an encoded page body, before its three
// length-prefixed byte spans (title, redirect title, wikitext).
const (
	pfxMediaWikiID = 8
	pfxNamespace   = 4
	pfxRevisionID  = 8
	pfxHasParent   = 1
	pfxParentID    = 8
	pfxHasStamp    = 1
	pfxTSUnix      = 8
	pfxHasSHA1     = 1
	pfxSHA1W0      = 8
	pfxSHA1W1      = 8
	pfxSHA1W2      = 4

	pageFixedBytes = pfxMediaWikiID + pfxNamespace + pfxRevisionID +
		pfxHasParent + pfxParentID + pfxHasStamp + pfxTSUnix +
		pfxHasSHA1 + pfxSHA1W0 + pfxSHA1W1 + pfxSHA1W2
)

// encodedSize returns the exact number of bytes encodePage will write for p.
func encodedSize(p Page) int {
	return pageFixedBytes + 4 + len(p.Title) + 4 + len(p.RedirectTitle) + 4 + len(p.Wikitext)
}

// encodePage appends p's encoding to dst and returns the extended slice.
func encodePage(dst []byte, p Page) []byte {
	var fixed [pageFixedBytes]byte
	off := 0
	putUint64(fixed[off:], uint64(p.MediaWikiID))
	off += pfxMediaWikiID
	putUint32(fixed[off:], uint32(p.NamespaceID))
	off += pfxNamespace
	putUint64(fixed[off:], uint64(p.RevisionID))
	off += pfxRevisionID
	fixed[off] = boolByte(p.HasParent)
	off += pfxHasParent
	putUint64(fixed[off:], uint64(p.RevisionParentID))
	off += pfxParentID
	fixed[off] = boolByte(p.HasTimestamp)
	off += pfxHasStamp
	putUint64(fixed[off:], uint64(p.RevisionTSUnix))
	off += pfxTSUnix
	fixed[off] = boolByte(p.HasSHA1)
	off += pfxHasSHA1
	putUint64(fixed[off:], p.SHA1Words[0])
	off += pfxSHA1W0
	putUint64(fixed[off:], p.SHA1Words[1])
	off += pfxSHA1W1
	putUint32(fixed[off:], uint32(p.SHA1Words[2]))
	off += pfxSHA1W2

	dst = append(dst, fixed[:]...)
	dst = appendLenPrefixed(dst, p.Title)
	dst = appendLenPrefixed(dst, p.RedirectTitle)
	dst = appendLenPrefixed(dst, p.Wikitext)
	return dst
}

func appendLenPrefixed(dst []byte, s string) []byte {
	var lenBuf [4]byte
	putUint32(lenBuf[:], uint32(len(s)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, s...)
	return dst
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// PageView is a zero-copy, borrowed view over a single page's bytes
// within a ChunkView's backing array. Every accessor is a cheap slice
// operation; no field access allocates.
type PageView struct {
	buf []byte
}

func (v PageView) MediaWikiID() int64 { return int64(getUint64(v.buf[0:8])) }
func (v PageView) NamespaceID() int32 { return int32(getUint32(v.buf[8:12])) }
func (v PageView) RevisionID() int64  { return int64(getUint64(v.buf[12:20])) }

func (v PageView) HasParent() bool     { return v.buf[20] != 0 }
func (v PageView) RevisionParentID() int64 { return int64(getUint64(v.buf[21:29])) }

func (v PageView) HasTimestamp() bool   { return v.buf[29] != 0 }
func (v PageView) RevisionTSUnix() int64 { return int64(getUint64(v.buf[30:38])) }

func (v PageView) HasSHA1() bool { return v.buf[38] != 0 }
func (v PageView) SHA1Words() [3]uint64 {
	return [3]uint64{
		getUint64(v.buf[39:47]),
		getUint64(v.buf[47:55]),
		uint64(getUint32(v.buf[55:59])),
	}
}

func (v PageView) Title() string {
	s, _ := v.lenPrefixed(pageFixedBytes)
	return s
}

func (v PageView) RedirectTitle() string {
	_, next := v.lenPrefixed(pageFixedBytes)
	s, _ := v.lenPrefixed(next)
	return s
}

func (v PageView) Wikitext() string {
	_, next := v.lenPrefixed(pageFixedBytes)
	_, next = v.lenPrefixed(next)
	s, _ := v.lenPrefixed(next)
	return s
}

// lenPrefixed reads a length-prefixed byte span starting at off and
// returns it as a string (a zero-copy conversion of the backing slice)
// along with the offset immediately following the span.
func (v PageView) lenPrefixed(off int) (string, int) {
	n := int(getUint32(v.buf[off : off+4]))
	start := off + 4
	end := start + n
	return bytesToString(v.buf[start:end]), end
}

// ToPage materialises an owned Page copy of v, for use once the
// underlying mapping may be released (the copy-at-the-boundary rule).
func (v PageView) ToPage() Page {
	return Page{
		MediaWikiID:       v.MediaWikiID(),
		NamespaceID:       v.NamespaceID(),
		Title:             v.Title(),
		RedirectTitle:     v.RedirectTitle(),
		RevisionID:        v.RevisionID(),
		RevisionParentID:  v.RevisionParentID(),
		HasParent:         v.HasParent(),
		RevisionTSUnix:    v.RevisionTSUnix(),
		HasTimestamp:      v.HasTimestamp(),
		SHA1Words:         v.SHA1Words(),
		HasSHA1:           v.HasSHA1(),
		Wikitext:          v.Wikitext(),
	}
}
