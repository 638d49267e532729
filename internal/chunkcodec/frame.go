// Package chunkcodec implements the chunk store's self-describing binary
// frame: a size-prefixed, magic-stamped encoding of a batch of pages with
// an offset table enabling zero-copy, per-page decode.
package chunkcodec

import "encoding/binary"

// On-disk layout (little-endian throughout):
//
//	magic        8 bytes   magicValue
//	schema ID    8 bytes   schemaV1
//	frame length 4 bytes   byte length of everything following this field
//	page count   4 bytes
//	page table   pageCount * 8 bytes   (offset uint32, length uint32) into the page-body region
//	page bodies  variable              concatenated encoded pages, see page.go
const (
	magicValue = uint64(0x57494b4953544f52) // "WIKISTOR"
	schemaV1   = uint64(1)

	magicBytes  = 8
	schemaBytes = 8
	lenBytes    = 4
	countBytes  = 4
	headerBytes = magicBytes + schemaBytes + lenBytes

	tableEntryBytes = 8 // offset(4) + length(4)
)

// Page is the canonical in-memory shape of a stored page: everything
// Encode needs to write and Decode needs to hand back.
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

func putUint64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
func putUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func getUint64(b []byte) uint64    { return binary.LittleEndian.Uint64(b) }
func getUint32(b []byte) uint32    { return binary.LittleEndian.Uint32(b) }
