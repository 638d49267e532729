package chunkcodec

import "fmt"

// Encode allocates and returns the binary frame for pages.
func Encode(pages []Page) []byte {
	bodySize := 0
	sizes := make([]int, len(pages))
	for i, p := range pages {
		sizes[i] = encodedSize(p)
		bodySize += sizes[i]
	}

	tableSize := len(pages) * tableEntryBytes
	frameBodyLen := countBytes + tableSize + bodySize
	total := headerBytes + frameBodyLen

	buf := make([]byte, 0, total)
	var hdr [headerBytes]byte
	putUint64(hdr[0:8], magicValue)
	putUint64(hdr[8:16], schemaV1)
	putUint32(hdr[16:20], uint32(frameBodyLen))
	buf = append(buf, hdr[:]...)

	var cnt [countBytes]byte
	putUint32(cnt[:], uint32(len(pages)))
	buf = append(buf, cnt[:]...)

	table := make([]byte, tableSize)
	offset := uint32(0)
	for i, sz := range sizes {
		putUint32(table[i*8:i*8+4], offset)
		putUint32(table[i*8+4:i*8+8], uint32(sz))
		offset += uint32(sz)
	}
	buf = append(buf, table...)

	for _, p := range pages {
		buf = encodePage(buf, p)
	}
	return buf
}

// ChunkView is a borrowed, verified view over an encoded frame. Verify
// has already run by the time a ChunkView is returned from Decode.
type ChunkView struct {
	buf       []byte // the whole frame
	pageTable []byte // the slice of buf holding the offset/length table
	bodies    []byte // the slice of buf holding page bodies
	count     int
}

// Verify performs the structural check (magic, schema, declared length,
// table sanity) without materialising a ChunkView. It is intended to run
// once per chunk mapping.
func Verify(buf []byte) error {
	_, err := parse(buf)
	return err
}

// Decode verifies buf and returns a ChunkView borrowing it.
func Decode(buf []byte) (*ChunkView, error) {
	return parse(buf)
}

func parse(buf []byte) (*ChunkView, error) {
	if len(buf) < headerBytes+countBytes {
		return nil, ErrFrameTooSmall
	}
	if getUint64(buf[0:8]) != magicValue {
		return nil, ErrBadMagic
	}
	if getUint64(buf[8:16]) != schemaV1 {
		return nil, ErrSchemaMismatch
	}
	declared := int(getUint32(buf[16:20]))
	if headerBytes+declared != len(buf) {
		return nil, fmt.Errorf("%w: declared %d, have %d", ErrLengthMismatch, declared, len(buf)-headerBytes)
	}

	count := int(getUint32(buf[headerBytes : headerBytes+countBytes]))
	tableStart := headerBytes + countBytes
	tableEnd := tableStart + count*tableEntryBytes
	if tableEnd > len(buf) {
		return nil, fmt.Errorf("%w: page table runs past end of frame", ErrTableCorrupt)
	}
	bodies := buf[tableEnd:]

	table := buf[tableStart:tableEnd]
	expect := uint32(0)
	for i := 0; i < count; i++ {
		off := getUint32(table[i*8 : i*8+4])
		sz := getUint32(table[i*8+4 : i*8+8])
		if off != expect {
			return nil, fmt.Errorf("%w: page %d offset %d is not contiguous (expected %d)", ErrTableCorrupt, i, off, expect)
		}
		if uint64(off)+uint64(sz) > uint64(len(bodies)) {
			return nil, fmt.Errorf("%w: page %d span runs past end of bodies region", ErrTableCorrupt, i)
		}
		expect = off + sz
	}

	return &ChunkView{buf: buf, pageTable: table, bodies: bodies, count: count}, nil
}

// Count returns the number of pages in the chunk.
func (c *ChunkView) Count() int { return c.count }

// Page returns a zero-copy view of the page at slot, or
// ErrSlotOutOfRange.
func (c *ChunkView) Page(slot int) (PageView, error) {
	if slot < 0 || slot >= c.count {
		return PageView{}, ErrSlotOutOfRange
	}
	off := getUint32(c.pageTable[slot*8 : slot*8+4])
	sz := getUint32(c.pageTable[slot*8+4 : slot*8+8])
	return PageView{buf: c.bodies[off : off+sz]}, nil
}

// Pages returns owned copies of every page in the chunk, in slot order.
func (c *ChunkView) Pages() ([]Page, error) {
	out := make([]Page, c.count)
	for i := 0; i < c.count; i++ {
		v, err := c.Page(i)
		if err != nil {
			return nil, err
		}
		out[i] = v.ToPage()
	}
	return out, nil
}
