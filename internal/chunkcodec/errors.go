package chunkcodec

import "errors"

var (
	// ErrFrameTooSmall is returned when a byte slice is shorter than the
	// minimum possible frame.
	ErrFrameTooSmall = errors.New("chunkcodec: frame too small")
	// ErrBadMagic is returned when the leading magic value does not match.
	ErrBadMagic = errors.New("chunkcodec: bad magic")
	// ErrSchemaMismatch is returned for a schema ID this decoder does not
	// understand.
	ErrSchemaMismatch = errors.New("chunkcodec: unsupported schema")
	// ErrLengthMismatch is returned when the declared frame length does
	// not match the number of bytes actually available.
	ErrLengthMismatch = errors.New("chunkcodec: declared length mismatch")
	// ErrTableCorrupt is returned when the page offset table does not
	// describe monotonic, in-bounds spans.
	ErrTableCorrupt = errors.New("chunkcodec: page table corrupt")
	// ErrSlotOutOfRange is returned by ChunkView.Page for an out-of-bounds
	// slot index.
	ErrSlotOutOfRange = errors.New("chunkcodec: slot index out of range")
)
