package chunkstore

import "errors"

var (
	// ErrLocked is returned when the chunks/lock advisory lock is already
	// held by another process.
	ErrLocked = errors.New("chunkstore: directory locked by another writer")
	// ErrChunkNotFound is returned by Map for a chunk ID with no
	// corresponding committed file on disk.
	ErrChunkNotFound = errors.New("chunkstore: chunk file not found")
	// ErrMmapEmpty is returned when attempting to map a zero-length
	// chunk file (never produced by a correct writer; signals a
	// corrupted or truncated commit).
	ErrMmapEmpty = errors.New("chunkstore: chunk file is empty")
)
