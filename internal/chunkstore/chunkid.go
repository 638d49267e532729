package chunkstore

import "fmt"

// ChunkID identifies an immutable chunk file. Allocation is the Index's
// job (a counter row updated under the commit transaction); this package
// only ever receives already-allocated IDs.
type ChunkID uint64

const filenamePadding = 20 // fits the full range of a uint64 in base 10

func chunkFileName(id ChunkID) string {
	return fmt.Sprintf("articles-%0*d.dat", filenamePadding, uint64(id))
}
