package chunkstore

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"wikistore/internal/chunkcodec"
)

// refCountedMapping is the shared backing for every outstanding
// MappedChunk over a given ChunkID: two readers of the same hot chunk
// share one mmap region instead of mapping the file twice.
type refCountedMapping struct {
	file *os.File
	data []byte
	view *chunkcodec.ChunkView
	refs int
}

func openMapping(path string) (*refCountedMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chunk file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat chunk file: %w", err)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, ErrMmapEmpty
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap chunk file: %w", err)
	}

	view, err := chunkcodec.Decode(data)
	if err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, fmt.Errorf("verify chunk frame: %w", err)
	}

	return &refCountedMapping{file: f, data: data, view: view, refs: 0}, nil
}

func (m *refCountedMapping) forceClose() error {
	var first error
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			first = err
		}
		m.data = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil && first == nil {
			first = err
		}
		m.file = nil
	}
	return first
}

// MappedChunk is a handle to a memory-mapped, already-verified chunk.
// Close must be called exactly once per handle returned from Store.Map;
// the underlying mapping is only unmapped once its last handle closes.
type MappedChunk struct {
	store *Store
	id    ChunkID
	mapping *refCountedMapping
	closed  bool
}

// View returns the zero-copy ChunkView over this mapping.
func (m *MappedChunk) View() *chunkcodec.ChunkView {
	return m.mapping.view
}

// Close releases this handle's reference to the mapping. When the last
// outstanding handle for a chunk closes, the mapping is unmapped.
func (m *MappedChunk) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	m.mapping.refs--
	if m.mapping.refs > 0 {
		return nil
	}
	delete(m.store.mapped, m.id)
	return m.mapping.forceClose()
}

// Map returns a handle to id's committed chunk, memory-mapping and
// verifying it on first access and sharing the mapping with any other
// currently-open handle for the same chunk thereafter.
func (s *Store) Map(id ChunkID) (*MappedChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rc, ok := s.mapped[id]; ok {
		rc.refs++
		return &MappedChunk{store: s, id: id, mapping: rc}, nil
	}

	path := s.Path(id)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrChunkNotFound
		}
		return nil, fmt.Errorf("stat chunk file: %w", err)
	}

	rc, err := openMapping(path)
	if err != nil {
		return nil, err
	}
	rc.refs = 1
	s.mapped[id] = rc
	return &MappedChunk{store: s, id: id, mapping: rc}, nil
}
