// Package chunkstore manages a directory of append-only, immutable chunk
// files: allocating their on-disk names, writing them atomically, and
// serving memory-mapped reads with reference-counted mapping reuse.
package chunkstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"wikistore/internal/chunkcodec"
)

const (
	chunksDirName = "chunks"
	tempDirName   = "temp"
	lockFileName  = "lock"
)

// Config configures a Store. Dir is the store-wide root; the store keeps
// its own chunks/ subdirectory beneath it. Now is an injectable clock
// kept on the Store; it defaults to time.Now, and no Store method reads it.
type Config struct {
	Dir    string
	Logger *slog.Logger
	Now    func() time.Time
}

// Store manages one store root's chunk directory.
type Store struct {
	dir     string
	log     *slog.Logger
	now     func() time.Time
	flock   *flock.Flock

	mu     sync.RWMutex
	mapped map[ChunkID]*refCountedMapping
}

// Open creates (if needed) the chunks/ directory tree beneath cfg.Dir and
// returns a ready-to-use Store. It does not acquire the writer lock;
// Lock/Unlock bracket the commit protocol explicitly.
func Open(cfg Config) (*Store, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "chunkstore")

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	chunksDir := filepath.Join(cfg.Dir, chunksDirName)
	tempDir := filepath.Join(chunksDir, tempDirName)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk directories: %w", err)
	}

	lockPath := filepath.Join(chunksDir, lockFileName)
	s := &Store{
		dir:    chunksDir,
		log:    log,
		now:    now,
		flock:  flock.New(lockPath),
		mapped: make(map[ChunkID]*refCountedMapping),
	}
	return s, nil
}

// Lock acquires the exclusive advisory writer lock over chunks/lock,
// blocking until it is available.
func (s *Store) Lock() error {
	if err := s.flock.Lock(); err != nil {
		return fmt.Errorf("acquire chunk store lock: %w", err)
	}
	return nil
}

// TryLock attempts to acquire the writer lock without blocking. It
// reports false when the lock is already held, including when it is held
// through this same Store.
func (s *Store) TryLock() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flock.Locked() {
		return false, nil
	}
	ok, err := s.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire chunk store lock: %w", err)
	}
	return ok, nil
}

// Unlock releases the writer lock. Safe to call when not held.
func (s *Store) Unlock() error {
	if !s.flock.Locked() {
		return nil
	}
	if err := s.flock.Unlock(); err != nil {
		return fmt.Errorf("release chunk store lock: %w", err)
	}
	return nil
}

// WriteTemp encodes pages and writes them to a new chunks/temp/<uuid>.dat
// file, fsyncing before returning. The caller (the import coordinator)
// owns sequencing the rename into the final name with the index
// transaction that records it.
func (s *Store) WriteTemp(pages []chunkcodec.Page) (tempPath string, err error) {
	buf := chunkcodec.Encode(pages)

	tempPath = filepath.Join(s.dir, tempDirName, uuid.NewString()+".dat")
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create temp chunk file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close temp chunk file: %w", cerr)
		}
	}()

	if _, err = f.Write(buf); err != nil {
		return "", fmt.Errorf("write temp chunk file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return "", fmt.Errorf("fsync temp chunk file: %w", err)
	}
	s.log.Debug("wrote temp chunk", "path", tempPath, "pages", len(pages), "bytes", len(buf))
	return tempPath, nil
}

// Commit renames tempPath into its final committed name for id and
// fsyncs the chunks directory, per the write path in the chunk store's
// contract. The caller must already hold the writer lock; it records the
// committed chunk in an index transaction it begins after Commit returns
// (see the importer's commit protocol).
func (s *Store) Commit(tempPath string, id ChunkID) (finalPath string, err error) {
	finalPath = filepath.Join(s.dir, chunkFileName(id))
	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", fmt.Errorf("rename chunk into place: %w", err)
	}
	if err := fsyncDir(s.dir); err != nil {
		return "", fmt.Errorf("fsync chunk directory: %w", err)
	}
	s.log.Debug("committed chunk", "id", uint64(id), "path", finalPath)
	return finalPath, nil
}

// DiscardTemp removes a temp file left behind by a batch that failed or
// was cancelled before Commit.
func (s *Store) DiscardTemp(tempPath string) error {
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard temp chunk file: %w", err)
	}
	return nil
}

// Path returns the final committed path for id, whether or not it
// exists yet.
func (s *Store) Path(id ChunkID) string {
	return filepath.Join(s.dir, chunkFileName(id))
}

// Exists reports whether id's committed chunk file is present on disk.
func (s *Store) Exists(id ChunkID) bool {
	_, err := os.Stat(s.Path(id))
	return err == nil
}

// TempDir returns the chunks/temp directory, for recovery sweeps.
func (s *Store) TempDir() string {
	return filepath.Join(s.dir, tempDirName)
}

// Dir returns the chunks/ directory itself, for recovery sweeps.
func (s *Store) Dir() string {
	return s.dir
}

func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Close releases every currently-held memory mapping and the writer
// lock, if held.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	for id, rc := range s.mapped {
		if err := rc.forceClose(); err != nil && first == nil {
			first = fmt.Errorf("close mapping for chunk %d: %w", uint64(id), err)
		}
	}
	s.mapped = make(map[ChunkID]*refCountedMapping)

	if err := s.Unlock(); err != nil && first == nil {
		first = err
	}
	return first
}
