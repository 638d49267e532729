// Package index is the relational store mapping page IDs, titles, and
// category memberships to chunk-store locations: a single-writer,
// many-reader SQLite database in WAL mode.
package index

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultBusyTimeout = 30 * time.Second

// Config configures an Index. Path is the index.db file beneath the
// store root's index/ subdirectory.
type Config struct {
	Path        string
	Logger      *slog.Logger
	BusyTimeout time.Duration
}

// Index wraps two *sql.DB handles over the same file: a single-connection
// writer and a bounded reader pool, matching the contract that a single
// writer serialises all writes while many readers run concurrently off
// snapshot isolation.
type Index struct {
	writer *sql.DB
	reader *sql.DB
	log    *slog.Logger
}

// Open migrates (if needed) and opens the index database at cfg.Path.
func Open(cfg Config) (*Index, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "index")

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	busyMS := int(busy / time.Millisecond)

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	writerDSN := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d&_foreign_keys=on", cfg.Path, busyMS)
	writer, err := sql.Open("sqlite3", writerDSN)
	if err != nil {
		return nil, fmt.Errorf("open writer connection: %w", err)
	}
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)

	// mattn/go-sqlite3 does not reliably apply every DSN pragma on every
	// platform, so the critical ones are re-asserted explicitly.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyMS),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := writer.Exec(pragma); err != nil {
			writer.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	for _, stmt := range schemaStatements {
		if _, err := writer.Exec(stmt); err != nil {
			writer.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	readerDSN := fmt.Sprintf("file:%s?mode=ro&_query_only=1&_busy_timeout=%d", cfg.Path, busyMS)
	reader, err := sql.Open("sqlite3", readerDSN)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader pool: %w", err)
	}
	reader.SetMaxOpenConns(runtime.NumCPU())

	return &Index{writer: writer, reader: reader, log: log}, nil
}

// Close releases both connection pools.
func (ix *Index) Close() error {
	var first error
	if err := ix.reader.Close(); err != nil {
		first = err
	}
	if err := ix.writer.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
