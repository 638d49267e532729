package wikistore

import "wikistore/internal/storeerr"

// Kind classifies a StoreError so callers can branch on failure category
// without parsing message text. It is an alias of the shared taxonomy in
// internal/storeerr so that internal packages (notably the import
// coordinator, which must construct these without importing this
// top-level package) and callers of the public API see the same type.
type Kind = storeerr.Kind

const (
	KindDumpParse    = storeerr.KindDumpParse
	KindChunkCodec   = storeerr.KindChunkCodec
	KindChunkStoreIO = storeerr.KindChunkStoreIO
	KindIndex        = storeerr.KindIndex
	KindNotFound     = storeerr.KindNotFound
	KindCancelled    = storeerr.KindCancelled
	KindConflict     = storeerr.KindConflict
)

// StoreError is the error type returned across every package boundary in
// this module.
type StoreError = storeerr.StoreError

// ErrNotFound is the benign not-found sentinel.
var ErrNotFound = storeerr.ErrNotFound

// ErrCancelled is returned by in-flight operations observing a
// cancelled context at a batch boundary.
var ErrCancelled = storeerr.ErrCancelled

// IsNotFound reports whether err is, or wraps, the not-found sentinel.
func IsNotFound(err error) bool {
	return storeerr.IsNotFound(err)
}

// ErrorKind extracts the Kind of err, or "" if err is not a *StoreError.
func ErrorKind(err error) Kind {
	return storeerr.ErrorKind(err)
}

// newErr wraps err as a StoreError for op, defaulting its Kind to kind —
// unless err is already a *StoreError, in which case its own Kind is
// preserved (a cancelled or dump-parse-failed import must still report
// as such through the public API, not as whatever Kind the calling
// method happens to default to).
func newErr(kind Kind, op string, err error) *StoreError {
	if se, ok := err.(*StoreError); ok {
		kind = se.Kind
	}
	return storeerr.New(kind, op, err)
}
