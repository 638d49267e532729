// Package storeerr defines the error taxonomy shared across every
// package boundary in this module (a leaf package so that both the
// top-level wikistore API and internal/importer can construct and
// inspect these errors without an import cycle between them).
package storeerr

import (
	"errors"
	"fmt"
)

// Kind classifies a StoreError so callers can branch on failure category
// without parsing message text.
type Kind string

const (
	KindDumpParse    Kind = "dump_parse"
	KindChunkCodec   Kind = "chunk_codec"
	KindChunkStoreIO Kind = "chunk_store_io"
	KindIndex        Kind = "index"
	KindNotFound     Kind = "not_found"
	KindCancelled    Kind = "cancelled"
	KindConflict     Kind = "conflict"
)

// StoreError is the error type returned across every package boundary in
// this module. Op names the failing operation (e.g. "GetPageByID"); Err is
// the underlying cause, if any.
type StoreError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, &StoreError{Kind: KindNotFound}) match any
// StoreError of the same Kind, regardless of Op or wrapped cause.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// ErrNotFound is the benign not-found sentinel; NotFound never surfaces
// as a bare error value constructed ad hoc, always as this sentinel or
// one wrapping it via errors.Is.
var ErrNotFound = &StoreError{Kind: KindNotFound}

// ErrCancelled is returned by in-flight operations observing a
// cancelled context at a batch boundary.
var ErrCancelled = &StoreError{Kind: KindCancelled}

// New constructs a StoreError for op with the given kind and cause.
func New(kind Kind, op string, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: err}
}

// NewDumpParseFailure wraps a fatal dump-parse failure with the file
// that triggered it, for the import coordinator's abort path.
func NewDumpParseFailure(file string) *StoreError {
	return &StoreError{Kind: KindDumpParse, Op: "Import", Err: fmt.Errorf("fatal parse error in %s", file)}
}

// IsNotFound reports whether err is, or wraps, the not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ErrorKind extracts the Kind of err, or "" if err is not a *StoreError.
func ErrorKind(err error) Kind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
