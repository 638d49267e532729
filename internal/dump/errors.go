package dump

import "fmt"

// ParseError is a fatal dump-parse failure carrying the approximate byte
// offset into the decompressed XML stream at which it was detected.
type ParseError struct {
	Offset int64
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dump parse error at offset %d: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("dump parse error at offset %d: %s", e.Offset, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
