package dump

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"
)

// parserState names the pull-parser's position in the element tree the
// dump's page-record subset occupies: OUTSIDE -> IN_PAGE -> IN_REVISION ->
// IN_PAGE -> OUTSIDE.
type parserState int

const (
	stateOutside parserState = iota
	stateInPage
	stateInRevision
)

// Reader is a single-pass, non-restartable source of Page values drawn
// from one dump file.
type Reader struct {
	file    *os.File
	closers []func() error
	dec     *xml.Decoder

	pageLimit int64 // 0 means unlimited
	emitted   int64
	done      bool
}

// Open opens path, wrapping it in the decompressor implied by hint (or
// inferred from the file extension when hint is CompressionAuto), and
// returns a Reader ready to stream Page values via Next.
//
// pageLimit, if > 0, is an approximate cap: emission stops at the first
// page boundary at or past the limit.
func Open(path string, hint Compression, pageLimit int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump file: %w", err)
	}

	c := hint
	if c == CompressionAuto {
		c = detect(path)
	}

	decompressed, closeDecomp, err := wrap(bufio.NewReaderSize(f, 1<<20), c)
	if err != nil {
		f.Close()
		return nil, err
	}

	dec := xml.NewDecoder(decompressed)
	return &Reader{
		file:      f,
		closers:   []func() error{closeDecomp, f.Close},
		dec:       dec,
		pageLimit: pageLimit,
	}, nil
}

// Close releases the underlying file and any decompressor resources.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Next returns the next Page in source order, io.EOF when the dump (or
// the approximate page limit) is exhausted, or a *ParseError on malformed
// input.
func (r *Reader) Next() (Page, error) {
	if r.done {
		return Page{}, io.EOF
	}
	if r.pageLimit > 0 && r.emitted >= r.pageLimit {
		r.done = true
		return Page{}, io.EOF
	}

	state := stateOutside
	var cur Page
	var curRev Revision
	var haveRev, nsSeen bool
	var chardata string

	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			r.done = true
			return Page{}, io.EOF
		}
		if err != nil {
			return Page{}, &ParseError{Offset: r.dec.InputOffset(), Msg: "xml token error", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch state {
			case stateOutside:
				if t.Name.Local == "page" {
					state = stateInPage
					cur = Page{}
					haveRev = false
					nsSeen = false
				}
			case stateInPage:
				switch t.Name.Local {
				case "revision":
					state = stateInRevision
					curRev = Revision{}
				case "redirect":
					for _, a := range t.Attr {
						if a.Name.Local == "title" {
							cur.RedirectTitle = a.Value
						}
					}
				}
				chardata = ""
			case stateInRevision:
				chardata = ""
			}
		case xml.CharData:
			chardata += string(t)
		case xml.EndElement:
			switch state {
			case stateInRevision:
				if err := r.endInRevision(t.Name.Local, chardata, &curRev); err != nil {
					return Page{}, &ParseError{Offset: r.dec.InputOffset(), Msg: "invalid revision field", Err: err}
				}
				chardata = ""
				if t.Name.Local == "revision" {
					cur.Revision = curRev
					haveRev = true
					state = stateInPage
				}
			case stateInPage:
				switch t.Name.Local {
				case "id":
					if cur.ID == 0 {
						id, err := parseInt64(chardata)
						if err != nil {
							return Page{}, &ParseError{Offset: r.dec.InputOffset(), Msg: "invalid page id", Err: err}
						}
						cur.ID = id
					}
				case "ns":
					ns, err := parseInt32(chardata)
					if err != nil {
						return Page{}, &ParseError{Offset: r.dec.InputOffset(), Msg: "invalid namespace", Err: err}
					}
					cur.Namespace = ns
					nsSeen = true
				case "title":
					cur.Title = chardata
				case "page":
					state = stateOutside
					if cur.ID == 0 || cur.Title == "" || !nsSeen {
						return Page{}, &ParseError{Offset: r.dec.InputOffset(), Msg: "page missing required id, title, or ns"}
					}
					if !haveRev {
						return Page{}, &ParseError{Offset: r.dec.InputOffset(), Msg: "page has no revision"}
					}
					r.emitted++
					return cur, nil
				}
				chardata = ""
			}
		}
	}
}

// endInRevision applies the text accumulated for a closing child element
// of <revision> (local name) to rev.
func (r *Reader) endInRevision(local, chardata string, rev *Revision) error {
	switch local {
	case "id":
		id, err := parseInt64(chardata)
		if err != nil {
			return err
		}
		rev.ID = id
	case "parentid":
		id, err := parseInt64(chardata)
		if err != nil {
			return err
		}
		rev.ParentID = id
		rev.HasParent = true
	case "timestamp":
		ts, err := time.Parse(time.RFC3339, chardata)
		if err != nil {
			return fmt.Errorf("timestamp %q is not RFC3339: %w", chardata, err)
		}
		if ts.Nanosecond() != 0 {
			return fmt.Errorf("timestamp %q carries sub-second precision, which dumps never do", chardata)
		}
		rev.Timestamp = ts
		rev.HasStamp = true
	case "sha1":
		words, err := decodeBase36SHA1(chardata)
		if err != nil {
			return err
		}
		rev.SHA1Words = words
		rev.HasSHA1 = true
	case "text":
		rev.Text = chardata
	}
	return nil
}
