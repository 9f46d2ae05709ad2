package terms

import (
	"github.com/emberidx/emberidx/internal/binenc"
	"github.com/emberidx/emberidx/internal/postings"
)

// Cursor walks a terms dictionary in ascending term order. Implementations
// may be front-coded (as produced by Pack) or flat; it is the abstraction
// boundary the merge engine uses to fuse dictionaries without caring which.
type Cursor interface {
	// Current returns the term and TermCtx at the cursor's position. It is
	// only valid to call while Done reports false.
	Current() ([]byte, postings.TermCtx)
	// Next advances to the next term, returning false once the cursor is
	// exhausted.
	Next() (bool, error)
	Done() bool
}

// frontCodedCursor sequentially decodes the front-coded data stream of a
// packed terms.data file.
type frontCodedCursor struct {
	cursor   *binenc.Cursor
	end      int
	prevFull []byte
	curTerm  []byte
	curCtx   postings.TermCtx
	done     bool
}

// NewCursor parses data (a full terms.data file) and returns a Cursor
// positioned at its first term, or an exhausted Cursor if it has none.
func NewCursor(data []byte) (Cursor, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	dataStart := HeaderSize + int(hdr.SkiplistByteLength)
	dataBytes := data[dataStart:]
	c := &frontCodedCursor{cursor: binenc.NewCursor(dataBytes), end: len(dataBytes)}
	if err := c.advance(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *frontCodedCursor) advance() error {
	if c.cursor.Offset() >= c.end {
		c.done = true
		c.curTerm = nil
		return nil
	}
	rec, err := decodeRecord(c.cursor, c.prevFull)
	if err != nil {
		return err
	}
	c.curTerm = rec.Full
	c.curCtx = rec.Term
	c.prevFull = rec.Full
	return nil
}

func (c *frontCodedCursor) Current() ([]byte, postings.TermCtx) {
	return c.curTerm, c.curCtx
}

func (c *frontCodedCursor) Next() (bool, error) {
	if c.done {
		return false, nil
	}
	if err := c.advance(); err != nil {
		return false, err
	}
	return !c.done, nil
}

func (c *frontCodedCursor) Done() bool {
	return c.done
}
