package binenc

import "fmt"

// Cursor is a non-owning read position over a byte range. It never owns the
// underlying memory: callers (typically a mapped segment file) must keep the
// backing slice alive for the Cursor's entire lifetime.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor returns a Cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Offset returns the current read position relative to the start of data.
func (c *Cursor) Offset() int { return c.pos }

// Len returns the total length of the underlying range.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Done reports whether the cursor has consumed every byte.
func (c *Cursor) Done() bool { return c.pos >= len(c.data) }

// SeekTo repositions the cursor to an absolute offset within data.
func (c *Cursor) SeekTo(offset int) error {
	if offset < 0 || offset > len(c.data) {
		return fmt.Errorf("binenc: seek offset %d out of range [0,%d]", offset, len(c.data))
	}
	c.pos = offset
	return nil
}

// Skip advances the cursor by n bytes without inspecting them.
func (c *Cursor) Skip(n int) error {
	if n < 0 || c.pos+n > len(c.data) {
		return fmt.Errorf("binenc: skip %d bytes overruns range of length %d at offset %d", n, len(c.data), c.pos)
	}
	c.pos += n
	return nil
}

// ReadByte reads and consumes one byte.
func (c *Cursor) ReadByte() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, ErrTruncated
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// ReadRaw consumes and returns the next n bytes. The returned slice aliases
// the underlying data and must not be retained past the backing mapping's
// lifetime.
func (c *Cursor) ReadRaw(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, fmt.Errorf("binenc: read %d bytes overruns range of length %d at offset %d", n, len(c.data), c.pos)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadVarint decodes and consumes one varint.
func (c *Cursor) ReadVarint() (uint64, error) {
	v, n, err := ReadVarint(c.data[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}
