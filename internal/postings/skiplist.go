package postings

import (
	"fmt"

	"github.com/emberidx/emberidx/internal/binenc"
	emerrors "github.com/emberidx/emberidx/pkg/errors"
)

// skipEntry is a sparse pointer into a term's block stream, keyed by the
// previous block's last document ID (the reference point a decoder needs to
// unpack the block the entry points at), not the current block's.
type skipEntry struct {
	PrevBlockLastDocID DocID
	ByteOffset         uint32
}

// encodeSkiplist writes the inline skiplist header: a varint entry count
// followed by (prevBlockLastDocIDDelta, byteOffset) varint pairs. Deltas are
// taken against the previous entry's PrevBlockLastDocID (0-baselined),
// matching the monotonic growth of document IDs across a term's blocks.
func encodeSkiplist(entries []skipEntry) []byte {
	w := binenc.NewWriter(4 + len(entries)*4)
	w.PutVarint(uint64(len(entries)))
	var prev DocID
	for _, e := range entries {
		w.PutVarint(uint64(e.PrevBlockLastDocID - prev))
		w.PutVarint(uint64(e.ByteOffset))
		prev = e.PrevBlockLastDocID
	}
	return w.Bytes()
}

// decodeSkiplist reads the inline skiplist header from c, returning the
// parsed entries. The cursor is left positioned at the start of the block
// stream that follows.
func decodeSkiplist(c *binenc.Cursor) ([]skipEntry, error) {
	count, err := c.ReadVarint()
	if err != nil {
		return nil, fmt.Errorf("%w: reading skiplist entry count: %v", emerrors.ErrCorruptBlock, err)
	}
	entries := make([]skipEntry, 0, count)
	var prev DocID
	for i := uint64(0); i < count; i++ {
		delta, err := c.ReadVarint()
		if err != nil {
			return nil, fmt.Errorf("%w: reading skiplist entry %d delta: %v", emerrors.ErrCorruptBlock, i, err)
		}
		offset, err := c.ReadVarint()
		if err != nil {
			return nil, fmt.Errorf("%w: reading skiplist entry %d offset: %v", emerrors.ErrCorruptBlock, i, err)
		}
		prev += DocID(delta)
		entries = append(entries, skipEntry{PrevBlockLastDocID: prev, ByteOffset: uint32(offset)})
	}
	return entries, nil
}

// searchSkiplist finds the rightmost entry whose PrevBlockLastDocID < target,
// starting the search no earlier than fromIdx (skiplist jumps are monotonic:
// a decoder never needs to reconsider an entry it has already jumped past).
// It returns the entry's index, or -1 if none qualifies.
func searchSkiplist(entries []skipEntry, fromIdx int, target DocID) int {
	lo, hi := fromIdx, len(entries)-1
	best := -1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if entries[mid].PrevBlockLastDocID < target {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}
