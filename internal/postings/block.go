package postings

import (
	"fmt"

	"github.com/emberidx/emberidx/internal/binenc"
	emerrors "github.com/emberidx/emberidx/pkg/errors"
)

// blockHeader is the fixed three-field prefix of every block: the delta of
// this block's last document ID from the previous block's last document ID
// (0-baselined for the first block of a chunk), the byte length of the body
// that follows, and the document count n.
type blockHeader struct {
	DeltaLastDoc uint64
	BodyLength   uint64
	N            uint8
}

// readBlockHeader decodes a blockHeader starting at c's current position and
// validates it against the bytes remaining in c, returning ErrCorruptBlock
// on any inconsistency (n == 0, or a body length that overruns the chunk).
func readBlockHeader(c *binenc.Cursor) (blockHeader, error) {
	deltaLastDoc, err := c.ReadVarint()
	if err != nil {
		return blockHeader{}, fmt.Errorf("%w: reading block header delta: %v", emerrors.ErrCorruptBlock, err)
	}
	bodyLength, err := c.ReadVarint()
	if err != nil {
		return blockHeader{}, fmt.Errorf("%w: reading block body length: %v", emerrors.ErrCorruptBlock, err)
	}
	n, err := c.ReadByte()
	if err != nil {
		return blockHeader{}, fmt.Errorf("%w: reading block count: %v", emerrors.ErrCorruptBlock, err)
	}
	if n == 0 {
		return blockHeader{}, fmt.Errorf("%w: block count is zero", emerrors.ErrCorruptBlock)
	}
	if bodyLength > uint64(c.Remaining()) {
		return blockHeader{}, fmt.Errorf("%w: body length %d exceeds remaining %d bytes", emerrors.ErrCorruptBlock, bodyLength, c.Remaining())
	}
	return blockHeader{DeltaLastDoc: deltaLastDoc, BodyLength: bodyLength, N: n}, nil
}

// decodedBlock holds one fully unpacked block: absolute document IDs and
// their frequencies, plus the byte offset (within the same coordinate space
// as the cursor that produced it) where the position-delta stream for this
// block begins. Positions themselves are decoded lazily, document by
// document, since a caller may never materialize hits for most documents.
type decodedBlock struct {
	DocIDs       []DocID
	Freqs        []uint32
	PosStreamAt  int
	HeaderAt     int // offset where this block's header began
	BodyEnd      int // offset just past this block's body (start of next block's header)
	LastDocID    DocID
}

// decodeBlock reads one complete block (header, doc deltas, frequencies)
// starting at c's current position. prevLastDoc is the running "previous
// block's last document ID" baseline (0 for the first block of a chunk). On
// return, the cursor sits at the start of the position-delta stream; the
// caller is responsible for skipping or consuming exactly sum(Freqs) varints
// from there before reading the next block header.
func decodeBlock(c *binenc.Cursor, prevLastDoc DocID) (decodedBlock, error) {
	headerAt := c.Offset()
	hdr, err := readBlockHeader(c)
	if err != nil {
		return decodedBlock{}, err
	}
	n := int(hdr.N)
	lastDocID := prevLastDoc + DocID(hdr.DeltaLastDoc)

	docIDs := make([]DocID, n)
	running := prevLastDoc
	for i := 0; i < n-1; i++ {
		d, err := c.ReadVarint()
		if err != nil {
			return decodedBlock{}, fmt.Errorf("%w: reading doc delta %d: %v", emerrors.ErrCorruptBlock, i, err)
		}
		running += DocID(d)
		docIDs[i] = running
	}
	docIDs[n-1] = lastDocID

	freqs := make([]uint32, n)
	for i := 0; i < n; i++ {
		f, err := c.ReadVarint()
		if err != nil {
			return decodedBlock{}, fmt.Errorf("%w: reading freq %d: %v", emerrors.ErrCorruptBlock, i, err)
		}
		freqs[i] = uint32(f)
	}

	return decodedBlock{
		DocIDs:      docIDs,
		Freqs:       freqs,
		PosStreamAt: c.Offset(),
		HeaderAt:    headerAt,
		BodyEnd:     headerAt + binenc.VarintLen(hdr.DeltaLastDoc) + binenc.VarintLen(hdr.BodyLength) + 1 + int(hdr.BodyLength),
		LastDocID:   lastDocID,
	}, nil
}

// skipPositions advances c past count position-delta varints without
// decoding their values.
func skipPositions(c *binenc.Cursor, count uint32) error {
	for i := uint32(0); i < count; i++ {
		if _, err := c.ReadVarint(); err != nil {
			return fmt.Errorf("%w: skipping position %d/%d: %v", emerrors.ErrCorruptBlock, i, count, err)
		}
	}
	return nil
}

// readPositions decodes count delta-encoded positions starting at c's
// current position, returning their absolute values.
func readPositions(c *binenc.Cursor, count uint32) ([]Position, error) {
	positions := make([]Position, count)
	var last Position
	for i := uint32(0); i < count; i++ {
		d, err := c.ReadVarint()
		if err != nil {
			return nil, fmt.Errorf("%w: reading position %d/%d: %v", emerrors.ErrCorruptBlock, i, count, err)
		}
		last += Position(d)
		positions[i] = last
	}
	return positions, nil
}
