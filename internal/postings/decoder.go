package postings

import (
	"fmt"

	"github.com/emberidx/emberidx/internal/binenc"
	"github.com/emberidx/emberidx/pkg/metrics"
)

// Decoder sequentially or randomly walks one term's posting-list chunk. A
// zero Decoder is not usable; call Init first.
type Decoder struct {
	data            []byte
	skiplist        []skipEntry
	blockStreamBase int
	skipIdx         int

	terminal bool
	block    decodedBlock
	curIdx   int
	posOffset int

	metrics *metrics.Metrics
}

// SetMetrics attaches a Prometheus collector set that loadBlockFrom
// increments on every block it reads. Must be called after Init, since Init
// resets the decoder to its zero value. Optional; a nil metrics leaves the
// decoder fully functional.
func (d *Decoder) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// Init binds the decoder to termCtx's chunk within access's posting file.
// If the chunk is empty the decoder enters the terminal state immediately.
func (d *Decoder) Init(ctx TermCtx, access Access) error {
	*d = Decoder{}
	if ctx.Chunk.Length == 0 {
		d.terminal = true
		return nil
	}
	data, err := access.Slice(ctx.Chunk.Offset, ctx.Chunk.Length)
	if err != nil {
		return fmt.Errorf("postings: slicing chunk: %w", err)
	}
	cursor := binenc.NewCursor(data)
	skiplist, err := decodeSkiplist(cursor)
	if err != nil {
		return err
	}
	d.data = data
	d.skiplist = skiplist
	d.blockStreamBase = cursor.Offset()
	return nil
}

// Begin unpacks the first block and returns its first document ID, or
// ExhaustedDocID if the chunk is empty.
func (d *Decoder) Begin() (DocID, error) {
	if d.terminal {
		return ExhaustedDocID, nil
	}
	ok, err := d.loadBlockFrom(d.blockStreamBase, 0)
	if err != nil {
		return 0, err
	}
	if !ok {
		return ExhaustedDocID, nil
	}
	return d.block.DocIDs[0], nil
}

// CurrentDocument returns the document ID at the decoder's current position,
// or ExhaustedDocID if terminal.
func (d *Decoder) CurrentDocument() DocID {
	if d.terminal {
		return ExhaustedDocID
	}
	return d.block.DocIDs[d.curIdx]
}

// CurrentFrequency returns the frequency for the current document. The
// value is valid until MaterializeHits is called or the decoder advances.
func (d *Decoder) CurrentFrequency() uint32 {
	if d.terminal {
		return 0
	}
	return d.block.Freqs[d.curIdx]
}

// MaterializeHits decodes the current document's positions, appends them to
// out as Hits, records each occurrence in ws, and zeroes the internal
// frequency counter for this slot so a subsequent Next skips no bytes for
// it. It returns the extended slice.
func (d *Decoder) MaterializeHits(termID uint32, ws WordSpace, out []Hit) ([]Hit, error) {
	if d.terminal {
		return out, nil
	}
	freq := d.block.Freqs[d.curIdx]
	if freq == 0 {
		return out, nil
	}
	c := binenc.NewCursor(d.data)
	if err := c.SeekTo(d.posOffset); err != nil {
		return out, err
	}
	positions, err := readPositions(c, freq)
	if err != nil {
		return out, err
	}
	for _, p := range positions {
		out = append(out, Hit{Position: p})
		ws.Set(termID, p)
	}
	d.posOffset = c.Offset()
	d.block.Freqs[d.curIdx] = 0
	return out, nil
}

// Next advances to the next document, discarding any unmaterialized
// positions of the current one. It returns false on exhaustion.
func (d *Decoder) Next() (bool, error) {
	if d.terminal {
		return false, nil
	}
	if err := d.discardCurrentPositions(); err != nil {
		return false, err
	}
	d.curIdx++
	if d.curIdx < len(d.block.DocIDs) {
		return true, nil
	}
	return d.loadBlockFrom(d.block.BodyEnd, d.block.LastDocID)
}

// Seek positions the decoder at the smallest document >= target, returning
// true iff it lands exactly on target. Behavior for a target not greater
// than the current document is undefined by contract; this implementation
// simply reports equality without moving.
func (d *Decoder) Seek(target DocID) (bool, error) {
	if d.terminal {
		return false, nil
	}
	if target <= d.CurrentDocument() {
		return d.CurrentDocument() == target, nil
	}
	if target <= d.block.LastDocID {
		return d.scanWithinBlock(target)
	}
	if err := d.discardCurrentPositions(); err != nil {
		return false, err
	}

	startOffset := d.block.BodyEnd
	prevLastDoc := d.block.LastDocID
	if idx := searchSkiplist(d.skiplist, d.skipIdx, target); idx >= 0 {
		entry := d.skiplist[idx]
		startOffset = d.blockStreamBase + int(entry.ByteOffset)
		prevLastDoc = entry.PrevBlockLastDocID
		d.skipIdx = idx + 1
	}

	for {
		ok, err := d.loadBlockFrom(startOffset, prevLastDoc)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if d.block.LastDocID >= target {
			break
		}
		startOffset = d.block.BodyEnd
		prevLastDoc = d.block.LastDocID
	}
	return d.scanWithinBlock(target)
}

// scanWithinBlock linearly walks the current block from curIdx forward,
// discarding unread positions for skipped documents, until it reaches the
// smallest document >= target (guaranteed to exist since the caller has
// already confirmed target <= the block's last document).
func (d *Decoder) scanWithinBlock(target DocID) (bool, error) {
	for d.block.DocIDs[d.curIdx] < target {
		if err := d.discardCurrentPositions(); err != nil {
			return false, err
		}
		d.curIdx++
	}
	return d.block.DocIDs[d.curIdx] == target, nil
}

// discardCurrentPositions skips any position bytes not yet consumed for the
// document at curIdx, without decoding their values.
func (d *Decoder) discardCurrentPositions() error {
	freq := d.block.Freqs[d.curIdx]
	if freq == 0 {
		return nil
	}
	c := binenc.NewCursor(d.data)
	if err := c.SeekTo(d.posOffset); err != nil {
		return err
	}
	if err := skipPositions(c, freq); err != nil {
		return err
	}
	d.posOffset = c.Offset()
	return nil
}

// loadBlockFrom decodes the block at offset using prevLastDoc as the
// decoding baseline, or enters the terminal state if offset is past the end
// of the chunk.
func (d *Decoder) loadBlockFrom(offset int, prevLastDoc DocID) (bool, error) {
	if offset >= len(d.data) {
		d.terminal = true
		return false, nil
	}
	c := binenc.NewCursor(d.data)
	if err := c.SeekTo(offset); err != nil {
		return false, err
	}
	blk, err := decodeBlock(c, prevLastDoc)
	if err != nil {
		return false, err
	}
	d.block = blk
	d.curIdx = 0
	d.posOffset = blk.PosStreamAt
	if d.metrics != nil {
		d.metrics.BlocksDecodedTotal.Inc()
	}
	return true, nil
}
