package postings

import (
	"fmt"

	"github.com/emberidx/emberidx/internal/binenc"
	emerrors "github.com/emberidx/emberidx/pkg/errors"
	"github.com/emberidx/emberidx/pkg/metrics"
)

// ChunkSink receives one term's finished chunk bytes and returns the offset
// it was written at within the session's posting stream. Implementations
// must append the bytes verbatim and never rewrite a previously returned
// range; internal/segment.Session is the production implementation.
type ChunkSink interface {
	AppendChunk(data []byte) (offset uint32, err error)
}

type openDocument struct {
	docID     DocID
	freq      uint32
	positions []Position
	lastPos   Position
	havePos   bool
	open      bool
}

// Encoder builds one term's posting-list chunk at a time: beginTerm opens a
// fresh chunk, beginDocument/newPosition/endDocument accumulate postings
// into blocks of up to blockSize documents, and endTerm flushes the final
// partial block and appends the whole chunk — skiplist header, then blocks —
// to the attached sink in a single append, honoring the append-only, no
// backpatching encoder contract.
type Encoder struct {
	blockSize int
	skipStep  int
	sink      ChunkSink

	active bool
	doc    openDocument

	docIDs    []DocID
	freqs     []uint32
	positions [][]Position

	blockBuf *binenc.Writer

	havePrevBlock      bool
	prevBlockLastDocID DocID
	blockStartOffset   int
	countdown          int
	skipEntries        []skipEntry

	havePrevDocInTerm bool
	prevDocID         DocID
	documentCount     uint32

	metrics *metrics.Metrics
}

// SetMetrics attaches a Prometheus collector set that flushBlock increments
// on every block it writes. It is optional; a nil or never-set metrics
// leaves the encoder fully functional.
func (e *Encoder) SetMetrics(m *metrics.Metrics) {
	e.metrics = m
}

// NewEncoder returns an Encoder that flushes blocks of up to blockSize
// documents and records a skiplist entry every skipStep blocks, appending
// finished chunks to sink.
func NewEncoder(sink ChunkSink, blockSize, skipStep int) (*Encoder, error) {
	if blockSize <= 0 || blockSize > 255 {
		return nil, fmt.Errorf("postings: blockSize must be in [1,255], got %d", blockSize)
	}
	if skipStep <= 0 {
		return nil, fmt.Errorf("postings: skipStep must be positive, got %d", skipStep)
	}
	return &Encoder{
		blockSize: blockSize,
		skipStep:  skipStep,
		sink:      sink,
		blockBuf:  binenc.NewWriter(4096),
	}, nil
}

// BeginTerm opens a new term's posting list, resetting all per-term state.
func (e *Encoder) BeginTerm() error {
	if e.active {
		return fmt.Errorf("%w: beginTerm called while a term is already open", emerrors.ErrEncoderContract)
	}
	e.active = true
	e.doc = openDocument{}
	e.docIDs = e.docIDs[:0]
	e.freqs = e.freqs[:0]
	e.positions = e.positions[:0]
	e.blockBuf.Reset()
	e.havePrevBlock = false
	e.prevBlockLastDocID = 0
	e.countdown = e.skipStep
	e.skipEntries = e.skipEntries[:0]
	e.havePrevDocInTerm = false
	e.prevDocID = 0
	e.documentCount = 0
	return nil
}

// BeginDocument opens a new document with the given ID and declared
// frequency. docID must be strictly greater than the previous document's ID
// within this term, and frequency must be at least 1.
func (e *Encoder) BeginDocument(docID DocID, frequency uint32) error {
	if !e.active {
		return fmt.Errorf("%w: beginDocument called with no term open", emerrors.ErrEncoderContract)
	}
	if e.doc.open {
		return fmt.Errorf("%w: beginDocument called while a document is already open", emerrors.ErrEncoderContract)
	}
	if frequency == 0 {
		return fmt.Errorf("%w: frequency must be at least 1", emerrors.ErrEncoderContract)
	}
	if e.havePrevDocInTerm && docID <= e.prevDocID {
		return fmt.Errorf("%w: docID %d does not exceed previous docID %d", emerrors.ErrEncoderContract, docID, e.prevDocID)
	}
	e.doc = openDocument{
		docID:     docID,
		freq:      frequency,
		positions: make([]Position, 0, frequency),
		open:      true,
	}
	return nil
}

// NewPosition records the next occurrence position for the currently open
// document. position must be strictly greater than the previous position
// recorded for this document.
func (e *Encoder) NewPosition(position Position) error {
	if !e.doc.open {
		return fmt.Errorf("%w: newPosition called with no document open", emerrors.ErrEncoderContract)
	}
	if uint32(len(e.doc.positions)) >= e.doc.freq {
		return fmt.Errorf("%w: more positions recorded than declared frequency %d", emerrors.ErrEncoderContract, e.doc.freq)
	}
	if e.doc.havePos && position <= e.doc.lastPos {
		return fmt.Errorf("%w: position %d does not exceed previous position %d", emerrors.ErrEncoderContract, position, e.doc.lastPos)
	}
	e.doc.positions = append(e.doc.positions, position)
	e.doc.lastPos = position
	e.doc.havePos = true
	return nil
}

// EndDocument closes the currently open document, flushing a block once
// blockSize documents have been accumulated since the last flush.
func (e *Encoder) EndDocument() error {
	if !e.doc.open {
		return fmt.Errorf("%w: endDocument called with no document open", emerrors.ErrEncoderContract)
	}
	if uint32(len(e.doc.positions)) != e.doc.freq {
		return fmt.Errorf("%w: recorded %d positions, declared frequency was %d", emerrors.ErrEncoderContract, len(e.doc.positions), e.doc.freq)
	}
	e.docIDs = append(e.docIDs, e.doc.docID)
	e.freqs = append(e.freqs, e.doc.freq)
	e.positions = append(e.positions, e.doc.positions)
	e.prevDocID = e.doc.docID
	e.havePrevDocInTerm = true
	e.documentCount++
	e.doc = openDocument{}

	if len(e.docIDs) == e.blockSize {
		e.flushBlock()
	}
	return nil
}

// flushBlock emits the currently accumulated documents as one block and
// resets the per-block accumulators. It assumes at least one document is
// pending.
func (e *Encoder) flushBlock() {
	n := len(e.docIDs)
	baseline := e.prevBlockLastDocID
	if !e.havePrevBlock {
		baseline = 0
	}
	lastDoc := e.docIDs[n-1]
	deltaLastDoc := uint64(lastDoc - baseline)

	body := binenc.NewWriter(n * 4)
	running := baseline
	for i := 0; i < n-1; i++ {
		body.PutVarint(uint64(e.docIDs[i] - running))
		running = e.docIDs[i]
	}
	for i := 0; i < n; i++ {
		body.PutVarint(uint64(e.freqs[i]))
	}
	for i := 0; i < n; i++ {
		var last Position
		for _, p := range e.positions[i] {
			body.PutVarint(uint64(p - last))
			last = p
		}
	}

	blockStart := e.blockBuf.Len()
	e.blockBuf.PutVarint(deltaLastDoc)
	e.blockBuf.PutVarint(uint64(body.Len()))
	e.blockBuf.PutByte(byte(n))
	e.blockBuf.PutRaw(body.Bytes())

	e.countdown--
	if e.countdown <= 0 {
		e.skipEntries = append(e.skipEntries, skipEntry{PrevBlockLastDocID: baseline, ByteOffset: uint32(blockStart)})
		e.countdown = e.skipStep
	}

	e.prevBlockLastDocID = lastDoc
	e.havePrevBlock = true
	e.docIDs = e.docIDs[:0]
	e.freqs = e.freqs[:0]
	e.positions = e.positions[:0]

	if e.metrics != nil {
		e.metrics.BlocksEncodedTotal.Inc()
	}
}

// EndTerm flushes any partial block, assembles the finished chunk (inline
// skiplist header followed by the block stream), appends it to the sink in
// one call, and returns the TermCtx locating it.
func (e *Encoder) EndTerm() (TermCtx, error) {
	if !e.active {
		return TermCtx{}, fmt.Errorf("%w: endTerm called with no term open", emerrors.ErrEncoderContract)
	}
	if e.doc.open {
		return TermCtx{}, fmt.Errorf("%w: endTerm called with a document still open", emerrors.ErrEncoderContract)
	}
	if len(e.docIDs) > 0 {
		e.flushBlock()
	}

	skiplistBytes := encodeSkiplist(e.skipEntries)
	final := make([]byte, 0, len(skiplistBytes)+e.blockBuf.Len())
	final = append(final, skiplistBytes...)
	final = append(final, e.blockBuf.Bytes()...)

	offset, err := e.sink.AppendChunk(final)
	if err != nil {
		return TermCtx{}, fmt.Errorf("%w: appending chunk: %v", emerrors.ErrIO, err)
	}

	ctx := TermCtx{
		DocumentCount: e.documentCount,
		Chunk: ChunkRange{
			Offset: offset,
			Length: uint32(len(final)),
		},
	}
	e.active = false
	return ctx, nil
}
