// Package postings implements the block-structured posting-list codec: a
// single term's (docID, frequency, positions) sequence is encoded into
// fixed-capacity blocks with an inline skiplist, decoded sequentially or by
// seek, and merged across multiple recency-ordered sources.
package postings

import "math"

// DocID identifies a document within a segment.
type DocID uint32

// ExhaustedDocID is the sentinel returned once a decoder has no further
// documents.
const ExhaustedDocID DocID = math.MaxUint32

// Position is a term's occurrence offset within one document, strictly
// increasing per (document, term).
type Position uint32

// DefaultBlockSize is N, the number of postings grouped under one block
// header before a new block is started.
const DefaultBlockSize = 128

// DefaultSkiplistStep is the number of block flushes between successive
// inline skiplist entries.
const DefaultSkiplistStep = 32

// ChunkRange locates one term's posting stream within a segment's posting
// file: a byte offset and length.
type ChunkRange struct {
	Offset uint32
	Length uint32
}

// TermCtx is the posting-list locator recorded for one term at endTerm.
type TermCtx struct {
	DocumentCount uint32
	Chunk         ChunkRange
}

// Access is a read-only view over one term's byte range within a segment's
// posting file. An implementation may return a slice aliasing its backing
// bytes or a copy of them; segment.Source returns a copy read out of its
// mapping.
type Access interface {
	// Slice returns the length bytes starting at offset, both relative to
	// the segment's posting-file base, not the term's chunk.
	Slice(offset, length uint32) ([]byte, error)
}

// WordSpace records that termID occurs at position in the document
// currently being materialized. Implementations must tolerate duplicate
// (termID, position) pairs idempotently.
type WordSpace interface {
	Set(termID uint32, position Position)
}

// DeletedDocs is the per-segment predicate consulted during merge.
type DeletedDocs interface {
	IsDeleted(id DocID) bool
}

// Hit is one materialized occurrence of a term in a document.
type Hit struct {
	Position Position
}
