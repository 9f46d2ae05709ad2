// Package terms implements the front-coded (prefix-compressed) terms
// dictionary: packing a (term, TermCtx) table into the on-disk terms.data
// framing, point lookup accelerated by a sparse inline skiplist, and
// in-order cursor iteration for dictionary merges.
package terms

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/emberidx/emberidx/internal/binenc"
	"github.com/emberidx/emberidx/internal/postings"
	emerrors "github.com/emberidx/emberidx/pkg/errors"
)

// Magic identifies a terms.data file.
const Magic uint32 = 0x534d5254 // "TRMS" little-endian

// FormatVersion is the current terms.data framing version.
const FormatVersion uint32 = 1

// HeaderSize is the fixed 16-byte header preceding the skiplist bytes.
const HeaderSize = 16

// DefaultSkipStep is TERMS_SKIPLIST_STEP: the number of terms between
// successive skiplist index records.
const DefaultSkipStep = 32

// Entry is one (term, TermCtx) pair handed to Pack, in arbitrary order.
type Entry struct {
	Term []byte
	Ctx  postings.TermCtx
}

type indexRecord struct {
	Term       []byte
	DataOffset uint32
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n > 255 {
		n = 255
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// Pack sorts entries by ascending term bytes, validates strict ordering
// (duplicate or mis-ordered terms are a TermOrderViolation), and serializes
// them into the terms.data framing: a fixed header, an inline skiplist
// indexing every skipStep-th term, and a front-coded data stream.
func Pack(entries []Entry, skipStep int) ([]byte, error) {
	if skipStep <= 0 {
		return nil, fmt.Errorf("terms: skipStep must be positive, got %d", skipStep)
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Term, sorted[j].Term) < 0
	})

	for i := 1; i < len(sorted); i++ {
		if bytes.Compare(sorted[i-1].Term, sorted[i].Term) >= 0 {
			return nil, fmt.Errorf("%w: term %q does not strictly follow %q", emerrors.ErrTermOrder, sorted[i].Term, sorted[i-1].Term)
		}
	}

	data := binenc.NewWriter(len(sorted) * 16)
	skiplist := binenc.NewWriter(0)
	var skiplistCount int
	var prevTerm []byte

	for i, e := range sorted {
		if len(e.Term) > 255 {
			return nil, fmt.Errorf("terms: term %q exceeds 255 bytes", e.Term)
		}
		atBucketStart := i%skipStep == 0
		if atBucketStart {
			skiplist.PutByte(byte(len(e.Term)))
			skiplist.PutRaw(e.Term)
			skiplist.PutVarint(uint64(data.Len()))
			skiplistCount++
		}
		prefixLen := 0
		if !atBucketStart {
			prefixLen = commonPrefixLen(prevTerm, e.Term)
		}
		suffix := e.Term[prefixLen:]
		if len(suffix) > 255 {
			return nil, fmt.Errorf("terms: suffix of %q exceeds 255 bytes", e.Term)
		}
		data.PutByte(byte(prefixLen))
		data.PutByte(byte(len(suffix)))
		data.PutRaw(suffix)
		data.PutVarint(uint64(e.Ctx.DocumentCount))
		data.PutVarint(uint64(e.Ctx.Chunk.Offset))
		data.PutVarint(uint64(e.Ctx.Chunk.Length))
		prevTerm = e.Term
	}

	header := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], Magic)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(skiplistCount))
	binary.LittleEndian.PutUint32(header[12:16], uint32(skiplist.Len()))

	out := make([]byte, 0, HeaderSize+skiplist.Len()+data.Len())
	out = append(out, header...)
	out = append(out, skiplist.Bytes()...)
	out = append(out, data.Bytes()...)
	return out, nil
}
