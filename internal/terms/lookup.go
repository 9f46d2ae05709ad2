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

type header struct {
	SkiplistEntryCount uint32
	SkiplistByteLength uint32
}

func parseHeader(data []byte) (header, error) {
	if len(data) < HeaderSize {
		return header{}, fmt.Errorf("%w: data shorter than header (%d bytes)", emerrors.ErrCorruptDictionary, len(data))
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != Magic {
		return header{}, fmt.Errorf("%w: bad magic %x", emerrors.ErrCorruptDictionary, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != FormatVersion {
		return header{}, fmt.Errorf("%w: unsupported version %d", emerrors.ErrCorruptDictionary, version)
	}
	return header{
		SkiplistEntryCount: binary.LittleEndian.Uint32(data[8:12]),
		SkiplistByteLength: binary.LittleEndian.Uint32(data[12:16]),
	}, nil
}

// parseSkiplist decodes the inline (term, dataOffset) index records from
// data, which must begin right after the fixed header.
func parseSkiplist(data []byte, count uint32) ([]indexRecord, error) {
	c := binenc.NewCursor(data)
	records := make([]indexRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		termLen, err := c.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: reading skiplist term length %d: %v", emerrors.ErrCorruptDictionary, i, err)
		}
		term, err := c.ReadRaw(int(termLen))
		if err != nil {
			return nil, fmt.Errorf("%w: reading skiplist term %d: %v", emerrors.ErrCorruptDictionary, i, err)
		}
		offset, err := c.ReadVarint()
		if err != nil {
			return nil, fmt.Errorf("%w: reading skiplist offset %d: %v", emerrors.ErrCorruptDictionary, i, err)
		}
		records = append(records, indexRecord{Term: append([]byte(nil), term...), DataOffset: uint32(offset)})
	}
	return records, nil
}

// record is one decoded front-coded term entry.
type record struct {
	Term postings.TermCtx
	Full []byte
	End  int // cursor offset in the data stream just past this record
}

// decodeRecord reads one front-coded record from c, reconstructing the full
// term from prevFull and the record's (commonPrefixLength, suffix).
func decodeRecord(c *binenc.Cursor, prevFull []byte) (record, error) {
	prefixLen, err := c.ReadByte()
	if err != nil {
		return record{}, fmt.Errorf("%w: reading prefix length: %v", emerrors.ErrCorruptDictionary, err)
	}
	suffixLen, err := c.ReadByte()
	if err != nil {
		return record{}, fmt.Errorf("%w: reading suffix length: %v", emerrors.ErrCorruptDictionary, err)
	}
	suffix, err := c.ReadRaw(int(suffixLen))
	if err != nil {
		return record{}, fmt.Errorf("%w: reading suffix bytes: %v", emerrors.ErrCorruptDictionary, err)
	}
	if int(prefixLen) > len(prevFull) {
		return record{}, fmt.Errorf("%w: common prefix length %d exceeds previous term length %d", emerrors.ErrCorruptDictionary, prefixLen, len(prevFull))
	}
	full := make([]byte, 0, int(prefixLen)+int(suffixLen))
	full = append(full, prevFull[:prefixLen]...)
	full = append(full, suffix...)

	docCount, err := c.ReadVarint()
	if err != nil {
		return record{}, fmt.Errorf("%w: reading document count: %v", emerrors.ErrCorruptDictionary, err)
	}
	chunkOffset, err := c.ReadVarint()
	if err != nil {
		return record{}, fmt.Errorf("%w: reading chunk offset: %v", emerrors.ErrCorruptDictionary, err)
	}
	chunkLength, err := c.ReadVarint()
	if err != nil {
		return record{}, fmt.Errorf("%w: reading chunk length: %v", emerrors.ErrCorruptDictionary, err)
	}

	return record{
		Term: postings.TermCtx{
			DocumentCount: uint32(docCount),
			Chunk: postings.ChunkRange{
				Offset: uint32(chunkOffset),
				Length: uint32(chunkLength),
			},
		},
		Full: full,
		End:  c.Offset(),
	}, nil
}

// bucketFor binary searches skiplist for the largest entry whose term <=
// query, returning its index (or -1 if query sorts before every entry) and
// the number of comparisons sort.Search performed, so callers (tests, in
// particular) can confirm the search stayed O(log n) rather than degrading
// into a full scan.
func bucketFor(skiplist []indexRecord, query []byte) (bucket int, probes int) {
	first := sort.Search(len(skiplist), func(i int) bool {
		probes++
		return bytes.Compare(skiplist[i].Term, query) > 0
	})
	return first - 1, probes
}

// Lookup parses a terms.data byte slice and searches for query, returning
// its TermCtx and true if found.
func Lookup(data []byte, query []byte) (postings.TermCtx, bool, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return postings.TermCtx{}, false, err
	}
	skiplistStart := HeaderSize
	dataStart := skiplistStart + int(hdr.SkiplistByteLength)
	if dataStart > len(data) {
		return postings.TermCtx{}, false, fmt.Errorf("%w: skiplist byte length overruns file", emerrors.ErrCorruptDictionary)
	}
	skiplist, err := parseSkiplist(data[skiplistStart:dataStart], hdr.SkiplistEntryCount)
	if err != nil {
		return postings.TermCtx{}, false, err
	}
	dataBytes := data[dataStart:]

	bucket, _ := bucketFor(skiplist, query)
	if bucket < 0 {
		return postings.TermCtx{}, false, nil
	}

	bucketStart := int(skiplist[bucket].DataOffset)
	bucketEnd := len(dataBytes)
	if bucket+1 < len(skiplist) {
		bucketEnd = int(skiplist[bucket+1].DataOffset)
	}

	c := binenc.NewCursor(dataBytes)
	if err := c.SeekTo(bucketStart); err != nil {
		return postings.TermCtx{}, false, fmt.Errorf("%w: %v", emerrors.ErrCorruptDictionary, err)
	}
	var prevFull []byte
	for c.Offset() < bucketEnd {
		rec, err := decodeRecord(c, prevFull)
		if err != nil {
			return postings.TermCtx{}, false, err
		}
		cmp := bytes.Compare(rec.Full, query)
		if cmp == 0 {
			return rec.Term, true, nil
		}
		if cmp > 0 {
			return postings.TermCtx{}, false, nil
		}
		prevFull = rec.Full
	}
	return postings.TermCtx{}, false, nil
}
