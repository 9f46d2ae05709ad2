// Package segment assembles the per-term posting and terms-dictionary
// codecs into a single on-disk segment: Session writes one immutable
// segment file per flush, and Source opens it back for lookup, iteration,
// and participation in a merge.
package segment

import (
	"encoding/binary"
	"fmt"

	emerrors "github.com/emberidx/emberidx/pkg/errors"
)

// Magic identifies an emberidx segment file.
const Magic uint32 = 0x58444249 // "IBDX" little-endian

// FormatVersion is the current segment file framing version.
const FormatVersion uint32 = 1

// HeaderSize is the fixed-size header at the start of every segment file.
const HeaderSize = 64

// fileHeader lays out the byte ranges of a segment file's three sections:
// the posting-block stream, the packed terms dictionary, and the deleted-
// documents bitmap (Session.Commit always writes it empty; Open loads it
// when its length is non-zero).
type fileHeader struct {
	Magic          uint32
	Version        uint32
	TermCount      uint32
	DocumentCount  uint32
	PostingsOffset uint64
	PostingsLength uint64
	TermsOffset    uint64
	TermsLength    uint64
	DeletedOffset  uint64
	DeletedLength  uint64
}

func (h fileHeader) encode() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.TermCount)
	binary.LittleEndian.PutUint32(b[12:16], h.DocumentCount)
	binary.LittleEndian.PutUint64(b[16:24], h.PostingsOffset)
	binary.LittleEndian.PutUint64(b[24:32], h.PostingsLength)
	binary.LittleEndian.PutUint64(b[32:40], h.TermsOffset)
	binary.LittleEndian.PutUint64(b[40:48], h.TermsLength)
	binary.LittleEndian.PutUint64(b[48:56], h.DeletedOffset)
	binary.LittleEndian.PutUint64(b[56:64], h.DeletedLength)
	return b
}

func decodeFileHeader(b []byte) (fileHeader, error) {
	if len(b) < HeaderSize {
		return fileHeader{}, fmt.Errorf("%w: segment file shorter than header (%d bytes)", emerrors.ErrInternal, len(b))
	}
	h := fileHeader{
		Magic:          binary.LittleEndian.Uint32(b[0:4]),
		Version:        binary.LittleEndian.Uint32(b[4:8]),
		TermCount:      binary.LittleEndian.Uint32(b[8:12]),
		DocumentCount:  binary.LittleEndian.Uint32(b[12:16]),
		PostingsOffset: binary.LittleEndian.Uint64(b[16:24]),
		PostingsLength: binary.LittleEndian.Uint64(b[24:32]),
		TermsOffset:    binary.LittleEndian.Uint64(b[32:40]),
		TermsLength:    binary.LittleEndian.Uint64(b[40:48]),
		DeletedOffset:  binary.LittleEndian.Uint64(b[48:56]),
		DeletedLength:  binary.LittleEndian.Uint64(b[56:64]),
	}
	if h.Magic != Magic {
		return fileHeader{}, fmt.Errorf("%w: bad segment magic %x", emerrors.ErrInternal, h.Magic)
	}
	if h.Version != FormatVersion {
		return fileHeader{}, fmt.Errorf("%w: unsupported segment version %d", emerrors.ErrInternal, h.Version)
	}
	return h, nil
}
