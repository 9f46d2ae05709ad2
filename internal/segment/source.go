package segment

import (
	"fmt"

	"golang.org/x/exp/mmap"

	"github.com/emberidx/emberidx/internal/deleted"
	"github.com/emberidx/emberidx/internal/postings"
	"github.com/emberidx/emberidx/internal/terms"
	emerrors "github.com/emberidx/emberidx/pkg/errors"
	"github.com/emberidx/emberidx/pkg/metrics"
)

// Source is a read-only, memory-mapped view of one committed segment file.
// It implements postings.Access over the mapped posting stream; each Slice
// call copies the requested chunk out of the mapping into a fresh buffer.
type Source struct {
	path     string
	reader   *mmap.ReaderAt
	header   fileHeader
	termsRaw []byte
	deleted  deleted.Registry
	metrics  *metrics.Metrics
}

// Open memory-maps the segment file at path and reads its terms dictionary
// and deleted-docs registry into memory; the (typically much larger)
// posting stream stays mapped and is paged in on demand.
func Open(path string) (*Source, error) {
	return OpenWithMetrics(path, nil)
}

// OpenWithMetrics is Open, additionally attaching m so SegmentsOpenedTotal,
// TermLookupsTotal, and the decoder's block-read counters report to it. A
// nil m behaves exactly like Open.
func OpenWithMetrics(path string, m *metrics.Metrics) (src *Source, err error) {
	if m != nil {
		defer func() {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			m.SegmentsOpenedTotal.WithLabelValues(outcome).Inc()
			if err == nil {
				m.ActiveSegments.Inc()
			}
		}()
	}

	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: mapping segment %s: %v", emerrors.ErrIO, path, err)
	}

	headerBytes := make([]byte, HeaderSize)
	if _, err := r.ReadAt(headerBytes, 0); err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: reading segment header %s: %v", emerrors.ErrIO, path, err)
	}
	header, err := decodeFileHeader(headerBytes)
	if err != nil {
		r.Close()
		return nil, err
	}

	termsRaw := make([]byte, header.TermsLength)
	if header.TermsLength > 0 {
		if _, err := r.ReadAt(termsRaw, int64(header.TermsOffset)); err != nil {
			r.Close()
			return nil, fmt.Errorf("%w: reading terms dictionary %s: %v", emerrors.ErrIO, path, err)
		}
	}

	var reg deleted.Registry = deleted.None{}
	if header.DeletedLength > 0 {
		raw := make([]byte, header.DeletedLength)
		if _, err := r.ReadAt(raw, int64(header.DeletedOffset)); err != nil {
			r.Close()
			return nil, fmt.Errorf("%w: reading deleted-docs registry %s: %v", emerrors.ErrIO, path, err)
		}
		bm, err := deleted.LoadBitmapBytes(raw)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("%w: %v", emerrors.ErrIO, err)
		}
		reg = bm
	}

	return &Source{path: path, reader: r, header: header, termsRaw: termsRaw, deleted: reg, metrics: m}, nil
}

// Path returns the filesystem path this Source was opened from.
func (s *Source) Path() string { return s.path }

// DocumentCount returns the number of distinct documents recorded at the
// time this segment was built, ignoring deletions.
func (s *Source) DocumentCount() uint32 { return s.header.DocumentCount }

// TermCount returns the number of terms in this segment's dictionary.
func (s *Source) TermCount() uint32 { return s.header.TermCount }

// Deleted returns this segment's tombstone registry.
func (s *Source) Deleted() deleted.Registry { return s.deleted }

// Slice implements postings.Access, reading length bytes of the posting
// stream starting at offset (relative to the start of this segment's
// posting section) into a newly allocated slice; the result does not alias
// the mapping.
func (s *Source) Slice(offset, length uint32) ([]byte, error) {
	buf := make([]byte, length)
	at := int64(s.header.PostingsOffset) + int64(offset)
	if _, err := s.reader.ReadAt(buf, at); err != nil {
		return nil, fmt.Errorf("%w: reading posting chunk at %d: %v", emerrors.ErrIO, at, err)
	}
	return buf, nil
}

// Lookup finds term in this segment's dictionary.
func (s *Source) Lookup(term []byte) (postings.TermCtx, bool, error) {
	ctx, ok, err := terms.Lookup(s.termsRaw, term)
	if s.metrics != nil && err == nil {
		outcome := "miss"
		if ok {
			outcome = "hit"
		}
		s.metrics.TermLookupsTotal.WithLabelValues(outcome).Inc()
	}
	return ctx, ok, err
}

// TermsCursor returns a Cursor walking this segment's dictionary in
// ascending term order, for driving a merge.
func (s *Source) TermsCursor() (terms.Cursor, error) {
	return terms.NewCursor(s.termsRaw)
}

// NewDecoder returns a postings.Decoder initialized to read ctx's chunk
// from this segment.
func (s *Source) NewDecoder(ctx postings.TermCtx) (*postings.Decoder, error) {
	dec := &postings.Decoder{}
	if err := dec.Init(ctx, s); err != nil {
		return nil, err
	}
	dec.SetMetrics(s.metrics)
	return dec, nil
}

// Close unmaps the segment file and, if this Source was opened with
// metrics, reflects the closure in ActiveSegments.
func (s *Source) Close() error {
	if s.metrics != nil {
		s.metrics.ActiveSegments.Dec()
	}
	return s.reader.Close()
}
