package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emberidx/emberidx/internal/binenc"
	"github.com/emberidx/emberidx/internal/postings"
	"github.com/emberidx/emberidx/internal/terms"
	emerrors "github.com/emberidx/emberidx/pkg/errors"
	"github.com/emberidx/emberidx/pkg/metrics"
)

// Session accumulates one new segment's worth of postings, implementing
// postings.ChunkSink so an *postings.Encoder can append term chunks to it
// directly. AddTerm drives BeginTerm/BeginDocument/.../EndTerm for one term
// and folds the returned TermCtx into the session's terms-dictionary entries.
type Session struct {
	blockSize int
	skipStep  int
	termsStep int

	postingsBuf *binenc.Writer
	encoder     *postings.Encoder
	entries     []terms.Entry
	documentIDs map[postings.DocID]struct{}
	metrics     *metrics.Metrics
}

// SetMetrics attaches a Prometheus collector set the session reports
// segment-build and per-term packing activity to. Optional.
func (s *Session) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
	s.encoder.SetMetrics(m)
}

// DocumentPosting is one document's term-frequency and occurrence-position
// data, as supplied by a tokenizer building a term's posting list.
type DocumentPosting struct {
	DocID     postings.DocID
	Frequency uint32
	Positions []postings.Position
}

// NewSession returns a Session that will flush blocks of blockSize documents
// with a posting skiplist entry every skipStep blocks, and a terms-dictionary
// skiplist entry every termsStep terms.
func NewSession(blockSize, skipStep, termsStep int) (*Session, error) {
	s := &Session{
		blockSize:   blockSize,
		skipStep:    skipStep,
		termsStep:   termsStep,
		postingsBuf: binenc.NewWriter(1 << 16),
		documentIDs: make(map[postings.DocID]struct{}),
	}
	enc, err := postings.NewEncoder(s, blockSize, skipStep)
	if err != nil {
		return nil, err
	}
	s.encoder = enc
	return s, nil
}

// AppendChunk implements postings.ChunkSink by appending data to the
// session's in-memory posting stream and returning its start offset.
func (s *Session) AppendChunk(data []byte) (uint32, error) {
	offset := uint32(s.postingsBuf.Len())
	s.postingsBuf.PutRaw(data)
	return offset, nil
}

// Encoder returns the session's underlying postings.Encoder, for callers
// (the merge engine) that drive BeginTerm/postings.Merge/EndTerm directly
// rather than going through AddTerm.
func (s *Session) Encoder() *postings.Encoder { return s.encoder }

// RecordTerm registers a term's already-encoded TermCtx (as returned by
// Encoder().EndTerm) in the session's terms dictionary.
func (s *Session) RecordTerm(term []byte, ctx postings.TermCtx) {
	s.entries = append(s.entries, terms.Entry{Term: append([]byte(nil), term...), Ctx: ctx})
}

// MarkDocumentLive records id as present in the segment being built, for
// the final DocumentCount written to the segment header.
func (s *Session) MarkDocumentLive(id postings.DocID) {
	s.documentIDs[id] = struct{}{}
}

// AddTerm encodes one term's full posting list, in ascending docID order,
// and records it in the session's terms dictionary.
func (s *Session) AddTerm(term []byte, docs []DocumentPosting) error {
	if err := s.encoder.BeginTerm(); err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.encoder.BeginDocument(d.DocID, d.Frequency); err != nil {
			return err
		}
		for _, p := range d.Positions {
			if err := s.encoder.NewPosition(p); err != nil {
				return err
			}
		}
		if err := s.encoder.EndDocument(); err != nil {
			return err
		}
		s.documentIDs[d.DocID] = struct{}{}
	}
	ctx, err := s.encoder.EndTerm()
	if err != nil {
		return err
	}
	s.entries = append(s.entries, terms.Entry{Term: append([]byte(nil), term...), Ctx: ctx})
	if s.metrics != nil {
		s.metrics.TermsPackedTotal.Inc()
	}
	return nil
}

// Commit packs the terms dictionary, serializes the deleted-docs registry
// (empty for a freshly built segment), and writes the finished segment to
// dataDir under a name derived from the current time. It writes to a .tmp
// path first and renames into place once the file is durable on disk, so a
// reader never observes a partially written segment.
func (s *Session) Commit(dataDir string) (string, error) {
	start := time.Now()
	termsData, err := terms.Pack(s.entries, s.termsStep)
	if err != nil {
		return "", fmt.Errorf("segment: packing terms dictionary: %w", err)
	}

	// A freshly built segment carries no tombstones: the deleted-docs section
	// is written empty, and Open gives such a segment a deleted.None registry,
	// whose Delete is a no-op.
	var deletedData []byte

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating segment directory: %v", emerrors.ErrIO, err)
	}
	name := fmt.Sprintf("seg_%d.ember", time.Now().UnixNano())
	finalPath := filepath.Join(dataDir, name)
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("%w: creating temp segment file: %v", emerrors.ErrIO, err)
	}
	defer f.Close()

	postingsBytes := s.postingsBuf.Bytes()
	header := fileHeader{
		Magic:          Magic,
		Version:        FormatVersion,
		TermCount:      uint32(len(s.entries)),
		DocumentCount:  uint32(len(s.documentIDs)),
		PostingsOffset: HeaderSize,
		PostingsLength: uint64(len(postingsBytes)),
		TermsOffset:    HeaderSize + uint64(len(postingsBytes)),
		TermsLength:    uint64(len(termsData)),
		DeletedOffset:  HeaderSize + uint64(len(postingsBytes)) + uint64(len(termsData)),
		DeletedLength:  uint64(len(deletedData)),
	}

	if _, err := f.Write(header.encode()); err != nil {
		return "", fmt.Errorf("%w: writing header: %v", emerrors.ErrIO, err)
	}
	if _, err := f.Write(postingsBytes); err != nil {
		return "", fmt.Errorf("%w: writing postings: %v", emerrors.ErrIO, err)
	}
	if _, err := f.Write(termsData); err != nil {
		return "", fmt.Errorf("%w: writing terms dictionary: %v", emerrors.ErrIO, err)
	}
	if len(deletedData) > 0 {
		if _, err := f.Write(deletedData); err != nil {
			return "", fmt.Errorf("%w: writing deleted-docs registry: %v", emerrors.ErrIO, err)
		}
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("%w: syncing segment file: %v", emerrors.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: closing segment file: %v", emerrors.ErrIO, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("%w: renaming segment file into place: %v", emerrors.ErrIO, err)
	}
	if s.metrics != nil {
		s.metrics.SegmentBuildDuration.Observe(time.Since(start).Seconds())
		s.metrics.SegmentBuildDocCount.Observe(float64(len(s.documentIDs)))
	}
	return finalPath, nil
}
