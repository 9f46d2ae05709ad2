package postings

import "fmt"

// Participant is one input to a posting-list merge: a chunk of postings for
// the same term, the mapping it should be read through, and the deleted-docs
// registry that governs whether its documents are still live.
type Participant struct {
	Access  Access
	Chunk   ChunkRange
	Deleted DeletedDocs
}

// noopWordSpace discards Set calls. Merge has no query-execution scope to
// record term occurrences into, so it materializes hits purely to re-encode
// them and never needs a live WordSpace.
type noopWordSpace struct{}

func (noopWordSpace) Set(uint32, Position) {}

type mergeLive struct {
	dec     *Decoder
	deleted DeletedDocs
	cur     DocID
}

// Merge fuses participants — passed most-recent first — into enc, which
// must already have an open term (BeginTerm called, EndTerm left to the
// caller). At each document ID shared by multiple participants, only the
// most-recent tied participant's postings are considered; if that
// participant's registry reports the document deleted, emission is skipped
// entirely for every tied participant, with no fallback to an older one.
// If onDocument is non-nil, it is called once for every document actually
// emitted to enc, in ascending order. If onMasked is non-nil, it is called
// once for every document dropped because the most-recent tied participant's
// registry reported it deleted.
func Merge(enc *Encoder, participants []Participant, onDocument, onMasked func(DocID)) error {
	lives := make([]*mergeLive, 0, len(participants))
	for _, p := range participants {
		d := &Decoder{}
		if err := d.Init(TermCtx{Chunk: p.Chunk}, p.Access); err != nil {
			return fmt.Errorf("postings: merge: initializing participant decoder: %w", err)
		}
		first, err := d.Begin()
		if err != nil {
			return fmt.Errorf("postings: merge: beginning participant decoder: %w", err)
		}
		if first == ExhaustedDocID {
			continue
		}
		lives = append(lives, &mergeLive{dec: d, deleted: p.Deleted, cur: first})
	}

	for len(lives) > 0 {
		min := lives[0].cur
		for _, l := range lives[1:] {
			if l.cur < min {
				min = l.cur
			}
		}

		tied := make([]int, 0, len(lives))
		for i, l := range lives {
			if l.cur == min {
				tied = append(tied, i)
			}
		}
		mostRecent := lives[tied[0]]
		masked := mostRecent.deleted != nil && mostRecent.deleted.IsDeleted(min)

		if !masked {
			freq := mostRecent.dec.CurrentFrequency()
			if err := enc.BeginDocument(min, freq); err != nil {
				return fmt.Errorf("postings: merge: beginDocument: %w", err)
			}
			hits, err := mostRecent.dec.MaterializeHits(0, noopWordSpace{}, nil)
			if err != nil {
				return fmt.Errorf("postings: merge: materializing hits: %w", err)
			}
			for _, h := range hits {
				if err := enc.NewPosition(h.Position); err != nil {
					return fmt.Errorf("postings: merge: newPosition: %w", err)
				}
			}
			if err := enc.EndDocument(); err != nil {
				return fmt.Errorf("postings: merge: endDocument: %w", err)
			}
			if onDocument != nil {
				onDocument(min)
			}
		} else if onMasked != nil {
			onMasked(min)
		}

		exhausted := make(map[int]bool, len(tied))
		for _, i := range tied {
			ok, err := lives[i].dec.Next()
			if err != nil {
				return fmt.Errorf("postings: merge: advancing participant: %w", err)
			}
			if !ok {
				exhausted[i] = true
				continue
			}
			lives[i].cur = lives[i].dec.CurrentDocument()
		}
		if len(exhausted) > 0 {
			remaining := lives[:0]
			for i, l := range lives {
				if !exhausted[i] {
					remaining = append(remaining, l)
				}
			}
			lives = remaining
		}
	}
	return nil
}
