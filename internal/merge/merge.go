// Package merge implements the multi-segment merge engine: given a set of
// segments ordered most-recent-first, it walks every segment's terms
// dictionary in lockstep, fuses the posting lists of each term shared across
// segments, and writes the result into a fresh segment.
package merge

import (
	"fmt"
	"time"

	"github.com/emberidx/emberidx/internal/postings"
	"github.com/emberidx/emberidx/internal/segment"
	"github.com/emberidx/emberidx/internal/terms"
	"github.com/emberidx/emberidx/pkg/metrics"
)

// cursorState pairs a segment's terms cursor with the segment itself, so a
// posting chunk can be located once its term is chosen as the current
// minimum.
type cursorState struct {
	src    *segment.Source
	cursor terms.Cursor
}

// Merge fuses sources — passed most-recent first, the same order Scenario
// C/D require for conflict resolution — into a brand-new segment written
// under dataDir via sess. sess must be freshly constructed and is Commit-ed
// by the caller once Merge returns.
func Merge(sess *segment.Session, sources []*segment.Source) error {
	return MergeWithMetrics(sess, sources, nil)
}

// MergeWithMetrics is Merge, additionally reporting merge duration and
// counters to m. A nil m behaves exactly like Merge.
func MergeWithMetrics(sess *segment.Session, sources []*segment.Source, m *metrics.Metrics) (err error) {
	start := time.Now()
	if m != nil {
		defer func() {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			m.MergeDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		}()
	}

	states := make([]*cursorState, 0, len(sources))
	for _, src := range sources {
		cur, err := src.TermsCursor()
		if err != nil {
			return fmt.Errorf("merge: opening terms cursor: %w", err)
		}
		if cur.Done() {
			continue
		}
		states = append(states, &cursorState{src: src, cursor: cur})
	}

	for len(states) > 0 {
		term := currentMinTerm(states)

		var participants []postings.Participant
		var tied []int
		for i, st := range states {
			t, _ := st.cursor.Current()
			if string(t) == string(term) {
				tied = append(tied, i)
			}
		}
		for _, i := range tied {
			_, ctx := states[i].cursor.Current()
			participants = append(participants, postings.Participant{
				Access:  states[i].src,
				Chunk:   ctx.Chunk,
				Deleted: states[i].src.Deleted(),
			})
		}

		onMasked := func(postings.DocID) {}
		if m != nil {
			onMasked = func(postings.DocID) { m.MergeDocsDroppedTotal.Inc() }
		}

		enc := sess.Encoder()
		if beginErr := enc.BeginTerm(); beginErr != nil {
			return fmt.Errorf("merge: beginTerm(%q): %w", term, beginErr)
		}
		if mergeErr := postings.Merge(enc, participants, sess.MarkDocumentLive, onMasked); mergeErr != nil {
			return fmt.Errorf("merge: merging term %q: %w", term, mergeErr)
		}
		ctx, endErr := enc.EndTerm()
		if endErr != nil {
			return fmt.Errorf("merge: endTerm(%q): %w", term, endErr)
		}
		// A term can end up with zero live documents once every tied
		// participant's copy is masked by deletion; omit it from the
		// output dictionary entirely rather than recording a vacuous entry.
		if ctx.DocumentCount > 0 {
			sess.RecordTerm(term, ctx)
			if m != nil {
				m.MergeTermsWrittenTotal.Inc()
			}
		}

		for _, i := range tied {
			ok, err := states[i].cursor.Next()
			if err != nil {
				return fmt.Errorf("merge: advancing cursor: %w", err)
			}
			if !ok {
				states[i] = nil
			}
		}
		states = compact(states)
	}
	return nil
}

// currentMinTerm returns the lexicographically smallest term among every
// cursor's current position.
func currentMinTerm(states []*cursorState) []byte {
	min, _ := states[0].cursor.Current()
	for _, st := range states[1:] {
		t, _ := st.cursor.Current()
		if string(t) < string(min) {
			min = t
		}
	}
	return append([]byte(nil), min...)
}

func compact(states []*cursorState) []*cursorState {
	out := states[:0]
	for _, st := range states {
		if st != nil {
			out = append(out, st)
		}
	}
	return out
}
