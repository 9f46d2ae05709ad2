package terms

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	"github.com/emberidx/emberidx/internal/postings"
)

// scenarioEEntries builds 150 terms spanning "amiga" to "zelda", each with a
// distinct TermCtx so round-trip lookups can be checked for exact equality.
func scenarioEEntries() []Entry {
	entries := make([]Entry, 150)
	for i := 0; i < 150; i++ {
		entries[i] = Entry{
			Term: []byte(fmt.Sprintf("word%04d", i)),
			Ctx: postings.TermCtx{
				DocumentCount: uint32(i + 1),
				Chunk: postings.ChunkRange{
					Offset: uint32(i * 100),
					Length: uint32(10 + i),
				},
			},
		}
	}
	entries[0].Term = []byte("amiga")
	entries[149].Term = []byte("zelda")
	return entries
}

func TestPackLookupRoundTrip_ScenarioE(t *testing.T) {
	entries := scenarioEEntries()
	packed, err := Pack(entries, DefaultSkipStep)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	for _, e := range entries {
		got, ok, err := Lookup(packed, e.Term)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", e.Term, err)
		}
		if !ok {
			t.Fatalf("Lookup(%q) = not found, want %v", e.Term, e.Ctx)
		}
		if got != e.Ctx {
			t.Fatalf("Lookup(%q) = %+v, want %+v", e.Term, got, e.Ctx)
		}
	}

	if _, ok, err := Lookup(packed, []byte("nonexistent")); err != nil || ok {
		t.Fatalf(`Lookup("nonexistent") = %v, %v, want false, nil`, ok, err)
	}
}

func TestCursorOrdering_ScenarioE(t *testing.T) {
	entries := scenarioEEntries()
	packed, err := Pack(entries, DefaultSkipStep)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	cur, err := NewCursor(packed)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}

	var seen [][]byte
	for !cur.Done() {
		term, _ := cur.Current()
		seen = append(seen, append([]byte(nil), term...))
		if ok, err := cur.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		} else if !ok {
			break
		}
	}
	if len(seen) != len(entries) {
		t.Fatalf("cursor produced %d terms, want %d", len(seen), len(entries))
	}
	for i := 1; i < len(seen); i++ {
		if bytes.Compare(seen[i-1], seen[i]) >= 0 {
			t.Fatalf("terms out of order at %d: %q >= %q", i, seen[i-1], seen[i])
		}
	}
}

func TestPackRejectsDuplicateTerms(t *testing.T) {
	entries := []Entry{
		{Term: []byte("apple"), Ctx: postings.TermCtx{}},
		{Term: []byte("apple"), Ctx: postings.TermCtx{}},
	}
	if _, err := Pack(entries, DefaultSkipStep); err == nil {
		t.Fatalf("Pack with duplicate terms succeeded, want error")
	}
}

// TestLargeDictionaryLookup_ScenarioF mirrors
// postings/encoder_decoder_test.go's TestLargeListSkiplistSeek_ScenarioF: it
// builds a dictionary large enough that a linear bucket scan and a binary
// search would visibly diverge in cost, and asserts bucketFor's probe count
// stays within the O(log S) bound instead of degrading toward S.
func TestLargeDictionaryLookup_ScenarioF(t *testing.T) {
	const n = 20000
	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = Entry{
			Term: []byte(fmt.Sprintf("term%06d", i)),
			Ctx: postings.TermCtx{
				DocumentCount: uint32(i + 1),
				Chunk: postings.ChunkRange{
					Offset: uint32(i * 8),
					Length: uint32(8),
				},
			},
		}
	}
	packed, err := Pack(entries, DefaultSkipStep)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	hdr, err := parseHeader(packed)
	if err != nil {
		t.Fatalf("parseHeader: %v", err)
	}
	skiplist, err := parseSkiplist(packed[HeaderSize:HeaderSize+int(hdr.SkiplistByteLength)], hdr.SkiplistEntryCount)
	if err != nil {
		t.Fatalf("parseSkiplist: %v", err)
	}
	wantEntries := (n + DefaultSkipStep - 1) / DefaultSkipStep
	if len(skiplist) != wantEntries {
		t.Fatalf("skiplist has %d entries, want %d", len(skiplist), wantEntries)
	}

	// A binary search over S skiplist entries never needs more than
	// ceil(log2(S))+1 comparisons; a linear scan would need up to S. Probing
	// at 3x the binary-search bound is generous headroom while still being
	// orders of magnitude below S for this dictionary size.
	maxProbes := int(math.Ceil(math.Log2(float64(len(skiplist))))) + 1
	probeCeiling := 3 * maxProbes

	for _, term := range []string{"term000000", "term009999", "term019999", "term005123"} {
		bucket, probes := bucketFor(skiplist, []byte(term))
		if bucket < 0 {
			t.Fatalf("bucketFor(%q) = %d, want >= 0", term, bucket)
		}
		if probes > probeCeiling {
			t.Fatalf("bucketFor(%q) took %d probes, want <= %d (binary search bound %d) — search degraded toward a linear scan",
				term, probes, probeCeiling, maxProbes)
		}
		got, ok, err := Lookup(packed, []byte(term))
		if err != nil {
			t.Fatalf("Lookup(%q): %v", term, err)
		}
		if !ok {
			t.Fatalf("Lookup(%q) = not found", term)
		}
		var want Entry
		for _, e := range entries {
			if string(e.Term) == term {
				want = e
				break
			}
		}
		if got != want.Ctx {
			t.Fatalf("Lookup(%q) = %+v, want %+v", term, got, want.Ctx)
		}
	}
}

func TestLookupEmptyDictionary(t *testing.T) {
	packed, err := Pack(nil, DefaultSkipStep)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if _, ok, err := Lookup(packed, []byte("anything")); err != nil || ok {
		t.Fatalf("Lookup on empty dictionary = %v, %v, want false, nil", ok, err)
	}
}
