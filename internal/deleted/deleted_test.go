package deleted

import (
	"bytes"
	"testing"

	"github.com/emberidx/emberidx/internal/postings"
)

func TestNoneNeverDeletes(t *testing.T) {
	var n None
	if n.IsDeleted(postings.DocID(5)) {
		t.Fatalf("None reported a deletion")
	}
	if n.Count() != 0 {
		t.Fatalf("None.Count() = %d, want 0", n.Count())
	}
}

func TestBitmapDeleteAndQuery(t *testing.T) {
	b := NewBitmap()
	ids := []postings.DocID{3, 7, 42, 1000}
	for _, id := range ids {
		b.Delete(id)
	}
	for _, id := range ids {
		if !b.IsDeleted(id) {
			t.Fatalf("IsDeleted(%d) = false, want true", id)
		}
	}
	if b.IsDeleted(postings.DocID(8)) {
		t.Fatalf("IsDeleted(8) = true, want false")
	}
	if got := b.Count(); got != uint64(len(ids)) {
		t.Fatalf("Count() = %d, want %d", got, len(ids))
	}

	b.Delete(3)
	if got := b.Count(); got != uint64(len(ids)) {
		t.Fatalf("re-deleting an id changed Count(): got %d, want %d", got, len(ids))
	}
}

func TestBitmapRoundTrip(t *testing.T) {
	b := NewBitmap()
	for _, id := range []postings.DocID{1, 2, 100, 99999} {
		b.Delete(id)
	}

	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	loaded, err := LoadBitmapBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("LoadBitmapBytes: %v", err)
	}
	for _, id := range []postings.DocID{1, 2, 100, 99999} {
		if !loaded.IsDeleted(id) {
			t.Fatalf("loaded bitmap missing deleted id %d", id)
		}
	}
	if loaded.IsDeleted(postings.DocID(3)) {
		t.Fatalf("loaded bitmap reports spurious deletion")
	}
	if got := loaded.Count(); got != 4 {
		t.Fatalf("loaded Count() = %d, want 4", got)
	}
}
