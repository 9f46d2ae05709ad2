// Package deleted tracks documents that have been tombstoned within a
// segment but not yet physically removed by a merge. Merge masks out a
// source's deleted documents as it folds that source's postings into a new
// segment; everything else treats a segment's live document set as whatever
// remains once its Registry is consulted.
package deleted

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/emberidx/emberidx/internal/postings"
)

// Registry reports whether a document has been deleted. It satisfies
// postings.DeletedDocs so a Registry can be passed directly to Merge.
type Registry interface {
	postings.DeletedDocs
	// Delete tombstones id. Deleting an already-deleted id is a no-op.
	Delete(id postings.DocID)
	// Count returns the number of tombstoned documents.
	Count() uint64
}

// None is a Registry that never reports a document as deleted, for segments
// or merge participants with no tombstones.
type None struct{}

func (None) IsDeleted(postings.DocID) bool { return false }
func (None) Delete(postings.DocID)         {}
func (None) Count() uint64                 { return 0 }

// Bitmap is a Registry backed by a compressed roaring bitmap, safe for
// concurrent use: deletions from a live query path can race a background
// merge reading the same registry.
type Bitmap struct {
	mu sync.RWMutex
	rb *roaring.Bitmap
}

// NewBitmap returns an empty Bitmap registry.
func NewBitmap() *Bitmap {
	return &Bitmap{rb: roaring.New()}
}

func (b *Bitmap) IsDeleted(id postings.DocID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rb.Contains(uint32(id))
}

func (b *Bitmap) Delete(id postings.DocID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rb.Add(uint32(id))
}

func (b *Bitmap) Count() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rb.GetCardinality()
}

// WriteTo serializes the bitmap in its portable roaring format, for writing
// a segment's deleted-docs sidecar file.
func (b *Bitmap) WriteTo(w io.Writer) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rb.WriteTo(w)
}

// LoadBitmap reads a Bitmap registry previously written by WriteTo.
func LoadBitmap(r io.Reader) (*Bitmap, error) {
	rb := roaring.New()
	if _, err := rb.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("deleted: reading bitmap: %w", err)
	}
	return &Bitmap{rb: rb}, nil
}

// LoadBitmapBytes is a convenience wrapper over LoadBitmap for an
// already-resident byte slice, as produced by a memory-mapped sidecar read.
func LoadBitmapBytes(data []byte) (*Bitmap, error) {
	return LoadBitmap(bytes.NewReader(data))
}
