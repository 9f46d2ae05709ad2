package segment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/emberidx/emberidx/internal/postings"
)

func buildTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(4, 2, 2)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.AddTerm([]byte("apple"), []DocumentPosting{
		{DocID: 1, Frequency: 2, Positions: []postings.Position{0, 5}},
		{DocID: 3, Frequency: 1, Positions: []postings.Position{2}},
		{DocID: 7, Frequency: 1, Positions: []postings.Position{9}},
	}); err != nil {
		t.Fatalf("AddTerm(apple): %v", err)
	}
	if err := s.AddTerm([]byte("banana"), []DocumentPosting{
		{DocID: 2, Frequency: 1, Positions: []postings.Position{1}},
		{DocID: 5, Frequency: 1, Positions: []postings.Position{4}},
	}); err != nil {
		t.Fatalf("AddTerm(banana): %v", err)
	}
	return s
}

func TestSessionCommitAndReopen(t *testing.T) {
	s := buildTestSession(t)
	dir := t.TempDir()
	path, err := s.Commit(dir)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("Commit wrote to %s, want under %s", path, dir)
	}

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if src.TermCount() != 2 {
		t.Fatalf("TermCount() = %d, want 2", src.TermCount())
	}
	if src.DocumentCount() != 5 {
		t.Fatalf("DocumentCount() = %d, want 5", src.DocumentCount())
	}

	ctx, ok, err := src.Lookup([]byte("apple"))
	if err != nil || !ok {
		t.Fatalf("Lookup(apple) = %v, %v, want found", ok, err)
	}
	if ctx.DocumentCount != 3 {
		t.Fatalf("apple DocumentCount = %d, want 3", ctx.DocumentCount)
	}

	dec, err := src.NewDecoder(ctx)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	first, err := dec.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	var got []postings.DocID
	for d := first; d != postings.ExhaustedDocID; {
		got = append(got, d)
		ok, err := dec.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		d = dec.CurrentDocument()
	}
	want := []postings.DocID{1, 3, 7}
	if len(got) != len(want) {
		t.Fatalf("decoded docIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("decoded docIDs = %v, want %v", got, want)
		}
	}

	if _, ok, err := src.Lookup([]byte("cherry")); err != nil || ok {
		t.Fatalf("Lookup(cherry) = %v, %v, want not found", ok, err)
	}
}

func TestOpenAll(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 3; i++ {
		s := buildTestSession(t)
		path, err := s.Commit(dir)
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
		paths = append(paths, path)
	}

	sources, err := OpenAll(context.Background(), paths, 2, nil)
	if err != nil {
		t.Fatalf("OpenAll: %v", err)
	}
	defer func() {
		for _, src := range sources {
			src.Close()
		}
	}()
	if len(sources) != 3 {
		t.Fatalf("OpenAll returned %d sources, want 3", len(sources))
	}
	for i, src := range sources {
		if src.Path() != paths[i] {
			t.Fatalf("sources[%d].Path() = %s, want %s", i, src.Path(), paths[i])
		}
	}
}

func TestOpenAllPropagatesError(t *testing.T) {
	dir := t.TempDir()
	s := buildTestSession(t)
	good, err := s.Commit(dir)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	bad := filepath.Join(dir, "does-not-exist.ember")

	if _, err := OpenAll(context.Background(), []string{good, bad}, 2, nil); err == nil {
		t.Fatalf("OpenAll with a missing segment succeeded, want error")
	}
}
