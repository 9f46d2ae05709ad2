package postings

import (
	"reflect"
	"testing"
)

func scenarioADocs() []postingInput {
	return []postingInput{
		{10, []Position{1, 2}},
		{11, []Position{15, 20, 21, 50, 55}},
		{15, []Position{20}},
		{25, []Position{18}},
		{50, []Position{20}},
	}
}

func TestEncodeDecodeRoundTrip_ScenarioA(t *testing.T) {
	ctx, sink := encodeTerm(t, DefaultBlockSize, DefaultSkiplistStep, scenarioADocs())

	var dec Decoder
	if err := dec.Init(ctx, &memAccess{buf: sink.buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	first, err := dec.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if first != 10 {
		t.Fatalf("Begin() = %d, want 10", first)
	}

	wantSequence := []DocID{11, 15, 25, 50}
	for i, want := range wantSequence {
		ok, err := dec.Next()
		if err != nil {
			t.Fatalf("Next() #%d: %v", i, err)
		}
		if !ok {
			t.Fatalf("Next() #%d = false, want true", i)
		}
		if got := dec.CurrentDocument(); got != want {
			t.Fatalf("Next() #%d current doc = %d, want %d", i, got, want)
		}
	}
	ok, err := dec.Next()
	if err != nil {
		t.Fatalf("final Next: %v", err)
	}
	if ok {
		t.Fatalf("final Next() = true, want false (exhausted)")
	}
}

func TestMaterializeHits_ScenarioA(t *testing.T) {
	ctx, sink := encodeTerm(t, DefaultBlockSize, DefaultSkiplistStep, scenarioADocs())

	var dec Decoder
	if err := dec.Init(ctx, &memAccess{buf: sink.buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := dec.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if ok, err := dec.Next(); err != nil || !ok {
		t.Fatalf("Next to doc 11: ok=%v err=%v", ok, err)
	}
	if got := dec.CurrentDocument(); got != 11 {
		t.Fatalf("current doc = %d, want 11", got)
	}

	var ws collectingWordSpace
	hits, err := dec.MaterializeHits(7, &ws, nil)
	if err != nil {
		t.Fatalf("MaterializeHits: %v", err)
	}
	want := []Position{15, 20, 21, 50, 55}
	got := make([]Position, len(hits))
	for i, h := range hits {
		got[i] = h.Position
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("materialized positions = %v, want %v", got, want)
	}
	if !reflect.DeepEqual([]Position(ws.positions), want) {
		t.Fatalf("wordspace positions = %v, want %v", ws.positions, want)
	}

	// Materializing again must be a no-op: the internal frequency for this
	// slot was zeroed.
	hits2, err := dec.MaterializeHits(7, &ws, nil)
	if err != nil {
		t.Fatalf("second MaterializeHits: %v", err)
	}
	if len(hits2) != 0 {
		t.Fatalf("second MaterializeHits returned %d hits, want 0", len(hits2))
	}
}

type collectingWordSpace struct {
	positions []Position
}

func (w *collectingWordSpace) Set(termID uint32, position Position) {
	w.positions = append(w.positions, position)
}

func TestSeek_ScenarioB(t *testing.T) {
	ctx, sink := encodeTerm(t, DefaultBlockSize, DefaultSkiplistStep, scenarioADocs())

	var dec Decoder
	if err := dec.Init(ctx, &memAccess{buf: sink.buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := dec.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if ok, err := dec.Seek(14); err != nil || ok {
		t.Fatalf("Seek(14) = %v, %v, want false, nil", ok, err)
	}
	if got := dec.CurrentDocument(); got != 15 {
		t.Fatalf("CurrentDocument() after Seek(14) = %d, want 15", got)
	}

	if ok, err := dec.Seek(50); err != nil || !ok {
		t.Fatalf("Seek(50) = %v, %v, want true, nil", ok, err)
	}

	if ok, err := dec.Seek(51); err != nil || ok {
		t.Fatalf("Seek(51) = %v, %v, want false, nil", ok, err)
	}
	if got := dec.CurrentDocument(); got != ExhaustedDocID {
		t.Fatalf("CurrentDocument() after Seek(51) = %d, want ExhaustedDocID", got)
	}
}

func TestEmptyChunk(t *testing.T) {
	var dec Decoder
	if err := dec.Init(TermCtx{}, &memAccess{}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	first, err := dec.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if first != ExhaustedDocID {
		t.Fatalf("Begin() on empty chunk = %d, want ExhaustedDocID", first)
	}
	if ok, err := dec.Next(); err != nil || ok {
		t.Fatalf("Next() on empty chunk = %v, %v, want false, nil", ok, err)
	}
}

func TestSingleDocumentBlock(t *testing.T) {
	ctx, sink := encodeTerm(t, DefaultBlockSize, DefaultSkiplistStep, []postingInput{
		{7, []Position{3}},
	})
	var dec Decoder
	if err := dec.Init(ctx, &memAccess{buf: sink.buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	first, err := dec.Begin()
	if err != nil || first != 7 {
		t.Fatalf("Begin() = %d, %v, want 7, nil", first, err)
	}
	if ok, err := dec.Seek(7); err != nil || !ok {
		t.Fatalf("Seek(7) = %v, %v, want true, nil", ok, err)
	}
	if ok, err := dec.Seek(8); err != nil || ok {
		t.Fatalf("Seek(8) = %v, %v, want false, nil", ok, err)
	}
}

func TestExactlyOneFullBlock(t *testing.T) {
	const n = DefaultBlockSize
	docs := make([]postingInput, n)
	for i := 0; i < n; i++ {
		docs[i] = postingInput{docID: DocID(i + 1), positions: []Position{1}}
	}
	ctx, sink := encodeTerm(t, DefaultBlockSize, DefaultSkiplistStep, docs)
	if ctx.DocumentCount != n {
		t.Fatalf("DocumentCount = %d, want %d", ctx.DocumentCount, n)
	}

	var dec Decoder
	if err := dec.Init(ctx, &memAccess{buf: sink.buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	first, err := dec.Begin()
	if err != nil || first != 1 {
		t.Fatalf("Begin() = %d, %v, want 1, nil", first, err)
	}
	count := 1
	for {
		ok, err := dec.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != n {
		t.Fatalf("decoded %d documents, want %d", count, n)
	}
}

func TestLargeListSkiplistSeek_ScenarioF(t *testing.T) {
	const total = 10000
	docs := make([]postingInput, total)
	for i := 0; i < total; i++ {
		docs[i] = postingInput{docID: DocID(i + 1), positions: []Position{1}}
	}
	ctx, sink := encodeTerm(t, DefaultBlockSize, DefaultSkiplistStep, docs)

	var dec Decoder
	if err := dec.Init(ctx, &memAccess{buf: sink.buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := dec.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(dec.skiplist) == 0 {
		t.Fatalf("expected a non-empty inline skiplist for a %d-document term", total)
	}

	ok, err := dec.Seek(5000)
	if err != nil {
		t.Fatalf("Seek(5000): %v", err)
	}
	if !ok {
		t.Fatalf("Seek(5000) = false, want true")
	}
	if got := dec.CurrentDocument(); got != 5000 {
		t.Fatalf("CurrentDocument() = %d, want 5000", got)
	}
	if dec.skipIdx == 0 {
		t.Fatalf("Seek(5000) did not advance skipIdx; skiplist was not consulted")
	}
}

func TestSeekIdempotent(t *testing.T) {
	ctx, sink := encodeTerm(t, DefaultBlockSize, DefaultSkiplistStep, scenarioADocs())
	var dec Decoder
	if err := dec.Init(ctx, &memAccess{buf: sink.buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := dec.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	ok1, err := dec.Seek(25)
	if err != nil || !ok1 {
		t.Fatalf("first Seek(25) = %v, %v, want true, nil", ok1, err)
	}
	ok2, err := dec.Seek(25)
	if err != nil || !ok2 {
		t.Fatalf("second Seek(25) = %v, %v, want true, nil", ok2, err)
	}
	if dec.CurrentDocument() != 25 {
		t.Fatalf("CurrentDocument() = %d after idempotent seeks, want 25", dec.CurrentDocument())
	}
}

func TestEncoderContractViolations(t *testing.T) {
	sink := &memSink{}
	enc, err := NewEncoder(sink, DefaultBlockSize, DefaultSkiplistStep)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if err := enc.BeginTerm(); err != nil {
		t.Fatalf("BeginTerm: %v", err)
	}
	if err := enc.BeginDocument(10, 1); err != nil {
		t.Fatalf("BeginDocument: %v", err)
	}
	if err := enc.NewPosition(5); err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if err := enc.EndDocument(); err != nil {
		t.Fatalf("EndDocument: %v", err)
	}
	if err := enc.BeginDocument(10, 1); err == nil {
		t.Fatalf("BeginDocument with non-increasing docID succeeded, want error")
	}
	if err := enc.BeginDocument(11, 1); err != nil {
		t.Fatalf("BeginDocument: %v", err)
	}
	if err := enc.NewPosition(3); err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if err := enc.NewPosition(3); err == nil {
		t.Fatalf("NewPosition with non-increasing position succeeded, want error")
	}
}
