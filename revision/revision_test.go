package revision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/viant/patchline/cache"
	"github.com/viant/patchline/codec"
	"github.com/viant/patchline/store"

	_ "modernc.org/sqlite" // pure Go sqlite driver
)

type fixture struct {
	store    *store.Store
	cache    *cache.Cache
	codec    *codec.Codec
	recon    *Reconstructor
	selector *Selector
	seq      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if err := st.InsertDocument(ctx, store.Document{UUID: "doc-1", Name: "notes", CreatedAt: 1}); err != nil {
		t.Fatalf("InsertDocument failed: %v", err)
	}
	ca := cache.New(0)
	co := codec.New()
	recon := NewReconstructor(st, ca, co)
	return &fixture{
		store:    st,
		cache:    ca,
		codec:    co,
		recon:    recon,
		selector: NewSelector(st, recon, co, DefaultWindow),
	}
}

// commit mirrors the orchestrator's write path: select the cheapest
// base, persist the delta, seed the cache with the known content.
func (f *fixture) commit(t *testing.T, content []byte, timestamp int64) string {
	t.Helper()
	ctx := context.Background()
	_, delta, err := f.selector.SelectBase(ctx, "doc-1", content, timestamp)
	if err != nil {
		t.Fatalf("SelectBase failed: %v", err)
	}
	f.seq++
	id := fmt.Sprintf("patch-%d", f.seq)
	if err := f.store.InsertPatch(ctx, store.Patch{UUID: id, DocumentUUID: "doc-1", Timestamp: timestamp, Delta: delta}); err != nil {
		t.Fatalf("InsertPatch failed: %v", err)
	}
	f.cache.Put(cache.Key{DocumentID: "doc-1", PatchID: id}, content)
	return id
}

func TestReconstructor_EmptyHistory(t *testing.T) {
	f := newFixture(t)
	content, err := f.recon.Reconstruct(context.Background(), "doc-1", 1000)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if len(content) != 0 {
		t.Fatalf("expected empty content, got %q", content)
	}
}

func TestReconstructor_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	versions := [][]byte{
		[]byte("hello"),
		[]byte("hello world"),
		[]byte("hello brave new world"),
		[]byte("a completely different text altogether"),
	}
	timestamps := []int64{100, 200, 300, 400}
	for i := range versions {
		f.commit(t, versions[i], timestamps[i])
	}
	for i := range versions {
		got, err := f.recon.Reconstruct(ctx, "doc-1", timestamps[i])
		if err != nil {
			t.Fatalf("Reconstruct at %d failed: %v", timestamps[i], err)
		}
		if !bytes.Equal(got, versions[i]) {
			t.Fatalf("at %d: got %q, want %q", timestamps[i], got, versions[i])
		}
		// Between commits the earlier version is still current.
		got, err = f.recon.Reconstruct(ctx, "doc-1", timestamps[i]+50)
		if err != nil {
			t.Fatalf("Reconstruct at %d failed: %v", timestamps[i]+50, err)
		}
		if !bytes.Equal(got, versions[i]) {
			t.Fatalf("at %d: got %q, want %q", timestamps[i]+50, got, versions[i])
		}
	}
}

func TestReconstructor_CacheTransparent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		f.commit(t, []byte(fmt.Sprintf("version %d of this document %s", i, strings.Repeat("x", i*10))), int64(100*(i+1)))
	}
	warm := make([][]byte, 0, 8)
	for i := 0; i < 8; i++ {
		content, err := f.recon.Reconstruct(ctx, "doc-1", int64(100*(i+1)))
		if err != nil {
			t.Fatalf("warm Reconstruct failed: %v", err)
		}
		warm = append(warm, content)
	}
	f.cache.Clear()
	for i := 0; i < 8; i++ {
		content, err := f.recon.Reconstruct(ctx, "doc-1", int64(100*(i+1)))
		if err != nil {
			t.Fatalf("cold Reconstruct failed: %v", err)
		}
		if !bytes.Equal(content, warm[i]) {
			t.Fatalf("version %d: cold %q != warm %q", i, content, warm[i])
		}
	}
}

func TestReconstructor_Deterministic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.commit(t, []byte("one"), 100)
	f.commit(t, []byte("one two"), 200)
	first, err := f.recon.Reconstruct(ctx, "doc-1", 200)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := f.recon.Reconstruct(ctx, "doc-1", 200)
		if err != nil {
			t.Fatalf("Reconstruct failed: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("call %d: got %q, want %q", i, again, first)
		}
	}
}

func TestReconstructor_MalformedDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.store.InsertPatch(ctx, store.Patch{UUID: "bad", DocumentUUID: "doc-1", Timestamp: 100, Delta: []byte{0xde, 0xad, 0xbe, 0xef}}); err != nil {
		t.Fatalf("InsertPatch failed: %v", err)
	}
	if _, err := f.recon.Reconstruct(ctx, "doc-1", 100); !errors.Is(err, codec.ErrDecode) {
		t.Fatalf("got %v, want ErrDecode", err)
	}
}

func TestReconstructor_NilDeltaEqualsBase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.commit(t, []byte("base content"), 100)
	if err := f.store.InsertPatch(ctx, store.Patch{UUID: "verbatim", DocumentUUID: "doc-1", Timestamp: 200, Delta: nil}); err != nil {
		t.Fatalf("InsertPatch failed: %v", err)
	}
	got, err := f.recon.Reconstruct(ctx, "doc-1", 200)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if !bytes.Equal(got, []byte("base content")) {
		t.Fatalf("got %q, want base content", got)
	}
}

func TestSelector_NoHistoryEncodesAgainstEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag, delta, err := f.selector.SelectBase(ctx, "doc-1", []byte("first version"), 100)
	if err != nil {
		t.Fatalf("SelectBase failed: %v", err)
	}
	if tag != 0 {
		t.Fatalf("tag: got %d, want 0", tag)
	}
	out, err := f.codec.Decode(nil, delta)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(out, []byte("first version")) {
		t.Fatalf("got %q", out)
	}
}

func TestSelector_ChosenDeltaNoLargerThanPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	large := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 50))
	f.commit(t, large, 100)
	f.commit(t, []byte("tiny interlude"), 200)
	newContent := append(append([]byte(nil), large...), []byte("plus an edit")...)

	_, delta, err := f.selector.SelectBase(ctx, "doc-1", newContent, 300)
	if err != nil {
		t.Fatalf("SelectBase failed: %v", err)
	}
	previous, err := f.recon.Reconstruct(ctx, "doc-1", 200)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	tag0, err := f.codec.Encode(0, previous, newContent, true)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(delta) > len(tag0) {
		t.Fatalf("chosen delta %d bytes exceeds tag-0 delta %d bytes", len(delta), len(tag0))
	}
	// Whatever base won must still round-trip through reconstruction.
	if err := f.store.InsertPatch(ctx, store.Patch{UUID: "winner", DocumentUUID: "doc-1", Timestamp: 300, Delta: delta}); err != nil {
		t.Fatalf("InsertPatch failed: %v", err)
	}
	got, err := f.recon.Reconstruct(ctx, "doc-1", 300)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if !bytes.Equal(got, newContent) {
		t.Fatalf("reconstructed winner mismatch")
	}
}

func TestSelector_WindowBoundsCandidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.selector = NewSelector(f.store, f.recon, f.codec, 2)
	for i := 0; i < 5; i++ {
		f.commit(t, []byte(fmt.Sprintf("window version %d", i)), int64(100*(i+1)))
	}
	tag, _, err := f.selector.SelectBase(ctx, "doc-1", []byte("next"), 1000)
	if err != nil {
		t.Fatalf("SelectBase failed: %v", err)
	}
	if tag > 1 {
		t.Fatalf("tag %d exceeds window of 2", tag)
	}
}
