package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	_ "modernc.org/sqlite" // pure Go sqlite driver
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	st, err := Open(ctx, "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return st
}

func TestStore_DocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	doc := Document{UUID: "doc-1", Name: "notes", CreatedAt: 100}
	if err := st.InsertDocument(ctx, doc); err != nil {
		t.Fatalf("InsertDocument failed: %v", err)
	}
	got, err := st.Document(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if got != doc {
		t.Fatalf("Document: got %+v, want %+v", got, doc)
	}
	if _, err := st.Document(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Document(missing): got %v, want ErrNotFound", err)
	}
}

func TestStore_DocumentsOrderedByCreatedAtDesc(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	for _, doc := range []Document{
		{UUID: "a", Name: "first", CreatedAt: 10},
		{UUID: "b", Name: "second", CreatedAt: 30},
		{UUID: "c", Name: "third", CreatedAt: 20},
	} {
		if err := st.InsertDocument(ctx, doc); err != nil {
			t.Fatalf("InsertDocument failed: %v", err)
		}
	}
	docs, err := st.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(docs) != 3 || docs[0].UUID != "b" || docs[1].UUID != "c" || docs[2].UUID != "a" {
		t.Fatalf("unexpected order: %+v", docs)
	}
}

func TestStore_PatchQueries(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	if err := st.InsertDocument(ctx, Document{UUID: "doc-1", Name: "n", CreatedAt: 1}); err != nil {
		t.Fatalf("InsertDocument failed: %v", err)
	}
	for i, ts := range []int64{100, 200, 300} {
		patch := Patch{UUID: string(rune('a' + i)), DocumentUUID: "doc-1", Timestamp: ts, Delta: bytes.Repeat([]byte{byte(i)}, i+1)}
		if err := st.InsertPatch(ctx, patch); err != nil {
			t.Fatalf("InsertPatch failed: %v", err)
		}
	}

	upTo, err := st.PatchesUpTo(ctx, "doc-1", 250)
	if err != nil {
		t.Fatalf("PatchesUpTo failed: %v", err)
	}
	if len(upTo) != 2 || upTo[0].Timestamp != 100 || upTo[1].Timestamp != 200 {
		t.Fatalf("PatchesUpTo: got %+v", upTo)
	}
	if upTo[0].DocumentUUID != "doc-1" {
		t.Fatalf("PatchesUpTo: missing document uuid: %+v", upTo[0])
	}

	since, err := st.PatchesSince(ctx, "doc-1", 100)
	if err != nil {
		t.Fatalf("PatchesSince failed: %v", err)
	}
	if len(since) != 2 || since[0].Timestamp != 200 {
		t.Fatalf("PatchesSince: got %+v", since)
	}

	recent, err := st.RecentTimestamps(ctx, "doc-1", 300, 16)
	if err != nil {
		t.Fatalf("RecentTimestamps failed: %v", err)
	}
	if len(recent) != 2 || recent[0] != 200 || recent[1] != 100 {
		t.Fatalf("RecentTimestamps: got %v", recent)
	}

	recent, err = st.RecentTimestamps(ctx, "doc-1", 1000, 1)
	if err != nil {
		t.Fatalf("RecentTimestamps failed: %v", err)
	}
	if len(recent) != 1 || recent[0] != 300 {
		t.Fatalf("RecentTimestamps limit: got %v", recent)
	}

	all, err := st.PatchTimestamps(ctx, "doc-1")
	if err != nil {
		t.Fatalf("PatchTimestamps failed: %v", err)
	}
	if len(all) != 3 || all[0] != 100 || all[2] != 300 {
		t.Fatalf("PatchTimestamps: got %v", all)
	}

	has, err := st.HasTimestamp(ctx, "doc-1", 200)
	if err != nil || !has {
		t.Fatalf("HasTimestamp(200): got %v err=%v", has, err)
	}
	has, err = st.HasTimestamp(ctx, "doc-1", 250)
	if err != nil || has {
		t.Fatalf("HasTimestamp(250): got %v err=%v", has, err)
	}

	stats, err := st.PatchStats(ctx, "doc-1")
	if err != nil {
		t.Fatalf("PatchStats failed: %v", err)
	}
	if stats.Count != 3 || stats.DeltaBytes != 6 {
		t.Fatalf("PatchStats: got %+v", stats)
	}
}

func TestStore_DuplicateTimestampRejected(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	if err := st.InsertDocument(ctx, Document{UUID: "doc-1", Name: "n", CreatedAt: 1}); err != nil {
		t.Fatalf("InsertDocument failed: %v", err)
	}
	if err := st.InsertPatch(ctx, Patch{UUID: "p1", DocumentUUID: "doc-1", Timestamp: 100}); err != nil {
		t.Fatalf("InsertPatch failed: %v", err)
	}
	if err := st.InsertPatch(ctx, Patch{UUID: "p2", DocumentUUID: "doc-1", Timestamp: 100}); err == nil {
		t.Fatalf("expected unique index violation for duplicate timestamp")
	}
}

func TestStore_SQLiteFilePath(t *testing.T) {
	cases := map[string]string{
		":memory:":                      "",
		"file::memory:?cache=shared":    "",
		"/tmp/x.db":                     "/tmp/x.db",
		"file:/tmp/x.db?_pragma=a(b)":   "/tmp/x.db",
		"data/history.db?_pragma=a(b)":  "data/history.db",
	}
	for dsn, want := range cases {
		if got := sqliteFilePath(dsn); got != want {
			t.Fatalf("sqliteFilePath(%q): got %q, want %q", dsn, got, want)
		}
	}
}
