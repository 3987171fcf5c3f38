package cache

import (
	"bytes"
	"fmt"
	"testing"
)

func TestCache_PutGetClear(t *testing.T) {
	c := New(0)
	key := Key{DocumentID: "doc-1", PatchID: "patch-1"}
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Put(key, []byte("content"))
	got, ok := c.Get(key)
	if !ok || !bytes.Equal(got, []byte("content")) {
		t.Fatalf("Get: got %q ok=%v", got, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len after Clear: got %d, want 0", c.Len())
	}
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected miss after Clear")
	}
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c := New(0)
	key := Key{DocumentID: "doc-1", PatchID: "patch-1"}
	c.Put(key, []byte("immutable"))
	got, _ := c.Get(key)
	got[0] = 'X'
	again, _ := c.Get(key)
	if !bytes.Equal(again, []byte("immutable")) {
		t.Fatalf("cached entry mutated: %q", again)
	}
}

func TestCache_BoundedEvicts(t *testing.T) {
	c := New(2)
	for i := 0; i < 3; i++ {
		c.Put(Key{DocumentID: "doc", PatchID: fmt.Sprintf("patch-%d", i)}, []byte{byte(i)})
	}
	if c.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", c.Len())
	}
	if _, ok := c.Get(Key{DocumentID: "doc", PatchID: "patch-0"}); ok {
		t.Fatalf("expected oldest entry evicted")
	}
}
