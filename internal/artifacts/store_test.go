package artifacts

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(nil, t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()

	ref, err := store.Put(ctx, "route_map", "image/jpeg", bytes.NewReader([]byte("jpeg-bytes")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ref.ID == "" || ref.Kind != "route_map" || ref.ContentType != "image/jpeg" {
		t.Fatalf("unexpected ref %+v", ref)
	}

	reader, _, err := store.Open(ctx, ref.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, ref.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := store.Open(ctx, ref.ID); err == nil {
		t.Fatal("expected open after delete to fail")
	}
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	store, err := NewFSStore(nil, t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	for _, id := range []string{"", "../etc/passwd", "a/b", `a\b`, "x.jpg"} {
		if _, _, err := store.Open(context.Background(), id); err == nil {
			t.Errorf("expected id %q to be rejected", id)
		}
	}
}
