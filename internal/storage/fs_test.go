package storage_test

import (
	"io"
	"strings"
	"testing"

	"github.com/learnhub-io/learnhub-portal/internal/storage"
)

func TestPutOpenRoundtrip(t *testing.T) {
	s, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	key, err := s.Put("videos/week1-intro.mp4", strings.NewReader("frames"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	rc, err := s.Open(key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "frames" {
		t.Fatalf("read %q, want %q", b, "frames")
	}
	if got := s.URL(key); got != "/assets/videos/week1-intro.mp4" {
		t.Fatalf("url = %q", got)
	}
}

func TestKeyTraversalRejected(t *testing.T) {
	s, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"", "..", "../etc/passwd", "a/../../b"} {
		if _, err := s.Put(key, strings.NewReader("x")); err == nil {
			t.Fatalf("key %q accepted", key)
		}
		if _, err := s.Open(key); err == nil {
			t.Fatalf("open %q accepted", key)
		}
	}
}
