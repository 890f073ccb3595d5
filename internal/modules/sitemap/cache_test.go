package sitemap

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func makeEntries(n int, prefix string) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{Link: fmt.Sprintf("https://example.com/%s-%d/", prefix, i+1)}
	}
	return entries
}

func TestChunksPerPage(t *testing.T) {
	tests := []struct {
		threshold int
		chunkSize int
		want      int
	}{
		{threshold: 200, chunkSize: 20, want: 10},
		{threshold: 200, chunkSize: 30, want: 7},
		{threshold: 10, chunkSize: 20, want: 1},
		{threshold: 1, chunkSize: 1, want: 1},
	}
	for _, tt := range tests {
		c := NewCache(t.TempDir(), "surerank", tt.chunkSize)
		if got := c.ChunksPerPage(tt.threshold); got != tt.want {
			t.Errorf("ChunksPerPage(%d) with chunk size %d = %d, want %d",
				tt.threshold, tt.chunkSize, got, tt.want)
		}
	}
}

func TestWriteThenReadPageRoundTrip(t *testing.T) {
	c := NewCache(t.TempDir(), "surerank", 20)
	entries := makeEntries(50, "post")

	if err := c.WritePage("post", 1, 50, entries); err != nil {
		t.Fatalf("WritePage() error = %v", err)
	}

	got, found := c.ReadPage("post", 1, 50)
	if !found {
		t.Fatal("ReadPage() found = false")
	}
	if len(got) != len(entries) {
		t.Fatalf("entries = %d, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i].Link != entries[i].Link {
			t.Errorf("entry %d = %q, want %q (order must be stable)", i, got[i].Link, entries[i].Link)
		}
	}
}

func TestReadPageMissingChunkIsSilent(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, "surerank", 20)

	// Page 1 spans chunks 1-3 at threshold 50; drop the middle chunk.
	if err := c.WritePage("post", 1, 50, makeEntries(50, "post")); err != nil {
		t.Fatalf("WritePage() error = %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "surerank-post-chunk-2.json")); err != nil {
		t.Fatal(err)
	}

	got, found := c.ReadPage("post", 1, 50)
	if !found {
		t.Fatal("a partially built cache must still serve")
	}
	if len(got) != 30 {
		t.Errorf("entries = %d, want 30 (missing chunk contributes zero)", len(got))
	}
}

func TestReadPageUnreadableChunkIsSilent(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, "surerank", 20)

	if err := c.WritePage("post", 1, 20, makeEntries(20, "post")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "surerank-post-chunk-1.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, found := c.ReadPage("post", 1, 20)
	if found {
		t.Error("a lone corrupt chunk should read as absent")
	}
	if len(got) != 0 {
		t.Errorf("entries = %d, want 0", len(got))
	}
}

func TestReadPageAbsent(t *testing.T) {
	c := NewCache(t.TempDir(), "surerank", 20)
	if _, found := c.ReadPage("post", 1, 50); found {
		t.Error("ReadPage() on an empty cache reported found")
	}
}

func TestPagesKeepFixedChunkRanges(t *testing.T) {
	c := NewCache(t.TempDir(), "surerank", 20)

	// A short page 1 (noindex skips) must not bleed into page 2's range.
	if err := c.WritePage("post", 1, 50, makeEntries(35, "p1")); err != nil {
		t.Fatal(err)
	}
	if err := c.WritePage("post", 2, 50, makeEntries(50, "p2")); err != nil {
		t.Fatal(err)
	}

	page1, _ := c.ReadPage("post", 1, 50)
	page2, _ := c.ReadPage("post", 2, 50)
	if len(page1) != 35 {
		t.Errorf("page 1 entries = %d, want 35", len(page1))
	}
	if len(page2) != 50 {
		t.Errorf("page 2 entries = %d, want 50", len(page2))
	}
	if page2[0].Link != "https://example.com/p2-1/" {
		t.Errorf("page 2 starts at %q, its range must be independent of page 1", page2[0].Link)
	}
}

func TestClearType(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, "surerank", 20)

	if err := c.WritePage("post", 1, 50, makeEntries(50, "post")); err != nil {
		t.Fatal(err)
	}
	if err := c.WritePage("page", 1, 50, makeEntries(10, "page")); err != nil {
		t.Fatal(err)
	}

	if err := c.ClearType("post"); err != nil {
		t.Fatalf("ClearType() error = %v", err)
	}
	if _, found := c.ReadPage("post", 1, 50); found {
		t.Error("post chunks survived ClearType")
	}
	if _, found := c.ReadPage("page", 1, 50); !found {
		t.Error("ClearType removed another type's chunks")
	}
}

func TestIndexCacheRoundTrip(t *testing.T) {
	c := NewCache(t.TempDir(), "surerank", 20)

	if _, found := c.ReadIndex(); found {
		t.Fatal("ReadIndex() on an empty cache reported found")
	}

	entries := []IndexEntry{
		{Link: "https://example.com/post-sitemap.xml", Updated: "2026-01-01T00:00:00Z"},
		{Link: "https://example.com/category-sitemap.xml", Updated: "2026-01-02T00:00:00Z"},
	}
	if err := c.WriteIndex(entries); err != nil {
		t.Fatalf("WriteIndex() error = %v", err)
	}

	got, found := c.ReadIndex()
	if !found {
		t.Fatal("ReadIndex() found = false after write")
	}
	if len(got) != 2 || got[0].Link != entries[0].Link || got[1].Updated != entries[1].Updated {
		t.Errorf("ReadIndex() = %+v", got)
	}
}
