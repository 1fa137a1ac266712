package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMetaCacheMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tile.json")
	if err := os.WriteFile(path, []byte(`{"a":1}`), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewMetaCache(DefaultMetaCacheConfig())

	meta1, err := cache.Metadata(path)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if meta1.Len != 7 {
		t.Errorf("Len = %d, want 7", meta1.Len)
	}
	if meta1.IsDir {
		t.Error("file reported as dir")
	}

	meta2, err := cache.Metadata(path)
	if err != nil {
		t.Fatalf("Metadata() second call error = %v", err)
	}
	if meta1 != meta2 {
		t.Errorf("cached metadata differs: %+v vs %+v", meta1, meta2)
	}
}

func TestMetaCacheMissingFile(t *testing.T) {
	cache := NewMetaCache(DefaultMetaCacheConfig())
	if _, err := cache.Metadata("/nonexistent/path/does/not/exist"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMetaCacheDirectory(t *testing.T) {
	dir := t.TempDir()
	cache := NewMetaCache(DefaultMetaCacheConfig())

	meta, err := cache.Metadata(dir)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if !meta.IsDir {
		t.Error("expected IsDir = true")
	}
}

func TestMetaCacheExpiry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tile.json")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewMetaCache(MetaCacheConfig{TTL: 10 * time.Millisecond, Capacity: 10})
	if _, err := cache.Metadata(path); err != nil {
		t.Fatal(err)
	}

	time.Sleep(30 * time.Millisecond)

	if err := os.WriteFile(path, []byte("abcdef"), 0644); err != nil {
		t.Fatal(err)
	}
	meta, err := cache.Metadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Len != 6 {
		t.Errorf("expected refreshed length 6 after TTL expiry, got %d", meta.Len)
	}
}
