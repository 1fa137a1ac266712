package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBodyCacheOpenWithCacheThenMemoryHit(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "tile.json", `{"hello":"world"}`)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	meta := metaFromFileInfo(info)

	cache, err := NewBodyCache(DefaultBodyCacheConfig())
	if err != nil {
		t.Fatalf("NewBodyCache() error = %v", err)
	}

	resolved, err := cache.OpenWithCache(path, meta)
	if err != nil {
		t.Fatalf("OpenWithCache() error = %v", err)
	}
	if resolved.Kind != ResolvedDisk {
		t.Fatalf("first open should come from disk, got %v", resolved.Kind)
	}
	resolved.Disk.Close()

	// give the background loader time to populate the cache
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := cache.Get(path, meta); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for background load")
		}
		time.Sleep(time.Millisecond)
	}

	resolved2, err := cache.OpenWithCache(path, meta)
	if err != nil {
		t.Fatalf("OpenWithCache() second call error = %v", err)
	}
	if resolved2.Kind != ResolvedMemory {
		t.Fatalf("second open should come from memory, got %v", resolved2.Kind)
	}
	if string(resolved2.Memory.Data) != `{"hello":"world"}` {
		t.Errorf("cached body mismatch: %q", resolved2.Memory.Data)
	}
	if resolved2.Memory.Meta != meta {
		t.Error("cached body's meta must equal the meta passed to OpenWithCache")
	}
}

func TestBodyCacheInvalidatesOnMetaMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "tile.json", "abc")

	cache, err := NewBodyCache(DefaultBodyCacheConfig())
	if err != nil {
		t.Fatal(err)
	}

	cache.insert(path, Body{Meta: Meta{Len: 3}, Data: []byte("abc")})

	_, ok := cache.Get(path, Meta{Len: 999})
	if ok {
		t.Error("Get should miss when metadata does not match")
	}
	if _, ok := cache.store.Peek(path); ok {
		t.Error("stale entry should have been evicted on mismatch")
	}
}

func TestBodyCacheEvictsUnderByteBudget(t *testing.T) {
	cache, err := NewBodyCache(BodyCacheConfig{SizeMB: 0})
	if err != nil {
		t.Fatal(err)
	}
	cache.maxBytes = 10

	cache.insert("a", Body{Meta: Meta{Len: 6}, Data: make([]byte, 6)})
	cache.insert("b", Body{Meta: Meta{Len: 6}, Data: make([]byte, 6)})

	if _, ok := cache.store.Peek("a"); ok {
		t.Error("oldest entry should have been evicted once over budget")
	}
	if _, ok := cache.store.Peek("b"); !ok {
		t.Error("most recent entry should remain cached")
	}
	if cache.currSize.Load() > cache.maxBytes {
		t.Errorf("currSize %d exceeds maxBytes %d", cache.currSize.Load(), cache.maxBytes)
	}
}

func TestBodyCacheIneligibleAboveMaxUint32EvenUnderByteBudget(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "huge.bin", "stand-in content")

	cache, err := NewBodyCache(DefaultBodyCacheConfig())
	if err != nil {
		t.Fatal(err)
	}
	// Raise the byte budget far above the file's reported length so only the
	// u32::MAX ceiling (not the size_mb budget) can explain ineligibility.
	cache.maxBytes = math.MaxInt64

	meta := Meta{Len: uint64(math.MaxUint32) + 1}
	resolved, err := cache.OpenWithCache(path, meta)
	if err != nil {
		t.Fatalf("OpenWithCache() error = %v", err)
	}
	if resolved.Kind != ResolvedDisk {
		t.Fatalf("oversized file should still be servable from disk, got %v", resolved.Kind)
	}
	resolved.Disk.Close()

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, ok := cache.Get(path, meta); ok {
			t.Fatal("file longer than u32::MAX must never be scheduled into the cache")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBodyCacheScheduleDropsWhenQueueFull(t *testing.T) {
	cache := &BodyCache{loadCh: make(chan string)} // unbuffered, no consumer draining it

	cache.Schedule("never-delivered") // must not block
}
