package resolve

import (
	"path/filepath"
	"testing"
)

func TestSQLiteCacheRoundTrip(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache", "resolve.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	if _, ok, err := cache.Get("m1", "Movies", "Alien"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := cache.Put("m1", "Movies", "Alien", "42"); err != nil {
		t.Fatalf("put: %v", err)
	}
	key, ok, err := cache.Get("m1", "Movies", "Alien")
	if err != nil || !ok || key != "42" {
		t.Fatalf("get: key=%q ok=%v err=%v", key, ok, err)
	}

	// Same reference on another server is a distinct entry.
	if _, ok, _ := cache.Get("m2", "Movies", "Alien"); ok {
		t.Fatal("machine ids must partition the cache")
	}

	if err := cache.Put("m1", "Movies", "Alien", "99"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	key, _, _ = cache.Get("m1", "Movies", "Alien")
	if key != "99" {
		t.Fatalf("upsert did not replace: %q", key)
	}

	if err := cache.Delete("m1", "Movies", "Alien"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := cache.Get("m1", "Movies", "Alien"); ok {
		t.Fatal("entry should be gone after delete")
	}
}
