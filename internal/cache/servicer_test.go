package cache

import (
	"testing"
	"time"
)

func TestServicerCacheGetPut(t *testing.T) {
	c := NewServicerCache(4, time.Minute)
	if _, ok := c.Get("Aroha"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Put("Aroha", "id-1")
	id, ok := c.Get("Aroha")
	if !ok || id != "id-1" {
		t.Fatalf("expected id-1, got %q ok=%v", id, ok)
	}
}

func TestServicerCacheEvictsOldest(t *testing.T) {
	c := NewServicerCache(2, time.Minute)
	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("c", "3")
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted")
	}
}

func TestServicerCacheExpires(t *testing.T) {
	c := NewServicerCache(4, 20*time.Millisecond)
	c.Put("a", "1")
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestServicerCachePurge(t *testing.T) {
	c := NewServicerCache(0, 0)
	c.Put("a", "1")
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after purge")
	}
}
