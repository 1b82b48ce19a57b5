package orbix

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheKeyParamOrderIndependent(t *testing.T) {
	a := CacheKey("GET", "https://users.roblox.com/v1/users/1", map[string]string{
		"limit": "10", "sortOrder": "Desc",
	})
	b := CacheKey("GET", "https://users.roblox.com/v1/users/1", map[string]string{
		"sortOrder": "Desc", "limit": "10",
	})
	if a != b {
		t.Errorf("keys differ for identical params: %q vs %q", a, b)
	}

	c := CacheKey("GET", "https://users.roblox.com/v1/users/1", map[string]string{
		"limit": "25", "sortOrder": "Desc",
	})
	if a == c {
		t.Error("keys match for different params")
	}

	d := CacheKey("POST", "https://users.roblox.com/v1/users/1", nil)
	e := CacheKey("GET", "https://users.roblox.com/v1/users/1", nil)
	if d == e {
		t.Error("keys match for different methods")
	}
}

func TestLRUCachePutGet(t *testing.T) {
	cache, err := NewLRUCache(10, time.Minute)
	if err != nil {
		t.Fatalf("NewLRUCache() error: %v", err)
	}

	cache.Set("k", "v")
	value, ok := cache.Get("k")
	if !ok {
		t.Fatal("expected hit for fresh entry")
	}
	if value != "v" {
		t.Errorf("expected %q, got %v", "v", value)
	}

	if _, ok := cache.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	cache, err := NewLRUCache(10, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewLRUCache() error: %v", err)
	}

	cache.Set("k", "v")
	if _, ok := cache.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := cache.Get("k"); ok {
		t.Error("expected expired entry to be treated as a miss")
	}
	if cache.Len() != 0 {
		t.Errorf("expected expired entry to be removed, Len()=%d", cache.Len())
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewLRUCache(2, time.Minute)
	if err != nil {
		t.Fatalf("NewLRUCache() error: %v", err)
	}

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Get("a") // a is now most recently used
	cache.Set("c", 3)

	if _, ok := cache.Get("b"); ok {
		t.Error("expected b to be evicted as least recently used")
	}
	if _, ok := cache.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("expected c to be present")
	}
}

func TestLRUCacheNeverExceedsCapacity(t *testing.T) {
	const capacity = 3
	cache, err := NewLRUCache(capacity, time.Minute)
	if err != nil {
		t.Fatalf("NewLRUCache() error: %v", err)
	}

	for i := 0; i < 20; i++ {
		cache.Set(fmt.Sprintf("k%d", i), i)
		if cache.Len() > capacity {
			t.Fatalf("cache holds %d entries, capacity %d", cache.Len(), capacity)
		}
	}
}

func TestLRUCacheDeleteAndClear(t *testing.T) {
	cache, err := NewLRUCache(10, time.Minute)
	if err != nil {
		t.Fatalf("NewLRUCache() error: %v", err)
	}

	cache.Set("a", 1)
	cache.Set("b", 2)

	cache.Delete("a")
	if _, ok := cache.Get("a"); ok {
		t.Error("expected a to be deleted")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("expected empty cache after Clear, Len()=%d", cache.Len())
	}
}

func TestLRUCacheOverwriteRefreshesValue(t *testing.T) {
	cache, err := NewLRUCache(10, time.Minute)
	if err != nil {
		t.Fatalf("NewLRUCache() error: %v", err)
	}

	cache.Set("k", "old")
	cache.Set("k", "new")

	value, ok := cache.Get("k")
	if !ok || value != "new" {
		t.Errorf("expected overwritten value %q, got %v (hit=%v)", "new", value, ok)
	}
	if cache.Len() != 1 {
		t.Errorf("expected single entry after overwrite, Len()=%d", cache.Len())
	}
}
