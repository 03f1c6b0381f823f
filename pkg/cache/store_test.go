package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func mustNew[V any](t *testing.T, opts ...Option[V]) *Store[V] {
	t.Helper()
	store, err := New[V](opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return store
}

func TestStore_BasicOperations(t *testing.T) {
	store := mustNew[string](t)

	if value, exists := store.Get("key1"); exists {
		t.Errorf("Expected miss on empty store, got value: %s", value)
	}

	if err := store.Set("key1", "value1", time.Minute); err != nil {
		t.Fatalf("Unexpected error setting key: %v", err)
	}
	if value, exists := store.Get("key1"); !exists || value != "value1" {
		t.Errorf("Expected 'value1', got value: %s, exists: %t", value, exists)
	}

	// Overwrite
	if err := store.Set("key1", "value1_updated", time.Minute); err != nil {
		t.Fatalf("Unexpected error updating key: %v", err)
	}
	if value, _ := store.Get("key1"); value != "value1_updated" {
		t.Errorf("Expected 'value1_updated', got %s", value)
	}

	if !store.Delete("key1") {
		t.Error("Expected successful deletion")
	}
	if store.Delete("key1") {
		t.Error("Expected second deletion to report absence")
	}
}

func TestStore_SetValidation(t *testing.T) {
	store := mustNew[string](t)

	if err := store.Set("", "v", time.Minute); err == nil {
		t.Error("Expected error for empty key")
	}
	if err := store.Set("k", "v", 0); err == nil {
		t.Error("Expected error for zero ttl")
	}
	if err := store.Set("k", "v", -time.Second); err == nil {
		t.Error("Expected error for negative ttl")
	}
}

func TestStore_LazyExpiry(t *testing.T) {
	store := mustNew[int](t)

	if err := store.Set("short", 42, 20*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if v, exists := store.Get("short"); !exists || v != 42 {
		t.Errorf("Expected hit before TTL, got %d, exists: %t", v, exists)
	}

	time.Sleep(30 * time.Millisecond)

	// No sweep has run; the read itself must treat the entry as absent
	if _, exists := store.Get("short"); exists {
		t.Error("Expected logical absence after TTL without a sweep")
	}
	if store.Size() != 0 {
		t.Errorf("Expected lazy removal on read, size = %d", store.Size())
	}
}

func TestStore_SweepExpired(t *testing.T) {
	store := mustNew[int](t)

	for i := 0; i < 3; i++ {
		if err := store.Set(fmt.Sprintf("short-%d", i), i, 20*time.Millisecond); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	if err := store.Set("long", 99, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	removed := store.SweepExpired()
	if removed != 3 {
		t.Errorf("Expected 3 entries swept, got %d", removed)
	}
	if store.Size() != 1 {
		t.Errorf("Expected 1 surviving entry, got %d", store.Size())
	}
	if v, exists := store.Get("long"); !exists || v != 99 {
		t.Error("Surviving entry should still be readable")
	}

	// Sweep and lazy Get must agree: second sweep finds nothing
	if removed := store.SweepExpired(); removed != 0 {
		t.Errorf("Expected empty second sweep, got %d", removed)
	}
}

func TestStore_Keys(t *testing.T) {
	store := mustNew[string](t)

	_ = store.Set("live", "v", time.Minute)
	_ = store.Set("dead", "v", 10*time.Millisecond)

	time.Sleep(20 * time.Millisecond)

	keys := store.Keys()
	if len(keys) != 1 || keys[0] != "live" {
		t.Errorf("Keys should exclude expired entries, got %v", keys)
	}
}

func TestStore_EvictionCallback(t *testing.T) {
	var mu sync.Mutex
	evicted := make(map[string]int)

	store := mustNew[int](t, WithEvictionCallback[int](func(key string, value int) {
		mu.Lock()
		evicted[key] = value
		mu.Unlock()
	}))

	_ = store.Set("a", 1, 10*time.Millisecond)
	_ = store.Set("b", 2, time.Minute)

	time.Sleep(20 * time.Millisecond)
	store.SweepExpired()

	mu.Lock()
	if evicted["a"] != 1 {
		t.Errorf("Expected eviction callback for 'a', got %v", evicted)
	}
	mu.Unlock()

	store.Delete("b")
	mu.Lock()
	if evicted["b"] != 2 {
		t.Errorf("Expected eviction callback on delete, got %v", evicted)
	}
	mu.Unlock()
}

func TestStore_Statistics(t *testing.T) {
	store := mustNew[string](t)

	_ = store.Set("k", "v", time.Minute)
	store.Get("k")
	store.Get("absent")

	stats := store.Stats().Summary()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Sets != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.CurrentSize != 1 {
		t.Errorf("Expected current size 1, got %d", stats.CurrentSize)
	}
	if stats.HitRatio != 0.5 {
		t.Errorf("Expected hit ratio 0.5, got %f", stats.HitRatio)
	}
}

func TestStore_Clear(t *testing.T) {
	store := mustNew[string](t)

	_ = store.Set("a", "1", time.Minute)
	_ = store.Set("b", "2", time.Minute)

	store.Clear()

	if store.Size() != 0 {
		t.Errorf("Expected empty store after Clear, size = %d", store.Size())
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := mustNew[int](t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", j%10)
				_ = store.Set(key, n, time.Minute)
				store.Get(key)
				if j%25 == 0 {
					store.SweepExpired()
				}
			}
		}(i)
	}
	wg.Wait()

	if store.Size() > 10 {
		t.Errorf("Expected at most 10 entries, got %d", store.Size())
	}
}
