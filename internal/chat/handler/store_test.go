package handler

import (
	"testing"
	"time"
)

func TestMemoryStoreGetOrCreate(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	sess, created := store.GetOrCreate("s1")
	if !created {
		t.Fatal("expected first lookup to create the session")
	}
	if sess.ID != "s1" {
		t.Fatalf("session ID = %q, want s1", sess.ID)
	}

	again, created := store.GetOrCreate("s1")
	if created {
		t.Fatal("expected second lookup to reuse the session")
	}
	if again != sess {
		t.Fatal("expected the same session instance")
	}
}

func TestMemoryStoreGetAndRemove(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	if _, ok := store.Get("missing"); ok {
		t.Fatal("expected Get to miss for unknown ID")
	}

	store.GetOrCreate("s1")
	if _, ok := store.Get("s1"); !ok {
		t.Fatal("expected Get to find created session")
	}

	store.Remove("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatal("expected session to be gone after Remove")
	}
}

func TestMemoryStoreAll(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	store.GetOrCreate("a")
	store.GetOrCreate("b")

	all := store.All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d sessions, want 2", len(all))
	}
}

func TestMemoryStoreReapIdle(t *testing.T) {
	store := NewMemoryStore(50 * time.Millisecond)
	stale, _ := store.GetOrCreate("stale")
	store.GetOrCreate("fresh")

	// Backdate the stale session past the TTL.
	stale.Record("hi", "hello")
	time.Sleep(80 * time.Millisecond)
	fresh, _ := store.Get("fresh")
	fresh.Record("hi", "hello")

	store.reapIdle()

	if _, ok := store.Get("stale"); ok {
		t.Fatal("expected idle session to be reaped")
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Fatal("expected active session to survive")
	}
}

func TestNewMemoryStoreDefaultTTL(t *testing.T) {
	store := NewMemoryStore(0)
	if store.ttl != DefaultSessionTTL {
		t.Fatalf("ttl = %v, want %v", store.ttl, DefaultSessionTTL)
	}
}
