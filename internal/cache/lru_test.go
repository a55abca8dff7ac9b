package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCacheExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int64, string](10, time.Minute).WithClock(clock.now)

	c.Set(1, "a")
	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("Get(1) = %q, %v; want a, true", v, ok)
	}

	clock.t = clock.t.Add(59 * time.Second)
	c.Set(2, "b")

	clock.t = clock.t.Add(2 * time.Second)
	if _, ok := c.Get(1); ok {
		t.Fatalf("Get(1) after ttl should miss")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired() = %d, want 0", n)
	}

	clock.t = clock.t.Add(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string, int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("least recently used key should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("Get(%q) missed", k)
		}
	}

	c.Delete("a")
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
}

func TestManagerCleanAll(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	a := NewLRUCache[int, int](0, time.Second).WithClock(clock.now)
	b := NewLRUCache[int, int](0, time.Second).WithClock(clock.now)
	a.Set(1, 1)
	b.Set(1, 1)
	b.Set(2, 2)

	m := NewManager()
	m.Register(a)
	m.Register(b)
	defer m.Stop()

	clock.t = clock.t.Add(2 * time.Second)
	if n := m.CleanAll(); n != 3 {
		t.Fatalf("CleanAll() = %d, want 3", n)
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()
	m.Stop()
}
