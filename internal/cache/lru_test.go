package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestCache(maxSize int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](maxSize, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUCapacityEviction(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatal("a should be present")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiryAndTouch(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

	c.Set("keep", 1)
	c.Set("drop", 2)

	clk.t = clk.t.Add(50 * time.Second)
	if !c.Touch("keep") {
		t.Fatal("touch should find keep")
	}
	clk.t = clk.t.Add(20 * time.Second)

	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if _, ok := c.Get("keep"); !ok {
		t.Fatal("touched entry must survive")
	}
	if len(evicted) != 1 || evicted[0] != "drop" {
		t.Fatalf("evicted = %v", evicted)
	}
}

func TestLRUDeleteSkipsCallback(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	called := false
	c.OnEvict(func(string, int) { called = true })
	c.Set("x", 7)
	v, ok := c.Delete("x")
	if !ok || v != 7 {
		t.Fatalf("Delete = %v, %v", v, ok)
	}
	if called {
		t.Fatal("explicit delete must not call the eviction callback")
	}
}

func TestManagerCleanNow(t *testing.T) {
	c, clk := newTestCache(10, time.Second)
	c.Set("a", 1)
	clk.t = clk.t.Add(2 * time.Second)

	m := NewManager()
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("CleanNow = %d, want 1", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
