package markdown

import "testing"

func TestLRU_PutGet(t *testing.T) {
	c := NewLRU[string](2)
	c.Put("a", "1")

	if got, ok := c.Get("a"); !ok || got != "1" {
		t.Fatalf("Get(a) = %q, %v; want 1, true", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) reported a hit")
	}
}

func TestLRU_EvictsOldest(t *testing.T) {
	c := NewLRU[int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Fatal("oldest entry survived eviction")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("recent entry was evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestLRU_GetRefreshesRecency(t *testing.T) {
	c := NewLRU[int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently read entry was evicted")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry survived eviction")
	}
}

func TestLRU_PutUpdatesExisting(t *testing.T) {
	c := NewLRU[int](2)
	c.Put("a", 1)
	c.Put("a", 9)

	if got, _ := c.Get("a"); got != 9 {
		t.Fatalf("Get(a) = %d, want 9", got)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestLRU_Clear(t *testing.T) {
	c := NewLRU[int](4)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry survived Clear")
	}
}
