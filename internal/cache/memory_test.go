package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryCacheBasics(t *testing.T) {
	c := NewMemoryCache(1024)

	if err := c.Put("k", []byte("value")); err != nil {
		t.Fatalf("Put() = %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "value" {
		t.Fatalf("Get() = %q, %v", got, ok)
	}
	if !c.Contains("k") || c.Size() != 5 {
		t.Errorf("Contains/Size = %v/%d", c.Contains("k"), c.Size())
	}

	if err := c.Put("k", []byte("longer value")); err != nil {
		t.Fatalf("Put() replace = %v", err)
	}
	if c.Size() != 12 {
		t.Errorf("Size() after replace = %d, want 12", c.Size())
	}

	_ = c.Delete("k")
	if c.Contains("k") || c.Size() != 0 {
		t.Error("Delete left the entry behind")
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Get() after Delete should miss")
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.HitRate() != 0.5 {
		t.Errorf("stats = %+v", s)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(100)
	for i := 0; i < 5; i++ {
		_ = c.Put(fmt.Sprintf("k%d", i), make([]byte, 20))
	}
	c.Get("k0")
	c.Get("k1")

	if err := c.Put("new", make([]byte, 30)); err != nil {
		t.Fatalf("Put() = %v", err)
	}

	for key, want := range map[string]bool{
		"k0": true, "k1": true, "k2": false, "k3": false, "k4": true, "new": true,
	} {
		if got := c.Contains(key); got != want {
			t.Errorf("Contains(%s) = %v, want %v", key, got, want)
		}
	}
	if s := c.Stats(); s.Evictions != 2 || s.Size != 90 {
		t.Errorf("stats = %+v", s)
	}
}

func TestMemoryCacheTooLarge(t *testing.T) {
	c := NewMemoryCache(10)
	if err := c.Put("big", make([]byte, 11)); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Put() = %v, want ErrItemTooLarge", err)
	}
}

func TestMemoryCacheConcurrent(t *testing.T) {
	c := NewMemoryCache(1 << 16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("%d-%d", g, i%10)
				_ = c.Put(key, make([]byte, 64))
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if s := c.Stats(); s.Items != 80 || s.Size != 80*64 {
		t.Errorf("stats = %+v", s)
	}
}
