package cache

import (
	"errors"
	"testing"
)

func TestManagerPromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(Config{MemorySize: 1 << 10, DiskSize: 1 << 20, Dir: dir, Level: 3}, nil)
	if err != nil {
		t.Fatalf("NewManager() = %v", err)
	}
	defer m.Close()

	if err := m.Put("k", []byte("audio")); err != nil {
		t.Fatalf("Put() = %v", err)
	}
	_ = m.memory.Delete("k")

	got, ok := m.Get("k")
	if !ok || string(got) != "audio" {
		t.Fatalf("Get() = %q, %v", got, ok)
	}
	if !m.memory.Contains("k") {
		t.Error("disk hit should be promoted to memory")
	}

	s := m.Stats()
	if s.Promotions != 1 || s.Disk.Hits != 1 || s.DiskDir != dir {
		t.Errorf("stats = %+v", s)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}
	if rate := m.Stats().HitRate(); rate != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", rate)
	}
}

func TestManagerMemoryOnly(t *testing.T) {
	m, err := NewManager(Config{MemorySize: 8}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Put("k", []byte("12345")); err != nil {
		t.Fatalf("Put() = %v", err)
	}
	if _, ok := m.Get("k"); !ok {
		t.Error("Get() should hit memory")
	}
	if err := m.Put("big", make([]byte, 9)); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Put(big) = %v, want ErrItemTooLarge", err)
	}
	if s := m.Stats(); s.DiskDir != "" || s.Disk.Items != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestManagerLargeValueGoesToDisk(t *testing.T) {
	m, err := NewManager(Config{MemorySize: 4, DiskSize: 1 << 20, Dir: t.TempDir()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if err := m.Put("k", []byte("too big for memory")); err != nil {
		t.Fatalf("Put() = %v", err)
	}
	if got, ok := m.Get("k"); !ok || string(got) != "too big for memory" {
		t.Errorf("Get() = %q, %v", got, ok)
	}

	_ = m.Delete("k")
	if _, ok := m.Get("k"); ok {
		t.Error("Get() after Delete should miss")
	}
	if err := m.Clear(); err != nil {
		t.Errorf("Clear() = %v", err)
	}
}
