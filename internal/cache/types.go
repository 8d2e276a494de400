package cache

import (
	"errors"
	"time"
)

var (
	// ErrItemTooLarge is returned when a value exceeds a tier's capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when a stored value cannot be decoded.
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level identifies a cache tier.
type Level int

const (
	LevelMemory Level = iota
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds the counters of one tier.
type Stats struct {
	Capacity  int64 // bytes
	Size      int64 // bytes currently stored
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a byte-bounded key/value store.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Size() int64
	Contains(key string) bool
	Stats() Stats
}

// Config sizes the tiers of a Manager.
type Config struct {
	MemorySize int64  // L1 capacity in bytes
	DiskSize   int64  // L2 capacity in bytes, 0 disables the disk tier
	Dir        string // L2 directory
	Level      int    // zstd level, 0 stores values uncompressed
	MaxAge     time.Duration
}

// DefaultConfig returns the tier sizes used when none are configured.
func DefaultConfig(dir string) Config {
	return Config{
		MemorySize: 64 << 20,
		DiskSize:   512 << 20,
		Dir:        dir,
		Level:      3,
		MaxAge:     7 * 24 * time.Hour,
	}
}
