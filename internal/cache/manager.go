package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Manager looks values up in memory first and then on disk, promoting disk
// hits into memory.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache // nil when the disk tier is disabled
	logger *log.Logger

	mu         sync.Mutex
	promotions int64
}

// ManagerStats combines the counters of both tiers.
type ManagerStats struct {
	Memory     Stats
	Disk       Stats
	DiskDir    string
	Promotions int64
}

// HitRate returns the share of lookups answered by either tier.
func (s ManagerStats) HitRate() float64 {
	hits := s.Memory.Hits
	misses := s.Disk.Misses
	if s.DiskDir == "" {
		misses = s.Memory.Misses
	} else {
		hits += s.Disk.Hits
	}
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// NewManager creates the tiers described by cfg and drops disk entries older
// than cfg.MaxAge.
func NewManager(cfg Config, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		memory: NewMemoryCache(cfg.MemorySize),
		logger: logger,
	}

	if cfg.DiskSize > 0 && cfg.Dir != "" {
		disk, err := NewDiskCache(cfg.Dir, cfg.DiskSize, cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("open disk cache: %w", err)
		}
		m.disk = disk
		if cfg.MaxAge > 0 {
			if n := disk.Prune(cfg.MaxAge); n > 0 {
				logger.Debug("pruned audio cache", "dir", cfg.Dir, "removed", n)
			}
		}
	}
	return m, nil
}

// Get returns the value for key from the fastest tier holding it.
func (m *Manager) Get(key string) ([]byte, bool) {
	if value, ok := m.memory.Get(key); ok {
		return value, true
	}
	if m.disk == nil {
		return nil, false
	}
	value, ok := m.disk.Get(key)
	if !ok {
		return nil, false
	}

	if err := m.memory.Put(key, value); err == nil {
		m.mu.Lock()
		m.promotions++
		m.mu.Unlock()
	}
	return value, true
}

// Put stores value in both tiers. A value too large for one tier is still
// stored in the other.
func (m *Manager) Put(key string, value []byte) error {
	memErr := m.memory.Put(key, value)
	if memErr != nil && !errors.Is(memErr, ErrItemTooLarge) {
		return memErr
	}
	if m.disk == nil {
		return memErr
	}

	diskErr := m.disk.Put(key, value)
	if diskErr != nil && !errors.Is(diskErr, ErrItemTooLarge) {
		m.logger.Warn("audio cache write failed", "err", diskErr)
		return diskErr
	}
	if memErr != nil && diskErr != nil {
		return ErrItemTooLarge
	}
	return nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) error {
	_ = m.memory.Delete(key)
	if m.disk != nil {
		return m.disk.Delete(key)
	}
	return nil
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	_ = m.memory.Clear()
	if m.disk != nil {
		return m.disk.Clear()
	}
	return nil
}

// Stats returns the counters of both tiers.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	s := ManagerStats{Promotions: m.promotions}
	m.mu.Unlock()

	s.Memory = m.memory.Stats()
	if m.disk != nil {
		s.Disk = m.disk.Stats()
		s.DiskDir = m.disk.dir
	}
	return s
}

// Close releases the disk tier.
func (m *Manager) Close() error {
	if m.disk != nil {
		return m.disk.Close()
	}
	return nil
}
