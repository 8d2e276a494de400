package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const diskExt = ".zst"

// DiskCache keeps one compressed file per key under a directory. The index
// is rebuilt from the directory on open, and a file's modification time
// records its last access.
type DiskCache struct {
	dir      string
	capacity int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	size  int64
	index map[string]*diskEntry // by file name
	stats Stats
}

type diskEntry struct {
	name   string
	size   int64
	access time.Time
}

var _ Cache = (*DiskCache)(nil)

// NewDiskCache opens or creates a disk cache in dir. A level of 0 stores
// values without compression.
func NewDiskCache(dir string, capacity int64, level int) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
	}

	if level > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
	}
	// The decoder is always present so a cache written compressed can be
	// read back with compression turned off.
	var err error
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	if err := dc.load(); err != nil {
		return nil, err
	}
	return dc, nil
}

func (dc *DiskCache) load() error {
	entries, err := os.ReadDir(dc.dir)
	if err != nil {
		return fmt.Errorf("read cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), diskExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dc.index[e.Name()] = &diskEntry{name: e.Name(), size: info.Size(), access: info.ModTime()}
		dc.size += info.Size()
	}
	return nil
}

func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16]) + diskExt
}

func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[fileName(key)]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	value, err := dc.read(entry)
	if err != nil {
		dc.removeLocked(entry)
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	entry.access = now
	_ = os.Chtimes(filepath.Join(dc.dir, entry.name), now, now)
	dc.stats.Hits++
	return value, true
}

func (dc *DiskCache) read(entry *diskEntry) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(dc.dir, entry.name))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrCacheCorrupted
	}
	switch raw[0] {
	case 'r':
		return raw[1:], nil
	case 'z':
		value, err := dc.decoder.DecodeAll(raw[1:], nil)
		if err != nil {
			return nil, errors.Join(ErrCacheCorrupted, err)
		}
		return value, nil
	default:
		return nil, ErrCacheCorrupted
	}
}

// Put writes value, evicting the least recently accessed files to make
// room. Each file starts with 'z' for zstd data or 'r' for raw data.
func (dc *DiskCache) Put(key string, value []byte) error {
	data := append([]byte{'r'}, value...)
	if dc.encoder != nil {
		if packed := dc.encoder.EncodeAll(value, []byte{'z'}); len(packed) < len(data) {
			data = packed
		}
	}
	n := int64(len(data))
	if n > dc.capacity {
		return ErrItemTooLarge
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()

	name := fileName(key)
	if old, ok := dc.index[name]; ok {
		dc.removeLocked(old)
	}
	for dc.size+n > dc.capacity && len(dc.index) > 0 {
		dc.removeLocked(dc.oldestLocked())
		dc.stats.Evictions++
	}

	path := filepath.Join(dc.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write cache file: %w", err)
	}

	dc.index[name] = &diskEntry{name: name, size: n, access: time.Now()}
	dc.size += n
	return nil
}

func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if entry, ok := dc.index[fileName(key)]; ok {
		dc.removeLocked(entry)
	}
	return nil
}

func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	var errs []error
	for _, entry := range dc.index {
		if err := os.Remove(filepath.Join(dc.dir, entry.name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	dc.index = make(map[string]*diskEntry)
	dc.size = 0
	return errors.Join(errs...)
}

func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	_, ok := dc.index[fileName(key)]
	return ok
}

func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	s := dc.stats
	s.Capacity = dc.capacity
	s.Size = dc.size
	s.Items = len(dc.index)
	return s
}

// Prune removes files not accessed within maxAge and returns how many were
// removed.
func (dc *DiskCache) Prune(maxAge time.Duration) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var stale []*diskEntry
	for _, entry := range dc.index {
		if entry.access.Before(cutoff) {
			stale = append(stale, entry)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].name < stale[j].name })
	for _, entry := range stale {
		dc.removeLocked(entry)
	}
	return len(stale)
}

// Close releases the compression resources.
func (dc *DiskCache) Close() error {
	dc.decoder.Close()
	if dc.encoder != nil {
		return dc.encoder.Close()
	}
	return nil
}

func (dc *DiskCache) oldestLocked() *diskEntry {
	var oldest *diskEntry
	for _, entry := range dc.index {
		if oldest == nil || entry.access.Before(oldest.access) {
			oldest = entry
		}
	}
	return oldest
}

func (dc *DiskCache) removeLocked(entry *diskEntry) {
	_ = os.Remove(filepath.Join(dc.dir, entry.name))
	delete(dc.index, entry.name)
	dc.size -= entry.size
}
