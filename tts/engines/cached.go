// Package engines provides decorators around tts.Engine implementations.
package engines

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/tingshu/internal/cache"
	"github.com/dgnsrekt/tingshu/tts"
)

// headerSize is the cached audio prefix: sample rate (uint32) and channel
// count (uint16), little endian.
const headerSize = 6

// Cached serves repeated synthesis requests from an audio cache.
type Cached struct {
	engine tts.Engine
	cache  *cache.Manager
	logger *log.Logger
}

var (
	_ tts.Engine        = (*Cached)(nil)
	_ tts.VoiceNotifier = (*Cached)(nil)
)

// NewCached wraps engine with c.
func NewCached(engine tts.Engine, c *cache.Manager, logger *log.Logger) *Cached {
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{engine: engine, cache: c, logger: logger}
}

// CacheKey identifies the audio produced for a request.
func CacheKey(req tts.SynthesisRequest) string {
	data := fmt.Sprintf("%s|%s|%.2f|%.2f", req.Text, req.Voice.URI, req.Rate, req.Pitch)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func (c *Cached) Synthesize(ctx context.Context, req tts.SynthesisRequest) (*tts.Audio, error) {
	key := CacheKey(req)
	if raw, ok := c.cache.Get(key); ok {
		if audio, err := decodeAudio(raw); err == nil {
			c.logger.Debug("audio cache hit", "key", key[:12])
			return audio, nil
		}
		_ = c.cache.Delete(key)
	}

	audio, err := c.engine.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(key, encodeAudio(audio)); err != nil {
		c.logger.Debug("audio not cached", "key", key[:12], "err", err)
	}
	return audio, nil
}

func encodeAudio(a *tts.Audio) []byte {
	buf := make([]byte, headerSize+len(a.Data))
	binary.LittleEndian.PutUint32(buf, uint32(a.SampleRate))
	binary.LittleEndian.PutUint16(buf[4:], uint16(a.Channels))
	copy(buf[headerSize:], a.Data)
	return buf
}

func decodeAudio(raw []byte) (*tts.Audio, error) {
	if len(raw) < headerSize {
		return nil, cache.ErrCacheCorrupted
	}
	rate := int(binary.LittleEndian.Uint32(raw))
	channels := int(binary.LittleEndian.Uint16(raw[4:]))
	if rate == 0 || channels == 0 {
		return nil, cache.ErrCacheCorrupted
	}
	data := raw[headerSize:]
	return &tts.Audio{
		Data:       data,
		SampleRate: rate,
		Channels:   channels,
		Duration:   tts.PCMDuration(len(data), rate, channels),
	}, nil
}

func (c *Cached) Voices() []tts.Voice { return c.engine.Voices() }
func (c *Cached) IsAvailable() bool   { return c.engine.IsAvailable() }

// VoicesChanged forwards the wrapped engine's notifications. It returns a
// nil channel when the engine has none.
func (c *Cached) VoicesChanged() <-chan struct{} {
	if n, ok := c.engine.(tts.VoiceNotifier); ok {
		return n.VoicesChanged()
	}
	return nil
}

// Stats reports the cache counters.
func (c *Cached) Stats() cache.ManagerStats { return c.cache.Stats() }

// Shutdown stops the wrapped engine and closes the cache.
func (c *Cached) Shutdown() error {
	err := c.engine.Shutdown()
	if cerr := c.cache.Close(); err == nil {
		err = cerr
	}
	return err
}
