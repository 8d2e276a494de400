package tts

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Speech rate bounds and step used by the rate controls.
const (
	MinRate  = 0.5
	MaxRate  = 2.0
	RateStep = 0.1
)

// SpeechConfig is the per-utterance speech configuration. It is a value type
// and is replaced wholesale; changes apply to the next submitted utterance.
type SpeechConfig struct {
	Rate     float64 `yaml:"rate"`
	Pitch    float64 `yaml:"pitch"`
	Volume   float64 `yaml:"volume"`
	VoiceURI string  `yaml:"voice"` // Empty selects the preferred default voice
}

// DefaultSpeechConfig returns the neutral speech configuration.
func DefaultSpeechConfig() SpeechConfig {
	return SpeechConfig{Rate: 1.0, Pitch: 1.0, Volume: 1.0}
}

// Normalize clamps rate into [MinRate, MaxRate] and volume into [0, 1]. A
// zero rate or non-positive pitch falls back to 1.0.
func (c SpeechConfig) Normalize() SpeechConfig {
	if c.Rate == 0 {
		c.Rate = 1.0
	}
	c.Rate = clamp(c.Rate, MinRate, MaxRate)
	if c.Pitch <= 0 {
		c.Pitch = 1.0
	}
	c.Volume = clamp(c.Volume, 0, 1)
	return c
}

// WithRate returns a copy with the rate moved by delta. The result is
// rounded to one decimal so repeated steps do not drift.
func (c SpeechConfig) WithRate(delta float64) SpeechConfig {
	c.Rate = math.Round((c.Rate+delta)*10) / 10
	return c.Normalize()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Config contains all TTS configuration options.
type Config struct {
	Engine string `yaml:"engine" env:"TINGSHU_ENGINE" envDefault:"piper"`
	Mute   bool   `yaml:"mute" env:"TINGSHU_MUTE" envDefault:"false"`

	// Speech settings applied to every utterance
	Rate   float64 `yaml:"rate" env:"TINGSHU_RATE" envDefault:"1.0"`
	Pitch  float64 `yaml:"pitch" env:"TINGSHU_PITCH" envDefault:"1.0"`
	Volume float64 `yaml:"volume" env:"TINGSHU_VOLUME" envDefault:"1.0"`
	Voice  string  `yaml:"voice" env:"TINGSHU_VOICE"`

	// Engine-specific configurations
	Piper PiperConfig `yaml:"piper"`
	Mock  MockConfig  `yaml:"mock"`
	Cache CacheConfig `yaml:"cache"`
}

// PiperConfig contains Piper TTS engine specific settings.
type PiperConfig struct {
	Binary     string        `yaml:"binary" env:"TINGSHU_PIPER_BINARY" envDefault:"piper"`
	VoicesDir  string        `yaml:"voices_dir" env:"TINGSHU_PIPER_VOICES_DIR" envDefault:"~/.local/share/piper"`
	SampleRate int           `yaml:"sample_rate" env:"TINGSHU_PIPER_SAMPLE_RATE" envDefault:"22050"`
	SpeakerID  int           `yaml:"speaker_id" env:"TINGSHU_PIPER_SPEAKER_ID" envDefault:"-1"`
	Timeout    time.Duration `yaml:"timeout" env:"TINGSHU_PIPER_TIMEOUT" envDefault:"30s"`
	Watch      bool          `yaml:"watch" env:"TINGSHU_PIPER_WATCH" envDefault:"true"`
}

// MockConfig contains Mock TTS engine specific settings for testing.
type MockConfig struct {
	GenerationDelay time.Duration `yaml:"generation_delay" env:"TINGSHU_MOCK_GENERATION_DELAY" envDefault:"50ms"`
	CharsPerSecond  float64       `yaml:"chars_per_second" env:"TINGSHU_MOCK_CHARS_PER_SECOND" envDefault:"4.5"`
}

// CacheConfig controls the synthesized audio cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" env:"TINGSHU_CACHE_ENABLED" envDefault:"true"`
	Dir        string `yaml:"dir" env:"TINGSHU_CACHE_DIR"`
	MemorySize int64  `yaml:"memory_size" env:"TINGSHU_CACHE_MEMORY_SIZE" envDefault:"67108864"`
	DiskSize   int64  `yaml:"disk_size" env:"TINGSHU_CACHE_DISK_SIZE" envDefault:"536870912"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine: "piper",
		Rate:   1.0,
		Pitch:  1.0,
		Volume: 1.0,

		Piper: DefaultPiperConfig(),
		Mock:  DefaultMockConfig(),
		Cache: DefaultCacheConfig(),
	}
}

// DefaultPiperConfig returns default Piper configuration.
func DefaultPiperConfig() PiperConfig {
	return PiperConfig{
		Binary:     "piper",
		VoicesDir:  "~/.local/share/piper",
		SampleRate: 22050,
		SpeakerID:  -1,
		Timeout:    30 * time.Second,
		Watch:      true,
	}
}

// DefaultMockConfig returns default Mock TTS configuration.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		GenerationDelay: 50 * time.Millisecond,
		CharsPerSecond:  4.5,
	}
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:    true,
		MemorySize: 64 << 20,
		DiskSize:   512 << 20,
	}
}

// Speech returns the speech configuration described by c.
func (c Config) Speech() SpeechConfig {
	return SpeechConfig{
		Rate:     c.Rate,
		Pitch:    c.Pitch,
		Volume:   c.Volume,
		VoiceURI: c.Voice,
	}.Normalize()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validEngines := []string{"piper", "mock"}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			engineValid = true
			c.Engine = strings.ToLower(c.Engine)
			break
		}
	}
	if !engineValid {
		return fmt.Errorf("%w: invalid TTS engine '%s': must be one of %v", ErrInvalidConfig, c.Engine, validEngines)
	}

	if c.Rate < MinRate || c.Rate > MaxRate {
		return fmt.Errorf("%w: rate must be between %.1f and %.1f, got %.2f", ErrInvalidConfig, MinRate, MaxRate, c.Rate)
	}
	if c.Volume < 0.0 || c.Volume > 1.0 {
		return fmt.Errorf("%w: volume must be between 0.0 and 1.0, got %.2f", ErrInvalidConfig, c.Volume)
	}
	if c.Pitch <= 0 {
		return fmt.Errorf("%w: pitch must be positive, got %.2f", ErrInvalidConfig, c.Pitch)
	}

	switch c.Engine {
	case "piper":
		if err := c.Piper.Validate(); err != nil {
			return fmt.Errorf("piper config: %w", err)
		}
	case "mock":
		if err := c.Mock.Validate(); err != nil {
			return fmt.Errorf("mock config: %w", err)
		}
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	return nil
}

// Validate checks if the Piper configuration is valid.
func (c *PiperConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("%w: piper binary must be set", ErrInvalidConfig)
	}
	if c.VoicesDir == "" {
		return fmt.Errorf("%w: piper voices_dir must be set", ErrInvalidConfig)
	}
	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return fmt.Errorf("%w: sample rate must be between 8000 and 48000, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidConfig, c.Timeout)
	}
	return nil
}

// Validate checks if the Mock configuration is valid.
func (c *MockConfig) Validate() error {
	if c.GenerationDelay < 0 {
		return fmt.Errorf("%w: generation delay cannot be negative", ErrInvalidConfig)
	}
	if c.CharsPerSecond <= 0 {
		return fmt.Errorf("%w: chars per second must be positive, got %.2f", ErrInvalidConfig, c.CharsPerSecond)
	}
	return nil
}

// Validate checks if the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MemorySize < 0 || c.DiskSize < 0 {
		return fmt.Errorf("%w: cache sizes cannot be negative", ErrInvalidConfig)
	}
	return nil
}
