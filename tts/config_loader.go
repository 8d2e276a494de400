package tts

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// LoadConfigFromViper loads TTS configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.engine") {
		cfg.Engine = viper.GetString("tts.engine")
	}
	if viper.IsSet("tts.mute") {
		cfg.Mute = viper.GetBool("tts.mute")
	}

	// Speech settings
	if viper.IsSet("tts.rate") {
		cfg.Rate = viper.GetFloat64("tts.rate")
	}
	if viper.IsSet("tts.pitch") {
		cfg.Pitch = viper.GetFloat64("tts.pitch")
	}
	if viper.IsSet("tts.volume") {
		cfg.Volume = viper.GetFloat64("tts.volume")
	}
	if viper.IsSet("tts.voice") {
		cfg.Voice = viper.GetString("tts.voice")
	}

	cfg.Piper = loadPiperConfig()
	cfg.Mock = loadMockConfig()
	cfg.Cache = loadCacheConfig()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid TTS configuration: %w", err)
	}

	return cfg, nil
}

// loadPiperConfig loads Piper-specific configuration from Viper.
func loadPiperConfig() PiperConfig {
	cfg := DefaultPiperConfig()

	if viper.IsSet("tts.piper.binary") {
		cfg.Binary = viper.GetString("tts.piper.binary")
	}
	if viper.IsSet("tts.piper.voices_dir") {
		cfg.VoicesDir = viper.GetString("tts.piper.voices_dir")
	}
	if viper.IsSet("tts.piper.sample_rate") {
		cfg.SampleRate = viper.GetInt("tts.piper.sample_rate")
	}
	if viper.IsSet("tts.piper.speaker_id") {
		cfg.SpeakerID = viper.GetInt("tts.piper.speaker_id")
	}
	if viper.IsSet("tts.piper.timeout") {
		if d, err := time.ParseDuration(viper.GetString("tts.piper.timeout")); err == nil {
			cfg.Timeout = d
		}
	}
	if viper.IsSet("tts.piper.watch") {
		cfg.Watch = viper.GetBool("tts.piper.watch")
	}

	if dir, err := homedir.Expand(cfg.VoicesDir); err == nil {
		cfg.VoicesDir = dir
	}

	return cfg
}

// loadMockConfig loads Mock TTS-specific configuration from Viper.
func loadMockConfig() MockConfig {
	cfg := DefaultMockConfig()

	if viper.IsSet("tts.mock.generation_delay") {
		if d, err := time.ParseDuration(viper.GetString("tts.mock.generation_delay")); err == nil {
			cfg.GenerationDelay = d
		}
	}
	if viper.IsSet("tts.mock.chars_per_second") {
		cfg.CharsPerSecond = viper.GetFloat64("tts.mock.chars_per_second")
	}

	return cfg
}

// loadCacheConfig loads audio cache configuration from Viper.
func loadCacheConfig() CacheConfig {
	cfg := DefaultCacheConfig()

	if viper.IsSet("tts.cache.enabled") {
		cfg.Enabled = viper.GetBool("tts.cache.enabled")
	}
	if viper.IsSet("tts.cache.dir") {
		cfg.Dir = viper.GetString("tts.cache.dir")
	}
	if viper.IsSet("tts.cache.memory_size") {
		cfg.MemorySize = viper.GetInt64("tts.cache.memory_size")
	}
	if viper.IsSet("tts.cache.disk_size") {
		cfg.DiskSize = viper.GetInt64("tts.cache.disk_size")
	}

	if cfg.Dir != "" {
		if dir, err := homedir.Expand(cfg.Dir); err == nil {
			cfg.Dir = dir
		}
	}

	return cfg
}

// SetDefaults sets default values in Viper for TTS configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("tts.engine", defaults.Engine)
	viper.SetDefault("tts.mute", defaults.Mute)
	viper.SetDefault("tts.rate", defaults.Rate)
	viper.SetDefault("tts.pitch", defaults.Pitch)
	viper.SetDefault("tts.volume", defaults.Volume)

	// Piper defaults
	viper.SetDefault("tts.piper.binary", defaults.Piper.Binary)
	viper.SetDefault("tts.piper.voices_dir", defaults.Piper.VoicesDir)
	viper.SetDefault("tts.piper.sample_rate", defaults.Piper.SampleRate)
	viper.SetDefault("tts.piper.speaker_id", defaults.Piper.SpeakerID)
	viper.SetDefault("tts.piper.timeout", defaults.Piper.Timeout.String())
	viper.SetDefault("tts.piper.watch", defaults.Piper.Watch)

	// Mock defaults
	viper.SetDefault("tts.mock.generation_delay", defaults.Mock.GenerationDelay.String())
	viper.SetDefault("tts.mock.chars_per_second", defaults.Mock.CharsPerSecond)

	// Cache defaults
	viper.SetDefault("tts.cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("tts.cache.memory_size", defaults.Cache.MemorySize)
	viper.SetDefault("tts.cache.disk_size", defaults.Cache.DiskSize)
}
