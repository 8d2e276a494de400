package tts

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestSpeechConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   SpeechConfig
		want SpeechConfig
	}{
		{"defaults", DefaultSpeechConfig(), SpeechConfig{Rate: 1, Pitch: 1, Volume: 1}},
		{"zero value", SpeechConfig{}, SpeechConfig{Rate: 1, Pitch: 1, Volume: 0}},
		{"rate too high", SpeechConfig{Rate: 3, Pitch: 1, Volume: 1}, SpeechConfig{Rate: MaxRate, Pitch: 1, Volume: 1}},
		{"rate too low", SpeechConfig{Rate: 0.1, Pitch: 1, Volume: 1}, SpeechConfig{Rate: MinRate, Pitch: 1, Volume: 1}},
		{"fine rate kept", SpeechConfig{Rate: 1.25, Pitch: 1, Volume: 2}, SpeechConfig{Rate: 1.25, Pitch: 1, Volume: 1}},
		{"pitch not clamped", SpeechConfig{Rate: 1, Pitch: 3, Volume: 1}, SpeechConfig{Rate: 1, Pitch: 3, Volume: 1}},
		{"non-positive pitch", SpeechConfig{Rate: 1, Pitch: -1, Volume: 1}, SpeechConfig{Rate: 1, Pitch: 1, Volume: 1}},
		{"voice kept", SpeechConfig{Rate: 1, Pitch: 1, Volume: 1, VoiceURI: "v"}, SpeechConfig{Rate: 1, Pitch: 1, Volume: 1, VoiceURI: "v"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSpeechConfigWithRate(t *testing.T) {
	cfg := DefaultSpeechConfig()
	for i := 0; i < 3; i++ {
		cfg = cfg.WithRate(RateStep)
	}
	if cfg.Rate != 1.3 {
		t.Errorf("rate after three steps = %v, want 1.3", cfg.Rate)
	}
	for i := 0; i < 20; i++ {
		cfg = cfg.WithRate(-RateStep)
	}
	if cfg.Rate != MinRate {
		t.Errorf("rate = %v, want %v", cfg.Rate, MinRate)
	}

	// a fine rate from the config snaps to the step grid on the first step
	if got := (SpeechConfig{Rate: 1.25}).WithRate(RateStep).Rate; got != 1.4 {
		t.Errorf("1.25 stepped up = %v, want 1.4", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"engine case folded", func(c *Config) { c.Engine = "MOCK" }, ""},
		{"unknown engine", func(c *Config) { c.Engine = "espeak" }, "invalid TTS engine"},
		{"rate", func(c *Config) { c.Rate = 2.5 }, "rate must be between"},
		{"volume", func(c *Config) { c.Volume = 1.5 }, "volume must be between"},
		{"pitch", func(c *Config) { c.Pitch = 0 }, "pitch must be positive"},
		{"wide pitch accepted", func(c *Config) { c.Pitch = 3 }, ""},
		{"piper binary", func(c *Config) { c.Piper.Binary = "" }, "piper binary"},
		{"piper sample rate", func(c *Config) { c.Piper.SampleRate = 100 }, "sample rate"},
		{"piper timeout", func(c *Config) { c.Piper.Timeout = 0 }, "timeout"},
		{"mock only checked for mock", func(c *Config) { c.Mock.CharsPerSecond = 0 }, ""},
		{"mock chars", func(c *Config) { c.Engine = "mock"; c.Mock.CharsPerSecond = 0 }, "chars per second"},
		{"cache sizes", func(c *Config) { c.Cache.DiskSize = -1 }, "cache sizes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig: %v", err)
			}
		})
	}
}

func TestLoadConfigFromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("tts.engine", "mock")
	viper.Set("tts.rate", 1.4)
	viper.Set("tts.voice", "zh_CN-huayan-medium")
	viper.Set("tts.piper.voices_dir", "/opt/voices")
	viper.Set("tts.piper.timeout", "5s")
	viper.Set("tts.mock.generation_delay", "0s")
	viper.Set("tts.cache.enabled", false)

	cfg, err := LoadConfigFromViper()
	if err != nil {
		t.Fatalf("LoadConfigFromViper() = %v", err)
	}

	if cfg.Engine != "mock" || cfg.Rate != 1.4 || cfg.Voice != "zh_CN-huayan-medium" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Piper.VoicesDir != "/opt/voices" || cfg.Piper.Timeout != 5*time.Second {
		t.Errorf("unexpected piper config: %+v", cfg.Piper)
	}
	if cfg.Mock.GenerationDelay != 0 {
		t.Errorf("GenerationDelay = %v", cfg.Mock.GenerationDelay)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled")
	}

	speech := cfg.Speech()
	if speech.Rate != 1.4 || speech.VoiceURI != "zh_CN-huayan-medium" {
		t.Errorf("Speech() = %+v", speech)
	}
}

func TestLoadConfigFromViperInvalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("tts.rate", 7)
	if _, err := LoadConfigFromViper(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
