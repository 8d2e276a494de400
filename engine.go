package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/tingshu/internal/cache"
	"github.com/dgnsrekt/tingshu/tts"
	"github.com/dgnsrekt/tingshu/tts/audio"
	"github.com/dgnsrekt/tingshu/tts/engines"
	"github.com/dgnsrekt/tingshu/tts/engines/mock"
	"github.com/dgnsrekt/tingshu/tts/engines/piper"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
)

// maxPiperFailures is how many piper failures in a row switch speech to the
// silent mock engine.
const maxPiperFailures = 3

// audioCacheDir returns the configured cache directory or the user cache
// directory of tingshu.
func audioCacheDir(cfg tts.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return homedir.Expand(cfg.Dir) //nolint:wrapcheck
	}
	dir, err := gap.NewScope(gap.User, "tingshu").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

func openCache(cfg tts.CacheConfig, logger *log.Logger) (*cache.Manager, error) {
	dir, err := audioCacheDir(cfg)
	if err != nil {
		return nil, err
	}
	cc := cache.DefaultConfig(dir)
	cc.MemorySize = cfg.MemorySize
	cc.DiskSize = cfg.DiskSize
	return cache.NewManager(cc, logger) //nolint:wrapcheck
}

// buildEngine assembles the engine stack described by cfg. When watch is
// set, the piper voices directory is watched until ctx is done.
func buildEngine(ctx context.Context, cfg tts.Config, watch bool, logger *log.Logger) tts.Engine {
	var engine tts.Engine
	switch cfg.Engine {
	case "mock":
		engine = mock.NewFromConfig(cfg.Mock)
	default:
		p := piper.New(piper.ConfigFrom(cfg.Piper), piper.WithLogger(logger))
		if watch && cfg.Piper.Watch {
			if err := p.Watch(ctx); err != nil {
				logger.Warn("not watching piper voices", "dir", cfg.Piper.VoicesDir, "error", err)
			}
		}
		if !p.IsAvailable() {
			logger.Warn("piper is not available, speech will be silent",
				"binary", cfg.Piper.Binary, "voices", cfg.Piper.VoicesDir)
		}
		engine = engines.NewFallback(p, mock.NewFromConfig(cfg.Mock), maxPiperFailures, logger)
	}

	if !cfg.Cache.Enabled {
		return engine
	}
	c, err := openCache(cfg.Cache, logger)
	if err != nil {
		logger.Warn("audio cache disabled", "error", err)
		return engine
	}
	return engines.NewCached(engine, c, logger)
}

// outputRate is the sample rate the audio device is opened at.
func outputRate(cfg tts.Config) int {
	if cfg.Engine == "mock" {
		return mock.SampleRate
	}
	return cfg.Piper.SampleRate
}

// buildPlayer opens the audio device, or returns a silent player when muted
// or when no device can be opened.
func buildPlayer(cfg tts.Config, logger *log.Logger) tts.AudioPlayer {
	if cfg.Mute {
		return audio.NewSilentPlayer()
	}
	p, err := audio.NewPlayer(outputRate(cfg), 1)
	if err != nil {
		logger.Warn("audio device unavailable, playing silently", "error", err)
		return audio.NewSilentPlayer()
	}
	return p
}

func closePlayer(p tts.AudioPlayer) {
	if c, ok := p.(io.Closer); ok {
		_ = c.Close()
	}
}
