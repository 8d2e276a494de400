// Package audio provides audio playback functionality for TTS.
package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/dgnsrekt/tingshu/tts"
	"github.com/ebitengine/oto/v3"
)

// PlayerState represents the state of a player.
type PlayerState int

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

// String returns the string representation of the player state.
func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// pollInterval is how often the player checks for the end of playback.
const pollInterval = 20 * time.Millisecond

// oto allows one context per process.
var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoRate    int
	otoErr     error
)

func sharedContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE, // 16-bit little endian
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoContext, otoRate = ctx, sampleRate
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("%w: audio device opened at %d Hz", tts.ErrInvalidSampleRate, otoRate)
	}
	return otoContext, nil
}

// Player implements tts.AudioPlayer on top of oto. Audio must match the
// channel count the player was created with.
type Player struct {
	context    *oto.Context
	sampleRate int
	channels   int

	mu     sync.Mutex
	player *oto.Player
	data   []byte // keeps the PCM alive while oto reads it
	done   chan struct{}
	state  PlayerState
	volume float64
}

// NewPlayer opens the audio device.
func NewPlayer(sampleRate, channels int) (*Player, error) {
	if err := validateFormat(sampleRate, channels); err != nil {
		return nil, err
	}

	ctx, err := sharedContext(sampleRate, channels)
	if err != nil {
		return nil, err
	}

	return &Player{
		context:    ctx,
		sampleRate: sampleRate,
		channels:   channels,
		volume:     1.0,
	}, nil
}

func validateFormat(sampleRate, channels int) error {
	if sampleRate < 8000 || sampleRate > 48000 {
		return fmt.Errorf("%w: %d", tts.ErrInvalidSampleRate, sampleRate)
	}
	if channels != 1 && channels != 2 {
		return fmt.Errorf("%w: channels must be 1 or 2, got %d", tts.ErrInvalidAudioFormat, channels)
	}
	return nil
}

// checkAudio verifies audio can be played at the given format.
func checkAudio(audio *tts.Audio, sampleRate, channels int) error {
	if audio == nil || len(audio.Data) == 0 {
		return tts.ErrNothingToPlay
	}
	if audio.SampleRate != sampleRate {
		return fmt.Errorf("%w: got %d Hz, want %d Hz", tts.ErrInvalidSampleRate, audio.SampleRate, sampleRate)
	}
	if audio.Channels != channels {
		return fmt.Errorf("%w: got %d channels, want %d", tts.ErrInvalidAudioFormat, audio.Channels, channels)
	}
	if len(audio.Data)%(2*channels) != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of frames", tts.ErrInvalidAudioFormat, len(audio.Data))
	}
	return nil
}

// Play stops any current playback and starts audio. Audio at another sample
// rate is resampled to the rate of the device.
func (p *Player) Play(audio *tts.Audio) (<-chan struct{}, error) {
	audio = resample(audio, p.sampleRate)
	if err := checkAudio(audio, p.sampleRate, p.channels); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateClosed {
		return nil, tts.ErrPlayerClosed
	}
	p.stopLocked()

	// Own a copy so the caller's buffer can be reused.
	data := make([]byte, len(audio.Data))
	copy(data, audio.Data)

	player := p.context.NewPlayer(bytes.NewReader(data))
	player.SetVolume(p.volume)
	player.Play()

	done := make(chan struct{})
	p.player = player
	p.data = data
	p.done = done
	p.state = StatePlaying

	go p.monitor(player)

	return done, nil
}

// monitor closes the done channel once oto has drained the stream.
func (p *Player) monitor(player *oto.Player) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		if p.player != player {
			p.mu.Unlock()
			return
		}
		if p.state == StatePlaying && !player.IsPlaying() {
			p.stopLocked()
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
	}
}

// Pause pauses the current playback.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return tts.ErrNotPlaying
	}
	p.player.Pause()
	p.state = StatePaused
	return nil
}

// Resume resumes paused playback.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePaused {
		return tts.ErrNotPaused
	}
	p.player.Play()
	p.state = StatePlaying
	return nil
}

// Stop stops playback and releases the stream.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.player != nil {
		p.player.Pause()
		_ = p.player.Close()
		p.player = nil
	}
	p.data = nil
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	if p.state != StateClosed {
		p.state = StateStopped
	}
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = clampVolume(volume)
	if p.player != nil {
		p.player.SetVolume(p.volume)
	}
}

// IsPlaying returns whether audio is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StatePlaying
}

// State returns the current player state.
func (p *Player) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close stops playback. The shared audio device stays open for the process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.state = StateClosed
	return nil
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
