package audio

import (
	"sync"
	"time"

	"github.com/dgnsrekt/tingshu/tts"
)

// SilentPlayer plays nothing but takes as long as the audio would. It backs
// the --mute flag and machines without an audio device.
type SilentPlayer struct {
	mu        sync.Mutex
	state     PlayerState
	timer     *time.Timer
	remaining time.Duration
	started   time.Time
	done      chan struct{}
	volume    float64
}

// NewSilentPlayer creates a SilentPlayer.
func NewSilentPlayer() *SilentPlayer {
	return &SilentPlayer{volume: 1.0}
}

// Play starts a timer for the audio duration.
func (p *SilentPlayer) Play(audio *tts.Audio) (<-chan struct{}, error) {
	if audio == nil {
		return nil, tts.ErrNothingToPlay
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateClosed {
		return nil, tts.ErrPlayerClosed
	}
	p.stopLocked()

	duration := audio.Duration
	if duration == 0 {
		duration = tts.PCMDuration(len(audio.Data), audio.SampleRate, audio.Channels)
	}

	done := make(chan struct{})
	p.done = done
	p.remaining = duration
	p.state = StatePlaying
	p.startLocked()

	return done, nil
}

func (p *SilentPlayer) startLocked() {
	done := p.done
	p.started = time.Now()
	p.timer = time.AfterFunc(p.remaining, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.done == done && p.state == StatePlaying {
			p.stopLocked()
		}
	})
}

// Pause freezes the remaining time.
func (p *SilentPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return tts.ErrNotPlaying
	}
	p.timer.Stop()
	p.remaining -= time.Since(p.started)
	if p.remaining < 0 {
		p.remaining = 0
	}
	p.state = StatePaused
	return nil
}

// Resume continues counting down.
func (p *SilentPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePaused {
		return tts.ErrNotPaused
	}
	p.state = StatePlaying
	p.startLocked()
	return nil
}

// Stop ends playback early.
func (p *SilentPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *SilentPlayer) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	if p.state != StateClosed {
		p.state = StateStopped
	}
}

// SetVolume records the volume.
func (p *SilentPlayer) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clampVolume(volume)
}

// IsPlaying returns true while the timer runs.
func (p *SilentPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StatePlaying
}
