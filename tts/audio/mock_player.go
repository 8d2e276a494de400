package audio

import (
	"sync"
	"time"

	"github.com/dgnsrekt/tingshu/tts"
)

// PlaybackEvent records an event for testing verification.
type PlaybackEvent struct {
	Type      string
	Timestamp time.Time
	Audio     *tts.Audio
}

// MockPlayer implements tts.AudioPlayer for testing. Playback only ends when
// the test calls Finish or Stop.
type MockPlayer struct {
	mu      sync.Mutex
	state   PlayerState
	done    chan struct{}
	current *tts.Audio
	volume  float64
	history []PlaybackEvent
	started chan struct{}

	// Error injection for testing
	playError error
}

// NewMockPlayer creates a new mock audio player for testing.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{
		volume:  1.0,
		started: make(chan struct{}, 16),
	}
}

// Play starts "playing" the given audio.
func (mp *MockPlayer) Play(audio *tts.Audio) (<-chan struct{}, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.playError != nil {
		return nil, mp.playError
	}
	if audio == nil {
		return nil, tts.ErrNothingToPlay
	}

	mp.stopLocked()
	done := make(chan struct{})
	mp.done = done
	mp.current = audio
	mp.state = StatePlaying
	mp.recordEvent("play", audio)

	select {
	case mp.started <- struct{}{}:
	default:
	}

	return done, nil
}

// Pause temporarily stops playback.
func (mp *MockPlayer) Pause() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.state != StatePlaying {
		return tts.ErrNotPlaying
	}
	mp.state = StatePaused
	mp.recordEvent("pause", mp.current)
	return nil
}

// Resume continues playback.
func (mp *MockPlayer) Resume() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.state != StatePaused {
		return tts.ErrNotPaused
	}
	mp.state = StatePlaying
	mp.recordEvent("resume", mp.current)
	return nil
}

// Stop halts playback.
func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.done != nil {
		mp.recordEvent("stop", mp.current)
	}
	mp.stopLocked()
	return nil
}

func (mp *MockPlayer) stopLocked() {
	if mp.done != nil {
		close(mp.done)
		mp.done = nil
	}
	mp.current = nil
	mp.state = StateStopped
}

// SetVolume records the volume.
func (mp *MockPlayer) SetVolume(volume float64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.volume = clampVolume(volume)
}

// IsPlaying returns true if audio is currently playing.
func (mp *MockPlayer) IsPlaying() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.state == StatePlaying
}

// Test control methods

// Finish completes the current playback as if the audio ran out. It reports
// whether anything was playing.
func (mp *MockPlayer) Finish() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.done == nil {
		return false
	}
	mp.recordEvent("finish", mp.current)
	mp.stopLocked()
	return true
}

// Started receives once for every successful Play call.
func (mp *MockPlayer) Started() <-chan struct{} {
	return mp.started
}

// SetPlayError makes Play fail with err.
func (mp *MockPlayer) SetPlayError(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.playError = err
}

// State returns the current player state.
func (mp *MockPlayer) State() PlayerState {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.state
}

// Volume returns the last volume set.
func (mp *MockPlayer) Volume() float64 {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.volume
}

// History returns a copy of the recorded events.
func (mp *MockPlayer) History() []PlaybackEvent {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	history := make([]PlaybackEvent, len(mp.history))
	copy(history, mp.history)
	return history
}

// EventTypes returns the recorded event types in order.
func (mp *MockPlayer) EventTypes() []string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	types := make([]string, len(mp.history))
	for i, e := range mp.history {
		types[i] = e.Type
	}
	return types
}

func (mp *MockPlayer) recordEvent(eventType string, audio *tts.Audio) {
	mp.history = append(mp.history, PlaybackEvent{
		Type:      eventType,
		Timestamp: time.Now(),
		Audio:     audio,
	})
}
