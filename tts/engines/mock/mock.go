// Package mock provides a mock TTS engine for testing.
package mock

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dgnsrekt/tingshu/tts"
)

// SampleRate of the generated silence.
const SampleRate = 22050

// MockEngine implements the TTS engine interface for testing. It produces
// silent PCM whose length follows the text length and rate.
type MockEngine struct {
	mu sync.Mutex

	// Configuration
	delay          time.Duration // Simulated processing delay
	charsPerSecond float64
	voices         []tts.Voice
	changed        chan struct{}

	// Control for testing
	shouldFail   bool
	failureError error

	// State
	available   bool
	callCount   int
	lastRequest tts.SynthesisRequest
}

// New creates a new mock TTS engine.
func New() *MockEngine {
	return &MockEngine{
		delay:          50 * time.Millisecond,
		charsPerSecond: 4.5,
		available:      true,
		changed:        make(chan struct{}, 1),
		voices: []tts.Voice{
			{URI: "mock-en", Name: "Mock English", Lang: "en-US"},
			{URI: "mock-zh", Name: "Mock Mandarin", Lang: "zh-CN"},
		},
	}
}

// NewFromConfig creates a mock engine with configured timing.
func NewFromConfig(cfg tts.MockConfig) *MockEngine {
	e := New()
	e.delay = cfg.GenerationDelay
	if cfg.CharsPerSecond > 0 {
		e.charsPerSecond = cfg.CharsPerSecond
	}
	return e
}

// Synthesize simulates audio generation.
func (e *MockEngine) Synthesize(ctx context.Context, req tts.SynthesisRequest) (*tts.Audio, error) {
	e.mu.Lock()
	e.callCount++
	e.lastRequest = req
	delay := e.delay
	fail, failErr := e.shouldFail, e.failureError
	available := e.available
	e.mu.Unlock()

	if !available {
		return nil, tts.ErrEngineShutdown
	}

	// Simulate processing delay
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if fail {
		return nil, failErr
	}

	// Generate mock audio (silence)
	duration := e.estimateDuration(req.Text, req.Rate)
	samples := int(duration.Seconds() * SampleRate)

	return &tts.Audio{
		Data:       make([]byte, samples*2), // 16-bit audio
		SampleRate: SampleRate,
		Channels:   1,
		Duration:   duration,
	}, nil
}

// Voices returns available mock voices.
func (e *MockEngine) Voices() []tts.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	voices := make([]tts.Voice, len(e.voices))
	copy(voices, e.voices)
	return voices
}

// VoicesChanged signals after SetVoices.
func (e *MockEngine) VoicesChanged() <-chan struct{} {
	return e.changed
}

// IsAvailable returns the mock availability state.
func (e *MockEngine) IsAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// Shutdown simulates engine shutdown.
func (e *MockEngine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.available = false
	return nil
}

// Test control methods

// SetVoices replaces the voice list and notifies listeners.
func (e *MockEngine) SetVoices(voices []tts.Voice) {
	e.mu.Lock()
	e.voices = voices
	e.mu.Unlock()

	select {
	case e.changed <- struct{}{}:
	default:
	}
}

// SetDelay sets the simulated processing delay.
func (e *MockEngine) SetDelay(delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = delay
}

// SetFailure configures the engine to fail with the given error.
func (e *MockEngine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shouldFail = true
	e.failureError = err
}

// ClearFailure resets the engine to normal operation.
func (e *MockEngine) ClearFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shouldFail = false
	e.failureError = nil
}

// CallCount returns the number of Synthesize calls.
func (e *MockEngine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

// LastRequest returns the most recent synthesis request.
func (e *MockEngine) LastRequest() tts.SynthesisRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRequest
}

// estimateDuration estimates speaking duration for text. Chinese is read at
// roughly four to five characters per second.
func (e *MockEngine) estimateDuration(text string, rate float64) time.Duration {
	chars := utf8.RuneCountInString(text)
	if chars < 1 {
		chars = 1
	}
	if rate <= 0 {
		rate = 1
	}
	seconds := float64(chars) / (e.charsPerSecond * rate)
	return time.Duration(seconds * float64(time.Second))
}
