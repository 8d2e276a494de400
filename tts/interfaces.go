package tts

import (
	"context"
	"time"
)

// Speaker is the speech capability the Sequencer drives. Implementations own
// the underlying engine exclusively and keep at most one utterance active.
type Speaker interface {
	// Voices returns the known voices, Chinese voices first.
	Voices() []Voice

	// OnVoicesChanged registers a callback for voice list replacements.
	OnVoicesChanged(fn func([]Voice))

	// Speak cancels any active utterance and submits text. Exactly one of
	// onEnd or onError fires for the utterance, asynchronously, unless it is
	// cancelled first.
	Speak(text string, cfg SpeechConfig, onEnd func(), onError func(error))

	// Pause suspends the active utterance if it is speaking.
	Pause()

	// Resume continues a paused utterance.
	Resume()

	// Cancel stops any active or paused utterance and suppresses its callbacks.
	Cancel()
}

// Engine synthesizes speech audio.
type Engine interface {
	// Voices returns the voices the engine can synthesize with.
	Voices() []Voice

	// Synthesize converts text to audio. It returns ctx.Err() when cancelled.
	Synthesize(ctx context.Context, req SynthesisRequest) (*Audio, error)

	// IsAvailable checks if the engine is ready for use.
	IsAvailable() bool

	// Shutdown cleanly stops the engine and releases resources.
	Shutdown() error
}

// VoiceNotifier is implemented by engines whose voice list can change at
// runtime.
type VoiceNotifier interface {
	VoicesChanged() <-chan struct{}
}

// AudioPlayer defines the interface for audio playback.
type AudioPlayer interface {
	// Play starts playing audio. The returned channel is closed when playback
	// ends, whether it finished or was stopped.
	Play(audio *Audio) (<-chan struct{}, error)

	// Pause temporarily stops playback.
	Pause() error

	// Resume continues playback from paused position.
	Resume() error

	// Stop halts playback.
	Stop() error

	// SetVolume sets the output level, 0.0 to 1.0.
	SetVolume(volume float64)

	// IsPlaying returns true if audio is currently playing.
	IsPlaying() bool
}

// SynthesisRequest is a single utterance for an Engine.
type SynthesisRequest struct {
	Text  string
	Voice Voice   // Zero value selects the engine default
	Rate  float64 // Speech rate multiplier (1.0 = normal)
	Pitch float64 // Pitch multiplier, ignored by engines without pitch control
}

// Audio represents generated audio data: 16-bit little endian PCM.
type Audio struct {
	Data       []byte        // Raw audio data
	SampleRate int           // Sample rate in Hz
	Channels   int           // Number of audio channels
	Duration   time.Duration // Duration of the audio
}

// PCMDuration returns the playing time of n bytes of 16-bit PCM.
func PCMDuration(n, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	samples := n / (2 * channels)
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// Voice represents a synthesis voice.
type Voice struct {
	URI  string // Unique identifier
	Name string // Human-readable name
	Lang string // BCP 47 language tag (e.g., "zh-CN")
}

// IsZero reports whether v is the engine default placeholder.
func (v Voice) IsZero() bool {
	return v.URI == ""
}
