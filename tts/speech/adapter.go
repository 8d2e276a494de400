// Package speech adapts a synthesis engine and an audio player into the
// asynchronous tts.Speaker used by the Sequencer.
package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/tingshu/tts"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used by the Adapter.
func WithLogger(l *log.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// utterance is one Speak request from submission until its callback fires
// or it is cancelled.
type utterance struct {
	id      uint64
	ctx     context.Context
	cancel  context.CancelFunc
	playing bool // audio handed to the player
	paused  bool // pause requested or in effect
	onEnd   func()
	onError func(error)
}

// Adapter implements tts.Speaker. It is the only component that submits to
// or stops the engine and player. Callbacks run on Adapter goroutines and
// never while the Adapter holds its lock.
type Adapter struct {
	engine tts.Engine
	player tts.AudioPlayer
	logger *log.Logger

	mu        sync.Mutex
	voices    []tts.Voice
	listeners []func([]tts.Voice)
	active    *utterance
	nextID    uint64
	closed    bool

	stopWatch context.CancelFunc
	watchDone chan struct{}
}

var _ tts.Speaker = (*Adapter)(nil)

// New creates an Adapter that owns engine and player.
func New(engine tts.Engine, player tts.AudioPlayer, opts ...Option) *Adapter {
	a := &Adapter{
		engine: engine,
		player: player,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.voices = tts.SortVoices(engine.Voices())

	if n, ok := engine.(tts.VoiceNotifier); ok {
		ctx, cancel := context.WithCancel(context.Background())
		a.stopWatch = cancel
		a.watchDone = make(chan struct{})
		go a.watchVoices(ctx, n.VoicesChanged())
	}

	return a
}

// Voices returns the current voices, Chinese voices first.
func (a *Adapter) Voices() []tts.Voice {
	a.mu.Lock()
	defer a.mu.Unlock()
	voices := make([]tts.Voice, len(a.voices))
	copy(voices, a.voices)
	return voices
}

// OnVoicesChanged registers fn to receive every replaced voice list.
func (a *Adapter) OnVoicesChanged(fn func([]tts.Voice)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

func (a *Adapter) watchVoices(ctx context.Context, changed <-chan struct{}) {
	defer close(a.watchDone)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changed:
			if !ok {
				return
			}
			voices := tts.SortVoices(a.engine.Voices())

			a.mu.Lock()
			a.voices = voices
			listeners := make([]func([]tts.Voice), len(a.listeners))
			copy(listeners, a.listeners)
			a.mu.Unlock()

			a.logger.Info("voices changed", "count", len(voices))
			for _, fn := range listeners {
				out := make([]tts.Voice, len(voices))
				copy(out, voices)
				fn(out)
			}
		}
	}
}

// Speak cancels the active utterance and starts text.
func (a *Adapter) Speak(text string, cfg tts.SpeechConfig, onEnd func(), onError func(error)) {
	cfg = cfg.Normalize()

	a.mu.Lock()
	a.cancelLocked()
	if a.closed {
		a.mu.Unlock()
		go onError(tts.ErrSpeakerClosed)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.nextID++
	u := &utterance{
		id:      a.nextID,
		ctx:     ctx,
		cancel:  cancel,
		onEnd:   onEnd,
		onError: onError,
	}
	a.active = u
	req := tts.SynthesisRequest{
		Text:  text,
		Voice: tts.ResolveVoice(a.voices, cfg.VoiceURI),
		Rate:  cfg.Rate,
		Pitch: cfg.Pitch,
	}
	a.mu.Unlock()

	a.logger.Debug("speak", "id", u.id, "voice", req.Voice.URI, "rate", req.Rate, "runes", len([]rune(text)))
	go a.run(u, req, cfg.Volume)
}

// run synthesizes and plays one utterance.
func (a *Adapter) run(u *utterance, req tts.SynthesisRequest, volume float64) {
	audio, err := a.engine.Synthesize(u.ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) && u.ctx.Err() != nil {
			return
		}
		a.fail(u, err)
		return
	}

	a.mu.Lock()
	if a.active != u {
		a.mu.Unlock()
		return
	}
	a.player.SetVolume(volume)
	done, err := a.player.Play(audio)
	if err != nil {
		a.mu.Unlock()
		a.fail(u, err)
		return
	}
	u.playing = true
	if u.paused {
		if err := a.player.Pause(); err != nil {
			a.logger.Warn("deferred pause failed", "id", u.id, "err", err)
		}
	}
	a.mu.Unlock()

	select {
	case <-done:
	case <-u.ctx.Done():
		return
	}

	a.mu.Lock()
	if a.active != u {
		a.mu.Unlock()
		return
	}
	a.active = nil
	u.cancel()
	a.mu.Unlock()

	u.onEnd()
}

// fail delivers err unless u has been superseded.
func (a *Adapter) fail(u *utterance, err error) {
	a.mu.Lock()
	if a.active != u {
		a.mu.Unlock()
		return
	}
	a.active = nil
	u.cancel()
	a.mu.Unlock()

	a.logger.Warn("utterance failed", "id", u.id, "err", err)
	u.onError(err)
}

// Pause suspends the active utterance. A pause during synthesis takes
// effect as soon as playback starts.
func (a *Adapter) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()

	u := a.active
	if u == nil || u.paused {
		return
	}
	u.paused = true
	if u.playing {
		if err := a.player.Pause(); err != nil {
			a.logger.Warn("pause failed", "id", u.id, "err", err)
		}
	}
}

// Resume continues a paused utterance.
func (a *Adapter) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()

	u := a.active
	if u == nil || !u.paused {
		return
	}
	u.paused = false
	if u.playing {
		if err := a.player.Resume(); err != nil {
			a.logger.Warn("resume failed", "id", u.id, "err", err)
		}
	}
}

// Cancel stops the active utterance. No callback fires for it afterwards.
func (a *Adapter) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked()
}

func (a *Adapter) cancelLocked() {
	u := a.active
	if u == nil {
		return
	}
	a.active = nil
	u.cancel()
	if u.playing {
		if err := a.player.Stop(); err != nil {
			a.logger.Warn("stop failed", "id", u.id, "err", err)
		}
	}
	a.logger.Debug("cancelled", "id", u.id)
}

// Close cancels speech, stops watching voices and shuts the engine down.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.cancelLocked()
	a.mu.Unlock()

	if a.stopWatch != nil {
		a.stopWatch()
		<-a.watchDone
	}
	return a.engine.Shutdown()
}
