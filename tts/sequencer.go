// Package tts sequences spoken playback of a book and defines the speech
// engine, player and speaker contracts used by the reader.
package tts

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/tingshu/book"
)

// Snapshot is a consistent copy of the Sequencer state.
type Snapshot struct {
	PlaybackState
	AutoPlay bool         // Continue with the next segment when one ends
	Config   SpeechConfig // Configuration used for the next utterance
	Book     *book.Book   // Loaded book, nil before Load
	Version  uint64       // Increases with every state change
}

// Playing reports whether the reader is currently speaking. It depends on
// Mode alone.
func (s Snapshot) Playing() bool {
	return s.Mode == ModeSpeaking
}

// SegmentText returns the text of the active segment.
func (s Snapshot) SegmentText() string {
	text, _ := s.Book.Segment(s.Chapter, s.Segment)
	return text
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithLogger sets the logger used by the Sequencer.
func WithLogger(l *log.Logger) SequencerOption {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSpeechConfig sets the initial speech configuration.
func WithSpeechConfig(cfg SpeechConfig) SequencerOption {
	return func(s *Sequencer) {
		s.cfg = cfg.Normalize()
	}
}

// Sequencer owns the reading position and keeps at most one utterance in
// flight on its Speaker. Segments advance only when the current utterance
// completes or when the user navigates.
type Sequencer struct {
	speaker Speaker
	logger  *log.Logger

	mu       sync.Mutex
	book     *book.Book
	state    PlaybackState
	machine  *ModeMachine
	autoPlay bool
	cfg      SpeechConfig
	gen      uint64
	version  uint64

	listenersMu sync.Mutex
	listeners   []func(Snapshot)
	errHandlers []func(error)
}

// NewSequencer creates a Sequencer driving speaker. It starts Idle with no
// book loaded.
func NewSequencer(speaker Speaker, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		speaker: speaker,
		logger:  log.Default(),
		machine: NewModeMachine(),
		cfg:     DefaultSpeechConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.machine.OnEnter(ModePaused, func() {
		s.logger.Debug("playback paused", "chapter", s.state.Chapter, "segment", s.state.Segment)
	})
	s.machine.OnEnter(ModeIdle, func() {
		s.logger.Debug("playback idle", "chapter", s.state.Chapter, "segment", s.state.Segment)
	})

	return s
}

// Subscribe registers fn to receive a Snapshot after every state change.
// Listeners are never called while the Sequencer is locked.
func (s *Sequencer) Subscribe(fn func(Snapshot)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// OnError registers fn to receive speech failures.
func (s *Sequencer) OnError(fn func(error)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.errHandlers = append(s.errHandlers, fn)
}

// Snapshot returns the current state.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SpeechConfig returns the configuration for the next utterance.
func (s *Sequencer) SpeechConfig() SpeechConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Load replaces the book, cancels speech and rewinds to the first segment.
func (s *Sequencer) Load(b *book.Book) {
	s.update(func() {
		s.cancelLocked()
		s.autoPlay = false
		s.book = b
		s.state.Chapter = 0
		s.state.Segment = 0
		if b != nil {
			s.logger.Info("book loaded", "file", b.Filename, "chapters", b.Len())
		}
	})
}

// SetSpeechConfig replaces the speech configuration. The active utterance
// keeps its configuration; the next one uses cfg.
func (s *Sequencer) SetSpeechConfig(cfg SpeechConfig) {
	s.update(func() {
		s.cfg = cfg.Normalize()
		s.logger.Debug("speech config changed", "rate", s.cfg.Rate, "voice", s.cfg.VoiceURI)
	})
}

// PlayCurrentSegment submits the active segment. It does nothing when no
// book is loaded or the position is out of range.
func (s *Sequencer) PlayCurrentSegment() {
	s.update(func() {
		s.playLocked()
	})
}

// PlayPause toggles playback. Speaking pauses and clears the auto-play
// intent. Paused resumes and sets it. Idle sets it and starts the active
// segment.
func (s *Sequencer) PlayPause() {
	s.update(func() {
		switch s.machine.Current() {
		case ModeSpeaking:
			s.speaker.Pause()
			s.autoPlay = false
			s.transition(ModePaused)
		case ModePaused:
			s.speaker.Resume()
			s.autoPlay = true
			s.transition(ModeSpeaking)
		case ModeIdle:
			s.autoPlay = true
			if !s.playLocked() {
				s.autoPlay = false
			}
		}
	})
}

// Stop cancels speech and clears the auto-play intent. The position is kept.
func (s *Sequencer) Stop() {
	s.update(func() {
		s.cancelLocked()
		s.autoPlay = false
	})
}

// NextChapter cancels speech and moves to the first segment of the next
// chapter. At the last chapter only the cancellation happens.
func (s *Sequencer) NextChapter() {
	s.update(func() {
		s.cancelLocked()
		s.autoPlay = false
		if s.book == nil || s.state.Chapter+1 >= s.book.Len() {
			return
		}
		s.state.Chapter++
		s.state.Segment = 0
	})
}

// PrevChapter cancels speech and moves to the first segment of the previous
// chapter. At the first chapter only the cancellation happens.
func (s *Sequencer) PrevChapter() {
	s.update(func() {
		s.cancelLocked()
		s.autoPlay = false
		if s.book == nil || s.state.Chapter == 0 {
			return
		}
		s.state.Chapter--
		s.state.Segment = 0
	})
}

// SelectChapter cancels speech and jumps to the first segment of chapter i.
// Indexes outside the book are ignored.
func (s *Sequencer) SelectChapter(i int) {
	s.update(func() {
		if s.book == nil || i < 0 || i >= s.book.Len() {
			s.logger.Debug("chapter out of range", "index", i)
			return
		}
		s.cancelLocked()
		s.autoPlay = false
		s.state.Chapter = i
		s.state.Segment = 0
	})
}

// SelectSegment cancels speech and jumps to segment i of the active chapter.
// When playback was speaking or intended, the new segment starts speaking.
// Indexes outside the chapter are ignored.
func (s *Sequencer) SelectSegment(i int) {
	s.update(func() {
		ch, ok := s.book.Chapter(s.state.Chapter)
		if !ok || i < 0 || i >= ch.Len() {
			s.logger.Debug("segment out of range", "index", i)
			return
		}
		wasActive := s.machine.Current() == ModeSpeaking || s.autoPlay
		s.cancelLocked()
		s.state.Segment = i
		if wasActive {
			s.autoPlay = true
			s.playLocked()
		}
	})
}

// update runs fn under the lock and publishes the resulting snapshot.
func (s *Sequencer) update(fn func()) {
	s.mu.Lock()
	fn()
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

func (s *Sequencer) snapshotLocked() Snapshot {
	st := s.state
	st.Mode = s.machine.Current()
	return Snapshot{
		PlaybackState: st,
		AutoPlay:      s.autoPlay,
		Config:        s.cfg,
		Book:          s.book,
		Version:       s.version,
	}
}

func (s *Sequencer) publish(snap Snapshot) {
	s.listenersMu.Lock()
	listeners := make([]func(Snapshot), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Sequencer) publishError(err error) {
	s.listenersMu.Lock()
	handlers := make([]func(error), len(s.errHandlers))
	copy(handlers, s.errHandlers)
	s.listenersMu.Unlock()

	for _, fn := range handlers {
		fn(err)
	}
}

func (s *Sequencer) transition(to Mode) {
	from := s.machine.Current()
	if !s.machine.Transition(to) {
		s.logger.Warn("invalid mode transition", "from", from, "to", to)
	}
}

// cancelLocked stops the in-flight utterance. The generation moves on so any
// callback the speaker still delivers for it is ignored.
func (s *Sequencer) cancelLocked() {
	s.gen++
	s.speaker.Cancel()
	s.machine.Reset()
}

// playLocked submits the active segment and reports whether it did.
func (s *Sequencer) playLocked() bool {
	text, ok := s.book.Segment(s.state.Chapter, s.state.Segment)
	if !ok {
		return false
	}

	s.gen++
	gen := s.gen
	s.speaker.Speak(text, s.cfg,
		func() { s.handleEnd(gen) },
		func(err error) { s.handleError(gen, err) },
	)
	s.transition(ModeSpeaking)

	s.logger.Debug("speaking", "chapter", s.state.Chapter, "segment", s.state.Segment, "gen", gen)
	return true
}

// handleEnd is the completion callback of utterance gen. A completion that
// lands after a pause still advances; with the intent cleared by the pause
// the sequencer settles to Idle on the next segment.
func (s *Sequencer) handleEnd(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.machine.Current() == ModeIdle {
		s.logger.Debug("ignoring stale completion", "gen", gen, "current", s.gen)
		s.mu.Unlock()
		return
	}
	s.advanceLocked()
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// advanceLocked moves to the next segment, crossing into the next chapter
// when needed, and stops after the last segment of the book.
func (s *Sequencer) advanceLocked() {
	ch, ok := s.book.Chapter(s.state.Chapter)
	switch {
	case ok && s.state.Segment+1 < ch.Len():
		s.state.Segment++
	case s.state.Chapter+1 < s.book.Len():
		s.state.Chapter++
		s.state.Segment = 0
	default:
		s.logger.Info("reached end of book")
		s.autoPlay = false
		s.machine.Reset()
		return
	}

	if s.autoPlay {
		s.playLocked()
		return
	}
	s.machine.Reset()
}

// handleError is the failure callback of utterance gen.
func (s *Sequencer) handleError(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.gen || s.machine.Current() == ModeIdle {
		s.logger.Debug("ignoring stale error", "gen", gen, "current", s.gen, "err", err)
		s.mu.Unlock()
		return
	}
	s.logger.Error("speech failed", "chapter", s.state.Chapter, "segment", s.state.Segment, "err", err)
	s.autoPlay = false
	s.machine.Reset()
	s.version++
	snap := s.snapshotLocked()
	ttsErr := NewTTSError(err, "speaker", "speak").
		WithContext("chapter", snap.Chapter).
		WithContext("segment", snap.Segment)
	s.mu.Unlock()

	s.publish(snap)
	s.publishError(ttsErr)
}
