package tts

import (
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between TTS and UI.

// SnapshotMsg carries the latest Sequencer state.
type SnapshotMsg struct {
	Snapshot
}

// TTSErrorMsg indicates an error occurred in the TTS system.
type TTSErrorMsg struct {
	Error       error
	Recoverable bool
	Component   string // Which component had the error (speaker, engine, player)
	Action      string // What action was being performed
}

// VoicesChangedMsg carries a replaced voice list.
type VoicesChangedMsg struct {
	Voices []Voice
}

// NewErrorMsg builds a TTSErrorMsg, filling in context from a *TTSError.
func NewErrorMsg(err error) TTSErrorMsg {
	msg := TTSErrorMsg{
		Error:       err,
		Recoverable: IsRecoverableError(err),
	}
	var ttsErr *TTSError
	if errors.As(err, &ttsErr) {
		msg.Component = ttsErr.Component
		msg.Action = ttsErr.Action
	}
	return msg
}

// Bridge forwards Sequencer and Speaker events into a Bubble Tea program.
// Snapshots are coalesced so the UI always receives the newest state.
type Bridge struct {
	mu     sync.Mutex
	latest Snapshot
	notify chan struct{}
	errs   chan error
	voices chan []Voice
	done   chan struct{}
	once   sync.Once
}

// NewBridge subscribes to seq and speaker.
func NewBridge(seq *Sequencer, speaker Speaker) *Bridge {
	b := &Bridge{
		latest: seq.Snapshot(),
		notify: make(chan struct{}, 1),
		errs:   make(chan error, 8),
		voices: make(chan []Voice, 1),
		done:   make(chan struct{}),
	}

	seq.Subscribe(b.pushSnapshot)
	seq.OnError(func(err error) {
		select {
		case b.errs <- err:
		default:
		}
	})
	if speaker != nil {
		speaker.OnVoicesChanged(b.pushVoices)
	}

	return b
}

func (b *Bridge) pushSnapshot(s Snapshot) {
	b.mu.Lock()
	if s.Version >= b.latest.Version {
		b.latest = s
	}
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *Bridge) pushVoices(v []Voice) {
	select {
	case <-b.voices:
	default:
	}
	select {
	case b.voices <- v:
	default:
	}
}

// Latest returns the newest snapshot seen by the bridge.
func (b *Bridge) Latest() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Wait returns a command that blocks until the next event. The UI issues it
// again after handling each message.
func (b *Bridge) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.notify:
			return SnapshotMsg{b.Latest()}
		case err := <-b.errs:
			return NewErrorMsg(err)
		case v := <-b.voices:
			return VoicesChangedMsg{Voices: v}
		case <-b.done:
			return nil
		}
	}
}

// Close releases a pending Wait.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}
