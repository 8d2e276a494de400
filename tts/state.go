package tts

// Mode is the playback mode of the Sequencer.
type Mode int

const (
	// ModeIdle indicates nothing is speaking or paused.
	ModeIdle Mode = iota
	// ModeSpeaking indicates an utterance is in flight.
	ModeSpeaking
	// ModePaused indicates the in-flight utterance is paused.
	ModePaused
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeSpeaking:
		return "speaking"
	case ModePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// PlaybackState is the Sequencer's position and mode.
type PlaybackState struct {
	Chapter int  // Active chapter index
	Segment int  // Active segment index within the chapter
	Mode    Mode // Current playback mode
}

// IsActive returns true if an utterance is speaking or paused.
func (s PlaybackState) IsActive() bool {
	return s.Mode == ModeSpeaking || s.Mode == ModePaused
}

// ModeMachine guards Mode transitions.
type ModeMachine struct {
	current     Mode
	transitions map[Mode][]Mode
	onEnter     map[Mode]func()
}

// NewModeMachine creates a machine in ModeIdle with the playback transitions.
func NewModeMachine() *ModeMachine {
	return &ModeMachine{
		current: ModeIdle,
		transitions: map[Mode][]Mode{
			ModeIdle:     {ModeSpeaking},
			ModeSpeaking: {ModePaused, ModeIdle, ModeSpeaking},
			ModePaused:   {ModeSpeaking, ModeIdle},
		},
		onEnter: make(map[Mode]func()),
	}
}

// Can reports whether the machine may move to the given mode.
func (mm *ModeMachine) Can(to Mode) bool {
	for _, m := range mm.transitions[mm.current] {
		if m == to {
			return true
		}
	}
	return false
}

// Transition attempts to move to the given mode.
func (mm *ModeMachine) Transition(to Mode) bool {
	if !mm.Can(to) {
		return false
	}

	mm.current = to

	if fn, ok := mm.onEnter[to]; ok && fn != nil {
		fn()
	}

	return true
}

// Reset forces the machine back to ModeIdle. Cancellation is allowed from
// any mode.
func (mm *ModeMachine) Reset() {
	if mm.current == ModeIdle {
		return
	}
	mm.current = ModeIdle
	if fn, ok := mm.onEnter[ModeIdle]; ok && fn != nil {
		fn()
	}
}

// Current returns the current mode.
func (mm *ModeMachine) Current() Mode {
	return mm.current
}

// OnEnter registers a callback for entering a mode.
func (mm *ModeMachine) OnEnter(m Mode, fn func()) {
	mm.onEnter[m] = fn
}
