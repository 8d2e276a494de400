package tts

import (
	"errors"
	"testing"

	"github.com/dgnsrekt/tingshu/book"
)

// nopSpeaker completes nothing and exposes its voice listener.
type nopSpeaker struct {
	voicesFn func([]Voice)
}

func (n *nopSpeaker) Voices() []Voice                                 { return nil }
func (n *nopSpeaker) OnVoicesChanged(fn func([]Voice))                { n.voicesFn = fn }
func (n *nopSpeaker) Speak(string, SpeechConfig, func(), func(error)) {}
func (n *nopSpeaker) Pause()                                          {}
func (n *nopSpeaker) Resume()                                         {}
func (n *nopSpeaker) Cancel()                                         {}

func TestBridgeCoalescesSnapshots(t *testing.T) {
	sp := &nopSpeaker{}
	seq := NewSequencer(sp)
	bridge := NewBridge(seq, sp)
	defer bridge.Close()

	seq.Load(book.Parse("a.txt", "第一章\n甲\n乙"))
	seq.SelectSegment(1)
	seq.PlayPause()

	msg, ok := bridge.Wait()().(SnapshotMsg)
	if !ok {
		t.Fatalf("expected SnapshotMsg, got %T", msg)
	}
	if msg.Segment != 1 || msg.Mode != ModeSpeaking {
		t.Errorf("bridge delivered stale snapshot: %+v", msg.PlaybackState)
	}
	if msg.Version != seq.Snapshot().Version {
		t.Errorf("Version = %d, want %d", msg.Version, seq.Snapshot().Version)
	}
}

func TestBridgeErrorsAndVoices(t *testing.T) {
	sp := &nopSpeaker{}
	seq := NewSequencer(sp)
	bridge := NewBridge(seq, sp)
	defer bridge.Close()

	sp.voicesFn([]Voice{{URI: "a"}})
	sp.voicesFn([]Voice{{URI: "b"}})
	msg, ok := bridge.Wait()().(VoicesChangedMsg)
	if !ok {
		t.Fatalf("expected VoicesChangedMsg, got %T", msg)
	}
	if len(msg.Voices) != 1 || msg.Voices[0].URI != "b" {
		t.Errorf("Voices = %+v, want latest list", msg.Voices)
	}

	seq.publishError(NewTTSError(ErrEngineNotAvailable, "speaker", "speak"))
	errMsg, ok := bridge.Wait()().(TTSErrorMsg)
	if !ok {
		t.Fatalf("expected TTSErrorMsg, got %T", errMsg)
	}
	if errMsg.Component != "speaker" || errMsg.Recoverable || !errors.Is(errMsg.Error, ErrEngineNotAvailable) {
		t.Errorf("unexpected error msg: %+v", errMsg)
	}
}

func TestBridgeClose(t *testing.T) {
	sp := &nopSpeaker{}
	bridge := NewBridge(NewSequencer(sp), sp)
	bridge.Close()
	bridge.Close()

	if msg := bridge.Wait()(); msg != nil {
		t.Errorf("closed bridge returned %T", msg)
	}
}
