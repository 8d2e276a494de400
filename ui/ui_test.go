package ui

import (
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/tingshu/book"
	"github.com/dgnsrekt/tingshu/tts"
)

// stubSpeaker records spoken text and never finishes on its own.
type stubSpeaker struct {
	mu     sync.Mutex
	spoken []string
	voices []tts.Voice
}

func (s *stubSpeaker) Voices() []tts.Voice                { return s.voices }
func (s *stubSpeaker) OnVoicesChanged(func([]tts.Voice)) {}
func (s *stubSpeaker) Pause()                             {}
func (s *stubSpeaker) Resume()                            {}
func (s *stubSpeaker) Cancel()                            {}

func (s *stubSpeaker) Speak(text string, _ tts.SpeechConfig, _ func(), _ func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
}

func (s *stubSpeaker) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.spoken) == 0 {
		return ""
	}
	return s.spoken[len(s.spoken)-1]
}

const novel = `第一章 开始
天色已晚。
他推门而入。
第二章 相遇
她笑了。
第三章 别离
风起了。`

func newTestModel(t *testing.T) (model, *tts.Sequencer, *stubSpeaker) {
	t.Helper()
	speaker := &stubSpeaker{voices: []tts.Voice{
		{URI: "zh", Name: "Huayan", Lang: "zh-CN"},
		{URI: "en", Name: "Amy", Lang: "en-US"},
	}}
	seq := tts.NewSequencer(speaker)
	m := newModel(Config{Path: "novel.txt", SidebarWidth: 20, ShowSidebar: true}, seq, speaker)
	t.Cleanup(m.bridge.Close)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.Update(bookLoadedMsg{book.Parse("novel.txt", novel)})
	return next.(model), seq, speaker
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func TestBookLoaded(t *testing.T) {
	m, seq, _ := newTestModel(t)

	if m.state != stateReading {
		t.Fatalf("state = %s, want reading", m.state)
	}
	if seq.Snapshot().Book.Len() != 3 {
		t.Errorf("sequencer book has %d chapters, want 3", seq.Snapshot().Book.Len())
	}
	if len(m.sidebar.titles) != 3 || m.sidebar.titles[1] != "第二章 相遇" {
		t.Errorf("sidebar titles = %v", m.sidebar.titles)
	}
	if view := m.View(); !strings.Contains(view, "天色已晚。") || !strings.Contains(view, "■") {
		t.Errorf("view is missing the chapter or the idle indicator:\n%s", view)
	}
}

func TestLoadErrorIsFatal(t *testing.T) {
	speaker := &stubSpeaker{}
	seq := tts.NewSequencer(speaker)
	m := newModel(Config{Path: "missing.txt"}, seq, speaker)
	defer m.bridge.Close()

	next, _ := m.Update(errMsg{errors.New("open missing.txt: no such file")})
	m = next.(model)
	if !strings.Contains(m.View(), "no such file") {
		t.Errorf("error view = %q", m.View())
	}
	if seq.Snapshot().Book != nil {
		t.Error("no book should be installed after a load error")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if cmd == nil {
		t.Fatal("any key should quit after a fatal error")
	}
}

func TestPlaybackKeys(t *testing.T) {
	m, seq, speaker := newTestModel(t)

	m = press(t, m, " ")
	if s := seq.Snapshot(); s.Mode != tts.ModeSpeaking || speaker.last() != "天色已晚。" {
		t.Fatalf("after space: mode %s, spoke %q", s.Mode, speaker.last())
	}

	m = press(t, m, " ")
	if seq.Snapshot().Mode != tts.ModePaused {
		t.Errorf("second space should pause, mode %s", seq.Snapshot().Mode)
	}

	m = press(t, m, "n")
	if s := seq.Snapshot(); s.Chapter != 1 || s.Mode != tts.ModeIdle {
		t.Errorf("after n: chapter %d mode %s", s.Chapter, s.Mode)
	}
	m = press(t, m, "]", "[", "p")
	if seq.Snapshot().Chapter != 0 {
		t.Errorf("chapter = %d, want 0", seq.Snapshot().Chapter)
	}

	m = press(t, m, "+", "+")
	if r := seq.SpeechConfig().Rate; r != 1.2 {
		t.Errorf("rate = %v, want 1.2", r)
	}
	m = press(t, m, "-")
	if r := seq.SpeechConfig().Rate; r != 1.1 {
		t.Errorf("rate = %v, want 1.1", r)
	}

	m = press(t, m, "v")
	if uri := seq.SpeechConfig().VoiceURI; uri != "zh" {
		t.Errorf("voice = %q, want zh", uri)
	}
	if m.message == nil || !strings.Contains(m.message.text, "Huayan") {
		t.Errorf("voice change message = %+v", m.message)
	}

	_ = press(t, m, " ", "s")
	if seq.Snapshot().Mode != tts.ModeIdle {
		t.Errorf("s should stop, mode %s", seq.Snapshot().Mode)
	}
}

func TestSegmentCursor(t *testing.T) {
	m, seq, speaker := newTestModel(t)

	m = press(t, m, "j", "j", "j")
	if m.reader.cursor != 1 {
		t.Fatalf("cursor = %d, want 1 (clamped)", m.reader.cursor)
	}
	m = press(t, m, "enter")
	if s := seq.Snapshot(); s.Segment != 1 || s.Mode != tts.ModeIdle {
		t.Errorf("idle select: segment %d mode %s", s.Segment, s.Mode)
	}

	m = press(t, m, "k", " ")
	if seq.Snapshot().Segment != 1 || speaker.last() != "他推门而入。" {
		t.Errorf("cursor should follow the active segment, spoke %q", speaker.last())
	}
	_ = press(t, m, "k", "enter")
	if s := seq.Snapshot(); s.Segment != 0 || s.Mode != tts.ModeSpeaking || speaker.last() != "天色已晚。" {
		t.Errorf("select while speaking: segment %d mode %s spoke %q", s.Segment, s.Mode, speaker.last())
	}
}

func TestSidebarFilterSelectsChapter(t *testing.T) {
	m, seq, _ := newTestModel(t)

	m = press(t, m, "/", "别", "离")
	if !m.sidebar.filtering {
		t.Fatal("filter should be active")
	}
	if len(m.sidebar.visible) != 1 || m.sidebar.visible[0] != 2 {
		t.Fatalf("visible = %v, want [2]", m.sidebar.visible)
	}

	m = press(t, m, "enter")
	if seq.Snapshot().Chapter != 2 {
		t.Errorf("chapter = %d, want 2", seq.Snapshot().Chapter)
	}
	if m.focus != focusReader {
		t.Error("selecting a chapter should return focus to the reader")
	}

	m = press(t, m, "esc")
	if m.sidebar.filter.Value() != "" || len(m.sidebar.visible) != 3 {
		t.Error("esc should clear the filter")
	}
}

func TestSidebarToggle(t *testing.T) {
	m, seq, _ := newTestModel(t)

	m = press(t, m, "tab")
	if !m.showSidebar || m.focus != focusSidebar {
		t.Fatal("tab should focus the visible sidebar")
	}
	m = press(t, m, "j", "enter")
	if seq.Snapshot().Chapter != 1 {
		t.Errorf("chapter = %d, want 1", seq.Snapshot().Chapter)
	}

	m = press(t, m, "tab", "tab")
	if m.showSidebar {
		t.Error("tab from a focused sidebar should hide it")
	}
	if strings.Contains(m.View(), "第三章") {
		t.Error("hidden sidebar should not render chapter titles")
	}
}

func TestSnapshotMessages(t *testing.T) {
	m, seq, _ := newTestModel(t)

	seq.SelectChapter(2)
	next, cmd := m.Update(tts.SnapshotMsg{Snapshot: seq.Snapshot()})
	m = next.(model)
	if cmd == nil {
		t.Error("a snapshot should re-arm the bridge")
	}
	if m.reader.chapter != 2 || m.sidebar.current != 2 {
		t.Errorf("reader/sidebar at %d/%d, want 2", m.reader.chapter, m.sidebar.current)
	}

	stale := seq.Snapshot()
	stale.Version = 0
	stale.Chapter = 0
	next, _ = m.Update(tts.SnapshotMsg{Snapshot: stale})
	if next.(model).reader.chapter != 2 {
		t.Error("stale snapshots must be ignored")
	}

	next, _ = m.Update(tts.NewErrorMsg(errors.New("piper crashed")))
	m = next.(model)
	if m.message == nil || !m.message.isError {
		t.Error("speech errors should show an error message")
	}

	next, _ = m.Update(tts.VoicesChangedMsg{Voices: []tts.Voice{{URI: "new"}}})
	if v := next.(model).voices; len(v) != 1 || v[0].URI != "new" {
		t.Errorf("voices = %+v", v)
	}
}
