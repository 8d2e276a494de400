// Package ui provides the terminal reader for tingshu.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/tingshu/book"
	"github.com/dgnsrekt/tingshu/tts"
	"github.com/muesli/termenv"
)

const statusMessageTimeout = time.Second * 3

// NewProgram returns a new Tea program reading cfg.Path aloud through seq.
func NewProgram(cfg Config, seq *tts.Sequencer, speaker tts.Speaker) *tea.Program {
	log.Debug("starting tingshu", "file", cfg.Path, "sidebar", cfg.ShowSidebar, "mouse", cfg.EnableMouse)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, seq, speaker), opts...)
}

type (
	errMsg                  struct{ err error }
	bookLoadedMsg           struct{ book *book.Book }
	statusMessageTimeoutMsg struct{}
)

func (e errMsg) Error() string { return e.err.Error() }

// state is the top-level application state.
type state int

const (
	stateLoading state = iota
	stateReading
)

func (s state) String() string {
	return map[state]string{
		stateLoading: "loading book",
		stateReading: "reading",
	}[s]
}

type focus int

const (
	focusReader focus = iota
	focusSidebar
)

type model struct {
	cfg      Config
	seq      *tts.Sequencer
	speaker  tts.Speaker
	bridge   *tts.Bridge
	state    state
	fatalErr error

	width  int
	height int

	spinner spinner.Model
	sidebar sidebarModel
	reader  readerModel

	snap   tts.Snapshot
	voices []tts.Voice

	showSidebar bool
	focus       focus
	showHelp    bool

	message      *statusMessage
	messageTimer *time.Timer
}

func newModel(cfg Config, seq *tts.Sequencer, speaker tts.Speaker) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	if cfg.SidebarWidth <= 0 {
		cfg.SidebarWidth = 28
	}
	if cfg.HighlightColor == "" {
		cfg.HighlightColor = "#F1C40F"
	}

	m := model{
		cfg:         cfg,
		seq:         seq,
		speaker:     speaker,
		bridge:      tts.NewBridge(seq, speaker),
		state:       stateLoading,
		spinner:     sp,
		sidebar:     newSidebarModel(),
		reader:      newReaderModel(cfg.HighlightColor),
		snap:        seq.Snapshot(),
		showSidebar: cfg.ShowSidebar,
	}
	if speaker != nil {
		m.voices = speaker.Voices()
	}
	return m
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "state", m.state)
	return tea.Batch(
		m.spinner.Tick,
		loadBook(m.cfg.Path),
		m.bridge.Wait(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m.quit()
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case errMsg:
		log.Error("unable to load book", "file", m.cfg.Path, "error", msg.err)
		m.fatalErr = msg.err

	case bookLoadedMsg:
		log.Info("book loaded", "file", msg.book.Filename, "chapters", msg.book.Len())
		m.state = stateReading
		m.seq.Load(msg.book)
		m.applySnapshot(m.seq.Snapshot())

	case tts.SnapshotMsg:
		m.applySnapshot(msg.Snapshot)
		cmds = append(cmds, m.bridge.Wait())

	case tts.TTSErrorMsg:
		text := "speech failed: " + msg.Error.Error()
		cmds = append(cmds, m.showMessage(text, true), m.bridge.Wait())

	case tts.VoicesChangedMsg:
		m.voices = msg.Voices
		cmds = append(cmds, m.bridge.Wait())

	case statusMessageTimeoutMsg:
		m.message = nil

	case spinner.TickMsg:
		if m.state == stateLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if m.state != stateReading {
			if msg.String() == "ctrl+c" || msg.String() == "q" {
				return m.quit()
			}
			break
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.state == stateReading {
			var cmd tea.Cmd
			m.reader.viewport, cmd = m.reader.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// pass through all keys while editing the filter
	if m.sidebar.filtering {
		switch msg.String() {
		case "esc":
			m.sidebar.stopFiltering(true)
			m.layout()
		case "enter":
			m.sidebar.stopFiltering(false)
			m.selectChapter()
		case "ctrl+c":
			return m.quit()
		default:
			var cmd tea.Cmd
			m.sidebar, cmd = m.sidebar.update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmds []tea.Cmd

	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()

	case "ctrl+z":
		return m, tea.Suspend

	case " ":
		m.seq.PlayPause()
	case "s":
		m.seq.Stop()
	case "n", "]":
		m.seq.NextChapter()
	case "p", "[":
		m.seq.PrevChapter()

	case "+", "=":
		m.seq.SetSpeechConfig(m.seq.SpeechConfig().WithRate(tts.RateStep))
	case "-", "_":
		m.seq.SetSpeechConfig(m.seq.SpeechConfig().WithRate(-tts.RateStep))

	case "v":
		cfg := m.seq.SpeechConfig()
		cfg.VoiceURI = tts.NextVoiceURI(m.voices, cfg.VoiceURI)
		m.seq.SetSpeechConfig(cfg)
		cmds = append(cmds, m.showMessage("voice: "+voiceLabel(m.voices, cfg.VoiceURI), false))

	case "c":
		if text := m.snap.SegmentText(); text != "" {
			// Copy using OSC 52
			termenv.Copy(text)
			// Copy using native system clipboard
			_ = clipboard.WriteAll(text)
			cmds = append(cmds, m.showMessage("copied segment", false))
		}

	case "tab":
		switch {
		case !m.showSidebar:
			m.showSidebar = true
			m.focus = focusSidebar
		case m.focus == focusSidebar:
			m.showSidebar = false
			m.focus = focusReader
		default:
			m.focus = focusSidebar
		}
		m.layout()

	case "/":
		if !m.showSidebar {
			m.showSidebar = true
			m.layout()
		}
		m.focus = focusSidebar
		cmds = append(cmds, m.sidebar.startFiltering())

	case "esc":
		if m.sidebar.filter.Value() != "" {
			m.sidebar.stopFiltering(true)
		}
		m.focus = focusReader

	case "?":
		m.showHelp = !m.showHelp
		m.layout()

	case "j", "down":
		if m.focus == focusSidebar {
			m.sidebar.moveCursor(1)
		} else {
			m.reader.moveCursor(1)
		}
	case "k", "up":
		if m.focus == focusSidebar {
			m.sidebar.moveCursor(-1)
		} else {
			m.reader.moveCursor(-1)
		}

	case "enter":
		if m.focus == focusSidebar {
			m.selectChapter()
		} else {
			m.seq.SelectSegment(m.reader.cursor)
		}

	default:
		var cmd tea.Cmd
		m.reader.viewport, cmd = m.reader.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) selectChapter() {
	if i, ok := m.sidebar.selected(); ok {
		m.seq.SelectChapter(i)
		m.focus = focusReader
	}
}

func (m *model) applySnapshot(s tts.Snapshot) {
	if s.Version < m.snap.Version {
		return
	}
	if s.Book != m.snap.Book || m.sidebar.titles == nil {
		titles := make([]string, s.Book.Len())
		for i := range titles {
			ch, _ := s.Book.Chapter(i)
			titles[i] = ch.Title
		}
		m.sidebar.setTitles(titles)
	}
	m.snap = s
	m.sidebar.setCurrent(s.Chapter)
	m.reader.show(s.Book, s.Chapter, s.Segment)
}

func (m *model) layout() {
	h := m.height - statusBarHeight
	if m.showHelp {
		h -= helpHeight()
	}
	h = max(h, 1)

	w := m.width
	if m.showSidebar {
		sw := min(m.cfg.SidebarWidth, m.width/2)
		m.sidebar.setSize(sw, h)
		w -= sw
	}
	m.reader.setSize(max(w, 1), h)
}

func (m *model) showMessage(text string, isError bool) tea.Cmd {
	m.message = &statusMessage{text: text, isError: isError}
	if m.messageTimer != nil {
		m.messageTimer.Stop()
	}
	m.messageTimer = time.NewTimer(statusMessageTimeout)
	return waitForStatusMessageTimeout(m.messageTimer)
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m.seq.Stop()
	m.bridge.Close()
	return m, tea.Quit
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	if m.state == stateLoading {
		name := filepath.Base(m.cfg.Path)
		return "\n" + indent(fmt.Sprintf("%s Loading %s%s", m.spinner.View(), name, ellipsis), 2)
	}

	var b strings.Builder
	body := m.reader.View()
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), body)
	}
	b.WriteString(body)
	b.WriteString("\n")

	statusBarView(&b, m.width, m.snap, m.voices, m.message)

	if m.showHelp {
		b.WriteString("\n" + helpView(m.width))
	}
	return b.String()
}

// COMMANDS

func loadBook(path string) tea.Cmd {
	return func() tea.Msg {
		b, err := book.Load(path)
		if err != nil {
			return errMsg{err}
		}
		return bookLoadedMsg{b}
	}
}

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}
