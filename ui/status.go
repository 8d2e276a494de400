package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/tingshu/tts"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

const (
	statusBarHeight = 1
	helpNote        = " ? Help "
)

// modeIndicator is the playback symbol shown in the status bar. It is
// derived from the Mode alone.
func modeIndicator(mode tts.Mode) string {
	switch mode {
	case tts.ModeSpeaking:
		return "▶"
	case tts.ModePaused:
		return "‖"
	default:
		return "■"
	}
}

// voiceLabel names the voice selected by uri.
func voiceLabel(voices []tts.Voice, uri string) string {
	if uri == "" {
		return "default"
	}
	if v, ok := tts.FindVoice(voices, uri); ok && v.Name != "" {
		return v.Name
	}
	return uri
}

// statusNote describes the reading position and speech settings.
func statusNote(snap tts.Snapshot, voices []tts.Voice) string {
	parts := []string{modeIndicator(snap.Mode)}
	if n := snap.Book.Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", snap.Chapter+1, n))
		if ch, ok := snap.Book.Chapter(snap.Chapter); ok {
			parts = append(parts, fmt.Sprintf("§%d/%d", snap.Segment+1, ch.Len()))
		}
	}
	parts = append(parts,
		fmt.Sprintf("%.1fx", snap.Config.Rate),
		voiceLabel(voices, snap.Config.VoiceURI),
	)
	return strings.Join(parts, " · ")
}

type statusMessage struct {
	text    string
	isError bool
}

func statusBarView(b *strings.Builder, width int, snap tts.Snapshot, voices []tts.Voice, msg *statusMessage) {
	logo := logoView()
	help := statusBarHelpStyle(helpNote)

	render := statusBarNoteStyle
	note := statusNote(snap, voices)
	if msg != nil {
		note = msg.text
		render = statusBarMessageStyle
		if msg.isError {
			render = statusBarErrorStyle
		}
	}

	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(help),
	)), ellipsis)
	note = render(note)

	padding := max(0,
		width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(help),
	)
	emptySpace := render(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s", logo, note, emptySpace, help)
}

func helpView(width int) string {
	col1 := []string{
		"space    play / pause",
		"s        stop",
		"n/]      next chapter",
		"p/[      previous chapter",
		"+/-      rate ±0.1",
		"v        next voice",
	}
	col2 := []string{
		"j/k      move segment cursor",
		"enter    read from cursor",
		"tab      chapters sidebar",
		"/        filter chapters",
		"c        copy segment",
		"q        quit",
	}

	var s strings.Builder
	s.WriteString("\n")
	for i := range col1 {
		fmt.Fprintf(&s, "%-30s%s\n", col1[i], col2[i])
	}

	return helpViewStyle(padLines(indent(s.String(), 2), width))
}

func helpHeight() int {
	return lipgloss.Height(helpView(0))
}
