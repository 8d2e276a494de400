package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/tingshu/book"
)

const gutterWidth = 2

// readerModel shows one chapter with its active segment highlighted and a
// segment cursor for jumping.
type readerModel struct {
	viewport  viewport.Model
	highlight lipgloss.Style

	book    *book.Book
	chapter int
	active  int // segment being read
	cursor  int // segment under the cursor

	// starts and heights are the rendered line span of each segment.
	starts  []int
	heights []int
}

func newReaderModel(highlightColor string) readerModel {
	vp := viewport.New(0, 0)
	return readerModel{
		viewport:  vp,
		highlight: highlightStyle(highlightColor),
	}
}

func (m *readerModel) setSize(w, h int) {
	widthChanged := m.viewport.Width != w
	m.viewport.Width = w
	m.viewport.Height = h
	if widthChanged {
		m.render()
	}
	m.ensureVisible(m.cursor)
}

// show moves the reader to the given position. The cursor follows the
// active segment whenever the position changes.
func (m *readerModel) show(b *book.Book, chapter, segment int) {
	if b == m.book && chapter == m.chapter && segment == m.active && m.starts != nil {
		return
	}
	newChapter := b != m.book || chapter != m.chapter
	m.book = b
	m.chapter = chapter
	m.active = segment
	m.cursor = segment
	m.render()
	if newChapter {
		m.viewport.GotoTop()
	}
	m.ensureVisible(segment)
}

func (m *readerModel) segments() []string {
	ch, ok := m.book.Chapter(m.chapter)
	if !ok {
		return nil
	}
	return ch.Segments
}

func (m *readerModel) moveCursor(delta int) {
	n := len(m.segments())
	if n == 0 {
		return
	}
	m.cursor = max(0, min(n-1, m.cursor+delta))
	m.render()
	m.ensureVisible(m.cursor)
}

// render rebuilds the viewport content.
func (m *readerModel) render() {
	ch, ok := m.book.Chapter(m.chapter)
	if !ok {
		m.starts, m.heights = nil, nil
		m.viewport.SetContent("")
		return
	}

	textWidth := max(m.viewport.Width-gutterWidth, 1)
	plain := lipgloss.NewStyle().Width(textWidth)
	lit := m.highlight.Width(textWidth)

	var (
		b    strings.Builder
		line int
	)
	title := chapterTitleStyle.Width(textWidth).Render(ch.Title)
	b.WriteString(indentBlock(title, "  "))
	b.WriteString("\n\n")
	line += lipgloss.Height(title) + 1

	m.starts = make([]int, len(ch.Segments))
	m.heights = make([]int, len(ch.Segments))
	for i, seg := range ch.Segments {
		var body string
		if i == m.active {
			body = lit.Render(seg)
		} else {
			body = plain.Render(seg)
		}

		gutter := "  "
		if i == m.cursor {
			gutter = cursorStyle.Render("›") + " "
		}
		lines := strings.Split(body, "\n")
		for j := range lines {
			if j == 0 {
				lines[j] = gutter + lines[j]
			} else {
				lines[j] = "  " + lines[j]
			}
		}

		m.starts[i] = line
		m.heights[i] = len(lines)
		b.WriteString(strings.Join(lines, "\n"))
		line += len(lines)
		if i < len(ch.Segments)-1 {
			b.WriteString("\n\n")
			line++
		}
	}

	m.viewport.SetContent(b.String())
}

// ensureVisible scrolls so segment i is on screen.
func (m *readerModel) ensureVisible(i int) {
	if i < 0 || i >= len(m.starts) || m.viewport.Height <= 0 {
		return
	}
	top, bottom := m.starts[i], m.starts[i]+m.heights[i]
	switch {
	case top < m.viewport.YOffset:
		m.viewport.SetYOffset(top)
	case bottom > m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(max(top, bottom-m.viewport.Height))
	}
}

func (m readerModel) View() string {
	return m.viewport.View()
}

func indentBlock(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
