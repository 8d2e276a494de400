package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

// sidebarModel lists chapter titles and lets the user pick one, optionally
// narrowed by a fuzzy filter.
type sidebarModel struct {
	titles  []string
	current int // chapter being read

	// visible holds chapter indices in display order.
	visible []int
	cursor  int // position in visible
	offset  int // first visible row

	filter    textinput.Model
	filtering bool

	width  int
	height int
}

func newSidebarModel() sidebarModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.PromptStyle = cursorStyle
	ti.Cursor.Style = cursorStyle
	return sidebarModel{filter: ti}
}

func (m *sidebarModel) setTitles(titles []string) {
	m.titles = titles
	m.filter.SetValue("")
	m.filtering = false
	m.applyFilter()
}

func (m *sidebarModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.filter.Width = max(w-3, 1)
	m.scroll()
}

// setCurrent marks chapter i as being read and moves the cursor to it when
// no filter is active.
func (m *sidebarModel) setCurrent(i int) {
	m.current = i
	if m.filter.Value() != "" {
		return
	}
	for pos, idx := range m.visible {
		if idx == i {
			m.cursor = pos
			break
		}
	}
	m.scroll()
}

// selected returns the chapter under the cursor.
func (m sidebarModel) selected() (int, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return 0, false
	}
	return m.visible[m.cursor], true
}

func (m *sidebarModel) applyFilter() {
	query := strings.TrimSpace(m.filter.Value())
	m.visible = make([]int, 0, len(m.titles))
	if query == "" {
		for i := range m.titles {
			m.visible = append(m.visible, i)
		}
	} else {
		for _, match := range fuzzy.Find(query, m.titles) {
			m.visible = append(m.visible, match.Index)
		}
	}
	m.cursor = 0
	m.offset = 0
}

func (m *sidebarModel) startFiltering() tea.Cmd {
	m.filtering = true
	return m.filter.Focus()
}

func (m *sidebarModel) stopFiltering(reset bool) {
	m.filtering = false
	m.filter.Blur()
	if reset {
		m.filter.SetValue("")
		m.applyFilter()
		m.setCurrent(m.current)
	}
}

func (m *sidebarModel) moveCursor(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.visible)-1, m.cursor+delta))
	m.scroll()
}

func (m *sidebarModel) rows() int {
	rows := m.height
	if m.filtering || m.filter.Value() != "" {
		rows--
	}
	return max(rows, 1)
}

func (m *sidebarModel) scroll() {
	rows := m.rows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

// update handles keys while the filter input is focused.
func (m sidebarModel) update(msg tea.Msg) (sidebarModel, tea.Cmd) {
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m sidebarModel) View() string {
	var b strings.Builder
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteByte('\n')
	}

	rows := m.rows()
	textWidth := max(m.width-3, 1)
	for pos := m.offset; pos < len(m.visible) && pos < m.offset+rows; pos++ {
		idx := m.visible[pos]
		title := runewidth.Truncate(m.titles[idx], textWidth, ellipsis)

		marker := "  "
		if idx == m.current {
			marker = "• "
		}
		line := marker + title
		switch {
		case pos == m.cursor:
			line = sidebarSelectedStyle.Render(line)
		case idx == m.current:
			line = sidebarCurrentStyle.Render(line)
		}
		b.WriteString(line)
		if pos < m.offset+rows-1 {
			b.WriteByte('\n')
		}
	}

	if len(m.visible) == 0 {
		b.WriteString(subtleStyle.Render("  no matches"))
	}

	return sidebarStyle.
		Width(m.width - 1).
		Height(m.height).
		MaxHeight(m.height).
		Render(b.String())
}
