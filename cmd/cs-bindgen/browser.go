package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/cs-bindgen/export"
)

// listHeight is the number of declaration rows shown above the detail pane.
const listHeight = 12

type browserModel struct {
	filename string
	all      []entry
	visible  []entry
	filter   textinput.Model
	detail   viewport.Model
	selected int
	offset   int
}

func newBrowserModel(filename string, rows []entry) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "filter by kind, name or type"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.Focus()

	m := &browserModel{
		filename: filename,
		all:      rows,
		filter:   ti,
		detail:   viewport.New(80, 10),
	}
	m.applyFilter()
	return m
}

func runBrowser(filename string, rows []entry) error {
	_, err := tea.NewProgram(newBrowserModel(filename, rows), tea.WithAltScreen()).Run()
	return err
}

func (m *browserModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.detail.Width = msg.Width
		m.detail.Height = max(msg.Height-listHeight-7, 3)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "up", "ctrl+p":
			m.move(-1)
			return m, nil

		case "down", "ctrl+n":
			m.move(1)
			return m, nil

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

func (m *browserModel) applyFilter() {
	m.visible = m.visible[:0]
	for _, e := range m.all {
		if e.matches(m.filter.Value()) {
			m.visible = append(m.visible, e)
		}
	}
	m.selected = 0
	m.offset = 0
	m.showSelected()
}

func (m *browserModel) move(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.selected = min(max(m.selected+delta, 0), len(m.visible)-1)
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+listHeight {
		m.offset = m.selected - listHeight + 1
	}
	m.showSelected()
}

func (m *browserModel) showSelected() {
	if len(m.visible) == 0 {
		m.detail.SetContent("no matching declarations")
		return
	}
	m.detail.SetContent(m.visible[m.selected].detail)
	m.detail.GotoTop()
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cs-bindgen"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	end := min(m.offset+listHeight, len(m.visible))
	for i := m.offset; i < end; i++ {
		e := m.visible[i]
		line := fmt.Sprintf("%-6s %s  %s", e.kind, e.id, e.signature)
		if e.kind == export.KindFn.String() {
			line = fmt.Sprintf("%-6s %s", e.kind, e.signature)
		}
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	for i := end - m.offset; i < listHeight; i++ {
		b.WriteString("\n")
	}

	b.WriteString(resultStyle.Render(fmt.Sprintf("%d of %d", len(m.visible), len(m.all))))
	b.WriteString("\n")
	b.WriteString(m.detail.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • pgup/pgdown scroll • esc quit"))
	return b.String()
}
