package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/braas-hpc/hscompose/pkg/remote"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDirStyle      = lipgloss.NewStyle().Foreground(colorBlue)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// BrowserModel - Interactive remote file selection
// =============================================================================

// listFunc lists a remote directory.
type listFunc func(ctx context.Context, dir string) ([]remote.Entry, error)

type listingMsg struct {
	dir     string
	entries []remote.Entry
	err     error
}

// BrowserSelection is what the user picked. Dir is set whenever the user
// moved to another directory or chose the current one; File is the full
// path of a chosen file.
type BrowserSelection struct {
	Dir  string
	File string
}

// BrowserModel is the bubbletea model for browsing a cluster's files.
type BrowserModel struct {
	ctx      context.Context
	list     listFunc
	browser  *remote.Browser
	title    string
	entries  []remote.Entry
	cursor   int
	offset   int
	height   int
	loading  bool
	err      error
	moved    bool
	Selected *BrowserSelection
}

// NewBrowserModel starts browsing at start.
func NewBrowserModel(ctx context.Context, title, start string, list listFunc) BrowserModel {
	return BrowserModel{
		ctx:     ctx,
		list:    list,
		browser: remote.NewBrowser(start),
		title:   title,
		height:  15,
		loading: true,
	}
}

func (m BrowserModel) load() tea.Cmd {
	dir := m.browser.Path()
	return func() tea.Msg {
		entries, err := m.list(m.ctx, dir)
		return listingMsg{dir: dir, entries: entries, err: err}
	}
}

func (m BrowserModel) Init() tea.Cmd {
	return m.load()
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listingMsg:
		if msg.dir != m.browser.Path() {
			return m, nil
		}
		m.loading = false
		m.entries, m.err = msg.entries, msg.err
		m.cursor, m.offset = 0, 0
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "backspace", "h", "left":
			return m.enter(remote.Up)
		case "d":
			m.Selected = &BrowserSelection{Dir: m.browser.Path()}
			return m, tea.Quit
		case "enter", "l", "right":
			if m.loading || len(m.entries) == 0 {
				return m, nil
			}
			e := m.entries[m.cursor]
			if e.Dir {
				return m.enter(e.Name)
			}
			sel := &BrowserSelection{File: m.browser.Select(e.Name)}
			if m.moved {
				sel.Dir = m.browser.Path()
			}
			m.Selected = sel
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m BrowserModel) enter(name string) (tea.Model, tea.Cmd) {
	m.browser.Enter(name)
	m.moved = true
	m.loading = true
	m.entries = nil
	return m, m.load()
}

func (m BrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString(" " + StyleHighlight.Render(m.browser.Path()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open/select  ← up  d use this dir  q quit"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(listDimStyle.Render("  loading..."))
		return b.String()
	case m.err != nil:
		b.WriteString(listErrorStyle.Render("  " + m.err.Error()))
		return b.String()
	}

	end := min(m.offset+m.height, len(m.entries))
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := cursor + e.Name
		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case e.Dir:
			b.WriteString(listDirStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.entries))))
	return b.String()
}
