// Package tui is the BubbleTea interactive search view for the "interactive"
// verb: a text input debounced into search.RunTo, with the matched lines
// listed below it. Layout and debounce/spinner plumbing follow the pattern
// of other charmbracelet-based TUIs in the corpus — a header, an input
// line, a divider, a scrolling result body, and a status bar.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/folbricht/qgrep/internal/search"
)

var (
	colorAccent = lipgloss.Color("#7C6AF7")
	colorDim    = lipgloss.Color("#555555")
	colorMuted  = lipgloss.Color("#888888")
	colorText   = lipgloss.Color("#DDDDDD")
	colorErr    = lipgloss.Color("#FF6B6B")
	colorDiv    = lipgloss.Color("#444444")

	sTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	sAccent  = lipgloss.NewStyle().Foreground(colorAccent)
	sDim     = lipgloss.NewStyle().Foreground(colorDim)
	sMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	sErr     = lipgloss.NewStyle().Foreground(colorErr)
	sDivider = lipgloss.NewStyle().Foreground(colorDiv)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type spinTickMsg struct{}

func spinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return spinTickMsg{} })
}

type debounceMsg struct {
	query string
	id    int
}

type resultMsg struct {
	lines []string
	count int
}

type errMsg struct{ err error }

// Searcher runs one query against a fixed project and returns its matched
// lines, already formatted for display.
type Searcher func(ctx context.Context, query string) (lines []string, count int, err error)

// Model is the BubbleTea application model for "qgrep interactive".
type Model struct {
	ctx     context.Context
	search  Searcher
	project string

	input   textinput.Model
	results []string
	count   int
	err     error

	width, height int
	searching     bool
	spinFrame     int
	debounceID    int
}

// New builds a Model that searches project via search on every keystroke,
// debounced.
func New(ctx context.Context, project string, search Searcher) Model {
	ti := textinput.New()
	ti.Placeholder = "search " + project + "…"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 60
	ti.Prompt = "❯ "
	ti.PromptStyle = sAccent
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)

	return Model{ctx: ctx, search: search, project: project, input: ti}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, spinTick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = m.width - 8
		return m, nil

	case spinTickMsg:
		m.spinFrame = (m.spinFrame + 1) % len(spinnerFrames)
		return m, spinTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q", "esc":
			return m, tea.Quit
		}

	case debounceMsg:
		if msg.id == m.debounceID {
			if strings.TrimSpace(msg.query) == "" {
				m.searching, m.results, m.err = false, nil, nil
				return m, nil
			}
			m.searching = true
			return m, m.searchCmd(msg.query)
		}
		return m, nil

	case resultMsg:
		m.searching = false
		m.results = msg.lines
		m.count = msg.count
		m.err = nil
		return m, nil

	case errMsg:
		m.searching = false
		m.err = msg.err
		return m, nil
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != prev {
		m.debounceID++
		id := m.debounceID
		q := m.input.Value()
		return m, tea.Batch(cmd, debounceCmd(q, id, 250*time.Millisecond))
	}
	return m, cmd
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder
	divider := sDivider.Render(strings.Repeat("─", clamp(m.width-2, 10, 200)))

	fmt.Fprintln(&b, "  "+sTitle.Render("qgrep")+"  "+sMuted.Render(m.project))
	fmt.Fprintln(&b, "  "+m.input.View())
	fmt.Fprintln(&b, "  "+divider)

	switch {
	case m.err != nil:
		fmt.Fprintln(&b, sErr.Render("  error: "+m.err.Error()))
	case m.searching:
		fmt.Fprintln(&b, "  "+sAccent.Render(spinnerFrames[m.spinFrame])+"  "+sMuted.Render("searching…"))
	case len(m.results) == 0:
		fmt.Fprintln(&b, sMuted.Render("  no results"))
	default:
		maxRows := clamp(m.height-6, 1, 10000)
		for i, line := range m.results {
			if i >= maxRows {
				fmt.Fprintln(&b, sDim.Render(fmt.Sprintf("  … %d more", len(m.results)-i)))
				break
			}
			fmt.Fprintln(&b, "  "+line)
		}
	}

	b.WriteString("  " + divider + "\n")
	fmt.Fprintf(&b, "  %s\n", sDim.Render(fmt.Sprintf("%d matches  esc/^q quit", m.count)))
	return b.String()
}

func (m Model) searchCmd(query string) tea.Cmd {
	return func() tea.Msg {
		lines, count, err := m.search(m.ctx, query)
		if err != nil {
			return errMsg{err}
		}
		return resultMsg{lines: lines, count: count}
	}
}

func debounceCmd(query string, id int, delay time.Duration) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(delay)
		return debounceMsg{query: query, id: id}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewSearchFunc builds a Searcher that runs search.Run with opts against
// dbPath/changeListPath.
func NewSearchFunc(dbPath, changeListPath string, opts search.Options) Searcher {
	return func(ctx context.Context, query string) ([]string, int, error) {
		n, out, err := search.Run(ctx, dbPath, changeListPath, query, opts)
		if err != nil {
			return nil, 0, err
		}
		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		if len(lines) == 1 && lines[0] == "" {
			lines = nil
		}
		return lines, n, nil
	}
}
