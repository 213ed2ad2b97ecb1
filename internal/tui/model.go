package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/letmevibethatforyou/pagex"
	"github.com/letmevibethatforyou/pagex/corpus"
)

// FinderPort is the TUI-facing subset of the finder.
type FinderPort interface {
	Rank(ctx context.Context, query string, opts ...pagex.RankOption) (*pagex.Results, error)
	Navigate(ctx context.Context, id string, dir pagex.Direction) (string, error)
	Lookup(ctx context.Context, id string) (corpus.Entry, bool)
}

// Model is the Bubble Tea model for the page browser.
type Model struct {
	finder   FinderPort
	opts     []pagex.RankOption
	input    textinput.Model
	viewport viewport.Model
	results  []pagex.Match
	cursor   int
	page     string // page being shown; empty while the result list is shown
	status   string
	ready    bool
}

// New creates a new TUI model instance.
func New(finder FinderPort, opts ...pagex.RankOption) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type text from the book and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{finder: finder, opts: opts, input: ti, viewport: vp, status: "Ready. Type to search."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Results returns the current result list.
func (m Model) Results() []pagex.Match { return m.results }

// Page returns the identifier of the page being shown, if any.
func (m Model) Page() string { return m.page }

// Status returns the status line.
func (m Model) Status() string { return m.status }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 2 + qh + 1 // header, status + help, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		inputEmpty := strings.TrimSpace(m.input.Value()) == ""
		switch msg.String() {
		case "enter":
			if !inputEmpty {
				m.search(strings.TrimSpace(m.input.Value()))
				m.input.SetValue("")
				return m, nil
			}
			if m.page == "" && len(m.results) > 0 {
				m.open(m.results[m.cursor].ID)
				return m, nil
			}
		case "esc":
			if m.page != "" {
				m.page = ""
				m.status = fmt.Sprintf("%d result(s)", len(m.results))
				m.refresh()
				return m, nil
			}
		case "down":
			if m.page == "" && len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.refresh()
				return m, nil
			}
		case "up":
			if m.page == "" && len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.refresh()
				return m, nil
			}
		case "ctrl+n":
			m.step(pagex.Forward)
			return m, nil
		case "ctrl+p":
			m.step(pagex.Backward)
			return m, nil
		case "right":
			if inputEmpty && m.page != "" {
				m.step(pagex.Forward)
				return m, nil
			}
		case "left":
			if inputEmpty && m.page != "" {
				m.step(pagex.Backward)
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) search(q string) {
	m.page = ""
	m.cursor = 0
	res, err := m.finder.Rank(context.Background(), q, m.opts...)
	switch {
	case err != nil:
		m.status = "Error: " + err.Error()
		m.results = nil
	case res.Empty():
		m.status = "No matching page found."
		m.results = nil
	case res.Confident:
		m.results = res.Items
		m.open(res.Items[0].ID)
		m.status = fmt.Sprintf("Strong match %.2f%%", res.Items[0].Score*100)
		return
	default:
		m.results = res.Items
		m.status = fmt.Sprintf("%d closest page(s) for %q", len(res.Items), q)
	}
	m.refresh()
}

func (m *Model) open(id string) {
	if _, ok := m.finder.Lookup(context.Background(), id); !ok {
		m.status = fmt.Sprintf("Page %s is no longer in the corpus.", id)
		return
	}
	m.page = id
	m.status = "Page " + id
	m.refresh()
}

func (m *Model) step(dir pagex.Direction) {
	if m.page == "" {
		return
	}
	next, err := m.finder.Navigate(context.Background(), m.page, dir)
	if err != nil {
		if pagex.IsNoPage(err) {
			m.status = "No further pages."
		} else {
			m.status = "Error: " + err.Error()
		}
		return
	}
	m.open(next)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderBody())
	m.viewport.GotoTop()
}

// View renders the TUI layout and current body.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Book Page Finder")
	body := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	help := helpStyle.Render("enter: search/open  up/down: select  left/right or ctrl+p/ctrl+n: prev/next page  esc: back  ctrl+c: quit")
	return header + "\n" + body + "\n" + input + "\n" + status + "\n" + help
}

func (m Model) renderBody() string {
	if m.page != "" {
		entry, ok := m.finder.Lookup(context.Background(), m.page)
		if !ok {
			return "Page not found."
		}
		title := titleStyle.Render("📄 " + entry.ID)
		text := entry.Text
		if strings.TrimSpace(text) == "" {
			text = "(no text on this page)"
		}
		return title + "\n\n" + text
	}
	if len(m.results) == 0 {
		return "No results yet."
	}
	var b strings.Builder
	for i, r := range m.results {
		line := fmt.Sprintf("📄 %s (%.1f%%)", r.ID, r.Score*100)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
