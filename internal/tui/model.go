package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"finrag/internal/domain"
)

// RAGPort is the TUI-facing subset of the RAG application.
type RAGPort interface {
	Query(ctx context.Context, text string, opts domain.RetrieveOptions) string
	Chat(ctx context.Context, text string, opts domain.RetrieveOptions) string
	FinancialSummary(ctx context.Context, year, k int) string
	ClearConversation()
}

const helpText = `Available commands:
  query <text>       - One-off question against the document store
  financial [year]   - Financial summary, optionally for a specific year
  clear              - Clear the conversation history
  help               - Show available commands
  exit               - Quit

Anything else is treated as a conversational question.`

// Model is the Bubble Tea model for the interactive shell.
type Model struct {
	app      RAGPort
	input    textinput.Model
	viewport viewport.Model
	lines    []string
	status   string
	ready    bool
}

// New creates a new shell model around the RAG application.
func New(app RAGPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the ingested reports"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		app:      app,
		input:    ti,
		viewport: vp,
		lines:    []string{helpText},
		status:   "Ready. Type 'help' for commands.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				break
			}
			m.input.SetValue("")
			if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
				return m, tea.Quit
			}
			m = m.dispatch(line)
			m.viewport.SetContent(strings.Join(m.lines, "\n"))
			m.viewport.GotoBottom()
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the shell layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Annual Report Q&A")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) dispatch(line string) Model {
	ctx := context.Background()
	switch {
	case strings.EqualFold(line, "help"):
		m.lines = append(m.lines, helpText)
		m.status = "Ready."
	case strings.EqualFold(line, "clear"):
		m.app.ClearConversation()
		m.lines = append(m.lines, "Conversation history cleared.")
		m.status = "Cleared."
	case hasCommand(line, "query "):
		text := strings.TrimSpace(line[len("query "):])
		m.lines = append(m.lines, "You: "+text)
		answer := m.app.Query(ctx, text, domain.RetrieveOptions{})
		m.lines = append(m.lines, "Assistant: "+answer)
		m.status = "Answered."
	case strings.EqualFold(line, "financial") || hasCommand(line, "financial "):
		year := 0
		if rest := strings.TrimSpace(line[len("financial"):]); rest != "" {
			y, err := strconv.Atoi(rest)
			if err != nil {
				m.lines = append(m.lines, "Usage: financial [year]")
				m.status = "Bad year."
				return m
			}
			year = y
		}
		summary := m.app.FinancialSummary(ctx, year, 10)
		m.lines = append(m.lines, "Financial summary:\n"+summary)
		m.status = "Summarized."
	default:
		m.lines = append(m.lines, "You: "+line)
		answer := m.app.Chat(ctx, line, domain.RetrieveOptions{})
		m.lines = append(m.lines, "Assistant: "+answer)
		m.status = "Answered."
	}
	return m
}

func hasCommand(line, prefix string) bool {
	if len(line) < len(prefix) {
		return false
	}
	return strings.EqualFold(line[:len(prefix)], prefix)
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
