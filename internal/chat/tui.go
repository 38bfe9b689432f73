package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// answerMsg is sent when a question has been answered.
type answerMsg struct{ answer Answer }

// answerErr is sent when retrieval or generation fails.
type answerErr struct{ error }

// tickMsg refreshes the elapsed timer while a request is in flight.
type tickMsg time.Time

type exchange struct {
	question string
	answer   string
	err      error
	sources  int
	elapsed  time.Duration
}

// tuiModel is the Bubble Tea model for the interactive question screen.
type tuiModel struct {
	ctx              context.Context
	session          *Session
	title            string
	input            textinput.Model
	viewport         viewport.Model
	spinner          spinner.Model
	history          []exchange
	isLoading        bool
	requestStartTime time.Time
	width, height    int
}

var (
	headerStyle   = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func newTUIModel(ctx context.Context, s *Session, title string) *tuiModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = fmt.Sprintf("Ask your question (%s to quit)", s.QuitToken())
	ti.CharLimit = 0
	ti.Focus()

	return &tuiModel{
		ctx:      ctx,
		session:  s,
		title:    title,
		input:    ti,
		viewport: viewport.New(80, 10),
		spinner:  sp,
	}
}

// RunTUI runs the question loop as a full-screen terminal program.
func RunTUI(ctx context.Context, s *Session, title string) error {
	program := tea.NewProgram(newTUIModel(ctx, s, title), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return err
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func askCmd(ctx context.Context, s *Session, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := s.Ask(ctx, question)
		if err != nil {
			return answerErr{err}
		}
		return answerMsg{answer: answer}
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			question := m.input.Value()
			if m.session.IsQuit(question) {
				return m, tea.Quit
			}
			if strings.TrimSpace(question) == "" {
				return m, nil
			}
			m.input.Reset()
			m.history = append(m.history, exchange{question: question})
			m.isLoading = true
			m.requestStartTime = time.Now()
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, tickCmd(), askCmd(m.ctx, m.session, question))
		}
		if m.isLoading {
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 6
		headerHeight := 2
		footerHeight := 5
		m.viewport.Width = msg.Width
		m.viewport.Height = max(3, msg.Height-headerHeight-footerHeight)
		m.refresh()

	case answerMsg:
		m.isLoading = false
		if n := len(m.history); n > 0 {
			m.history[n-1].answer = msg.answer.Text
			m.history[n-1].sources = len(msg.answer.Retrieval.Matches)
			m.history[n-1].elapsed = msg.answer.Elapsed
		}
		m.refresh()
		return m, nil

	case answerErr:
		m.isLoading = false
		if n := len(m.history); n > 0 {
			m.history[n-1].err = msg.error
		}
		m.refresh()
		return m, nil

	case tickMsg:
		if m.isLoading {
			return m, tickCmd()
		}
		return m, nil

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// refresh re-renders the conversation into the viewport.
func (m *tuiModel) refresh() {
	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(questionStyle.Render("You: " + ex.question))
		b.WriteString("\n")
		switch {
		case ex.err != nil:
			b.WriteString(errorStyle.Render("Error: " + ex.err.Error()))
			b.WriteString("\n")
		case ex.answer != "":
			width := m.viewport.Width
			if width <= 0 {
				width = 80
			}
			b.WriteString(lipgloss.NewStyle().Width(width).Render(strings.TrimSpace(ex.answer)))
			b.WriteString("\n")
			b.WriteString(footerStyle.Render(fmt.Sprintf("%d reviews, %s", ex.sources, ex.elapsed.Truncate(time.Millisecond))))
			b.WriteString("\n")
		}
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *tuiModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		b.WriteString(fmt.Sprintf("  %s Thinking... %ss\n", m.spinner.View(), timer))
	} else {
		b.WriteString("\n")
	}
	b.WriteString(inputBoxStyle.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("enter: ask  %s or ctrl+d: quit", m.session.QuitToken())))
	return b.String()
}
