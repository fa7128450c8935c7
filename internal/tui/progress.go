// Package tui renders generation progress in the terminal.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"contentforge/internal/pipeline"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type eventMsg pipeline.Event

// closedMsg is sent when the run's event stream ends.
type closedMsg struct{}

// model shows one run's progress.
type model struct {
	title    string
	events   <-chan pipeline.Event
	cancel   context.CancelFunc
	progress progress.Model
	spinner  spinner.Model

	current   pipeline.Event
	completed []pipeline.Event
	started   time.Time
	finished  bool
	cancelled bool
}

func newModel(title string, events <-chan pipeline.Event, cancel context.CancelFunc) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		title:    title,
		events:   events,
		cancel:   cancel,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		spinner:  s,
		started:  time.Now(),
	}
}

// waitForEvent reads the next event from the run.
func waitForEvent(events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelled && m.cancel != nil {
				m.cancel()
			}
			m.cancelled = true
			// Keep draining so the run can finish.
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-8, 10), 80)

	case eventMsg:
		if m.current.Stage != "" {
			m.completed = append(m.completed, m.current)
		}
		m.current = pipeline.Event(msg)
		return m, waitForEvent(m.events)

	case closedMsg:
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for _, ev := range m.completed {
		b.WriteString(doneStyle.Render("✓ "+ev.Label) + "\n")
	}

	if m.current.Stage != "" {
		prefix := m.spinner.View() + " "
		if m.finished && m.current.Stage == pipeline.StageDone {
			prefix = doneStyle.Render("✓ ")
		}
		b.WriteString(prefix + labelStyle.Render(m.current.Label))
		if m.current.Detail != "" {
			b.WriteString(" " + detailStyle.Render(m.current.Detail))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(float64(m.current.Percent) / 100))
	b.WriteString("\n\n")

	elapsed := time.Since(m.started).Round(time.Second)
	switch {
	case m.cancelled:
		b.WriteString(helpStyle.Render(fmt.Sprintf("cancelling... (%s)", elapsed)))
	case m.finished:
		b.WriteString(helpStyle.Render(fmt.Sprintf("finished in %s", elapsed)))
	default:
		b.WriteString(helpStyle.Render(fmt.Sprintf("%s elapsed • q to cancel", elapsed)))
	}
	b.WriteString("\n")
	return b.String()
}

// Options configures the progress view.
type Options struct {
	Title  string
	Input  io.Reader
	Output io.Writer
}

// Show renders progress until the run's event stream closes. cancel is
// called when the user quits early. The caller collects the outcome with
// run.Wait.
func Show(run *pipeline.Run, cancel context.CancelFunc, opts Options) error {
	title := opts.Title
	if title == "" {
		title = "Generating article"
	}

	var programOpts []tea.ProgramOption
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	if _, err := tea.NewProgram(newModel(title, run.Events(), cancel), programOpts...).Run(); err != nil {
		return fmt.Errorf("error running progress view: %w", err)
	}
	return nil
}
