package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// NewRenderer picks the live TUI when output is an interactive terminal,
// falling back to plain line output for pipes and CI logs.
func NewRenderer(cfg Config) Renderer {
	if f, ok := cfg.Output.(*os.File); ok && !cfg.NoColor && isatty.IsTerminal(f.Fd()) {
		return NewTUIRenderer(cfg)
	}
	return NewPlainRenderer(cfg)
}

// TUIRenderer drives a bubbletea program showing a spinner, the current
// stage, and a progress bar while an index run is in flight.
type TUIRenderer struct {
	program *tea.Program
	done    chan struct{}
}

// NewTUIRenderer starts the bubbletea program immediately; the caller must
// eventually call Complete to stop it.
func NewTUIRenderer(cfg Config) *TUIRenderer {
	p := tea.NewProgram(newTUIModel(cfg), tea.WithOutput(cfg.Output))
	r := &TUIRenderer{program: p, done: make(chan struct{})}
	go func() {
		_, _ = p.Run()
		close(r.done)
	}()
	return r
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.program.Send(event)
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.program.Send(event)
}

// Complete implements Renderer. It blocks until the program has rendered
// the final summary and exited, so the shell prompt never interleaves
// with the last frame.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.program.Send(completeMsg{stats: stats})
	<-r.done
}

type completeMsg struct {
	stats CompletionStats
}

type tuiModel struct {
	spinner  spinner.Model
	bar      progress.Model
	styles   Styles
	started  time.Time
	current  ProgressEvent
	errors   []ErrorEvent
	stats    *CompletionStats
}

func newTUIModel(cfg Config) tuiModel {
	styles := GetStyles(cfg.NoColor)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Success

	return tuiModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		styles:  styles,
		started: time.Now(),
	}
}

func (m tuiModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case ProgressEvent:
		m.current = msg
		return m, nil
	case ErrorEvent:
		m.errors = append(m.errors, msg)
		return m, nil
	case completeMsg:
		stats := msg.stats
		m.stats = &stats
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.stats != nil {
		return m.summaryView(*m.stats)
	}

	var b strings.Builder
	label := m.current.Stage.Icon()
	if label == "RUN" && m.current.Message == "" && m.current.CurrentFile == "" {
		fmt.Fprintf(&b, "%s indexing...\n", m.spinner.View())
		return b.String()
	}

	fmt.Fprintf(&b, "%s [%s] %s\n", m.spinner.View(), m.styles.Stage.Render(label), m.currentDetail())
	if m.current.Total > 0 {
		pct := float64(m.current.Current) / float64(m.current.Total)
		fmt.Fprintf(&b, "%s %d/%d\n", m.bar.ViewAs(pct), m.current.Current, m.current.Total)
	}
	if n := len(m.errors); n > 0 {
		fmt.Fprintf(&b, "%s\n", m.styles.Warning.Render(fmt.Sprintf("%d problem(s) so far", n)))
	}
	return b.String()
}

func (m tuiModel) currentDetail() string {
	if m.current.Message != "" {
		return m.current.Message
	}
	return m.current.CurrentFile
}

func (m tuiModel) summaryView(stats CompletionStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d docs, %d segments indexed in %s",
		m.styles.Success.Render("done:"), stats.Docs, stats.Segments, stats.Duration.Round(100*time.Millisecond))
	if stats.Errors > 0 || stats.Warnings > 0 {
		fmt.Fprintf(&b, " (%d errors, %d warnings)", stats.Errors, stats.Warnings)
	}
	b.WriteByte('\n')
	for _, e := range m.errors {
		prefix := "ERROR"
		if e.IsWarn {
			prefix = "WARN"
		}
		if e.File != "" {
			fmt.Fprintf(&b, "%s: %s: %v\n", prefix, e.File, e.Err)
		} else {
			fmt.Fprintf(&b, "%s: %v\n", prefix, e.Err)
		}
	}
	return b.String()
}
