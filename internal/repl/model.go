package repl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"podkeep/internal/app"
	"podkeep/internal/theme"
)

type commandDoneMsg struct {
	result app.CommandResult
	err    error
}

type roamingChangedMsg struct{}

type model struct {
	ctx             context.Context
	app             *app.App
	theme           theme.Theme
	input           textinput.Model
	history         []string
	historyPos      int
	lines           []string
	busy            bool
	quitting        bool
	externalChanges <-chan struct{}
}

func newModel(ctx context.Context, application *app.App, th theme.Theme, externalChanges <-chan struct{}) model {
	ti := textinput.New()
	ti.Placeholder = "help"
	ti.Focus()
	ti.Prompt = "podkeep> "
	ti.CharLimit = 512
	ti.Width = 80

	return model{
		ctx:             ctx,
		app:             application,
		theme:           th,
		input:           ti,
		history:         make([]string, 0, 32),
		lines:           []string{th.Message.Render("Podkeep ready. Type 'help' for assistance.")},
		externalChanges: externalChanges,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForExternalChange())
}

func (m model) waitForExternalChange() tea.Cmd {
	if m.externalChanges == nil {
		return nil
	}
	changes := m.externalChanges
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			return roamingChangedMsg{}
		}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleSubmit()
		case tea.KeyUp:
			return m.recallHistory(-1), nil
		case tea.KeyDown:
			return m.recallHistory(1), nil
		}

	case commandDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.lines = append(m.lines, m.theme.Error.Render(msg.err.Error()))
			return m, nil
		}
		m.lines = append(m.lines, m.renderResult(msg.result)...)
		if msg.result.Quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case roamingChangedMsg:
		m.lines = append(m.lines, m.theme.Dim.Render("Listening state updated from another device."))
		return m, m.waitForExternalChange()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.busy {
		b.WriteString(m.theme.Dim.Render("working..."))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	if !m.quitting {
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) handleSubmit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	command := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if command == "" {
		return m, nil
	}

	m.history = append(m.history, command)
	m.historyPos = len(m.history)
	m.lines = append(m.lines, m.theme.Dim.Render("podkeep> "+command))
	m.busy = true

	ctx := m.ctx
	application := m.app
	return m, func() tea.Msg {
		result, err := application.Execute(ctx, command)
		return commandDoneMsg{result: result, err: err}
	}
}

func (m model) recallHistory(direction int) model {
	if len(m.history) == 0 {
		return m
	}
	pos := m.historyPos + direction
	if pos < 0 {
		pos = 0
	}
	if pos >= len(m.history) {
		m.historyPos = len(m.history)
		m.input.SetValue("")
		return m
	}
	m.historyPos = pos
	m.input.SetValue(m.history[pos])
	m.input.CursorEnd()
	return m
}

func (m model) renderResult(result app.CommandResult) []string {
	var lines []string
	if result.Message != "" {
		lines = append(lines, m.theme.Normal.Render(result.Message))
	}
	if len(result.Podcasts) > 0 {
		if result.PodcastsTitle != "" {
			lines = append(lines, m.theme.Header.Render(result.PodcastsTitle))
		}
		for _, p := range result.Podcasts {
			lines = append(lines, m.renderPodcast(p))
		}
	}
	if len(result.Episodes) > 0 {
		if result.EpisodesTitle != "" {
			lines = append(lines, m.theme.Header.Render(result.EpisodesTitle))
		}
		for _, e := range result.Episodes {
			lines = append(lines, m.renderEpisode(e))
		}
	}
	return lines
}

func (m model) renderPodcast(p app.PodcastItem) string {
	title := truncate(p.Title, m.app.Config().PodcastNameMaxLength)
	star := "  "
	if p.Starred {
		star = m.theme.Starred.Render("* ")
	}
	line := fmt.Sprintf("%2d. %s%s", p.Index, star, m.theme.Normal.Render(title))
	if p.Author != "" {
		line += m.theme.Dim.Render(" by " + p.Author)
	}
	if p.EpisodeCount > 0 {
		line += m.theme.Dim.Render(fmt.Sprintf(" (%d episodes)", p.EpisodeCount))
	}
	return line
}

func (m model) renderEpisode(e app.EpisodeItem) string {
	title := truncate(e.Title, m.app.Config().EpisodeNameMaxLength)
	styled := m.theme.Normal.Render(title)
	if e.Completed {
		styled = m.theme.Completed.Render(title)
	}

	marker := "  "
	if e.Downloaded {
		marker = m.theme.Downloaded.Render("v ")
	}

	line := fmt.Sprintf("%2d. %s%s", e.Index, marker, styled)
	if e.DurationSeconds > 0 {
		line += " " + m.theme.Duration.Render(formatDuration(e.DurationSeconds))
	}
	if !e.PublishedAt.IsZero() {
		line += " " + m.theme.Date.Render(e.PublishedAt.Format("2006-01-02"))
	}
	if e.PositionSeconds > 0 && !e.Completed {
		line += " " + m.theme.Dim.Render("(at "+formatDuration(e.PositionSeconds)+")")
	}
	return line
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	if d >= time.Hour {
		return fmt.Sprintf("%d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	}
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
