package repl

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"podkeep/internal/app"
	"podkeep/internal/config"
	"podkeep/internal/metadata"
	"podkeep/internal/theme"
)

func newTestModel(t *testing.T, externalChanges <-chan struct{}) model {
	t.Helper()
	dir := t.TempDir()
	store := metadata.New(
		filepath.Join(dir, "local.json"),
		filepath.Join(dir, "roaming.json"),
		filepath.Join(dir, "enclosures"),
		metadata.Options{},
	)
	if err := store.Load(metadata.SectionBoth); err != nil {
		t.Fatal(err)
	}
	application := app.NewWithDependencies(config.Defaults(dir), filepath.Join(dir, "config.yaml"), app.Dependencies{
		Store: store,
	})
	return newModel(context.Background(), application, theme.ForName(theme.Default), externalChanges)
}

// submit types a command and presses enter, returning the updated model
// and the async command produced.
func submit(t *testing.T, m model, command string) (model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(command)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(model), cmd
}

func TestSubmitRunsCommandAsync(t *testing.T) {
	m := newTestModel(t, nil)

	m, cmd := submit(t, m, "help")
	if !m.busy {
		t.Fatal("model must be busy while the command runs")
	}
	if cmd == nil {
		t.Fatal("expected an async command")
	}

	msg := cmd()
	done, ok := msg.(commandDoneMsg)
	if !ok {
		t.Fatalf("msg = %T, want commandDoneMsg", msg)
	}
	if done.err != nil {
		t.Fatalf("help failed: %v", done.err)
	}

	updated, _ := m.Update(done)
	m = updated.(model)
	if m.busy {
		t.Fatal("model must not stay busy")
	}
	if !strings.Contains(m.View(), "search <query>") {
		t.Errorf("help output not rendered:\n%s", m.View())
	}
}

func TestSubmitWhileBusyIsIgnored(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = submit(t, m, "help")
	before := len(m.history)
	m, cmd := submit(t, m, "help")
	if cmd != nil || len(m.history) != before {
		t.Fatal("a busy model must ignore further submissions")
	}
}

func TestQuitCommand(t *testing.T) {
	m := newTestModel(t, nil)

	m, cmd := submit(t, m, "quit")
	msg := cmd()
	updated, _ := m.Update(msg)
	m = updated.(model)
	if !m.quitting {
		t.Fatal("expected quitting state")
	}
}

func TestCommandErrorIsRendered(t *testing.T) {
	m := newTestModel(t, nil)

	m, cmd := submit(t, m, "import /no/such/file.opml")
	msg := cmd()
	done := msg.(commandDoneMsg)
	if done.err == nil {
		t.Fatal("expected an error from importing a missing file")
	}

	updated, _ := m.Update(done)
	m = updated.(model)
	if !strings.Contains(m.View(), "no/such/file.opml") {
		t.Errorf("error not rendered:\n%s", m.View())
	}
}

func TestHistoryRecall(t *testing.T) {
	m := newTestModel(t, nil)

	m, cmd := submit(t, m, "help")
	updated, _ := m.Update(cmd())
	m = updated.(model)
	m, cmd = submit(t, m, "list")
	updated, _ = m.Update(cmd())
	m = updated.(model)

	up, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = up.(model)
	if got := m.input.Value(); got != "list" {
		t.Fatalf("first recall = %q, want list", got)
	}

	up, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = up.(model)
	if got := m.input.Value(); got != "help" {
		t.Fatalf("second recall = %q, want help", got)
	}

	down, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = down.(model)
	if got := m.input.Value(); got != "list" {
		t.Fatalf("forward recall = %q, want list", got)
	}
}

func TestExternalChangeNotification(t *testing.T) {
	changes := make(chan struct{}, 1)
	m := newTestModel(t, changes)

	wait := m.waitForExternalChange()
	if wait == nil {
		t.Fatal("expected a wait command")
	}

	changes <- struct{}{}
	msg := wait()
	if _, ok := msg.(roamingChangedMsg); !ok {
		t.Fatalf("msg = %T, want roamingChangedMsg", msg)
	}

	updated, rearm := m.Update(msg)
	m = updated.(model)
	if !strings.Contains(m.View(), "another device") {
		t.Errorf("notification not rendered:\n%s", m.View())
	}
	if rearm == nil {
		t.Fatal("watcher wait must be re-armed")
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"a very long podcast title", 10, "a very ..."},
		{"edge", 0, "edge"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.maxLen); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{330, "5:30"},
		{3793, "1:03:13"},
		{59, "0:59"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.seconds); got != tc.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
