package repl

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"podkeep/internal/app"
	"podkeep/internal/theme"
)

// Run starts the interactive REPL session. externalChanges carries
// notifications from the roaming-file watcher; a nil channel disables
// them.
func Run(ctx context.Context, application *app.App, th theme.Theme, externalChanges <-chan struct{}) error {
	program := tea.NewProgram(newModel(ctx, application, th, externalChanges), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
