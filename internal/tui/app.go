package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Config contains configuration for the dashboard app.
type Config struct {
	// APIURL is the base URL of the Pulse API server
	APIURL string

	// RefreshInterval is the initial auto-refresh interval
	RefreshInterval time.Duration
}

// App manages the dashboard application lifecycle.
type App struct {
	program *tea.Program
	model   Model
}

// NewApp creates a new dashboard application.
func NewApp(cfg Config) *App {
	client := NewClient(cfg.APIURL)
	return &App{
		model: NewModel(client, cfg.RefreshInterval),
	}
}

// Run starts the dashboard and blocks until the user quits.
func (a *App) Run(ctx context.Context) error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := a.program.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}
