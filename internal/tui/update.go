package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all incoming messages and updates the model accordingly.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.paused {
			// Keep the timer alive so resume picks refreshes back up
			return m, m.tickCmd()
		}
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.fetchErr = nil
		m.loading = false
		return m, nil

	case fetchErrMsg:
		m.fetchErr = msg.err
		m.loading = false
		return m, nil

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

// handleKeyMsg processes keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "r":
		m.loading = true
		return m, m.fetchCmd()

	case "p":
		m.paused = !m.paused
		return m, nil

	case "+", "=":
		if m.interval+refreshStep <= maxRefreshInterval {
			m.interval += refreshStep
		}
		return m, nil

	case "-", "_":
		if m.interval-refreshStep >= minRefreshInterval {
			m.interval -= refreshStep
		}
		return m, nil
	}

	return m, nil
}
