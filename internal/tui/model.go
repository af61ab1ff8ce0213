package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// Refresh interval bounds, matching the collector's dashboard defaults
	minRefreshInterval     = 5 * time.Second
	maxRefreshInterval     = 60 * time.Second
	defaultRefreshInterval = 15 * time.Second

	// refreshStep is how much +/- adjusts the interval
	refreshStep = 5 * time.Second
)

// Model is the main Bubble Tea model for the dashboard.
type Model struct {
	// Dimensions
	width  int
	height int

	client   *Client
	interval time.Duration

	// Latest data
	snapshot *Snapshot
	fetchErr error

	// UI components
	spinner spinner.Model

	// State
	ready    bool
	paused   bool
	loading  bool
	quitting bool
}

// NewModel creates a dashboard model over the given API client.
func NewModel(client *Client, interval time.Duration) Model {
	if interval < minRefreshInterval || interval > maxRefreshInterval {
		interval = defaultRefreshInterval
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		client:   client,
		interval: interval,
		spinner:  sp,
		loading:  true,
	}
}

// Init starts the spinner, the first fetch, and the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchCmd(),
		m.tickCmd(),
	)
}

// fetchCmd fetches a snapshot in the background.
func (m Model) fetchCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout()
		defer cancel()

		snap, err := client.Fetch(ctx)
		if err != nil {
			return fetchErrMsg{err: err}
		}
		return snapshotMsg{snapshot: snap}
	}
}

// tickCmd schedules the next auto-refresh.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
