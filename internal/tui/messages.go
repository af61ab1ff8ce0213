// Package tui provides the terminal dashboard for Pulse using Bubble Tea.
package tui

import "time"

// tickMsg fires when the auto-refresh timer elapses.
type tickMsg time.Time

// snapshotMsg carries a freshly fetched dashboard snapshot.
type snapshotMsg struct {
	snapshot *Snapshot
}

// fetchErrMsg is sent when a refresh fails. The dashboard keeps showing
// the previous snapshot and surfaces the error in the footer.
type fetchErrMsg struct {
	err error
}
