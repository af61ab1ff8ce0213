package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moolen/pulse/internal/collector"
	"github.com/moolen/pulse/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dashAPIURL          string
	dashRefreshInterval time.Duration
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Start the terminal dashboard",
	Long: `Start an interactive terminal dashboard connected to a running Pulse server.

The dashboard shows the latest reading for every catalog metric with
threshold-colored gauges, trend arrows against the window mean, and a
panel of currently detected anomalies.

Keys: r refresh now, p pause, +/- adjust interval, q quit.

Examples:
  # Connect to a local server
  pulse dash

  # Connect to a remote server with a slower refresh
  pulse dash --api-url http://pulse.internal:8080 --refresh-interval 30s
`,
	RunE: runDash,
}

func init() {
	dashCmd.Flags().StringVar(&dashAPIURL, "api-url", "http://localhost:8080",
		"Pulse API server URL")
	dashCmd.Flags().DurationVar(&dashRefreshInterval, "refresh-interval", collector.DefaultRefreshInterval,
		"Auto-refresh interval (5s to 60s)")
}

func runDash(cmd *cobra.Command, args []string) error {
	// Logging goes to stderr and would corrupt the alternate screen,
	// so the dashboard keeps it at error level.
	if err := setupLog([]string{"error"}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	app := tui.NewApp(tui.Config{
		APIURL:          dashAPIURL,
		RefreshInterval: dashRefreshInterval,
	})
	return app.Run(ctx)
}
