package commands

import (
	"context"
	"fmt"
	"net/http"

	//nolint:gosec // We are using pprof for debugging
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/moolen/pulse/internal/analysis"
	"github.com/moolen/pulse/internal/apiserver"
	"github.com/moolen/pulse/internal/catalog"
	"github.com/moolen/pulse/internal/collector"
	"github.com/moolen/pulse/internal/config"
	"github.com/moolen/pulse/internal/lifecycle"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/source"

	// Import source implementations to register their factories
	_ "github.com/moolen/pulse/internal/source/datadog"
	_ "github.com/moolen/pulse/internal/source/prometheus"
	"github.com/moolen/pulse/internal/store"
	"github.com/moolen/pulse/internal/tracing"
)

var (
	apiPort            int
	refreshInterval    time.Duration
	retention          time.Duration
	anomalyWindow      time.Duration
	sourcesConfigPath  string
	minSourceVersion   string
	maxPointsPerSeries int
	maxSeries          int
	pprofEnabled       bool
	pprofPort          int
	tracingEnabled     bool
	tracingEndpoint    string
	tracingTLSCAPath   string
	tracingTLSInsecure bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Pulse server",
	Long: `Start the Pulse server which polls the configured metric sources,
keeps a rolling window of samples in memory, and serves summaries,
timelines, and anomalies over a REST API.`,
	Run: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&apiPort, "api-port", 8080, "Port the API server listens on")
	serverCmd.Flags().DurationVar(&refreshInterval, "refresh-interval", collector.DefaultRefreshInterval,
		"Time between collection sweeps (5s to 60s)")
	serverCmd.Flags().DurationVar(&retention, "retention", time.Hour, "How long samples are kept in memory")
	serverCmd.Flags().DurationVar(&anomalyWindow, "anomaly-window", analysis.DefaultWindow,
		"Trailing window analyzed for anomalies")
	serverCmd.Flags().StringVar(&sourcesConfigPath, "sources-config", "sources.yaml",
		"Path to the sources configuration YAML file")
	serverCmd.Flags().StringVar(&minSourceVersion, "min-source-version", "",
		"Minimum required source version (e.g., '1.0.0') for version validation (optional)")
	serverCmd.Flags().IntVar(&maxPointsPerSeries, "max-points-per-series", 1024,
		"Maximum points retained per series")
	serverCmd.Flags().IntVar(&maxSeries, "max-series", 4096,
		"Maximum number of live series before least-recently-updated eviction")
	serverCmd.Flags().BoolVar(&pprofEnabled, "pprof-enabled", false, "Enable pprof profiling server (default: false)")
	serverCmd.Flags().IntVar(&pprofPort, "pprof-port", 9999, "Port the pprof server listens on (default: 9999)")
	serverCmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false, "Enable OpenTelemetry tracing (default: false)")
	serverCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces (e.g., otel-collector:4317)")
	serverCmd.Flags().StringVar(&tracingTLSCAPath, "tracing-tls-ca", "", "Path to CA certificate for TLS verification (optional)")
	serverCmd.Flags().BoolVar(&tracingTLSInsecure, "tracing-tls-insecure", false, "Skip TLS certificate verification (insecure, use only for testing)")
}

func runServer(cmd *cobra.Command, args []string) {
	cfg := &config.Config{
		APIPort:            apiPort,
		RefreshInterval:    refreshInterval,
		Retention:          retention,
		AnomalyWindow:      anomalyWindow,
		SourcesConfigPath:  sourcesConfigPath,
		MaxPointsPerSeries: maxPointsPerSeries,
		MaxSeries:          maxSeries,
		TracingEnabled:     tracingEnabled,
		TracingEndpoint:    tracingEndpoint,
		TracingTLSCAPath:   tracingTLSCAPath,
		TracingTLSInsecure: tracingTLSInsecure,
	}

	if err := cfg.Validate(); err != nil {
		HandleError(err, "Configuration error")
	}

	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("server")

	logger.Info("Starting Pulse v%s", Version)
	logger.Debug("Configuration loaded: APIPort=%d RefreshInterval=%v", cfg.APIPort, cfg.RefreshInterval)

	manager := lifecycle.NewManager()

	// Create default sources config file if it doesn't exist
	if _, err := os.Stat(cfg.SourcesConfigPath); os.IsNotExist(err) {
		logger.Info("Creating default sources config file: %s", cfg.SourcesConfigPath)
		if err := config.WriteSourcesFile(cfg.SourcesConfigPath, config.DefaultSourcesFile()); err != nil {
			HandleError(err, "Sources config creation error")
		}
	}

	// Initialize tracing provider
	tracingCfg := tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		TLSCAPath:   cfg.TracingTLSCAPath,
		TLSInsecure: cfg.TracingTLSInsecure,
	}
	tracingProvider, err := tracing.NewTracingProvider(tracingCfg)
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
		tracingProvider = nil
	}
	if tracingProvider != nil {
		if err := manager.Register(tracingProvider); err != nil {
			HandleError(err, "Tracing registration error")
		}
	}

	// Start pprof server if enabled
	if pprofEnabled {
		go func() {
			pprofAddr := fmt.Sprintf(":%d", pprofPort)
			logger.Info("Starting pprof server on %s", pprofAddr)
			if err := http.ListenAndServe(pprofAddr, nil); err != nil { //nolint:gosec // We are using pprof for debugging
				logger.Error("pprof server failed: %v", err)
			}
		}()
	}

	// In-memory sample store
	st, err := store.New(store.Config{
		Retention:          cfg.Retention,
		MaxPointsPerSeries: cfg.MaxPointsPerSeries,
		MaxSeries:          cfg.MaxSeries,
	})
	if err != nil {
		HandleError(err, "Store initialization error")
	}
	if err := manager.Register(st); err != nil {
		HandleError(err, "Store registration error")
	}

	cat := catalog.Default()
	logger.Info("Metric catalog loaded: %d metrics", cat.Len())

	// Source manager: loads sources.yaml, starts instances, watches for changes
	sourceMgr, err := source.NewManager(source.ManagerConfig{
		ConfigPath:       cfg.SourcesConfigPath,
		MinSourceVersion: minSourceVersion,
	})
	if err != nil {
		HandleError(err, "Source manager initialization error")
	}
	if err := manager.Register(sourceMgr); err != nil {
		HandleError(err, "Source manager registration error")
	}

	// Collector sweeps all healthy sources on the refresh interval
	collectorComponent := collector.New(
		collector.Config{RefreshInterval: cfg.RefreshInterval},
		cat,
		sourceMgr.GetRegistry(),
		st,
		collector.NewMetrics(promclient.DefaultRegisterer),
	)
	if err := manager.Register(collectorComponent, st, sourceMgr); err != nil {
		HandleError(err, "Collector registration error")
	}

	engine := analysis.NewDefaultEngine(st, cat, cfg.RefreshInterval)

	apiCfg := apiserver.Config{
		Port:             cfg.APIPort,
		Store:            st,
		Catalog:          cat,
		Engine:           engine,
		Registry:         sourceMgr.GetRegistry(),
		Sweep:            collectorComponent,
		ReadinessChecker: collectorComponent,
	}
	if tracingProvider != nil {
		apiCfg.TracingProvider = tracingProvider
	}
	apiComponent := apiserver.New(apiCfg)
	if err := manager.Register(apiComponent, collectorComponent); err != nil {
		HandleError(err, "API server registration error")
	}

	logger.Info("All components registered with dependencies")
	ctx, cancel := context.WithCancel(context.Background())
	if err := manager.Start(ctx); err != nil {
		cancel()
		HandleError(err, "Startup error")
	}

	logger.Info("Application started successfully")
	logger.Info("Serving API on :%d, sweeping sources every %v", cfg.APIPort, cfg.RefreshInterval)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Shutdown signal received, gracefully shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}

	logger.Info("Shutdown complete")
}
