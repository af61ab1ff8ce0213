package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeWatcherConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const watcherTestConfig = `schema_version: v1
instances:
  - name: prom-test
    type: prometheus
    enabled: true
    config:
      url: "http://localhost:9091"
`

func TestWatcherStartDeliversInitialConfig(t *testing.T) {
	path := writeWatcherConfig(t, watcherTestConfig)

	var received *SourcesFile
	w, err := NewSourcesWatcher(SourcesWatcherConfig{FilePath: path}, func(cfg *SourcesFile) error {
		received = cfg
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if received == nil {
		t.Fatal("callback was not invoked with the initial config")
	}
	if len(received.Instances) != 1 || received.Instances[0].Name != "prom-test" {
		t.Errorf("unexpected initial config: %+v", received)
	}
}

func TestWatcherStopAfterStart(t *testing.T) {
	path := writeWatcherConfig(t, watcherTestConfig)

	w, err := NewSourcesWatcher(SourcesWatcherConfig{FilePath: path}, func(cfg *SourcesFile) error {
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop returned error: %v", err)
	}
}

func TestWatcherStopBeforeStart(t *testing.T) {
	path := writeWatcherConfig(t, watcherTestConfig)

	w, err := NewSourcesWatcher(SourcesWatcherConfig{FilePath: path}, func(cfg *SourcesFile) error {
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop on an unstarted watcher should be a no-op, got %v", err)
	}
}
