package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/moolen/pulse/internal/logging"
)

// ReloadCallback is invoked when the sources file is successfully
// reloaded. A callback error is logged; the watcher keeps watching with
// the previous valid config.
type ReloadCallback func(cfg *SourcesFile) error

// SourcesWatcherConfig configures a SourcesWatcher.
type SourcesWatcherConfig struct {
	// FilePath is the sources YAML file to watch
	FilePath string

	// DebounceMillis coalesces bursts of file events into one reload.
	// Default: 500ms.
	DebounceMillis int
}

// SourcesWatcher watches the sources config file and triggers reload
// callbacks with debouncing, so editor save sequences and atomic
// replace writes do not cause reload storms. An invalid file during
// reload is logged and skipped.
type SourcesWatcher struct {
	config   SourcesWatcherConfig
	callback ReloadCallback
	cancel   context.CancelFunc
	stopped  chan struct{}
	ready    chan struct{}
	logger   *logging.Logger
	mu       sync.Mutex

	debounceTimer *time.Timer
}

// NewSourcesWatcher creates a watcher for the given sources file.
func NewSourcesWatcher(config SourcesWatcherConfig, callback ReloadCallback) (*SourcesWatcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if config.DebounceMillis == 0 {
		config.DebounceMillis = 500
	}

	return &SourcesWatcher{
		config:   config,
		callback: callback,
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
		logger:   logging.GetLogger("config.watcher"),
	}, nil
}

// Start loads the initial config, invokes the callback with it, and
// begins watching for changes. Returns an error if the initial load or
// callback fails.
func (w *SourcesWatcher) Start(ctx context.Context) error {
	initialConfig, err := LoadSourcesFile(w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial config: %w", err)
	}

	if err := w.callback(initialConfig); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	w.logger.Info("Loaded initial sources config from %s", w.config.FilePath)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	// Wait for fsnotify to be attached so changes right after Start are
	// not missed.
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}

	return nil
}

// Stop terminates the watch loop. Returns an error if the loop does not
// exit within the timeout. Stopping a watcher that never started is a
// no-op.
func (w *SourcesWatcher) Stop() error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	select {
	case <-w.stopped:
		w.logger.Debug("Watcher stopped gracefully")
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}

func (w *SourcesWatcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *SourcesWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		w.logger.Error("Failed to watch file %s: %v", w.config.FilePath, err)
		return
	}

	w.logger.Info("Watching %s for changes (debounce: %dms)", w.config.FilePath, w.config.DebounceMillis)
	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			// Atomic replace unlinks the watched inode; re-add the path.
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.config.FilePath); err != nil {
					w.logger.Warn("Failed to re-add watch for %s: %v", w.config.FilePath, err)
				}
			}

			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error: %v", err)
		}
	}
}

// scheduleReload (re)arms the debounce timer.
func (w *SourcesWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(time.Duration(w.config.DebounceMillis)*time.Millisecond, func() {
		cfg, err := LoadSourcesFile(w.config.FilePath)
		if err != nil {
			w.logger.Error("Reload skipped, sources config invalid: %v", err)
			return
		}

		if err := w.callback(cfg); err != nil {
			w.logger.Error("Reload callback failed: %v", err)
			return
		}

		w.logger.Info("Sources config reloaded from %s", w.config.FilePath)
	})
}
