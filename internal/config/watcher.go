package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"chatwidget/internal/logger"
)

// ConfigWatcher watches the configuration file and publishes reloaded
// snapshots. Sessions that already exist keep the snapshot they started with.
type ConfigWatcher struct {
	configPath string
	watcher    *fsnotify.Watcher
	onChange   func(*Config)
	stopCh     chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
	debounce   *time.Timer
	delay      time.Duration
}

// NewConfigWatcher creates a new configuration watcher
func NewConfigWatcher(configPath string, onChange func(*Config)) (*ConfigWatcher, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory; editors often replace the file on save
	configDir := filepath.Dir(configPath)
	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", configDir, err)
	}

	cw := &ConfigWatcher{
		configPath: configPath,
		watcher:    watcher,
		onChange:   onChange,
		stopCh:     make(chan struct{}),
		delay:      500 * time.Millisecond,
	}

	go cw.watch()

	logger.Infof("Config watcher started for: %s", configPath)
	return cw, nil
}

func (cw *ConfigWatcher) watch() {
	configBase := filepath.Base(cw.configPath)

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Name != cw.configPath && filepath.Base(event.Name) != configBase {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logger.Debugf("Config file changed: %s (op: %s)", event.Name, event.Op)
				cw.debounceReload()
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("Config watcher error: %v", err)

		case <-cw.stopCh:
			return
		}
	}
}

func (cw *ConfigWatcher) debounceReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounce != nil {
		cw.debounce.Stop()
	}
	cw.debounce = time.AfterFunc(cw.delay, func() {
		if err := cw.TriggerReload(); err != nil {
			logger.Warnf("Keeping previous config: %v", err)
		}
	})
}

// TriggerReload reads and validates the file, then publishes it.
// An invalid file leaves the previous snapshot in place.
func (cw *ConfigWatcher) TriggerReload() error {
	cfg, err := LoadFrom(cw.configPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	logger.Infof("Configuration reloaded from %s", cw.configPath)

	if cw.onChange != nil {
		cw.onChange(cfg)
	}
	return nil
}

// Stop stops the watcher and cleans up resources
func (cw *ConfigWatcher) Stop() {
	cw.stopOnce.Do(func() {
		cw.mu.Lock()
		if cw.debounce != nil {
			cw.debounce.Stop()
		}
		cw.mu.Unlock()

		close(cw.stopCh)
		cw.watcher.Close()
		logger.Debugf("Config watcher stopped")
	})
}
