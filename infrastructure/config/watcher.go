package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DynamicConfig represents runtime-changeable configuration, kept in a
// YAML file next to the deployment so limits can be tuned without a
// restart.
type DynamicConfig struct {
	Limits   Limits   `yaml:"limits"`
	Features Features `yaml:"features"`
}

// Limits holds application limits
type Limits struct {
	MaxMarkupsPerSave int `yaml:"maxMarkupsPerSave"`
	MaxSymbolItems    int `yaml:"maxSymbolItems"`
	MinDownloadBytes  int `yaml:"minDownloadBytes"`
}

// Features holds runtime feature toggles
type Features struct {
	DetectorEnabled bool `yaml:"detectorEnabled"`
}

// DefaultDynamicConfig returns the limits used when no file exists.
func DefaultDynamicConfig() *DynamicConfig {
	return &DynamicConfig{
		Limits: Limits{
			MaxMarkupsPerSave: 500,
			MaxSymbolItems:    100,
			MinDownloadBytes:  1024,
		},
		Features: Features{
			DetectorEnabled: true,
		},
	}
}

// Watcher watches the dynamic configuration file for changes
type Watcher struct {
	path        string
	watcher     *fsnotify.Watcher
	current     *DynamicConfig
	mu          sync.RWMutex
	onChange    []func(*DynamicConfig)
	logger      *zap.Logger
	stopCh      chan struct{}
	lastModTime time.Time
}

// NewWatcher creates a watcher over the given YAML file. The file is
// read once up front; a missing or corrupt file degrades to defaults.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:    path,
		watcher: fw,
		current: DefaultDynamicConfig(),
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
	w.reload()

	// Watch the directory: editors replace files on save, which drops
	// a watch on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// Current returns the latest dynamic configuration.
func (w *Watcher) Current() *DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.current
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(fn func(*DynamicConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.onChange = append(w.onChange, fn)
}

// Stop ends the watch loop.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	info, err := os.Stat(w.path)
	if err != nil {
		w.logger.Debug("Dynamic config file not readable, keeping current values",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}
	w.mu.Lock()
	if !info.ModTime().After(w.lastModTime) {
		w.mu.Unlock()
		return
	}
	w.lastModTime = info.ModTime()
	w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("Failed to read dynamic config", zap.Error(err))
		return
	}

	cfg := DefaultDynamicConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		w.logger.Warn("Failed to parse dynamic config, keeping current values",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := append([]func(*DynamicConfig){}, w.onChange...)
	w.mu.Unlock()

	w.logger.Info("Dynamic config reloaded", zap.String("path", w.path))
	for _, fn := range callbacks {
		fn(cfg)
	}
}
