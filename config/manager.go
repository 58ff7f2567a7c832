package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Manager layers an optional JSON config file over the environment-derived
// configuration and hot-reloads it when the file changes.
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	watchers []ConfigWatcher
	fw       *fsnotify.Watcher
	stopChan chan struct{}
}

// ConfigWatcher is called when configuration changes
type ConfigWatcher func(oldConfig, newConfig *Config)

// NewManager creates a manager seeded from the environment.
func NewManager() *Manager {
	return &Manager{
		config:   Load(),
		stopChan: make(chan struct{}),
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnChange registers a watcher notified after every reload.
func (m *Manager) OnChange(w ConfigWatcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, w)
}

// LoadFromFile overlays the JSON file at path onto the current config.
func (m *Manager) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	updated := *m.config
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	old := m.config
	m.config = &updated
	m.path = path
	for _, w := range m.watchers {
		w(old, &updated)
	}
	return nil
}

// StartWatching reloads the config file whenever it is rewritten. Reload
// failures keep the previous configuration.
func (m *Manager) StartWatching() error {
	if m.path == "" {
		return fmt.Errorf("no config file loaded")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(m.path); err != nil {
		fw.Close()
		return err
	}
	m.fw = fw

	go func() {
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					_ = m.LoadFromFile(m.path)
				}
			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
			case <-m.stopChan:
				return
			}
		}
	}()
	return nil
}

// StopWatching shuts down the file watcher.
func (m *Manager) StopWatching() {
	close(m.stopChan)
	if m.fw != nil {
		m.fw.Close()
	}
}
