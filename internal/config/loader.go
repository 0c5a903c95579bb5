package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads the YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file
// changes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					cfg, err := l.load()
					if err != nil {
						// Log and continue with old config.
						continue
					}
					l.mu.Lock()
					l.current = cfg
					callbacks := make([]func(*Config), len(l.onChange))
					copy(callbacks, l.onChange)
					l.mu.Unlock()
					for _, fn := range callbacks {
						fn(cfg)
					}
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default builds a Config without a file, used by tests and embedded setups.
func Default() *Config {
	cfg := &Config{Version: "v1"}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.UserWorkers == 0 {
		cfg.Engine.UserWorkers = 16
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 4096
	}
	if cfg.Engine.JobHistory == 0 {
		cfg.Engine.JobHistory = 256
	}
	if cfg.Engine.ScoreTimeoutMs == 0 {
		cfg.Engine.ScoreTimeoutMs = 1000
	}
	if cfg.Engine.BatchTimeoutMs == 0 {
		cfg.Engine.BatchTimeoutMs = 60000
	}
	if cfg.Waterfall.FraudThreshold == 0 {
		cfg.Waterfall.FraudThreshold = 0.5
	}
	if cfg.Waterfall.RejectThreshold == 0 {
		cfg.Waterfall.RejectThreshold = 0.8
	}
	if cfg.Waterfall.ApproveThreshold == 0 {
		cfg.Waterfall.ApproveThreshold = 0.1
	}
	if cfg.Offer.APRFloor == 0 {
		cfg.Offer.APRFloor = 8.0
	}
	if cfg.Offer.APRCeiling == 0 {
		cfg.Offer.APRCeiling = 36.0
	}
	if cfg.Offer.PDSpread == 0 {
		cfg.Offer.PDSpread = 20.0
	}
	if cfg.Offer.Affordability == 0 {
		cfg.Offer.Affordability = 0.3
	}
	if cfg.Offer.TermMonths == 0 {
		cfg.Offer.TermMonths = 12
	}
	if cfg.Offer.RoundTo == 0 {
		cfg.Offer.RoundTo = 100
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = "artifacts/model.yaml"
	}
}
