package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/priyamvad/credflow/internal/features"
)

// Handle is the process-wide, read-only scoring singleton shared by all
// workers. The artifact loads lazily; absence is not fatal — Score reports
// ErrUnavailable until a valid artifact appears on disk, and hot-reloads
// never swap in an invalid one.
type Handle struct {
	path     string
	artifact atomic.Pointer[Artifact]

	mu       sync.RWMutex
	onSwap   []func(*Artifact)
	loadOnce sync.Once
}

// NewHandle creates a Handle for the artifact at path without touching disk.
func NewHandle(path string) *Handle {
	return &Handle{path: path}
}

// Load performs the initial lazy load. Safe to call more than once; only the
// first call reads the file. A load failure leaves the handle in degraded
// mode and is returned for logging.
func (h *Handle) Load() error {
	var err error
	h.loadOnce.Do(func() {
		var a *Artifact
		a, err = LoadArtifact(h.path)
		if err != nil {
			return
		}
		h.artifact.Store(a)
	})
	return err
}

// Reload forces a re-read of the artifact file and swaps it in if valid.
func (h *Handle) Reload() (*Artifact, error) {
	a, err := LoadArtifact(h.path)
	if err != nil {
		return nil, err
	}
	h.swap(a)
	return a, nil
}

// Artifact returns the currently loaded artifact, or nil in degraded mode.
func (h *Handle) Artifact() *Artifact {
	return h.artifact.Load()
}

// Available reports whether a valid artifact is loaded.
func (h *Handle) Available() bool { return h.artifact.Load() != nil }

// OnSwap registers a callback invoked whenever a new artifact goes live.
func (h *Handle) OnSwap(fn func(*Artifact)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSwap = append(h.onSwap, fn)
}

func (h *Handle) swap(a *Artifact) {
	h.artifact.Store(a)
	h.mu.RLock()
	callbacks := make([]func(*Artifact), len(h.onSwap))
	copy(callbacks, h.onSwap)
	h.mu.RUnlock()
	for _, fn := range callbacks {
		fn(a)
	}
}

// Watch starts a background goroutine that hot-reloads the artifact when the
// file changes. It watches the artifact's parent directory, so a handle in
// degraded mode recovers on its own as soon as a valid file appears. A write
// that fails to parse keeps the previous artifact live. Call the returned
// stop function to clean up.
func (h *Handle) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("artifact watcher: %w", err)
	}
	dir := filepath.Dir(h.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("artifact watcher add %s: %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(h.path) {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					a, err := LoadArtifact(h.path)
					if err != nil {
						slog.Warn("artifact reload skipped: invalid", "path", h.path, "err", err)
						continue
					}
					h.swap(a)
					slog.Info("scoring artifact hot-reloaded", "version", a.Version, "features", len(a.Features))
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

// Score implements Scorer against the currently loaded artifact. It honors
// context cancellation so callers can bound each call with a deadline.
func (h *Handle) Score(ctx context.Context, v *features.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	a := h.artifact.Load()
	if a == nil {
		return 0, ErrUnavailable
	}
	return a.Score(v)
}
