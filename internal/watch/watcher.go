// Package watch re-runs a bootstrap whenever one of its scripts changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagespec/internal/bootstrap"
	"github.com/GriffinCanCode/pagespec/internal/sandbox"
)

// Config holds watcher configuration
type Config struct {
	// Debounce delay to coalesce editor save bursts
	Debounce time.Duration
	// Called after a successful reload; the environment is already installed
	OnReload func(env *sandbox.Environment)
	// Called when a reload fails; the namespace keeps its previous contents
	OnError func(err error)
	Logger  *zap.Logger
}

// DefaultConfig returns default watcher configuration
func DefaultConfig() Config {
	return Config{
		Debounce: 200 * time.Millisecond,
		OnReload: func(*sandbox.Environment) {},
		OnError:  func(error) {},
		Logger:   zap.NewNop(),
	}
}

// Watcher reruns a Bootstrapper on script changes
type Watcher struct {
	boot    *bootstrap.Bootstrapper
	config  Config
	watcher *fsnotify.Watcher
	files   map[string]bool

	current   *sandbox.Environment
	currentMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
	reloadMu      sync.Mutex
}

// New watches the directories of every script in boot's options. It does
// not run the bootstrap; call Reload for the initial load.
func New(boot *bootstrap.Bootstrapper, config Config) (*Watcher, error) {
	defaults := DefaultConfig()
	if config.Debounce <= 0 {
		config.Debounce = defaults.Debounce
	}
	if config.OnReload == nil {
		config.OnReload = defaults.OnReload
	}
	if config.OnError == nil {
		config.OnError = defaults.OnError
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	files := map[string]bool{}
	dirs := map[string]bool{}
	for _, script := range boot.Options().Scripts {
		abs, err := filepath.Abs(script)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", script, err)
		}
		files[filepath.Clean(abs)] = true
		dirs[filepath.Dir(abs)] = true
	}

	// Watch directories rather than files so editors that save by
	// rename or delete-and-create are still seen.
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		boot:    boot,
		config:  config,
		watcher: fsw,
		files:   files,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.watch()
	return w, nil
}

// Current returns the most recently installed environment, or nil
func (w *Watcher) Current() *sandbox.Environment {
	w.currentMu.Lock()
	defer w.currentMu.Unlock()
	return w.current
}

// Reload runs the bootstrap now. On success the previous environment is
// closed; on failure it stays installed.
func (w *Watcher) Reload(ctx context.Context) (*sandbox.Environment, error) {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	env, err := w.boot.Run(ctx)
	if err != nil {
		return nil, err
	}

	w.currentMu.Lock()
	previous := w.current
	w.current = env
	w.currentMu.Unlock()

	if previous != nil {
		previous.Close()
	}
	return env, nil
}

// Close stops watching and waits for the event loop to exit
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	<-w.done

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceMu.Unlock()
	return err
}

// watch monitors for file changes
func (w *Watcher) watch() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.config.Logger.Debug("Script changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.config.OnError(fmt.Errorf("watcher error: %w", err))
		}
	}
}

// schedule debounces reloads
func (w *Watcher) schedule() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.Debounce, w.reload)
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}

	env, err := w.Reload(w.ctx)
	if err != nil {
		w.config.Logger.Warn("Reload failed", zap.Error(err))
		w.config.OnError(err)
		return
	}
	w.config.OnReload(env)
}
