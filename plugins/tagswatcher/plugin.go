// Package tagswatcher reloads the tag definition file while wiresplit runs.
// When the file changes, its contents replace the registry used to name
// message types, so dump output picks up new names without a restart.
package tagswatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/wiresplit/pkg/tags"
	"github.com/bft-labs/wiresplit/pkg/wiresplit"
)

// Plugin watches the tags file and reloads it on change.
type Plugin struct {
	mu sync.Mutex

	debounceDelay time.Duration

	path     string
	registry *tags.Registry
	logger   wiresplit.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	reloads  int
}

// Config holds configuration options for the tags watcher plugin.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before
	// reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new tags watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{debounceDelay: cfg.DebounceDelay}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "tagswatcher"
}

// Initialize starts watching cfg.TagsFile. Without a tags file the plugin
// does nothing.
func (p *Plugin) Initialize(ctx context.Context, cfg wiresplit.PluginConfig) error {
	p.mu.Lock()
	p.path = cfg.TagsFile
	p.registry = cfg.Tags
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.path == "" || p.registry == nil {
		p.logger.Debug("tags watcher disabled: no tags file")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	p.logger.Info("tags watcher started", wiresplit.LogString("path", p.path))
	return nil
}

// Shutdown stops the watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

// Reloads returns how many times the file has been reloaded successfully.
func (p *Plugin) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Clean(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("tags watcher error", wiresplit.LogErr(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

// reload keeps the previous registry contents when the file is invalid.
func (p *Plugin) reload() {
	next, err := tags.LoadFile(p.path)
	if err != nil {
		p.logger.Warn("tags reload failed, keeping previous definitions", wiresplit.LogErr(err))
		return
	}
	p.registry.Replace(next)

	p.mu.Lock()
	p.reloads++
	p.mu.Unlock()
	p.logger.Info("tags reloaded", wiresplit.LogInt("tags", next.Len()))
}

// Ensure Plugin implements wiresplit.Plugin.
var _ wiresplit.Plugin = (*Plugin)(nil)
