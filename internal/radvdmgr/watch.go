package radvdmgr

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/veesix-networks/radvsup/pkg/config"
)

const DefaultReloadDelay = 500 * time.Millisecond

// WatchConfig reloads path and re-applies it whenever the file changes.
// The parent directory is watched so editors and atomic renames that
// replace the file are picked up. Bursts of events are coalesced into a
// single reload after delay. The manager must be started; the watch ends
// when it stops.
func (m *Manager) WatchConfig(path string, delay time.Duration) error {
	if delay <= 0 {
		delay = DefaultReloadDelay
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	err = m.Go(func(ctx context.Context) {
		defer watcher.Close()

		timer := time.NewTimer(delay)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				timer.Reset(delay)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.logger.Warn("Config watcher error", "error", err)
			case <-timer.C:
				m.reload(abs)
			}
		}
	})
	if err != nil {
		watcher.Close()
		return fmt.Errorf("watch config: %w", err)
	}

	m.logger.Info("Watching config for changes", "path", abs)
	return nil
}

func (m *Manager) reload(path string) {
	cfg, err := config.Load(path)
	if err != nil {
		m.logger.Error("Config reload failed, keeping current state", "path", path, "error", err)
		return
	}
	m.logger.Info("Config changed, applying", "path", path)
	if err := m.Apply(cfg); err != nil {
		m.logger.Warn("Config apply incomplete", "error", err)
	}
}
