package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mantonx/streamflow/internal/logger"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the configuration whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file on save
// are still picked up.
func (cm *ConfigManager) Watch(ctx context.Context) error {
	path := cm.Path()
	if path == "" || !fileExists(path) {
		return fmt.Errorf("no configuration file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	log := logger.Named("config")
	log.Info("watching configuration file", "path", path)

	go func() {
		defer watcher.Close()

		var pending *time.Timer
		target := filepath.Clean(path)

		for {
			select {
			case <-ctx.Done():
				if pending != nil {
					pending.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(reloadDebounce, func() {
					if err := cm.Reload(); err != nil {
						log.Error("configuration reload failed, keeping previous values", "error", err)
						return
					}
					log.Info("configuration reloaded", "path", path)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watcher error", "error", err)
			}
		}
	}()

	return nil
}

// Watch starts hot reload on the global configuration manager.
func Watch(ctx context.Context) error {
	return GetConfigManager().Watch(ctx)
}
