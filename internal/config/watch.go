package config

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/Dicklesworthstone/homedeck/internal/watcher"
)

// Watch starts watching the config file and calls onChange with the
// reloaded config when it changes. Returns a stop function.
func Watch(path string, onChange func(*Config)) (func(), error) {
	if path == "" {
		path = DefaultPath()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolving path: %w", err)
	}

	w, err := watcher.New(func(events []watcher.Event) {
		for _, e := range events {
			if filepath.Clean(e.Path) != filepath.Clean(absPath) {
				continue
			}
			cfg, err := Load(absPath)
			if err != nil {
				log.Printf("config: reload failed: %v", err)
				return
			}
			if onChange != nil {
				onChange(cfg)
			}
			return
		}
	}, watcher.WithDebounceDuration(500*time.Millisecond))
	if err != nil {
		return nil, fmt.Errorf("config: creating watcher: %w", err)
	}

	// Watch the directory: editors replace the file on save, which would
	// drop a direct file watch.
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watching %s: %w", absPath, err)
	}

	return func() { w.Close() }, nil
}
