package status

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the minimum interval between callbacks for one file.
const DefaultDebounce = 100 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce time.Duration
	Logger   *log.Logger
}

// Watch calls onChange with the path of any policy file in paths that is
// created, written, removed, renamed or has its mode changed. The parent
// directories are watched so files that do not exist yet are picked up.
// Watch blocks until ctx is done.
func Watch(ctx context.Context, paths []string, opts WatchOptions, onChange func(path string)) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	targets := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	watched := 0
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			logger.Debug("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no policy directory could be watched")
	}

	lastChange := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			now := time.Now()
			if now.Sub(lastChange[event.Name]) < opts.Debounce {
				continue
			}
			lastChange[event.Name] = now
			logger.Debug("policy changed", "path", event.Name, "op", event.Op.String())
			onChange(event.Name)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
