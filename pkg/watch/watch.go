// Package watch follows a trajectory file on disk, re-reading and
// re-classifying it when the file changes. Used by the --follow view mode
// to live-tail a running agent's trajectory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/spoolworks/reel/pkg/upload"
)

// debounceWindow coalesces bursts of write events into one re-read. Agents
// typically append in rapid flushes.
const debounceWindow = 150 * time.Millisecond

// Follower watches a single trajectory file.
type Follower struct {
	path   string
	logger *zap.Logger
}

func NewFollower(path string, logger *zap.Logger) *Follower {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Follower{path: path, logger: logger}
}

// Follow watches the file until the context is cancelled, invoking onUpdate
// with freshly classified content after each write. The initial content is
// delivered immediately before watching begins. Re-read failures (e.g. a
// half-written file) are logged and skipped; the previous content stands.
func (f *Follower) Follow(ctx context.Context, onUpdate func(upload.Content)) error {
	content, err := upload.ReadPath(f.path)
	if err != nil {
		return err
	}
	onUpdate(content)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors and agents often replace
	// the file, which drops a direct watch.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(f.path), err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil

			content, err := upload.ReadPath(f.path)
			if err != nil {
				f.logger.Warn("re-read failed, keeping previous content",
					zap.String("path", f.path),
					zap.Error(err),
				)
				continue
			}
			f.logger.Debug("file changed, content refreshed", zap.String("path", f.path))
			onUpdate(content)

		case err := <-watcher.Errors:
			return fmt.Errorf("file watcher error: %w", err)
		}
	}
}
