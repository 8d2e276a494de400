package piper

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the watcher waits after a file event before
// rescanning, so a model and its config copied together cause one rescan.
const settle = 200 * time.Millisecond

// Watch rescans the voices directory whenever model files change until ctx
// is done. It returns an error only if the directory cannot be watched.
func (e *Engine) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}

	dir := e.config.VoicesDir
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	e.logger.Info("fsnotify watching dir", "dir", dir)

	go e.watch(ctx, watcher)
	return nil
}

func (e *Engine) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() {
		if err := watcher.Close(); err != nil {
			e.logger.Error("fsnotify fail to close watcher", "dir", e.config.VoicesDir, "error", err)
		}
	}()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isVoiceFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			e.logger.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			if pending != nil {
				continue
			}

			delay := settle
			if d := e.rescans.Reserve().Delay(); d > delay {
				delay = d
			}
			timer = time.NewTimer(delay)
			pending = timer.C

		case <-pending:
			pending = nil
			if err := e.Rescan(); err != nil {
				e.logger.Warn("piper rescan failed", "dir", e.config.VoicesDir, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.logger.Debug("fsnotify error", "dir", e.config.VoicesDir, "error", err)
		}
	}
}
