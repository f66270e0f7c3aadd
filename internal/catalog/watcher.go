package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const defaultDebounce = 500 * time.Millisecond

// Watch calls onChange after the descriptor at path is written, created or
// renamed into place. Bursts of events closer than debounce produce a single
// call. The parent directory is watched so editors that replace the file
// atomically are handled. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(), log logrus.FieldLogger) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}
	log.WithField("descriptor", target).Info("Descriptor watcher started")

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			log.WithField("descriptor", target).Info("Descriptor changed")
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("Descriptor watcher error")
		}
	}
}
