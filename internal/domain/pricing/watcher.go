// internal/domain/pricing/watcher.go
package pricing

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultReloadDebounce collapses the burst of events an editor save produces
const DefaultReloadDebounce = 100 * time.Millisecond

// Watcher reloads a price table file into a live table whenever it changes
type Watcher struct {
	path     string
	table    *Table
	debounce time.Duration
	logger   logrus.FieldLogger
}

// NewWatcher creates a watcher that keeps table in sync with the file at path
func NewWatcher(path string, table *Table, logger logrus.FieldLogger) *Watcher {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Watcher{
		path:     filepath.Clean(path),
		table:    table,
		debounce: DefaultReloadDebounce,
		logger:   logger,
	}
}

// Run watches until ctx is cancelled. The parent directory is watched so
// that files replaced by rename are picked up as well.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.logger.WithField("path", w.path).Info("Watching price table for changes")

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Price table watcher error")

		case <-timer.C:
			w.Reload()
		}
	}
}

// Reload reads the file once and swaps it into the table. A file that fails
// to parse or holds no products leaves the current prices in place.
func (w *Watcher) Reload() bool {
	fresh, err := LoadTable(w.path)
	if err != nil {
		w.logger.WithError(err).WithField("path", w.path).Error("Failed to reload price table, keeping current prices")
		return false
	}
	// a file caught mid-write reads as empty
	if fresh.Len() == 0 && w.table.Len() > 0 {
		w.logger.WithField("path", w.path).Warn("Price table file is empty, keeping current prices")
		return false
	}

	w.table.Replace(fresh)
	w.logger.WithFields(logrus.Fields{
		"path":     w.path,
		"products": fresh.Len(),
	}).Info("Price table reloaded")
	return true
}
