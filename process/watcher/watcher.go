// Package watcher feeds newly written sheet images to a handler, one at a
// time, as they appear in a folder.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"gradescan/pkg/inventory"
)

// DefaultDebounce is how long a file must stay unchanged before it is handled.
const DefaultDebounce = 300 * time.Millisecond

// Handler processes one file name relative to the watched folder.
type Handler func(ctx context.Context, name string) error

// Watcher reports stable .png files created or rewritten in Dir.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	Handle   Handler
	Log      *zap.SugaredLogger
}

// Accept reports whether name is a sheet image worth handling. Previews and
// crops written by gradescan itself are ignored.
func Accept(name string) bool {
	if strings.Contains(name, ".preview.") || strings.HasPrefix(name, ".") {
		return false
	}
	return inventory.IsSupported(name)
}

// Run blocks until ctx is cancelled. Handler errors are logged and the
// watcher keeps going.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := inventory.CheckDir(w.Dir); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.Dir); err != nil {
		return err
	}
	log.Infow("watching folder", "dir", w.Dir, "debounce", debounce)

	fileCh := make(chan string, 256)
	go w.collect(ctx, fw, debounce, fileCh, log)

	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-fileCh:
			if !ok {
				return nil
			}
			if err := w.Handle(ctx, name); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Errorw("sheet failed", "file", name, "err", err)
			}
		}
	}
}

// collect debounces fsnotify events into fileCh.
func (w *Watcher) collect(ctx context.Context, fw *fsnotify.Watcher, debounce time.Duration, fileCh chan<- string, log *zap.SugaredLogger) {
	defer close(fileCh)
	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounce / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !Accept(name) {
				continue
			}
			pending[name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) < debounce {
					continue
				}
				delete(pending, name)
				select {
				case fileCh <- name:
				case <-ctx.Done():
					return
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Warnw("watch error", "err", err)
		}
	}
}
