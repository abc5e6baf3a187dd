package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/vito/lineup/pkg/lineup"
)

// defaultDebounce lets editors finish writing before a file is reformatted.
const defaultDebounce = 300 * time.Millisecond

// watcher reformats source files in place whenever they change.
type watcher struct {
	fsw      *fsnotify.Watcher
	cfg      *lineup.Config
	out      io.Writer
	debounce time.Duration

	// explicit holds files named on the command line, which are formatted
	// whatever their extension.
	explicit map[string]bool

	mu      sync.Mutex
	pending map[string]time.Time
}

func newWatcher(cfg *lineup.Config, out io.Writer, debounce time.Duration) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &watcher{
		fsw:      fsw,
		cfg:      cfg,
		out:      out,
		debounce: debounce,
		explicit: make(map[string]bool),
		pending:  make(map[string]time.Time),
	}, nil
}

// add watches the directories beneath each path. A file is watched through
// its parent directory.
func (w *watcher) add(paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			w.explicit[filepath.Clean(path)] = true
			if err := w.fsw.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			continue
		}
		if err := w.addTree(path); err != nil {
			return err
		}
	}
	return nil
}

func (w *watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		slog.Debug("watching", "dir", p)
		return nil
	})
}

// run handles events until ctx is done.
func (w *watcher) run(ctx context.Context) error {
	tick := time.NewTicker(max(w.debounce/4, 10*time.Millisecond))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "error", err)
		case <-tick.C:
			w.flush(ctx)
		}
	}
}

func (w *watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	path := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if info.Name()[0] != '.' {
				if err := w.addTree(path); err != nil {
					slog.Warn("failed to watch new directory", "dir", path, "error", err)
				}
			}
			return
		}
	}

	if filepath.Ext(path) != sourceExt && !w.explicit[path] {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// flush formats the files whose last change is older than the debounce
// window.
func (w *watcher) flush(ctx context.Context) {
	now := time.Now()
	var settled []string

	w.mu.Lock()
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		res, err := formatFile(ctx, path, w.cfg, true)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			slog.Warn("failed to format", "path", path, "error", err)
			continue
		}
		for _, u := range res.unformatted {
			slog.Warn("could not be reformatted", "path", path, "line", u.Line, "reason", u.Reason)
		}
		if res.changed {
			if _, err := lipgloss.Fprintln(w.out, changedStyle.Render(path)); err != nil {
				slog.Error("failed to report", "error", err)
			}
		}
	}
}

func (w *watcher) Close() error {
	return w.fsw.Close()
}

// runWatch formats paths in place, then keeps reformatting them as they
// change until ctx is done.
func runWatch(ctx context.Context, out io.Writer, cfg *lineup.Config, paths []string, debounce time.Duration) error {
	if err := runFmt(ctx, out, cfg, fmtOptions{write: true, list: true}, paths); err != nil {
		return err
	}

	w, err := newWatcher(cfg, out, debounce)
	if err != nil {
		return err
	}
	defer w.Close() //nolint:errcheck

	if err := w.add(paths); err != nil {
		return err
	}
	slog.Info("watching for changes", "paths", paths)
	return w.run(ctx)
}
