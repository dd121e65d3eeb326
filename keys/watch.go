package keys

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file whenever it changes on disk and blocks until ctx is
// done. The parent directory is watched so that editors which replace the file
// by rename are picked up. A reload that fails to parse keeps the previous
// contents.
func (f *File) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("keys: create watcher: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()

	abs, err := filepath.Abs(f.path)
	if err != nil {
		return fmt.Errorf("keys: resolve %s: %w", f.path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("keys: watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := f.Reload(); err != nil {
				f.log.WarnContext(ctx, "keys.reload.fail", slog.String("path", f.path), slog.String("err", err.Error()))
				continue
			}
			f.log.InfoContext(ctx, "keys.reload.ok", slog.String("path", f.path))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.log.WarnContext(ctx, "keys.watch.err", slog.String("err", err.Error()))
		}
	}
}
