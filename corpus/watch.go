package corpus

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last change to the
// corpus file before reloading it.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a corpus file into a Holder whenever the file changes.
type Watcher struct {
	path     string
	holder   *Holder
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onReload func(old, current *Index)
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHook registers fn to run after each successful swap.
func WithReloadHook(fn func(old, current *Index)) WatchOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher starts watching the directory containing path. The parent
// directory is watched rather than the file, so atomic replace-by-rename
// from editors and deploy tools is seen as a create.
func NewWatcher(path string, holder *Holder, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	w := &Watcher{
		path:     abs,
		holder:   holder,
		fsw:      fsw,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run processes file events until ctx is done, then closes the watcher. A
// reload that fails keeps the previous index published.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

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

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "corpus watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	idx, err := LoadFileContext(ctx, w.path)
	if err != nil {
		slog.WarnContext(ctx, "corpus reload failed; keeping current index",
			"path", w.path,
			"revision", w.holder.Index().Revision(),
			"error", err,
		)
		return
	}

	old := w.holder.Swap(idx)
	slog.InfoContext(ctx, "corpus reloaded",
		"path", w.path,
		"size", idx.Len(),
		"revision", idx.Revision(),
		"previous_revision", old.Revision(),
	)
	if w.onReload != nil {
		w.onReload(old, idx)
	}
}
