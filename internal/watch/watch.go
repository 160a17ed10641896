// Package watch re-runs validation when documents or schemas change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
)

// DefaultDebounce is how long to wait for more changes before re-running.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Paths are files or directories. Directories are watched recursively,
	// skipping hidden ones; for a file its directory is watched.
	Paths []string
	// Extensions of files whose changes trigger a run. Defaults to .xml and
	// .xsd.
	Extensions []string
	Debounce   time.Duration
	Sink       *diag.Sink
}

// Watcher triggers runs on file-system changes.
type Watcher struct {
	fsw  *fsnotify.Watcher
	opts Options
	sink *diag.Sink
}

// New starts watching opts.Paths.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".xml", ".xsd"}
	}
	if len(opts.Paths) == 0 {
		opts.Paths = []string{"."}
	}
	sink := opts.Sink
	if sink == nil {
		sink = diag.Nop()
	}

	w := &Watcher{fsw: fsw, opts: opts, sink: sink}
	for _, p := range opts.Paths {
		info, err := os.Stat(p)
		switch {
		case err != nil:
			sink.Warnf("Not watching %s: %v", p, err)
		case info.IsDir():
			w.addRecursive(p)
		default:
			w.add(filepath.Dir(p))
		}
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fsw.Close() }

// Run calls fn once, then again after every debounced batch of relevant
// changes. A change that arrives while fn is running cancels the context
// passed to fn and starts a new call once it returns. Run returns when ctx is
// done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context)) error {
	var (
		cancel  context.CancelFunc
		done    chan struct{}
		pending <-chan time.Time
	)
	start := func() {
		var runCtx context.Context
		runCtx, cancel = context.WithCancel(ctx)
		done = make(chan struct{})
		go func(c context.Context, d chan struct{}) {
			defer close(d)
			fn(c)
		}(runCtx, done)
	}
	stop := func() {
		cancel()
		<-done
	}

	start()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addRecursive(ev.Name)
					continue
				}
			}
			if w.relevant(ev) {
				w.sink.Debugf("Change detected %s [%s]", ev.Name, ev.Op)
				pending = time.After(w.opts.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.sink.Warnf("Watch error: %v", err)

		case <-pending:
			pending = nil
			stop()
			w.sink.Infof("Re-validating")
			start()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(ev.Name))
	for _, e := range w.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		w.add(path)
		return nil
	})
}

func (w *Watcher) add(dir string) {
	if err := w.fsw.Add(dir); err != nil {
		w.sink.Warnf("Failed to watch %s: %v", dir, err)
		return
	}
	w.sink.Debugf("Watching %s", dir)
}
