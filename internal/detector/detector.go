package detector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"

	"github.com/vk/liveui/internal/ctxlog"
)

// WatchSetupError is a fatal failure to start watching a root.
type WatchSetupError struct {
	Root string
	Err  error
}

func (e *WatchSetupError) Error() string {
	if e.Root == "" {
		return fmt.Sprintf("watch setup: %v", e.Err)
	}
	return fmt.Sprintf("watch setup for %s: %v", e.Root, e.Err)
}

func (e *WatchSetupError) Unwrap() error {
	return e.Err
}

// Detector turns filesystem events below a set of roots into batches.
type Detector struct {
	opts    Options
	roots   []string
	filter  *Filter
	watcher *fsnotify.Watcher
	batches chan Batch
	now     func() time.Time

	dirsMu sync.Mutex
	dirs   map[string]struct{}

	events   atomic.Int64
	filtered atomic.Int64
	flushed  atomic.Int64
	errors   atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Events      int64 `json:"events"`
	Filtered    int64 `json:"filtered"`
	Batches     int64 `json:"batches"`
	Errors      int64 `json:"errors"`
	WatchedDirs int   `json:"watched_dirs"`
}

// New validates the roots and registers OS watches on them and on every
// non-ignored directory below them. Any failure is a *WatchSetupError.
func New(opts Options) (*Detector, error) {
	d, err := newDetector(opts)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &WatchSetupError{Err: err}
	}
	d.watcher = w
	for _, root := range d.roots {
		if _, err := d.addTree(root, false); err != nil {
			w.Close()
			return nil, &WatchSetupError{Root: root, Err: err}
		}
	}
	return d, nil
}

func newDetector(opts Options) (*Detector, error) {
	opts.defaults()
	if len(opts.Roots) == 0 {
		return nil, &WatchSetupError{Err: errors.New("no directories to watch")}
	}
	roots := make([]string, 0, len(opts.Roots))
	for _, r := range opts.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, &WatchSetupError{Root: r, Err: err}
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, &WatchSetupError{Root: r, Err: err}
		}
		if !info.IsDir() {
			return nil, &WatchSetupError{Root: r, Err: errors.New("not a directory")}
		}
		roots = append(roots, abs)
	}
	return &Detector{
		opts:    opts,
		roots:   roots,
		filter:  NewFilter(roots, opts.Extensions, opts.Ignore),
		batches: make(chan Batch),
		now:     time.Now,
		dirs:    make(map[string]struct{}),
	}, nil
}

// Roots returns the absolute watched roots.
func (d *Detector) Roots() []string {
	return append([]string(nil), d.roots...)
}

// Filter returns the path filter in use.
func (d *Detector) Filter() *Filter {
	return d.filter
}

// Batches delivers settled batches. It is closed when Run returns.
func (d *Detector) Batches() <-chan Batch {
	return d.batches
}

// Stats returns the current counters.
func (d *Detector) Stats() Stats {
	d.dirsMu.Lock()
	dirs := len(d.dirs)
	d.dirsMu.Unlock()
	return Stats{
		Events:      d.events.Load(),
		Filtered:    d.filtered.Load(),
		Batches:     d.flushed.Load(),
		Errors:      d.errors.Load(),
		WatchedDirs: dirs,
	}
}

// Close releases the OS watches. Run closes them itself on return; Close
// is for a detector that is never run.
func (d *Detector) Close() error {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Close()
}

// Run processes events until ctx is cancelled. It must be called once.
func (d *Detector) Run(ctx context.Context) error {
	defer d.watcher.Close()
	return d.run(ctx, d.watcher.Events, d.watcher.Errors)
}

func (d *Detector) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	logger := ctxlog.FromContext(ctx)
	defer close(d.batches)

	pending := newAccumulator()
	outbox := newAccumulator()
	var timer *time.Timer
	var timerC <-chan time.Time
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}
	settle := func() {
		stopTimer()
		if pending.len() == 0 {
			return
		}
		for _, c := range pending.take(d.now()).Changes {
			outbox.add(c)
		}
	}

	logger.Info("detector: watching.", "roots", d.roots, "debounce", d.opts.Debounce, "extensions", d.opts.Extensions)

	for {
		// Sending is only enabled while a settled batch waits for the
		// consumer.
		var out chan<- Batch
		var next Batch
		if outbox.len() > 0 {
			out = d.batches
			next = outbox.peek(d.now())
		}

		select {
		case <-ctx.Done():
			stopTimer()
			logger.Info("detector: stopped.")
			return nil

		case ev, ok := <-events:
			if !ok {
				settle()
				return d.drain(ctx, outbox)
			}
			if !d.handle(ctx, ev, pending) {
				continue
			}
			if pending.len() >= d.opts.MaxBatch {
				settle()
				continue
			}
			stopTimer()
			timer = time.NewTimer(d.opts.Debounce)
			timerC = timer.C

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			d.errors.Add(1)
			logger.Warn("detector: watch error.", "error", err)
			if d.opts.OnError != nil {
				d.opts.OnError(err)
			}

		case <-timerC:
			timer, timerC = nil, nil
			settle()

		case out <- next:
			outbox = newAccumulator()
			d.flushed.Add(1)
			logger.Debug("detector: batch settled.", "paths", len(next.Changes))
		}
	}
}

// drain delivers what is left once the event source is gone.
func (d *Detector) drain(ctx context.Context, outbox *accumulator) error {
	if outbox.len() == 0 {
		return nil
	}
	select {
	case d.batches <- outbox.peek(d.now()):
		d.flushed.Add(1)
	case <-ctx.Done():
	}
	return nil
}

// handle records ev in pending and reports whether anything was accepted.
func (d *Detector) handle(ctx context.Context, ev fsnotify.Event, pending *accumulator) bool {
	op := opFromEvent(ev)
	if op == 0 {
		return false
	}
	d.events.Add(1)
	path := filepath.Clean(ev.Name)

	if op == OpCreate {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if d.filter.Ignored(path) {
				d.filtered.Add(1)
				return false
			}
			files, err := d.addTree(path, true)
			if err != nil {
				d.reportTransient(ctx, fmt.Errorf("watch new directory %s: %w", path, err))
			}
			for _, f := range files {
				pending.add(Change{Path: f, Op: OpCreate})
			}
			return len(files) > 0
		}
	}

	if op == OpRemove && d.forgetDir(path) {
		// Removing a directory removes every source below it.
		pending.add(Change{Path: path, Op: OpRemove})
		return true
	}

	if !d.filter.Match(path) {
		d.filtered.Add(1)
		return false
	}
	pending.add(Change{Path: path, Op: op})
	return true
}

func (d *Detector) reportTransient(ctx context.Context, err error) {
	d.errors.Add(1)
	ctxlog.FromContext(ctx).Warn("detector: transient failure.", "error", err)
	if d.opts.OnError != nil {
		d.opts.OnError(err)
	}
}

// addTree watches dir and every non-ignored directory below it. With
// collect set it also returns the matching files found, sorted.
func (d *Detector) addTree(dir string, collect bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			if collect && d.filter.Match(path) {
				files = append(files, path)
			}
			return nil
		}
		if path != dir && d.filter.Ignored(path) {
			return filepath.SkipDir
		}
		if d.watcher != nil {
			if err := d.watcher.Add(path); err != nil {
				return err
			}
		}
		d.dirsMu.Lock()
		d.dirs[path] = struct{}{}
		d.dirsMu.Unlock()
		return nil
	})
	sort.Strings(files)
	return files, err
}

// forgetDir drops bookkeeping for a removed directory tree and reports
// whether path was a watched directory.
func (d *Detector) forgetDir(path string) bool {
	d.dirsMu.Lock()
	defer d.dirsMu.Unlock()
	if _, ok := d.dirs[path]; !ok {
		return false
	}
	prefix := path + string(filepath.Separator)
	for dir := range d.dirs {
		if dir == path || len(dir) > len(prefix) && dir[:len(prefix)] == prefix {
			delete(d.dirs, dir)
		}
	}
	return true
}

// Discover lists every matching source file below the roots, sorted. It
// reads through svc so that the initial load and the compiler see the same
// storage view.
func (d *Detector) Discover(ctx context.Context, svc afs.Service) ([]string, error) {
	var files []string
	for _, root := range d.roots {
		var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
			path := filepath.Join(root, filepath.FromSlash(parent), info.Name())
			if info.IsDir() {
				return !d.filter.Ignored(path), nil
			}
			if d.filter.Match(path) {
				files = append(files, path)
			}
			return true, nil
		}
		if err := svc.Walk(ctx, root, visitor); err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Scan lists matching source files below opts.Roots without watching them.
func Scan(ctx context.Context, svc afs.Service, opts Options) ([]string, error) {
	d, err := newDetector(opts)
	if err != nil {
		return nil, err
	}
	return d.Discover(ctx, svc)
}
