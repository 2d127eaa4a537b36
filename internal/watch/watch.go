package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ErrNotDirectory is returned when the watched path is not a directory.
var ErrNotDirectory = errors.New("watch path is not a directory")

// DefaultExtension is the mod file extension.
const DefaultExtension = ".lua"

const defaultDelay = 100 * time.Millisecond

// Op is the kind of change reported for a path.
type Op uint8

// Operations.
const (
	// OpChanged means the file was created or written.
	OpChanged Op = iota + 1

	// OpRemoved means the file was removed or renamed away.
	OpRemoved
)

func (o Op) String() string {
	switch o {
	case OpChanged:
		return "changed"
	case OpRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a debounced change to one mod file.
type Event struct {
	Path string
	Op   Op
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the quiet period before an event is delivered.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithExtension sets which files are reported.
func WithExtension(ext string) Option {
	return func(w *Watcher) {
		w.ext = ext
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger *log.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Watcher delivers debounced mod file changes for one directory.
type Watcher struct {
	dir    string
	ext    string
	delay  time.Duration
	logger *log.Logger

	fsw    *fsnotify.Watcher
	events chan Event
	errors chan error

	mu      sync.Mutex
	pending map[string]*pending
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

type pending struct {
	op    Op
	timer *time.Timer
}

// New starts watching dir.
func New(dir string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}

	w := &Watcher{
		dir:     abs,
		ext:     DefaultExtension,
		delay:   defaultDelay,
		events:  make(chan Event, 100),
		errors:  make(chan error, 100),
		pending: make(map[string]*pending),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Dir returns the absolute path being watched.
func (w *Watcher) Dir() string {
	return w.dir
}

// Events returns the debounced event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "dir", w.dir, "err", err)
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !w.matches(ev.Name) {
		return
	}

	var op Op
	switch {
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		op = OpRemoved
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		op = OpChanged
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if p, ok := w.pending[ev.Name]; ok {
		p.op = op
		p.timer.Reset(w.delay)
		return
	}
	path := ev.Name
	p := &pending{op: op}
	p.timer = time.AfterFunc(w.delay, func() { w.fire(path) })
	w.pending[path] = p
}

// fire delivers the pending event for path. A path reported as removed
// that exists again by now is reported as changed.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pending[path]
	if !ok || w.closed {
		return
	}
	delete(w.pending, path)

	op := p.op
	if op == OpRemoved {
		if _, err := os.Stat(path); err == nil {
			op = OpChanged
		}
	}

	w.logger.Debug("mod file event", "path", path, "op", op)
	select {
	case w.events <- Event{Path: path, Op: op}:
	default:
		w.logger.Warn("event channel full, dropping event", "path", path)
	}
}

// Flush delivers every pending event immediately.
func (w *Watcher) Flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path, p := range w.pending {
		p.timer.Stop()
		paths = append(paths, path)
	}
	w.mu.Unlock()

	sort.Strings(paths)
	for _, path := range paths {
		w.fire(path)
	}
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), w.ext)
}

// Close stops the watcher and closes its channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsw.Close()
}

// Scan returns the absolute paths of the mod files in dir with extension
// ext, sorted by name. Paths match those a Watcher on dir reports. Hidden
// files and subdirectories are skipped.
func Scan(dir, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}
