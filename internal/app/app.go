package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dshills/modkernel/internal/autoload"
	"github.com/dshills/modkernel/internal/config"
	"github.com/dshills/modkernel/internal/kernel"
	"github.com/dshills/modkernel/internal/loop"
	"github.com/dshills/modkernel/internal/storage"
	"github.com/dshills/modkernel/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// Application is the central coordinator for all modkernel components.
type Application struct {
	opts   Options
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer

	kv       storage.KV
	store    *autoload.Store
	settings autoload.Settings
	kernel   *kernel.Kernel
	loop     *loop.Loop
	host     *Host

	// files maps mod file paths to the id loaded from them. Loop goroutine only.
	files map[string]string

	mu         sync.Mutex
	watcher    *watch.Watcher
	loopCancel context.CancelFunc

	started      atomic.Bool
	done         chan struct{}
	shutdownOnce sync.Once
}

// Options configures the application.
type Options struct {
	// Config is the loaded configuration. Nil uses defaults with in-memory
	// storage.
	Config *config.Config

	// Logger overrides the logger built from Config.
	Logger *log.Logger

	// Out receives notices and console output. Defaults to stdout.
	Out io.Writer

	// In, when set, is read by Run as console commands.
	In io.Reader

	// Notifier overrides the terminal notifier.
	Notifier kernel.Notifier

	// KV overrides the storage selected by Config.
	KV storage.KV
}

// New creates an Application and initializes every component.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:  opts,
		files: make(map[string]string),
		done:  make(chan struct{}),
		out:   opts.Out,
	}
	if app.out == nil {
		app.out = os.Stdout
	}

	if err := app.bootstrap(); err != nil {
		if app.kv != nil && opts.KV == nil {
			app.kv.Close()
		}
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	app.cfg = app.opts.Config
	if app.cfg == nil {
		cfg := config.DefaultConfig()
		cfg.Storage.Driver = config.DriverMemory
		app.cfg = &cfg
	}

	// 2. Logging
	app.logger = app.opts.Logger
	if app.logger == nil {
		level, err := app.cfg.LogLevel()
		if err != nil {
			return &InitError{Component: "logger", Err: err}
		}
		app.logger = NewLogger(os.Stderr, level)
	}

	// 3. Storage
	app.kv = app.opts.KV
	if app.kv == nil {
		kv, err := OpenStorage(app.cfg)
		if err != nil {
			return &InitError{Component: "storage", Err: err}
		}
		app.kv = kv
	}

	// 4. Autoload store and settings
	app.store = autoload.NewStore(app.kv, app.logger.WithPrefix("autoload"))
	settings, err := autoload.LoadSettings(context.Background(), app.kv, app.logger.WithPrefix("autoload"))
	if err != nil {
		return &InitError{Component: "settings", Err: err}
	}
	app.settings = settings

	// 5. Kernel and host
	notifier := app.opts.Notifier
	if notifier == nil {
		notifier = NewTerminalNotifier(app.out)
	}
	app.kernel = kernel.New(
		kernel.WithLogger(app.logger.WithPrefix("kernel")),
		kernel.WithStore(app.store),
		kernel.WithNotifier(notifier),
	)
	app.host = NewHost(app.kernel)

	// 6. Event loop
	app.loop = loop.New(0)
	return nil
}

// OpenStorage opens the backend selected by cfg, creating parent
// directories for file-backed drivers.
func OpenStorage(cfg *config.Config) (storage.KV, error) {
	if cfg.Storage.Driver != config.DriverMemory && cfg.Storage.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}
	return storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
}

// Start runs the event loop and performs startup: autoloaded mods first
// (when enabled), then every mod file in the mods directory.
func (app *Application) Start(ctx context.Context) error {
	if !app.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	app.mu.Lock()
	app.loopCancel = cancel
	app.mu.Unlock()
	go app.loop.Run(loopCtx)

	return app.loop.Execute(ctx, func() error {
		app.startup(ctx)
		return nil
	})
}

func (app *Application) startup(ctx context.Context) {
	if app.settings.AutoloadOnStartup {
		n, err := app.kernel.LoadAutoloaded(ctx)
		if err != nil {
			app.logger.Warn("some autoload entries failed", "loaded", n, "err", err)
		}
	}

	files, err := watch.Scan(app.cfg.Mods.Dir, watch.DefaultExtension)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			app.logger.Warn("scanning mods directory", "dir", app.cfg.Mods.Dir, "err", err)
		}
		return
	}
	for _, path := range files {
		if _, err := app.loadFile(ctx, path); err != nil {
			app.logger.Error("loading mod file", "path", path, "err", err)
		}
	}
}

// Run starts the application and blocks until ctx is canceled or Shutdown
// is called. It watches the mods directory when configured and executes
// console commands read from Options.In.
func (app *Application) Run(ctx context.Context) error {
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Shutdown()

	var fileEvents <-chan watch.Event
	if app.cfg.Mods.Watch {
		w, err := watch.New(app.cfg.Mods.Dir, watch.WithLogger(app.logger.WithPrefix("watch")))
		switch {
		case err == nil:
			app.mu.Lock()
			app.watcher = w
			app.mu.Unlock()
			fileEvents = w.Events()
			app.logger.Info("watching mods", "dir", w.Dir())
		case errors.Is(err, os.ErrNotExist):
			app.logger.Debug("mods directory does not exist", "dir", app.cfg.Mods.Dir)
		default:
			app.logger.Warn("cannot watch mods directory", "dir", app.cfg.Mods.Dir, "err", err)
		}
	}

	var lines <-chan string
	if app.opts.In != nil {
		lines = readLines(app.opts.In)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-app.done:
			return nil

		case ev, ok := <-fileEvents:
			if !ok {
				fileEvents = nil
				continue
			}
			logErr := func(err error) {
				app.logger.Error("mod file event", "path", ev.Path, "op", ev.Op, "err", err)
			}
			if err := app.loop.Post(func() error {
				return app.handleFileEvent(ctx, ev)
			}, logErr); err != nil {
				logErr(err)
			}

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			out, err := app.Exec(ctx, line)
			if out != "" {
				fmt.Fprintln(app.out, out)
			}
			if err != nil {
				fmt.Fprintln(app.out, "error:", err)
			}
		}
	}
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// Do runs fn on the event loop with exclusive access to the kernel.
func (app *Application) Do(ctx context.Context, fn func(k *kernel.Kernel, h *Host) error) error {
	if !app.started.Load() {
		return ErrNotRunning
	}
	return app.loop.Execute(ctx, func() error {
		return fn(app.kernel, app.host)
	})
}

// LoadFile loads a mod file through the event loop.
func (app *Application) LoadFile(ctx context.Context, path string, autoloadIntent bool) (*kernel.Mod, error) {
	var m *kernel.Mod
	err := app.Do(ctx, func(k *kernel.Kernel, _ *Host) error {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		m, err = k.Load(ctx, string(src), autoloadIntent)
		if m != nil {
			app.files[modPath(path)] = m.ID
		}
		return err
	})
	return m, err
}

// Settings returns the kernel settings read at startup.
func (app *Application) Settings() autoload.Settings {
	return app.settings
}

// Config returns the configuration in use.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Shutdown unloads every mod and releases resources. It is safe to call
// more than once and from any goroutine.
func (app *Application) Shutdown() {
	app.shutdownOnce.Do(func() {
		close(app.done)

		app.mu.Lock()
		w := app.watcher
		cancel := app.loopCancel
		app.mu.Unlock()

		if w != nil {
			if err := w.Close(); err != nil {
				app.logger.Warn("closing watcher", "err", err)
			}
		}

		if app.started.Load() {
			ctx, cancelTimeout := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := app.loop.Execute(ctx, app.kernel.Close); err != nil {
				app.logger.Warn("closing kernel", "err", err)
			}
			cancelTimeout()
		} else {
			app.kernel.Close()
		}
		app.loop.Close()
		if cancel != nil {
			cancel()
		}

		if app.opts.KV == nil {
			if err := app.kv.Close(); err != nil {
				app.logger.Warn("closing storage", "err", err)
			}
		}
	})
}
