package kernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dshills/modkernel/internal/autoload"
	"github.com/dshills/modkernel/internal/event"
	"github.com/dshills/modkernel/internal/intercept"
	klua "github.com/dshills/modkernel/internal/kernel/lua"
	"github.com/dshills/modkernel/internal/menu"
	"github.com/dshills/modkernel/internal/storage"
	lua "github.com/yuin/gopher-lua"
)

// Host notices.
const (
	NoticeReloading      = "Mod already loaded, reloading it"
	NoticeAutoloadFailed = "Failed to autoload mod"
	NoticeCleanupFailed  = "Mod cleanup failed"
)

// Notifier shows messages to the user on behalf of the kernel and mods.
type Notifier interface {
	ShowMessage(text string)
	Inform(title, text string)
}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger *log.Logger
}

// ShowMessage implements Notifier.
func (n LogNotifier) ShowMessage(text string) {
	n.Logger.Info(text)
}

// Inform implements Notifier.
func (n LogNotifier) Inform(title, text string) {
	n.Logger.Info(text, "title", title)
}

// Kernel owns the mod registry and every registry mods install into.
type Kernel struct {
	rt         *klua.State
	mods       []*Mod
	byID       map[string]*Mod
	bus        *event.Bus
	intercepts *intercept.Registry
	menus      *menu.Registry
	store      *autoload.Store
	notifier   Notifier
	logger     *log.Logger

	restoreOriginal bool
	objects         map[string]*intercept.Object
	apis            []api
	closed          bool
}

// api is a member installed into every later capability table.
type api struct {
	name  string
	value lua.LValue
	owner string
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the kernel logger.
func WithLogger(logger *log.Logger) Option {
	return func(k *Kernel) {
		k.logger = logger
	}
}

// WithStore sets the autoload store. Without one, autoload state lives in
// memory only.
func WithStore(store *autoload.Store) Option {
	return func(k *Kernel) {
		k.store = store
	}
}

// WithNotifier sets where user-facing notices go.
func WithNotifier(n Notifier) Option {
	return func(k *Kernel) {
		k.notifier = n
	}
}

// WithRestoreOriginal controls whether a host member reverts to its
// original implementation once its last wrapper is removed.
func WithRestoreOriginal(restore bool) Option {
	return func(k *Kernel) {
		k.restoreOriginal = restore
	}
}

// New creates a kernel with its own Lua runtime.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		byID:            make(map[string]*Mod),
		objects:         make(map[string]*intercept.Object),
		restoreOriginal: true,
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.logger == nil {
		k.logger = log.Default()
	}
	if k.notifier == nil {
		k.notifier = LogNotifier{Logger: k.logger}
	}
	if k.store == nil {
		k.store = autoload.NewStore(storage.NewMemory(), k.logger)
	}

	k.rt = klua.NewState()
	k.bus = event.NewBus(k.logger)
	k.menus = menu.NewRegistry(k.logger)
	k.intercepts = intercept.NewRegistry(
		intercept.WithRestoreOriginal(k.restoreOriginal),
		intercept.WithLogger(k.logger),
	)
	k.installTypes()
	return k
}

// Load evaluates source as a mod and runs its main function. If a mod with
// the same id is loaded it is deleted first. When autoload is set, the
// source is added to the autoload store before Load returns.
func (k *Kernel) Load(ctx context.Context, source string, autoloadIntent bool) (*Mod, error) {
	return k.load(ctx, source, autoloadIntent, true)
}

func (k *Kernel) load(ctx context.Context, source string, autoloadIntent, dropAutoload bool) (*Mod, error) {
	if k.closed {
		return nil, ErrKernelClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err := k.rt.Eval("mod", source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	d, err := parseDescriptor(v)
	if err != nil {
		return nil, err
	}
	for _, dep := range d.depends {
		if _, ok := k.byID[dep]; !ok {
			return nil, fmt.Errorf("mod %q depends on %q: %w", d.id, dep, ErrUnmetDependency)
		}
	}

	if old, ok := k.byID[d.id]; ok {
		k.notifier.ShowMessage(NoticeReloading)
		k.logger.Info("reloading mod", "id", d.id, "version", old.Version)
		if err := k.remove(ctx, old, dropAutoload); err != nil {
			k.logger.Warn("removing previous instance", "id", d.id, "err", err)
		}
	}

	m := &Mod{
		ID:          d.id,
		Name:        d.name,
		Description: d.description,
		Version:     d.version,
		Author:      d.author,
		DependsOn:   d.depends,
		WantsMenu:   d.doMenu,
		Source:      source,
		listeners:   event.NewListeners(d.id),
		cleanup:     d.cleanup,
		main:        d.main,
		menus:       k.menus,
	}
	if m.WantsMenu {
		m.Menu = menu.New(m.Name)
	}

	apis := append([]api(nil), k.apis...)
	m.active = true
	if _, err := k.rt.Call(m.main, 0, k.capability(m)); err != nil {
		m.active = false
		k.rollback(m, apis)
		return nil, fmt.Errorf("mod %q: %w: %v", m.ID, ErrEntryPointFailed, err)
	}

	m.state = StateLoaded
	k.mods = append(k.mods, m)
	k.byID[m.ID] = m
	k.logger.Info("mod loaded", "id", m.ID, "version", m.Version)

	if autoloadIntent {
		if err := k.store.Add(ctx, m.ID, m.Source); err != nil {
			return m, fmt.Errorf("mod %q loaded but not saved for autoload: %w", m.ID, err)
		}
	}
	return m, nil
}

// rollback undoes everything a mod registered while its main was running.
func (k *Kernel) rollback(m *Mod, apis []api) {
	k.intercepts.Unwrap(m.ID)
	k.bus.RemoveOwner(m.ID)
	k.menus.RemoveOwner(m.ID)
	m.listeners.Clear()
	k.apis = apis
}

// Delete unloads the mod with the given id. Cleanup failures are reported
// and never stop the rest of the unload.
func (k *Kernel) Delete(ctx context.Context, id string) error {
	if k.closed {
		return ErrKernelClosed
	}
	m, ok := k.byID[id]
	if !ok {
		return fmt.Errorf("delete %q: %w", id, ErrUnknownMod)
	}
	return k.remove(ctx, m, true)
}

func (k *Kernel) remove(ctx context.Context, m *Mod, dropAutoload bool) error {
	for i, fn := range m.cleanup {
		if _, err := k.rt.Call(fn, 0); err != nil {
			failed := &CleanupActionFailed{ModID: m.ID, Index: i, Err: err}
			k.logger.Error("cleanup failed", "id", m.ID, "err", failed)
			k.notifier.ShowMessage(NoticeCleanupFailed)
		}
	}

	for i, other := range k.mods {
		if other == m {
			k.mods = append(k.mods[:i:i], k.mods[i+1:]...)
			break
		}
	}
	delete(k.byID, m.ID)
	m.state = StateUnloaded
	m.active = false

	unwrapped := k.intercepts.Unwrap(m.ID)
	targets := k.bus.RemoveOwner(m.ID)
	hooks := k.menus.RemoveOwner(m.ID)
	m.listeners.Clear()
	k.logger.Info("mod deleted", "id", m.ID, "unwrapped", unwrapped, "targets", targets, "hooks", hooks)

	if !dropAutoload {
		return nil
	}
	if err := k.store.Remove(ctx, m.ID); err != nil {
		return fmt.Errorf("delete %q: removing autoload entry: %w", m.ID, err)
	}
	return nil
}

// Find returns the loaded mod with the given id.
func (k *Kernel) Find(id string) (*Mod, bool) {
	m, ok := k.byID[id]
	return m, ok
}

// Mods returns the loaded mods in load order.
func (k *Kernel) Mods() []*Mod {
	out := make([]*Mod, len(k.mods))
	copy(out, k.mods)
	return out
}

// LoadAutoloaded loads every autoload entry in insertion order. A failing
// entry is reported and skipped. It returns how many mods loaded and the
// joined failures.
func (k *Kernel) LoadAutoloaded(ctx context.Context) (int, error) {
	entries, err := k.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading autoload entries: %w", err)
	}

	var (
		loaded int
		errs   []error
	)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := k.load(ctx, e.Source, false, false); err != nil {
			failed := &AutoloadEntryFailed{ID: e.ID, Err: err}
			k.logger.Error("autoload failed", "id", e.ID, "err", err)
			k.notifier.ShowMessage(NoticeAutoloadFailed)
			errs = append(errs, failed)
			continue
		}
		loaded++
	}
	k.logger.Info("autoload finished", "loaded", loaded, "failed", len(errs))
	return loaded, errors.Join(errs...)
}

// SetAutoload adds or removes a loaded mod's recorded source in the
// autoload store.
func (k *Kernel) SetAutoload(ctx context.Context, id string, on bool) error {
	m, ok := k.byID[id]
	if !ok {
		return fmt.Errorf("autoload %q: %w", id, ErrUnknownMod)
	}
	if on {
		return k.store.Add(ctx, m.ID, m.Source)
	}
	return k.store.Remove(ctx, m.ID)
}

// IsAutoloaded reports whether id has an autoload entry.
func (k *Kernel) IsAutoloaded(ctx context.Context, id string) (bool, error) {
	return k.store.IsAutoloaded(ctx, id)
}

// Dispatch delivers a new event to every loaded mod, in load order, and
// then to every registered dispatch target. It returns false iff the event
// is cancelable and some listener canceled it.
func (k *Kernel) Dispatch(name string, detail any, cancelable bool) bool {
	e := event.New(name, detail, cancelable)
	local := make([]event.Target, 0, len(k.mods))
	for _, m := range k.mods {
		local = append(local, m.listeners)
	}
	return k.bus.Dispatch(e, local...)
}

// RegisterDispatchTarget adds a host-side target that receives every
// dispatched event.
func (k *Kernel) RegisterDispatchTarget(target event.Target) error {
	return k.bus.Register("", target)
}

// ApplyMenuHooks runs every hook registered for target on m, mods in load
// order.
func (k *Kernel) ApplyMenuHooks(m *menu.Menu, target string) error {
	owners := make([]string, 0, len(k.mods))
	for _, mod := range k.mods {
		owners = append(owners, mod.ID)
	}
	return k.menus.Apply(m, target, owners)
}

// ModMenus returns a menu holding one submenu per loaded mod that asked
// for a menu.
func (k *Kernel) ModMenus() *menu.Menu {
	root := menu.New("Mods")
	for _, m := range k.mods {
		if m.Menu != nil {
			root.AddMenu(m.Name, m.Menu)
		}
	}
	return root
}

// Expose makes a host object reachable from mods, both as a shared global
// and as a member of every capability table.
func (k *Kernel) Expose(obj *intercept.Object) {
	k.objects[obj.Name()] = obj
	k.rt.SetGlobal(obj.Name(), k.objectValue(obj))
}

// Object returns an exposed host object.
func (k *Kernel) Object(name string) (*intercept.Object, bool) {
	obj, ok := k.objects[name]
	return obj, ok
}

// Wrap installs a host-side wrapper on obj.member under owner.
func (k *Kernel) Wrap(obj *intercept.Object, member string, fn intercept.Func, owner string, overwrite bool) error {
	_, err := k.intercepts.Wrap(obj, member, fn, owner, overwrite)
	return err
}

// AddAPI installs a Go value into the capability table of every mod
// loaded afterwards.
func (k *Kernel) AddAPI(name string, value any) {
	k.setAPI(name, k.rt.Bridge().ToLuaValue(value), "")
}

func (k *Kernel) setAPI(name string, value lua.LValue, owner string) {
	for i := range k.apis {
		if k.apis[i].name == name {
			k.apis[i] = api{name: name, value: value, owner: owner}
			return
		}
	}
	k.apis = append(k.apis, api{name: name, value: value, owner: owner})
}

// Interceptions returns the interception registry.
func (k *Kernel) Interceptions() *intercept.Registry {
	return k.intercepts
}

// Close deletes every loaded mod, newest first, keeping autoload entries,
// and releases the Lua runtime.
func (k *Kernel) Close() error {
	if k.closed {
		return nil
	}
	for i := len(k.mods) - 1; i >= 0; i-- {
		m := k.mods[i]
		if err := k.remove(context.Background(), m, false); err != nil {
			k.logger.Warn("closing mod", "id", m.ID, "err", err)
		}
	}
	k.closed = true
	return k.rt.Close()
}
