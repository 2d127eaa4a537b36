package kernel

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/dshills/modkernel/internal/autoload"
	"github.com/dshills/modkernel/internal/intercept"
	"github.com/dshills/modkernel/internal/menu"
	"github.com/dshills/modkernel/internal/storage"
	"github.com/google/go-cmp/cmp"
)

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) ShowMessage(text string) {
	n.messages = append(n.messages, text)
}

func (n *recordingNotifier) Inform(title, text string) {
	n.messages = append(n.messages, title+": "+text)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestKernel(t *testing.T, opts ...Option) (*Kernel, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	opts = append([]Option{WithLogger(quietLogger()), WithNotifier(n)}, opts...)
	k := New(opts...)
	t.Cleanup(func() { k.Close() })
	return k, n
}

func mustLoad(t *testing.T, k *Kernel, src string) *Mod {
	t.Helper()
	m, err := k.Load(context.Background(), src, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return m
}

func TestLoadDescriptorErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"missing id", `return { main = function() end }`, ErrMissingID},
		{"empty id", `return { id = "", main = function() end }`, ErrMissingID},
		{"not a table", `return 42`, ErrInvalidModDescriptor},
		{"returns nothing", `local x = 1`, ErrInvalidModDescriptor},
		{"numeric id", `return { id = 7, main = function() end }`, ErrInvalidModDescriptor},
		{"bad name", `return { id = "a", name = {}, main = function() end }`, ErrInvalidModDescriptor},
		{"bad depends", `return { id = "a", depends = { 1 }, main = function() end }`, ErrInvalidModDescriptor},
		{"bad cleanup", `return { id = "a", cleanupFuncs = { "x" }, main = function() end }`, ErrInvalidModDescriptor},
		{"bad doMenu", `return { id = "a", doMenu = "yes", main = function() end }`, ErrInvalidModDescriptor},
		{"missing main", `return { id = "a" }`, ErrMissingEntryPoint},
		{"main not a function", `return { id = "a", main = 1 }`, ErrMissingEntryPoint},
		{"syntax error", `return {`, ErrEvaluation},
		{"raises", `error("boom")`, ErrEvaluation},
		{"main fails", `return { id = "a", main = function() error("nope") end }`, ErrEntryPointFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, _ := newTestKernel(t)
			_, err := k.Load(context.Background(), tt.src, false)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Load error = %v, want %v", err, tt.want)
			}
			if len(k.Mods()) != 0 {
				t.Errorf("Mods() = %d, want 0", len(k.Mods()))
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	k, _ := newTestKernel(t)

	m := mustLoad(t, k, `return { id = "my_mod-name", main = function() end }`)

	if m.Name != "My Mod Name" {
		t.Errorf("Name = %q, want %q", m.Name, "My Mod Name")
	}
	if m.Description != DefaultDescription {
		t.Errorf("Description = %q", m.Description)
	}
	if m.Version != DefaultVersion {
		t.Errorf("Version = %q", m.Version)
	}
	if m.Author != DefaultAuthor {
		t.Errorf("Author = %q", m.Author)
	}
	if m.State() != StateLoaded {
		t.Errorf("State() = %v, want loaded", m.State())
	}
	if m.Menu != nil {
		t.Error("Menu should be nil without doMenu")
	}
}

func TestNameFromID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"my_mod-name", "My Mod Name"},
		{"hello", "Hello"},
		{"already Fine", "Already Fine"},
		{"v2-tools", "V2 Tools"},
		{"a.b", "A.B"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NameFromID(tt.id); got != tt.want {
			t.Errorf("NameFromID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestUnmetDependency(t *testing.T) {
	k, n := newTestKernel(t)

	dependent := `return {
		id = "b",
		depends = { "a" },
		main = function(api) api.showMsg("b main") end,
	}`

	_, err := k.Load(context.Background(), dependent, false)
	if !errors.Is(err, ErrUnmetDependency) {
		t.Fatalf("Load error = %v, want ErrUnmetDependency", err)
	}
	if len(n.messages) != 0 {
		t.Fatalf("main ran before dependency check: %v", n.messages)
	}

	mustLoad(t, k, `return { id = "a", main = function() end }`)
	m := mustLoad(t, k, dependent)
	if diff := cmp.Diff([]string{"a"}, m.DependsOn); diff != "" {
		t.Errorf("DependsOn mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateIDReplacesAfterCleanup(t *testing.T) {
	k, n := newTestKernel(t)

	v1 := `local api
	return {
		id = "dup",
		version = "1",
		main = function(a) api = a; api.showMsg("main 1") end,
		cleanupFuncs = {
			function() api.showMsg("cleanup a") end,
			function() api.showMsg("cleanup b") end,
		},
	}`
	v2 := `return {
		id = "dup",
		version = "2",
		main = function(api) api.showMsg("main 2") end,
	}`

	mustLoad(t, k, v1)
	m := mustLoad(t, k, v2)

	want := []string{"main 1", NoticeReloading, "cleanup a", "cleanup b", "main 2"}
	if diff := cmp.Diff(want, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if len(k.Mods()) != 1 {
		t.Fatalf("Mods() = %d, want 1", len(k.Mods()))
	}
	got, ok := k.Find("dup")
	if !ok || got != m || got.Version != "2" {
		t.Errorf("Find returned %+v, want version 2", got)
	}
}

func TestEntryPointFailureRollsBack(t *testing.T) {
	k, _ := newTestKernel(t)
	ide := intercept.NewObject("ide")
	ide.Define("createNewProject", func(recv any, args ...any) (any, error) { return nil, nil })
	k.Expose(ide)

	_, err := k.Load(context.Background(), `return {
		id = "broken",
		main = function(api)
			api.wrap(api.ide, "createNewProject", function() end, true)
			api.registerEventTarget(function(e) e.preventDefault() end)
			api.on("x", function(e) e.preventDefault() end)
			api.registerMenuHook("projectMenu", function(m) m.addLine() end)
			api.addApi("leaked", 1)
			error("fail")
		end,
	}`, false)
	if !errors.Is(err, ErrEntryPointFailed) {
		t.Fatalf("Load error = %v, want ErrEntryPointFailed", err)
	}

	if _, ok := k.Find("broken"); ok {
		t.Error("failed mod should not be registered")
	}
	if k.Interceptions().Len() != 0 {
		t.Errorf("interceptions = %d, want 0", k.Interceptions().Len())
	}
	if !k.Dispatch("x", nil, true) {
		t.Error("dispatch target survived rollback")
	}
	m := menu.New("project")
	if err := k.ApplyMenuHooks(m, "projectMenu"); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 {
		t.Errorf("menu hook survived rollback: %v", m.Labels())
	}

	mustLoad(t, k, `return {
		id = "probe",
		main = function(api)
			if api.leaked ~= nil then error("api leaked") end
		end,
	}`)
}

func TestDispatchDoesNotShortCircuit(t *testing.T) {
	k, n := newTestKernel(t)

	mustLoad(t, k, `return {
		id = "veto",
		main = function(api)
			api.on("projectCreating", function(e)
				if e.detail.name == "bad" then e.preventDefault() end
			end)
		end,
	}`)
	mustLoad(t, k, `return {
		id = "observer",
		main = function(api)
			api.on("projectCreating", function(e)
				api.showMsg("saw " .. e.detail.name .. " " .. tostring(e.defaultPrevented))
			end)
		end,
	}`)

	if k.Dispatch("projectCreating", map[string]any{"name": "bad"}, true) {
		t.Error("cancelable event should be vetoed")
	}
	if !k.Dispatch("projectCreating", map[string]any{"name": "bad"}, false) {
		t.Error("non-cancelable event must return true")
	}
	if !k.Dispatch("projectCreating", map[string]any{"name": "good"}, true) {
		t.Error("event without veto should be allowed")
	}

	want := []string{"saw bad true", "saw bad false", "saw good false"}
	if diff := cmp.Diff(want, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterEventTarget(t *testing.T) {
	k, n := newTestKernel(t)

	mustLoad(t, k, `return {
		id = "targets",
		main = function(api)
			local target = { seen = 0 }
			function target:dispatchEvent(e)
				self.seen = self.seen + 1
				api.showMsg("table " .. e.type .. " " .. self.seen)
				return false
			end
			api.registerEventTarget(target)
			api.registerEventTarget(function(e) api.showMsg("func " .. e.type) end)
		end,
	}`)

	if k.Dispatch("ping", nil, true) {
		t.Error("dispatchEvent returning false should cancel")
	}
	want := []string{"table ping 1", "func ping"}
	if diff := cmp.Diff(want, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	if err := k.Delete(context.Background(), "targets"); err != nil {
		t.Fatal(err)
	}
	if !k.Dispatch("ping", nil, true) {
		t.Error("targets should be removed with their mod")
	}

	_, err := k.Load(context.Background(), `return {
		id = "bad-target",
		main = function(api) api.registerEventTarget(42) end,
	}`, false)
	if !errors.Is(err, ErrEntryPointFailed) {
		t.Errorf("Load error = %v, want ErrEntryPointFailed", err)
	}
}

func TestWrapAndRestore(t *testing.T) {
	k, n := newTestKernel(t)

	var calls []string
	ide := intercept.NewObject("ide")
	ide.Define("createNewProject", func(recv any, args ...any) (any, error) {
		calls = append(calls, "original")
		return "project", nil
	})
	k.Expose(ide)

	mustLoad(t, k, `return {
		id = "a",
		main = function(api)
			api.wrap(api.ide, "createNewProject", function(self, name)
				api.showMsg("a:" .. name .. ":" .. self.name)
			end, false)
		end,
	}`)
	mustLoad(t, k, `return {
		id = "b",
		main = function(api)
			api.wrap("ide", "createNewProject", function(self, name) api.showMsg("b:" .. name) end)
		end,
	}`)

	res, err := ide.Call("createNewProject", "demo")
	if err != nil {
		t.Fatal(err)
	}
	if res != "project" {
		t.Errorf("result = %v, want project", res)
	}
	if diff := cmp.Diff([]string{"original"}, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a:demo:ide", "b:demo"}, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	mustLoad(t, k, `return {
		id = "c",
		main = function(api)
			api.wrap(api.ide, "createNewProject", function() api.showMsg("c") end, true)
		end,
	}`)
	n.messages = nil
	res, err = ide.Call("createNewProject", "demo")
	if err != nil {
		t.Fatal(err)
	}
	if res != nil {
		t.Errorf("vetoed result = %v, want nil", res)
	}
	if len(calls) != 1 {
		t.Errorf("original ran under overwrite: %v", calls)
	}
	if diff := cmp.Diff([]string{"a:demo:ide", "b:demo", "c"}, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := k.Delete(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}
	if k.Interceptions().Len() != 0 {
		t.Errorf("interceptions = %d, want 0", k.Interceptions().Len())
	}
	n.messages = nil
	if _, err := ide.Call("createNewProject", "demo"); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || len(n.messages) != 0 {
		t.Errorf("after delete calls=%v messages=%v", calls, n.messages)
	}
}

func TestModCallsHostObject(t *testing.T) {
	k, n := newTestKernel(t)

	ide := intercept.NewObject("ide")
	ide.Define("addPaletteCategory", func(recv any, args ...any) (any, error) {
		return "added " + args[0].(string), nil
	})
	k.Expose(ide)

	mustLoad(t, k, `return {
		id = "caller",
		main = function(api)
			api.showMsg(api.ide:addPaletteCategory("Music"))
			api.showMsg(ide.addPaletteCategory("Art"))
		end,
	}`)

	want := []string{"added Music", "added Art"}
	if diff := cmp.Diff(want, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteUnknownMod(t *testing.T) {
	k, _ := newTestKernel(t)
	if err := k.Delete(context.Background(), "ghost"); !errors.Is(err, ErrUnknownMod) {
		t.Errorf("Delete error = %v, want ErrUnknownMod", err)
	}
}

func TestCleanupFailureContinues(t *testing.T) {
	k, n := newTestKernel(t)

	m := mustLoad(t, k, `local api
	return {
		id = "messy",
		main = function(a) api = a end,
		cleanupFuncs = {
			function() error("first fails") end,
			function() api.showMsg("second ran") end,
		},
	}`)

	if err := k.Delete(context.Background(), "messy"); err != nil {
		t.Fatalf("Delete returned %v", err)
	}
	want := []string{NoticeCleanupFailed, "second ran"}
	if diff := cmp.Diff(want, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if m.State() != StateUnloaded {
		t.Errorf("State() = %v, want unloaded", m.State())
	}
	if _, ok := k.Find("messy"); ok {
		t.Error("deleted mod still registered")
	}
}

func TestCapabilityFailsAfterDelete(t *testing.T) {
	k, n := newTestKernel(t)

	m := mustLoad(t, k, `return {
		id = "stale",
		doMenu = true,
		main = function(api)
			api.menu.addItem("Later", function() api.showMsg("late") end)
		end,
	}`)
	if err := k.Delete(context.Background(), "stale"); err != nil {
		t.Fatal(err)
	}
	if err := m.Menu.Trigger("Later"); err == nil {
		t.Error("capability call after delete should fail")
	}
	if len(n.messages) != 0 {
		t.Errorf("messages = %v, want none", n.messages)
	}
}

func TestMenus(t *testing.T) {
	k, n := newTestKernel(t)

	m := mustLoad(t, k, `return {
		id = "hello_mod",
		doMenu = true,
		main = function(api)
			api.menu:addItem("Say hello", function() api.inform("Hello, world!", "Hello Mod") end)
			local sub = api.newMenu("More")
			sub.addItem("Nothing")
			api.menu.addMenu("More", sub)
			api.registerMenuHook("projectMenu", function(menu)
				menu.addLine()
				menu.addItem("Hello Mod - Say hello", function() api.inform("hi") end)
			end)
			api.registerMenuHook("settingsMenu", function(menu) menu.addItem("unused") end)
		end,
	}`)

	if diff := cmp.Diff([]string{"projectMenu", "settingsMenu"}, m.MenuHooks()); diff != "" {
		t.Errorf("MenuHooks mismatch (-want +got):\n%s", diff)
	}

	project := menu.New("Project")
	project.AddItem("New", nil)
	if err := k.ApplyMenuHooks(project, "projectMenu"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"New", "-", "Hello Mod - Say hello"}, project.Labels()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if err := project.Trigger("Hello Mod - Say hello"); err != nil {
		t.Fatal(err)
	}

	mods := k.ModMenus()
	if diff := cmp.Diff([]string{"Hello Mod"}, mods.Labels()); diff != "" {
		t.Errorf("mod menus mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Say hello", "More"}, m.Menu.Labels()); diff != "" {
		t.Errorf("mod menu mismatch (-want +got):\n%s", diff)
	}
	if err := m.Menu.Trigger("Say hello"); err != nil {
		t.Fatal(err)
	}

	want := []string{"Information: hi", "Hello Mod: Hello, world!"}
	if diff := cmp.Diff(want, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	if err := k.Delete(context.Background(), "hello_mod"); err != nil {
		t.Fatal(err)
	}
	after := menu.New("Project")
	if err := k.ApplyMenuHooks(after, "projectMenu"); err != nil {
		t.Fatal(err)
	}
	if after.Len() != 0 {
		t.Errorf("hooks survived delete: %v", after.Labels())
	}
}

func TestAddApiVisibleToLaterMods(t *testing.T) {
	k, n := newTestKernel(t)
	k.AddAPI("hostVersion", "1.2")

	mustLoad(t, k, `return {
		id = "lib",
		main = function(api)
			api.addApi("greet", function(name) return "hi " .. name end)
			api.showMsg(api.greet("self"))
		end,
	}`)
	mustLoad(t, k, `return {
		id = "user",
		depends = { "lib" },
		main = function(api)
			api.showMsg(api.greet("user") .. " on " .. api.hostVersion)
		end,
	}`)

	want := []string{"hi self", "hi user on 1.2"}
	if diff := cmp.Diff(want, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestModsAreIsolated(t *testing.T) {
	k, n := newTestKernel(t)

	mustLoad(t, k, `counter = 41
	return { id = "one", main = function() end }`)
	mustLoad(t, k, `return {
		id = "two",
		main = function(api) api.showMsg(tostring(counter)) end,
	}`)

	if diff := cmp.Diff([]string{"nil"}, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	src := `return { id = "keeper", main = function(api) api.showMsg("keeper up") end }`

	kv, err := storage.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	k, _ := newTestKernel(t, WithStore(autoload.NewStore(kv, quietLogger())))
	if _, err := k.Load(ctx, src, true); err != nil {
		t.Fatal(err)
	}
	ok, err := k.IsAutoloaded(ctx, "keeper")
	if err != nil || !ok {
		t.Fatalf("IsAutoloaded = %v, %v", ok, err)
	}
	k.Close()
	kv.Close()

	kv2, err := storage.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer kv2.Close()
	k2, n2 := newTestKernel(t, WithStore(autoload.NewStore(kv2, quietLogger())))

	loaded, err := k2.LoadAutoloaded(ctx)
	if err != nil || loaded != 1 {
		t.Fatalf("LoadAutoloaded = %d, %v", loaded, err)
	}
	m, ok := k2.Find("keeper")
	if !ok || m.Source != src {
		t.Fatalf("Find(keeper) = %+v, %v", m, ok)
	}
	if diff := cmp.Diff([]string{"keeper up"}, n2.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if ok, _ := k2.IsAutoloaded(ctx, "keeper"); !ok {
		t.Error("autoload entry lost after restart")
	}
}

func TestLoadAutoloadedIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	store := autoload.NewStore(storage.NewMemory(), quietLogger())
	entries := []autoload.Entry{
		{ID: "first", Source: `return { id = "first", main = function() end }`},
		{ID: "thrower", Source: `return {
			id = "thrower",
			main = function(api)
				api.wrap(api.ide, "createNewProject", function() api.showMsg("wrapped") end, true)
				api.registerEventTarget(function(e) api.showMsg("target " .. e.type) end)
				api.on("projectCreating", function(e) e.preventDefault() end)
				error("boom")
			end,
		}`},
		{ID: "broken", Source: `return { main = function() end }`},
		{ID: "third", Source: `return { id = "third", main = function() end }`},
	}
	for _, e := range entries {
		if err := store.Add(ctx, e.ID, e.Source); err != nil {
			t.Fatal(err)
		}
	}

	k, n := newTestKernel(t, WithStore(store))
	var calls int
	ide := intercept.NewObject("ide")
	ide.Define("createNewProject", func(recv any, args ...any) (any, error) {
		calls++
		return "project", nil
	})
	k.Expose(ide)

	loaded, err := k.LoadAutoloaded(ctx)
	if loaded != 2 {
		t.Errorf("loaded = %d, want 2", loaded)
	}

	var failed *AutoloadEntryFailed
	if !errors.As(err, &failed) {
		t.Fatalf("error = %v, want AutoloadEntryFailed", err)
	}
	if failed.ID != "thrower" || !errors.Is(failed, ErrEntryPointFailed) {
		t.Errorf("first failure = %+v", failed)
	}
	if !errors.Is(err, ErrMissingID) {
		t.Errorf("error = %v, want it to include ErrMissingID", err)
	}

	var ids []string
	for _, m := range k.Mods() {
		ids = append(ids, m.ID)
	}
	if diff := cmp.Diff([]string{"first", "third"}, ids); diff != "" {
		t.Errorf("mods mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{NoticeAutoloadFailed, NoticeAutoloadFailed}, n.messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	// Everything the thrower registered before failing is gone.
	n.messages = nil
	if k.Interceptions().Len() != 0 {
		t.Errorf("interceptions = %d, want 0", k.Interceptions().Len())
	}
	res, err := ide.Call("createNewProject", "demo")
	if err != nil || res != "project" || calls != 1 {
		t.Errorf("createNewProject = %v, %v (calls %d), want the original", res, err, calls)
	}
	if !k.Dispatch("projectCreating", nil, true) {
		t.Error("rolled-back listener still cancels")
	}
	if len(n.messages) != 0 {
		t.Errorf("rolled-back registrations still run: %v", n.messages)
	}
}

func TestAutoloadReplaceKeepsEntry(t *testing.T) {
	ctx := context.Background()
	store := autoload.NewStore(storage.NewMemory(), quietLogger())
	src := `return { id = "twice", main = function() end }`
	if err := store.Add(ctx, "twice", src); err != nil {
		t.Fatal(err)
	}

	k, _ := newTestKernel(t, WithStore(store))
	mustLoad(t, k, src)
	if _, err := k.LoadAutoloaded(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, _ := k.IsAutoloaded(ctx, "twice"); !ok {
		t.Error("autoload reload dropped the entry")
	}
}

func TestSetAutoloadAndDelete(t *testing.T) {
	ctx := context.Background()
	k, _ := newTestKernel(t)

	if err := k.SetAutoload(ctx, "nope", true); !errors.Is(err, ErrUnknownMod) {
		t.Errorf("SetAutoload error = %v, want ErrUnknownMod", err)
	}

	mustLoad(t, k, `return { id = "toggle", main = function() end }`)
	if err := k.SetAutoload(ctx, "toggle", true); err != nil {
		t.Fatal(err)
	}
	if ok, _ := k.IsAutoloaded(ctx, "toggle"); !ok {
		t.Error("expected autoload entry")
	}
	if err := k.SetAutoload(ctx, "toggle", false); err != nil {
		t.Fatal(err)
	}
	if ok, _ := k.IsAutoloaded(ctx, "toggle"); ok {
		t.Error("expected no autoload entry")
	}

	if _, err := k.Load(ctx, `return { id = "gone", main = function() end }`, true); err != nil {
		t.Fatal(err)
	}
	if err := k.Delete(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := k.IsAutoloaded(ctx, "gone"); ok {
		t.Error("delete should remove the autoload entry")
	}
}

func TestClosedKernel(t *testing.T) {
	k, _ := newTestKernel(t)
	if err := k.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := k.Load(context.Background(), `return { id = "x", main = function() end }`, false); !errors.Is(err, ErrKernelClosed) {
		t.Errorf("Load after Close = %v, want ErrKernelClosed", err)
	}
}
