package app

import (
	"fmt"

	"github.com/dshills/modkernel/internal/intercept"
	"github.com/dshills/modkernel/internal/kernel"
	"github.com/dshills/modkernel/internal/menu"
)

// Host events.
const (
	EventProjectCreating  = "projectCreating"
	EventProjectCreated   = "projectCreated"
	EventCategoryCreating = "categoryCreating"
	EventCategoryCreated  = "categoryCreated"
)

// Host menus mods can hook.
const (
	MenuProject  = "projectMenu"
	MenuSettings = "settingsMenu"
	MenuCloud    = "cloudMenu"
	MenuSnap     = "snapMenu"
	MenuScripts  = "scriptsMenu"
	MenuPalette  = "paletteMenu"
)

// ObjectIDE is the name mods use for the host object.
const ObjectIDE = "ide"

const defaultProjectName = "Untitled"

// Category is a palette category.
type Category struct {
	Name  string
	Color string
}

// Host is a small demo host: a project list and a block palette whose
// entry points mods can observe, veto and wrap.
type Host struct {
	ide        *intercept.Object
	kernel     *kernel.Kernel
	projects   []string
	categories []Category
	menus      map[string][]string
}

// NewHost defines the ide object and exposes it to mods.
func NewHost(k *kernel.Kernel) *Host {
	h := &Host{
		ide:    intercept.NewObject(ObjectIDE),
		kernel: k,
		menus: map[string][]string{
			MenuProject:  {"New", "Open...", "Save"},
			MenuSettings: {"Language...", "Zoom blocks..."},
			MenuCloud:    {"Login...", "Signup..."},
			MenuSnap:     {"About..."},
			MenuScripts:  {"clean up", "add comment"},
			MenuPalette:  {"find blocks...", "hide blocks..."},
		},
	}
	h.ide.Define("createNewProject", h.createNewProject)
	h.ide.Define("addPaletteCategory", h.addPaletteCategory)
	k.Expose(h.ide)
	return h
}

// CreateNewProject calls the current createNewProject binding. It reports
// whether a project was created.
func (h *Host) CreateNewProject(name string) (bool, error) {
	res, err := h.ide.Call("createNewProject", name)
	created, _ := res.(bool)
	return created, err
}

// AddPaletteCategory calls the current addPaletteCategory binding.
func (h *Host) AddPaletteCategory(name, color string) (bool, error) {
	res, err := h.ide.Call("addPaletteCategory", name, color)
	added, _ := res.(bool)
	return added, err
}

// Projects returns created project names in order.
func (h *Host) Projects() []string {
	return append([]string(nil), h.projects...)
}

// Categories returns palette categories in order.
func (h *Host) Categories() []Category {
	return append([]Category(nil), h.categories...)
}

func (h *Host) createNewProject(_ any, args ...any) (any, error) {
	name := stringArg(args, 0)
	if name == "" {
		name = defaultProjectName
	}
	detail := map[string]any{"name": name}

	if !h.kernel.Dispatch(EventProjectCreating, detail, true) {
		return false, nil
	}
	h.projects = append(h.projects, name)
	h.kernel.Dispatch(EventProjectCreated, detail, false)
	return true, nil
}

func (h *Host) addPaletteCategory(_ any, args ...any) (any, error) {
	c := Category{Name: stringArg(args, 0), Color: stringArg(args, 1)}
	if c.Name == "" {
		return false, fmt.Errorf("palette category needs a name")
	}
	for _, existing := range h.categories {
		if existing.Name == c.Name {
			return false, fmt.Errorf("%w: %s", ErrCategoryExists, c.Name)
		}
	}
	detail := map[string]any{"name": c.Name, "color": c.Color}

	if !h.kernel.Dispatch(EventCategoryCreating, detail, true) {
		return false, nil
	}
	h.categories = append(h.categories, c)
	h.kernel.Dispatch(EventCategoryCreated, detail, false)
	return true, nil
}

// Menu builds the host menu for target and lets mods hook it.
func (h *Host) Menu(target string) (*menu.Menu, error) {
	labels, ok := h.menus[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMenu, target)
	}

	m := menu.New(target)
	for _, label := range labels {
		m.AddItem(label, nil)
	}
	if target == MenuProject {
		m.Items[0].Action = func() error {
			_, err := h.CreateNewProject(defaultProjectName)
			return err
		}
	}

	if err := h.kernel.ApplyMenuHooks(m, target); err != nil {
		return m, err
	}
	return m, nil
}

// MenuTargets returns every hookable menu.
func MenuTargets() []string {
	return []string{MenuProject, MenuSettings, MenuCloud, MenuSnap, MenuScripts, MenuPalette}
}

func stringArg(args []any, i int) string {
	if i >= len(args) || args[i] == nil {
		return ""
	}
	if s, ok := args[i].(string); ok {
		return s
	}
	return fmt.Sprint(args[i])
}
