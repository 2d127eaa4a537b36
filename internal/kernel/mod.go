package kernel

import (
	"fmt"
	"strings"

	"github.com/dshills/modkernel/internal/event"
	"github.com/dshills/modkernel/internal/menu"
	lua "github.com/yuin/gopher-lua"
)

// Descriptor defaults.
const (
	DefaultDescription = "No description provided."
	DefaultVersion     = "0.0"
	DefaultAuthor      = "Anonymous"
)

// Mod is a loaded mod.
type Mod struct {
	ID          string
	Name        string
	Description string
	Version     string
	Author      string
	DependsOn   []string

	// WantsMenu is the descriptor's doMenu flag. When set, Menu holds the
	// mod's own menu, titled with the mod name.
	WantsMenu bool
	Menu      *menu.Menu

	// Source is the exact text the mod was loaded from.
	Source string

	state     State
	active    bool
	listeners *event.Listeners
	cleanup   []*lua.LFunction
	main      *lua.LFunction
	menus     *menu.Registry
}

// State returns the mod's lifecycle state.
func (m *Mod) State() State {
	return m.state
}

// Listeners returns the mod's own subscriber list.
func (m *Mod) Listeners() *event.Listeners {
	return m.listeners
}

// MenuHooks returns the menu targets the mod has hooks for, in
// registration order.
func (m *Mod) MenuHooks() []string {
	if m.menus == nil {
		return nil
	}
	return m.menus.Targets(m.ID)
}

// CleanupCount returns the number of cleanup functions.
func (m *Mod) CleanupCount() int {
	return len(m.cleanup)
}

// Info formats the mod's metadata for display.
func (m *Mod) Info() string {
	return fmt.Sprintf("Name: %s\nID: %s\nDescription: %s\nVersion: %s\nAuthor: %s",
		m.Name, m.ID, m.Description, m.Version, m.Author)
}

// NameFromID derives a display name from a mod id: underscores and hyphens
// become spaces and the first letter of every word is upper-cased.
// "my_mod-name" becomes "My Mod Name".
func NameFromID(id string) string {
	replaced := strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, id)

	var b strings.Builder
	b.Grow(len(replaced))
	prevWord := false
	for _, r := range replaced {
		word := isWordRune(r)
		if word && !prevWord && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
		prevWord = word
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_'
}
