package menu

import (
	"fmt"
	"strings"
)

// Item is one menu entry. A separator has only Separator set.
type Item struct {
	Label     string
	Action    func() error
	Separator bool
	Submenu   *Menu
}

// Menu is an ordered list of items.
type Menu struct {
	Title string
	Items []Item
}

// New creates an empty menu.
func New(title string) *Menu {
	return &Menu{Title: title}
}

// AddItem appends an item that runs action when triggered.
func (m *Menu) AddItem(label string, action func() error) {
	m.Items = append(m.Items, Item{Label: label, Action: action})
}

// AddLine appends a separator.
func (m *Menu) AddLine() {
	m.Items = append(m.Items, Item{Separator: true})
}

// AddMenu appends a submenu.
func (m *Menu) AddMenu(title string, sub *Menu) {
	m.Items = append(m.Items, Item{Label: title, Submenu: sub})
}

// Len returns the number of items, separators included.
func (m *Menu) Len() int {
	return len(m.Items)
}

// Labels returns item labels in order, with "-" for separators.
func (m *Menu) Labels() []string {
	labels := make([]string, len(m.Items))
	for i, it := range m.Items {
		if it.Separator {
			labels[i] = "-"
			continue
		}
		labels[i] = it.Label
	}
	return labels
}

// Trigger runs the action of the first item labeled label.
func (m *Menu) Trigger(label string) error {
	for _, it := range m.Items {
		if it.Separator || it.Label != label {
			continue
		}
		if it.Action == nil {
			return fmt.Errorf("menu item %q has no action", label)
		}
		return it.Action()
	}
	return fmt.Errorf("menu %q has no item %q", m.Title, label)
}

// String renders the menu as an indented outline.
func (m *Menu) String() string {
	var b strings.Builder
	m.render(&b, 0)
	return b.String()
}

func (m *Menu) render(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	if m.Title != "" {
		fmt.Fprintf(b, "%s[%s]\n", indent, m.Title)
	}
	for _, it := range m.Items {
		switch {
		case it.Separator:
			fmt.Fprintf(b, "%s  ----\n", indent)
		case it.Submenu != nil:
			it.Submenu.render(b, depth+1)
		default:
			fmt.Fprintf(b, "%s  %s\n", indent, it.Label)
		}
	}
}
