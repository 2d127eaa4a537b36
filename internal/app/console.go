package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dshills/modkernel/internal/kernel"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

const consoleHelp = `commands:
  mods                          list loaded mods
  info <id>                     show mod information
  load <path> [autoload]        load a mod file
  delete <id>                   unload a mod
  autoload <id> on|off          toggle autoload for a loaded mod
  project [name]                create a project
  category <name> [color]       add a palette category
  menu <target>                 show a host menu (projectMenu, settingsMenu, ...)
  click <target> <label>        trigger a host menu item
  modmenu                       show the mods menu
  modclick <id> <label>         trigger an item in a mod's menu
  dispatch <event>              dispatch a cancelable event
  quit                          shut down`

// Exec runs one console command on the event loop and returns its output.
func (app *Application) Exec(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		return consoleHelp, nil
	case "quit", "exit":
		go app.Shutdown()
		return "bye", nil
	case "load":
		if len(args) == 0 {
			return "", fmt.Errorf("usage: load <path> [autoload]")
		}
		m, err := app.LoadFile(ctx, args[0], len(args) > 1 && args[1] == "autoload")
		if m == nil {
			return "", err
		}
		return fmt.Sprintf("loaded %s %s", m.ID, m.Version), err
	}

	var out string
	err := app.Do(ctx, func(k *kernel.Kernel, h *Host) error {
		var err error
		out, err = runCommand(ctx, k, h, cmd, args)
		return err
	})
	return out, err
}

func runCommand(ctx context.Context, k *kernel.Kernel, h *Host, cmd string, args []string) (string, error) {
	switch cmd {
	case "mods":
		return listMods(ctx, k), nil

	case "info":
		m, err := findMod(k, args)
		if err != nil {
			return "", err
		}
		return headerStyle.Render("Mod Information") + "\n" + m.Info(), nil

	case "delete":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: delete <id>")
		}
		if err := k.Delete(ctx, args[0]); err != nil {
			return "", err
		}
		return "deleted " + args[0], nil

	case "autoload":
		if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
			return "", fmt.Errorf("usage: autoload <id> on|off")
		}
		if err := k.SetAutoload(ctx, args[0], args[1] == "on"); err != nil {
			return "", err
		}
		return fmt.Sprintf("autoload %s %s", args[0], args[1]), nil

	case "project":
		name := strings.Join(args, " ")
		created, err := h.CreateNewProject(name)
		if err != nil {
			return "", err
		}
		if !created {
			return "project creation canceled", nil
		}
		return "projects: " + strings.Join(h.Projects(), ", "), nil

	case "category":
		if len(args) == 0 {
			return "", fmt.Errorf("usage: category <name> [color]")
		}
		color := ""
		if len(args) > 1 {
			color = args[1]
		}
		added, err := h.AddPaletteCategory(args[0], color)
		if err != nil {
			return "", err
		}
		if !added {
			return "category creation canceled", nil
		}
		return "added category " + args[0], nil

	case "menu":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: menu <target>")
		}
		m, err := h.Menu(args[0])
		if m == nil {
			return "", err
		}
		return strings.TrimRight(m.String(), "\n"), err

	case "click":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: click <target> <label>")
		}
		m, err := h.Menu(args[0])
		if m == nil {
			return "", err
		}
		return "", m.Trigger(strings.Join(args[1:], " "))

	case "modmenu":
		return strings.TrimRight(k.ModMenus().String(), "\n"), nil

	case "modclick":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: modclick <id> <label>")
		}
		m, err := findMod(k, args[:1])
		if err != nil {
			return "", err
		}
		if m.Menu == nil {
			return "", fmt.Errorf("mod %s has no menu", m.ID)
		}
		return "", m.Menu.Trigger(strings.Join(args[1:], " "))

	case "dispatch":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: dispatch <event>")
		}
		if k.Dispatch(args[0], nil, true) {
			return "allowed", nil
		}
		return "canceled", nil
	}
	return "", fmt.Errorf("%w: %s (try help)", ErrUnknownCommand, cmd)
}

func findMod(k *kernel.Kernel, args []string) (*kernel.Mod, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("usage: <command> <id>")
	}
	m, ok := k.Find(args[0])
	if !ok {
		return nil, fmt.Errorf("%s: %w", args[0], kernel.ErrUnknownMod)
	}
	return m, nil
}

func listMods(ctx context.Context, k *kernel.Kernel) string {
	mods := k.Mods()
	if len(mods) == 0 {
		return dimStyle.Render("no mods loaded")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Loaded mods"))
	for _, m := range mods {
		b.WriteString("\n  ")
		b.WriteString(m.ID)
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(m.Version + " " + m.Name))
		if ok, err := k.IsAutoloaded(ctx, m.ID); err == nil && ok {
			b.WriteString(" ")
			b.WriteString(badgeStyle.Render("[autoload]"))
		}
	}
	return b.String()
}
