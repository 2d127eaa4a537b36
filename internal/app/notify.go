package app

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// TerminalNotifier renders kernel and mod notices on a terminal.
type TerminalNotifier struct {
	out io.Writer

	messageStyle lipgloss.Style
	titleStyle   lipgloss.Style
	boxStyle     lipgloss.Style
}

// NewTerminalNotifier writes notices to out (stdout if nil).
func NewTerminalNotifier(out io.Writer) *TerminalNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &TerminalNotifier{
		out: out,
		messageStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		boxStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("242")).
			Padding(0, 1),
	}
}

// ShowMessage prints a one-line notice.
func (n *TerminalNotifier) ShowMessage(text string) {
	fmt.Fprintln(n.out, n.messageStyle.Render("» "+text))
}

// Inform prints a titled dialog box.
func (n *TerminalNotifier) Inform(title, text string) {
	fmt.Fprintln(n.out, n.boxStyle.Render(n.titleStyle.Render(title)+"\n"+text))
}
