package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/stratusadmin/notify/pkg/notification"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	messageStyle = lipgloss.NewStyle().Faint(true)
	subtleStyle  = lipgloss.NewStyle().Faint(true).Italic(true)
	unreadMark   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Render("●")
	readMark     = lipgloss.NewStyle().Faint(true).Render("○")

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	typeColors = map[notification.Type]lipgloss.Color{
		notification.TypeInfo:    lipgloss.Color("12"),
		notification.TypeWarning: lipgloss.Color("11"),
		notification.TypeError:   lipgloss.Color("9"),
		notification.TypeSuccess: lipgloss.Color("10"),
		notification.TypeSystem:  lipgloss.Color("13"),
		notification.TypeBilling: lipgloss.Color("14"),
		notification.TypeCompany: lipgloss.Color("6"),
		notification.TypeUser:    lipgloss.Color("5"),
	}
)

func renderType(t notification.Type) string {
	color, ok := typeColors[t]
	if !ok {
		color = lipgloss.Color("7")
	}
	return lipgloss.NewStyle().Foreground(color).Render("[" + string(t) + "]")
}

func renderNotification(n notification.Notification) string {
	mark := readMark
	if !n.IsRead {
		mark = unreadMark
	}
	return fmt.Sprintf("%s %s %s %s  %s",
		mark,
		subtleStyle.Render(n.CreatedAt.Format("2006-01-02 15:04")),
		renderType(n.Type),
		titleStyle.Render(n.Title),
		messageStyle.Render(n.Message),
	)
}

func renderSummary(unread, page, totalPages int) string {
	return subtleStyle.Render(
		fmt.Sprintf("%d unread · page %d/%d", unread, page, totalPages))
}

// terminalAlerter renders center alerts to the terminal, standing in for
// the dashboard's toast layer.
type terminalAlerter struct {
	out io.Writer
}

func newTerminalAlerter(out io.Writer) *terminalAlerter {
	return &terminalAlerter{out: out}
}

func (a *terminalAlerter) Success(msg string) {
	fmt.Fprintln(a.out, successStyle.Render("✔ "+msg))
}

func (a *terminalAlerter) Error(msg string) {
	fmt.Fprintln(a.out, errorStyle.Render("✘ "+msg))
}

func (a *terminalAlerter) Notification(title, message string) {
	fmt.Fprintf(a.out, "%s %s  %s\n", unreadMark, titleStyle.Render(title), messageStyle.Render(message))
}
