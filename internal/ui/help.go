package ui

import (
	"strings"

	"lotta/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(keys KeyMap, formKeys FormKeyMap, screen model.Screen, mode model.Mode, width int) string {
	if mode == model.ModeInsert {
		return renderHelpLine([]string{
			helpBinding(formKeys.NextField),
			helpBinding(formKeys.PrevField),
			helpKey("←/→", "staff"),
			helpBinding(formKeys.Save),
			helpBinding(formKeys.Cancel),
		}, width)
	}

	switch screen {
	case model.ScreenAppointments:
		return renderHelpLine([]string{
			helpKey("j/k", "navigate"),
			helpBinding(keys.Book),
			helpKey("enter", "details"),
			helpBinding(keys.ToggleWindow),
			helpKey("[/]", "shift window"),
			helpBinding(keys.WindowToday),
			helpKey("s/S", "sort"),
			helpKey("n/N", "filter"),
			helpKey("u/ctrl+r", "undo/redo"),
			helpKey("→", "customers"),
		}, width)
	case model.ScreenCustomers:
		return renderHelpLine([]string{
			helpKey("j/k", "navigate"),
			helpBinding(keys.Book),
			helpKey("enter", "details"),
			helpBinding(keys.CancelCustomer),
			helpKey("s/S", "sort"),
			helpKey("c/C", "hide/show col"),
			helpKey("u/ctrl+r", "undo/redo"),
			helpKey("←", "appointments"),
		}, width)
	case model.ScreenAppointmentDetail:
		return renderHelpLine([]string{
			helpBinding(keys.Back),
			helpBinding(keys.Edit),
			helpBinding(keys.Cancel),
			helpBinding(keys.OpenCustomer),
		}, width)
	case model.ScreenCustomerDetail:
		return renderHelpLine([]string{
			helpBinding(keys.Back),
			helpKey("j/k", "navigate"),
			helpKey("enter", "open appt"),
			helpBinding(keys.Book),
			helpBinding(keys.CancelCustomer),
		}, width)
	default:
		return renderHelpLine([]string{
			helpKey("j/k", "navigate"),
			helpKey("h/l", "back/select"),
			helpBinding(keys.Quit),
		}, width)
	}
}

func helpBinding(b key.Binding) string {
	h := b.Help()
	return helpKey(h.Key, h.Desc)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Navigation"),
		helpSection([]helpItem{
			{"j / ↓", "Move down"},
			{"k / ↑", "Move up"},
			{"h / b / esc", "Go back"},
			{"l / enter", "Open / select"},
			{"← / →", "Switch tab"},
			{"tab / shift+tab", "Cycle active column"},
			{"/ then 1-9", "Jump to column"},
			{"s / S", "Sort active column asc/desc"},
			{"c / C", "Hide active column / show all"},
			{"n / N", "Filter by selected value / clear"},
			{"gg / G", "Jump to top / bottom"},
			{"ctrl+d / ctrl+u", "Half page down / up"},
			{"u / ctrl+r", "Undo / redo"},
			{"ctrl+l", "Reload from disk"},
			{"q", "Quit (from a tab)"},
			{"?", "Toggle help"},
		}),
		titleSection("Appointments"),
		helpSection([]helpItem{
			{"a", "Book appointment"},
			{"w", "Toggle ±3 day window"},
			{"[ / ]", "Move window one day back / forward"},
			{"t", "Center window on today"},
			{"enter", "Open appointment"},
		}),
		titleSection("Appointment Detail"),
		helpSection([]helpItem{
			{"e", "Edit appointment"},
			{"d", "Cancel this appointment"},
			{"c", "Open customer"},
		}),
		titleSection("Customers"),
		helpSection([]helpItem{
			{"a", "Book for selected customer"},
			{"enter", "Open customer"},
			{"D D", "Cancel every appointment for customer"},
		}),
		titleSection("Booking Form"),
		helpSection([]helpItem{
			{"tab / shift+tab", "Next / previous field"},
			{"↑ / ↓ then enter", "Pick a known customer"},
			{"← / →", "Cycle staff (on staff field)"},
			{"ctrl+s", "Save"},
			{"esc", "Cancel"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
