package ui

import (
	"fmt"
	"strings"
	"time"

	"lotta/internal/model"
	"lotta/internal/util"

	"github.com/charmbracelet/lipgloss"
)

// AppointmentDetailModel represents the appointment detail screen.
type AppointmentDetailModel struct {
	appointment model.Appointment
	summary     model.VisitSummary
}

// NewAppointmentDetailModel creates a new appointment detail model.
func NewAppointmentDetailModel(a model.Appointment, summary model.VisitSummary) *AppointmentDetailModel {
	return &AppointmentDetailModel{appointment: a, summary: summary}
}

// View renders the appointment detail.
func (m *AppointmentDetailModel) View(width, height int) string {
	a := m.appointment
	var sections []string

	shortcuts := HelpDescStyle.Render("e edit  d cancel  c customer  h back")

	var fields []string
	fields = append(fields, renderField("Customer", a.CustomerName))
	fields = append(fields, renderField("Address", a.Address))
	fields = append(fields, renderField("Date", util.FormatWeekday(a.Date)+"  ·  "+util.FormatDate(a.Date)))
	fields = append(fields, renderField("Time", util.FormatTimeRange(a.StartTime, a.EndTime)))
	fields = append(fields, renderField("Staff", a.StaffName))

	recency := util.FormatRecency(a.DaysSinceLastVisit)
	if a.DaysSinceLastVisit.IsFirstVisit() {
		recency = lipgloss.NewStyle().Foreground(ColorGreen).Render(recency)
	}
	fields = append(fields, LabelStyle.Render("Since last visit:")+" "+recency)
	sections = append(sections, strings.Join(fields, "\n"))

	sections = append(sections, renderDivider(width))
	sections = append(sections, renderSummary(m.summary))

	content := PanelStyle.
		Width(width - 4).
		Render(strings.Join(sections, "\n\n"))

	header := lipgloss.NewStyle().
		Width(width - 4).
		Align(lipgloss.Right).
		Render(shortcuts)

	return lipgloss.JoinVertical(lipgloss.Left, header, content)
}

// renderSummary draws the previous / today / next lines for a customer.
func renderSummary(s model.VisitSummary) string {
	lines := []string{
		LabelStyle.Render(fmt.Sprintf("Visits around %s", util.FormatDate(s.Reference))),
		summaryLine("Previous", s.Past, s.Reference),
		summaryLine("Today", s.Current, s.Reference),
		summaryLine("Next", s.Upcoming, s.Reference),
	}
	if s.SameDayExtra > 0 {
		lines = append(lines, WarningStyle.Render(fmt.Sprintf("+%d more on the same day", s.SameDayExtra)))
	}
	return strings.Join(lines, "\n")
}

func summaryLine(label string, a *model.Appointment, ref time.Time) string {
	if a == nil {
		return renderField(label, "")
	}
	value := fmt.Sprintf("%s  %s  %s",
		util.FormatDateHuman(a.Date, ref),
		util.FormatTimeRange(a.StartTime, a.EndTime),
		a.StaffName,
	)
	return renderField(label, value)
}

func renderField(label, value string) string {
	if value == "" {
		value = "—"
	}
	return LabelStyle.Render(label+":") + " " + NormalRowStyle.Render(value)
}

func renderDivider(width int) string {
	return lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render(strings.Repeat("─", max(0, width-8)))
}
