package ui

import (
	"fmt"
	"strings"
	"time"

	"lotta/internal/model"
	"lotta/internal/util"

	"github.com/charmbracelet/lipgloss"
)

// CustomerDetailModel shows one customer's appointments and visit summary.
type CustomerDetailModel struct {
	customer     model.CustomerRow
	appointments []model.Appointment
	summary      model.VisitSummary
	today        time.Time
	cursor       int
}

// NewCustomerDetailModel creates a new customer detail model.
func NewCustomerDetailModel(c model.CustomerRow, appointments []model.Appointment, summary model.VisitSummary, today time.Time) *CustomerDetailModel {
	return &CustomerDetailModel{
		customer:     c,
		appointments: appointments,
		summary:      summary,
		today:        today,
	}
}

// Selected returns the appointment under the cursor.
func (m *CustomerDetailModel) Selected() (model.Appointment, bool) {
	if m.cursor >= len(m.appointments) {
		return model.Appointment{}, false
	}
	return m.appointments[m.cursor], true
}

func (m *CustomerDetailModel) MoveDown() {
	if m.cursor < len(m.appointments)-1 {
		m.cursor++
	}
}

func (m *CustomerDetailModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

// View renders the customer detail.
func (m *CustomerDetailModel) View(width, height int) string {
	var sections []string

	shortcuts := HelpDescStyle.Render("a book  enter open  D cancel all  h back")

	var fields []string
	fields = append(fields, renderField("Customer", m.customer.Name))
	fields = append(fields, renderField("Address", m.customer.Address))
	fields = append(fields, renderField("Appointments", fmt.Sprintf("%d", len(m.appointments))))
	sections = append(sections, strings.Join(fields, "\n"))

	sections = append(sections, renderDivider(width))
	sections = append(sections, renderSummary(m.summary))
	sections = append(sections, renderDivider(width))

	if len(m.appointments) == 0 {
		sections = append(sections, HelpDescStyle.Render("No appointments for this customer"))
	} else {
		maxRows := max(3, height-22)
		start := 0
		if m.cursor >= maxRows {
			start = m.cursor - maxRows + 1
		}
		var rows []string
		for i := start; i < len(m.appointments) && i < start+maxRows; i++ {
			a := m.appointments[i]
			style := NormalRowStyle
			if i == m.cursor {
				style = SelectedRowStyle
			}
			line := fmt.Sprintf("%-12s  %-11s  %-12s  %s",
				util.FormatDateHuman(a.Date, m.today),
				util.FormatTimeRange(a.StartTime, a.EndTime),
				a.StaffName,
				util.FormatRecency(a.DaysSinceLastVisit),
			)
			rows = append(rows, style.Width(max(10, width-12)).Render(line))
		}
		sections = append(sections, LabelStyle.Render("Appointments")+"\n"+strings.Join(rows, "\n"))
	}

	content := PanelStyle.
		Width(width - 4).
		Render(strings.Join(sections, "\n\n"))

	header := lipgloss.NewStyle().
		Width(width - 4).
		Align(lipgloss.Right).
		Render(shortcuts)

	return lipgloss.JoinVertical(lipgloss.Left, header, content)
}
