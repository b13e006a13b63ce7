package ui

import (
	"fmt"
	"time"

	"lotta/internal/ledger"
	"lotta/internal/model"
	"lotta/internal/util"
)

// AppointmentsModel is the main ledger table with an optional date window.
type AppointmentsModel struct {
	*tableModel[model.Appointment]

	all      []model.Appointment
	today    time.Time
	windowOn bool
	center   time.Time
	days     int
}

// NewAppointmentsModel creates the appointments table.
func NewAppointmentsModel(records []model.Appointment, today time.Time) *AppointmentsModel {
	columns := []column{
		{key: "date", label: "Date", width: 18},
		{key: "name", label: "Customer", width: 22},
		{key: "address", label: "Address", width: 28},
		{key: "time", label: "Time", width: 14},
		{key: "staff", label: "Staff", width: 10},
		{key: "recency", label: "Last visit", width: 12},
	}
	m := &AppointmentsModel{
		tableModel: newTableModel(columns, appointmentValue),
		today:      ledger.Day(today),
		center:     ledger.Day(today),
		days:       ledger.DefaultWindowDays,
	}
	m.SetAppointments(records, today)
	return m
}

func appointmentValue(a model.Appointment, key string) string {
	switch key {
	case "date":
		return a.DateString() + " " + a.StartTime
	case "name":
		return a.CustomerName
	case "address":
		return a.Address
	case "time":
		return a.StartTime + "-" + a.EndTime
	case "staff":
		return a.StaffName
	case "recency":
		if days, ok := a.DaysSinceLastVisit.Days(); ok {
			return fmt.Sprintf("%06d", days)
		}
		return ""
	default:
		return ""
	}
}

// SetAppointments replaces the ledger shown by the table.
func (m *AppointmentsModel) SetAppointments(records []model.Appointment, today time.Time) {
	m.all = records
	m.today = ledger.Day(today)
	m.refresh()
}

func (m *AppointmentsModel) refresh() {
	if m.windowOn {
		m.SetRows(ledger.FilterWindow(m.all, m.center, m.days))
		return
	}
	m.SetRows(m.all)
}

// ToggleWindow switches between the whole ledger and the date window.
func (m *AppointmentsModel) ToggleWindow() {
	m.windowOn = !m.windowOn
	m.refresh()
}

// ShiftWindow moves the window center by n days and turns the window on.
func (m *AppointmentsModel) ShiftWindow(n int) {
	m.windowOn = true
	m.center = m.center.AddDate(0, 0, n)
	m.refresh()
}

// ResetWindow recenters the window on today.
func (m *AppointmentsModel) ResetWindow() {
	m.windowOn = true
	m.center = m.today
	m.refresh()
}

// WindowLabel describes what the table currently shows.
func (m *AppointmentsModel) WindowLabel() string {
	if !m.windowOn {
		return "all dates"
	}
	from := m.center.AddDate(0, 0, -m.days)
	to := m.center.AddDate(0, 0, m.days)
	return fmt.Sprintf("%s to %s", util.FormatWeekday(from), util.FormatWeekday(to))
}

func (m *AppointmentsModel) cell(a model.Appointment, col column) string {
	switch col.key {
	case "date":
		return util.FormatDateHuman(a.Date, m.today)
	case "name":
		return util.TruncateString(a.CustomerName, col.width)
	case "address":
		return util.TruncateString(a.Address, col.width+10)
	case "time":
		return util.FormatTimeRange(a.StartTime, a.EndTime)
	case "staff":
		return a.StaffName
	case "recency":
		return util.FormatRecency(a.DaysSinceLastVisit)
	default:
		return ""
	}
}

// View renders the appointments list.
func (m *AppointmentsModel) View(width, height int) string {
	if len(m.all) == 0 {
		return EmptyStateStyle.Render("No appointments yet. Press 'a' to book one.")
	}
	if len(m.rows) == 0 {
		return EmptyStateStyle.Render(fmt.Sprintf("No appointments %s. Press 'w' to show all dates.", m.WindowLabel()))
	}
	status := fmt.Sprintf("%d appointments  ·  %s", len(m.rows), m.WindowLabel())
	return m.render(width, height, m.cell, status)
}
