package ui

import (
	"fmt"
	"strconv"
	"time"

	"lotta/internal/ledger"
	"lotta/internal/model"
	"lotta/internal/util"
)

// CustomersModel lists distinct customers with visit counts.
type CustomersModel struct {
	*tableModel[model.CustomerRow]
	today time.Time
}

// NewCustomersModel creates the customers table.
func NewCustomersModel(records []model.Appointment, today time.Time) *CustomersModel {
	columns := []column{
		{key: "name", label: "Customer", width: 22},
		{key: "address", label: "Address", width: 30},
		{key: "count", label: "Visits", width: 8},
		{key: "last", label: "Last visit", width: 16},
		{key: "next", label: "Next visit", width: 16},
	}
	m := &CustomersModel{tableModel: newTableModel(columns, customerValue)}
	m.SetAppointments(records, today)
	return m
}

func customerValue(c model.CustomerRow, key string) string {
	switch key {
	case "name":
		return c.Name
	case "address":
		return c.Address
	case "count":
		return fmt.Sprintf("%06d", c.Appointments)
	case "last":
		return optionalDate(c.LastVisit)
	case "next":
		return optionalDate(c.NextVisit)
	default:
		return ""
	}
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return util.FormatDate(*t)
}

// SetAppointments rebuilds the customer rows from the ledger.
func (m *CustomersModel) SetAppointments(records []model.Appointment, today time.Time) {
	m.today = ledger.Day(today)
	m.SetRows(ledger.Customers(records, today))
}

func (m *CustomersModel) cell(c model.CustomerRow, col column) string {
	switch col.key {
	case "name":
		return util.TruncateString(c.Name, col.width)
	case "address":
		return util.TruncateString(c.Address, col.width+10)
	case "count":
		return strconv.Itoa(c.Appointments)
	case "last":
		if c.LastVisit == nil {
			return "—"
		}
		return util.FormatDateHuman(*c.LastVisit, m.today)
	case "next":
		if c.NextVisit == nil {
			return "—"
		}
		return util.FormatDateHuman(*c.NextVisit, m.today)
	default:
		return ""
	}
}

// View renders the customers list.
func (m *CustomersModel) View(width, height int) string {
	if len(m.allRows) == 0 {
		return EmptyStateStyle.Render("No customers yet. Book an appointment to add one.")
	}
	status := fmt.Sprintf("%d customers", len(m.rows))
	return m.render(width, height, m.cell, status)
}
