package model

import (
	"fmt"
	"time"
)

// DateLayout is the on-disk and display layout for appointment dates.
const DateLayout = "2006-01-02"

// Appointment represents one booked cleaning visit.
type Appointment struct {
	ID                 string
	CustomerName       string
	Address            string
	Date               time.Time // calendar day at 00:00 UTC
	StartTime          string    // HH:MM
	EndTime            string    // HH:MM
	StaffName          string
	DaysSinceLastVisit Recency
}

// DateString returns the appointment date as YYYY-MM-DD.
func (a Appointment) DateString() string {
	return a.Date.Format(DateLayout)
}

// Recency is the days-since-last-visit value frozen at booking time.
// The zero value is a first visit.
type Recency struct {
	days  int
	known bool
}

// FirstVisit returns the sentinel recency for a customer with no prior visit.
func FirstVisit() Recency {
	return Recency{}
}

// DaysAgo returns a recency of n whole days. Negative values clamp to zero.
func DaysAgo(n int) Recency {
	if n < 0 {
		n = 0
	}
	return Recency{days: n, known: true}
}

// IsFirstVisit reports whether r is the first-visit sentinel.
func (r Recency) IsFirstVisit() bool {
	return !r.known
}

// Days returns the day count and whether one exists.
func (r Recency) Days() (int, bool) {
	return r.days, r.known
}

// String renders the stored form: "First visit" or a plain integer.
func (r Recency) String() string {
	if !r.known {
		return FirstVisitLabel
	}
	return fmt.Sprintf("%d", r.days)
}

// FirstVisitLabel is the literal stored for the first-visit sentinel.
const FirstVisitLabel = "First visit"

// NewAppointment represents form data for booking an appointment.
type NewAppointment struct {
	CustomerName string
	Address      string
	Date         time.Time
	StartTime    string
	EndTime      string
	StaffName    string
}

// UpdateAppointment represents form data for editing an appointment.
type UpdateAppointment struct {
	ID           string
	CustomerName string
	Address      string
	Date         time.Time
	StartTime    string
	EndTime      string
	StaffName    string
}

// VisitSummary is the history / today / next view for one customer.
type VisitSummary struct {
	CustomerName string
	Reference    time.Time
	Past         *Appointment
	Current      *Appointment
	Upcoming     *Appointment
	SameDayExtra int // additional rows on the reference date not shown as Current
}

// CustomerRow represents a distinct customer with aggregate stats for list display.
type CustomerRow struct {
	Name         string
	Address      string
	Appointments int
	LastVisit    *time.Time
	NextVisit    *time.Time
}

// Change carries whole-ledger snapshots around one mutation.
type Change struct {
	Label  string
	Before []Appointment
	After  []Appointment
}
