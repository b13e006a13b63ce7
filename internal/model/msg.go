package model

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// LedgerLoadedMsg is sent when the appointment ledger is loaded.
type LedgerLoadedMsg struct {
	Appointments []Appointment
}

// AppointmentDetailLoadedMsg is sent when an appointment detail is loaded.
type AppointmentDetailLoadedMsg struct {
	Appointment Appointment
	Summary     VisitSummary
}

// CustomerDetailLoadedMsg is sent when a customer detail is loaded.
type CustomerDetailLoadedMsg struct {
	Customer     CustomerRow
	Appointments []Appointment
	Summary      VisitSummary
}

// AppointmentSavedMsg is sent when an appointment is successfully saved.
type AppointmentSavedMsg struct {
	ID        string
	Operation string // insert, update
	Change    Change
}

// AppointmentCancelledMsg is sent when a single appointment is cancelled.
type AppointmentCancelledMsg struct {
	ID     string
	Change Change
}

// CustomerCancelledMsg is sent when every appointment of a customer is cancelled.
type CustomerCancelledMsg struct {
	Name   string
	Count  int
	Change Change
}

// FormCancelledMsg is sent when a form is cancelled.
type FormCancelledMsg struct{}

// Screen represents different app screens.
type Screen int

const (
	ScreenAppointments Screen = iota
	ScreenCustomers
	ScreenAppointmentDetail
	ScreenCustomerDetail
	ScreenAppointmentForm
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNav Mode = iota
	ModeInsert
)
