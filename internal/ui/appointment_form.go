package ui

import (
	"fmt"
	"strings"

	"lotta/internal/ledger"
	"lotta/internal/model"
	"lotta/internal/util"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	fieldCustomer = iota
	fieldAddress
	fieldDate
	fieldStart
	fieldEnd
	fieldStaff
	fieldCount
)

const maxSuggestions = 6

// AppointmentFormModel books a new appointment or edits an existing one.
type AppointmentFormModel struct {
	svc           *ledger.Service
	appointmentID string
	focusedField  int
	inputs        []textinput.Model
	staffPool     []string
	keys          FormKeyMap

	// Customer suggestions from the ledger
	customers    []model.CustomerRow
	suggestions  []model.CustomerRow
	suggestCur   int
	showDropdown bool

	saving  bool
	spinner spinner.Model
}

// NewAppointmentFormModel creates an empty booking form. The date defaults
// to today and the staff field to the first pool member.
func NewAppointmentFormModel(svc *ledger.Service, records []model.Appointment, staffPool []string) *AppointmentFormModel {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldCustomer] = textinput.New()
	inputs[fieldCustomer].Placeholder = "Customer name..."
	inputs[fieldCustomer].CharLimit = 100
	inputs[fieldCustomer].Focus()

	inputs[fieldAddress] = textinput.New()
	inputs[fieldAddress].Placeholder = "Street 1, 451 30 Uddevalla"
	inputs[fieldAddress].CharLimit = 200

	inputs[fieldDate] = textinput.New()
	inputs[fieldDate].Placeholder = "YYYY-MM-DD"
	inputs[fieldDate].CharLimit = 32
	inputs[fieldDate].SetValue(svc.Today().Format(model.DateLayout))

	inputs[fieldStart] = textinput.New()
	inputs[fieldStart].Placeholder = "09:00"
	inputs[fieldStart].CharLimit = 5

	inputs[fieldEnd] = textinput.New()
	inputs[fieldEnd].Placeholder = "11:00"
	inputs[fieldEnd].CharLimit = 5

	inputs[fieldStaff] = textinput.New()
	inputs[fieldStaff].Placeholder = "Staff member"
	inputs[fieldStaff].CharLimit = 50

	pool := mergeStaff(staffPool, ledger.StaffNames(records))
	if len(pool) > 0 {
		inputs[fieldStaff].SetValue(pool[0])
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &AppointmentFormModel{
		svc:       svc,
		inputs:    inputs,
		staffPool: pool,
		keys:      DefaultFormKeyMap(),
		customers: ledger.Customers(records, svc.Today()),
		spinner:   sp,
	}
}

func mergeStaff(pool, seen []string) []string {
	out := append([]string(nil), pool...)
	have := make(map[string]bool, len(out))
	for _, s := range out {
		have[strings.ToLower(s)] = true
	}
	for _, s := range seen {
		if !have[strings.ToLower(s)] {
			have[strings.ToLower(s)] = true
			out = append(out, s)
		}
	}
	return out
}

// Prefill fills the customer fields and moves focus to the date.
func (m *AppointmentFormModel) Prefill(name, address string) {
	m.inputs[fieldCustomer].SetValue(name)
	m.inputs[fieldAddress].SetValue(address)
	m.focus(fieldDate)
}

// LoadAppointment switches the form to editing a.
func (m *AppointmentFormModel) LoadAppointment(a model.Appointment) {
	m.appointmentID = a.ID
	m.inputs[fieldCustomer].SetValue(a.CustomerName)
	m.inputs[fieldAddress].SetValue(a.Address)
	m.inputs[fieldDate].SetValue(a.DateString())
	m.inputs[fieldStart].SetValue(a.StartTime)
	m.inputs[fieldEnd].SetValue(a.EndTime)
	m.inputs[fieldStaff].SetValue(a.StaffName)
	m.focus(fieldDate)
}

// Editing reports whether the form edits an existing appointment.
func (m *AppointmentFormModel) Editing() bool {
	return m.appointmentID != ""
}

// Update handles all messages.
func (m AppointmentFormModel) Update(msg tea.Msg) (AppointmentFormModel, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		if !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.saving {
		return m, nil
	}

	if m.showDropdown && m.focusedField == fieldCustomer {
		switch keyMsg.String() {
		case "esc":
			m.showDropdown = false
			return m, nil
		case "down", "ctrl+n":
			if m.suggestCur < len(m.suggestions)-1 {
				m.suggestCur++
			}
			return m, nil
		case "up", "ctrl+p":
			if m.suggestCur > 0 {
				m.suggestCur--
			}
			return m, nil
		case "enter", "tab":
			if m.suggestCur < len(m.suggestions) {
				m.selectSuggestion(m.suggestions[m.suggestCur])
			}
			return m, nil
		}
	}

	switch {
	case key.Matches(keyMsg, m.keys.Cancel):
		return m, func() tea.Msg { return model.FormCancelledMsg{} }
	case key.Matches(keyMsg, m.keys.Save):
		cmd := m.save()
		m.saving = true
		return m, tea.Batch(m.spinner.Tick, cmd)
	case key.Matches(keyMsg, m.keys.NextField):
		m.nextField()
		return m, nil
	case key.Matches(keyMsg, m.keys.PrevField):
		m.prevField()
		return m, nil
	}

	if m.focusedField == fieldStaff && len(m.staffPool) > 0 {
		switch keyMsg.String() {
		case "left":
			m.cycleStaff(-1)
			return m, nil
		case "right":
			m.cycleStaff(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focusedField], cmd = m.inputs[m.focusedField].Update(keyMsg)

	if m.focusedField == fieldCustomer {
		m.refreshSuggestions()
	}
	return m, cmd
}

func (m *AppointmentFormModel) refreshSuggestions() {
	query := strings.ToLower(strings.TrimSpace(m.inputs[fieldCustomer].Value()))
	m.suggestions = nil
	m.suggestCur = 0
	if len(query) < 2 {
		m.showDropdown = false
		return
	}
	for _, c := range m.customers {
		if strings.Contains(strings.ToLower(c.Name), query) {
			m.suggestions = append(m.suggestions, c)
			if len(m.suggestions) == maxSuggestions {
				break
			}
		}
	}
	m.showDropdown = len(m.suggestions) > 0
}

func (m *AppointmentFormModel) selectSuggestion(c model.CustomerRow) {
	m.inputs[fieldCustomer].SetValue(c.Name)
	m.inputs[fieldAddress].SetValue(c.Address)
	m.showDropdown = false
	m.focus(fieldDate)
}

func (m *AppointmentFormModel) cycleStaff(step int) {
	current := strings.TrimSpace(m.inputs[fieldStaff].Value())
	idx := -1
	for i, s := range m.staffPool {
		if strings.EqualFold(s, current) {
			idx = i
			break
		}
	}
	n := len(m.staffPool)
	idx = ((idx+step)%n + n) % n
	m.inputs[fieldStaff].SetValue(m.staffPool[idx])
	m.inputs[fieldStaff].CursorEnd()
}

func (m *AppointmentFormModel) focus(field int) {
	m.inputs[m.focusedField].Blur()
	m.focusedField = field
	m.inputs[m.focusedField].Focus()
}

func (m *AppointmentFormModel) nextField() {
	m.showDropdown = false
	m.focus((m.focusedField + 1) % len(m.inputs))
}

func (m *AppointmentFormModel) prevField() {
	m.showDropdown = false
	field := m.focusedField - 1
	if field < 0 {
		field = len(m.inputs) - 1
	}
	m.focus(field)
}

// parse turns the inputs into a booking. Field-level format errors are
// reported here; required fields and time ordering are left to the ledger.
func (m *AppointmentFormModel) parse() (model.NewAppointment, error) {
	n := model.NewAppointment{
		CustomerName: strings.TrimSpace(m.inputs[fieldCustomer].Value()),
		Address:      strings.TrimSpace(m.inputs[fieldAddress].Value()),
		StaffName:    strings.TrimSpace(m.inputs[fieldStaff].Value()),
	}

	date, err := util.ParseDateInput(m.inputs[fieldDate].Value())
	if err != nil {
		return n, &model.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	n.Date = date

	n.StartTime, err = util.ParseClockInput(m.inputs[fieldStart].Value())
	if err != nil {
		return n, &model.ValidationError{Field: "start time", Message: "must be HH:MM"}
	}
	n.EndTime, err = util.ParseClockInput(m.inputs[fieldEnd].Value())
	if err != nil {
		return n, &model.ValidationError{Field: "end time", Message: "must be HH:MM"}
	}
	return n, nil
}

func (m *AppointmentFormModel) save() tea.Cmd {
	n, parseErr := m.parse()
	id := m.appointmentID
	svc := m.svc

	return func() tea.Msg {
		if parseErr != nil {
			return model.ErrorMsg{Err: parseErr}
		}

		if id != "" {
			appt, change, err := svc.Update(model.UpdateAppointment{
				ID:           id,
				CustomerName: n.CustomerName,
				Address:      n.Address,
				Date:         n.Date,
				StartTime:    n.StartTime,
				EndTime:      n.EndTime,
				StaffName:    n.StaffName,
			})
			if err != nil {
				return model.ErrorMsg{Err: err}
			}
			return model.AppointmentSavedMsg{ID: appt.ID, Operation: "update", Change: change}
		}

		appt, change, err := svc.Book(n)
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		return model.AppointmentSavedMsg{ID: appt.ID, Operation: "insert", Change: change}
	}
}

// View renders the form.
func (m *AppointmentFormModel) View(width, height int) string {
	var fields []string

	customerField := renderFormField("Customer *", m.inputs[fieldCustomer], m.focusedField == fieldCustomer)
	if m.showDropdown && m.focusedField == fieldCustomer {
		customerField = lipgloss.JoinVertical(lipgloss.Left, customerField, m.renderDropdown(width-8))
	}
	fields = append(fields, customerField)
	fields = append(fields, renderFormField("Address *", m.inputs[fieldAddress], m.focusedField == fieldAddress))
	fields = append(fields, renderFormField("Date *", m.inputs[fieldDate], m.focusedField == fieldDate))

	times := lipgloss.JoinHorizontal(lipgloss.Top,
		renderFormField("Start *", m.inputs[fieldStart], m.focusedField == fieldStart),
		"  ",
		renderFormField("End *", m.inputs[fieldEnd], m.focusedField == fieldEnd),
	)
	fields = append(fields, times)

	staffLabel := "Staff *"
	if len(m.staffPool) > 0 {
		staffLabel = fmt.Sprintf("Staff * (←/→ %s)", strings.Join(m.staffPool, ", "))
	}
	fields = append(fields, renderFormField(staffLabel, m.inputs[fieldStaff], m.focusedField == fieldStaff))

	if m.saving {
		fields = append(fields, HelpDescStyle.Render(m.spinner.View()+" Saving..."))
	}

	return PanelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(strings.Join(fields, "\n"))
}

func (m *AppointmentFormModel) renderDropdown(width int) string {
	var items []string
	for i, c := range m.suggestions {
		style := NormalRowStyle
		if i == m.suggestCur {
			style = DropdownSelectedStyle
		}
		left := util.TruncateString(c.Name, 30)
		right := HelpDescStyle.Render(util.TruncateString(c.Address, 40))
		lineWidth := max(10, width-4)
		padding := max(0, lineWidth-lipgloss.Width(left)-lipgloss.Width(right))
		items = append(items, style.Width(lineWidth).Render(left+strings.Repeat(" ", padding)+right))
	}
	return DropdownStyle.Width(width).Render(strings.Join(items, "\n"))
}

func renderFormField(label string, input textinput.Model, focused bool) string {
	style := InputBorderStyle
	if focused {
		style = ActiveInputStyle
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, LabelStyle.Render(label), input.View()))
}

// formTitle is shown in the breadcrumb.
func (m *AppointmentFormModel) formTitle() string {
	if m.Editing() {
		return "Edit appointment"
	}
	return "Book appointment"
}
