package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lotta/internal/ledger"
	"lotta/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the root Bubble Tea model.
type Model struct {
	svc       *ledger.Service
	staffPool []string
	prefsPath string

	screen       model.Screen
	tabScreen    model.Screen // last top-level tab
	detailReturn model.Screen
	formReturn   model.Screen
	mode         model.Mode
	gState       GState

	width  int
	height int

	error         string
	info          string
	showingHelp   bool
	columnJump    bool
	pendingCancel string // customer awaiting a second D

	records []model.Appointment

	// Screen models
	appointments      *AppointmentsModel
	customers         *CustomersModel
	appointmentDetail *AppointmentDetailModel
	customerDetail    *CustomerDetailModel
	form              *AppointmentFormModel

	keys      KeyMap
	formKeys  FormKeyMap
	prefs     UIPreferences
	undoStack []undoAction
	redoStack []undoAction
}

// New creates a new root model. An empty prefsPath disables persisted
// table preferences.
func New(svc *ledger.Service, staffPool []string, prefsPath string) Model {
	return Model{
		svc:       svc,
		staffPool: staffPool,
		prefsPath: prefsPath,
		screen:    model.ScreenAppointments,
		tabScreen: model.ScreenAppointments,
		mode:      model.ModeNav,
		gState:    GStateIdle,
		keys:      DefaultKeyMap(),
		formKeys:  DefaultFormKeyMap(),
		prefs:     loadUIPreferences(prefsPath),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return loadLedgerCmd(m.svc)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.mode == model.ModeNav && m.columnJump {
			if msg.String() == "esc" {
				m.columnJump = false
				m.info = ""
				return m, nil
			}
			if n, err := strconv.Atoi(msg.String()); err == nil {
				table := m.currentTable()
				if table != nil && table.JumpToColumn(n) {
					m.columnJump = false
					m.info = fmt.Sprintf("Jumped to column %d", n)
					m.persistCurrentTablePrefs()
					return m, nil
				}
				m.info = fmt.Sprintf("Column %d unavailable", n)
				return m, nil
			}
		}

		if m.mode == model.ModeNav && key.Matches(msg, m.keys.Help) {
			m.showingHelp = !m.showingHelp
			return m, nil
		}

		if m.showingHelp {
			if msg.String() == "esc" {
				m.showingHelp = false
			}
			return m, nil
		}

		if m.mode == model.ModeNav {
			return m.handleNavMode(msg)
		}
		return m.handleInsertMode(msg)

	case model.ErrorMsg:
		m.error = errorText(msg.Err)
		if m.form != nil {
			m.form.saving = false
		}
		return m, nil

	case model.LedgerLoadedMsg:
		m.applyLedger(msg.Appointments)
		m.error = ""
		return m, nil

	case model.AppointmentDetailLoadedMsg:
		m.appointmentDetail = NewAppointmentDetailModel(msg.Appointment, msg.Summary)
		m.screen = model.ScreenAppointmentDetail
		m.error = ""
		return m, nil

	case model.CustomerDetailLoadedMsg:
		m.customerDetail = NewCustomerDetailModel(msg.Customer, msg.Appointments, msg.Summary, m.svc.Today())
		m.screen = model.ScreenCustomerDetail
		m.error = ""
		return m, nil

	case model.AppointmentSavedMsg:
		m.pushUndoAction(snapshotAction(msg.Change))
		m.mode = model.ModeNav
		m.form = nil
		m.error = ""
		if msg.Operation == "update" {
			m.info = "Appointment updated (u to undo)"
		} else {
			m.info = "Appointment booked (u to undo)"
		}
		if m.formReturn == model.ScreenAppointmentDetail {
			m.screen = m.detailReturn
			return m, tea.Batch(loadLedgerCmd(m.svc), loadAppointmentDetailCmd(m.svc, msg.ID))
		}
		m.screen = m.formReturn
		return m, loadLedgerCmd(m.svc)

	case model.FormCancelledMsg:
		m.mode = model.ModeNav
		m.form = nil
		m.screen = m.formReturn
		return m, nil

	case model.AppointmentCancelledMsg:
		m.pushUndoAction(snapshotAction(msg.Change))
		m.screen = m.detailReturn
		m.appointmentDetail = nil
		m.info = "Appointment cancelled (u to undo)"
		return m, loadLedgerCmd(m.svc)

	case model.CustomerCancelledMsg:
		m.pushUndoAction(snapshotAction(msg.Change))
		m.screen = m.tabScreen
		m.customerDetail = nil
		m.appointmentDetail = nil
		m.info = fmt.Sprintf("Cancelled %d appointments for %s (u to undo)", msg.Count, msg.Name)
		return m, loadLedgerCmd(m.svc)

	case undoAppliedMsg:
		cmd := m.applyUndoResult(msg)
		return m, cmd

	default:
		if m.mode == model.ModeInsert {
			return m.handleInsertMode(msg)
		}
	}

	return m, nil
}

// applyLedger pushes freshly loaded rows into every screen model.
func (m *Model) applyLedger(records []model.Appointment) {
	m.records = records
	today := m.svc.Today()

	if m.appointments == nil {
		m.appointments = NewAppointmentsModel(records, today)
		m.appointments.ApplyPrefs(m.prefs.Appointments)
		if m.prefs.WindowOn {
			m.appointments.ToggleWindow()
		}
	} else {
		m.appointments.SetAppointments(records, today)
	}

	if m.customers == nil {
		m.customers = NewCustomersModel(records, today)
		m.customers.ApplyPrefs(m.prefs.Customers)
	} else {
		m.customers.SetAppointments(records, today)
	}

	if m.customerDetail != nil {
		c := m.customerDetail.customer
		row, appts, summary := customerDetail(records, c.Name, c.Address, today)
		if len(appts) == 0 {
			m.customerDetail = nil
			if m.screen == model.ScreenCustomerDetail {
				m.screen = m.tabScreen
			}
			return
		}
		cursor := m.customerDetail.cursor
		m.customerDetail = NewCustomerDetailModel(row, appts, summary, today)
		m.customerDetail.cursor = min(cursor, len(appts)-1)
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	showTabs := m.screen == model.ScreenAppointments || m.screen == model.ScreenCustomers

	contentHeight := m.height - 4
	if showTabs {
		contentHeight -= 2
	}
	if m.error != "" {
		contentHeight--
	}
	if m.info != "" {
		contentHeight--
	}

	var content string
	var breadcrumbParts []string

	switch m.screen {
	case model.ScreenAppointments:
		breadcrumbParts = []string{"Appointments"}
		if m.appointments != nil {
			content = m.appointments.View(m.width, contentHeight)
		}
	case model.ScreenCustomers:
		breadcrumbParts = []string{"Customers"}
		if m.customers != nil {
			content = m.customers.View(m.width, contentHeight)
		}
	case model.ScreenAppointmentDetail:
		breadcrumbParts = []string{tabName(m.tabScreen), "Appointment"}
		if m.appointmentDetail != nil {
			breadcrumbParts = []string{tabName(m.tabScreen), m.appointmentDetail.appointment.CustomerName}
			content = m.appointmentDetail.View(m.width, contentHeight)
		}
	case model.ScreenCustomerDetail:
		breadcrumbParts = []string{"Customers", "Detail"}
		if m.customerDetail != nil {
			breadcrumbParts = []string{"Customers", m.customerDetail.customer.Name}
			content = m.customerDetail.View(m.width, contentHeight)
		}
	case model.ScreenAppointmentForm:
		breadcrumbParts = []string{tabName(m.tabScreen), "Form"}
		if m.form != nil {
			breadcrumbParts = []string{tabName(m.tabScreen), m.form.formTitle()}
			content = m.form.View(m.width, contentHeight)
		}
	}

	header := renderHeader(breadcrumbParts, m.svc.Today().Format("Mon 02 Jan"), m.width)
	footer := RenderHelp(m.keys, m.formKeys, m.screen, m.mode, m.width)

	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Render(content)

	parts := []string{header}
	if showTabs {
		parts = append(parts, renderTabs(m.screen, m.width))
	}
	if m.error != "" {
		parts = append(parts, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.info != "" {
		parts = append(parts, SuccessStyle.Width(m.width).Render(m.info))
	}
	parts = append(parts, content, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func tabName(screen model.Screen) string {
	if screen == model.ScreenCustomers {
		return "Customers"
	}
	return "Appointments"
}

func renderTabs(screen model.Screen, width int) string {
	tabs := []model.Screen{model.ScreenAppointments, model.ScreenCustomers}

	var tabStrings []string
	for _, tab := range tabs {
		tabStyle := lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorMuted)

		if screen == tab {
			tabStyle = tabStyle.
				Foreground(ColorText).
				Bold(true).
				Underline(true)
		}

		tabStrings = append(tabStrings, tabStyle.Render(tabName(tab)))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabStrings...)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		Render(tabBar)
}

func renderHeader(breadcrumbParts []string, date string, width int) string {
	title := HeaderStyle.Render("lotta")

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := BreadcrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = BreadcrumbActiveStyle.Render(part)
			} else {
				parts[i] = BreadcrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}

	left := "  " + title + breadcrumb
	right := BreadcrumbStyle.Render(date) + "  "

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return TitleStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

// errorText renders validation errors without the wrapping chain.
func errorText(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return err.Error()
}

// handleNavMode handles navigation mode input.
func (m Model) handleNavMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingCancel != "" && !key.Matches(msg, m.keys.CancelCustomer) {
		m.pendingCancel = ""
		m.info = "Cancel aborted"
		return m, nil
	}

	if t := m.currentTable(); t != nil {
		switch {
		case key.Matches(msg, m.keys.NextColumn):
			t.NextColumn()
			m.persistCurrentTablePrefs()
			return m, nil
		case key.Matches(msg, m.keys.PrevColumn):
			t.PrevColumn()
			m.persistCurrentTablePrefs()
			return m, nil
		case key.Matches(msg, m.keys.ColumnJump):
			m.columnJump = true
			m.info = "Jump to column: press 1-9 (esc to cancel)"
			return m, nil
		case key.Matches(msg, m.keys.SortAsc):
			t.SortActiveColumn(false)
			m.info = "Sorted ascending"
			m.persistCurrentTablePrefs()
			return m, nil
		case key.Matches(msg, m.keys.SortDesc):
			t.SortActiveColumn(true)
			m.info = "Sorted descending"
			m.persistCurrentTablePrefs()
			return m, nil
		case key.Matches(msg, m.keys.HideColumn):
			if t.HideActiveColumn() {
				m.info = "Column hidden"
				m.persistCurrentTablePrefs()
			} else {
				m.info = "Cannot hide last visible column"
			}
			return m, nil
		case key.Matches(msg, m.keys.ShowColumns):
			t.ShowAllColumns()
			m.info = "All columns shown"
			m.persistCurrentTablePrefs()
			return m, nil
		case key.Matches(msg, m.keys.FilterValue):
			if t.FilterBySelectedValue() {
				m.info = "Filter applied from selected value"
			} else {
				m.info = "No filterable value in selected cell"
			}
			return m, nil
		case key.Matches(msg, m.keys.ClearFilter):
			if t.ClearFilter() {
				m.info = "Filter cleared"
			}
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Undo):
		if len(m.undoStack) == 0 {
			m.info = "Nothing to undo"
			return m, nil
		}
		cmd := m.undoCmd()
		return m, cmd
	case key.Matches(msg, m.keys.Redo):
		if len(m.redoStack) == 0 {
			m.info = "Nothing to redo"
			return m, nil
		}
		cmd := m.redoCmd()
		return m, cmd
	case key.Matches(msg, m.keys.Reload):
		m.info = "Reloaded"
		return m, loadLedgerCmd(m.svc)
	}

	if msg.String() == "g" {
		if m.gState == GStateFirstG {
			m.gState = GStateIdle
			if l := m.currentList(); l != nil {
				l.JumpToTop()
			}
			return m, nil
		}
		m.gState = GStateFirstG
		return m, nil
	}
	m.gState = GStateIdle

	switch m.screen {
	case model.ScreenAppointments:
		return m.handleAppointmentsNav(msg)
	case model.ScreenCustomers:
		return m.handleCustomersNav(msg)
	case model.ScreenAppointmentDetail:
		return m.handleAppointmentDetailNav(msg)
	case model.ScreenCustomerDetail:
		return m.handleCustomerDetailNav(msg)
	}

	return m, nil
}

type listNavigator interface {
	MoveDown()
	MoveUp()
	JumpToTop()
	JumpToBottom()
	HalfPageDown()
	HalfPageUp()
}

func (m *Model) currentList() listNavigator {
	switch m.screen {
	case model.ScreenAppointments:
		if m.appointments != nil {
			return m.appointments
		}
	case model.ScreenCustomers:
		if m.customers != nil {
			return m.customers
		}
	}
	return nil
}

func (m *Model) currentTable() tableController {
	switch m.screen {
	case model.ScreenAppointments:
		if m.appointments != nil {
			return m.appointments
		}
	case model.ScreenCustomers:
		if m.customers != nil {
			return m.customers
		}
	}
	return nil
}

func (m *Model) persistCurrentTablePrefs() {
	switch m.screen {
	case model.ScreenAppointments:
		if m.appointments != nil {
			m.prefs.Appointments = m.appointments.Prefs()
			m.prefs.WindowOn = m.appointments.windowOn
		}
	case model.ScreenCustomers:
		if m.customers != nil {
			m.prefs.Customers = m.customers.Prefs()
		}
	}
	_ = saveUIPreferences(m.prefsPath, m.prefs)
}

// handleInsertMode forwards input to the booking form.
func (m Model) handleInsertMode(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	newForm, cmd := m.form.Update(msg)
	m.form = &newForm
	return m, cmd
}

func (m *Model) openForm(returnTo model.Screen) *AppointmentFormModel {
	m.form = NewAppointmentFormModel(m.svc, m.records, m.staffPool)
	m.formReturn = returnTo
	m.mode = model.ModeInsert
	m.screen = model.ScreenAppointmentForm
	m.info = ""
	return m.form
}

// handleListNav covers movement shared by the two tabs.
func (m Model) handleListNav(msg tea.KeyMsg, l listNavigator) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true
	case key.Matches(msg, m.keys.PrevTab), key.Matches(msg, m.keys.NextTab):
		if m.screen == model.ScreenAppointments {
			m.screen = model.ScreenCustomers
		} else {
			m.screen = model.ScreenAppointments
		}
		m.tabScreen = m.screen
		return m, nil, true
	case key.Matches(msg, m.keys.Down):
		l.MoveDown()
		return m, nil, true
	case key.Matches(msg, m.keys.Up):
		l.MoveUp()
		return m, nil, true
	case key.Matches(msg, m.keys.Bottom):
		l.JumpToBottom()
		return m, nil, true
	case key.Matches(msg, m.keys.HalfPageDown):
		l.HalfPageDown()
		return m, nil, true
	case key.Matches(msg, m.keys.HalfPageUp):
		l.HalfPageUp()
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) handleAppointmentsNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.appointments == nil {
		return m, nil
	}
	if next, cmd, ok := m.handleListNav(msg, m.appointments); ok {
		return next, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Book):
		m.openForm(model.ScreenAppointments)
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if a, ok := m.appointments.Selected(); ok {
			m.detailReturn = model.ScreenAppointments
			return m, loadAppointmentDetailCmd(m.svc, a.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.ToggleWindow):
		m.appointments.ToggleWindow()
		m.info = "Showing " + m.appointments.WindowLabel()
		m.persistCurrentTablePrefs()
		return m, nil
	case key.Matches(msg, m.keys.WindowBack):
		m.appointments.ShiftWindow(-1)
		m.info = "Showing " + m.appointments.WindowLabel()
		return m, nil
	case key.Matches(msg, m.keys.WindowForward):
		m.appointments.ShiftWindow(1)
		m.info = "Showing " + m.appointments.WindowLabel()
		return m, nil
	case key.Matches(msg, m.keys.WindowToday):
		m.appointments.ResetWindow()
		m.info = "Showing " + m.appointments.WindowLabel()
		return m, nil
	}
	return m, nil
}

func (m Model) handleCustomersNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.customers == nil {
		return m, nil
	}
	if next, cmd, ok := m.handleListNav(msg, m.customers); ok {
		return next, cmd
	}

	c, ok := m.customers.Selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Book):
		m.openForm(model.ScreenCustomers).Prefill(c.Name, c.Address)
		return m, nil
	case key.Matches(msg, m.keys.Select):
		return m, loadCustomerDetailCmd(m.svc, c.Name, c.Address)
	case key.Matches(msg, m.keys.CancelCustomer):
		return m.confirmCancelCustomer(c.Name)
	}
	return m, nil
}

func (m Model) handleAppointmentDetailNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.appointmentDetail == nil {
		m.screen = m.tabScreen
		return m, nil
	}
	a := m.appointmentDetail.appointment

	switch {
	case key.Matches(msg, m.keys.Back):
		m.screen = m.detailReturn
		m.appointmentDetail = nil
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		m.openForm(model.ScreenAppointmentDetail).LoadAppointment(a)
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		return m, cancelAppointmentCmd(m.svc, a.ID)
	case key.Matches(msg, m.keys.OpenCustomer):
		return m, loadCustomerDetailCmd(m.svc, a.CustomerName, a.Address)
	}
	return m, nil
}

func (m Model) handleCustomerDetailNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.customerDetail == nil {
		m.screen = m.tabScreen
		return m, nil
	}
	c := m.customerDetail.customer

	switch {
	case key.Matches(msg, m.keys.Back):
		m.screen = m.tabScreen
		m.customerDetail = nil
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.customerDetail.MoveDown()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.customerDetail.MoveUp()
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if a, ok := m.customerDetail.Selected(); ok {
			m.detailReturn = model.ScreenCustomerDetail
			return m, loadAppointmentDetailCmd(m.svc, a.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Book):
		m.openForm(model.ScreenCustomerDetail).Prefill(c.Name, c.Address)
		return m, nil
	case key.Matches(msg, m.keys.CancelCustomer):
		return m.confirmCancelCustomer(c.Name)
	}
	return m, nil
}

// confirmCancelCustomer arms on the first D and cancels on the second.
func (m Model) confirmCancelCustomer(name string) (tea.Model, tea.Cmd) {
	if m.pendingCancel == name {
		m.pendingCancel = ""
		return m, cancelCustomerCmd(m.svc, name)
	}
	m.pendingCancel = name
	count := len(ledger.FindByCustomer(m.records, name))
	m.info = fmt.Sprintf("Press D again to cancel all %d appointments for %s", count, name)
	return m, nil
}

// Commands

func loadLedgerCmd(svc *ledger.Service) tea.Cmd {
	return func() tea.Msg {
		records, err := svc.Load()
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		return model.LedgerLoadedMsg{Appointments: records}
	}
}

func loadAppointmentDetailCmd(svc *ledger.Service, id string) tea.Cmd {
	return func() tea.Msg {
		appt, records, err := svc.Get(id)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load appointment: %w", err)}
		}
		return model.AppointmentDetailLoadedMsg{
			Appointment: appt,
			Summary:     ledger.UpcomingAndRecent(records, appt.CustomerName, svc.Today()),
		}
	}
}

func loadCustomerDetailCmd(svc *ledger.Service, name, address string) tea.Cmd {
	return func() tea.Msg {
		records, err := svc.Load()
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		row, appts, summary := customerDetail(records, name, address, svc.Today())
		if len(appts) == 0 {
			return model.ErrorMsg{Err: fmt.Errorf("no appointments for %q", name)}
		}
		return model.CustomerDetailLoadedMsg{Customer: row, Appointments: appts, Summary: summary}
	}
}

// customerDetail gathers everything booked under name. The address picks the
// list row when one name has been booked at several addresses.
func customerDetail(records []model.Appointment, name, address string, today time.Time) (model.CustomerRow, []model.Appointment, model.VisitSummary) {
	appts := ledger.FindByCustomer(records, name)
	row := model.CustomerRow{Name: name, Address: address, Appointments: len(appts)}
	for _, c := range ledger.Customers(records, today) {
		if c.Name == name && c.Address == address {
			row = c
			row.Appointments = len(appts)
			break
		}
	}
	return row, appts, ledger.UpcomingAndRecent(records, name, today)
}

func cancelAppointmentCmd(svc *ledger.Service, id string) tea.Cmd {
	return func() tea.Msg {
		change, err := svc.Cancel(id)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to cancel appointment: %w", err)}
		}
		return model.AppointmentCancelledMsg{ID: id, Change: change}
	}
}

func cancelCustomerCmd(svc *ledger.Service, name string) tea.Cmd {
	return func() tea.Msg {
		count, change, err := svc.CancelCustomer(name)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to cancel customer: %w", err)}
		}
		return model.CustomerCancelledMsg{Name: name, Count: count, Change: change}
	}
}
