package ui

import (
	"fmt"

	"lotta/internal/ledger"
	"lotta/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

// undoAction is one ledger change. Undo writes before back, redo writes after.
type undoAction struct {
	label  string
	before []model.Appointment
	after  []model.Appointment
}

type undoAppliedMsg struct {
	err    error
	action undoAction
	redo   bool
}

func snapshotAction(change model.Change) undoAction {
	return undoAction{label: change.Label, before: change.Before, after: change.After}
}

func (m *Model) pushUndoAction(action undoAction) {
	m.undoStack = append(m.undoStack, action)
	m.redoStack = nil
}

// popAction removes the newest entry of stack and returns a command that
// restores the matching snapshot.
func popAction(svc *ledger.Service, stack *[]undoAction, redo bool) tea.Cmd {
	if len(*stack) == 0 {
		return nil
	}
	action := (*stack)[len(*stack)-1]
	*stack = (*stack)[:len(*stack)-1]

	records := action.before
	if redo {
		records = action.after
	}
	return func() tea.Msg {
		return undoAppliedMsg{err: svc.Restore(records), action: action, redo: redo}
	}
}

func (m *Model) undoCmd() tea.Cmd {
	return popAction(m.svc, &m.undoStack, false)
}

func (m *Model) redoCmd() tea.Cmd {
	return popAction(m.svc, &m.redoStack, true)
}

func (m *Model) applyUndoResult(msg undoAppliedMsg) tea.Cmd {
	verb := "Undid"
	if msg.redo {
		verb = "Redid"
	}
	if msg.err != nil {
		// Put the entry back so the operator can retry.
		if msg.redo {
			m.redoStack = append(m.redoStack, msg.action)
		} else {
			m.undoStack = append(m.undoStack, msg.action)
		}
		m.error = fmt.Sprintf("%s %s failed: %v", verb, msg.action.label, msg.err)
		return nil
	}

	if msg.redo {
		m.undoStack = append(m.undoStack, msg.action)
	} else {
		m.redoStack = append(m.redoStack, msg.action)
	}
	m.info = verb + ": " + msg.action.label
	m.error = ""

	// Detail screens may point at rows that no longer exist.
	switch m.screen {
	case model.ScreenAppointmentDetail, model.ScreenCustomerDetail:
		m.screen = m.tabScreen
		m.appointmentDetail = nil
		m.customerDetail = nil
	}
	return loadLedgerCmd(m.svc)
}
