package ui

import (
	"testing"
	"time"

	"lotta/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixture() []model.Appointment {
	return []model.Appointment{
		{ID: "1", CustomerName: "Anna", Address: "Kungsgatan 1", Date: day(2025, time.January, 1), StartTime: "09:00", EndTime: "11:00", StaffName: "Lotta"},
		{ID: "2", CustomerName: "Erik", Address: "Junogatan 3", Date: day(2025, time.January, 4), StartTime: "13:00", EndTime: "15:00", StaffName: "Meera"},
		{ID: "3", CustomerName: "Anna", Address: "Kungsgatan 1", Date: day(2025, time.January, 5), StartTime: "09:00", EndTime: "11:00", StaffName: "Meera", DaysSinceLastVisit: model.DaysAgo(4)},
		{ID: "4", CustomerName: "Björn", Address: "Norra Drottninggatan 7", Date: day(2025, time.January, 20), StartTime: "08:00", EndTime: "10:00", StaffName: "Alice"},
	}
}

func ids(rows []model.Appointment) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func equalIDs(got []model.Appointment, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestTable_SortActiveColumn(t *testing.T) {
	m := NewAppointmentsModel(fixture(), day(2025, time.January, 5))

	if !m.JumpToColumn(5) {
		t.Fatal("expected staff column to be reachable")
	}
	m.SortActiveColumn(false)
	if !equalIDs(m.rows, "4", "1", "2", "3") {
		t.Fatalf("unexpected ascending staff order %v", ids(m.rows))
	}

	m.SortActiveColumn(true)
	if !equalIDs(m.rows, "2", "3", "1", "4") {
		t.Fatalf("unexpected descending staff order %v", ids(m.rows))
	}
}

func TestTable_RecencySortsNumerically(t *testing.T) {
	rows := fixture()
	rows[0].DaysSinceLastVisit = model.DaysAgo(12)
	rows[1].DaysSinceLastVisit = model.DaysAgo(3)
	m := NewAppointmentsModel(rows, day(2025, time.January, 5))

	m.JumpToColumn(6)
	m.SortActiveColumn(true)
	if !equalIDs(m.rows, "1", "3", "2", "4") {
		t.Fatalf("expected numeric recency order, got %v", ids(m.rows))
	}
}

func TestTable_FilterBySelectedValue(t *testing.T) {
	m := NewAppointmentsModel(fixture(), day(2025, time.January, 5))

	m.JumpToColumn(2)
	if !m.FilterBySelectedValue() {
		t.Fatal("expected filter to apply")
	}
	if !equalIDs(m.rows, "1", "3") {
		t.Fatalf("expected only Anna rows, got %v", ids(m.rows))
	}

	if !m.ClearFilter() {
		t.Fatal("expected filter to clear")
	}
	if len(m.rows) != 4 {
		t.Fatalf("expected all rows after clearing, got %d", len(m.rows))
	}
	if m.ClearFilter() {
		t.Fatal("clearing twice should report nothing to clear")
	}
}

func TestTable_HideColumns(t *testing.T) {
	m := NewCustomersModel(fixture(), day(2025, time.January, 5))

	for i := 0; i < len(m.columns)-1; i++ {
		if !m.HideActiveColumn() {
			t.Fatalf("hide %d should succeed", i)
		}
	}
	if m.HideActiveColumn() {
		t.Fatal("last visible column must stay visible")
	}

	prefs := m.Prefs()
	if len(prefs.HiddenColumns) != len(m.columns)-1 {
		t.Fatalf("expected %d hidden columns in prefs, got %v", len(m.columns)-1, prefs.HiddenColumns)
	}

	m.ShowAllColumns()
	if len(m.visibleColumnIndexes()) != len(m.columns) {
		t.Fatal("expected all columns visible")
	}
}

func TestTable_ApplyPrefs(t *testing.T) {
	m := NewAppointmentsModel(fixture(), day(2025, time.January, 5))
	m.ApplyPrefs(TablePrefs{SortKey: "name", SortDesc: true, HiddenColumns: []string{"address"}, ActiveColumn: "address"})

	if !equalIDs(m.rows, "2", "4", "1", "3") {
		t.Fatalf("unexpected order after prefs %v", ids(m.rows))
	}
	if m.columns[m.activeColumn].key == "address" {
		t.Fatal("active column must move off a hidden column")
	}
}

func TestTable_CursorClampsOnShrink(t *testing.T) {
	m := NewAppointmentsModel(fixture(), day(2025, time.January, 5))
	m.JumpToBottom()
	if m.cursor != 3 {
		t.Fatalf("expected cursor 3, got %d", m.cursor)
	}

	m.SetAppointments(fixture()[:2], day(2025, time.January, 5))
	if m.cursor != 1 {
		t.Fatalf("expected cursor clamped to 1, got %d", m.cursor)
	}
	if a, ok := m.Selected(); !ok || a.ID != "2" {
		t.Fatalf("unexpected selection %+v", a)
	}
}

func TestAppointments_Window(t *testing.T) {
	m := NewAppointmentsModel(fixture(), day(2025, time.January, 5))

	m.ToggleWindow()
	if !equalIDs(m.rows, "2", "3") {
		t.Fatalf("expected rows within 3 days of today, got %v", ids(m.rows))
	}

	m.ShiftWindow(-4)
	if !equalIDs(m.rows, "1", "2") {
		t.Fatalf("expected rows around Jan 1, got %v", ids(m.rows))
	}

	m.ResetWindow()
	if !equalIDs(m.rows, "2", "3") {
		t.Fatalf("expected window back on today, got %v", ids(m.rows))
	}

	m.ToggleWindow()
	if len(m.rows) != 4 {
		t.Fatalf("expected all rows with window off, got %d", len(m.rows))
	}
}

func TestCustomers_Rows(t *testing.T) {
	m := NewCustomersModel(fixture(), day(2025, time.January, 5))
	if len(m.rows) != 3 {
		t.Fatalf("expected 3 customers, got %d", len(m.rows))
	}
	c, ok := m.Selected()
	if !ok || c.Name != "Anna" || c.Appointments != 2 {
		t.Fatalf("unexpected first customer %+v", c)
	}
}
