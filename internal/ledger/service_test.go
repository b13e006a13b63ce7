package ledger

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"lotta/internal/model"
)

type memStore struct {
	records []model.Appointment
	saves   int
	saveErr error
}

func (m *memStore) Load() ([]model.Appointment, error) {
	return append([]model.Appointment(nil), m.records...), nil
}

func (m *memStore) Save(records []model.Appointment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.records = append([]model.Appointment(nil), records...)
	return nil
}

func newTestService(t *testing.T, store *memStore, today string) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ref := date(t, today)
	return NewService(store, logger).WithClock(func() time.Time { return ref })
}

func booking(t *testing.T, name, day, start, end string) model.NewAppointment {
	t.Helper()
	return model.NewAppointment{
		CustomerName: name,
		Address:      "Kungsgatan 1, Uddevalla",
		Date:         date(t, day),
		StartTime:    start,
		EndTime:      end,
		StaffName:    "Meera",
	}
}

func TestServiceBook_ComputesRecencyAtBookingTime(t *testing.T) {
	store := &memStore{records: []model.Appointment{appt(t, "Anna", "2025-02-01", "09:00")}}
	svc := newTestService(t, store, "2025-01-20")

	got, change, err := svc.Book(booking(t, "Anna", "2025-02-10", "09:00", "11:00"))
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if days, ok := got.DaysSinceLastVisit.Days(); !ok || days != 9 {
		t.Fatalf("expected 9 days, got %s", got.DaysSinceLastVisit)
	}
	if got.ID == "" {
		t.Fatal("expected new appointment to have an ID")
	}
	if len(change.Before) != 1 || len(change.After) != 2 {
		t.Fatalf("unexpected change sizes %d -> %d", len(change.Before), len(change.After))
	}
	if store.saves != 1 || len(store.records) != 2 {
		t.Fatalf("expected one save of 2 rows, got %d saves / %d rows", store.saves, len(store.records))
	}
}

func TestServiceBook_RejectsInvertedTimes(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, store, "2025-01-20")

	_, _, err := svc.Book(booking(t, "Anna", "2025-02-10", "11:00", "09:00"))
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.saves != 0 {
		t.Fatal("store must not be written on validation failure")
	}
}

func TestServiceUpdate_KeepsFrozenRecency(t *testing.T) {
	first := appt(t, "Anna", "2025-02-01", "09:00")
	second := appt(t, "Anna", "2025-02-10", "09:00")
	second.DaysSinceLastVisit = model.DaysAgo(9)
	store := &memStore{records: []model.Appointment{first, second}}
	svc := newTestService(t, store, "2025-02-10")

	records, err := svc.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	target := records[1]

	_, _, err = svc.Update(model.UpdateAppointment{
		ID:           target.ID,
		CustomerName: "Anna",
		Address:      "Junogatan 4, Uddevalla",
		Date:         date(t, "2025-02-20"),
		StartTime:    "10:00",
		EndTime:      "12:00",
		StaffName:    "Alice",
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	updated, ok := FindByID(store.records, target.ID)
	if !ok {
		t.Fatal("updated row missing")
	}
	if updated.StaffName != "Alice" || updated.DateString() != "2025-02-20" {
		t.Fatalf("fields not updated: %+v", updated)
	}
	if days, _ := updated.DaysSinceLastVisit.Days(); days != 9 {
		t.Fatalf("recency must stay frozen at 9, got %s", updated.DaysSinceLastVisit)
	}
}

func TestServiceCancel_OnlySelectedRow(t *testing.T) {
	store := &memStore{records: []model.Appointment{
		appt(t, "Anna", "2025-02-01", "09:00"),
		appt(t, "Anna", "2025-02-10", "09:00"),
	}}
	svc := newTestService(t, store, "2025-02-10")

	records, err := svc.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, err := svc.Cancel(records[0].ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if len(store.records) != 1 || store.records[0].DateString() != "2025-02-10" {
		t.Fatalf("expected only the 2025-02-01 row removed, got %+v", store.records)
	}

	_, err = svc.Cancel("missing")
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestServiceCancelCustomer(t *testing.T) {
	store := &memStore{records: []model.Appointment{
		appt(t, "Anna", "2025-02-01", "09:00"),
		appt(t, "Erik", "2025-02-03", "09:00"),
		appt(t, "Anna", "2025-02-10", "09:00"),
	}}
	svc := newTestService(t, store, "2025-02-10")

	n, change, err := svc.CancelCustomer("Anna")
	if err != nil {
		t.Fatalf("CancelCustomer returned error: %v", err)
	}
	if n != 2 || len(store.records) != 1 {
		t.Fatalf("expected 2 removed and 1 left, got %d removed, %d left", n, len(store.records))
	}

	if err := svc.Restore(change.Before); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if len(store.records) != 3 {
		t.Fatalf("expected restore to bring back 3 rows, got %d", len(store.records))
	}
}

func TestServiceSave_PropagatesError(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	svc := newTestService(t, store, "2025-02-10")

	_, _, err := svc.Book(booking(t, "Anna", "2025-02-10", "09:00", "11:00"))
	if err == nil {
		t.Fatal("expected save error")
	}
	if !errors.Is(err, store.saveErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestServiceSummary(t *testing.T) {
	store := &memStore{records: []model.Appointment{
		appt(t, "Anna", "2025-01-01", "09:00"),
		appt(t, "Anna", "2025-01-05", "09:00"),
		appt(t, "Anna", "2025-01-10", "09:00"),
	}}
	svc := newTestService(t, store, "2025-01-05")

	s, err := svc.Summary("Anna")
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if s.Past == nil || s.Current == nil || s.Upcoming == nil {
		t.Fatalf("expected all three slots filled, got %+v", s)
	}
}

func TestAssignIDs_StableAcrossLoads(t *testing.T) {
	rows := func() []model.Appointment {
		return []model.Appointment{
			appt(t, "Anna", "2025-02-01", "09:00"),
			appt(t, "Anna", "2025-02-01", "09:00"),
			appt(t, "Erik", "2025-02-01", "09:00"),
		}
	}
	a, b := rows(), rows()
	AssignIDs(a)
	AssignIDs(b)

	seen := make(map[string]bool)
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("row %d: ID changed between loads", i)
		}
		if seen[a[i].ID] {
			t.Errorf("row %d: duplicate ID %s", i, a[i].ID)
		}
		seen[a[i].ID] = true
	}
}

func TestServiceLogTagsComponentOnce(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("component", "tui")
	svc := NewService(&memStore{}, logger)

	if _, _, err := svc.Book(booking(t, "Anna", "2025-02-10", "09:00", "11:00")); err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	if n := strings.Count(line, `"component"`); n != 1 {
		t.Fatalf("expected one component key, got %d in %s", n, line)
	}
	if !strings.Contains(line, `"subsystem":"ledger"`) {
		t.Fatalf("expected ledger subsystem tag, got %s", line)
	}
}
