package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lotta/internal/ledger"
	"lotta/internal/model"
)

type fakeStore struct {
	records []model.Appointment
	err     error
}

func (f *fakeStore) Load() ([]model.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Appointment(nil), f.records...), nil
}

func (f *fakeStore) Save(records []model.Appointment) error {
	f.records = records
	return nil
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func newTestRouter(t *testing.T, store ledger.Store) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ledger.NewService(store, logger).WithClock(func() time.Time { return d(2025, time.January, 5) })
	return New(svc, logger).Router()
}

func sampleStore() *fakeStore {
	return &fakeStore{records: []model.Appointment{
		{ID: "p", CustomerName: "Anna", Address: "Kungsgatan 1", Date: d(2025, time.January, 1), StartTime: "09:00", EndTime: "11:00", StaffName: "Lotta"},
		{ID: "c", CustomerName: "Anna", Address: "Kungsgatan 1", Date: d(2025, time.January, 5), StartTime: "09:00", EndTime: "11:00", StaffName: "Meera", DaysSinceLastVisit: model.DaysAgo(4)},
		{ID: "u", CustomerName: "Anna", Address: "Kungsgatan 1", Date: d(2025, time.January, 10), StartTime: "09:00", EndTime: "11:00", StaffName: "Lotta", DaysSinceLastVisit: model.DaysAgo(5)},
		{ID: "e", CustomerName: "Erik", Address: "Junogatan 3", Date: d(2025, time.February, 1), StartTime: "13:00", EndTime: "15:00", StaffName: "Alice"},
	}}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(t, sampleStore()), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestListAppointments_Window(t *testing.T) {
	h := newTestRouter(t, sampleStore())

	rec := get(t, h, "/api/appointments")
	var all []AppointmentJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(all))
	}

	rec = get(t, h, "/api/appointments?date=2025-01-05&days=3")
	var window []AppointmentJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &window); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(window) != 1 || window[0].ID != "c" {
		t.Fatalf("expected only the 2025-01-05 row, got %+v", window)
	}
	if window[0].DaysSinceLastVisit == nil || *window[0].DaysSinceLastVisit != 4 || window[0].FirstVisit {
		t.Fatalf("unexpected recency fields %+v", window[0])
	}
}

func TestListAppointments_BadParams(t *testing.T) {
	h := newTestRouter(t, sampleStore())
	for _, path := range []string{"/api/appointments?date=tomorrow", "/api/appointments?days=-1"} {
		rec := get(t, h, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
		var body ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("%s: unexpected error body %s", path, rec.Body.String())
		}
	}
}

func TestCustomerSummary(t *testing.T) {
	rec := get(t, newTestRouter(t, sampleStore()), "/api/customers/Anna/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var sum SummaryJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if sum.Past == nil || sum.Past.ID != "p" || sum.Current == nil || sum.Current.ID != "c" || sum.Upcoming == nil || sum.Upcoming.ID != "u" {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.Reference != "2025-01-05" {
		t.Fatalf("expected reference 2025-01-05, got %s", sum.Reference)
	}
}

func TestCustomerSummary_Unknown(t *testing.T) {
	rec := get(t, newTestRouter(t, sampleStore()), "/api/customers/Nobody/summary")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStaffCalendar(t *testing.T) {
	rec := get(t, newTestRouter(t, sampleStore()), "/calendar/Lotta.ics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/calendar") {
		t.Fatalf("expected text/calendar, got %s", ct)
	}
	body := rec.Body.String()
	if strings.Count(body, "BEGIN:VEVENT") != 2 {
		t.Fatalf("expected 2 events for Lotta, got %d", strings.Count(body, "BEGIN:VEVENT"))
	}
	if !strings.Contains(body, "UID:p@lotta") {
		t.Fatal("missing stable UID")
	}
}

func TestStoreFailure(t *testing.T) {
	rec := get(t, newTestRouter(t, &fakeStore{err: errors.New("boom")}), "/api/appointments")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatal("internal error details leaked to client")
	}
}

func TestRequestLogTagsComponentOnce(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("component", "server")
	svc := ledger.NewService(sampleStore(), logger).WithClock(func() time.Time { return d(2025, time.January, 5) })

	get(t, New(svc, logger).Router(), "/health")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("expected a request log line")
	}
	for _, line := range lines {
		if n := strings.Count(line, `"component"`); n != 1 {
			t.Errorf("expected one component key, got %d in %s", n, line)
		}
	}
	if !strings.Contains(buf.String(), `"subsystem":"http"`) {
		t.Errorf("expected http subsystem tag, got %s", buf.String())
	}
}
