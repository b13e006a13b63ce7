package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"lotta/internal/model"
)

func sample() []model.Appointment {
	return []model.Appointment{
		{
			ID:                 "a1",
			CustomerName:       "Anna Lindqvist",
			Address:            "Kungsgatan 12, Uddevalla",
			Date:               time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC),
			StartTime:          "09:00",
			EndTime:            "11:00",
			StaffName:          "Lotta",
			DaysSinceLastVisit: model.DaysAgo(9),
		},
		{
			ID:           "a2",
			CustomerName: "Erik Berg",
			Address:      "Junogatan 3, Uddevalla",
			Date:         time.Date(2025, time.February, 4, 0, 0, 0, 0, time.UTC),
			StartTime:    "13:00",
			EndTime:      "12:00",
			StaffName:    "Meera",
		},
	}
}

func TestWriteICS(t *testing.T) {
	var buf bytes.Buffer
	stamp := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	if err := WriteICS(&buf, CalendarName(""), sample(), stamp); err != nil {
		t.Fatalf("WriteICS returned error: %v", err)
	}
	body := buf.String()

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ProductID,
		"UID:a1@lotta",
		"DTSTAMP:20250101T120000Z",
		"DTSTART:20250203T090000",
		"DTEND:20250203T110000",
		"SUMMARY:Cleaning: Anna Lindqvist",
		`LOCATION:Kungsgatan 12\, Uddevalla`,
		`DESCRIPTION:Staff: Lotta\nLast visit: 9 days`,
		"END:VCALENDAR",
	}
	for _, field := range requiredFields {
		if !strings.Contains(body, field) {
			t.Errorf("ICS output missing %q", field)
		}
	}

	if strings.Count(body, "BEGIN:VEVENT") != 2 {
		t.Errorf("expected 2 events, got %d", strings.Count(body, "BEGIN:VEVENT"))
	}
	// inverted range falls back to a two hour slot
	if !strings.Contains(body, "DTEND:20250204T150000") {
		t.Error("expected fallback end time for inverted range")
	}
}

func TestWriteICS_BadStartTime(t *testing.T) {
	rows := sample()[:1]
	rows[0].StartTime = "morning"
	if err := WriteICS(&bytes.Buffer{}, "x", rows, time.Now()); err == nil {
		t.Fatal("expected error for unparseable start time")
	}
}

func TestFilterStaff(t *testing.T) {
	got := FilterStaff(sample(), "meera")
	if len(got) != 1 || got[0].ID != "a2" {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if len(FilterStaff(sample(), "")) != 2 {
		t.Fatal("empty staff should keep all rows")
	}
}
