package util

import (
	"testing"
	"time"

	"lotta/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFormatWeekday(t *testing.T) {
	if got := FormatWeekday(day(2025, time.February, 6)); got != "Thursday 06-02" {
		t.Fatalf("unexpected weekday format %q", got)
	}
}

func TestFormatDateHuman(t *testing.T) {
	ref := day(2025, time.February, 10)
	tests := []struct {
		in   time.Time
		want string
	}{
		{day(2025, time.February, 10), "Today"},
		{day(2025, time.February, 11), "Tomorrow"},
		{day(2025, time.February, 9), "Yesterday"},
		{day(2025, time.February, 13), "in 3d"},
		{day(2025, time.February, 7), "3d ago"},
		{day(2025, time.March, 3), "Mon Mar 03"},
		{day(2024, time.December, 2), "Dec 02 '24"},
		{time.Time{}, "Unknown"},
	}
	for _, tt := range tests {
		if got := FormatDateHuman(tt.in, ref); got != tt.want {
			t.Errorf("FormatDateHuman(%s) = %q, want %q", tt.in.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestFormatRecency(t *testing.T) {
	if got := FormatRecency(model.FirstVisit()); got != "First visit" {
		t.Errorf("got %q", got)
	}
	if got := FormatRecency(model.DaysAgo(1)); got != "1 day" {
		t.Errorf("got %q", got)
	}
	if got := FormatRecency(model.DaysAgo(9)); got != "9 days" {
		t.Errorf("got %q", got)
	}
}

func TestParseDateInput(t *testing.T) {
	for _, in := range []string{"2025-02-03", "03-02-2025", "3/2/2025", "Feb 3, 2025", "2025-02-03 00:00:00"} {
		got, err := ParseDateInput(in)
		if err != nil {
			t.Errorf("ParseDateInput(%q): %v", in, err)
			continue
		}
		if !got.Equal(day(2025, time.February, 3)) {
			t.Errorf("ParseDateInput(%q) = %s", in, got)
		}
	}
	if _, err := ParseDateInput(""); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := ParseDateInput("next tuesday"); err == nil {
		t.Error("expected error for unparseable input")
	}
}

func TestParseClockInput(t *testing.T) {
	tests := map[string]string{
		"9":     "09:00",
		"9:00":  "09:00",
		"09:30": "09:30",
		"0930":  "09:30",
		"930":   "09:30",
		"13.15": "13:15",
	}
	for in, want := range tests {
		got, err := ParseClockInput(in)
		if err != nil {
			t.Errorf("ParseClockInput(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseClockInput(%q) = %q, want %q", in, got, want)
		}
	}
	for _, bad := range []string{"", "25:00", "noon"} {
		if _, err := ParseClockInput(bad); err == nil {
			t.Errorf("ParseClockInput(%q): expected error", bad)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("Kungsgatan 12, Uddevalla", 10); got != "Kungsga..." {
		t.Errorf("got %q", got)
	}
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
}
