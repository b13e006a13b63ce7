package util

import (
	"fmt"
	"strings"
	"time"

	"lotta/internal/model"
)

// FormatDate formats a date for display, e.g. "Feb 03, 2025".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("Jan 02, 2006")
}

// FormatWeekday formats a date as "Monday 03-02".
func FormatWeekday(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("Monday 02-01")
}

// FormatDateHuman formats a date relative to ref.
// "Today", "Tomorrow", "Yesterday", "in 3d", "3d ago", "Mon Feb 03", "Feb 03 '24"
func FormatDateHuman(t, ref time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	days := int(day.Sub(today).Hours() / 24)

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > 1 && days < 7:
		return fmt.Sprintf("in %dd", days)
	case days < -1 && days > -7:
		return fmt.Sprintf("%dd ago", -days)
	case t.Year() == ref.Year():
		return t.Format("Mon Jan 02")
	default:
		return t.Format("Jan 02 '06")
	}
}

// FormatRecency renders a recency value for display: "First visit" or "9 days".
func FormatRecency(r model.Recency) string {
	days, ok := r.Days()
	switch {
	case !ok:
		return model.FirstVisitLabel
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// FormatTimeRange formats "09:00–11:00".
func FormatTimeRange(start, end string) string {
	if start == "" && end == "" {
		return "—"
	}
	return start + "–" + end
}

// ParseDateInput parses flexible user input into a calendar date.
func ParseDateInput(input string) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}

	layouts := []string{
		model.DateLayout,
		"2006-01-02 15:04:05",
		"02-01-2006",
		"2/1/2006",
		"Jan 2, 2006",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date format")
}

// ParseClockInput normalizes a time of day to HH:MM. "9", "9:00", "0900"
// and "09.00" are accepted.
func ParseClockInput(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("time is required")
	}
	s = strings.ReplaceAll(s, ".", ":")
	if !strings.Contains(s, ":") {
		switch len(s) {
		case 1, 2:
			s += ":00"
		case 3, 4:
			s = s[:len(s)-2] + ":" + s[len(s)-2:]
		}
	}

	for _, layout := range []string{"15:04", "3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("invalid time %q", input)
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
