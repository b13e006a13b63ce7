// Package export writes the ledger in calendar formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"lotta/internal/model"
	"lotta/internal/util"
)

const (
	ProductID = "-//Lotta//Appointments//SV"
	uidDomain = "lotta"
)

var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

// icsWriter remembers the first write error so callers check once at the end.
type icsWriter struct {
	w   io.Writer
	err error
}

func (iw *icsWriter) line(format string, args ...interface{}) {
	if iw.err != nil {
		return
	}
	_, iw.err = fmt.Fprintf(iw.w, format+"\r\n", args...)
}

// WriteICS writes records as a VCALENDAR with one timed VEVENT each. Times
// are floating local times. stamp fills DTSTAMP.
func WriteICS(w io.Writer, calName string, records []model.Appointment, stamp time.Time) error {
	iw := &icsWriter{w: w}

	iw.line("BEGIN:VCALENDAR")
	iw.line("VERSION:2.0")
	iw.line("PRODID:%s", ProductID)
	iw.line("METHOD:PUBLISH")
	iw.line("X-WR-CALNAME:%s", escapeText(calName))
	iw.line("CALSCALE:GREGORIAN")

	for _, r := range records {
		start, err := eventTime(r.Date, r.StartTime)
		if err != nil {
			return fmt.Errorf("appointment %s: invalid start time: %w", r.ID, err)
		}
		end, err := eventTime(r.Date, r.EndTime)
		if err != nil || !end.After(start) {
			end = start.Add(2 * time.Hour)
		}

		iw.line("BEGIN:VEVENT")
		iw.line("UID:%s@%s", r.ID, uidDomain)
		iw.line("DTSTAMP:%s", stamp.UTC().Format("20060102T150405Z"))
		iw.line("DTSTART:%s", start.Format("20060102T150405"))
		iw.line("DTEND:%s", end.Format("20060102T150405"))
		iw.line("SUMMARY:%s", escapeText("Cleaning: "+r.CustomerName))
		iw.line("LOCATION:%s", escapeText(r.Address))
		iw.line("DESCRIPTION:%s", escapeText(fmt.Sprintf("Staff: %s\nLast visit: %s", r.StaffName, util.FormatRecency(r.DaysSinceLastVisit))))
		iw.line("END:VEVENT")
	}

	iw.line("END:VCALENDAR")
	return iw.err
}

// FilterStaff keeps the appointments assigned to staff. An empty name keeps all.
func FilterStaff(records []model.Appointment, staff string) []model.Appointment {
	if staff == "" {
		return records
	}
	var out []model.Appointment
	for _, r := range records {
		if strings.EqualFold(r.StaffName, staff) {
			out = append(out, r)
		}
	}
	return out
}

// CalendarName is the X-WR-CALNAME for a staff feed.
func CalendarName(staff string) string {
	if staff == "" {
		return "Cleaning appointments"
	}
	return "Cleaning appointments: " + staff
}

func eventTime(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
