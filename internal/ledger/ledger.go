// Package ledger holds the appointment queries and derivations. Every
// function here is pure over an in-memory slice; persistence goes through
// Store and is driven by Service.
package ledger

import (
	"sort"
	"time"

	"lotta/internal/model"
)

// DefaultWindowDays is the half-width of the date window shown around the
// selected day.
const DefaultWindowDays = 3

// Day truncates t to its calendar date at 00:00 UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// FindByCustomer returns every appointment booked under name, in input order.
func FindByCustomer(records []model.Appointment, name string) []model.Appointment {
	var out []model.Appointment
	for _, r := range records {
		if r.CustomerName == name {
			out = append(out, r)
		}
	}
	return out
}

// LastVisitBefore returns the latest appointment for name dated strictly
// before ref. On equal dates the earliest row in input order wins.
func LastVisitBefore(records []model.Appointment, name string, ref time.Time) (model.Appointment, bool) {
	ref = Day(ref)
	var best model.Appointment
	found := false
	for _, r := range records {
		if r.CustomerName != name {
			continue
		}
		d := Day(r.Date)
		if !d.Before(ref) {
			continue
		}
		if !found || d.After(Day(best.Date)) {
			best = r
			found = true
		}
	}
	return best, found
}

// DaysSinceLastVisit returns the recency of name relative to ref.
func DaysSinceLastVisit(records []model.Appointment, name string, ref time.Time) model.Recency {
	prev, ok := LastVisitBefore(records, name, ref)
	if !ok {
		return model.FirstVisit()
	}
	return model.DaysAgo(DaysBetween(prev.Date, ref))
}

// UpcomingAndRecent splits name's appointments around ref into the latest
// past visit, the first visit on ref and the earliest future visit.
func UpcomingAndRecent(records []model.Appointment, name string, ref time.Time) model.VisitSummary {
	ref = Day(ref)
	summary := model.VisitSummary{CustomerName: name, Reference: ref}

	var past, current, upcoming *model.Appointment
	for i := range records {
		r := records[i]
		if r.CustomerName != name {
			continue
		}
		d := Day(r.Date)
		switch {
		case d.Before(ref):
			if past == nil || d.After(Day(past.Date)) {
				past = &r
			}
		case d.Equal(ref):
			if current == nil {
				current = &r
			} else {
				summary.SameDayExtra++
			}
		default:
			if upcoming == nil || d.Before(Day(upcoming.Date)) {
				upcoming = &r
			}
		}
	}

	summary.Past = past
	summary.Current = current
	summary.Upcoming = upcoming
	return summary
}

// SortByDate sorts records by date then start time, keeping input order for ties.
func SortByDate(records []model.Appointment) {
	sort.SliceStable(records, func(i, j int) bool {
		return lessByDateTime(records[i], records[j])
	})
}

func lessByDateTime(a, b model.Appointment) bool {
	da, db := Day(a.Date), Day(b.Date)
	if !da.Equal(db) {
		return da.Before(db)
	}
	return a.StartTime < b.StartTime
}

// FilterWindow returns records dated within days of center, inclusive.
func FilterWindow(records []model.Appointment, center time.Time, days int) []model.Appointment {
	center = Day(center)
	from := center.AddDate(0, 0, -days)
	to := center.AddDate(0, 0, days)

	out := make([]model.Appointment, 0, len(records))
	for _, r := range records {
		d := Day(r.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Customers returns one row per distinct (name, address) pair, sorted by name.
func Customers(records []model.Appointment, ref time.Time) []model.CustomerRow {
	ref = Day(ref)
	type key struct{ name, address string }
	index := make(map[key]int)
	var rows []model.CustomerRow

	for _, r := range records {
		k := key{r.CustomerName, r.Address}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, model.CustomerRow{Name: r.CustomerName, Address: r.Address})
		}
		row := &rows[i]
		row.Appointments++

		d := Day(r.Date)
		if d.Before(ref) {
			if row.LastVisit == nil || d.After(*row.LastVisit) {
				row.LastVisit = &d
			}
		} else if row.NextVisit == nil || d.Before(*row.NextVisit) {
			row.NextVisit = &d
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Address < rows[j].Address
	})
	return rows
}

// StaffNames returns the sorted distinct staff names in records.
func StaffNames(records []model.Appointment) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		if r.StaffName == "" || seen[r.StaffName] {
			continue
		}
		seen[r.StaffName] = true
		names = append(names, r.StaffName)
	}
	sort.Strings(names)
	return names
}

// FindByID returns the appointment with the given ID.
func FindByID(records []model.Appointment, id string) (model.Appointment, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return model.Appointment{}, false
}

func clone(records []model.Appointment) []model.Appointment {
	return append([]model.Appointment(nil), records...)
}
