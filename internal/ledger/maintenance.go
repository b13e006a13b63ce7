package ledger

import (
	"regexp"
	"sort"

	"lotta/internal/model"
)

// Deduplicate keeps one appointment per customer per calendar day: the one
// that sorts last by (date, start time). The result is ordered by date and
// start time.
func Deduplicate(records []model.Appointment) []model.Appointment {
	sorted := clone(records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessByDateTime(sorted[i], sorted[j])
	})

	type key struct {
		name string
		day  string
	}
	last := make(map[key]int, len(sorted))
	for i, r := range sorted {
		last[key{r.CustomerName, Day(r.Date).Format(model.DateLayout)}] = i
	}

	out := make([]model.Appointment, 0, len(last))
	for i, r := range sorted {
		if last[key{r.CustomerName, Day(r.Date).Format(model.DateLayout)}] == i {
			out = append(out, r)
		}
	}
	return out
}

// RebalanceStaff reassigns staff in record order, each time picking the pool
// member with the fewest assignments so far. Ties go to the earlier pool entry.
func RebalanceStaff(records []model.Appointment, pool []string) []model.Appointment {
	out := clone(records)
	pool = uniqueNonEmpty(pool)
	if len(pool) == 0 {
		return out
	}

	counts := make(map[string]int, len(pool))
	for i := range out {
		least := pool[0]
		for _, s := range pool[1:] {
			if counts[s] < counts[least] {
				least = s
			}
		}
		out[i].StaffName = least
		counts[least]++
	}
	return out
}

// StaffCounts returns the number of appointments per staff name.
func StaffCounts(records []model.Appointment) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.StaffName]++
	}
	return counts
}

var postcodePattern = regexp.MustCompile(`,\s*\d{3}\s*\d{2}\s*`)

// StripPostcode removes a Swedish postal code ("451 83") following a comma.
func StripPostcode(address string) string {
	return postcodePattern.ReplaceAllString(address, ", ")
}

// StripPostcodes rewrites every address in place and returns how many changed.
func StripPostcodes(records []model.Appointment) int {
	changed := 0
	for i := range records {
		stripped := StripPostcode(records[i].Address)
		if stripped != records[i].Address {
			records[i].Address = stripped
			changed++
		}
	}
	return changed
}

// RecomputeRecency re-derives each row's recency against its own date and
// returns how many values changed.
func RecomputeRecency(records []model.Appointment) int {
	snapshot := clone(records)
	changed := 0
	for i := range records {
		r := DaysSinceLastVisit(snapshot, records[i].CustomerName, records[i].Date)
		if r != records[i].DaysSinceLastVisit {
			records[i].DaysSinceLastVisit = r
			changed++
		}
	}
	return changed
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
