package ledger

import (
	"fmt"
	"strings"
	"time"

	"lotta/internal/model"

	"github.com/google/uuid"
)

const clockLayout = "15:04"

// rowNamespace seeds derived row IDs for stores that do not persist them.
var rowNamespace = uuid.MustParse("5b0e4a7c-3f2d-4c61-9a8e-1d7f0c2b6e94")

// AssignIDs gives every row without an ID a stable one derived from
// (customer, date, start time) and its occurrence among identical keys, so
// the same file yields the same IDs on every load.
func AssignIDs(records []model.Appointment) {
	seen := make(map[string]int)
	for i := range records {
		if records[i].ID != "" {
			continue
		}
		key := fmt.Sprintf("%s\x00%s\x00%s", records[i].CustomerName, Day(records[i].Date).Format(model.DateLayout), records[i].StartTime)
		n := seen[key]
		seen[key] = n + 1
		records[i].ID = uuid.NewSHA1(rowNamespace, []byte(fmt.Sprintf("%s\x00%d", key, n))).String()
	}
}

// Validate checks booking input. Loaders and the ledger itself accept any
// row; only the booking and edit forms go through here.
func Validate(n model.NewAppointment) error {
	if strings.TrimSpace(n.CustomerName) == "" {
		return &model.ValidationError{Field: "name", Message: "is required"}
	}
	if strings.TrimSpace(n.Address) == "" {
		return &model.ValidationError{Field: "address", Message: "is required"}
	}
	if strings.TrimSpace(n.StaffName) == "" {
		return &model.ValidationError{Field: "staff", Message: "is required"}
	}
	if n.Date.IsZero() {
		return &model.ValidationError{Field: "date", Message: "is required"}
	}
	start, err := time.Parse(clockLayout, n.StartTime)
	if err != nil {
		return &model.ValidationError{Field: "start time", Message: "must be HH:MM"}
	}
	end, err := time.Parse(clockLayout, n.EndTime)
	if err != nil {
		return &model.ValidationError{Field: "end time", Message: "must be HH:MM"}
	}
	if !end.After(start) {
		return &model.ValidationError{Field: "end time", Message: "must be after start time"}
	}
	return nil
}

// Book appends a new appointment whose recency is measured against its own
// date, and returns the re-sorted ledger together with the new row.
func Book(records []model.Appointment, n model.NewAppointment, id string) ([]model.Appointment, model.Appointment) {
	appt := model.Appointment{
		ID:                 id,
		CustomerName:       strings.TrimSpace(n.CustomerName),
		Address:            strings.TrimSpace(n.Address),
		Date:               Day(n.Date),
		StartTime:          n.StartTime,
		EndTime:            n.EndTime,
		StaffName:          strings.TrimSpace(n.StaffName),
		DaysSinceLastVisit: DaysSinceLastVisit(records, strings.TrimSpace(n.CustomerName), n.Date),
	}

	out := append(clone(records), appt)
	SortByDate(out)
	return out, appt
}

// Update overwrites the editable fields of the row with u.ID. The stored
// recency is left as it was at booking time.
func Update(records []model.Appointment, u model.UpdateAppointment) ([]model.Appointment, bool) {
	out := clone(records)
	for i := range out {
		if out[i].ID != u.ID {
			continue
		}
		out[i].CustomerName = strings.TrimSpace(u.CustomerName)
		out[i].Address = strings.TrimSpace(u.Address)
		out[i].Date = Day(u.Date)
		out[i].StartTime = u.StartTime
		out[i].EndTime = u.EndTime
		out[i].StaffName = strings.TrimSpace(u.StaffName)
		SortByDate(out)
		return out, true
	}
	return out, false
}

// Cancel removes the single appointment with the given ID.
func Cancel(records []model.Appointment, id string) ([]model.Appointment, bool) {
	out := make([]model.Appointment, 0, len(records))
	found := false
	for _, r := range records {
		if r.ID == id {
			found = true
			continue
		}
		out = append(out, r)
	}
	return out, found
}

// CancelCustomer removes every appointment booked under name.
func CancelCustomer(records []model.Appointment, name string) ([]model.Appointment, int) {
	out := make([]model.Appointment, 0, len(records))
	removed := 0
	for _, r := range records {
		if r.CustomerName == name {
			removed++
			continue
		}
		out = append(out, r)
	}
	return out, removed
}
