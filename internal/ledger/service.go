package ledger

import (
	"fmt"
	"log/slog"
	"time"

	"lotta/internal/model"

	"github.com/google/uuid"
)

// Store is the backing store for the whole ledger. Load on a missing store
// returns an empty slice.
type Store interface {
	Load() ([]model.Appointment, error)
	Save(records []model.Appointment) error
}

// Service runs one load, mutate, save cycle per operator action.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a ledger service over store.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger.With("subsystem", "ledger"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithClock overrides the reference clock used for "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Today returns the reference date for recency and summary queries.
func (s *Service) Today() time.Time {
	return Day(s.now())
}

// Load reads the ledger sorted by date.
func (s *Service) Load() ([]model.Appointment, error) {
	records, err := s.loadStored()
	if err != nil {
		return nil, err
	}
	SortByDate(records)
	return records, nil
}

// loadStored reads the ledger in the order the store keeps it.
func (s *Service) loadStored() ([]model.Appointment, error) {
	records, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	AssignIDs(records)
	return records, nil
}

// reloaded returns row idx of a just-saved ledger as the next Load will see
// it. Stores without an ID column derive IDs from row content, so an edit to
// the name, date or start time gives the row a new ID.
func (s *Service) reloaded(saved []model.Appointment, idx int) model.Appointment {
	records, err := s.Load()
	if err != nil || len(records) != len(saved) {
		s.logger.Warn("could not re-read saved ledger", "error", err)
		return saved[idx]
	}
	return records[idx]
}

func indexOf(records []model.Appointment, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns one appointment and the ledger it was read from.
func (s *Service) Get(id string) (model.Appointment, []model.Appointment, error) {
	records, err := s.Load()
	if err != nil {
		return model.Appointment{}, nil, err
	}
	appt, ok := FindByID(records, id)
	if !ok {
		return model.Appointment{}, nil, &model.NotFoundError{ID: id}
	}
	return appt, records, nil
}

// Book validates and records a new appointment.
func (s *Service) Book(n model.NewAppointment) (model.Appointment, model.Change, error) {
	if err := Validate(n); err != nil {
		return model.Appointment{}, model.Change{}, err
	}
	before, err := s.Load()
	if err != nil {
		return model.Appointment{}, model.Change{}, err
	}

	after, appt := Book(before, n, s.newID())
	if err := s.save(after); err != nil {
		return model.Appointment{}, model.Change{}, err
	}
	appt = s.reloaded(after, indexOf(after, appt.ID))

	s.logger.Info("appointment booked",
		"customer", appt.CustomerName,
		"date", appt.DateString(),
		"staff", appt.StaffName,
		"recency", appt.DaysSinceLastVisit.String(),
	)
	return appt, model.Change{Label: "appointment booked", Before: before, After: after}, nil
}

// Update validates and applies an edit to an existing appointment. The
// returned row carries the ID it will have on the next load.
func (s *Service) Update(u model.UpdateAppointment) (model.Appointment, model.Change, error) {
	if err := Validate(model.NewAppointment{
		CustomerName: u.CustomerName,
		Address:      u.Address,
		Date:         u.Date,
		StartTime:    u.StartTime,
		EndTime:      u.EndTime,
		StaffName:    u.StaffName,
	}); err != nil {
		return model.Appointment{}, model.Change{}, err
	}
	before, err := s.Load()
	if err != nil {
		return model.Appointment{}, model.Change{}, err
	}

	after, ok := Update(before, u)
	if !ok {
		return model.Appointment{}, model.Change{}, &model.NotFoundError{ID: u.ID}
	}
	if err := s.save(after); err != nil {
		return model.Appointment{}, model.Change{}, err
	}

	appt := s.reloaded(after, indexOf(after, u.ID))

	s.logger.Info("appointment updated", "id", u.ID, "new_id", appt.ID, "customer", appt.CustomerName)
	return appt, model.Change{Label: "appointment updated", Before: before, After: after}, nil
}

// Cancel removes one appointment by ID.
func (s *Service) Cancel(id string) (model.Change, error) {
	before, err := s.Load()
	if err != nil {
		return model.Change{}, err
	}

	after, ok := Cancel(before, id)
	if !ok {
		return model.Change{}, &model.NotFoundError{ID: id}
	}
	if err := s.save(after); err != nil {
		return model.Change{}, err
	}

	s.logger.Info("appointment cancelled", "id", id)
	return model.Change{Label: "appointment cancelled", Before: before, After: after}, nil
}

// CancelCustomer removes every appointment for name.
func (s *Service) CancelCustomer(name string) (int, model.Change, error) {
	before, err := s.Load()
	if err != nil {
		return 0, model.Change{}, err
	}

	after, removed := CancelCustomer(before, name)
	if removed == 0 {
		return 0, model.Change{}, fmt.Errorf("no appointments for %q", name)
	}
	if err := s.save(after); err != nil {
		return 0, model.Change{}, err
	}

	s.logger.Info("customer appointments cancelled", "customer", name, "count", removed)
	return removed, model.Change{Label: "customer cancelled", Before: before, After: after}, nil
}

// Summary returns the history / today / next view for name.
func (s *Service) Summary(name string) (model.VisitSummary, error) {
	records, err := s.Load()
	if err != nil {
		return model.VisitSummary{}, err
	}
	return UpcomingAndRecent(records, name, s.Today()), nil
}

// Restore writes a previously captured snapshot back to the store.
func (s *Service) Restore(records []model.Appointment) error {
	if err := s.save(records); err != nil {
		return err
	}
	s.logger.Info("ledger restored", "count", len(records))
	return nil
}

// Rewrite loads the ledger in stored order, applies fn and saves the result.
// It is the entry point for offline maintenance commands.
func (s *Service) Rewrite(label string, fn func([]model.Appointment) []model.Appointment) (model.Change, error) {
	before, err := s.loadStored()
	if err != nil {
		return model.Change{}, err
	}
	after := fn(clone(before))
	if err := s.save(after); err != nil {
		return model.Change{}, err
	}
	s.logger.Info(label, "before", len(before), "after", len(after))
	return model.Change{Label: label, Before: before, After: after}, nil
}

func (s *Service) save(records []model.Appointment) error {
	if err := s.store.Save(records); err != nil {
		return fmt.Errorf("failed to save appointments: %w", err)
	}
	return nil
}
