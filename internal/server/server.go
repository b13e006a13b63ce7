// Package server exposes a read-only HTTP view of the ledger.
package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lotta/internal/export"
	"lotta/internal/ledger"
	"lotta/internal/model"
	"lotta/internal/util"

	"github.com/gorilla/mux"
)

// Server serves appointments, customer summaries and staff calendars.
// Every request loads the store afresh.
type Server struct {
	svc    *ledger.Service
	logger *slog.Logger
}

// New creates a server over svc.
func New(svc *ledger.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger.With("subsystem", "http")}
}

// Router returns the routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/api/appointments", s.listAppointments).Methods("GET")
	r.HandleFunc("/api/customers/{name}/summary", s.customerSummary).Methods("GET")
	r.HandleFunc("/calendar.ics", s.calendar).Methods("GET")
	r.HandleFunc("/calendar/{staff}.ics", s.calendar).Methods("GET")
	return r
}

// AppointmentJSON is the wire form of one appointment.
type AppointmentJSON struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Address            string `json:"address"`
	Date               string `json:"date"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	Staff              string `json:"staff"`
	DaysSinceLastVisit *int   `json:"days_since_last_visit"`
	FirstVisit         bool   `json:"first_visit"`
}

// SummaryJSON is the history / today / next view for one customer.
type SummaryJSON struct {
	Name         string           `json:"name"`
	Reference    string           `json:"reference"`
	Past         *AppointmentJSON `json:"past"`
	Current      *AppointmentJSON `json:"current"`
	Upcoming     *AppointmentJSON `json:"upcoming"`
	SameDayExtra int              `json:"same_day_extra"`
}

func toJSON(a model.Appointment) AppointmentJSON {
	out := AppointmentJSON{
		ID:         a.ID,
		Name:       a.CustomerName,
		Address:    a.Address,
		Date:       a.DateString(),
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
		Staff:      a.StaffName,
		FirstVisit: a.DaysSinceLastVisit.IsFirstVisit(),
	}
	if days, ok := a.DaysSinceLastVisit.Days(); ok {
		out.DaysSinceLastVisit = &days
	}
	return out
}

func toJSONPtr(a *model.Appointment) *AppointmentJSON {
	if a == nil {
		return nil
	}
	j := toJSON(*a)
	return &j
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// listAppointments returns every row, or the rows within days of date when
// either parameter is given.
func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.Load()
	if err != nil {
		handleError(w, s.logger, err)
		return
	}

	q := r.URL.Query()
	if q.Get("date") != "" || q.Get("days") != "" {
		center := s.svc.Today()
		if v := q.Get("date"); v != "" {
			center, err = util.ParseDateInput(v)
			if err != nil {
				WriteValidationError(w, "date must be YYYY-MM-DD")
				return
			}
		}
		days := ledger.DefaultWindowDays
		if v := q.Get("days"); v != "" {
			days, err = strconv.Atoi(v)
			if err != nil || days < 0 {
				WriteValidationError(w, "days must be a non-negative integer")
				return
			}
		}
		records = ledger.FilterWindow(records, center, days)
	}

	if staff := q.Get("staff"); staff != "" {
		records = export.FilterStaff(records, staff)
	}

	out := make([]AppointmentJSON, 0, len(records))
	for _, a := range records {
		out = append(out, toJSON(a))
	}
	_ = WriteJSON(w, http.StatusOK, out)
}

func (s *Server) customerSummary(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	ref := s.svc.Today()
	if v := r.URL.Query().Get("date"); v != "" {
		var err error
		ref, err = util.ParseDateInput(v)
		if err != nil {
			WriteValidationError(w, "date must be YYYY-MM-DD")
			return
		}
	}

	records, err := s.svc.Load()
	if err != nil {
		handleError(w, s.logger, err)
		return
	}
	if len(ledger.FindByCustomer(records, name)) == 0 {
		WriteError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "no appointments for "+name)
		return
	}

	sum := ledger.UpcomingAndRecent(records, name, ref)
	_ = WriteJSON(w, http.StatusOK, SummaryJSON{
		Name:         sum.CustomerName,
		Reference:    sum.Reference.Format(model.DateLayout),
		Past:         toJSONPtr(sum.Past),
		Current:      toJSONPtr(sum.Current),
		Upcoming:     toJSONPtr(sum.Upcoming),
		SameDayExtra: sum.SameDayExtra,
	})
}

func (s *Server) calendar(w http.ResponseWriter, r *http.Request) {
	staff := mux.Vars(r)["staff"]

	records, err := s.svc.Load()
	if err != nil {
		handleError(w, s.logger, err)
		return
	}
	records = export.FilterStaff(records, staff)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if err := export.WriteICS(w, export.CalendarName(staff), records, time.Now()); err != nil {
		s.logger.Error("failed to write calendar", "staff", staff, "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
