package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"lotta/internal/ledger"
	"lotta/internal/model"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS appointments (
    id                    TEXT PRIMARY KEY,
    name                  TEXT NOT NULL,
    address               TEXT NOT NULL DEFAULT '',
    appointment_date      TEXT NOT NULL,
    start_time            TEXT NOT NULL DEFAULT '',
    end_time              TEXT NOT NULL DEFAULT '',
    staff_name            TEXT NOT NULL DEFAULT '',
    days_since_last_visit INTEGER CHECK(days_since_last_visit >= 0 OR days_since_last_visit IS NULL),
    position              INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_appointments_name ON appointments(name);
CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(appointment_date);
`

// OpenSQLite opens or creates the SQLite database and initializes the schema.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// SQLiteStore keeps the ledger in an appointments table. Row order is
// preserved through the position column.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open handle whose schema is already in place.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load retrieves all appointments in stored order.
func (s *SQLiteStore) Load() ([]model.Appointment, error) {
	query := `
		SELECT id, name, address, appointment_date, start_time, end_time, staff_name, days_since_last_visit
		FROM appointments
		ORDER BY position
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	results := []model.Appointment{}
	line := 0
	for rows.Next() {
		line++
		var a model.Appointment
		var date string
		var recency sql.NullInt64

		if err := rows.Scan(&a.ID, &a.CustomerName, &a.Address, &date, &a.StartTime, &a.EndTime, &a.StaffName, &recency); err != nil {
			return nil, fmt.Errorf("failed to scan appointment row: %w", err)
		}

		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, &model.ParseError{Line: line, Column: "appointment_date", Value: date, Err: err}
		}
		a.Date = ledger.Day(d)

		switch {
		case recency.Valid && (recency.Int64 < 0 || recency.Int64 > maxRecencyDays):
			return nil, &model.ParseError{Line: line, Column: "days_since_last_visit", Value: strconv.FormatInt(recency.Int64, 10), Err: fmt.Errorf("day count out of range")}
		case recency.Valid:
			a.DaysSinceLastVisit = model.DaysAgo(int(recency.Int64))
		default:
			a.DaysSinceLastVisit = model.FirstVisit()
		}

		results = append(results, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointment rows: %w", err)
	}

	ledger.AssignIDs(results)
	return results, nil
}

// Save replaces the table contents in one transaction.
func (s *SQLiteStore) Save(records []model.Appointment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM appointments`); err != nil {
		return fmt.Errorf("failed to clear appointments: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO appointments (id, name, address, appointment_date, start_time, end_time, staff_name, days_since_last_visit, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		var recency interface{}
		if days, ok := r.DaysSinceLastVisit.Days(); ok {
			recency = days
		}
		if _, err := stmt.Exec(r.ID, r.CustomerName, r.Address, r.DateString(), r.StartTime, r.EndTime, r.StaffName, recency, i); err != nil {
			return fmt.Errorf("failed to insert appointment %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit appointments: %w", err)
	}
	return nil
}
