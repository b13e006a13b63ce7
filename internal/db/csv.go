package db

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"lotta/internal/ledger"
	"lotta/internal/model"
)

// Column headers of the canonical appointments file, in write order.
const (
	ColName      = "Name"
	ColAddress   = "Address"
	ColDate      = "Appointment_date"
	ColStart     = "Start_time"
	ColEnd       = "End_time"
	ColStaff     = "Staff_name"
	ColRecency   = "Days_since_last_visit"
	BackupSuffix = ".backup"
	tmpSuffix    = ".tmp"
)

// Header is the canonical column order.
var Header = []string{ColName, ColAddress, ColDate, ColStart, ColEnd, ColStaff, ColRecency}

var dateLayouts = []string{model.DateLayout, "2006-01-02 15:04:05"}

var errMissingColumn = errors.New("missing column")

// CSVStore keeps the ledger in a single comma-separated file.
type CSVStore struct {
	Path   string
	Logger *slog.Logger
}

// NewCSVStore creates a store over path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{Path: path, Logger: slog.Default()}
}

// Load reads every row. A missing file is an empty ledger.
func (s *CSVStore) Load() ([]model.Appointment, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Appointment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && s.Logger != nil {
			s.Logger.Warn("failed to close appointments file", "path", s.Path, "error", err)
		}
	}()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}
	ledger.AssignIDs(records)
	return records, nil
}

// ReadCSV parses appointment rows from r. Columns are located by header name.
func ReadCSV(r io.Reader) ([]model.Appointment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.Appointment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range Header {
		if _, ok := index[col]; !ok {
			return nil, &model.ParseError{Line: 1, Column: col, Err: errMissingColumn}
		}
	}

	records := []model.Appointment{}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}

		cell := func(col string) string {
			i := index[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		date, err := parseDate(cell(ColDate))
		if err != nil {
			return nil, &model.ParseError{Line: line, Column: ColDate, Value: cell(ColDate), Err: err}
		}
		recency, err := ParseRecency(cell(ColRecency))
		if err != nil {
			return nil, &model.ParseError{Line: line, Column: ColRecency, Value: cell(ColRecency), Err: err}
		}

		records = append(records, model.Appointment{
			CustomerName:       cell(ColName),
			Address:            cell(ColAddress),
			Date:               date,
			StartTime:          cell(ColStart),
			EndTime:            cell(ColEnd),
			StaffName:          cell(ColStaff),
			DaysSinceLastVisit: recency,
		})
	}
	return records, nil
}

// Save rewrites the whole file. The previous contents are kept next to it
// with BackupSuffix.
func (s *CSVStore) Save(records []model.Appointment) error {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	tmp := s.Path + tmpSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if _, err := os.Stat(s.Path); err == nil {
		if err := os.Rename(s.Path, s.Path+BackupSuffix); err != nil && s.Logger != nil {
			s.Logger.Warn("failed to create backup", "path", s.Path, "error", err)
		}
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.Path, err)
	}
	return nil
}

// WriteCSV writes records with the canonical header.
func WriteCSV(w io.Writer, records []model.Appointment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.CustomerName,
			r.Address,
			r.DateString(),
			r.StartTime,
			r.EndTime,
			r.StaffName,
			r.DaysSinceLastVisit.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// maxRecencyDays bounds numeric recency cells.
const maxRecencyDays = math.MaxInt32

// ParseRecency reads a stored recency cell: "First visit", blank, a
// non-negative integer or an integral float such as "9.0".
func ParseRecency(s string) (model.Recency, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, model.FirstVisitLabel) {
		return model.FirstVisit(), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return model.Recency{}, fmt.Errorf("negative day count")
		}
		if n > maxRecencyDays {
			return model.Recency{}, fmt.Errorf("day count out of range")
		}
		return model.DaysAgo(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Recency{}, fmt.Errorf("not a day count")
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return model.Recency{}, fmt.Errorf("not a whole number of days")
	}
	if f < 0 {
		return model.Recency{}, fmt.Errorf("negative day count")
	}
	if f > maxRecencyDays {
		return model.Recency{}, fmt.Errorf("day count out of range")
	}
	return model.DaysAgo(int(f)), nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return ledger.Day(t), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
