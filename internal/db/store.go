// Package db holds the backing stores for the appointment ledger.
package db

import (
	"fmt"
	"io"
	"strings"

	"lotta/internal/ledger"
)

// Store kinds accepted by Open.
const (
	KindCSV    = "csv"
	KindSQLite = "sqlite"
)

// Handle is a ledger store that may hold an open resource.
type Handle interface {
	ledger.Store
	io.Closer
}

type csvHandle struct{ *CSVStore }

func (csvHandle) Close() error { return nil }

// Open returns the store for kind at path. An empty kind means csv.
func Open(kind, path string) (Handle, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindCSV:
		return csvHandle{NewCSVStore(path)}, nil
	case KindSQLite:
		conn, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(conn), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q (want %s or %s)", kind, KindCSV, KindSQLite)
	}
}

// ImportCSV copies every row of src into dst, replacing its contents, and
// returns the number of rows written.
func ImportCSV(src, dst ledger.Store) (int, error) {
	records, err := src.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to read import source: %w", err)
	}
	ledger.AssignIDs(records)
	ledger.SortByDate(records)
	if err := dst.Save(records); err != nil {
		return 0, fmt.Errorf("failed to write imported rows: %w", err)
	}
	return len(records), nil
}
