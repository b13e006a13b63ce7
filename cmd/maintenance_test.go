package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lotta/internal/db"
	"lotta/internal/model"
)

const sampleCSV = `Name,Address,Appointment_date,Start_time,End_time,Staff_name,Days_since_last_visit
Anna Berg,"Kungsgatan 1, 451 83 Uddevalla",2025-02-03,09:00,11:00,Lotta,First visit
Anna Berg,"Kungsgatan 1, 451 83 Uddevalla",2025-02-03,13:00,15:00,Meera,
Erik Lund,"Junogatan 3, Uddevalla",2025-02-04,10:00,12:00,Meera,First visit
Anna Berg,"Kungsgatan 1, 451 83 Uddevalla",2025-02-10,09:00,11:00,Lotta,0
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appointments.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	clearEnv(t)
	var out bytes.Buffer
	if err := Run(args, &out, io.Discard); err != nil {
		t.Fatalf("%s failed: %v", args[0], err)
	}
	return out.String()
}

func loadRows(t *testing.T, path string) []model.Appointment {
	t.Helper()
	rows, err := db.NewCSVStore(path).Load()
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	return rows
}

func TestRun_Dedupe(t *testing.T) {
	path := writeSample(t)
	out := runCommand(t, "dedupe", "-data", path)

	rows := loadRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows after dedupe, got %d", len(rows))
	}
	for _, r := range rows {
		if r.CustomerName == "Anna Berg" && r.DateString() == "2025-02-03" && r.StartTime != "13:00" {
			t.Errorf("expected the later Feb 3 visit to survive, got %s", r.StartTime)
		}
	}
	if !strings.Contains(out, "4 → 3") {
		t.Errorf("expected before/after summary, got:\n%s", out)
	}
	if _, err := os.Stat(path + db.BackupSuffix); err != nil {
		t.Errorf("expected a backup file: %v", err)
	}
}

func TestRun_Rebalance(t *testing.T) {
	path := writeSample(t)
	out := runCommand(t, "rebalance", "-data", path, "-staff", "Alice,Steve")

	counts := map[string]int{}
	for _, r := range loadRows(t, path) {
		counts[r.StaffName]++
	}
	if counts["Alice"] != 2 || counts["Steve"] != 2 || len(counts) != 2 {
		t.Fatalf("expected an even split, got %v", counts)
	}
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Lotta") {
		t.Errorf("expected staff table with old and new names, got:\n%s", out)
	}
}

func TestRun_StripPostcodes(t *testing.T) {
	path := writeSample(t)
	out := runCommand(t, "strip-postcodes", "-data", path)

	for _, r := range loadRows(t, path) {
		if strings.Contains(r.Address, "451 83") {
			t.Errorf("postcode left in %q", r.Address)
		}
	}
	if !strings.Contains(out, "Cleaned 3 addresses") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRun_RecomputeRecency(t *testing.T) {
	path := writeSample(t)
	runCommand(t, "recompute-recency", "-data", path)

	for _, r := range loadRows(t, path) {
		if r.CustomerName == "Anna Berg" && r.DateString() == "2025-02-10" {
			if days, ok := r.DaysSinceLastVisit.Days(); !ok || days != 7 {
				t.Errorf("expected 7 days since Feb 3, got %v", r.DaysSinceLastVisit)
			}
		}
	}
}

func TestRun_Generate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appointments.csv")
	runCommand(t, "generate", "-data", path, "-customers", "2", "-seed", "7")

	rows := loadRows(t, path)
	if len(rows) < 6 || len(rows) > 10 {
		t.Fatalf("expected 6 to 10 rows for 2 customers, got %d", len(rows))
	}
	names := map[string]bool{}
	for _, r := range rows {
		names[r.CustomerName] = true
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(names))
	}
}

func TestRun_Import(t *testing.T) {
	src := writeSample(t)
	dst := filepath.Join(t.TempDir(), "lotta.db")
	out := runCommand(t, "import", "-data", dst, "-store", "sqlite", "-from", src)

	handle, err := db.Open(db.KindSQLite, dst)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer handle.Close()
	rows, err := handle.Load()
	if err != nil {
		t.Fatalf("load sqlite: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 imported rows, got %d", len(rows))
	}
	if !strings.Contains(out, "Imported 4 rows") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRun_ExportICS(t *testing.T) {
	path := writeSample(t)
	out := runCommand(t, "export-ics", "-data", path, "-staff", "meera")

	if !strings.HasPrefix(out, "BEGIN:VCALENDAR") {
		t.Fatalf("expected a calendar on stdout, got:\n%s", out)
	}
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("expected 2 events for Meera, got %d", got)
	}
	if strings.Contains(out, "Staff: Lotta") {
		t.Error("Lotta's appointments should be filtered out")
	}
}

func TestRun_ExportICSToFile(t *testing.T) {
	path := writeSample(t)
	target := filepath.Join(t.TempDir(), "all.ics")
	out := runCommand(t, "export-ics", "-data", path, "-out", target)

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if got := strings.Count(string(data), "BEGIN:VEVENT"); got != 4 {
		t.Errorf("expected 4 events, got %d", got)
	}
	if !strings.Contains(out, "Exported 4 events") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRun_UnknownSubcommand(t *testing.T) {
	clearEnv(t)
	if err := Run([]string{"frobnicate"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected error for unknown subcommand")
	}
	if IsSubcommand("frobnicate") || !IsSubcommand("dedupe") {
		t.Fatal("IsSubcommand mismatch")
	}
}

func TestRun_ImportRequiresSource(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "appointments.csv")
	if err := Run([]string{"import", "-data", path}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected error without -from")
	}
}

func TestRun_RebalanceKeepsStoredOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appointments.csv")
	unsorted := `Name,Address,Appointment_date,Start_time,End_time,Staff_name,Days_since_last_visit
Britt Holm,Junogatan 3,2025-03-02,09:00,11:00,Lotta,First visit
Anna Berg,Kungsgatan 1,2025-03-01,09:00,11:00,Lotta,First visit
`
	if err := os.WriteFile(path, []byte(unsorted), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	runCommand(t, "rebalance", "-data", path, "-staff", "Alice,Steve")

	rows := loadRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].CustomerName != "Britt Holm" || rows[0].StaffName != "Alice" {
		t.Errorf("expected first stored row Britt with Alice, got %s with %s", rows[0].CustomerName, rows[0].StaffName)
	}
	if rows[1].CustomerName != "Anna Berg" || rows[1].StaffName != "Steve" {
		t.Errorf("expected second stored row Anna with Steve, got %s with %s", rows[1].CustomerName, rows[1].StaffName)
	}
}

func TestRun_ExportCSVFromSQLite(t *testing.T) {
	src := writeSample(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "lotta.db")
	runCommand(t, "import", "-data", dbPath, "-store", "sqlite", "-from", src)

	target := filepath.Join(dir, "out.csv")
	out := runCommand(t, "export-csv", "-data", dbPath, "-store", "sqlite", "-out", target)
	if !strings.Contains(out, "Exported 4 rows") {
		t.Errorf("unexpected output:\n%s", out)
	}

	want := loadRows(t, src)
	got := loadRows(t, target)
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if g.CustomerName != w.CustomerName || g.Address != w.Address || g.DateString() != w.DateString() ||
			g.StartTime != w.StartTime || g.EndTime != w.EndTime || g.StaffName != w.StaffName ||
			g.DaysSinceLastVisit.String() != w.DaysSinceLastVisit.String() {
			t.Errorf("row %d: got %+v, want %+v", i, g, w)
		}
	}
}

func TestRun_ExportCSVToStdout(t *testing.T) {
	path := writeSample(t)
	out := runCommand(t, "export-csv", "-data", path)

	if !strings.HasPrefix(out, "Name,Address,Appointment_date") {
		t.Fatalf("expected the CSV header first, got:\n%s", out)
	}
	if got := strings.Count(strings.TrimSpace(out), "\n"); got != 4 {
		t.Errorf("expected 4 data rows, got %d", got)
	}
}
