package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"lotta/internal/db"
	"lotta/internal/export"
	"lotta/internal/fixtures"
	"lotta/internal/ledger"
	"lotta/internal/model"
	"lotta/internal/server"
	"lotta/internal/util"

	"golang.org/x/term"
)

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// env is what every subcommand gets after its flags are parsed.
type env struct {
	config *Config
	svc    *ledger.Service
	store  db.Handle
	out    *printer
	stderr io.Writer
}

type subcommand struct {
	summary string
	flags   func(fs *flag.FlagSet) func(e *env) error
}

var subcommands = map[string]subcommand{
	"dedupe": {
		summary: "Keep one appointment per customer per day",
		flags:   func(*flag.FlagSet) func(*env) error { return runDedupe },
	},
	"rebalance": {
		summary: "Spread appointments evenly over the staff pool",
		flags:   func(*flag.FlagSet) func(*env) error { return runRebalance },
	},
	"strip-postcodes": {
		summary: "Remove Swedish postcodes from addresses",
		flags:   func(*flag.FlagSet) func(*env) error { return runStripPostcodes },
	},
	"recompute-recency": {
		summary: "Recalculate days since last visit for every row",
		flags:   func(*flag.FlagSet) func(*env) error { return runRecomputeRecency },
	},
	"generate": {
		summary: "Append synthetic customers and appointments",
		flags:   generateFlags,
	},
	"import": {
		summary: "Replace the store with the rows of a CSV file",
		flags:   importFlags,
	},
	"export-ics": {
		summary: "Write appointments as an iCalendar feed",
		flags:   exportFlags,
	},
	"export-csv": {
		summary: "Write the ledger as the canonical CSV file",
		flags:   exportCSVFlags,
	},
	"serve": {
		summary: "Serve the read-only HTTP feed",
		flags:   serveFlags,
	},
}

// IsSubcommand reports whether name is a maintenance subcommand.
func IsSubcommand(name string) bool {
	_, ok := subcommands[name]
	return ok
}

// Run executes the maintenance subcommand named by args[0]. Logs go to
// stderr; summaries go to stdout.
func Run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return fmt.Errorf("no subcommand given")
	}
	name := args[0]
	sc, ok := subcommands[name]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown subcommand %q", name)
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	config := bindFlags(fs)
	action := sc.flags(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: lotta %s [OPTIONS]\n\n%s.\n\nOptions:\n", name, sc.summary)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if err := config.resolve(); err != nil {
		return err
	}

	store, err := db.Open(config.StoreKind, config.DataPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	logger := NewLogger(stderr, name)
	e := &env{
		config: config,
		svc:    ledger.NewService(store, logger),
		store:  store,
		out:    newPrinter(stdout),
		stderr: stderr,
	}
	return action(e)
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(subcommands))
	for name := range subcommands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "Usage: lotta [OPTIONS]\n       lotta <subcommand> [OPTIONS]\n\nSubcommands:\n")
	for _, name := range names {
		fmt.Fprintf(w, "  %-18s %s\n", name, subcommands[name].summary)
	}
}

func runDedupe(e *env) error {
	change, err := e.svc.Rewrite("dedupe", ledger.Deduplicate)
	if err != nil {
		return err
	}
	e.out.summary(change)
	e.out.successf("✓ Removed %d duplicate rows", len(change.Before)-len(change.After))
	return nil
}

func runRebalance(e *env) error {
	pool := e.config.StaffPool
	change, err := e.svc.Rewrite("rebalance", func(records []model.Appointment) []model.Appointment {
		return ledger.RebalanceStaff(records, pool)
	})
	if err != nil {
		return err
	}
	e.out.summary(change)
	e.out.staffTable(ledger.StaffCounts(change.Before), ledger.StaffCounts(change.After))
	e.out.successf("✓ Rebalanced %d rows over %d staff", len(change.After), len(pool))
	return nil
}

func runStripPostcodes(e *env) error {
	var n int
	change, err := e.svc.Rewrite("strip-postcodes", func(records []model.Appointment) []model.Appointment {
		n = ledger.StripPostcodes(records)
		return records
	})
	if err != nil {
		return err
	}
	e.out.summary(change)
	e.out.successf("✓ Cleaned %d addresses", n)
	return nil
}

func runRecomputeRecency(e *env) error {
	var n int
	change, err := e.svc.Rewrite("recompute-recency", func(records []model.Appointment) []model.Appointment {
		n = ledger.RecomputeRecency(records)
		return records
	})
	if err != nil {
		return err
	}
	e.out.summary(change)
	e.out.successf("✓ Updated recency on %d rows", n)
	return nil
}

func generateFlags(fs *flag.FlagSet) func(*env) error {
	defaults := fixtures.DefaultOptions()
	customers := fs.Int("customers", defaults.Customers, "Number of customers to create")
	seed := fs.Int64("seed", defaults.Seed, "Random seed")
	from := fs.String("from", defaults.From.Format(model.DateLayout), "First day (YYYY-MM-DD)")
	to := fs.String("to", defaults.To.Format(model.DateLayout), "Last day (YYYY-MM-DD)")

	return func(e *env) error {
		opts := defaults
		opts.Customers = *customers
		opts.Seed = *seed
		opts.Staff = e.config.StaffPool

		var err error
		if opts.From, err = util.ParseDateInput(*from); err != nil {
			return fmt.Errorf("invalid -from: %w", err)
		}
		if opts.To, err = util.ParseDateInput(*to); err != nil {
			return fmt.Errorf("invalid -to: %w", err)
		}

		existing, err := e.svc.Load()
		if err != nil {
			return err
		}
		generated, err := fixtures.Generate(existing, opts)
		if err != nil {
			return fmt.Errorf("failed to generate appointments: %w", err)
		}

		change, err := e.svc.Rewrite("generate", func(records []model.Appointment) []model.Appointment {
			out := append(records, generated...)
			ledger.SortByDate(out)
			return out
		})
		if err != nil {
			return err
		}
		e.out.summary(change)
		e.out.successf("✓ Generated %d appointments for %d customers", len(generated), opts.Customers)
		return nil
	}
}

func importFlags(fs *flag.FlagSet) func(*env) error {
	from := fs.String("from", "", "CSV file to import (required)")

	return func(e *env) error {
		if *from == "" {
			return fmt.Errorf("-from is required")
		}
		before, err := e.svc.Load()
		if err != nil {
			return err
		}
		n, err := db.ImportCSV(db.NewCSVStore(*from), e.store)
		if err != nil {
			return err
		}
		after, err := e.svc.Load()
		if err != nil {
			return err
		}
		e.out.summary(model.Change{Label: "import", Before: before, After: after})
		e.out.successf("✓ Imported %d rows from %s", n, *from)
		return nil
	}
}

func exportFlags(fs *flag.FlagSet) func(*env) error {
	staff := fs.String("staff", "", "Only export this staff member's appointments")
	out := fs.String("out", "", "Output file (default: stdout)")

	return func(e *env) error {
		records, err := e.svc.Load()
		if err != nil {
			return err
		}
		records = export.FilterStaff(records, *staff)

		wrote, err := writeTo(e, *out, func(w io.Writer) error {
			if err := export.WriteICS(w, export.CalendarName(*staff), records, time.Now()); err != nil {
				return fmt.Errorf("failed to write calendar: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if wrote {
			e.out.successf("✓ Exported %d events to %s", len(records), *out)
		}
		return nil
	}
}

func exportCSVFlags(fs *flag.FlagSet) func(*env) error {
	out := fs.String("out", "", "Output file (default: stdout)")

	return func(e *env) error {
		// Stored order, so a CSV round trip leaves the file unchanged.
		records, err := e.store.Load()
		if err != nil {
			return fmt.Errorf("failed to load appointments: %w", err)
		}

		wrote, err := writeTo(e, *out, func(w io.Writer) error {
			return db.WriteCSV(w, records)
		})
		if err != nil {
			return err
		}
		if wrote {
			e.out.successf("✓ Exported %d rows to %s", len(records), *out)
		}
		return nil
	}
}

// writeTo runs fn against path, or stdout when path is empty or "-". It
// reports whether a file was written.
func writeTo(e *env, path string, fn func(io.Writer) error) (bool, error) {
	if path == "" || path == "-" {
		return false, fn(e.out.w)
	}
	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return true, nil
}

func serveFlags(fs *flag.FlagSet) func(*env) error {
	addr := fs.String("addr", ":8080", "Listen address")

	return func(e *env) error {
		logger := NewLogger(e.stderr, "server")
		srv := &http.Server{
			Addr:              *addr,
			Handler:           server.New(e.svc, logger).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server starting", "addr", srv.Addr, "store", e.config.DataPath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "err", err)
		}
		logger.Info("http server stopped")
		return nil
	}
}

// printer writes summaries, in color when w is a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w}
	if f, ok := w.(*os.File); ok {
		p.color = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + colorReset
}

func (p *printer) infof(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.paint(colorCyan, fmt.Sprintf(format, args...)))
}

func (p *printer) successf(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.paint(colorGreen, fmt.Sprintf(format, args...)))
}

// summary prints row and customer counts before and after a change.
func (p *printer) summary(change model.Change) {
	p.infof("=== %s ===", change.Label)
	fmt.Fprintf(p.w, "  rows:      %d → %d %s\n", len(change.Before), len(change.After), p.delta(len(change.After)-len(change.Before)))
	cb, ca := customerCount(change.Before), customerCount(change.After)
	fmt.Fprintf(p.w, "  customers: %d → %d %s\n", cb, ca, p.delta(ca-cb))
}

func (p *printer) delta(d int) string {
	switch {
	case d > 0:
		return p.paint(colorGreen, fmt.Sprintf("(+%d)", d))
	case d < 0:
		return p.paint(colorRed, fmt.Sprintf("(%d)", d))
	default:
		return p.paint(colorYellow, "(unchanged)")
	}
}

func (p *printer) staffTable(before, after map[string]int) {
	names := make([]string, 0, len(after))
	seen := make(map[string]bool)
	for _, m := range []map[string]int{before, after} {
		for name := range m {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	width := 5
	for _, name := range names {
		width = max(width, len(name))
	}
	fmt.Fprintf(p.w, "  %-*s  before  after\n", width, "staff")
	for _, name := range names {
		label := name
		if label == "" {
			label = "(none)"
		}
		fmt.Fprintf(p.w, "  %-*s  %6d  %5d\n", width, label, before[name], after[name])
	}
}

func customerCount(records []model.Appointment) int {
	seen := make(map[string]bool)
	for _, r := range records {
		seen[strings.TrimSpace(r.CustomerName)] = true
	}
	return len(seen)
}
