// Package fixtures generates synthetic appointment data for demos and tests.
package fixtures

import (
	"fmt"
	"math/rand"
	"time"

	"lotta/internal/ledger"
	"lotta/internal/model"

	"github.com/google/uuid"
)

var firstNames = []string{
	"Erik", "Lars", "Karl", "Anders", "Johan", "Per", "Nils", "Gustav", "Mikael",
	"Maria", "Anna", "Eva", "Karin", "Sara", "Lisa", "Lena", "Helena", "Sofia",
	"Emma", "Kristina", "Björn", "Magnus", "Olof", "Hans", "Filip",
}

var lastNames = []string{
	"Andersson", "Johansson", "Karlsson", "Nilsson", "Eriksson", "Larsson",
	"Olsson", "Persson", "Svensson", "Gustafsson", "Pettersson", "Bergström",
	"Lindberg", "Magnusson", "Lindström", "Gustavsson", "Olofsson", "Lindgren",
	"Berg", "Axelsson", "Bergman", "Lundberg", "Lind", "Holm",
}

var streets = []string{
	"Kungsgatan", "Drottninggatan", "Norra Drottninggatan", "Södra Drottninggatan",
	"Västerlånggatan", "Österlånggatan", "Norgårdsvägen", "Strömstadsvägen",
	"Göteborgsvägen", "Sunningevägen", "Boxhultsvägen", "Fasserödsvägen",
	"Kurverödsvägen", "Sigelhultsvägen", "Äsperödsvägen", "Tunnbindaregatan",
	"Kampenhofsgatan", "Junogatan", "Margretegärdegatan", "Bastionsgatan",
}

// Options controls a generator run.
type Options struct {
	Customers int
	Seed      int64
	From      time.Time
	To        time.Time
	Staff     []string
	MinVisits int
	MaxVisits int
}

// DefaultOptions mirrors the February to March 2025 demo data set.
func DefaultOptions() Options {
	return Options{
		Customers: 20,
		Seed:      1,
		From:      time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
		Staff:     []string{"Lotta", "Meera", "Alice", "Steve"},
		MinVisits: 3,
		MaxVisits: 5,
	}
}

// Generate returns new appointments for fresh customers. Recency of each new
// row is measured against existing plus generated rows. The same options
// always produce the same rows.
func Generate(existing []model.Appointment, opts Options) ([]model.Appointment, error) {
	if opts.Customers <= 0 {
		return nil, fmt.Errorf("customers must be positive")
	}
	if len(opts.Staff) == 0 {
		return nil, fmt.Errorf("staff pool is empty")
	}
	if opts.MinVisits <= 0 || opts.MaxVisits < opts.MinVisits {
		return nil, fmt.Errorf("invalid visit range %d..%d", opts.MinVisits, opts.MaxVisits)
	}

	days := Weekdays(opts.From, opts.To)
	if len(days) == 0 {
		return nil, fmt.Errorf("no weekdays between %s and %s", opts.From.Format(model.DateLayout), opts.To.Format(model.DateLayout))
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	taken := make(map[string]bool)
	for _, r := range existing {
		taken[r.CustomerName] = true
	}
	if free := len(firstNames)*len(lastNames) - len(taken); opts.Customers > free {
		return nil, fmt.Errorf("cannot generate %d unique customers (%d names left)", opts.Customers, free)
	}

	var out []model.Appointment
	for c := 0; c < opts.Customers; c++ {
		var name string
		for {
			name = firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
			if !taken[name] {
				taken[name] = true
				break
			}
		}
		address := fmt.Sprintf("%s %d, 451 %d Uddevalla", streets[rng.Intn(len(streets))], rng.Intn(99)+1, rng.Intn(70)+30)

		visits := opts.MinVisits + rng.Intn(opts.MaxVisits-opts.MinVisits+1)
		if visits > len(days) {
			visits = len(days)
		}
		for _, i := range rng.Perm(len(days))[:visits] {
			start := 8 + rng.Intn(8)
			id, err := uuid.NewRandomFromReader(rng)
			if err != nil {
				return nil, fmt.Errorf("failed to generate id: %w", err)
			}
			out = append(out, model.Appointment{
				ID:           id.String(),
				CustomerName: name,
				Address:      address,
				Date:         days[i],
				StartTime:    fmt.Sprintf("%02d:00", start),
				EndTime:      fmt.Sprintf("%02d:00", start+2),
				StaffName:    opts.Staff[rng.Intn(len(opts.Staff))],
			})
		}
	}

	all := append(append([]model.Appointment(nil), existing...), out...)
	for i := range out {
		out[i].DaysSinceLastVisit = ledger.DaysSinceLastVisit(all, out[i].CustomerName, out[i].Date)
	}
	ledger.SortByDate(out)
	return out, nil
}

// Weekdays returns every Monday to Friday between from and to, inclusive.
func Weekdays(from, to time.Time) []time.Time {
	var out []time.Time
	for d := ledger.Day(from); !d.After(ledger.Day(to)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, d)
	}
	return out
}
