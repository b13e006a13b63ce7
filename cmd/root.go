package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lotta/internal/db"

	"github.com/joho/godotenv"
)

// DefaultStaffPool is used until onboarding or -staff names a pool.
var DefaultStaffPool = []string{"Lotta", "Meera", "Alice", "Steve"}

// Config holds CLI configuration.
type Config struct {
	DataPath  string
	StoreKind string
	StaffPool []string
	LogPath   string
	ConfigDir string

	staff         string
	staffExplicit bool
}

// ParseFlags parses command-line flags and returns configuration. Unset
// flags fall back to LOTTA_* environment variables, then to defaults under
// ~/.lotta.
func ParseFlags(args []string) (*Config, error) {
	fs := flag.NewFlagSet("lotta", flag.ContinueOnError)
	config := bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := config.resolve(); err != nil {
		return nil, err
	}
	return config, nil
}

func bindFlags(fs *flag.FlagSet) *Config {
	config := &Config{}
	fs.StringVar(&config.DataPath, "data", "", "Path to the appointment store (default: ~/.lotta/appointments.csv)")
	fs.StringVar(&config.StoreKind, "store", "", "Store kind, csv or sqlite (or set LOTTA_STORE)")
	fs.StringVar(&config.staff, "staff", "", "Comma-separated staff pool (or set LOTTA_STAFF)")
	fs.StringVar(&config.LogPath, "log", "", "Log file path (default: <config dir>/lotta.log)")
	return config
}

// loadEnvFiles loads .env then .env.local. Variables already set win.
func loadEnvFiles() {
	for _, path := range []string{".env", ".env.local"} {
		_ = godotenv.Load(path)
	}
}

func (c *Config) resolve() error {
	loadEnvFiles()

	c.DataPath = firstNonEmpty(c.DataPath, os.Getenv("LOTTA_DATA"))
	c.StoreKind = strings.ToLower(firstNonEmpty(c.StoreKind, os.Getenv("LOTTA_STORE"), db.KindCSV))
	c.staff = firstNonEmpty(c.staff, os.Getenv("LOTTA_STAFF"))
	c.LogPath = firstNonEmpty(c.LogPath, os.Getenv("LOTTA_LOG"))

	if c.StoreKind != db.KindCSV && c.StoreKind != db.KindSQLite {
		return fmt.Errorf("unknown store kind %q (want %s or %s)", c.StoreKind, db.KindCSV, db.KindSQLite)
	}

	if c.DataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		c.ConfigDir = filepath.Join(home, ".lotta")
		if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		name := "appointments.csv"
		if c.StoreKind == db.KindSQLite {
			name = "lotta.db"
		}
		c.DataPath = filepath.Join(c.ConfigDir, name)
	} else {
		c.ConfigDir = filepath.Dir(c.DataPath)
	}

	if c.LogPath == "" {
		c.LogPath = filepath.Join(c.ConfigDir, "lotta.log")
	}

	if pool := SplitStaff(c.staff); len(pool) > 0 {
		c.StaffPool = pool
		c.staffExplicit = true
		return nil
	}

	settings, err := loadOnboardingSettings(c.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to load onboarding settings: %w", err)
	}
	c.StaffPool = append([]string(nil), DefaultStaffPool...)
	if len(settings.Staff) > 0 {
		c.StaffPool = settings.Staff
	}
	return nil
}

// Onboard runs the first-run setup when stdin is a terminal and the staff
// pool was not given on the command line or in the environment.
func Onboard(config *Config) error {
	if config.staffExplicit {
		return nil
	}

	settings, err := loadOnboardingSettings(config.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to load onboarding settings: %w", err)
	}
	if !shouldRunOnboarding(settings) {
		return nil
	}

	settings, err = runOnboarding(config.ConfigDir, config.StaffPool)
	if err != nil {
		return fmt.Errorf("failed to run onboarding: %w", err)
	}
	if len(settings.Staff) > 0 {
		config.StaffPool = settings.Staff
	}
	return nil
}

// SplitStaff parses "A, B,,C" into [A B C], dropping blanks and repeats.
func SplitStaff(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
