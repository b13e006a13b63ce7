package cmd

import (
	"path/filepath"
	"reflect"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LOTTA_DATA", "LOTTA_STORE", "LOTTA_STAFF", "LOTTA_LOG"} {
		t.Setenv(key, "")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	data := filepath.Join(dir, "appointments.csv")

	config, err := ParseFlags([]string{"-data", data})
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if config.StoreKind != "csv" {
		t.Errorf("expected csv store, got %q", config.StoreKind)
	}
	if config.ConfigDir != dir {
		t.Errorf("expected config dir %s, got %s", dir, config.ConfigDir)
	}
	if config.LogPath != filepath.Join(dir, "lotta.log") {
		t.Errorf("unexpected log path %s", config.LogPath)
	}
	if !reflect.DeepEqual(config.StaffPool, DefaultStaffPool) {
		t.Errorf("expected default staff pool, got %v", config.StaffPool)
	}
}

func TestParseFlags_EnvFallbacks(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("LOTTA_DATA", filepath.Join(dir, "ledger.db"))
	t.Setenv("LOTTA_STORE", "SQLite")
	t.Setenv("LOTTA_STAFF", "Meera, Steve")

	config, err := ParseFlags(nil)
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if config.DataPath != filepath.Join(dir, "ledger.db") {
		t.Errorf("unexpected data path %s", config.DataPath)
	}
	if config.StoreKind != "sqlite" {
		t.Errorf("expected sqlite store, got %q", config.StoreKind)
	}
	if !reflect.DeepEqual(config.StaffPool, []string{"Meera", "Steve"}) {
		t.Errorf("unexpected staff pool %v", config.StaffPool)
	}
}

func TestParseFlags_FlagBeatsEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("LOTTA_STAFF", "Meera")

	config, err := ParseFlags([]string{"-data", filepath.Join(dir, "a.csv"), "-staff", "Alice"})
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if !reflect.DeepEqual(config.StaffPool, []string{"Alice"}) {
		t.Errorf("expected flag staff pool, got %v", config.StaffPool)
	}
}

func TestParseFlags_RejectsUnknownStore(t *testing.T) {
	clearEnv(t)
	if _, err := ParseFlags([]string{"-data", filepath.Join(t.TempDir(), "a.csv"), "-store", "postgres"}); err == nil {
		t.Fatal("expected error for unknown store kind")
	}
}

func TestParseFlags_StaffFromOnboarding(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := saveOnboardingSettings(dir, OnboardingSettings{Completed: true, Staff: []string{"Björn", "Lotta"}}); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	config, err := ParseFlags([]string{"-data", filepath.Join(dir, "appointments.csv")})
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if !reflect.DeepEqual(config.StaffPool, []string{"Björn", "Lotta"}) {
		t.Errorf("expected onboarding staff pool, got %v", config.StaffPool)
	}
}

func TestSplitStaff(t *testing.T) {
	got := SplitStaff(" Lotta, ,Meera,Lotta ,  Alice ")
	want := []string{"Lotta", "Meera", "Alice"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitStaff = %v, want %v", got, want)
	}
	if SplitStaff("  ") != nil {
		t.Error("blank input should give no names")
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func updateOnboarding(t *testing.T, m onboardingModel, msg tea.Msg) (onboardingModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	om, ok := next.(onboardingModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return om, cmd
}

func TestOnboarding_CustomStaff(t *testing.T) {
	m := newOnboardingModel(DefaultStaffPool)
	for _, r := range "Anna, Bo" {
		m, _ = updateOnboarding(t, m, keyRunes(string(r)))
	}
	m, _ = updateOnboarding(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.step != stepConfirm {
		t.Fatalf("expected confirm step, got %d", m.step)
	}
	if !reflect.DeepEqual(m.settings.Staff, []string{"Anna", "Bo"}) {
		t.Fatalf("unexpected staff %v", m.settings.Staff)
	}

	m, _ = updateOnboarding(t, m, keyRunes("n"))
	if m.step != stepStaff || m.staffInput.Value() != "Anna, Bo" {
		t.Fatalf("expected to edit the list again, got step %d value %q", m.step, m.staffInput.Value())
	}

	m, _ = updateOnboarding(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := updateOnboarding(t, m, keyRunes("y"))
	if m.step != stepDone || cmd == nil {
		t.Fatal("expected onboarding to finish")
	}
	if !m.settings.Completed {
		t.Error("settings should be marked completed")
	}
	if m.View() == "" {
		t.Error("expected a rendered view")
	}
}

func TestOnboarding_BlankKeepsDefaults(t *testing.T) {
	m := newOnboardingModel([]string{"Lotta", "Meera"})
	m, _ = updateOnboarding(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !reflect.DeepEqual(m.settings.Staff, []string{"Lotta", "Meera"}) {
		t.Fatalf("expected default staff, got %v", m.settings.Staff)
	}

	m = newOnboardingModel([]string{"Lotta"})
	m, _ = updateOnboarding(t, m, keyRunes("X"))
	m, cmd := updateOnboarding(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.step != stepDone || cmd == nil {
		t.Fatal("esc should finish onboarding")
	}
	if !reflect.DeepEqual(m.settings.Staff, []string{"Lotta"}) {
		t.Fatalf("esc should keep defaults, got %v", m.settings.Staff)
	}
}

func TestOnboardingSettings_MissingFile(t *testing.T) {
	settings, err := loadOnboardingSettings(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Completed || len(settings.Staff) != 0 {
		t.Fatalf("expected zero settings, got %+v", settings)
	}
}
