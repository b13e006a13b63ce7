package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lotta/internal/ui"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type OnboardingSettings struct {
	Completed bool     `json:"completed"`
	Staff     []string `json:"staff"`
}

func onboardingPath(configDir string) string {
	return filepath.Join(configDir, "onboarding.json")
}

func loadOnboardingSettings(configDir string) (OnboardingSettings, error) {
	path := onboardingPath(configDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return OnboardingSettings{}, nil
		}
		return OnboardingSettings{}, err
	}

	var settings OnboardingSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return OnboardingSettings{}, err
	}
	return settings, nil
}

func saveOnboardingSettings(configDir string, settings OnboardingSettings) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(onboardingPath(configDir), data, 0644)
}

func shouldRunOnboarding(settings OnboardingSettings) bool {
	if settings.Completed {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type onboardingStep int

const (
	stepStaff onboardingStep = iota
	stepConfirm
	stepDone
)

type onboardingModel struct {
	step       onboardingStep
	accept     bool
	defaults   []string
	staffInput textinput.Model
	settings   OnboardingSettings
	status     string
	width      int
	height     int
}

var (
	obTabsStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ui.ColorMuted)

	obTabInactive = lipgloss.NewStyle().Foreground(ui.ColorMuted).Padding(0, 2)
	obTabActive   = obTabInactive.Foreground(ui.ColorText).Bold(true).Underline(true)
)

func newOnboardingModel(defaults []string) onboardingModel {
	in := textinput.New()
	in.Placeholder = strings.Join(defaults, ", ")
	in.CharLimit = 300
	in.Prompt = "staff> "
	in.TextStyle = ui.NormalRowStyle
	in.PlaceholderStyle = ui.HelpDescStyle
	in.Cursor.Style = lipgloss.NewStyle().Foreground(ui.ColorBase).Background(ui.ColorAccent)
	in.Focus()

	return onboardingModel{
		step:       stepStaff,
		accept:     true,
		defaults:   append([]string(nil), defaults...),
		staffInput: in,
		settings: OnboardingSettings{
			Completed: true,
			Staff:     append([]string(nil), defaults...),
		},
	}
}

func (m onboardingModel) Init() tea.Cmd { return textinput.Blink }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch m.step {
		case stepStaff:
			switch msg.String() {
			case "enter":
				// Blank input keeps the default pool.
				if pool := SplitStaff(m.staffInput.Value()); len(pool) > 0 {
					m.settings.Staff = pool
				} else {
					m.settings.Staff = append([]string(nil), m.defaults...)
				}
				m.accept = true
				m.step = stepConfirm
				return m, nil
			case "esc":
				m.settings.Staff = append([]string(nil), m.defaults...)
				m.status = "Skipped. Using the default staff pool."
				m.step = stepDone
				return m, tea.Quit
			case "ctrl+c":
				return m.cancel()
			}
			var cmd tea.Cmd
			m.staffInput, cmd = m.staffInput.Update(msg)
			return m, cmd
		case stepConfirm:
			switch msg.String() {
			case "y", "Y":
				return m.finish()
			case "n", "N":
				return m.back()
			case "up", "k", "left", "h":
				m.accept = true
				return m, nil
			case "down", "j", "right", "l":
				m.accept = false
				return m, nil
			case "enter":
				if m.accept {
					return m.finish()
				}
				return m.back()
			case "ctrl+c", "q":
				return m.cancel()
			default:
				return m, nil
			}
		}
	}
	return m, nil
}

func (m onboardingModel) finish() (tea.Model, tea.Cmd) {
	m.status = fmt.Sprintf("Saved %d staff: %s", len(m.settings.Staff), strings.Join(m.settings.Staff, ", "))
	m.step = stepDone
	return m, tea.Quit
}

func (m onboardingModel) back() (tea.Model, tea.Cmd) {
	m.step = stepStaff
	m.staffInput.SetValue(strings.Join(m.settings.Staff, ", "))
	m.staffInput.CursorEnd()
	return m, nil
}

func (m onboardingModel) cancel() (tea.Model, tea.Cmd) {
	m.settings.Staff = append([]string(nil), m.defaults...)
	m.status = "Setup canceled. Using the default staff pool."
	m.step = stepDone
	return m, tea.Quit
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := max(8, height-6)
	content := m.renderContent(width, contentHeight)
	screen := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(ui.ColorText).
		Width(width).
		Height(height).
		Render(screen)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + ui.HeaderStyle.Render("lotta") + " " + ui.HelpDescStyle.Render("› Setup")
	right := ui.HelpDescStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return ui.TitleStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	staffTab := obTabInactive.Render("Staff")
	confirmTab := obTabInactive.Render("Confirm")
	switch m.step {
	case stepStaff:
		staffTab = obTabActive.Render("Staff")
	case stepConfirm:
		confirmTab = obTabActive.Render("Confirm")
	}
	return obTabsStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Left, "  ", staffTab, confirmTab))
}

func (m onboardingModel) renderFooter(width int) string {
	switch m.step {
	case stepStaff:
		return ui.FooterStyle.Width(width).Render("enter continue  esc use defaults  ctrl+c cancel")
	case stepConfirm:
		return ui.FooterStyle.Width(width).Render("↑↓/jk to choose  y/n enter to confirm  q cancel")
	default:
		return ui.FooterStyle.Width(width).Render("Setup complete")
	}
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}

	var body string
	switch m.step {
	case stepStaff:
		input := ui.ActiveInputStyle.Width(max(30, cardWidth-14)).Render(m.staffInput.View())
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			ui.LabelStyle.Render("Who does the cleaning?"),
			"",
			ui.HelpDescStyle.Render("Enter staff names separated by commas."),
			ui.HelpDescStyle.Render("The booking form cycles through them in this order."),
			"",
			ui.LabelStyle.Render("Staff"),
			input,
			"",
			ui.HelpDescStyle.Render("Leave blank and press Enter for: "+strings.Join(m.defaults, ", ")),
		)
	case stepConfirm:
		var staffLines []string
		for i, name := range m.settings.Staff {
			staffLines = append(staffLines, ui.NormalRowStyle.Render(fmt.Sprintf("  %d. %s", i+1, name)))
		}

		yes := "Use this staff pool"
		no := "Edit the list"
		var yesDisplay, noDisplay string
		if m.accept {
			yesDisplay = "  " + ui.LabelStyle.Render("→ "+yes)
			noDisplay = "    " + ui.NormalRowStyle.Render(no)
		} else {
			yesDisplay = "    " + ui.NormalRowStyle.Render(yes)
			noDisplay = "  " + ui.LabelStyle.Render("→ "+no)
		}

		body = lipgloss.JoinVertical(
			lipgloss.Left,
			ui.LabelStyle.Render("Staff pool"),
			"",
			strings.Join(staffLines, "\n"),
			"",
			yesDisplay,
			noDisplay,
			"",
			ui.HelpDescStyle.Render("You can change this later in ~/.lotta/onboarding.json or with -staff"),
		)
	default:
		msg := ui.HelpDescStyle.Render(m.status)
		if strings.Contains(strings.ToLower(m.status), "canceled") {
			msg = ui.WarningStyle.Render(m.status)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, ui.LabelStyle.Render("Onboarding Complete"), "", msg)
	}

	card := ui.PanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

func runOnboarding(configDir string, defaults []string) (OnboardingSettings, error) {
	model := newOnboardingModel(defaults)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return OnboardingSettings{}, fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return OnboardingSettings{}, fmt.Errorf("unexpected onboarding model type")
	}
	if err := saveOnboardingSettings(configDir, m.settings); err != nil {
		return OnboardingSettings{}, err
	}
	return m.settings, nil
}
