// Package settings is the in-console editor for the backend connection and
// refresh intervals.
package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/theme"
)

// Mode is the current screen of the settings view.
type Mode int

const (
	ModeForm Mode = iota
	ModeValidating
	ModeResult
)

// DoneMsg closes the settings view.
type DoneMsg struct{}

// SavedMsg reports that the new settings were written.
type SavedMsg struct {
	Config model.AppConfig
}

// ProbeFunc checks that a backend answers at baseURL with token.
type ProbeFunc func(ctx context.Context, baseURL, token string) error

// SaveFunc persists cfg and, when non-empty, the token.
type SaveFunc func(cfg model.AppConfig, token string) error

type probeResultMsg struct {
	cfg   model.AppConfig
	token string
	err   error
}

type savedInternalMsg struct {
	cfg model.AppConfig
	err error
}

type fields struct {
	baseURL   string
	token     string
	structure string
	history   string
	webhook   string
}

// Model is the Bubble Tea model for the settings editor.
type Model struct {
	mode    Mode
	form    *huh.Form
	f       *fields
	current model.AppConfig
	probe   ProbeFunc
	save    SaveFunc
	spinner spinner.Model

	pending   model.AppConfig
	pendToken string
	resultErr error
	saved     bool

	width, height int
}

// New creates the settings view. probe may be nil to skip the connection
// test.
func New(probe ProbeFunc, save SaveFunc, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		f:       &fields{},
		probe:   probe,
		save:    save,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Start opens the form prefilled from cfg. The token is never prefilled.
func (m *Model) Start(cfg model.AppConfig) tea.Cmd {
	m.current = cfg
	m.mode = ModeForm
	m.resultErr = nil
	m.saved = false
	*m.f = fields{
		baseURL:   cfg.API.BaseURL,
		structure: strconv.Itoa(cfg.Poll.StructureIntervalSec),
		history:   strconv.Itoa(cfg.Poll.HistoryIntervalSec),
		webhook:   cfg.Upload.WebhookURL,
	}
	m.form = m.buildForm()
	return m.form.Init()
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Base URL of the kanban API").
				Placeholder("http://localhost:8000/api/kanban").
				Value(&m.f.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("API token").
				Description("Leave empty to keep the stored token").
				EchoMode(huh.EchoModePassword).
				Value(&m.f.token),
			huh.NewInput().
				Title("Structure refresh (seconds)").
				Value(&m.f.structure).
				Validate(validateInterval),
			huh.NewInput().
				Title("History refresh (seconds)").
				Value(&m.f.history).
				Validate(validateInterval),
			huh.NewInput().
				Title("Upload webhook").
				Description("Optional").
				Value(&m.f.webhook).
				Validate(validateOptionalURL),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

// Update handles messages for the active screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case probeResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		if msg.err != nil {
			m.mode = ModeResult
			m.resultErr = msg.err
			return m, nil
		}
		return m, m.persist(msg.cfg, msg.token)

	case savedInternalMsg:
		m.mode = ModeResult
		m.resultErr = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.saved = true
		m.current = msg.cfg
		cfg := msg.cfg
		return m, func() tea.Msg { return SavedMsg{Config: cfg} }

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeValidating:
			if msg.String() == "esc" {
				m.mode = ModeForm
				m.form = m.buildForm()
				return m, m.form.Init()
			}
			return m, nil
		case ModeResult:
			return m.handleResultKeys(msg)
		}
	}

	if m.mode != ModeForm || m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateAborted:
		return m, func() tea.Msg { return DoneMsg{} }
	case huh.StateCompleted:
		return m.submit()
	}
	return m, cmd
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		if m.saved {
			return m, func() tea.Msg { return DoneMsg{} }
		}
		m.mode = ModeForm
		m.form = m.buildForm()
		return m, m.form.Init()
	case "r":
		if m.resultErr != nil && !m.saved {
			return m.submit()
		}
	}
	return m, nil
}

// submit builds the new config from the form and tests the connection
// before saving.
func (m Model) submit() (Model, tea.Cmd) {
	cfg := m.current
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(m.f.baseURL), "/")
	cfg.Poll.StructureIntervalSec, _ = strconv.Atoi(strings.TrimSpace(m.f.structure))
	cfg.Poll.HistoryIntervalSec, _ = strconv.Atoi(strings.TrimSpace(m.f.history))
	cfg.Upload.WebhookURL = strings.TrimSpace(m.f.webhook)
	token := strings.TrimSpace(m.f.token)

	if m.probe == nil {
		return m, m.persist(cfg, token)
	}

	m.mode = ModeValidating
	probe := m.probe
	timeout := time.Duration(cfg.API.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return probeResultMsg{cfg: cfg, token: token, err: probe(ctx, cfg.API.BaseURL, token)}
		},
	)
}

func (m Model) persist(cfg model.AppConfig, token string) tea.Cmd {
	save := m.save
	return func() tea.Msg {
		if save == nil {
			return savedInternalMsg{cfg: cfg}
		}
		return savedInternalMsg{cfg: cfg, err: save(cfg, token)}
	}
}

// View renders the active screen.
func (m Model) View() string {
	style := lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height)

	switch m.mode {
	case ModeValidating:
		return style.Render(fmt.Sprintf("%s Testing connection...\n\nPress esc to cancel.", m.spinner.View()))
	case ModeResult:
		return style.Render(m.viewResult())
	}
	if m.form == nil {
		return ""
	}
	title := theme.HeaderStyle.Render("Settings")
	return style.Render(title + "\n\n" + m.form.View())
}

func (m Model) viewResult() string {
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if m.resultErr != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		head := "Connection failed"
		if errors.Is(m.resultErr, errSave) {
			head = "Saving failed"
		}
		return errStyle.Render(head) + "\n\n" +
			m.resultErr.Error() + "\n\n" +
			hint.Render("r retry | enter/esc edit")
	}
	okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	return okStyle.Render("Settings saved") + "\n\n" +
		"Backend: " + m.current.API.BaseURL + "\n" +
		"Restart the console to reconnect with the new backend." + "\n\n" +
		hint.Render("enter/esc back")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

var errSave = errors.New("saving settings")

// SaveError marks err as a failure to persist rather than to connect.
func SaveError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errSave, err)
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

func validateOptionalURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateURL(s)
}

func validateInterval(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 3600 {
		return fmt.Errorf("enter a number of seconds between 1 and 3600")
	}
	return nil
}
