// Package watch is the live terminal monitor for a single session.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "saferun/internal/modules/session/dto"
	"saferun/internal/ui/theme"
)

// ExtendBy is how much the extend key adds to a timer session.
const ExtendBy = 15

const refreshEvery = time.Second

// SessionPort is the slice of the session usecase the monitor drives.
type SessionPort interface {
	Get(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error)
	CheckIn(ctx context.Context, input sessiondto.CheckInInput) (sessiondto.ResultOutput, error)
	Extend(ctx context.Context, input sessiondto.ExtendInput) (sessiondto.ResultOutput, error)
	Panic(ctx context.Context, sessionID string) (sessiondto.ResultOutput, error)
	End(ctx context.Context, sessionID string) (sessiondto.ResultOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type tickMsg time.Time

type loadedMsg struct {
	session sessiondto.SessionOutput
	err     error
}

type actionMsg struct {
	action string
	result sessiondto.ResultOutput
	err    error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	CheckIn key.Binding
	Extend  key.Binding
	Panic   key.Binding
	End     key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		CheckIn: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check in")),
		Extend:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", fmt.Sprintf("extend %dm", ExtendBy))),
		Panic:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "panic")),
		End:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CheckIn, k.Extend, k.Panic, k.End, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port      SessionPort
	sessionID string
	now       func() time.Time

	session sessiondto.SessionOutput
	loaded  bool
	status  string

	keys  keyMap
	help  help.Model
	width int
}

func New(port SessionPort, sessionID string) Model {
	return Model{
		port:      port,
		sessionID: sessionID,
		now:       time.Now,
		status:    "loading",
		keys:      defaultKeys(),
		help:      help.New(),
	}
}

// WithClock replaces the wall clock used for the countdown.
func (m Model) WithClock(now func() time.Time) Model {
	m.now = now
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tickMsg:
		return m, tea.Batch(m.load(), m.tick())

	case loadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.session = msg.session
		m.loaded = true
		if strings.HasPrefix(m.status, "refresh failed") || m.status == "loading" {
			m.status = "watching"
		}

	case actionMsg:
		if msg.err != nil {
			m.status = msg.action + " failed: " + msg.err.Error()
			return m, nil
		}
		m.session = msg.result.Session
		m.loaded = true
		m.status = msg.action + " ok"
		switch {
		case msg.result.Notification.Sent:
			m.status += ", contact notified"
		case msg.result.Notification.Error != "":
			m.status += ", notification failed: " + msg.result.Notification.Error
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.CheckIn):
			return m, m.act("check-in", func(ctx context.Context) (sessiondto.ResultOutput, error) {
				return m.port.CheckIn(ctx, sessiondto.CheckInInput{SessionID: m.sessionID, Type: "safe"})
			})
		case key.Matches(msg, m.keys.Extend):
			return m, m.act("extend", func(ctx context.Context) (sessiondto.ResultOutput, error) {
				return m.port.Extend(ctx, sessiondto.ExtendInput{SessionID: m.sessionID, Minutes: ExtendBy})
			})
		case key.Matches(msg, m.keys.Panic):
			return m, m.act("panic", func(ctx context.Context) (sessiondto.ResultOutput, error) {
				return m.port.Panic(ctx, m.sessionID)
			})
		case key.Matches(msg, m.keys.End):
			return m, m.act("end", func(ctx context.Context) (sessiondto.ResultOutput, error) {
				return m.port.End(ctx, m.sessionID)
			})
		}
	}
	return m, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) load() tea.Cmd {
	port, sessionID := m.port, m.sessionID
	return func() tea.Msg {
		s, err := port.Get(context.Background(), sessionID)
		return loadedMsg{session: s, err: err}
	}
}

func (m Model) act(action string, call func(context.Context) (sessiondto.ResultOutput, error)) tea.Cmd {
	return func() tea.Msg {
		result, err := call(context.Background())
		return actionMsg{action: action, result: result, err: err}
	}
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	header := theme.Title.Render("saferun") + theme.Muted.Render("  session "+m.sessionID)
	if !m.loaded {
		return theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", theme.Muted.Render(m.status)))
	}

	s := m.session
	rows := []string{
		row("status", m.renderStatus()),
		row("kind", s.Kind),
		row("deadline", s.Deadline.Local().Format("15:04:05")),
		row("next", m.renderCountdown()),
		row("check-ins", fmt.Sprintf("%d", s.CheckInCount)),
	}
	if s.ExtendedMin > 0 {
		rows = append(rows, row("extended", fmt.Sprintf("+%dm", s.ExtendedMin)))
	}
	if s.Route != nil {
		rows = append(rows, row("route", m.renderRoute()))
	}

	pane := theme.Pane
	if m.alert() {
		pane = theme.PaneAlert
	}
	body := pane.Render(strings.Join(rows, "\n"))

	return theme.App.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		theme.Muted.Render(m.status),
		m.help.View(m.keys),
	))
}

func row(label, value string) string {
	return theme.Label.Render(label) + value
}

func (m Model) alert() bool {
	s := m.session
	return s.Status == "emergency" || s.EscalationSent || (s.Status == "active" && m.remaining() < 0)
}

func (m Model) renderStatus() string {
	s := m.session
	switch {
	case s.Status == "emergency":
		return theme.Danger.Render("EMERGENCY")
	case s.Status == "completed":
		return theme.Good.Render("completed")
	case s.EscalationSent:
		return theme.Danger.Render("active, contact alerted")
	default:
		return theme.Hot.Render(s.Status)
	}
}

func (m Model) renderCountdown() string {
	if m.session.Status != "active" {
		return theme.Muted.Render("-")
	}
	left := m.remaining()
	if left < 0 {
		return theme.Danger.Render("overdue by " + formatDuration(-left))
	}
	return formatDuration(left)
}

func (m Model) renderRoute() string {
	r := m.session.Route
	if r.Arrived {
		return theme.Good.Render("arrived")
	}
	if r.DistanceKM == nil {
		return fmt.Sprintf("%.2f km planned, no position yet", r.EstimatedDistanceKM)
	}
	return fmt.Sprintf("%.2f km to go of %.2f km", *r.DistanceKM, r.EstimatedDistanceKM)
}

func (m Model) remaining() time.Duration {
	return m.session.Deadline.Sub(m.now())
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	mnt := int(d % time.Hour / time.Minute)
	sec := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, mnt, sec)
	}
	return fmt.Sprintf("%02dm%02ds", mnt, sec)
}

// Run starts the monitor on the terminal and blocks until the user quits.
func Run(port SessionPort, sessionID string) error {
	_, err := tea.NewProgram(New(port, sessionID), tea.WithAltScreen()).Run()
	return err
}
