package timer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/ledger"
	"tableflip.dev/habitdash/pkg/store"
	"tableflip.dev/habitdash/pkg/timer"
	"tableflip.dev/habitdash/pkg/timeutil"
)

const tickEvery = time.Second

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	focusStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	breakStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("215"))
	completedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	dimStyle       = lipgloss.NewStyle().Faint(true)
	frameStyle     = lipgloss.NewStyle().Padding(1, 2)
)

type keyMap struct {
	Toggle key.Binding
	Break  key.Binding
	Reset  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Break, k.Reset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Toggle, k.Break, k.Reset}, {k.Help, k.Quit}}
}

var defaultKeys = keyMap{
	Toggle: key.NewBinding(key.WithKeys(" ", "s"), key.WithHelp("space", "start/stop")),
	Break:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "break")),
	Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

type tickMsg time.Time

type watchStartedMsg struct {
	ch     <-chan store.Event
	cancel context.CancelFunc
	err    error
}

type watchEventMsg struct {
	event store.Event
}

type watchStoppedMsg struct{}

type ledgerMsg struct {
	event ledger.Event
}

// Model is the live countdown. It recomputes the timer from the wall clock on
// every tick and whenever the terminal regains focus or the process resumes,
// and reloads when another process writes to the store.
type Model struct {
	ctx context.Context
	svc *app.Service

	snap   timer.Snapshot
	today  app.Today
	status string

	progress progress.Model
	help     help.Model
	keys     keyMap

	watchCh     <-chan store.Event
	watchCancel context.CancelFunc
	ledgerCh    <-chan ledger.Event
}

// NewModel returns a Model over svc. Subscriptions end with ctx.
func NewModel(ctx context.Context, svc *app.Service) *Model {
	m := &Model{
		ctx:      ctx,
		svc:      svc,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     defaultKeys,
	}
	m.snap = svc.Timer.OnResume(ctx)
	if m.snap.Status == timer.StatusIdle && svc.Resumed.Status == timer.StatusCompleted {
		m.snap = svc.Resumed
		m.status = completionNote(m.snap)
	}
	m.today = svc.Today(ctx)
	m.ledgerCh = svc.Ledger.Updates(ctx)
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), startWatchCmd(m.ctx, m.svc), m.waitForLedger())
}

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func startWatchCmd(parent context.Context, svc *app.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(parent)
		ch, err := svc.Watch(ctx)
		if err != nil {
			cancel()
			return watchStartedMsg{err: err}
		}
		return watchStartedMsg{ch: ch, cancel: cancel}
	}
}

func (m *Model) waitForWatch() tea.Cmd {
	if m.watchCh == nil {
		return nil
	}
	ch := m.watchCh
	return func() tea.Msg {
		if ev, ok := <-ch; ok {
			return watchEventMsg{event: ev}
		}
		return watchStoppedMsg{}
	}
}

func (m *Model) stopWatch() {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.watchCh = nil
}

func (m *Model) waitForLedger() tea.Cmd {
	if m.ledgerCh == nil {
		return nil
	}
	ch := m.ledgerCh
	return func() tea.Msg {
		if ev, ok := <-ch; ok {
			return ledgerMsg{event: ev}
		}
		return nil
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tickMsg:
		m.apply(m.svc.Timer.Tick(m.ctx))
		if m.svc.Ledger.Today() != m.today.Date {
			m.rollover()
		}
		cmds = append(cmds, tick())
	case tea.FocusMsg, tea.ResumeMsg:
		m.apply(m.svc.Timer.OnResume(m.ctx))
	case tea.WindowSizeMsg:
		m.progress.Width = max(min(msg.Width-8, 60), 10)
		m.help.Width = msg.Width
	case watchStartedMsg:
		if msg.err != nil {
			m.status = "not watching: " + msg.err.Error()
			break
		}
		m.stopWatch()
		m.watchCh = msg.ch
		m.watchCancel = msg.cancel
		cmds = append(cmds, m.waitForWatch())
	case watchEventMsg:
		m.handleWatchEvent(msg.event)
		cmds = append(cmds, m.waitForWatch())
	case watchStoppedMsg:
		m.stopWatch()
	case ledgerMsg:
		m.today = m.svc.Today(m.ctx)
		cmds = append(cmds, m.waitForLedger())
	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleWatchEvent(ev store.Event) {
	switch {
	case ev.Type == store.EventInvalidated:
		m.apply(m.svc.Timer.Load(m.ctx))
		m.today = m.svc.Today(m.ctx)
	case ev.Key == store.KeyTimer:
		m.apply(m.svc.Timer.Load(m.ctx))
	case ev.Key == store.KeyLedger, ev.Key == store.KeyHabits, strings.HasPrefix(ev.Key, store.PrefixLegacyDay):
		if ev.Key == store.KeyHabits {
			if err := m.svc.Habits.Initialize(m.ctx); err != nil {
				m.status = "reload habits: " + err.Error()
			}
		}
		m.today = m.svc.Today(m.ctx)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopWatch()
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Toggle):
		if m.snap.Status == timer.StatusRunning {
			m.act(m.svc.Timer.Stop(m.ctx))
		} else {
			m.act(m.svc.StartTimer(m.ctx, timer.ModeFocus, 0))
		}
	case key.Matches(msg, m.keys.Break):
		if m.snap.Status != timer.StatusRunning {
			m.act(m.svc.StartTimer(m.ctx, timer.ModeBreak, 0))
		}
	case key.Matches(msg, m.keys.Reset):
		m.act(m.svc.Timer.Reset(m.ctx), nil)
	}
	return nil
}

// act shows the result of a user action.
func (m *Model) act(snap timer.Snapshot, err error) {
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
	if snap.Status == timer.StatusCompleted {
		m.complete(snap)
	}
	m.snap = snap
}

// apply shows a recomputed snapshot. A completion stays on screen until the
// timer is started again or reset.
func (m *Model) apply(snap timer.Snapshot) {
	switch {
	case snap.Status == timer.StatusCompleted:
		m.complete(snap)
	case m.snap.Status == timer.StatusCompleted && snap.Status == timer.StatusIdle:
		return
	}
	m.snap = snap
}

func (m *Model) complete(snap timer.Snapshot) {
	m.status = completionNote(snap)
	m.today = m.svc.Today(m.ctx)
}

func (m *Model) rollover() {
	if _, err := m.svc.Habits.CheckRollover(m.ctx); err != nil {
		m.status = "rollover: " + err.Error()
	}
	m.today = m.svc.Today(m.ctx)
}

func completionNote(snap timer.Snapshot) string {
	if snap.Mode == timer.ModeBreak {
		return "Break over."
	}
	return "Focus session complete."
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("habitdash"))
	b.WriteString(dimStyle.Render("  " + m.today.Date.String()))
	b.WriteString("\n\n")

	style := focusStyle
	switch {
	case m.snap.Status == timer.StatusCompleted:
		style = completedStyle
	case m.snap.Mode == timer.ModeBreak:
		style = breakStyle
	}
	b.WriteString(style.Render(fmt.Sprintf("%s  %s", strings.ToUpper(string(m.snap.Mode)), timeutil.Countdown(m.snap.Remaining))))
	b.WriteString(dimStyle.Render("  " + m.snap.Status.String()))
	b.WriteString("\n\n")
	b.WriteString(m.progress.ViewAs(m.snap.Progress()))
	b.WriteString("\n\n")

	done := len(entry.CompletedNames(m.today.Habits))
	b.WriteString(fmt.Sprintf("score %d  streak %d  habits %d/%d  focus %d  slips %d",
		m.today.Score, m.today.Streak, done, len(m.today.Habits),
		m.today.Entry.FocusSessions, m.today.Entry.PenalizedUnitCount))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return frameStyle.Render(b.String())
}
