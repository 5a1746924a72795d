package timer

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tableflip.dev/habitdash/pkg/clock"
	"tableflip.dev/habitdash/pkg/store"
	"tableflip.dev/habitdash/pkg/timer"
)

func press(m *Model, k string) {
	var msg tea.KeyMsg
	if k == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	} else {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	m.Update(msg)
}

func TestModelStartsAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := clock.NewFake(t0)
	svc := newService(t, store.NewMemory(), c)
	m := NewModel(ctx, svc)

	press(m, " ")
	if m.snap.Status != timer.StatusRunning {
		t.Fatalf("expected running after space, got %+v", m.snap)
	}
	c.Advance(90 * time.Second)
	m.Update(tickMsg(c.Now()))
	if m.snap.Remaining != 1410 {
		t.Fatalf("expected 1410s left, got %+v", m.snap)
	}
	if !strings.Contains(m.View(), "23:30") {
		t.Fatalf("countdown missing from view:\n%s", m.View())
	}

	press(m, "s")
	if m.snap.Status != timer.StatusIdle || m.snap.Remaining != 1410 {
		t.Fatalf("expected paused timer, got %+v", m.snap)
	}
	press(m, "b")
	if m.snap.Mode != timer.ModeBreak || m.snap.Status != timer.StatusRunning {
		t.Fatalf("expected break to start from a paused focus, got %+v", m.snap)
	}
}

func TestModelCatchesUpOnFocus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := clock.NewFake(t0)
	svc := newService(t, store.NewMemory(), c)
	m := NewModel(ctx, svc)

	press(m, " ")
	// The terminal was in the background for an hour; no ticks arrived.
	c.Advance(time.Hour)
	m.Update(tea.FocusMsg{})
	if m.snap.Status != timer.StatusCompleted {
		t.Fatalf("expected completion on focus, got %+v", m.snap)
	}
	if m.today.Entry.FocusSessions != 1 {
		t.Fatalf("expected today's focus count to refresh, got %+v", m.today.Entry)
	}

	// Later ticks keep the completion on screen.
	m.Update(tickMsg(c.Now()))
	if m.snap.Status != timer.StatusCompleted {
		t.Fatalf("completion cleared by tick: %+v", m.snap)
	}
	if !strings.Contains(m.View(), "Focus session complete.") {
		t.Fatalf("missing completion note:\n%s", m.View())
	}

	press(m, "r")
	if m.snap.Status != timer.StatusIdle || m.snap.Remaining != timer.FocusDuration {
		t.Fatalf("expected reset timer, got %+v", m.snap)
	}
}

func TestModelReloadsOnExternalTimerWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mem := store.NewMemory()
	c := clock.NewFake(t0)
	svc := newService(t, mem, c)
	m := NewModel(ctx, svc)

	// Another process starts a break.
	other := newService(t, mem, c)
	if _, err := other.StartTimer(ctx, timer.ModeBreak, 0); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.Update(watchEventMsg{event: store.Event{Type: store.EventKeyChanged, Key: store.KeyTimer}})
	if m.snap.Mode != timer.ModeBreak || m.snap.Status != timer.StatusRunning {
		t.Fatalf("expected the external break, got %+v", m.snap)
	}
}

func TestModelRollsOverAtMidnight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := clock.NewFake(time.Date(2025, 1, 6, 23, 59, 0, 0, time.UTC))
	svc := newService(t, store.NewMemory(), c)
	h := svc.Habits.List()[0]
	if _, err := svc.Habits.ToggleCompletion(ctx, h.ID, ""); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	m := NewModel(ctx, svc)

	c.Advance(2 * time.Minute)
	m.Update(tickMsg(c.Now()))
	if m.today.Date != "2025-01-07" {
		t.Fatalf("expected the new day, got %s", m.today.Date)
	}
	for _, h := range m.today.Habits {
		if h.CompletedToday {
			t.Fatalf("flag carried over midnight: %+v", h)
		}
	}
}

func TestModelQuit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := newService(t, store.NewMemory(), clock.NewFake(t0))
	m := NewModel(ctx, svc)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
