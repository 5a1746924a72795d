package habit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"tableflip.dev/habitdash/pkg/clock"
	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/ledger"
	"tableflip.dev/habitdash/pkg/store"
)

type fixture struct {
	store   *store.Memory
	clock   *clock.Fake
	ledger  *ledger.Engine
	manager *Manager
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("h%d", n)
	}
}

func newFixture(t *testing.T, s *store.Memory) *fixture {
	t.Helper()
	if s == nil {
		s = store.NewMemory()
	}
	log := zaptest.NewLogger(t)
	f := &fixture{store: s, clock: clock.NewFake(time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC))}
	f.ledger = ledger.New(s, ledger.WithClock(f.clock), ledger.WithLogger(log))
	f.manager = New(s, f.ledger, WithLogger(log), WithIDs(sequentialIDs()))
	if err := f.manager.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return f
}

func names(defs []entry.HabitDefinition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}

func TestInitializeSeedsDefaults(t *testing.T) {
	f := newFixture(t, nil)
	got := f.manager.List()
	if diff := cmp.Diff([]string{"Exercise", "Read", "Meditate", "Drink Water"}, names(got)); diff != "" {
		t.Fatalf("unexpected defaults (-want +got):\n%s", diff)
	}
	for _, h := range got {
		if h.ID == "" || !h.Icon.Valid() || h.CompletedToday {
			t.Fatalf("bad default habit %+v", h)
		}
	}
	var persisted []entry.HabitDefinition
	if err := f.store.Get(context.Background(), store.KeyHabits, &persisted); err != nil {
		t.Fatalf("defaults not persisted: %v", err)
	}
	if diff := cmp.Diff(got, persisted); diff != "" {
		t.Fatalf("persisted list differs (-want +got):\n%s", diff)
	}
}

func TestLegacyUpgradeRunsOnce(t *testing.T) {
	tests := map[string]struct {
		legacy string
		want   []entry.HabitDefinition
	}{
		"plain names": {
			legacy: `["Walk", " Stretch ", "", "walk"]`,
			want: []entry.HabitDefinition{
				{ID: "h1", Name: "Walk", Icon: entry.IconCheck},
				{ID: "h2", Name: "Stretch", Icon: entry.IconBook},
			},
		},
		"objects": {
			legacy: `[{"id":"a","name":"Journal","icon":"moon"},{"name":"Code","completed":true,"icon":"bogus"}]`,
			want: []entry.HabitDefinition{
				{ID: "a", Name: "Journal", Icon: entry.IconMoon},
				{ID: "h1", Name: "Code", CompletedToday: true, Icon: entry.IconBook},
			},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := store.NewMemory()
			s.SetRaw(store.KeyLegacyHabits, []byte(tc.legacy))

			f := newFixture(t, s)
			if diff := cmp.Diff(tc.want, f.manager.List()); diff != "" {
				t.Fatalf("unexpected upgrade (-want +got):\n%s", diff)
			}

			// A second start reads the new key and does not upgrade again.
			if _, err := f.manager.Rename(context.Background(), tc.want[0].ID, "Renamed"); err != nil {
				t.Fatalf("rename: %v", err)
			}
			again := New(s, f.ledger, WithIDs(sequentialIDs()))
			if err := again.Initialize(context.Background()); err != nil {
				t.Fatalf("initialize: %v", err)
			}
			if got := again.List()[0].Name; got != "Renamed" {
				t.Fatalf("legacy list was upgraded twice, first habit is %q", got)
			}

			// The legacy key is left in place.
			var raw json.RawMessage
			if err := s.Get(context.Background(), store.KeyLegacyHabits, &raw); err != nil {
				t.Fatalf("legacy key removed: %v", err)
			}
		})
	}
}

func TestMalformedHabitListFallsBack(t *testing.T) {
	s := store.NewMemory()
	s.SetRaw(store.KeyHabits, []byte(`{"not":"a list"}`))
	s.SetRaw(store.KeyLegacyHabits, []byte(`["Walk"]`))
	f := newFixture(t, s)
	if diff := cmp.Diff([]string{"Walk"}, names(f.manager.List())); diff != "" {
		t.Fatalf("unexpected habits (-want +got):\n%s", diff)
	}
}

func TestToggleKeepsCountInSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	habits := f.manager.List()
	today := f.ledger.Today()

	if _, err := f.ledger.IncrementFocusSessions(ctx, today); err != nil {
		t.Fatalf("focus: %v", err)
	}

	steps := []struct {
		id   string
		want []string
	}{
		{habits[0].ID, []string{"Exercise"}},
		{habits[2].ID, []string{"Exercise", "Meditate"}},
		{habits[0].ID, []string{"Meditate"}},
		{habits[1].ID, []string{"Read", "Meditate"}},
		{habits[1].ID, []string{"Meditate"}},
	}
	for i, step := range steps {
		got, err := f.manager.ToggleCompletion(ctx, step.id, "")
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if diff := cmp.Diff(step.want, got.CompletedHabitNames); diff != "" {
			t.Fatalf("step %d: unexpected names (-want +got):\n%s", i, diff)
		}
		if got.HabitsCompleted != len(got.CompletedHabitNames) {
			t.Fatalf("step %d: count %d for %d names", i, got.HabitsCompleted, len(got.CompletedHabitNames))
		}
		if got.FocusSessions != 1 {
			t.Fatalf("step %d: focus sessions lost: %+v", i, got)
		}
		stored := f.ledger.Entry(ctx, today)
		if diff := cmp.Diff(got, stored); diff != "" {
			t.Fatalf("step %d: ledger differs (-want +got):\n%s", i, diff)
		}
	}
}

func TestTogglePastDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	h := f.manager.List()[1]
	past := f.ledger.Today().AddDays(-3)

	got, err := f.manager.ToggleCompletion(ctx, h.ID, past)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if diff := cmp.Diff([]string{"Read"}, got.CompletedHabitNames); diff != "" {
		t.Fatalf("unexpected names (-want +got):\n%s", diff)
	}
	if current, _ := f.manager.Get(h.ID); current.CompletedToday {
		t.Fatalf("toggling a past day changed today's flag")
	}
	if got, _ := f.manager.ToggleCompletion(ctx, h.ID, past); got.HabitsCompleted != 0 {
		t.Fatalf("expected second toggle to clear the day, got %+v", got)
	}
}

func TestRenameDoesNotRewriteHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	h := f.manager.List()[1]
	yesterday := f.ledger.Today().AddDays(-1)
	if _, err := f.ledger.RecordHabitCompletion(ctx, yesterday, []string{"Read"}, 0, 0); err != nil {
		t.Fatalf("record: %v", err)
	}

	renamed, err := f.manager.Rename(ctx, h.ID, "  Study ")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "Study" || renamed.ID != h.ID {
		t.Fatalf("unexpected rename result %+v", renamed)
	}
	if diff := cmp.Diff([]string{"Read"}, f.ledger.Entry(ctx, yesterday).CompletedHabitNames); diff != "" {
		t.Fatalf("history rewritten (-want +got):\n%s", diff)
	}

	if err := f.manager.Remove(ctx, h.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if f.ledger.Entry(ctx, yesterday).HabitsCompleted != 1 {
		t.Fatalf("remove altered history")
	}
}

func TestStructuralErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	habits := f.manager.List()

	if _, err := f.manager.Add(ctx, "   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := f.manager.Add(ctx, "read"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := f.manager.Rename(ctx, habits[0].ID, "MEDITATE"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := f.manager.Rename(ctx, habits[0].ID, "exercise"); err != nil {
		t.Fatalf("renaming to a different case of itself: %v", err)
	}
	if _, err := f.manager.CycleIcon(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.manager.Remove(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.manager.ToggleCompletion(ctx, "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddAndCycleIcon(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	h, err := f.manager.Add(ctx, "Journal")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if h.ID != "h5" || h.Icon != entry.IconMoon {
		t.Fatalf("unexpected new habit %+v", h)
	}
	cycled, err := f.manager.CycleIcon(ctx, h.ID)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if cycled.Icon != entry.IconLeaf {
		t.Fatalf("expected leaf icon, got %s", cycled.Icon)
	}

	var persisted []entry.HabitDefinition
	if err := f.store.Get(ctx, store.KeyHabits, &persisted); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(persisted) != 5 || persisted[4].Icon != entry.IconLeaf {
		t.Fatalf("edit not persisted: %+v", persisted)
	}
}

func TestFind(t *testing.T) {
	f := newFixture(t, nil)
	for _, ref := range []string{"h2", "read", " Read "} {
		h, err := f.manager.Find(ref)
		if err != nil || h.Name != "Read" {
			t.Fatalf("Find(%q) = %+v, %v", ref, h, err)
		}
	}
	if _, err := f.manager.Find("h"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ambiguous prefix to fail, got %v", err)
	}
}

func TestRolloverRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	day1 := f.ledger.Today()
	habits := f.manager.List()

	for _, h := range habits[:3] {
		if _, err := f.manager.ToggleCompletion(ctx, h.ID, ""); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}

	// Same day: nothing happens.
	if rolled, err := f.manager.CheckRollover(ctx); err != nil || rolled {
		t.Fatalf("unexpected same-day rollover: %v %v", rolled, err)
	}

	f.clock.Advance(24 * time.Hour)
	rolled, err := f.manager.CheckRollover(ctx)
	if err != nil || !rolled {
		t.Fatalf("expected rollover, got %v %v", rolled, err)
	}
	for _, h := range f.manager.List() {
		if h.CompletedToday {
			t.Fatalf("flag survived rollover: %+v", h)
		}
	}
	prev := f.ledger.Entry(ctx, day1)
	if diff := cmp.Diff([]string{"Exercise", "Read", "Meditate"}, prev.CompletedHabitNames); diff != "" {
		t.Fatalf("unexpected finalized day (-want +got):\n%s", diff)
	}

	// Idempotent on the new day.
	if rolled, err := f.manager.CheckRollover(ctx); err != nil || rolled {
		t.Fatalf("rollover ran twice: %v %v", rolled, err)
	}
}

func TestInitializeRederivesFlagsFromLedger(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	f := newFixture(t, s)
	today := f.ledger.Today()
	if _, err := f.ledger.RecordHabitCompletion(ctx, today, []string{"Meditate"}, 0, 0); err != nil {
		t.Fatalf("record: %v", err)
	}

	again := New(s, f.ledger, WithIDs(sequentialIDs()))
	if err := again.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	for _, h := range again.List() {
		if h.CompletedToday != (h.Name == "Meditate") {
			t.Fatalf("unexpected flag on %+v", h)
		}
	}
}
