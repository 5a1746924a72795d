package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"tableflip.dev/habitdash/pkg/clock"
	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/store"
)

// flakyStore fails reads and/or writes on demand.
type flakyStore struct {
	*store.Memory
	failReads  bool
	failWrites bool
}

var errDisk = errors.New("disk on fire")

func (f *flakyStore) Get(ctx context.Context, key string, v any) error {
	if f.failReads {
		return errors.Join(store.ErrUnavailable, errDisk)
	}
	return f.Memory.Get(ctx, key, v)
}

func (f *flakyStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if f.failReads {
		return nil, errors.Join(store.ErrUnavailable, errDisk)
	}
	return f.Memory.Keys(ctx, prefix)
}

func (f *flakyStore) Set(ctx context.Context, key string, v any) error {
	if f.failWrites {
		return errors.Join(store.ErrUnavailable, errDisk)
	}
	return f.Memory.Set(ctx, key, v)
}

func newEngine(t *testing.T, s store.Store, now time.Time) (*Engine, *clock.Fake) {
	t.Helper()
	c := clock.NewFake(now)
	return New(s, WithLogger(zaptest.NewLogger(t)), WithClock(c)), c
}

var monday = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func TestRecordHabitCompletion(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, store.NewMemory(), monday)

	got, err := e.RecordHabitCompletion(ctx, "2025-01-06", []string{"Read", "Run", "Read"}, 2, 1)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	want := entry.DailyLogEntry{
		Date:                "2025-01-06",
		HabitsCompleted:     2,
		CompletedHabitNames: []string{"Read", "Run"},
		FocusSessions:       2,
		PenalizedUnitCount:  1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected written entry (-want +got):\n%s", diff)
	}

	// Full replace, not a patch.
	if _, err := e.RecordHabitCompletion(ctx, "2025-01-06", []string{"Run"}, 2, 1); err != nil {
		t.Fatalf("record: %v", err)
	}
	loaded := e.LoadLedger(ctx)
	if len(loaded) != 1 {
		t.Fatalf("expected one day, got %d", len(loaded))
	}
	day := loaded["2025-01-06"]
	if day.HabitsCompleted != len(day.CompletedHabitNames) || day.HabitsCompleted != 1 {
		t.Fatalf("count out of sync with names: %+v", day)
	}
}

func TestRecordRejectsInvalidDate(t *testing.T) {
	e, _ := newEngine(t, store.NewMemory(), monday)
	if _, err := e.RecordHabitCompletion(context.Background(), "06/01/2025", nil, 0, 0); err == nil {
		t.Fatalf("expected error for invalid date")
	}
}

func TestLoadLedgerMergesLegacy(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	e, _ := newEngine(t, mem, monday)

	// Legacy only day.
	if err := mem.Set(ctx, store.PrefixLegacyDay+"Fri Jan 3 2025", entry.LegacyRecord{
		Habits:        []string{"Read"},
		FocusSessions: 3,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Day present in both formats; the unified record lacks counters.
	if err := mem.Set(ctx, store.PrefixLegacyDay+"1/4/2025", entry.LegacyRecord{
		Habits:        []string{"Old"},
		FocusSessions: 5,
		PenaltyStatus: entry.PenaltySlipped,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mem.SetRaw(store.KeyLedger, []byte(`{"2025-01-04":{"completedHabitNames":["Run"]}}`))
	// Unparseable label is ignored.
	if err := mem.Set(ctx, store.PrefixLegacyDay+"whenever", entry.LegacyRecord{FocusSessions: 9}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got := e.LoadLedger(ctx)
	want := map[entry.Date]entry.DailyLogEntry{
		"2025-01-03": entry.New("2025-01-03", []string{"Read"}, 3, 0),
		"2025-01-04": entry.New("2025-01-04", []string{"Run"}, 5, 1),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected ledger (-want +got):\n%s", diff)
	}

	history := e.History(ctx)
	if len(history) != 2 || history[0].Date != "2025-01-03" {
		t.Fatalf("expected ascending history, got %+v", history)
	}
}

func TestMalformedLedgerIsTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	e, _ := newEngine(t, mem, monday)

	mem.SetRaw(store.KeyLedger, []byte(`[1,2,3]`))
	if got := e.LoadLedger(ctx); len(got) != 0 {
		t.Fatalf("expected empty ledger, got %v", got)
	}
	if _, err := e.RecordHabitCompletion(ctx, "2025-01-06", []string{"Read"}, 0, 0); err != nil {
		t.Fatalf("write over malformed ledger: %v", err)
	}
	if got := e.Entry(ctx, "2025-01-06"); got.HabitsCompleted != 1 {
		t.Fatalf("expected recovered write, got %+v", got)
	}

	// A single bad day does not hide its neighbours.
	mem.SetRaw(store.KeyLedger, []byte(`{"2025-01-05":"garbage","2025-01-06":{"focusSessions":2}}`))
	got := e.LoadLedger(ctx)
	if len(got) != 1 || got["2025-01-06"].FocusSessions != 2 {
		t.Fatalf("expected only the valid day, got %v", got)
	}
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	fs := &flakyStore{Memory: store.NewMemory(), failReads: true}
	e, _ := newEngine(t, fs, monday)

	if got := e.LoadLedger(ctx); len(got) != 0 {
		t.Fatalf("expected empty ledger on read failure, got %v", got)
	}
	// Missing history does not block new writes.
	if _, err := e.RecordHabitCompletion(ctx, "2025-01-06", []string{"Read"}, 1, 0); err != nil {
		t.Fatalf("write with unreadable history: %v", err)
	}

	fs.failReads, fs.failWrites = false, true
	notified := 0
	e.Subscribe(func(context.Context, Event) { notified++ })
	_, err := e.RecordHabitCompletion(ctx, "2025-01-06", nil, 0, 0)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if notified != 0 {
		t.Fatalf("failed writes must not notify")
	}
}

func TestIncrementAndAdjust(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, store.NewMemory(), monday)

	if _, err := e.RecordHabitCompletion(ctx, "2025-01-06", []string{"Read"}, 0, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := e.IncrementFocusSessions(ctx, "2025-01-06"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	got, err := e.AdjustPenalized(ctx, "2025-01-06", 2)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if diff := cmp.Diff(entry.New("2025-01-06", []string{"Read"}, 1, 2), got); diff != "" {
		t.Fatalf("unexpected entry (-want +got):\n%s", diff)
	}

	got, err = e.AdjustPenalized(ctx, "2025-01-06", -5)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got.PenalizedUnitCount != 0 {
		t.Fatalf("penalized count must clamp at zero, got %d", got.PenalizedUnitCount)
	}
}

func TestObservers(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, store.NewMemory(), monday)

	var order []string
	cancelA := e.Subscribe(func(_ context.Context, ev Event) {
		order = append(order, "a:"+ev.Date.String())
	})
	e.Subscribe(func(context.Context, Event) { panic("boom") })
	e.Subscribe(func(_ context.Context, ev Event) {
		// Observers may read back through the engine.
		order = append(order, "c:"+ev.Date.String())
		_ = e.Entry(ctx, ev.Date)
	})

	if _, err := e.RecordHabitCompletion(ctx, "2025-01-06", nil, 1, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	cancelA()
	cancelA()
	if _, err := e.IncrementFocusSessions(ctx, "2025-01-07"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	want := []string{"a:2025-01-06", "c:2025-01-06", "c:2025-01-07"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("unexpected notifications (-want +got):\n%s", diff)
	}
}

func TestUpdatesChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e, _ := newEngine(t, store.NewMemory(), monday)

	ch := e.Updates(ctx)
	if _, err := e.RecordHabitCompletion(ctx, "2025-01-06", nil, 1, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	select {
	case ev := <-ch:
		if ev.Date != "2025-01-06" || ev.Entry.FocusSessions != 1 {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}

	cancel()
	for range ch {
	}
}

func TestRolloverDay(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	e, c := newEngine(t, mem, monday)

	if err := e.MarkActive(ctx, "2025-01-06"); err != nil {
		t.Fatalf("mark active: %v", err)
	}
	if _, err := e.IncrementFocusSessions(ctx, "2025-01-06"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	habits := []entry.HabitDefinition{
		{ID: "1", Name: "Read", CompletedToday: true},
		{ID: "2", Name: "Run"},
		{ID: "3", Name: "Meditate", CompletedToday: true},
	}

	// Same day: nothing to do.
	out, rolled, err := e.RolloverDay(ctx, "2025-01-06", habits)
	if err != nil || rolled {
		t.Fatalf("expected no rollover on the same day, rolled=%v err=%v", rolled, err)
	}
	if diff := cmp.Diff(habits, out); diff != "" {
		t.Fatalf("habits changed (-want +got):\n%s", diff)
	}

	c.Advance(24 * time.Hour)
	out, rolled, err = e.RolloverDay(ctx, "2025-01-06", habits)
	if err != nil || !rolled {
		t.Fatalf("expected rollover, rolled=%v err=%v", rolled, err)
	}
	for _, h := range out {
		if h.CompletedToday {
			t.Fatalf("habit %q still completed after rollover", h.Name)
		}
	}
	if !habits[0].CompletedToday {
		t.Fatalf("rollover must not mutate its input")
	}

	ledger := e.LoadLedger(ctx)
	want := entry.New("2025-01-06", []string{"Read", "Meditate"}, 1, 0)
	if diff := cmp.Diff(want, ledger["2025-01-06"]); diff != "" {
		t.Fatalf("unexpected frozen entry (-want +got):\n%s", diff)
	}
	if _, ok := ledger["2025-01-07"]; ok {
		t.Fatalf("rollover must not create today's entry")
	}

	// Second call for the same transition is a no-op.
	again, rolled, err := e.RolloverDay(ctx, "2025-01-06", habits)
	if err != nil || rolled {
		t.Fatalf("expected idempotent rollover, rolled=%v err=%v", rolled, err)
	}
	if diff := cmp.Diff(habits, again); diff != "" {
		t.Fatalf("second rollover changed habits (-want +got):\n%s", diff)
	}
	if guard, _ := e.LastActiveDate(ctx); guard != "2025-01-07" {
		t.Fatalf("expected guard to advance to 2025-01-07, got %q", guard)
	}
}

func TestRolloverWithoutCompletionsWritesNothing(t *testing.T) {
	ctx := context.Background()
	e, c := newEngine(t, store.NewMemory(), monday)
	if err := e.MarkActive(ctx, "2025-01-06"); err != nil {
		t.Fatalf("mark active: %v", err)
	}
	c.Advance(48 * time.Hour)

	_, rolled, err := e.RolloverDay(ctx, "2025-01-06", []entry.HabitDefinition{{ID: "1", Name: "Read"}})
	if err != nil || !rolled {
		t.Fatalf("expected rollover, rolled=%v err=%v", rolled, err)
	}
	if got := e.LoadLedger(ctx); len(got) != 0 {
		t.Fatalf("expected no entries, got %v", got)
	}
}

func TestCompactFoldsLegacyRecords(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	e, _ := newEngine(t, mem, monday)

	if err := mem.Set(ctx, store.PrefixLegacyDay+"Fri Jan 3 2025", entry.LegacyRecord{
		Habits:        []string{"Read"},
		FocusSessions: 3,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := mem.Set(ctx, store.PrefixLegacyDay+"1/4/2025", entry.LegacyRecord{
		FocusSessions: 5,
		PenaltyStatus: entry.PenaltySlipped,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mem.SetRaw(store.KeyLedger, []byte(`{"2025-01-04":{"completedHabitNames":["Run"]}}`))
	mem.SetRaw(store.PrefixLegacyDay+"whenever", []byte(`{"focusSessions":9}`))

	before := e.LoadLedger(ctx)
	removed, err := e.Compact(ctx)
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	wantRemoved := []string{store.PrefixLegacyDay + "1/4/2025", store.PrefixLegacyDay + "Fri Jan 3 2025"}
	if diff := cmp.Diff(wantRemoved, removed); diff != "" {
		t.Fatalf("unexpected removed keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, e.LoadLedger(ctx)); diff != "" {
		t.Fatalf("compaction changed the ledger (-want +got):\n%s", diff)
	}

	left, err := e.LegacyKeys(ctx)
	if err != nil {
		t.Fatalf("legacy keys: %v", err)
	}
	if len(left) != 1 || left[0].Key != store.PrefixLegacyDay+"whenever" || left[0].Err == nil {
		t.Fatalf("expected only the unparseable key to remain, got %+v", left)
	}

	// Nothing left to fold.
	if removed, err := e.Compact(ctx); err != nil || len(removed) != 0 {
		t.Fatalf("second compact: %v %v", removed, err)
	}
}
