// Package habit manages the user's habit definitions: their names, icons and
// today's completion flags. Completion changes are mirrored into the ledger.
package habit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/ledger"
	"tableflip.dev/habitdash/pkg/store"
)

var (
	ErrNotFound      = errors.New("habit: not found")
	ErrDuplicateName = errors.New("habit: duplicate name")
	ErrEmptyName     = errors.New("habit: empty name")
)

// Defaults is the habit set seeded into an empty store.
var Defaults = []struct {
	Name string
	Icon entry.Icon
}{
	{"Exercise", entry.IconDumbbell},
	{"Read", entry.IconBook},
	{"Meditate", entry.IconLeaf},
	{"Drink Water", entry.IconWater},
}

// Manager owns the habit list persisted under store.KeyHabits.
type Manager struct {
	store  store.Store
	ledger *ledger.Engine
	log    *zap.Logger
	newID  func() string

	mu     sync.Mutex
	habits []entry.HabitDefinition
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithIDs replaces the id generator, mostly for tests.
func WithIDs(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// New returns a Manager. Call Initialize before use.
func New(s store.Store, l *ledger.Engine, opts ...Option) *Manager {
	m := &Manager{
		store:  s,
		ledger: l,
		log:    zap.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Named("habit")
	return m
}

// Initialize loads the habit list, upgrading the legacy list or seeding the
// defaults when needed, then rolls the day over if the date changed and
// re-derives today's completion flags from the ledger.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	m.habits = m.load(ctx)
	m.mu.Unlock()

	if _, err := m.CheckRollover(ctx); err != nil {
		m.log.Warn("rollover deferred", zap.Error(err))
	}

	today := m.ledger.Entry(ctx, m.ledger.Today())
	if today.IsEmpty() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := entry.CloneHabits(m.habits)
	for i := range next {
		next[i].CompletedToday = today.HasHabit(next[i].Name)
	}
	m.habits = next
	return nil
}

func (m *Manager) load(ctx context.Context) []entry.HabitDefinition {
	var defs []entry.HabitDefinition
	err := m.store.Get(ctx, store.KeyHabits, &defs)
	switch {
	case err == nil:
		return defs
	case errors.Is(err, store.ErrMalformed):
		m.log.Warn("habit list malformed", zap.Error(err))
	case !errors.Is(err, store.ErrNotFound):
		// Keep going on defaults without overwriting what may be a readable
		// list on the next attempt.
		m.log.Error("habit list unreadable", zap.Error(err))
		return m.defaults()
	}

	var raw json.RawMessage
	if err := m.store.Get(ctx, store.KeyLegacyHabits, &raw); err == nil {
		legacy, err := decodeLegacy(raw)
		if err != nil {
			m.log.Warn("legacy habit list malformed", zap.Error(err))
		} else if defs := upgrade(legacy, m.newID); len(defs) > 0 {
			m.log.Info("upgraded legacy habit list", zap.Int("habits", len(defs)))
			m.persist(ctx, defs)
			return defs
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		m.log.Warn("legacy habit list unreadable", zap.Error(err))
	}

	defs = m.defaults()
	m.log.Info("seeded default habits")
	m.persist(ctx, defs)
	return defs
}

func (m *Manager) defaults() []entry.HabitDefinition {
	out := make([]entry.HabitDefinition, 0, len(Defaults))
	for _, d := range Defaults {
		out = append(out, entry.HabitDefinition{ID: m.newID(), Name: d.Name, Icon: d.Icon})
	}
	return out
}

func (m *Manager) persist(ctx context.Context, defs []entry.HabitDefinition) error {
	if err := m.store.Set(ctx, store.KeyHabits, defs); err != nil {
		m.log.Error("habit list write failed", zap.Error(err))
		return fmt.Errorf("habit: save: %w", err)
	}
	return nil
}

// List returns a copy of the habits in display order.
func (m *Manager) List() []entry.HabitDefinition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return entry.CloneHabits(m.habits)
}

// Get returns the habit with the given id.
func (m *Manager) Get(id string) (entry.HabitDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexLocked(id)
	if idx < 0 {
		return entry.HabitDefinition{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return m.habits[idx], nil
}

// Find resolves ref as an id, an id prefix or a case-insensitive name.
func (m *Manager) Find(ref string) (entry.HabitDefinition, error) {
	ref = strings.TrimSpace(ref)
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.indexLocked(ref); idx >= 0 {
		return m.habits[idx], nil
	}
	for _, h := range m.habits {
		if strings.EqualFold(h.Name, ref) {
			return h, nil
		}
	}
	var match *entry.HabitDefinition
	for i, h := range m.habits {
		if ref != "" && strings.HasPrefix(h.ID, ref) {
			if match != nil {
				return entry.HabitDefinition{}, fmt.Errorf("%w: %q is ambiguous", ErrNotFound, ref)
			}
			match = &m.habits[i]
		}
	}
	if match == nil {
		return entry.HabitDefinition{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	return *match, nil
}

// Add appends a new habit with the next icon in the cycle.
func (m *Manager) Add(ctx context.Context, name string) (entry.HabitDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, err := m.validNameLocked(name, "")
	if err != nil {
		return entry.HabitDefinition{}, err
	}
	icons := entry.Icons()
	h := entry.HabitDefinition{
		ID:   m.newID(),
		Name: name,
		Icon: icons[len(m.habits)%len(icons)],
	}
	next := append(entry.CloneHabits(m.habits), h)
	if err := m.commitLocked(ctx, next); err != nil {
		return entry.HabitDefinition{}, err
	}
	return h, nil
}

// Rename changes a habit's name. Ledger history keeps the old name.
func (m *Manager) Rename(ctx context.Context, id, newName string) (entry.HabitDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexLocked(id)
	if idx < 0 {
		return entry.HabitDefinition{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	name, err := m.validNameLocked(newName, id)
	if err != nil {
		return entry.HabitDefinition{}, err
	}
	next := entry.CloneHabits(m.habits)
	next[idx].Name = name
	if err := m.commitLocked(ctx, next); err != nil {
		return entry.HabitDefinition{}, err
	}
	return next[idx], nil
}

// Remove deletes a habit. Days it was completed on are left as recorded.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	next := append(entry.CloneHabits(m.habits[:idx]), m.habits[idx+1:]...)
	return m.commitLocked(ctx, next)
}

// CycleIcon moves a habit to the next icon in the fixed set.
func (m *Manager) CycleIcon(ctx context.Context, id string) (entry.HabitDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexLocked(id)
	if idx < 0 {
		return entry.HabitDefinition{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	next := entry.CloneHabits(m.habits)
	next[idx].Icon = next[idx].Icon.Next()
	if err := m.commitLocked(ctx, next); err != nil {
		return entry.HabitDefinition{}, err
	}
	return next[idx], nil
}

// ToggleCompletion flips a habit's completion for date. For today the flag is
// flipped and the day's entry is rebuilt from the full completed set; for
// any other day only that day's entry changes. Focus and penalized counts are
// kept either way.
func (m *Manager) ToggleCompletion(ctx context.Context, id string, date entry.Date) (entry.DailyLogEntry, error) {
	today := m.ledger.Today()
	if date == "" {
		date = today
	}
	if !date.Valid() {
		return entry.DailyLogEntry{}, fmt.Errorf("habit: invalid date %q", date)
	}

	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return entry.DailyLogEntry{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if date != today {
		name := m.habits[idx].Name
		m.mu.Unlock()
		return m.ledger.ToggleHabit(ctx, date, name)
	}

	next := entry.CloneHabits(m.habits)
	next[idx].CompletedToday = !next[idx].CompletedToday
	if err := m.commitLocked(ctx, next); err != nil {
		m.mu.Unlock()
		return entry.DailyLogEntry{}, err
	}
	names := entry.CompletedNames(next)
	m.mu.Unlock()

	return m.ledger.SetCompletedHabits(ctx, date, names)
}

// CheckRollover finalizes the previous day when the date has changed since
// the last check and clears today's flags. It reports whether a rollover
// happened.
func (m *Manager) CheckRollover(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous, ok := m.ledger.LastActiveDate(ctx)
	if !ok {
		previous = m.ledger.Today()
	}
	out, rolled, err := m.ledger.RolloverDay(ctx, previous, m.habits)
	if err != nil {
		return false, err
	}
	if !rolled {
		return false, nil
	}
	m.habits = out
	if err := m.persist(ctx, out); err != nil {
		return true, err
	}
	return true, nil
}

func (m *Manager) commitLocked(ctx context.Context, next []entry.HabitDefinition) error {
	if err := m.persist(ctx, next); err != nil {
		return err
	}
	m.habits = next
	return nil
}

func (m *Manager) indexLocked(id string) int {
	for i, h := range m.habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

// validNameLocked trims name and checks it against every habit except self.
func (m *Manager) validNameLocked(name, self string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	for _, h := range m.habits {
		if h.ID != self && strings.EqualFold(h.Name, name) {
			return "", fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	return name, nil
}
