package habit

import (
	"encoding/json"
	"strings"

	"tableflip.dev/habitdash/pkg/entry"
)

// legacyHabit is the habit object shape older releases stored under
// store.KeyLegacyHabits. Every field is optional.
type legacyHabit struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
	Icon      string `json:"icon"`
}

// decodeLegacy reads a legacy habit list, which is either an array of habit
// objects or an array of plain names.
func decodeLegacy(data []byte) ([]legacyHabit, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var objs []legacyHabit
	if err := json.Unmarshal(data, &objs); err == nil {
		return objs, nil
	}
	// Fallback for the oldest format (array of strings).
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, err
	}
	objs = make([]legacyHabit, 0, len(names))
	for _, name := range names {
		objs = append(objs, legacyHabit{Name: name})
	}
	return objs, nil
}

// upgrade converts legacy habits into definitions. Ids and icons are assigned
// where missing; blank and duplicate names are dropped.
func upgrade(legacy []legacyHabit, newID func() string) []entry.HabitDefinition {
	icons := entry.Icons()
	out := make([]entry.HabitDefinition, 0, len(legacy))
	seen := make(map[string]bool, len(legacy))
	for _, l := range legacy {
		name := strings.TrimSpace(l.Name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		id := strings.TrimSpace(l.ID)
		if id == "" {
			id = newID()
		}
		icon := entry.Icon(strings.ToLower(strings.TrimSpace(l.Icon)))
		if !icon.Valid() {
			icon = icons[len(out)%len(icons)]
		}
		out = append(out, entry.HabitDefinition{
			ID:             id,
			Name:           name,
			CompletedToday: l.Completed,
			Icon:           icon,
		})
	}
	return out
}
