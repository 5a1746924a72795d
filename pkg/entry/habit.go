package entry

// Icon is a symbolic reference into the fixed habit icon set.
type Icon string

const (
	IconCheck    Icon = "check"
	IconBook     Icon = "book"
	IconDumbbell Icon = "dumbbell"
	IconWater    Icon = "water"
	IconMoon     Icon = "moon"
	IconLeaf     Icon = "leaf"
	IconCode     Icon = "code"
	IconRun      Icon = "run"
)

var icons = []struct {
	icon    Icon
	symbol  string
	meaning string
}{
	{IconCheck, "✓", "general"},
	{IconBook, "¶", "reading and study"},
	{IconDumbbell, "▲", "strength"},
	{IconWater, "≈", "hydration"},
	{IconMoon, "☾", "sleep"},
	{IconLeaf, "❦", "mindfulness"},
	{IconCode, "λ", "practice"},
	{IconRun, "»", "cardio"},
}

// Icons returns the icon set in cycling order.
func Icons() []Icon {
	out := make([]Icon, 0, len(icons))
	for _, i := range icons {
		out = append(out, i.icon)
	}
	return out
}

// Valid reports whether i belongs to the icon set.
func (i Icon) Valid() bool {
	return i.index() >= 0
}

// Next returns the icon after i, wrapping around. Unknown icons restart the
// cycle.
func (i Icon) Next() Icon {
	idx := i.index()
	return icons[(idx+1)%len(icons)].icon
}

// Symbol renders the icon for terminals.
func (i Icon) Symbol() string {
	if idx := i.index(); idx >= 0 {
		return icons[idx].symbol
	}
	return icons[0].symbol
}

// Meaning is a short description used by the icon key.
func (i Icon) Meaning() string {
	if idx := i.index(); idx >= 0 {
		return icons[idx].meaning
	}
	return ""
}

func (i Icon) index() int {
	for idx, candidate := range icons {
		if candidate.icon == i {
			return idx
		}
	}
	return -1
}

// HabitDefinition is one user-defined habit. The ledger refers to habits by
// Name only; ID is stable across renames.
type HabitDefinition struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CompletedToday bool   `json:"completed"`
	Icon           Icon   `json:"icon"`
}

// CompletedNames lists the names of completed habits in definition order.
func CompletedNames(defs []HabitDefinition) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		if d.CompletedToday {
			names = append(names, d.Name)
		}
	}
	return names
}

// CloneHabits returns a copy of defs.
func CloneHabits(defs []HabitDefinition) []HabitDefinition {
	if defs == nil {
		return nil
	}
	return append([]HabitDefinition{}, defs...)
}
