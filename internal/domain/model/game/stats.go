package game

import (
	"fmt"
	"sort"
)

// CharacterStats holds named numeric attributes, each with a fixed ceiling
// recorded at creation. Normal play may never push a stat above its ceiling
// or below zero. The type is immutable: deltas produce a new value.
type CharacterStats struct {
	values map[string]int
	maxima map[string]int
}

// NewCharacterStats creates stats from initial values.
// Each stat's initial value doubles as its permanent maximum.
func NewCharacterStats(initial map[string]int) (CharacterStats, error) {
	if len(initial) == 0 {
		return CharacterStats{}, fmt.Errorf("at least one stat is required")
	}

	values := make(map[string]int, len(initial))
	maxima := make(map[string]int, len(initial))
	for name, v := range initial {
		if name == "" {
			return CharacterStats{}, fmt.Errorf("stat name must not be empty")
		}
		if v < 0 {
			return CharacterStats{}, fmt.Errorf("stat %q must be non-negative, got %d", name, v)
		}
		values[name] = v
		maxima[name] = v
	}

	return CharacterStats{values: values, maxima: maxima}, nil
}

// RestoreCharacterStats reconstructs stats from persisted values and maxima
func RestoreCharacterStats(values, maxima map[string]int) (CharacterStats, error) {
	if len(values) == 0 {
		return CharacterStats{}, fmt.Errorf("at least one stat is required")
	}
	v := make(map[string]int, len(values))
	m := make(map[string]int, len(maxima))
	for name, val := range values {
		max, ok := maxima[name]
		if !ok {
			return CharacterStats{}, fmt.Errorf("stat %q has no recorded maximum", name)
		}
		if val < 0 || val > max {
			return CharacterStats{}, fmt.Errorf("stat %q value %d outside [0, %d]", name, val, max)
		}
		v[name] = val
		m[name] = max
	}
	return CharacterStats{values: v, maxima: m}, nil
}

// Value returns the current value of a named stat
func (s CharacterStats) Value(name string) (int, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Maximum returns the fixed ceiling of a named stat
func (s CharacterStats) Maximum(name string) (int, bool) {
	m, ok := s.maxima[name]
	return m, ok
}

// Names returns all stat names in sorted order
func (s CharacterStats) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns a copy of all current stat values
func (s CharacterStats) Values() map[string]int {
	return copyStatMap(s.values)
}

// Maxima returns a copy of all stat ceilings
func (s CharacterStats) Maxima() map[string]int {
	return copyStatMap(s.maxima)
}

// ApplyDeltas returns new stats with the deltas applied, each result capped
// at the stat's ceiling and floored at zero. Deltas naming unknown stats
// are rejected.
func (s CharacterStats) ApplyDeltas(deltas map[string]int) (CharacterStats, error) {
	values := copyStatMap(s.values)
	for name, delta := range deltas {
		current, ok := values[name]
		if !ok {
			return CharacterStats{}, fmt.Errorf("unknown stat: %q", name)
		}
		next := current + delta
		if max := s.maxima[name]; next > max {
			next = max
		}
		if next < 0 {
			next = 0
		}
		values[name] = next
	}
	return CharacterStats{values: values, maxima: copyStatMap(s.maxima)}, nil
}

// IsDepleted reports whether the named stat has reached zero
func (s CharacterStats) IsDepleted(name string) bool {
	v, ok := s.values[name]
	return ok && v == 0
}

func copyStatMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
