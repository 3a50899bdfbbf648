package step

import (
	"strconv"
	"strings"
)

// Conditions carried on RulesResult and DecisionResult are plain strings.
// Entries matching the small grammar below turn into state deltas when a
// step commits; anything else is informational and kept verbatim in the
// trace payload.
//
//	stat:<name>:<delta>   e.g. "stat:stamina:-2", "stat:luck:+1"
//	item:+<id>            gain an item, e.g. "item:+brass-lantern"
//	item:-<id>            lose an item, e.g. "item:-rope"

// Effects are the concrete state deltas parsed from condition strings
type Effects struct {
	StatDeltas  map[string]int
	AddItems    []string
	RemoveItems []string
	Notes       []string // conditions that did not match the grammar
}

// ParseConditions extracts state deltas from condition strings.
// Later stat deltas for the same stat accumulate.
func ParseConditions(conditions []string) Effects {
	effects := Effects{StatDeltas: make(map[string]int)}

	for _, c := range conditions {
		switch {
		case strings.HasPrefix(c, "stat:"):
			parts := strings.SplitN(c, ":", 3)
			if len(parts) != 3 || parts[1] == "" {
				effects.Notes = append(effects.Notes, c)
				continue
			}
			delta, err := strconv.Atoi(strings.TrimPrefix(parts[2], "+"))
			if err != nil {
				effects.Notes = append(effects.Notes, c)
				continue
			}
			effects.StatDeltas[parts[1]] += delta

		case strings.HasPrefix(c, "item:+"):
			if id := strings.TrimPrefix(c, "item:+"); id != "" {
				effects.AddItems = append(effects.AddItems, id)
			}

		case strings.HasPrefix(c, "item:-"):
			if id := strings.TrimPrefix(c, "item:-"); id != "" {
				effects.RemoveItems = append(effects.RemoveItems, id)
			}

		default:
			effects.Notes = append(effects.Notes, c)
		}
	}

	return effects
}

// IsEmpty reports whether the effects change no state
func (e Effects) IsEmpty() bool {
	return len(e.StatDeltas) == 0 && len(e.AddItems) == 0 && len(e.RemoveItems) == 0
}
