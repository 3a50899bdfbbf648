package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConditions(t *testing.T) {
	effects := ParseConditions([]string{
		"stat:stamina:-2",
		"stat:luck:+1",
		"item:+brass-lantern",
		"item:-rope",
		"the door creaks shut behind you",
	})

	assert.Equal(t, map[string]int{"stamina": -2, "luck": 1}, effects.StatDeltas)
	assert.Equal(t, []string{"brass-lantern"}, effects.AddItems)
	assert.Equal(t, []string{"rope"}, effects.RemoveItems)
	assert.Equal(t, []string{"the door creaks shut behind you"}, effects.Notes)
	assert.False(t, effects.IsEmpty())
}

func TestParseConditions_AccumulatesDeltas(t *testing.T) {
	effects := ParseConditions([]string{"stat:stamina:-2", "stat:stamina:-3"})
	assert.Equal(t, -5, effects.StatDeltas["stamina"])
}

func TestParseConditions_MalformedKeptAsNotes(t *testing.T) {
	effects := ParseConditions([]string{
		"stat:stamina",      // missing delta
		"stat::3",           // missing name
		"stat:luck:much",    // non-numeric delta
		"item:+",            // missing item
	})
	assert.Empty(t, effects.StatDeltas)
	assert.Empty(t, effects.AddItems)
	assert.Len(t, effects.Notes, 3)
	assert.True(t, effects.IsEmpty())
}

func TestParseConditions_Empty(t *testing.T) {
	effects := ParseConditions(nil)
	assert.True(t, effects.IsEmpty())
}
