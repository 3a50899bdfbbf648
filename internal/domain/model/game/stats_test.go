package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCharacterStats(t *testing.T) {
	stats, err := NewCharacterStats(map[string]int{"skill": 10, "stamina": 18})
	require.NoError(t, err)

	v, ok := stats.Value("skill")
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	// Initial value doubles as the permanent maximum
	m, ok := stats.Maximum("stamina")
	assert.True(t, ok)
	assert.Equal(t, 18, m)
}

func TestNewCharacterStats_Invalid(t *testing.T) {
	_, err := NewCharacterStats(nil)
	assert.Error(t, err)

	_, err = NewCharacterStats(map[string]int{"": 5})
	assert.Error(t, err)

	_, err = NewCharacterStats(map[string]int{"luck": -1})
	assert.Error(t, err)
}

func TestCharacterStats_ApplyDeltas(t *testing.T) {
	stats, err := NewCharacterStats(map[string]int{"stamina": 18, "luck": 11})
	require.NoError(t, err)

	next, err := stats.ApplyDeltas(map[string]int{"stamina": -4, "luck": -1})
	require.NoError(t, err)

	v, _ := next.Value("stamina")
	assert.Equal(t, 14, v)
	v, _ = next.Value("luck")
	assert.Equal(t, 10, v)

	// The original value is untouched
	v, _ = stats.Value("stamina")
	assert.Equal(t, 18, v)
}

func TestCharacterStats_ApplyDeltas_CapsAtCeiling(t *testing.T) {
	stats, err := NewCharacterStats(map[string]int{"stamina": 18})
	require.NoError(t, err)

	lowered, err := stats.ApplyDeltas(map[string]int{"stamina": -6})
	require.NoError(t, err)

	// A large heal may not push the stat above its ceiling
	healed, err := lowered.ApplyDeltas(map[string]int{"stamina": +100})
	require.NoError(t, err)
	v, _ := healed.Value("stamina")
	assert.Equal(t, 18, v)
}

func TestCharacterStats_ApplyDeltas_FloorsAtZero(t *testing.T) {
	stats, err := NewCharacterStats(map[string]int{"stamina": 5})
	require.NoError(t, err)

	next, err := stats.ApplyDeltas(map[string]int{"stamina": -20})
	require.NoError(t, err)
	v, _ := next.Value("stamina")
	assert.Equal(t, 0, v)
	assert.True(t, next.IsDepleted("stamina"))
}

func TestCharacterStats_ApplyDeltas_UnknownStat(t *testing.T) {
	stats, err := NewCharacterStats(map[string]int{"skill": 10})
	require.NoError(t, err)

	_, err = stats.ApplyDeltas(map[string]int{"magic": 3})
	assert.Error(t, err)
}

func TestRestoreCharacterStats(t *testing.T) {
	stats, err := RestoreCharacterStats(
		map[string]int{"stamina": 12},
		map[string]int{"stamina": 18},
	)
	require.NoError(t, err)
	v, _ := stats.Value("stamina")
	assert.Equal(t, 12, v)
	m, _ := stats.Maximum("stamina")
	assert.Equal(t, 18, m)

	_, err = RestoreCharacterStats(map[string]int{"stamina": 20}, map[string]int{"stamina": 18})
	assert.Error(t, err)

	_, err = RestoreCharacterStats(map[string]int{"stamina": 12}, map[string]int{})
	assert.Error(t, err)
}

func TestCharacterStats_Names_Sorted(t *testing.T) {
	stats, err := NewCharacterStats(map[string]int{"stamina": 18, "luck": 11, "skill": 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"luck", "skill", "stamina"}, stats.Names())
}
